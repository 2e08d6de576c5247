package actions

import (
	"context"
	"fmt"
	"strings"
)

const defaultToolchain = "stable"

// ToolchainAction — действие toolchain@v1.
//
// Устанавливает Rust toolchain и компоненты через rustup.
//
// Config (из with):
//   - toolchain (string): имя toolchain (stable, nightly, 1.80). Default: stable
//   - components ([]string): компоненты rustup (rustfmt, clippy)
//
// Выбранный toolchain действует до конца job: действие возвращает
// RUSTUP_TOOLCHAIN в Result.Env, и последующие шаги (включая обычные
// run-команды) выполняются с этим окружением.
type ToolchainAction struct{}

// Run устанавливает toolchain.
func (a *ToolchainAction) Run(ctx context.Context, inv *Invocation) (*Result, error) {
	toolchain := getString(inv.With, "toolchain", defaultToolchain)
	components := getStringList(inv.With, "components")

	script := fmt.Sprintf("rustup toolchain install %s --profile minimal", toolchain)
	if len(components) > 0 {
		script += fmt.Sprintf(" && rustup component add --toolchain %s %s",
			toolchain, strings.Join(components, " "))
	}

	outcome, err := inv.Runner.Exec(ctx, script, inv.Env)
	if err != nil {
		return nil, fmt.Errorf("toolchain: %w", err)
	}
	if outcome.ExitCode != 0 {
		return nil, fmt.Errorf("%w: rustup exited with %d: %s",
			ErrCommandFailed, outcome.ExitCode, outcome.Output)
	}

	inv.Logger.Info("toolchain installed",
		"toolchain", toolchain,
		"components", components,
	)

	return &Result{
		Output: outcome.Output,
		Env:    map[string]string{"RUSTUP_TOOLCHAIN": toolchain},
	}, nil
}
