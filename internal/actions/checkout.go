package actions

import (
	"context"
	"fmt"
)

// CheckoutAction — действие checkout@v1.
//
// Клонирует репозиторий проекта в workspace job и переключается на
// коммит из триггер-события.
//
// Config (из with):
//   - repo (string): адрес репозитория. Default: RepoURL из invocation
//   - depth (string): глубина клонирования. Default: "1"
type CheckoutAction struct{}

// Run выполняет checkout.
func (a *CheckoutAction) Run(ctx context.Context, inv *Invocation) (*Result, error) {
	repo := getString(inv.With, "repo", inv.RepoURL)
	if repo == "" {
		return nil, fmt.Errorf("%w: repo is required", ErrBadConfig)
	}
	depth := getString(inv.With, "depth", "1")

	script := fmt.Sprintf("git clone --depth %s %s .", depth, repo)
	if inv.Event.SHA != "" {
		// Для конкретного коммита глубины 1 недостаточно
		script = fmt.Sprintf("git clone %s . && git checkout %s", repo, inv.Event.SHA)
	}

	outcome, err := inv.Runner.Exec(ctx, script, inv.Env)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if outcome.ExitCode != 0 {
		return nil, fmt.Errorf("%w: git exited with %d: %s",
			ErrCommandFailed, outcome.ExitCode, outcome.Output)
	}

	inv.Logger.Info("repository checked out",
		"repo", repo,
		"sha", inv.Event.SHA,
	)

	return &Result{Output: outcome.Output}, nil
}
