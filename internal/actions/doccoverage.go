package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shaiso/Conveyor/internal/report"
)

// DocCoverageAction — действие doc-coverage@v1.
//
// Считает документационное покрытие проекта, сохраняет текстовый
// отчёт в workspace и публикует итоговый процент в сервис метрик.
//
// Config (из with):
//   - report (string): путь файла отчёта относительно workspace (обязательно)
//   - name (string): имя проекта для метрики. Default: ProjectName из invocation
//
// Отчёт — markdown-таблица; итоговая строка начинается с "| Total".
type DocCoverageAction struct {
	// Metrics — клиент сервиса метрик.
	Metrics *report.MetricsClient
}

// Run считает покрытие и публикует метрику.
func (a *DocCoverageAction) Run(ctx context.Context, inv *Invocation) (*Result, error) {
	reportPath := getString(inv.With, "report", "")
	if reportPath == "" {
		return nil, fmt.Errorf("%w: report is required", ErrBadConfig)
	}
	name := getString(inv.With, "name", inv.ProjectName)

	// rustdoc пишет таблицу покрытия в stdout
	script := "cargo rustdoc -- -Z unstable-options --show-coverage"

	outcome, err := inv.Runner.Exec(ctx, script, inv.Env)
	if err != nil {
		return nil, fmt.Errorf("doc coverage: %w", err)
	}
	if outcome.ExitCode != 0 {
		return nil, fmt.Errorf("%w: rustdoc exited with %d: %s",
			ErrCommandFailed, outcome.ExitCode, outcome.Output)
	}

	if err := os.WriteFile(filepath.Join(inv.Workspace, reportPath), []byte(outcome.Output), 0o644); err != nil {
		return nil, fmt.Errorf("write doc coverage report: %w", err)
	}

	percent, err := report.ExtractTotalPercent(outcome.Output)
	if err != nil {
		return nil, err
	}

	// Значение уходит в сервис метрик строкой, без преобразования
	if err := a.Metrics.Publish(ctx, name, percent); err != nil {
		return nil, err
	}

	inv.Logger.Info("doc coverage published",
		"name", name,
		"percent", percent,
	)

	return &Result{Output: fmt.Sprintf("doc coverage %s published for %s", percent, name)}, nil
}
