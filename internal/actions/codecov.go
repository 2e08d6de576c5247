package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shaiso/Conveyor/internal/report"
)

// codecovTokenSecret — имя секрета с токеном codecov.
const codecovTokenSecret = "CODECOV_TOKEN"

// CodecovUploadAction — действие codecov-upload@v1.
//
// Загружает XML-отчёт покрытия в codecov. Токен берётся из секрета
// CODECOV_TOKEN, который шаг обязан объявить в secrets.
//
// Config (из with):
//   - file (string): путь к отчёту относительно workspace (обязательно)
type CodecovUploadAction struct {
	// Client — клиент codecov.
	Client *report.CodecovClient
}

// Run загружает отчёт.
func (a *CodecovUploadAction) Run(ctx context.Context, inv *Invocation) (*Result, error) {
	file := getString(inv.With, "file", "")
	if file == "" {
		return nil, fmt.Errorf("%w: file is required", ErrBadConfig)
	}

	token, ok := inv.Secrets[codecovTokenSecret]
	if !ok || token.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrMissingSecret, codecovTokenSecret)
	}

	data, err := os.ReadFile(filepath.Join(inv.Workspace, file))
	if err != nil {
		return nil, fmt.Errorf("read coverage report: %w", err)
	}

	if err := a.Client.Upload(ctx, token.Reveal(), inv.Event.SHA, inv.Event.Branch, data); err != nil {
		return nil, err
	}

	inv.Logger.Info("coverage report uploaded",
		"file", file,
		"branch", inv.Event.Branch,
	)

	return &Result{Output: fmt.Sprintf("uploaded %s to codecov", file)}, nil
}
