package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// UploadArtifactAction — действие upload-artifact@v1.
//
// Сохраняет файл из workspace как именованный артефакт run.
//
// Config (из with):
//   - name (string): имя артефакта (обязательно)
//   - path (string): путь к файлу относительно workspace (обязательно)
//   - rename (string): имя файла внутри артефакта. Default: базовое имя path
//
// С rename файл сохраняется под новым именем: path=cobertura.xml с
// rename=test-coverage.xml кладёт в артефакт test-coverage.xml, и
// именно под этим именем файл виден при скачивании.
type UploadArtifactAction struct{}

// Run сохраняет артефакт.
func (a *UploadArtifactAction) Run(ctx context.Context, inv *Invocation) (*Result, error) {
	name := getString(inv.With, "name", "")
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrBadConfig)
	}
	path := getString(inv.With, "path", "")
	if path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrBadConfig)
	}

	fileName := getString(inv.With, "rename", filepath.Base(path))

	f, err := os.Open(filepath.Join(inv.Workspace, path))
	if err != nil {
		return nil, fmt.Errorf("open artifact source: %w", err)
	}
	defer f.Close()

	if err := inv.Artifacts.Save(name, fileName, f); err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}

	inv.Logger.Info("artifact uploaded",
		"name", name,
		"file", fileName,
	)

	return &Result{Output: fmt.Sprintf("uploaded %s as %s/%s", path, name, fileName)}, nil
}
