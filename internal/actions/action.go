package actions

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/secrets"
)

// Action — интерфейс встроенного действия (шаг с uses).
//
// inv.With содержит конфигурацию шага. Результат действия может
// расширить окружение последующих шагов job через Result.Env.
type Action interface {
	Run(ctx context.Context, inv *Invocation) (*Result, error)
}

// Invocation — контекст вызова действия внутри одного шага job.
type Invocation struct {
	// RunID — run, в рамках которого выполняется шаг.
	RunID uuid.UUID

	// JobID — job, которому принадлежит шаг.
	JobID uuid.UUID

	// StepName — отображаемое имя шага.
	StepName string

	// With — конфигурация действия из спецификации шага.
	With map[string]any

	// Env — эффективное окружение шага (процесс + job + шаг + секреты).
	Env map[string]string

	// Workspace — рабочий каталог job.
	Workspace string

	// Event — триггер-событие run (ветка, SHA).
	Event domain.TriggerEvent

	// RepoURL — адрес репозитория проекта.
	RepoURL string

	// ProjectName — имя проекта (имя pipeline).
	ProjectName string

	// Secrets — секреты, объявленные шагом, уже разрешённые worker.
	Secrets map[string]secrets.Value

	// Artifacts — приёмник артефактов текущего job.
	Artifacts ArtifactSink

	// Runner — запуск shell-команд в workspace job.
	Runner CommandRunner

	// Logger — логгер с контекстом run/job.
	Logger *slog.Logger
}

// Result — результат выполнения действия.
type Result struct {
	// Output — текстовый вывод действия (попадает в StepResult.Output).
	Output string

	// Env — переменные окружения, которые действие добавляет для
	// всех последующих шагов job. Так выбор toolchain в одном шаге
	// действует до конца job.
	Env map[string]string
}

// ArtifactSink — приёмник артефактов job. Реализуется worker поверх
// файлового хранилища и репозитория метаданных.
type ArtifactSink interface {
	// Save сохраняет артефакт name с файлом fileName.
	Save(name, fileName string, r io.Reader) error
}

// ExecOutcome — результат запуска shell-команды.
type ExecOutcome struct {
	// Output — объединённый stdout/stderr.
	Output string

	// ExitCode — код завершения процесса.
	ExitCode int
}

// CommandRunner — запуск shell-команд в workspace job.
// Реализуется worker (sh -c в рабочем каталоге с окружением шага).
type CommandRunner interface {
	Exec(ctx context.Context, script string, env map[string]string) (ExecOutcome, error)
}

// getString извлекает строку из with с default значением.
func getString(with map[string]any, key, defaultVal string) string {
	if val, ok := with[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return defaultVal
}

// getStringList извлекает список строк из with.
func getStringList(with map[string]any, key string) []string {
	val, ok := with[key]
	if !ok || val == nil {
		return nil
	}

	switch v := val.(type) {
	case []string:
		return v
	case []any:
		list := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}
		return list
	}
	return nil
}
