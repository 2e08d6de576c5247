package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/shaiso/Conveyor/internal/actions"
)

// ShellRunner выполняет shell-команды в workspace job.
//
// Реализует actions.CommandRunner: скрипт запускается через sh -c
// в рабочем каталоге с окружением процесса, расширенным env шага.
type ShellRunner struct {
	// Dir — рабочий каталог (workspace job).
	Dir string
}

// Exec запускает скрипт и возвращает объединённый вывод и код завершения.
//
// Ненулевой код завершения — не ошибка Exec: команда отработала,
// просто неуспешно. Ошибка возвращается только когда процесс не
// удалось запустить или его прервал context.
func (r *ShellRunner) Exec(ctx context.Context, script string, env map[string]string) (actions.ExecOutcome, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	cmd.Dir = r.Dir
	cmd.Env = buildEnv(env)

	out, err := cmd.CombinedOutput()
	outcome := actions.ExecOutcome{Output: string(out)}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcome, fmt.Errorf("command interrupted: %w", ctxErr)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
			return outcome, nil
		}

		return outcome, fmt.Errorf("exec: %w", err)
	}

	return outcome, nil
}

// buildEnv собирает окружение процесса: env процесса worker
// расширяется переменными шага.
func buildEnv(env map[string]string) []string {
	merged := os.Environ()
	for key, value := range env {
		merged = append(merged, key+"="+value)
	}
	return merged
}
