package domain

// Вид триггер-события, породившего run.
const (
	// TriggerPush — push в отслеживаемый репозиторий.
	TriggerPush = "push"

	// TriggerSchedule — запуск по расписанию.
	TriggerSchedule = "schedule"

	// TriggerManual — ручной запуск через API или CLI.
	TriggerManual = "manual"
)

// TriggerEvent — событие, запустившее run.
//
// Для push-событий заполняются Branch и SHA; они доступны шагам job
// через переменные окружения CI_BRANCH и CI_SHA.
type TriggerEvent struct {
	// Kind — вид события: push, schedule или manual.
	Kind string `json:"kind"`

	// Branch — ветка, в которую был push.
	Branch string `json:"branch,omitempty"`

	// SHA — хеш коммита.
	SHA string `json:"sha,omitempty"`

	// Actor — инициатор события (автор push или имя пользователя).
	Actor string `json:"actor,omitempty"`
}
