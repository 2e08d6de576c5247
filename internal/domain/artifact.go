package domain

import (
	"time"

	"github.com/google/uuid"
)

// Artifact — именованный файл, сохранённый шагом во время выполнения job.
//
// Артефакты адресуются тройкой (run, job, name): два разных job в одном
// run могут сохранить артефакты с одинаковым именем, и обе записи
// сосуществуют. Запрос артефактов run по имени возвращает все совпадения.
//
// Артефакт неизменяем после записи: повторная запись той же тройки —
// ошибка.
type Artifact struct {
	// ID — уникальный идентификатор артефакта.
	ID uuid.UUID `json:"id"`

	// RunID — run, в рамках которого создан артефакт.
	RunID uuid.UUID `json:"run_id"`

	// JobID — job, сохранивший артефакт.
	JobID uuid.UUID `json:"job_id"`

	// JobName — имя job из спецификации (для адресации по имени).
	JobName string `json:"job_name"`

	// Name — логическое имя артефакта (ключ name в upload-artifact).
	Name string `json:"name"`

	// FileName — имя файла внутри артефакта. Может отличаться от
	// исходного пути, если шаг переименовал файл при сохранении.
	FileName string `json:"file_name"`

	// Size — размер файла в байтах.
	Size int64 `json:"size"`

	// StoragePath — путь к файлу в хранилище артефактов.
	StoragePath string `json:"storage_path"`

	// CreatedAt — время сохранения.
	CreatedAt time.Time `json:"created_at"`
}
