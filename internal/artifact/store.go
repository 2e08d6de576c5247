package artifact

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Ошибки хранилища артефактов.
var (
	// ErrAlreadyExists — артефакт с такой тройкой (run, job, name) уже сохранён.
	ErrAlreadyExists = errors.New("artifact already exists")

	// ErrNotFound — артефакт не найден.
	ErrNotFound = errors.New("artifact not found")
)

// Store — файловое хранилище содержимого артефактов.
//
// Раскладка на диске:
//
//	{root}/{run_id}/{job_id}/{name}/{file_name}
//
// Артефакт адресуется тройкой (run, job, name): два job в одном run
// могут сохранить артефакты с одинаковым именем, и файлы сосуществуют
// в каталогах своих jobs. Повторная запись той же тройки — ошибка.
type Store struct {
	root string
}

// NewStore создаёт хранилище с корнем в каталоге root.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &Store{root: root}, nil
}

// Save сохраняет содержимое артефакта.
//
// fileName — имя файла внутри артефакта; может отличаться от имени
// исходного файла, если шаг переименовал его при сохранении.
// Возвращает путь к сохранённому файлу и его размер.
func (s *Store) Save(runID, jobID uuid.UUID, name, fileName string, r io.Reader) (string, int64, error) {
	dir := s.artifactDir(runID, jobID, name)

	if _, err := os.Stat(dir); err == nil {
		return "", 0, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	} else if !os.IsNotExist(err) {
		return "", 0, fmt.Errorf("stat artifact dir: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create artifact dir: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(fileName))
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create artifact file: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.RemoveAll(dir)
		return "", 0, fmt.Errorf("write artifact file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.RemoveAll(dir)
		return "", 0, fmt.Errorf("close artifact file: %w", err)
	}

	return path, size, nil
}

// Open открывает содержимое артефакта для чтения.
// Вызывающий обязан закрыть возвращённый ReadCloser.
func (s *Store) Open(runID, jobID uuid.UUID, name, fileName string) (io.ReadCloser, error) {
	path := filepath.Join(s.artifactDir(runID, jobID, name), filepath.Base(fileName))

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("open artifact file: %w", err)
	}

	return f, nil
}

// Exists проверяет, сохранён ли артефакт с такой тройкой.
func (s *Store) Exists(runID, jobID uuid.UUID, name string) bool {
	_, err := os.Stat(s.artifactDir(runID, jobID, name))
	return err == nil
}

// RemoveRun удаляет все артефакты run. Используется при очистке
// старых runs.
func (s *Store) RemoveRun(runID uuid.UUID) error {
	return os.RemoveAll(filepath.Join(s.root, runID.String()))
}

// artifactDir возвращает каталог артефакта для тройки (run, job, name).
func (s *Store) artifactDir(runID, jobID uuid.UUID, name string) string {
	return filepath.Join(s.root, runID.String(), jobID.String(), name)
}
