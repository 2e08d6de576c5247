package domain

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline — зарегистрированный CI pipeline проекта.
//
// Pipeline привязан к репозиторию и хранит версионированную
// спецификацию: каждое изменение спецификации создаёт новую
// PipelineVersion, а идущие runs продолжают выполнять свою версию.
type Pipeline struct {
	// ID — уникальный идентификатор pipeline.
	ID uuid.UUID `json:"id"`

	// Name — уникальное имя pipeline (имя проекта).
	Name string `json:"name"`

	// RepoURL — адрес репозитория проекта.
	RepoURL string `json:"repo_url"`

	// IsActive — флаг активности. Неактивный pipeline не запускается
	// ни по push, ни по расписанию.
	IsActive bool `json:"is_active"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// PipelineVersion — конкретная версия спецификации pipeline.
type PipelineVersion struct {
	// PipelineID — ссылка на pipeline.
	PipelineID uuid.UUID `json:"pipeline_id"`

	// Version — номер версии (инкрементируется с 1).
	Version int `json:"version"`

	// Spec — спецификация pipeline.
	Spec PipelineSpec `json:"spec"`

	// CreatedAt — время создания версии.
	CreatedAt time.Time `json:"created_at"`
}

// PipelineSpec — декларативная спецификация pipeline.
//
// Спецификация пишется в YAML:
//
//	name: toolbelt
//	on: [push]
//	jobs:
//	  build:
//	    steps:
//	      - uses: checkout@v1
//	      - run: cargo build
type PipelineSpec struct {
	// Name — имя проекта.
	Name string `json:"name" yaml:"name"`

	// On — триггеры запуска (push, schedule, manual).
	On []string `json:"on" yaml:"on"`

	// Jobs — jobs pipeline по имени.
	Jobs map[string]JobDef `json:"jobs" yaml:"jobs"`
}

// JobDef — определение одного job в спецификации.
//
// Jobs без needs выполняются параллельно; job с needs ждёт
// успешного завершения всех перечисленных jobs.
type JobDef struct {
	// Steps — шаги job, выполняются последовательно.
	Steps []StepDef `json:"steps" yaml:"steps"`

	// Needs — имена jobs, от которых зависит этот job.
	Needs []string `json:"needs,omitempty" yaml:"needs,omitempty"`

	// Env — переменные окружения для всех шагов job.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// StepDef — определение одного шага job.
//
// Шаг — либо shell-команда (run), либо встроенное действие (uses);
// ровно одно из двух.
type StepDef struct {
	// Name — отображаемое имя шага.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Run — shell-команда.
	Run string `json:"run,omitempty" yaml:"run,omitempty"`

	// Uses — ссылка на действие вида "name@version" (checkout@v1).
	Uses string `json:"uses,omitempty" yaml:"uses,omitempty"`

	// With — конфигурация действия.
	With map[string]any `json:"with,omitempty" yaml:"with,omitempty"`

	// Env — переменные окружения шага (поверх env job).
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// Secrets — имена секретов, доступных шагу.
	Secrets []string `json:"secrets,omitempty" yaml:"secrets,omitempty"`

	// TimeoutSec — таймаут шага в секундах. 0 — без таймаута.
	TimeoutSec int `json:"timeout_sec,omitempty" yaml:"timeout_sec,omitempty"`
}

// IsCommand возвращает true для шага с shell-командой.
func (s *StepDef) IsCommand() bool {
	return s.Run != ""
}

// IsAction возвращает true для шага со встроенным действием.
func (s *StepDef) IsAction() bool {
	return s.Uses != ""
}

// DisplayName возвращает имя шага для логов и отчётов.
func (s *StepDef) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Uses != "" {
		return s.Uses
	}
	return s.Run
}
