package actions

import (
	"fmt"
	"strings"

	"github.com/shaiso/Conveyor/internal/report"
)

// Registry — реестр действий по ссылке "name@version".
type Registry struct {
	actions map[string]Action
}

// RegistryConfig — клиенты внешних сервисов для встроенных действий.
type RegistryConfig struct {
	// Codecov — клиент загрузки отчётов покрытия.
	Codecov *report.CodecovClient

	// Metrics — клиент публикации метрик покрытия.
	Metrics *report.MetricsClient
}

// NewRegistry создаёт реестр со встроенными действиями.
//
// Регистрирует: checkout@v1, toolchain@v1, upload-artifact@v1,
// codecov-upload@v1, doc-coverage@v1.
func NewRegistry(cfg RegistryConfig) *Registry {
	r := &Registry{actions: make(map[string]Action)}
	r.Register("checkout@v1", &CheckoutAction{})
	r.Register("toolchain@v1", &ToolchainAction{})
	r.Register("upload-artifact@v1", &UploadArtifactAction{})
	r.Register("codecov-upload@v1", &CodecovUploadAction{Client: cfg.Codecov})
	r.Register("doc-coverage@v1", &DocCoverageAction{Metrics: cfg.Metrics})
	return r
}

// Register добавляет действие по ссылке "name@version".
func (r *Registry) Register(ref string, action Action) {
	r.actions[ref] = action
}

// Get возвращает действие по ссылке из uses.
func (r *Registry) Get(ref string) (Action, error) {
	action, ok := r.actions[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, ref)
	}
	return action, nil
}

// SplitRef разбирает ссылку "name@version" на имя и версию.
// Для ссылки без версии возвращает пустую версию.
func SplitRef(ref string) (name, version string) {
	if i := strings.LastIndex(ref, "@"); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return ref, ""
}
