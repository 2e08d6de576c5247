package actions

import "errors"

// Ошибки выполнения действий.
var (
	// ErrUnknownAction — действие с такой ссылкой не зарегистрировано.
	ErrUnknownAction = errors.New("unknown action")

	// ErrBadConfig — конфигурация действия (with) невалидна.
	ErrBadConfig = errors.New("invalid action config")

	// ErrMissingSecret — шагу не передан секрет, нужный действию.
	ErrMissingSecret = errors.New("missing secret")

	// ErrCommandFailed — команда, запущенная действием, завершилась с ошибкой.
	ErrCommandFailed = errors.New("action command failed")
)
