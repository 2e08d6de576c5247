// Package actions содержит встроенные действия — шаги с uses.
//
// Действие адресуется ссылкой "name@version" (checkout@v1) и
// получает конфигурацию из with. Реестр действий собирается worker
// при старте; клиенты внешних сервисов передаются через RegistryConfig.
package actions
