// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (репозитории, store, publisher, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - pipeline_handler.go — обработчики для /pipelines и версий спецификаций
//   - run_handler.go      — обработчики для /runs
//   - event_handler.go    — приём push-событий от репозиториев
//   - artifact_handler.go — метаданные и скачивание артефактов
//   - schedule_handler.go — обработчики для /schedules
//
// API предоставляет REST endpoints для управления pipelines, runs,
// артефактами и расписаниями, а также принимает внешние события.
package api
