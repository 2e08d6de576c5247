// Package report содержит разбор отчётов покрытия и клиентов
// внешних сервисов отчётности.
//
// Включает:
//   - extract.go — извлечение итогового процента из текстового отчёта
//   - codecov.go — загрузка XML-отчётов покрытия в codecov
//   - metrics.go — публикация процента покрытия в сервис метрик
package report
