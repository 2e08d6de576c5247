// Package worker выполняет jobs.
//
// Worker отвечает за:
//   - Получение jobs из очереди RabbitMQ
//   - Атомарный захват job (QUEUED → RUNNING)
//   - Последовательное выполнение шагов job в изолированном workspace
//   - Shell-команды (run) и встроенные действия (uses)
//   - Редактирование секретов в сохраняемом выводе
//   - Публикацию результата в очередь jobs.completed
//
// Worker — stateless: всё состояние в БД, экземпляры масштабируются
// горизонтально.
package worker
