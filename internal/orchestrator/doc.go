// Package orchestrator управляет выполнением runs.
//
// Orchestrator отвечает за:
//   - Получение новых runs из очереди RabbitMQ
//   - Валидацию спецификации pipeline и построение DAG jobs
//   - Создание записей jobs и диспатч готовых jobs worker'ам
//   - Отслеживание завершения jobs
//   - Каскадный пропуск jobs, чьи зависимости упали
//   - Финализацию run (SUCCEEDED/FAILED)
//
// Orchestrator — это "мозг" системы, который координирует выполнение.
package orchestrator
