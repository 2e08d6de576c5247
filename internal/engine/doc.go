// Package engine содержит движок разбора спецификаций pipeline.
//
// Включает:
//   - parser.go — парсинг PipelineSpec из YAML и валидация
//   - dag.go    — построение и обход DAG (directed acyclic graph) jobs
//
// Engine отвечает за понимание структуры pipeline и определение
// порядка выполнения jobs на основе их зависимостей (needs).
package engine
