// Package artifact содержит файловое хранилище содержимого артефактов.
//
// Метаданные артефактов (имя, размер, принадлежность run/job) живут
// в Postgres; содержимое — на диске под управлением Store.
package artifact
