// Package secrets содержит работу с секретами pipeline.
//
// Секреты объявляются по имени в шагах (secrets: [CODECOV_TOKEN])
// и разрешаются worker в момент выполнения шага. Значения секретов
// не сохраняются в спецификации pipeline, не логируются и
// редактируются в выводе шагов.
package secrets
