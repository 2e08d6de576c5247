package report

import "errors"

// Ошибки разбора отчётов покрытия.
var (
	// ErrNoTotalLine — в отчёте нет итоговой строки "| Total".
	ErrNoTotalLine = errors.New("report has no total line")

	// ErrMalformedReport — итоговая строка имеет неожиданный формат.
	ErrMalformedReport = errors.New("malformed coverage report")
)

// Ошибки внешних сервисов.
var (
	// ErrCodecovUpload — загрузка отчёта в codecov завершилась ошибкой.
	ErrCodecovUpload = errors.New("codecov upload failed")

	// ErrMetricsPublish — публикация метрики покрытия завершилась ошибкой.
	ErrMetricsPublish = errors.New("metrics publish failed")
)
