package report

import (
	"fmt"
	"strings"
)

// Индекс колонки с процентом в итоговой строке таблицы:
// "| Total | 10 | 8 | 80.0% |" после split по "|" даёт
// ["", " Total ", " 10 ", " 8 ", " 80.0% ", ""].
const percentField = 4

// ExtractTotalPercent извлекает итоговый процент покрытия из
// текстового отчёта документационного покрытия.
//
// Отчёт — таблица в markdown-формате; итоговая строка начинается
// с "| Total". Возвращается значение колонки с процентом как есть,
// с обрезанными пробелами (например "80.0%").
//
// Возвращает ErrNoTotalLine, если итоговой строки нет, и
// ErrMalformedReport, если она не содержит ожидаемых колонок.
func ExtractTotalPercent(report string) (string, error) {
	for _, line := range strings.Split(report, "\n") {
		if !strings.HasPrefix(line, "| Total") {
			continue
		}

		fields := strings.Split(line, "|")
		if len(fields) <= percentField {
			return "", fmt.Errorf("%w: total line has %d fields", ErrMalformedReport, len(fields))
		}

		percent := strings.TrimSpace(fields[percentField])
		if percent == "" {
			return "", fmt.Errorf("%w: empty percent field", ErrMalformedReport)
		}

		return percent, nil
	}

	return "", ErrNoTotalLine
}
