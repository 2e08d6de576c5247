package report

import (
	"errors"
	"testing"
)

func TestExtractTotalPercent(t *testing.T) {
	report := `Documentation coverage report
| File       | Documented | Total | Percentage |
|------------|------------|-------|------------|
| src/lib.rs | 8          | 10    | 80.0%      |
| Total      | 8          | 10    | 80.0%      |
`
	// Итоговая строка без выравнивания тоже валидна
	compact := "| Total | 10 | 8 | 80.0% |"

	tests := []struct {
		name   string
		report string
		want   string
	}{
		{"aligned table", report, "80.0%"},
		{"compact total line", compact, "80.0%"},
		{"full coverage", "| Total | 5 | 5 | 100.0% |", "100.0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTotalPercent(tt.report)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractTotalPercent_NoTotalLine(t *testing.T) {
	report := `| File | Documented | Total | Percentage |
| src/lib.rs | 8 | 10 | 80.0% |
`
	_, err := ExtractTotalPercent(report)
	if !errors.Is(err, ErrNoTotalLine) {
		t.Errorf("expected ErrNoTotalLine, got %v", err)
	}
}

func TestExtractTotalPercent_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		report string
	}{
		{"too few fields", "| Total | 10 |"},
		{"empty percent field", "| Total | 10 | 8 |  |"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractTotalPercent(tt.report)
			if !errors.Is(err, ErrMalformedReport) {
				t.Errorf("expected ErrMalformedReport, got %v", err)
			}
		})
	}
}
