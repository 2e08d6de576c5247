package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultMetricsEndpoint = "https://metrics.shaiso.dev/api/coverage"
	defaultMetricsTimeout  = 10 * time.Second
)

// MetricsConfig — конфигурация клиента сервиса метрик.
type MetricsConfig struct {
	// Endpoint — URL эндпоинта приёма метрик покрытия.
	Endpoint string

	// Timeout — таймаут HTTP-запросов.
	Timeout time.Duration
}

// CoverageMetric — тело запроса к сервису метрик.
type CoverageMetric struct {
	// Name — имя проекта.
	Name string `json:"name"`

	// Percent — итоговый процент покрытия, строкой как в отчёте
	// (например "80.0%").
	Percent string `json:"percent"`
}

// MetricsClient — клиент для публикации процента документационного
// покрытия во внешний сервис метрик.
type MetricsClient struct {
	endpoint string
	client   *http.Client
}

// NewMetricsClient создаёт новый клиент сервиса метрик.
func NewMetricsClient(cfg MetricsConfig) *MetricsClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultMetricsEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultMetricsTimeout
	}

	return &MetricsClient{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Publish отправляет процент покрытия для проекта name.
// Значение передаётся как есть, в том виде, в каком оно извлечено
// из отчёта.
func (c *MetricsClient) Publish(ctx context.Context, name string, percent string) error {
	body, err := json.Marshal(CoverageMetric{Name: name, Percent: percent})
	if err != nil {
		return fmt.Errorf("%w: marshal metric: %v", ErrMetricsPublish, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrMetricsPublish, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMetricsPublish, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: HTTP %d: %s", ErrMetricsPublish, resp.StatusCode, string(respBody))
	}

	return nil
}
