package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultCodecovTimeout = 30 * time.Second

// CodecovConfig — конфигурация клиента codecov.
type CodecovConfig struct {
	// BaseURL — адрес API codecov.
	BaseURL string

	// Timeout — таймаут HTTP-запросов.
	Timeout time.Duration
}

// CodecovClient — клиент для загрузки отчётов покрытия в codecov.
type CodecovClient struct {
	baseURL string
	client  *http.Client
}

// NewCodecovClient создаёт новый клиент codecov.
func NewCodecovClient(cfg CodecovConfig) *CodecovClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://codecov.io"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultCodecovTimeout
	}

	return &CodecovClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Upload загружает XML-отчёт покрытия.
//
// token — значение секрета CODECOV_TOKEN; передаётся в заголовке
// и никогда не логируется.
func (c *CodecovClient) Upload(ctx context.Context, token, sha, branch string, report []byte) error {
	url := fmt.Sprintf("%s/upload/v2?commit=%s&branch=%s", c.baseURL, sha, branch)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(report))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrCodecovUpload, err)
	}
	req.Header.Set("Content-Type", "text/xml")
	req.Header.Set("Authorization", "token "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCodecovUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: HTTP %d: %s", ErrCodecovUpload, resp.StatusCode, string(body))
	}

	return nil
}
