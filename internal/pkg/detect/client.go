package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fictusai/fictus_go_server/config"
)

var (
	ErrUnauthorized = errors.New("检测服务认证失败")
	ErrRateLimited  = errors.New("检测服务限流")
	ErrUnavailable  = errors.New("检测服务暂不可用")
)

// Result 检测结论
type Result struct {
	Verdict    string  `json:"verdict"` // ai, human, unknown
	Confidence float64 `json:"confidence"`
}

// Client AI-or-Not 风格的检测 API 客户端
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg *config.DetectionConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type reportRequest struct {
	URL      string `json:"url"`
	Category string `json:"category"` // video, image
}

type reportResponse struct {
	Report struct {
		Verdict    string  `json:"verdict"`
		Confidence float64 `json:"confidence"`
	} `json:"report"`
}

// Detect 提交媒体 URL 做一次同步检测
func (c *Client) Detect(ctx context.Context, category, mediaURL string) (*Result, error) {
	payload, err := json.Marshal(reportRequest{URL: mediaURL, Category: category})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/reports", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, ErrUnavailable
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("detection api error: status %d, body %s", resp.StatusCode, string(body))
	}

	var report reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode detect response: %w", err)
	}

	result := &Result{
		Verdict:    report.Report.Verdict,
		Confidence: report.Report.Confidence,
	}
	if result.Verdict == "" {
		result.Verdict = "unknown"
	}

	return result, nil
}
