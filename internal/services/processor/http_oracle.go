package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPOracle is the JSON-over-HTTP transport shared by the fraud and bank clients.
type HTTPOracle struct {
	name   string
	url    string
	client *http.Client
}

func NewHTTPOracle(name, url string, timeout time.Duration) *HTTPOracle {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   false,
	}
	return &HTTPOracle{
		name: name,
		url:  url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (p *HTTPOracle) GetName() string {
	return p.name
}

func (p *HTTPOracle) GetURL() string {
	return p.url
}

// PostJSON posts body to path and decodes the reply into out. It reports false
// when the oracle answered 2xx with an empty or null body.
func (p *HTTPOracle) PostJSON(ctx context.Context, path string, body any, out any) (bool, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("[%s] failed to marshal request: %w", p.name, err)
	}

	oracleURL := p.url + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oracleURL, bytes.NewReader(jsonData))
	if err != nil {
		return false, fmt.Errorf("[%s] failed to create request: %w", p.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("[%s] %w: %v", p.name, ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return false, fmt.Errorf("[%s] %w: received status code %d", p.name, ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("[%s] %w: received status code %d", p.name, ErrRequestRejected, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("[%s] %w: %v", p.name, ErrServiceUnavailable, err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("[%s] %w: %v", p.name, ErrMalformedResponse, err)
	}
	return true, nil
}
