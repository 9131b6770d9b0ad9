package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// apiClient wraps http.Client with a per-provider rate limiter so that
// many concurrent syncs against the same platform stay inside its quota.
type apiClient struct {
	hc      *http.Client
	limiter *rate.Limiter
}

func newAPIClient(timeout time.Duration, rps float64, burst int) *apiClient {
	return &apiClient{
		hc:      &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *apiClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.hc.Do(req.WithContext(ctx))
}

func (c *apiClient) getJSON(ctx context.Context, reqURL, bearerToken string, out any) error {
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected response status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// postFormBasicAuth is postForm with confidential-client basic auth on the
// token endpoint, as the Twitter v2 flow requires.
func (c *apiClient) postFormBasicAuth(ctx context.Context, reqURL, basicAuth string, data url.Values, out any, wrapErr error) error {
	req, err := http.NewRequest(http.MethodPost, reqURL, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+basicAuth)

	resp, err := c.do(ctx, req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: %v", wrapErr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Info("token endpoint returned non-200 status", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("%w: status %d", wrapErr, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: malformed body: %v", wrapErr, err)
	}
	return nil
}

func decodeJSON(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *apiClient) postJSON(ctx context.Context, reqURL, bearerToken string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, reqURL, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.do(ctx, req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected response status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// postForm performs a form-encoded POST, as every OAuth token endpoint
// expects, and decodes the JSON body when the status is 200. A non-200
// status is returned as wrapErr so callers map it onto the exchange or
// refresh sentinel.
func (c *apiClient) postForm(ctx context.Context, reqURL string, data url.Values, out any, wrapErr error) error {
	req, err := http.NewRequest(http.MethodPost, reqURL, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(ctx, req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: %v", wrapErr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Info("token endpoint returned non-200 status", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("%w: status %d", wrapErr, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: malformed body: %v", wrapErr, err)
	}
	return nil
}
