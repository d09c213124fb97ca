package live

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Ready reports whether the backend health endpoint has answered healthy.
func (c *Client) Ready() bool { return c.ready.Load() }

// CheckHealth performs a single health probe against the backend.
func (c *Client) CheckHealth(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "health probe")
	defer span.End()

	healthProbeAttempts.Add(ctx, 1)

	endpoint, err := healthURL(c.url)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.String("health.url", endpoint))

	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		err = fmt.Errorf("error creating health request: %w", err)
		span.RecordError(err)
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("health request failed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("health endpoint returned status %d", resp.StatusCode)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		err = fmt.Errorf("error decoding health response: %w", err)
		span.RecordError(err)
		return err
	}
	if !strings.EqualFold(body.Status, "healthy") {
		err := fmt.Errorf("backend reported status %q", body.Status)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// runHealthProbe probes until the backend is healthy or ctx is cancelled.
func (c *Client) runHealthProbe(ctx context.Context) {
	for {
		err := c.CheckHealth(ctx)
		if err == nil {
			c.setReady(true)
			return
		}
		if ctx.Err() != nil {
			return
		}
		c.setReady(false)
		c.logger.Debug("health probe failed, retrying", "error", err, "retry_in", c.healthInterval)

		timer := time.NewTimer(c.healthInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (c *Client) setReady(ready bool) {
	if c.ready.Swap(ready) == ready {
		return
	}
	c.logger.Info("backend readiness changed", "ready", ready)
	if c.onReadyChanged != nil {
		c.loop.post(func() { c.onReadyChanged(ready) })
	}
}

// healthURL derives the liveness endpoint from the WebSocket address.
func healthURL(wsURL string) (string, error) {
	parsed, err := url.Parse(wsURL)
	if err != nil {
		return "", fmt.Errorf("invalid live url: %w", err)
	}
	switch parsed.Scheme {
	case "ws", "http":
		parsed.Scheme = "http"
	case "wss", "https":
		parsed.Scheme = "https"
	default:
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	parsed.Path = "/health"
	parsed.RawPath = ""
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}
