package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/okian/rosterlens/pkg/logger"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 2
	defaultBackoff    = time.Second
	maxBodyBytes      = 32 << 20
)

var errTransient = errors.New("transient upstream failure")

// client is a rate-limited GET client with retry on transient failures.
// Concurrent requests for the same URL share one round trip.
type client struct {
	http       *http.Client
	rpm        int
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
	flight     singleflight.Group
}

func newClient(opts []Option) *client {
	c := &client{
		http:       &http.Client{Timeout: defaultTimeout},
		rpm:        60,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rpm > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(float64(c.rpm)/60.0), 1)
	}
	return c
}

// get fetches url and returns the body of a 2xx response.
func (c *client) get(ctx context.Context, url string) ([]byte, error) {
	out, err, _ := c.flight.Do(url, func() (any, error) {
		return c.execute(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

func (c *client) execute(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		body, err := c.once(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !errors.Is(err, errTransient) || attempt == c.maxRetries {
			break
		}
		c.log.Debug(ctx, "retrying upstream request",
			logger.String("url", url), logger.Int("attempt", attempt+1), logger.Error(err))

		timer := time.NewTimer(time.Duration(attempt+1) * c.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (c *client) once(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "rosterlens/1")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: send request: %v", errTransient, err)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", errTransient, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	if retryableStatus(resp.StatusCode) {
		return nil, fmt.Errorf("%w: status=%d body=%s", errTransient, resp.StatusCode, truncate(body, 200))
	}
	return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode, truncate(body, 200))
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
