package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// FeedChecker implements health checking for the change-feed endpoint.
type FeedChecker struct {
	url    string
	client *http.Client
}

// NewFeedChecker creates a new change-feed health checker.
// The url is the feed's websocket URL; the probe converts it to HTTP and
// checks reachability without performing the upgrade handshake.
func NewFeedChecker(url string) *FeedChecker {
	return &FeedChecker{
		url: probeURL(url),
		client: &http.Client{
			Timeout: 3 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        16,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

func probeURL(url string) string {
	if rest, ok := strings.CutPrefix(url, "wss://"); ok {
		return "https://" + rest
	}
	if rest, ok := strings.CutPrefix(url, "ws://"); ok {
		return "http://" + rest
	}
	return url
}

// HealthCheck probes the feed endpoint with a plain GET. The server rejects
// non-upgrade requests with a 4xx, which still proves it is reachable; only
// transport errors and 5xx responses count as unhealthy.
func (f *FeedChecker) HealthCheck(ctx context.Context) error {
	if f.url == "" {
		return fmt.Errorf("feed url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach feed server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("feed unhealthy: unexpected status code %d", resp.StatusCode)
	}

	return nil
}
