package deltaf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"pkt.systems/deltaf/ansi"
)

// HTTPRenderRequest configures HTTPRender.
type HTTPRenderRequest struct {
	URL string
	// Client defaults to NewHTTPClient(3, nil).
	Client  *http.Client
	Writer  io.Writer
	Format  string
	Width   int
	Theme   ansi.Theme
	Options []RenderOption
}

// NewHTTPClient returns a client that retries connection errors and 5xx
// responses. A nil logger silences retry logging.
func NewHTTPClient(retries int, logger *slog.Logger) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	if logger != nil {
		rc.Logger = logger
	}
	return rc.StandardClient()
}

// HTTPRender fetches a JSON delta over HTTP(S) and renders it.
func HTTPRender(ctx context.Context, req HTTPRenderRequest) error {
	if req.URL == "" {
		return fmt.Errorf("stream http: URL is required")
	}
	if req.Writer == nil {
		return fmt.Errorf("stream http: Writer is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	client := req.Client
	if client == nil {
		client = NewHTTPClient(3, nil)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return fmt.Errorf("stream http: build request: %w", err)
	}
	if httpReq.URL.Scheme != "http" && httpReq.URL.Scheme != "https" {
		return fmt.Errorf("stream http: unsupported scheme %q", httpReq.URL.Scheme)
	}
	httpReq.Header.Set("Accept", "application/json")
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("stream http: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("stream http: status %s", resp.Status)
	}
	return Render(RenderRequest{
		Reader:  resp.Body,
		Writer:  req.Writer,
		Format:  req.Format,
		Width:   req.Width,
		Theme:   req.Theme,
		Options: req.Options,
	})
}
