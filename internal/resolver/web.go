package resolver

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/text/encoding/htmlindex"

	"ovpnsync/internal/types"
)

// maxBodySize bounds the echo response
const maxBodySize = 4 << 10

// Config configures a Web resolver
type Config struct {
	URL       string        `mapstructure:"url" validate:"required,url"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	UserAgent string        `mapstructure:"user_agent"`
}

// Web resolves the address with a single GET to an echo endpoint
type Web struct {
	cfg    Config
	client *http.Client
}

// NewWeb creates a web resolver on a pooled client
func NewWeb(cfg Config) *Web {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = cfg.Timeout
	return &Web{cfg: cfg, client: client}
}

// Resolve returns the response body as text, without trimming or validation
func (w *Web) Resolve(ctx context.Context) (string, error) {
	const op = "resolver.Resolve"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.URL, nil)
	if err != nil {
		return "", types.NewError(types.KindResolution, op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Cache-Control", "no-cache")
	if w.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", w.cfg.UserAgent)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", types.NewError(types.KindResolution, op, fmt.Errorf("request to %s failed: %w", w.cfg.URL, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", types.NewError(types.KindResolution, op, fmt.Errorf("unexpected status from %s: %s", w.cfg.URL, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return "", types.NewError(types.KindResolution, op, fmt.Errorf("failed to read response: %w", err))
	}
	if len(body) > maxBodySize {
		return "", types.NewError(types.KindResolution, op, fmt.Errorf("response from %s exceeds %d bytes", w.cfg.URL, maxBodySize))
	}

	text, err := decodeBody(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return "", types.NewError(types.KindResolution, op, err)
	}
	return text, nil
}

// decodeBody converts body to UTF-8 using the charset of contentType
func decodeBody(contentType string, body []byte) (string, error) {
	if contentType == "" {
		return string(body), nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body), nil
	}
	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" || charset == "utf8" || charset == "us-ascii" {
		return string(body), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s body: %w", charset, err)
	}
	return string(decoded), nil
}
