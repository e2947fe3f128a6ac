// Package translation keeps content fetched from the backend in the active
// UI language. Client talks to a LibreTranslate server; ContentAPI rewrites
// the human-readable fields of GET responses through it.
package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/carelink/internal/client/locale"
	"github.com/dmitrijs2005/carelink/internal/logging"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheSize = 1024
	DefaultTimeout   = 5 * time.Second
)

// Translator turns text into the target language.
type Translator interface {
	Translate(ctx context.Context, text string, target locale.Language) (string, error)
}

// Client is a LibreTranslate client with an LRU cache keyed by target
// language and text. Concurrent misses for the same key share one call.
type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	cache    *lru.Cache
	group    singleflight.Group
	log      logging.Logger
}

type ClientOption func(*clientOptions)

type clientOptions struct {
	http      *http.Client
	timeout   time.Duration
	cacheSize int
	log       logging.Logger
}

func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) { o.http = c }
}

func WithTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithCacheSize(n int) ClientOption {
	return func(o *clientOptions) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

func WithLogger(l logging.Logger) ClientOption {
	return func(o *clientOptions) { o.log = l }
}

// NewClient returns a client for the LibreTranslate server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse translate url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("translate url %q must be absolute", baseURL)
	}

	o := clientOptions{
		http:      &http.Client{},
		timeout:   DefaultTimeout,
		cacheSize: DefaultCacheSize,
		log:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cache, err := lru.New(o.cacheSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		endpoint: strings.TrimRight(u.String(), "/") + "/translate",
		http:     o.http,
		timeout:  o.timeout,
		cache:    cache,
		log:      o.log.With("component", "translation"),
	}, nil
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// Translate returns text in target. Blank text is returned as is without
// a call. Failed translations are not cached.
func (c *Client) Translate(ctx context.Context, text string, target locale.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	key := string(target) + "\x00" + text
	if v, ok := c.cache.Get(key); ok {
		return v.(string), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		out, err := c.fetch(ctx, text, target)
		if err != nil {
			return "", err
		}
		c.cache.Add(key, out)
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) fetch(ctx context.Context, text string, target locale.Language) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(translateRequest{Q: text, Source: "auto", Target: string(target), Format: "text"})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}

	var tr translateResponse
	if resp.StatusCode != http.StatusOK {
		_ = json.Unmarshal(data, &tr)
		if tr.Error != "" {
			return "", fmt.Errorf("translate: status %d: %s", resp.StatusCode, tr.Error)
		}
		return "", fmt.Errorf("translate: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(data, &tr); err != nil {
		return "", fmt.Errorf("translate: decode response: %w", err)
	}

	c.log.Debug(ctx, "translated", "target", target, "chars", len(text))
	return tr.TranslatedText, nil
}
