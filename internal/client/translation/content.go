package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/carelink/internal/client/locale"
	"github.com/dmitrijs2005/carelink/internal/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultFields are the object keys whose string values are shown to users.
var DefaultFields = []string{
	"name", "description", "bio", "qualifications",
	"specialty", "title", "address", "notes",
}

// API is the request surface being decorated; *gateway.Gateway satisfies it.
type API interface {
	Request(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// LanguageSource reports the active UI language.
type LanguageSource interface {
	Snapshot() locale.Preference
}

// ContentAPI translates GET responses of the wrapped API into the active
// language. A field that fails to translate keeps its original text, and a
// payload that cannot be rewritten is returned unchanged.
type ContentAPI struct {
	next     API
	tr       Translator
	lang     LanguageSource
	fields   map[string]bool
	parallel int
	log      logging.Logger
}

type ContentOption func(*ContentAPI)

// WithFields replaces DefaultFields.
func WithFields(fields ...string) ContentOption {
	return func(c *ContentAPI) {
		c.fields = make(map[string]bool, len(fields))
		for _, f := range fields {
			c.fields[f] = true
		}
	}
}

// WithParallelism bounds the translations in flight for one response.
func WithParallelism(n int) ContentOption {
	return func(c *ContentAPI) {
		if n > 0 {
			c.parallel = n
		}
	}
}

func WithContentLogger(l logging.Logger) ContentOption {
	return func(c *ContentAPI) { c.log = l }
}

func NewContentAPI(next API, tr Translator, lang LanguageSource, opts ...ContentOption) *ContentAPI {
	c := &ContentAPI{
		next:     next,
		tr:       tr,
		lang:     lang,
		parallel: 4,
		log:      logging.NewNop(),
	}
	WithFields(DefaultFields...)(c)
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "content_translation")
	return c
}

func (c *ContentAPI) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	raw, err := c.next.Request(ctx, method, path, body)
	if err != nil || raw == nil || method != http.MethodGet {
		return raw, err
	}
	return c.Translate(ctx, raw), nil
}

// job is one string leaf to translate and where to put the result.
type job struct {
	text string
	set  func(string)
}

// Translate rewrites the translatable fields of raw into the active
// language. Strings are translated when they sit under a translatable key,
// directly or inside an array; nested objects are walked.
func (c *ContentAPI) Translate(ctx context.Context, raw json.RawMessage) json.RawMessage {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return raw
	}

	var jobs []job
	c.collect(doc, false, &jobs)
	if len(jobs) == 0 {
		return raw
	}

	target := c.lang.Snapshot().Language
	results := make([]string, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallel)
	for i, j := range jobs {
		g.Go(func() error {
			out, err := c.tr.Translate(gctx, j.text, target)
			if err != nil {
				c.log.Warn(ctx, "keeping original text", "target", target, "error", err)
				out = j.text
			}
			results[i] = out
			return nil
		})
	}
	_ = g.Wait()

	for i, j := range jobs {
		j.set(results[i])
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return raw
	}
	return out
}

func (c *ContentAPI) collect(v any, translatable bool, jobs *[]job) {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if s, ok := val.(string); ok {
				if c.fields[k] {
					*jobs = append(*jobs, job{text: s, set: func(out string) { t[k] = out }})
				}
				continue
			}
			c.collect(val, c.fields[k], jobs)
		}
	case []any:
		for i, val := range t {
			if s, ok := val.(string); ok {
				if translatable {
					*jobs = append(*jobs, job{text: s, set: func(out string) { t[i] = out }})
				}
				continue
			}
			c.collect(val, false, jobs)
		}
	}
}
