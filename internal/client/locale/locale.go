// Package locale owns the active UI language and its text direction.
//
// A Manager starts on the fallback language before any storage read so a
// direction is always defined. Direction is derived from the language and
// never set on its own. The display layer mirrors changes through Display;
// it is never a source of truth.
package locale

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/carelink/internal/client/storage"
	"github.com/dmitrijs2005/carelink/internal/logging"
	"golang.org/x/text/language"
)

type Language string

const (
	English Language = "en"
	Arabic  Language = "ar"
)

type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// Preference is the active language and its direction.
type Preference struct {
	Language  Language
	Direction Direction
}

type Options struct {
	Supported []Language
	Fallback  Language
	RTL       []Language
}

func DefaultOptions() Options {
	return Options{
		Supported: []Language{Arabic, English},
		Fallback:  Arabic,
		RTL:       []Language{Arabic},
	}
}

// OptionsFrom builds Options from configured language codes.
func OptionsFrom(supported []string, fallback string, rtl []string) Options {
	opts := Options{Fallback: Language(fallback)}
	for _, l := range supported {
		opts.Supported = append(opts.Supported, Language(l))
	}
	for _, l := range rtl {
		opts.RTL = append(opts.RTL, Language(l))
	}
	return opts
}

// Backing is the part of *storage.Backing the locale needs.
type Backing interface {
	Interactive() bool
	Local() storage.Store
}

// Display receives the attributes to mirror onto the presentation layer.
type Display interface {
	SetAttributes(lang Language, dir Direction)
}

type Manager struct {
	opts    Options
	matcher language.Matcher

	mu   sync.RWMutex
	pref Preference

	notifyMu sync.Mutex
	subsMu   sync.Mutex
	subs     []func(Preference)

	backing    Backing
	display    Display
	translator *Translator
	log        logging.Logger
}

type Option func(*Manager)

func WithDisplay(d Display) Option {
	return func(m *Manager) { m.display = d }
}

// New validates opts and returns a manager set to the fallback language.
// A nil backing means a non-interactive environment.
func New(opts Options, b Backing, log logging.Logger, mopts ...Option) (*Manager, error) {
	if len(opts.Supported) == 0 {
		return nil, errors.New("locale: no supported languages")
	}
	if !slices.Contains(opts.Supported, opts.Fallback) {
		return nil, fmt.Errorf("locale: fallback %q is not supported", opts.Fallback)
	}

	tags := make([]language.Tag, 0, len(opts.Supported))
	for _, l := range opts.Supported {
		tag, err := language.Parse(string(l))
		if err != nil {
			return nil, fmt.Errorf("locale: %q: %w", l, err)
		}
		tags = append(tags, tag)
	}

	tr, err := NewTranslator(opts.Supported, opts.Fallback)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNop()
	}

	m := &Manager{
		opts:       opts,
		matcher:    language.NewMatcher(tags),
		backing:    b,
		translator: tr,
		log:        log.With("component", "locale"),
	}
	m.pref = m.preference(opts.Fallback)
	for _, o := range mopts {
		o(m)
	}
	return m, nil
}

// Direction returns rtl for the right-to-left languages, ltr otherwise.
func (m *Manager) Direction(l Language) Direction {
	if slices.Contains(m.opts.RTL, l) {
		return RTL
	}
	return LTR
}

func (m *Manager) Supported(l Language) bool {
	return slices.Contains(m.opts.Supported, l)
}

func (m *Manager) Snapshot() Preference {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pref
}

// DetectInitial picks the starting language: a stored choice, then the best
// match for host, then the fallback. It only reads.
func (m *Manager) DetectInitial(ctx context.Context, host string) (Language, error) {
	if m.interactive() {
		stored, ok, err := m.backing.Local().Read(ctx, storage.KeyLanguage)
		if err != nil {
			return "", err
		}
		if ok && m.Supported(Language(stored)) {
			return Language(stored), nil
		}
	}
	if l, ok := m.Match(host); ok {
		return l, nil
	}
	return m.opts.Fallback, nil
}

// Rehydrate applies DetectInitial without persisting anything.
func (m *Manager) Rehydrate(ctx context.Context, host string) error {
	l, err := m.DetectInitial(ctx, host)
	if err != nil {
		return fmt.Errorf("detect language: %w", err)
	}
	m.mu.Lock()
	m.pref = m.preference(l)
	m.commitLocked()
	return nil
}

// ChangeLanguage switches to l and persists the choice. An unsupported
// language leaves the preference unchanged.
func (m *Manager) ChangeLanguage(ctx context.Context, l Language) error {
	if !m.Supported(l) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, l)
	}

	m.mu.Lock()
	if m.interactive() {
		if err := m.backing.Local().Write(ctx, storage.KeyLanguage, string(l)); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("persist language: %w", err)
		}
	}
	m.pref = m.preference(l)
	m.log.Debug(ctx, "language changed", "language", l)
	m.commitLocked()
	return nil
}

// ToggleLanguage moves to the next supported language, wrapping around.
func (m *Manager) ToggleLanguage(ctx context.Context) (Language, error) {
	cur := m.Snapshot().Language
	next := m.opts.Supported[(slices.Index(m.opts.Supported, cur)+1)%len(m.opts.Supported)]
	if err := m.ChangeLanguage(ctx, next); err != nil {
		return cur, err
	}
	return next, nil
}

// Match resolves a host language (POSIX locale such as "ar_SA.UTF-8", a
// BCP 47 tag, or an Accept-Language header) against the supported set.
func (m *Manager) Match(host string) (Language, bool) {
	tags := hostTags(host)
	if len(tags) == 0 {
		return "", false
	}
	_, idx, conf := m.matcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	return m.opts.Supported[idx], true
}

// T translates key in the active language.
func (m *Manager) T(key string, params map[string]string) string {
	return m.translator.Translate(m.Snapshot().Language, key, params)
}

// Translate translates key in an explicit language.
func (m *Manager) Translate(l Language, key string, params map[string]string) string {
	return m.translator.Translate(l, key, params)
}

func (m *Manager) Subscribe(fn func(Preference)) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.subs = append(m.subs, fn)
}

func (m *Manager) preference(l Language) Preference {
	return Preference{Language: l, Direction: m.Direction(l)}
}

func (m *Manager) interactive() bool {
	return m.backing != nil && m.backing.Interactive()
}

// commitLocked releases mu, mirrors the preference onto the display when
// interactive, and notifies subscribers.
func (m *Manager) commitLocked() {
	pref := m.pref
	m.notifyMu.Lock()
	m.mu.Unlock()
	defer m.notifyMu.Unlock()

	if m.display != nil && m.interactive() {
		m.display.SetAttributes(pref.Language, pref.Direction)
	}

	m.subsMu.Lock()
	subs := slices.Clone(m.subs)
	m.subsMu.Unlock()
	for _, fn := range subs {
		fn(pref)
	}
}

func hostTags(host string) []language.Tag {
	host = strings.TrimSpace(host)
	if host == "" || host == "C" || host == "POSIX" {
		return nil
	}
	if strings.ContainsAny(host, ",;") {
		tags, _, err := language.ParseAcceptLanguage(host)
		if err != nil {
			return nil
		}
		return tags
	}

	// ar_SA.UTF-8@euro -> ar-SA
	if i := strings.IndexAny(host, ".@"); i >= 0 {
		host = host[:i]
	}
	tag, err := language.Parse(strings.ReplaceAll(host, "_", "-"))
	if err != nil {
		return nil
	}
	return []language.Tag{tag}
}
