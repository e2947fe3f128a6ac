package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

//go:embed locales/*.json
var catalogs embed.FS

// Translator resolves dotted message keys ("auth.welcome") per language.
type Translator struct {
	messages map[Language]map[string]string
	fallback Language
}

// NewTranslator loads the embedded catalogs of the given languages.
func NewTranslator(langs []Language, fallback Language) (*Translator, error) {
	t := &Translator{messages: make(map[Language]map[string]string, len(langs)), fallback: fallback}
	for _, l := range langs {
		b, err := catalogs.ReadFile(path.Join("locales", string(l)+".json"))
		if err != nil {
			// Languages without a catalog resolve through the fallback.
			continue
		}
		var tree map[string]any
		if err := json.Unmarshal(b, &tree); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", l, err)
		}
		flat := make(map[string]string)
		flatten("", tree, flat)
		t.messages[l] = flat
	}
	return t, nil
}

// Translate looks key up in lang, then in the fallback language, and finally
// returns key itself. Placeholders such as {name} are replaced from params.
func (t *Translator) Translate(lang Language, key string, params map[string]string) string {
	msg, ok := t.messages[lang][key]
	if !ok {
		msg, ok = t.messages[t.fallback][key]
	}
	if !ok {
		return key
	}
	if len(params) == 0 {
		return msg
	}

	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			flatten(key, val, out)
		}
	}
}
