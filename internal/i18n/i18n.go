// Package i18n resolves user facing message keys against embedded JSON catalogues.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
)

//go:embed locales/*.json
var locales embed.FS

type Catalog struct {
	lang     string
	messages map[string]string
}

var current atomic.Pointer[Catalog]

func init() {
	catalog, err := Load("en")
	if err != nil {
		panic(fmt.Sprintf("i18n: load default catalogue: %v", err))
	}
	current.Store(catalog)
}

func Load(lang string) (*Catalog, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return nil, fmt.Errorf("language cannot be empty")
	}

	data, err := locales.ReadFile("locales/" + lang + ".json")
	if err != nil {
		return nil, fmt.Errorf("read catalogue %q: %w", lang, err)
	}

	messages := map[string]string{}
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("decode catalogue %q: %w", lang, err)
	}

	return &Catalog{lang: lang, messages: messages}, nil
}

// SetLanguage swaps the process wide catalogue used by T and Tf.
func SetLanguage(lang string) error {
	catalog, err := Load(lang)
	if err != nil {
		return err
	}
	current.Store(catalog)
	return nil
}

func Language() string {
	return current.Load().lang
}

// Lookup returns the key itself when no translation exists.
func (c *Catalog) Lookup(key string) string {
	if msg, ok := c.messages[key]; ok {
		return msg
	}
	return key
}

func T(key string) string {
	return current.Load().Lookup(key)
}

func Tf(key string, args ...any) string {
	return fmt.Sprintf(T(key), args...)
}
