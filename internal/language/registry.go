// Package language holds the static table of supported languages.
//
// One Registry value is shared by every modality so that the text, speech and
// image flows agree on codes, display names and voice locales.
package language

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var builtin []byte

// Language is one registry entry.
type Language struct {
	Code        string `yaml:"code" json:"code"`
	Name        string `yaml:"name" json:"name"`
	VoiceLocale string `yaml:"voice_locale" json:"voice_locale,omitempty"`
}

// Registry maps language codes to display names and voice locales.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	languages []Language
	byCode    map[string]int
}

type document struct {
	Languages []Language `yaml:"languages"`
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("language: built-in table is invalid: %v", err))
	}
	return r
}

// Load reads a registry from a YAML file. An empty path returns Default.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading language table: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from a YAML document with a top-level "languages" list.
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing language table: %w", err)
	}
	if len(doc.Languages) == 0 {
		return nil, fmt.Errorf("language table is empty")
	}

	r := &Registry{
		languages: make([]Language, 0, len(doc.Languages)),
		byCode:    make(map[string]int, len(doc.Languages)),
	}
	for i, l := range doc.Languages {
		l.Code = strings.TrimSpace(l.Code)
		if l.Code == "" {
			return nil, fmt.Errorf("language entry %d has no code", i)
		}
		if _, dup := r.byCode[l.Code]; dup {
			return nil, fmt.Errorf("duplicate language code %q", l.Code)
		}
		if l.Name == "" {
			l.Name = l.Code
		}
		r.byCode[l.Code] = len(r.languages)
		r.languages = append(r.languages, l)
	}
	return r, nil
}

// VoiceLocaleFor returns the locale-qualified voice code for code, or code
// itself when no mapping exists.
func (r *Registry) VoiceLocaleFor(code string) string {
	if l, ok := r.Lookup(code); ok && l.VoiceLocale != "" {
		return l.VoiceLocale
	}
	return code
}

// Lookup returns the entry for code.
func (r *Registry) Lookup(code string) (Language, bool) {
	i, ok := r.byCode[code]
	if !ok {
		return Language{}, false
	}
	return r.languages[i], true
}

// Name returns the display name for code, or code itself when unknown.
func (r *Registry) Name(code string) string {
	if l, ok := r.Lookup(code); ok {
		return l.Name
	}
	return code
}

// All returns a copy of the registry entries in table order.
func (r *Registry) All() []Language {
	return append([]Language(nil), r.languages...)
}

// Base returns the primary subtag of a language or locale code
// ("zh-CN" -> "zh", "en_US" -> "en").
func Base(code string) string {
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		return code[:i]
	}
	return code
}
