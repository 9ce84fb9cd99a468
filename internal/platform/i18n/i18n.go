// Package i18n resolves player languages and renders the short notices the
// core emits (banner text, rolling log lines). Catalogs are embedded YAML
// registered with golang.org/x/text/message.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Language is a supported player language.
type Language string

const (
	Chinese Language = "zh"
	English Language = "en"
)

// Default is used when nothing better matches.
const Default = Chinese

var supported = []language.Tag{language.Chinese, language.English}

var matcher = language.NewMatcher(supported)

// Supported lists the languages with a catalog.
func Supported() []Language {
	return []Language{Chinese, English}
}

// Parse matches an arbitrary BCP 47 tag ("zh-CN", "en-GB", "fr") to the
// closest supported language. Unparseable or unmatched input yields Default.
func Parse(value string) Language {
	value = strings.TrimSpace(value)
	if value == "" {
		return Default
	}
	tag, err := language.Parse(value)
	if err != nil {
		return Default
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return Default
	}
	return fromTag(supported[idx])
}

func fromTag(tag language.Tag) Language {
	base, _ := tag.Base()
	if base.String() == "en" {
		return English
	}
	return Chinese
}

// Tag returns the x/text tag for l.
func (l Language) Tag() language.Tag {
	if l == English {
		return language.English
	}
	return language.Chinese
}

// Valid reports whether l has a catalog.
func (l Language) Valid() bool {
	return l == English || l == Chinese
}

// Text renders a catalog key in l. Keys missing from the catalog render as
// the key itself.
func Text(l Language, key string, args ...any) string {
	return message.NewPrinter(l.Tag()).Sprintf(key, args...)
}

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

//go:embed locales/*.yaml
var embeddedLocales embed.FS

func init() {
	if err := register(embeddedLocales); err != nil {
		panic(err)
	}
}

func register(catalogFS fs.FS) error {
	paths, err := fs.Glob(catalogFS, "locales/*.yaml")
	if err != nil {
		return fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no locale catalogs found")
	}
	sort.Strings(paths)

	for _, path := range paths {
		raw, err := fs.ReadFile(catalogFS, path)
		if err != nil {
			return fmt.Errorf("read catalog %s: %w", path, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return fmt.Errorf("parse catalog %s: %w", path, err)
		}
		tag, err := language.Parse(file.Locale)
		if err != nil {
			return fmt.Errorf("catalog %s: parse locale %q: %w", path, file.Locale, err)
		}
		for key, msg := range file.Messages {
			if err := message.SetString(tag, key, msg); err != nil {
				return fmt.Errorf("catalog %s: register %q: %w", path, key, err)
			}
		}
	}
	return nil
}
