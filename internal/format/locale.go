// Package format turns raw temporal and spatial payloads into
// locale-appropriate display strings. Both formatters are pure; the only
// capability they consume is a label lookup for calendar names.
package format

import (
	_ "embed"
	"fmt"
	"sort"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales.yaml
var localesYAML []byte

// Locale carries the display vocabulary for one language.
type Locale struct {
	ListSep           string   `yaml:"list_sep"`
	AlsoKnownAs       string   `yaml:"also_known_as"`
	AttributesInclude string   `yaml:"attributes_include"`
	Missing           string   `yaml:"missing"`
	EraCE             string   `yaml:"era_ce"`
	EraBCE            string   `yaml:"era_bce"`
	Months            []string `yaml:"months"`
	YearsUnit         struct {
		Billion         string `yaml:"billion"`
		Million         string `yaml:"million"`
		HundredThousand string `yaml:"hundred_thousand"`
	} `yaml:"years_unit"`
	Century    string            `yaml:"century"`
	Millennium string            `yaml:"millennium"`
	Calendars  map[string]string `yaml:"calendars"`
}

// Month returns the localized short month name, "" for out-of-range input.
func (l Locale) Month(m int) string {
	if m < 1 || m > 12 || len(l.Months) < 12 {
		return ""
	}
	return l.Months[m-1]
}

var (
	locales    map[string]Locale
	localeTags []string
	matcher    language.Matcher
)

func init() {
	if err := yaml.Unmarshal(localesYAML, &locales); err != nil {
		panic(fmt.Sprintf("format: parse embedded locales: %v", err))
	}
	if _, ok := locales["en"]; !ok {
		panic("format: embedded locales missing \"en\"")
	}

	// English first so it is the matcher's fallback.
	localeTags = append(localeTags, "en")
	rest := make([]string, 0, len(locales))
	for code := range locales {
		if code != "en" {
			rest = append(rest, code)
		}
	}
	sort.Strings(rest)
	localeTags = append(localeTags, rest...)

	tags := make([]language.Tag, 0, len(localeTags))
	for _, code := range localeTags {
		tags = append(tags, language.Make(code))
	}
	matcher = language.NewMatcher(tags)
}

// Lookup returns the locale for a BCP 47 language tag, falling back to the
// closest supported language and finally to English.
func Lookup(lang string) Locale {
	if loc, ok := locales[lang]; ok {
		return loc
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return locales["en"]
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return locales["en"]
	}
	return locales[localeTags[idx]]
}

// Labeler resolves a short identifier to a display label. Lookups must be
// side-effect free; a missing label reads as "".
type Labeler interface {
	Label(id string) string
}

// LabelerFunc adapts a function to the Labeler interface.
type LabelerFunc func(id string) string

func (f LabelerFunc) Label(id string) string { return f(id) }
