// Package normalize parses the two upstream wire formats (RDF/Turtle and the
// attribute-graph JSON export) into the canonical fact graph. Both parsers
// share the rank tie-break, the datatype dispatch and the value constructors,
// and must produce structurally indistinguishable graphs for equivalent
// input.
package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/korolevd/textifier/internal/format"
	"github.com/korolevd/textifier/internal/label"
	"github.com/korolevd/textifier/internal/model"
)

// Options selects which statements survive normalization.
type Options struct {
	IncludeExternalIDs bool
	IncludeReferences  bool
	AllRanks           bool
	PropertyFilter     []string
}

func (o Options) keepsProperty(pid string) bool {
	if len(o.PropertyFilter) == 0 {
		return true
	}
	for _, p := range o.PropertyFilter {
		if p == pid {
			return true
		}
	}
	return false
}

// FilterRanks applies the per-property tie-break: untagged statements are
// always kept; if any statement is preferred only preferred survive,
// otherwise only normal survive and deprecated is dropped. With all true
// every statement is kept. The result marks, per input position, whether the
// statement is retained.
func FilterRanks(ranks []model.Rank, all bool) []bool {
	keep := make([]bool, len(ranks))
	if all {
		for i := range keep {
			keep[i] = true
		}
		return keep
	}

	hasPreferred := false
	for _, r := range ranks {
		if r == model.RankPreferred {
			hasPreferred = true
			break
		}
	}
	for i, r := range ranks {
		switch {
		case r == model.RankNone:
			keep[i] = true
		case hasPreferred:
			keep[i] = r == model.RankPreferred
		default:
			keep[i] = r == model.RankNormal
		}
	}
	return keep
}

var entityIDPattern = regexp.MustCompile(`^[QP]\d+$`)

// sortIDs orders property or entity identifiers by their numeric suffix so
// claim order is deterministic across formats and runs. Non-conforming
// identifiers sort after conforming ones, lexically.
func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, aok := numericID(ids[i])
		b, bok := numericID(ids[j])
		if aok && bok {
			if a != b {
				return a < b
			}
			return ids[i] < ids[j]
		}
		if aok != bok {
			return aok
		}
		return ids[i] < ids[j]
	})
}

func numericID(id string) (int64, bool) {
	if !entityIDPattern.MatchString(id) {
		return 0, false
	}
	n, err := strconv.ParseInt(id[1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseRank(s string) model.Rank {
	switch s {
	case "preferred":
		return model.RankPreferred
	case "normal":
		return model.RankNormal
	case "deprecated":
		return model.RankDeprecated
	default:
		return model.RankNone
	}
}

// snakSubject builds the synthetic placeholder subject carried by qualifier
// and reference claims. It has no label and is never rendered.
func snakSubject() *model.Entity {
	return &model.Entity{ID: "<snak>"}
}

// rawTime is the format-independent temporal payload both parsers feed the
// formatter. A nil Precision means the wire omitted it; day precision is
// assumed.
type rawTime struct {
	Time        string
	Precision   *int
	Calendar    string
	Before      int
	After       int
	TimezoneMin int
}

// builder owns the value constructors shared by both normalizers.
type builder struct {
	reg  *label.Registry
	loc  format.Locale
	lang string
}

func newBuilder(reg *label.Registry, lang string) *builder {
	return &builder{reg: reg, loc: format.Lookup(lang), lang: lang}
}

func (b *builder) propertyEntity(pid string) *model.Entity {
	return &model.Entity{ID: pid, Label: b.reg.Handle(pid)}
}

// entityValue builds an item-reference value. An identifier that does not
// match the item/property pattern degrades to plain text.
func (b *builder) entityValue(id string) model.Value {
	if entityIDPattern.MatchString(id) {
		return &model.Entity{ID: id, Label: b.reg.Handle(id)}
	}
	return &model.Text{Content: id}
}

// quantityValue builds a quantity. Unit "1" or absent means unitless; any
// other unit URI yields a unit identifier with a lazily resolved label.
func (b *builder) quantityValue(amount, unitURI string) model.Value {
	if amount == "" {
		return nil
	}
	q := &model.Quantity{Amount: amount}
	if unitURI != "" && unitURI != "1" {
		unitID := unitURI
		if idx := strings.LastIndex(unitURI, "/"); idx >= 0 {
			unitID = unitURI[idx+1:]
		}
		q.UnitID = unitID
		if strings.HasPrefix(unitID, "Q") {
			q.Unit = b.reg.Handle(unitID)
		}
	}
	return q
}

// timeValue builds a time value, dropping it when the formatter rejects the
// payload.
func (b *builder) timeValue(raw rawTime) model.Value {
	if raw.Time == "" {
		return nil
	}
	precision := 11
	if raw.Precision != nil {
		precision = *raw.Precision
	}
	cal := raw.Calendar
	if idx := strings.LastIndex(cal, "/"); idx >= 0 {
		cal = cal[idx+1:]
	}
	if cal == "" {
		cal = format.CalendarGregorian
	}

	formatted, err := format.FormatTime(format.TimeInput{
		Time:        raw.Time,
		Precision:   precision,
		Calendar:    cal,
		Before:      raw.Before,
		After:       raw.After,
		TimezoneMin: raw.TimezoneMin,
	}, b.loc, format.LabelerFunc(b.reg.Label))
	if err != nil {
		return nil
	}
	return &model.Time{Raw: raw.Time, Precision: precision, Calendar: cal, Formatted: formatted}
}

// coordinateValue builds a coordinate, requiring both components.
func (b *builder) coordinateValue(lat, lon *float64) model.Value {
	if lat == nil || lon == nil {
		return nil
	}
	return &model.Coordinate{Lat: lat, Lon: lon, Formatted: format.FormatCoordinate(*lat, *lon)}
}

// monolingualValue keeps the text only on an exact target-language match.
// A mismatch yields present-but-empty text, which renders as absent.
func (b *builder) monolingualValue(text, language string) model.Value {
	if language != b.lang {
		return &model.Text{Content: ""}
	}
	return &model.Text{Content: text}
}

// attachBackrefs installs the circular back-references once construction is
// complete.
func attachBackrefs(e *model.Entity) {
	for _, c := range e.Claims {
		c.Subject = e
		for _, v := range c.Values {
			v.Claim = c
		}
	}
}

// pickLang selects lang, then fallback, then the multilingual bucket.
func pickLang(m map[string]string, lang, fallback string) string {
	if v := m[lang]; v != "" {
		return v
	}
	if v := m[fallback]; v != "" {
		return v
	}
	return m["mul"]
}

// mergeAliases joins the target-language and multilingual alias lists,
// deduplicated, first occurrence wins.
func mergeAliases(byLang map[string][]string, lang string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, bucket := range [][]string{byLang[lang], byLang["mul"]} {
		for _, a := range bucket {
			if a == "" {
				continue
			}
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}
