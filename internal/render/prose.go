package render

import (
	"strings"

	"github.com/korolevd/textifier/internal/format"
	"github.com/korolevd/textifier/internal/model"
)

// Prose renders the entity as a single natural-language string: label,
// optional description and aliases, then one attribute line per truthy claim.
func Prose(e *model.Entity, loc format.Locale) string {
	labelStr := e.LabelString()
	if labelStr == "" {
		labelStr = loc.Missing
	}

	var b strings.Builder
	b.WriteString(labelStr)

	if e.Description != "" {
		b.WriteString(loc.ListSep)
		b.WriteString(e.Description)
	}
	if len(e.Aliases) > 0 {
		b.WriteString(loc.ListSep)
		b.WriteString(loc.AlsoKnownAs)
		b.WriteString(" ")
		b.WriteString(strings.Join(e.Aliases, loc.ListSep))
	}

	var attributes []string
	for _, c := range e.Claims {
		if c.Truthy() {
			attributes = append(attributes, proseClaim(c, loc))
		}
	}

	switch {
	case len(attributes) > 0:
		b.WriteString(". ")
		b.WriteString(loc.AttributesInclude)
		b.WriteString(":\n- ")
		b.WriteString(strings.Join(attributes, "\n- "))
	case b.Len() > len(labelStr):
		b.WriteString(".")
	}
	return b.String()
}

func proseClaim(c *model.Claim, loc format.Locale) string {
	var values []string
	for _, v := range c.Values {
		if v.Truthy() {
			values = append(values, proseValue(v, loc))
		}
	}
	return c.Property.LabelString() + ": " + strings.Join(values, loc.ListSep)
}

func proseValue(v *model.ClaimValue, loc format.Locale) string {
	s := v.Value.Display()

	if v.Rank == model.RankDeprecated {
		s += " [deprecated]"
	}

	var quals []string
	for _, q := range v.Qualifiers {
		if q.Truthy() {
			quals = append(quals, proseClaim(q, loc))
		}
	}
	if len(quals) > 0 {
		s += " (" + strings.Join(quals, loc.ListSep) + ")"
	}
	return s
}
