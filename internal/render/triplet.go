package render

import (
	"strings"

	"github.com/korolevd/textifier/internal/format"
	"github.com/korolevd/textifier/internal/model"
)

// Triplet renders flattened "subject: property: value" lines, one per leaf
// value, with qualifiers appended after a pipe separator. An entity with
// nothing truthy to say renders as a single bare "label (id)" line.
func Triplet(e *model.Entity, loc format.Locale) string {
	labelStr := e.LabelString()
	if labelStr == "" {
		labelStr = loc.Missing
	}
	head := labelStr + " (" + e.ID + ")"

	var lines []string
	if e.Description != "" {
		lines = append(lines, "description: "+e.Description)
	}
	if len(e.Aliases) > 0 {
		lines = append(lines, "aliases: "+strings.Join(e.Aliases, ", "))
	}
	for _, c := range e.Claims {
		if c.Truthy() {
			lines = append(lines, tripletClaim(c)...)
		}
	}

	if len(lines) == 0 {
		return head
	}
	for i, line := range lines {
		lines[i] = head + ": " + line
	}
	return strings.Join(lines, "\n")
}

func tripletClaim(c *model.Claim) []string {
	label := c.Property.LabelString() + " (" + c.Property.ID + ")"
	var lines []string
	for _, v := range c.Values {
		if v.Truthy() {
			lines = append(lines, label+": "+tripletValue(v))
		}
	}
	return lines
}

func tripletValue(v *model.ClaimValue) string {
	var s string
	if ent, ok := v.Value.(*model.Entity); ok {
		s = ent.LabelString() + " (" + ent.ID + ")"
	} else {
		s = v.Value.Display()
	}

	if v.Rank == model.RankDeprecated {
		s += " [deprecated]"
	}

	var quals []string
	for _, q := range v.Qualifiers {
		if q.Truthy() {
			quals = append(quals, tripletQualifier(q))
		}
	}
	if len(quals) > 0 {
		s += " | " + strings.Join(quals, " | ")
	}
	return s
}

// tripletQualifier renders one qualifier claim on a single line, values
// comma-joined.
func tripletQualifier(q *model.Claim) string {
	var values []string
	for _, v := range q.Values {
		if v.Truthy() {
			if ent, ok := v.Value.(*model.Entity); ok {
				values = append(values, ent.LabelString()+" ("+ent.ID+")")
			} else {
				values = append(values, v.Value.Display())
			}
		}
	}
	return q.Property.LabelString() + " (" + q.Property.ID + "): " + strings.Join(values, ", ")
}
