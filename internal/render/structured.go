// Package render serializes the canonical fact graph into its three textual
// encodings. All three renderers traverse the graph read-only and emit only
// truthy nodes; falsy entities, claims and values are silently omitted.
package render

import (
	"strings"

	"github.com/korolevd/textifier/internal/model"
)

// Structured renders the nested map encoding. Keys for optional sub-structure
// (qualifiers, references, rank) are present only when non-empty; their
// presence is meaningful to downstream consumers.
func Structured(e *model.Entity) map[string]any {
	idKey := "QID"
	if strings.HasPrefix(e.ID, "P") {
		idKey = "PID"
	}

	claims := make([]any, 0, len(e.Claims))
	for _, c := range e.Claims {
		if c.Truthy() {
			claims = append(claims, structuredClaim(c))
		}
	}

	// An alias-less entity serializes as [], never null.
	aliases := e.Aliases
	if aliases == nil {
		aliases = []string{}
	}

	return map[string]any{
		idKey:         e.ID,
		"label":       nullableLabel(e.LabelString()),
		"description": nullableLabel(e.Description),
		"aliases":     aliases,
		"claims":      claims,
	}
}

func structuredClaim(c *model.Claim) map[string]any {
	values := make([]any, 0, len(c.Values))
	for _, v := range c.Values {
		if v.Truthy() {
			values = append(values, structuredValue(v))
		}
	}
	return map[string]any{
		"PID":            c.Property.ID,
		"property_label": nullableLabel(c.Property.LabelString()),
		"datatype":       string(c.Datatype),
		"values":         values,
	}
}

func structuredValue(v *model.ClaimValue) map[string]any {
	out := map[string]any{"value": atomicValue(v)}

	if len(v.Qualifiers) > 0 {
		quals := make([]any, 0, len(v.Qualifiers))
		for _, q := range v.Qualifiers {
			if q.Truthy() {
				quals = append(quals, structuredClaim(q))
			}
		}
		if len(quals) > 0 {
			out["qualifiers"] = quals
		}
	}

	if len(v.References) > 0 {
		refs := make([]any, 0, len(v.References))
		for _, group := range v.References {
			claims := make([]any, 0, len(group))
			for _, r := range group {
				if r.Truthy() {
					claims = append(claims, structuredClaim(r))
				}
			}
			refs = append(refs, claims)
		}
		out["references"] = refs
	}

	if v.Rank != model.RankNone {
		out["rank"] = string(v.Rank)
	}
	return out
}

// atomicValue encodes one atomic value. Entity values collapse to an
// identifier/label pair keyed by the claim's datatype; unitless quantities
// collapse to the bare amount string.
func atomicValue(v *model.ClaimValue) any {
	switch val := v.Value.(type) {
	case *model.Entity:
		idKey := "PID"
		if v.Claim != nil && v.Claim.Datatype == model.DatatypeItem {
			idKey = "QID"
		}
		return map[string]any{idKey: val.ID, "label": nullableLabel(val.LabelString())}
	case *model.Quantity:
		if val.UnitID == "" {
			return val.Amount
		}
		unit := ""
		if val.Unit != nil {
			unit = val.Unit.String()
		}
		return map[string]any{"amount": val.Amount, "unit": unit, "unit_QID": val.UnitID}
	case *model.Time:
		return map[string]any{
			"time":         val.Raw,
			"precision":    val.Precision,
			"calendar_QID": val.Calendar,
			"string":       val.Formatted,
		}
	case *model.Coordinate:
		return map[string]any{
			"latitude":  *val.Lat,
			"longitude": *val.Lon,
			"string":    val.Formatted,
		}
	case *model.Text:
		return val.Content
	default:
		return nil
	}
}

func nullableLabel(s string) any {
	if s == "" {
		return nil
	}
	return s
}
