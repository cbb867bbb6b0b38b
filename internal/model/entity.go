// Package model defines the canonical fact graph built by the normalizers
// and consumed by the renderers. The graph is built once per request and is
// read-only afterwards; back-references (ClaimValue→Claim, Claim→Subject) are
// non-owning pointers used only for label and datatype lookups.
package model

// Label is a display label that may resolve lazily. Reading it never triggers
// resolution; an unresolved or missing label reads as "".
type Label interface {
	String() string
}

// TextLabel is a label known at construction time.
type TextLabel string

func (l TextLabel) String() string { return string(l) }

// Rank annotates which statements are "current" for a property.
type Rank string

const (
	RankNone       Rank = ""
	RankPreferred  Rank = "preferred"
	RankNormal     Rank = "normal"
	RankDeprecated Rank = "deprecated"
)

// Datatype is the declared value datatype of a claim.
type Datatype string

const (
	DatatypeItem            Datatype = "wikibase-item"
	DatatypeProperty        Datatype = "wikibase-property"
	DatatypeQuantity        Datatype = "quantity"
	DatatypeTime            Datatype = "time"
	DatatypeCoordinate      Datatype = "globe-coordinate"
	DatatypeMonolingual     Datatype = "monolingualtext"
	DatatypeExternalID      Datatype = "external-id"
	DatatypeString          Datatype = "string"
	DatatypeURL             Datatype = "url"
	DatatypeCommonsMedia    Datatype = "commonsMedia"
	DatatypeGeoShape        Datatype = "geoShape"
	DatatypeTabularData     Datatype = "tabular-data"
	DatatypeMath            Datatype = "math"
	DatatypeMusicalNotation Datatype = "musical-notation"
)

// Entity is a labeled node in the fact graph: an item or a property.
type Entity struct {
	ID          string
	Label       Label
	Description string
	Aliases     []string
	Claims      []*Claim
}

// LabelString reads the entity label, "" when absent or unresolved.
func (e *Entity) LabelString() string {
	if e == nil || e.Label == nil {
		return ""
	}
	return e.Label.String()
}

// Truthy reports whether the entity participates in renderings: it needs an
// identifier and a non-empty resolved label.
func (e *Entity) Truthy() bool {
	return e != nil && e.ID != "" && e.LabelString() != ""
}

func (e *Entity) Display() string { return e.LabelString() }

func (e *Entity) isValue() {}

// Claim is one property-group of statements attached to a subject entity.
type Claim struct {
	Subject  *Entity
	Property *Entity
	Datatype Datatype
	Values   []*ClaimValue
}

// Truthy reports whether the claim renders: the property must carry a label
// and at least one contained value must be truthy.
func (c *Claim) Truthy() bool {
	if c == nil || c.Property.LabelString() == "" {
		return false
	}
	for _, v := range c.Values {
		if v.Truthy() {
			return true
		}
	}
	return false
}

// ClaimValue is one statement's value plus its qualifiers, reference groups
// and rank. A nil Value is the explicit no-value sentinel and renders as
// absent, never as an error.
type ClaimValue struct {
	Claim      *Claim
	Value      Value
	Qualifiers []*Claim
	References [][]*Claim
	Rank       Rank
}

func (v *ClaimValue) Truthy() bool {
	return v != nil && v.Value != nil && v.Value.Truthy()
}
