package model

// Value is the closed union of atomic claim values. Exactly one of *Entity,
// *Quantity, *Time, *Coordinate or *Text sits behind it; consumers switch
// exhaustively so a new Wikibase datatype is a compile-time-visible change.
type Value interface {
	Truthy() bool
	Display() string
	isValue()
}

var (
	_ Value = (*Entity)(nil)
	_ Value = (*Quantity)(nil)
	_ Value = (*Time)(nil)
	_ Value = (*Coordinate)(nil)
	_ Value = (*Text)(nil)
)

// Text is a plain string value. A present-but-empty Text (e.g. a monolingual
// value in the wrong language) is falsy and renders as absent.
type Text struct {
	Content string
}

func (t *Text) Truthy() bool    { return t != nil && t.Content != "" }
func (t *Text) Display() string { return t.Content }
func (t *Text) isValue()        {}

// Quantity is an arbitrary-precision amount kept as a string, with an
// optional unit. UnitID "" means unitless (the wire encodes this as "1").
type Quantity struct {
	Amount string
	Unit   Label
	UnitID string
}

func (q *Quantity) Truthy() bool { return q != nil && q.Amount != "" }

func (q *Quantity) Display() string {
	if q.Amount == "" {
		return ""
	}
	if q.UnitID != "" {
		unit := ""
		if q.Unit != nil {
			unit = q.Unit.String()
		}
		if unit != "" {
			return q.Amount + " " + unit
		}
	}
	return q.Amount
}

func (q *Quantity) isValue() {}

// Time keeps the raw astronomical time string alongside the display string
// derived by the temporal formatter at graph-construction time.
type Time struct {
	Raw       string
	Precision int
	Calendar  string // calendar model QID
	Formatted string
}

func (t *Time) Truthy() bool    { return t != nil && (t.Raw != "" || t.Formatted != "") }
func (t *Time) Display() string { return t.Formatted }
func (t *Time) isValue()        {}

// Coordinate is a latitude/longitude pair with its DMS display string.
type Coordinate struct {
	Lat       *float64
	Lon       *float64
	Formatted string
}

func (c *Coordinate) Truthy() bool    { return c != nil && c.Lat != nil && c.Lon != nil }
func (c *Coordinate) Display() string { return c.Formatted }
func (c *Coordinate) isValue()        {}
