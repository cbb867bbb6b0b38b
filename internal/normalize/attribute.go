package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/korolevd/textifier/internal/label"
	"github.com/korolevd/textifier/internal/model"
)

// Wire shapes of the attribute-graph JSON export (wbgetentities style).

type attrEntity struct {
	Labels       map[string]langValue       `json:"labels"`
	Descriptions map[string]langValue       `json:"descriptions"`
	Aliases      map[string][]langValue     `json:"aliases"`
	Claims       map[string][]attrStatement `json:"claims"`
}

type langValue struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type attrStatement struct {
	MainSnak        *attrSnak             `json:"mainsnak"`
	Rank            string                `json:"rank"`
	Qualifiers      map[string][]attrSnak `json:"qualifiers"`
	QualifiersOrder []string              `json:"qualifiers-order"`
	References      []attrReference       `json:"references"`
}

type attrReference struct {
	Snaks      map[string][]attrSnak `json:"snaks"`
	SnaksOrder []string              `json:"snaks-order"`
}

type attrSnak struct {
	SnakType  string         `json:"snaktype"`
	Property  string         `json:"property"`
	Datatype  string         `json:"datatype"`
	DataValue *attrDataValue `json:"datavalue"`
}

type attrDataValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Datavalue payload shapes per value kind.

type attrEntityID struct {
	ID string `json:"id"`
}

type attrTime struct {
	Time          string `json:"time"`
	Timezone      int    `json:"timezone"`
	Before        int    `json:"before"`
	After         int    `json:"after"`
	Precision     *int   `json:"precision"`
	CalendarModel string `json:"calendarmodel"`
}

type attrQuantity struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

type attrCoordinate struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type attrMonolingual struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Attribute parses one entity's attribute-graph JSON export into the
// canonical graph.
func Attribute(entityID string, payload json.RawMessage, reg *label.Registry, lang, fallback string, opts Options) (*model.Entity, error) {
	var e attrEntity
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("parse entity %s: %w", entityID, err)
	}

	n := &attrNormalizer{opts: opts, b: newBuilder(reg, lang)}

	entity := &model.Entity{
		ID:          entityID,
		Label:       model.TextLabel(pickLang(flattenLangValues(e.Labels), lang, fallback)),
		Description: pickLang(flattenLangValues(e.Descriptions), lang, fallback),
		Aliases:     mergeAliases(flattenAliasValues(e.Aliases), lang),
	}

	pids := make([]string, 0, len(e.Claims))
	for pid := range e.Claims {
		if strings.HasPrefix(pid, "P") && entityIDPattern.MatchString(pid) && n.opts.keepsProperty(pid) {
			pids = append(pids, pid)
		}
	}
	sortIDs(pids)

	for _, pid := range pids {
		if claim := n.buildClaim(entity, pid, e.Claims[pid]); claim != nil && len(claim.Values) > 0 {
			entity.Claims = append(entity.Claims, claim)
		}
	}

	attachBackrefs(entity)
	return entity, nil
}

type attrNormalizer struct {
	opts Options
	b    *builder
}

func (n *attrNormalizer) buildClaim(subject *model.Entity, pid string, statements []attrStatement) *model.Claim {
	datatype := datatypeFromStatements(statements)
	if !n.opts.IncludeExternalIDs && datatype == model.DatatypeExternalID {
		return nil
	}

	ranks := make([]model.Rank, len(statements))
	for i, st := range statements {
		ranks[i] = parseRank(st.Rank)
	}
	keep := FilterRanks(ranks, n.opts.AllRanks)

	claim := &model.Claim{
		Subject:  subject,
		Property: n.b.propertyEntity(pid),
		Datatype: datatype,
	}
	for i, st := range statements {
		if !keep[i] {
			continue
		}
		cv := n.buildClaimValue(claim, st, datatype, ranks[i])
		if cv != nil {
			claim.Values = append(claim.Values, cv)
		}
	}
	return claim
}

func datatypeFromStatements(statements []attrStatement) model.Datatype {
	for _, st := range statements {
		if st.MainSnak != nil && st.MainSnak.Datatype != "" {
			return model.Datatype(st.MainSnak.Datatype)
		}
	}
	return model.DatatypeString
}

func (n *attrNormalizer) buildClaimValue(claim *model.Claim, st attrStatement, datatype model.Datatype, rank model.Rank) *model.ClaimValue {
	// somevalue/novalue statements carry the explicit no-value sentinel.
	if st.MainSnak == nil || st.MainSnak.SnakType != "value" {
		return &model.ClaimValue{Claim: claim, Rank: rank}
	}

	cv := &model.ClaimValue{
		Claim:      claim,
		Value:      n.valueOf(datatype, st.MainSnak.DataValue),
		Qualifiers: n.snakClaims(st.Qualifiers, st.QualifiersOrder),
		Rank:       rank,
	}
	if n.opts.IncludeReferences {
		for _, ref := range st.References {
			group := n.snakClaims(ref.Snaks, ref.SnaksOrder)
			if group != nil {
				cv.References = append(cv.References, group)
			}
		}
	}
	return cv
}

// snakClaims builds qualifier or reference sub-claims, honoring the export's
// declared ordering when present and numeric identifier order otherwise.
func (n *attrNormalizer) snakClaims(snaks map[string][]attrSnak, order []string) []*model.Claim {
	if len(snaks) == 0 {
		return nil
	}

	pids := order
	if len(pids) == 0 {
		pids = make([]string, 0, len(snaks))
		for pid := range snaks {
			pids = append(pids, pid)
		}
		sortIDs(pids)
	}

	var claims []*model.Claim
	for _, pid := range pids {
		group := snaks[pid]
		if len(group) == 0 || !strings.HasPrefix(pid, "P") || !entityIDPattern.MatchString(pid) {
			continue
		}
		claims = append(claims, n.snakClaim(pid, group))
	}
	return claims
}

func (n *attrNormalizer) snakClaim(pid string, snaks []attrSnak) *model.Claim {
	datatype := model.DatatypeString
	for _, s := range snaks {
		if s.Datatype != "" {
			datatype = model.Datatype(s.Datatype)
			break
		}
	}

	claim := &model.Claim{
		Subject:  snakSubject(),
		Property: n.b.propertyEntity(pid),
		Datatype: datatype,
	}
	for _, snak := range snaks {
		if snak.SnakType != "" && snak.SnakType != "value" {
			claim.Values = append(claim.Values, &model.ClaimValue{Claim: claim})
			continue
		}
		claim.Values = append(claim.Values, &model.ClaimValue{
			Claim: claim,
			Value: n.valueOf(datatype, snak.DataValue),
		})
	}
	return claim
}

// valueOf dispatches a datavalue to the shared constructors, preferring the
// datavalue's own type tag over the claim's declared datatype.
func (n *attrNormalizer) valueOf(datatype model.Datatype, dv *attrDataValue) model.Value {
	if dv == nil {
		return nil
	}

	switch {
	case dv.Type == "wikibase-entityid" || datatype == model.DatatypeItem || datatype == model.DatatypeProperty:
		var v attrEntityID
		if err := json.Unmarshal(dv.Value, &v); err != nil || v.ID == "" {
			return &model.Text{Content: rawString(dv.Value)}
		}
		return n.b.entityValue(v.ID)

	case dv.Type == "time" || datatype == model.DatatypeTime:
		var v attrTime
		if err := json.Unmarshal(dv.Value, &v); err != nil || v.Time == "" {
			return nil
		}
		return n.b.timeValue(rawTime{
			Time:        v.Time,
			Precision:   v.Precision,
			Calendar:    v.CalendarModel,
			Before:      v.Before,
			After:       v.After,
			TimezoneMin: v.Timezone,
		})

	case dv.Type == "quantity" || datatype == model.DatatypeQuantity:
		var v attrQuantity
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return nil
		}
		return n.b.quantityValue(v.Amount, v.Unit)

	case dv.Type == "globecoordinate" || dv.Type == "globe-coordinate" || datatype == model.DatatypeCoordinate:
		var v attrCoordinate
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return nil
		}
		return n.b.coordinateValue(v.Latitude, v.Longitude)

	case dv.Type == "monolingualtext" || datatype == model.DatatypeMonolingual:
		var v attrMonolingual
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return nil
		}
		return n.b.monolingualValue(v.Text, v.Language)
	}

	return &model.Text{Content: rawString(dv.Value)}
}

// rawString decodes a JSON string payload, falling back to the raw bytes for
// non-string values.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func flattenLangValues(m map[string]langValue) map[string]string {
	out := make(map[string]string, len(m))
	for lang, lv := range m {
		out[lang] = lv.Value
	}
	return out
}

func flattenAliasValues(m map[string][]langValue) map[string][]string {
	out := make(map[string][]string, len(m))
	for lang, lvs := range m {
		for _, lv := range lvs {
			out[lang] = append(out[lang], lv.Value)
		}
	}
	return out
}
