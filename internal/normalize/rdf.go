package normalize

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/knakk/rdf"

	"github.com/korolevd/textifier/internal/label"
	"github.com/korolevd/textifier/internal/model"
)

// Namespaces used by the Wikibase Turtle export.
const (
	nsWD  = "http://www.wikidata.org/entity/"
	nsP   = "http://www.wikidata.org/prop/"
	nsPS  = "http://www.wikidata.org/prop/statement/"
	nsPSV = "http://www.wikidata.org/prop/statement/value/"
	nsPQ  = "http://www.wikidata.org/prop/qualifier/"
	nsPQV = "http://www.wikidata.org/prop/qualifier/value/"
	nsPQN = "http://www.wikidata.org/prop/qualifier/value-normalized/"
	nsPR  = "http://www.wikidata.org/prop/reference/"
	nsPRV = "http://www.wikidata.org/prop/reference/value/"
	nsPRN = "http://www.wikidata.org/prop/reference/value-normalized/"

	nsWikibase = "http://wikiba.se/ontology#"

	predRDFType     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	predRDFSLabel   = "http://www.w3.org/2000/01/rdf-schema#label"
	predDescription = "http://schema.org/description"
	predAltLabel    = "http://www.w3.org/2004/02/skos/core#altLabel"
	predDerivedFrom = "http://www.w3.org/ns/prov#wasDerivedFrom"
)

// term is one RDF object: either a resource (IRI or blank node key) or a
// literal with optional language tag and datatype.
type term struct {
	resource string
	literal  string
	lang     string
	datatype string
	isRes    bool
}

// rdfGraph indexes triples as subject key -> predicate IRI -> objects, in
// document order.
type rdfGraph map[string]map[string][]term

func (g rdfGraph) add(subj, pred string, obj term) {
	preds, ok := g[subj]
	if !ok {
		preds = make(map[string][]term)
		g[subj] = preds
	}
	preds[pred] = append(preds[pred], obj)
}

func (g rdfGraph) value(subj, pred string) (term, bool) {
	objs := g[subj][pred]
	if len(objs) == 0 {
		return term{}, false
	}
	return objs[0], true
}

func (g rdfGraph) objects(subj, pred string) []term {
	return g[subj][pred]
}

func termOf(obj rdf.Object) term {
	switch o := obj.(type) {
	case rdf.IRI:
		return term{resource: o.String(), isRes: true}
	case rdf.Blank:
		return term{resource: o.String(), isRes: true}
	case rdf.Literal:
		t := term{literal: o.String(), lang: o.Lang()}
		t.datatype = o.DataType.String()
		return t
	default:
		return term{literal: obj.String()}
	}
}

// RDF parses a single-entity Turtle export into the canonical graph. Labels
// present in the document are seeded into the registry so the batched
// resolve only covers identifiers the export does not describe.
func RDF(entityID, turtle string, reg *label.Registry, lang, fallback string, opts Options) (*model.Entity, error) {
	g := rdfGraph{}
	dec := rdf.NewTripleDecoder(strings.NewReader(turtle), rdf.Turtle)
	for {
		tr, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse turtle: %w", err)
		}
		g.add(tr.Subj.String(), tr.Pred.String(), termOf(tr.Obj))
	}

	n := &rdfNormalizer{
		g:        g,
		id:       entityID,
		lang:     lang,
		fallback: fallback,
		opts:     opts,
		b:        newBuilder(reg, lang),
	}
	n.seedLabels(reg)
	return n.normalize(), nil
}

type rdfNormalizer struct {
	g        rdfGraph
	id       string
	lang     string
	fallback string
	opts     Options
	b        *builder
}

// seedLabels caches every rdfs:label the export carries for item and
// property subjects.
func (n *rdfNormalizer) seedLabels(reg *label.Registry) {
	for subj := range n.g {
		id := idFromEntityIRI(subj)
		if id == "" {
			continue
		}
		labels := make(label.Labels)
		for _, o := range n.g.objects(subj, predRDFSLabel) {
			if !o.isRes && o.lang != "" {
				labels[o.lang] = o.literal
			}
		}
		reg.Seed(id, labels)
	}
}

func (n *rdfNormalizer) normalize() *model.Entity {
	subj := nsWD + n.id

	entity := &model.Entity{
		ID:          n.id,
		Label:       model.TextLabel(pickLang(n.langMap(subj, predRDFSLabel), n.lang, n.fallback)),
		Description: pickLang(n.langMap(subj, predDescription), n.lang, n.fallback),
		Aliases:     mergeAliases(n.langListMap(subj, predAltLabel), n.lang),
	}

	for _, pid := range n.claimPIDs(subj) {
		if claim := n.buildClaim(entity, subj, pid); claim != nil {
			entity.Claims = append(entity.Claims, claim)
		}
	}

	attachBackrefs(entity)
	return entity
}

// claimPIDs collects the property identifiers with at least one p: triple on
// the subject, ordered by numeric identifier.
func (n *rdfNormalizer) claimPIDs(subj string) []string {
	seen := make(map[string]struct{})
	var pids []string
	for pred := range n.g[subj] {
		pid, ok := statementPID(pred)
		if !ok {
			continue
		}
		if !n.opts.keepsProperty(pid) {
			continue
		}
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		pids = append(pids, pid)
	}
	sortIDs(pids)
	return pids
}

// statementPID matches a p:P<n> predicate, rejecting the statement, direct
// and snak sub-namespaces that share the prop/ prefix.
func statementPID(pred string) (string, bool) {
	if !strings.HasPrefix(pred, nsP) {
		return "", false
	}
	tail := pred[len(nsP):]
	if strings.Contains(tail, "/") {
		return "", false
	}
	if !strings.HasPrefix(tail, "P") || !entityIDPattern.MatchString(tail) {
		return "", false
	}
	return tail, true
}

type rdfStatement struct {
	node    string
	rank    model.Rank
	special bool
}

func (n *rdfNormalizer) buildClaim(subject *model.Entity, subj, pid string) *model.Claim {
	var statements []rdfStatement
	var datatype model.Datatype

	for _, obj := range n.g.objects(subj, nsP+pid) {
		if !obj.isRes || !n.isStatementNode(obj.resource, pid) {
			continue
		}
		if datatype == "" {
			datatype = n.propDatatype(pid, obj.resource)
		}
		rank := model.RankNone
		if r, ok := n.g.value(obj.resource, nsWikibase+"rank"); ok && r.isRes {
			rank = rankFromIRI(r.resource)
		}
		statements = append(statements, rdfStatement{
			node:    obj.resource,
			rank:    rank,
			special: n.isSpecialMainValue(obj.resource, pid),
		})
	}
	if len(statements) == 0 {
		return nil
	}
	if !n.opts.IncludeExternalIDs && datatype == model.DatatypeExternalID {
		return nil
	}

	ranks := make([]model.Rank, len(statements))
	for i, st := range statements {
		ranks[i] = st.rank
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
		if st.special {
			// Somevalue/novalue statements reduce to the bare sentinel;
			// their qualifiers and references are dropped, as the JSON
			// normalizer does.
			claim.Values = append(claim.Values, &model.ClaimValue{Claim: claim, Rank: st.rank})
			continue
		}
		cv := &model.ClaimValue{
			Claim:      claim,
			Value:      n.mainValue(st.node, pid, datatype),
			Qualifiers: n.qualifiers(st.node),
			Rank:       st.rank,
		}
		if n.opts.IncludeReferences {
			cv.References = n.references(st.node)
		}
		claim.Values = append(claim.Values, cv)
	}
	return claim
}

// isStatementNode structurally validates a statement-shaped node, in
// priority order: a rank triple, a main-snak value under ps:/psv:, an
// explicit statement type, or any predicate in the statement namespaces.
func (n *rdfNormalizer) isStatementNode(node, pid string) bool {
	if _, ok := n.g.value(node, nsWikibase+"rank"); ok {
		return true
	}
	if _, ok := n.g.value(node, nsPS+pid); ok {
		return true
	}
	if _, ok := n.g.value(node, nsPSV+pid); ok {
		return true
	}
	if t, ok := n.g.value(node, predRDFType); ok && t.isRes && t.resource == nsWikibase+"Statement" {
		return true
	}
	for pred := range n.g[node] {
		if strings.HasPrefix(pred, nsPS) || strings.HasPrefix(pred, nsPSV) {
			return true
		}
	}
	return false
}

// isSpecialMainValue reports the somevalue/novalue shape: a statement node
// carrying neither ps:<pid> nor psv:<pid>.
func (n *rdfNormalizer) isSpecialMainValue(node, pid string) bool {
	_, hasPS := n.g.value(node, nsPS+pid)
	_, hasPSV := n.g.value(node, nsPSV+pid)
	return !hasPS && !hasPSV
}

// propDatatype reads wikibase:propertyType, falling back to inference from
// the statement's rich value node or its literal datatype.
func (n *rdfNormalizer) propDatatype(pid, statementNode string) model.Datatype {
	if t, ok := n.g.value(nsWD+pid, nsWikibase+"propertyType"); ok && t.isRes {
		if dt, ok := propertyTypeName(t.resource); ok {
			return dt
		}
	}

	if statementNode != "" {
		if rich, ok := n.g.value(statementNode, nsPSV+pid); ok && rich.isRes {
			switch {
			case n.has(rich.resource, "timeValue"):
				return model.DatatypeTime
			case n.has(rich.resource, "quantityAmount"):
				return model.DatatypeQuantity
			case n.has(rich.resource, "geoLatitude"):
				return model.DatatypeCoordinate
			}
		}
		if v, ok := n.g.value(statementNode, nsPS+pid); ok {
			if v.isRes {
				if id := idFromEntityIRI(v.resource); strings.HasPrefix(id, "Q") {
					return model.DatatypeItem
				}
			} else if v.datatype != "" {
				if strings.HasSuffix(v.datatype, "dateTime") {
					return model.DatatypeTime
				}
				if strings.HasSuffix(v.datatype, "decimal") {
					return model.DatatypeQuantity
				}
			}
		}
	}
	return model.DatatypeString
}

func (n *rdfNormalizer) has(node, wikibasePred string) bool {
	_, ok := n.g.value(node, nsWikibase+wikibasePred)
	return ok
}

var propertyTypes = map[string]model.Datatype{
	"WikibaseItem":     model.DatatypeItem,
	"WikibaseProperty": model.DatatypeProperty,
	"Quantity":         model.DatatypeQuantity,
	"Time":             model.DatatypeTime,
	"GlobeCoordinate":  model.DatatypeCoordinate,
	"ExternalId":       model.DatatypeExternalID,
	"Monolingualtext":  model.DatatypeMonolingual,
	"Url":              model.DatatypeURL,
	"String":           model.DatatypeString,
	"CommonsMedia":     model.DatatypeCommonsMedia,
	"GeoShape":         model.DatatypeGeoShape,
	"TabularData":      model.DatatypeTabularData,
	"Math":             model.DatatypeMath,
	"MusicalNotation":  model.DatatypeMusicalNotation,
}

func propertyTypeName(iri string) (model.Datatype, bool) {
	idx := strings.LastIndex(iri, "#")
	if idx < 0 {
		return "", false
	}
	dt, ok := propertyTypes[iri[idx+1:]]
	return dt, ok
}

// mainValue extracts the main snak value from a validated statement node,
// preferring the rich value node over the simple ps: object.
func (n *rdfNormalizer) mainValue(node, pid string, datatype model.Datatype) model.Value {
	rich, hasRich := n.g.value(node, nsPSV+pid)
	if hasRich && rich.isRes {
		if v := n.richValue(datatype, rich.resource); v != nil {
			return v
		}
	}

	v, ok := n.g.value(node, nsPS+pid)
	if !ok {
		// The declared datatype may have been wrong; the rich node still
		// tells the truth about its own shape.
		if hasRich && rich.isRes {
			return n.inferredRichValue(rich.resource)
		}
		return nil
	}
	return n.simpleValue(datatype, v)
}

func (n *rdfNormalizer) richValue(datatype model.Datatype, node string) model.Value {
	switch datatype {
	case model.DatatypeTime:
		return n.b.timeValue(n.timeFromNode(node))
	case model.DatatypeQuantity:
		amount, unit := n.quantityFromNode(node)
		return n.b.quantityValue(amount, unit)
	case model.DatatypeCoordinate:
		lat, lon := n.coordFromNode(node)
		return n.b.coordinateValue(lat, lon)
	default:
		return nil
	}
}

func (n *rdfNormalizer) inferredRichValue(node string) model.Value {
	switch {
	case n.has(node, "timeValue"):
		return n.b.timeValue(n.timeFromNode(node))
	case n.has(node, "quantityAmount"):
		amount, unit := n.quantityFromNode(node)
		return n.b.quantityValue(amount, unit)
	case n.has(node, "geoLatitude"):
		lat, lon := n.coordFromNode(node)
		return n.b.coordinateValue(lat, lon)
	default:
		return nil
	}
}

func (n *rdfNormalizer) simpleValue(datatype model.Datatype, v term) model.Value {
	switch datatype {
	case model.DatatypeTime:
		if v.isRes {
			return n.b.timeValue(n.timeFromNode(v.resource))
		}
		if v.literal == "" {
			return nil
		}
		return n.b.timeValue(rawTime{Time: normalizeTimeLiteral(v.literal)})
	case model.DatatypeItem, model.DatatypeProperty:
		if v.isRes {
			if id := idFromEntityIRI(v.resource); id != "" {
				return n.b.entityValue(id)
			}
			return &model.Text{Content: v.resource}
		}
	case model.DatatypeQuantity:
		if !v.isRes {
			return n.b.quantityValue(v.literal, "1")
		}
	case model.DatatypeCoordinate:
		// Coordinates only carry structure on the rich node; a bare WKT
		// literal is not a usable value.
		return nil
	case model.DatatypeMonolingual:
		if !v.isRes {
			return n.b.monolingualValue(v.literal, v.lang)
		}
	}
	if v.isRes {
		return &model.Text{Content: v.resource}
	}
	return &model.Text{Content: v.literal}
}

// normalizeTimeLiteral restores the sign and trailing Z that plain
// xsd:dateTime literals drop, leaving explicit offsets alone for the
// formatter to reject.
func normalizeTimeLiteral(s string) string {
	if s == "" {
		return s
	}
	if s[0] != '+' && s[0] != '-' {
		s = "+" + s
	}
	if strings.HasSuffix(s, "Z") {
		return s
	}
	if len(s) > 11 && strings.ContainsAny(s[11:], "+-") {
		return s
	}
	return s + "Z"
}

func (n *rdfNormalizer) qualifiers(node string) []*model.Claim {
	grouped := n.snakGroups(node, nsPQ, nsPQV, nsPQN)
	if len(grouped) == 0 {
		return nil
	}

	pids := make([]string, 0, len(grouped))
	for pid := range grouped {
		pids = append(pids, pid)
	}
	sortIDs(pids)

	claims := make([]*model.Claim, 0, len(pids))
	for _, pid := range pids {
		claims = append(claims, n.snakClaim(pid, grouped[pid]))
	}
	return claims
}

func (n *rdfNormalizer) references(node string) [][]*model.Claim {
	var groups [][]*model.Claim
	for _, ref := range n.g.objects(node, predDerivedFrom) {
		if !ref.isRes {
			continue
		}
		grouped := n.snakGroups(ref.resource, nsPR, nsPRV, nsPRN)

		pids := make([]string, 0, len(grouped))
		for pid := range grouped {
			pids = append(pids, pid)
		}
		sortIDs(pids)

		group := make([]*model.Claim, 0, len(pids))
		for _, pid := range pids {
			group = append(group, n.snakClaim(pid, grouped[pid]))
		}
		groups = append(groups, group)
	}
	return groups
}

type rdfSnak struct {
	obj  term
	rich term
}

// snakGroups collects simple snak values under ns, rejecting the rich-value
// and normalized sub-namespaces, and pairs each with its rich node when one
// exists.
func (n *rdfNormalizer) snakGroups(node, ns, nsRich, nsNorm string) map[string][]rdfSnak {
	out := make(map[string][]rdfSnak)
	for pred, objs := range n.g[node] {
		if !strings.HasPrefix(pred, ns) || strings.HasPrefix(pred, nsRich) || strings.HasPrefix(pred, nsNorm) {
			continue
		}
		pid := pred[len(ns):]
		if !strings.HasPrefix(pid, "P") || !entityIDPattern.MatchString(pid) {
			continue
		}
		rich, _ := n.g.value(node, nsRich+pid)
		for _, obj := range objs {
			out[pid] = append(out[pid], rdfSnak{obj: obj, rich: rich})
		}
	}
	return out
}

func (n *rdfNormalizer) snakClaim(pid string, snaks []rdfSnak) *model.Claim {
	datatype := n.propDatatype(pid, "")
	claim := &model.Claim{
		Subject:  snakSubject(),
		Property: n.b.propertyEntity(pid),
		Datatype: datatype,
	}
	for _, snak := range snaks {
		value := n.snakValue(datatype, snak)
		if value == nil {
			continue
		}
		claim.Values = append(claim.Values, &model.ClaimValue{Claim: claim, Value: value})
	}
	return claim
}

func (n *rdfNormalizer) snakValue(datatype model.Datatype, snak rdfSnak) model.Value {
	obj, rich := snak.obj, snak.rich

	switch datatype {
	case model.DatatypeExternalID:
		// Keep the plain literal, ignore normalized URI forms.
		if !obj.isRes {
			return &model.Text{Content: obj.literal}
		}
		return nil
	case model.DatatypeTime:
		for _, cand := range []term{rich, obj} {
			if cand.isRes {
				if v := n.b.timeValue(n.timeFromNode(cand.resource)); v != nil {
					return v
				}
			}
		}
		if !obj.isRes && obj.literal != "" {
			return n.b.timeValue(rawTime{Time: normalizeTimeLiteral(obj.literal)})
		}
		return nil
	case model.DatatypeQuantity:
		if rich.isRes {
			amount, unit := n.quantityFromNode(rich.resource)
			if v := n.b.quantityValue(amount, unit); v != nil {
				return v
			}
		}
		if !obj.isRes {
			return n.b.quantityValue(obj.literal, "1")
		}
		return nil
	case model.DatatypeCoordinate:
		if rich.isRes {
			lat, lon := n.coordFromNode(rich.resource)
			return n.b.coordinateValue(lat, lon)
		}
		return nil
	case model.DatatypeItem, model.DatatypeProperty:
		if obj.isRes {
			if id := idFromEntityIRI(obj.resource); id != "" {
				return n.b.entityValue(id)
			}
		}
	case model.DatatypeMonolingual:
		if !obj.isRes {
			return n.b.monolingualValue(obj.literal, obj.lang)
		}
	}

	if obj.isRes {
		return &model.Text{Content: obj.resource}
	}
	return &model.Text{Content: obj.literal}
}

func (n *rdfNormalizer) timeFromNode(node string) rawTime {
	raw := rawTime{}
	if v, ok := n.g.value(node, nsWikibase+"timeValue"); ok && !v.isRes {
		raw.Time = normalizeTimeLiteral(v.literal)
	}
	if v, ok := n.g.value(node, nsWikibase+"timePrecision"); ok && !v.isRes {
		if p, err := strconv.Atoi(v.literal); err == nil {
			raw.Precision = &p
		}
	}
	if v, ok := n.g.value(node, nsWikibase+"timeCalendarModel"); ok && v.isRes {
		raw.Calendar = v.resource
	}
	if v, ok := n.g.value(node, nsWikibase+"timeTimezone"); ok && !v.isRes {
		if tz, err := strconv.Atoi(v.literal); err == nil {
			raw.TimezoneMin = tz
		}
	}
	return raw
}

func (n *rdfNormalizer) quantityFromNode(node string) (amount, unit string) {
	unit = "1"
	if v, ok := n.g.value(node, nsWikibase+"quantityAmount"); ok && !v.isRes {
		amount = v.literal
	}
	if v, ok := n.g.value(node, nsWikibase+"quantityUnit"); ok && v.isRes {
		unit = v.resource
	}
	return amount, unit
}

func (n *rdfNormalizer) coordFromNode(node string) (lat, lon *float64) {
	if v, ok := n.g.value(node, nsWikibase+"geoLatitude"); ok && !v.isRes {
		if f, err := strconv.ParseFloat(v.literal, 64); err == nil {
			lat = &f
		}
	}
	if v, ok := n.g.value(node, nsWikibase+"geoLongitude"); ok && !v.isRes {
		if f, err := strconv.ParseFloat(v.literal, 64); err == nil {
			lon = &f
		}
	}
	return lat, lon
}

// langMap collects single-valued language-tagged literals for a predicate.
func (n *rdfNormalizer) langMap(subj, pred string) map[string]string {
	out := make(map[string]string)
	for _, o := range n.g.objects(subj, pred) {
		if !o.isRes && o.lang != "" {
			out[o.lang] = o.literal
		}
	}
	return out
}

// langListMap collects multi-valued language-tagged literals (aliases).
func (n *rdfNormalizer) langListMap(subj, pred string) map[string][]string {
	out := make(map[string][]string)
	for _, o := range n.g.objects(subj, pred) {
		if !o.isRes && o.lang != "" {
			out[o.lang] = append(out[o.lang], o.literal)
		}
	}
	return out
}

func rankFromIRI(iri string) model.Rank {
	switch {
	case strings.HasSuffix(iri, "PreferredRank"):
		return model.RankPreferred
	case strings.HasSuffix(iri, "NormalRank"):
		return model.RankNormal
	case strings.HasSuffix(iri, "DeprecatedRank"):
		return model.RankDeprecated
	default:
		return model.RankNone
	}
}

// idFromEntityIRI maps a wd: IRI to its Q/P identifier, "" otherwise.
func idFromEntityIRI(iri string) string {
	if !strings.HasPrefix(iri, nsWD) {
		return ""
	}
	tail := iri[len(nsWD):]
	if entityIDPattern.MatchString(tail) {
		return tail
	}
	return ""
}
