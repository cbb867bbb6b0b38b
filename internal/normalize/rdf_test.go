package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korolevd/textifier/internal/label"
	"github.com/korolevd/textifier/internal/model"
	"github.com/korolevd/textifier/internal/render"
)

const turtlePrologue = `
@prefix wd: <http://www.wikidata.org/entity/> .
@prefix wds: <http://www.wikidata.org/entity/statement/> .
@prefix p: <http://www.wikidata.org/prop/> .
@prefix ps: <http://www.wikidata.org/prop/statement/> .
@prefix pq: <http://www.wikidata.org/prop/qualifier/> .
@prefix wikibase: <http://wikiba.se/ontology#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
`

func parseTurtle(t *testing.T, doc string, opts Options) *model.Entity {
	t.Helper()
	reg := label.NewRegistry(nil, "en", "en")
	e, err := RDF("Q1", turtlePrologue+doc, reg, "en", "en", opts)
	require.NoError(t, err)
	require.NoError(t, reg.ResolveAll(context.Background()))
	return e
}

func TestRDFParseError(t *testing.T) {
	reg := label.NewRegistry(nil, "en", "en")
	_, err := RDF("Q1", "this is not turtle @@", reg, "en", "en", Options{})
	assert.Error(t, err)
}

func TestRDFSomeValueSentinel(t *testing.T) {
	// A statement node with a rank but no main snak is the somevalue/novalue
	// shape: the claim exists, its value is the nil sentinel, and nothing
	// renders.
	e := parseTurtle(t, `
wd:Q1 rdfs:label "thing"@en ;
	p:P31 wds:Q1-a .
wds:Q1-a wikibase:rank wikibase:NormalRank ;
	pq:P1545 "1" .
wd:P31 wikibase:propertyType wikibase:WikibaseItem ; rdfs:label "instance of"@en .
wd:P1545 rdfs:label "series ordinal"@en .
`, Options{})

	require.Len(t, e.Claims, 1)
	require.Len(t, e.Claims[0].Values, 1)
	assert.Nil(t, e.Claims[0].Values[0].Value)
	// Qualifiers on a somevalue/novalue statement are dropped with the
	// missing main snak; the sentinel stays bare.
	assert.Empty(t, e.Claims[0].Values[0].Qualifiers)
	assert.False(t, e.Claims[0].Truthy())

	out := render.Structured(e)
	assert.Empty(t, out["claims"], "sentinel values never render")
}

func TestRDFIgnoresNonStatementObjects(t *testing.T) {
	// A p: object with no statement shape (no rank, no snaks, no type) is
	// dropped rather than misread as a statement.
	e := parseTurtle(t, `
wd:Q1 rdfs:label "thing"@en ;
	p:P31 wds:Q1-junk .
wd:P31 wikibase:propertyType wikibase:WikibaseItem .
`, Options{})
	assert.Empty(t, e.Claims)
}

func TestRDFStatementShapeWithoutRank(t *testing.T) {
	// A main snak alone is enough to validate the statement shape.
	e := parseTurtle(t, `
wd:Q1 rdfs:label "thing"@en ;
	p:P31 wds:Q1-a .
wds:Q1-a ps:P31 wd:Q5 .
wd:P31 wikibase:propertyType wikibase:WikibaseItem ; rdfs:label "instance of"@en .
wd:Q5 rdfs:label "human"@en .
`, Options{})

	require.Len(t, e.Claims, 1)
	require.Len(t, e.Claims[0].Values, 1)
	assert.Equal(t, model.RankNone, e.Claims[0].Values[0].Rank)
	assert.Equal(t, "Q5", e.Claims[0].Values[0].Value.(*model.Entity).ID)
}

func TestRDFDatatypeInferenceWithoutPropertyType(t *testing.T) {
	// No wikibase:propertyType triple: the item datatype is inferred from the
	// wd: IRI shape of the main snak object.
	e := parseTurtle(t, `
wd:Q1 rdfs:label "thing"@en ;
	p:P31 wds:Q1-a .
wds:Q1-a wikibase:rank wikibase:NormalRank ;
	ps:P31 wd:Q5 .
wd:Q5 rdfs:label "human"@en .
`, Options{})

	require.Len(t, e.Claims, 1)
	assert.Equal(t, model.DatatypeItem, e.Claims[0].Datatype)
}

func TestRDFSeedsDocumentLabels(t *testing.T) {
	// Labels carried by the export satisfy handles without any resolver.
	e := parseTurtle(t, `
wd:Q1 rdfs:label "thing"@en ;
	p:P31 wds:Q1-a .
wds:Q1-a wikibase:rank wikibase:NormalRank ;
	ps:P31 wd:Q5 .
wd:P31 wikibase:propertyType wikibase:WikibaseItem ; rdfs:label "instance of"@en .
wd:Q5 rdfs:label "human"@en .
`, Options{})

	claim := e.Claims[0]
	assert.Equal(t, "instance of", claim.Property.LabelString())
	assert.Equal(t, "human", claim.Values[0].Value.(*model.Entity).LabelString())
}

func TestRDFLanguageFallback(t *testing.T) {
	reg := label.NewRegistry(nil, "de", "en")
	e, err := RDF("Q1", turtlePrologue+`
wd:Q1 rdfs:label "thing"@en .
`, reg, "de", "en", Options{})
	require.NoError(t, err)
	assert.Equal(t, "thing", e.LabelString(), "fallback language serves when the target is absent")
}

func TestStatementPID(t *testing.T) {
	pid, ok := statementPID("http://www.wikidata.org/prop/P31")
	assert.True(t, ok)
	assert.Equal(t, "P31", pid)

	for _, pred := range []string{
		"http://www.wikidata.org/prop/statement/P31",
		"http://www.wikidata.org/prop/direct/P31",
		"http://www.wikidata.org/prop/novalue",
		"http://schema.org/description",
	} {
		_, ok := statementPID(pred)
		assert.False(t, ok, pred)
	}
}

func TestRankFromIRI(t *testing.T) {
	assert.Equal(t, model.RankPreferred, rankFromIRI("http://wikiba.se/ontology#PreferredRank"))
	assert.Equal(t, model.RankNormal, rankFromIRI("http://wikiba.se/ontology#NormalRank"))
	assert.Equal(t, model.RankDeprecated, rankFromIRI("http://wikiba.se/ontology#DeprecatedRank"))
	assert.Equal(t, model.RankNone, rankFromIRI("http://wikiba.se/ontology#BestRank"))
}

func TestIDFromEntityIRI(t *testing.T) {
	assert.Equal(t, "Q42", idFromEntityIRI("http://www.wikidata.org/entity/Q42"))
	assert.Equal(t, "P31", idFromEntityIRI("http://www.wikidata.org/entity/P31"))
	assert.Equal(t, "", idFromEntityIRI("http://www.wikidata.org/entity/statement/Q42-x"))
	assert.Equal(t, "", idFromEntityIRI("http://example.org/Q42"))
	assert.Equal(t, "", idFromEntityIRI("http://www.wikidata.org/entity/L42"))
}
