package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/korolevd/textifier/internal/format"
	"github.com/korolevd/textifier/internal/model"
)

func itemClaim(pid, propLabel, qid, valLabel string, rank model.Rank) *model.Claim {
	c := &model.Claim{
		Property: &model.Entity{ID: pid, Label: model.TextLabel(propLabel)},
		Datatype: model.DatatypeItem,
	}
	c.Values = []*model.ClaimValue{{
		Claim: c,
		Value: &model.Entity{ID: qid, Label: model.TextLabel(valLabel)},
		Rank:  rank,
	}}
	return c
}

func enLocale() format.Locale { return format.Lookup("en") }

func TestStructuredKeys(t *testing.T) {
	e := &model.Entity{
		ID:          "Q1",
		Label:       model.TextLabel("universe"),
		Description: "everything",
		Aliases:     []string{"cosmos"},
		Claims:      []*model.Claim{itemClaim("P31", "instance of", "Q5", "human", model.RankNormal)},
	}

	out := Structured(e)
	assert.Equal(t, "Q1", out["QID"])
	assert.NotContains(t, out, "PID")
	assert.Equal(t, "universe", out["label"])
	assert.Equal(t, "everything", out["description"])

	claims := out["claims"].([]any)
	require.Len(t, claims, 1)
	claim := claims[0].(map[string]any)
	assert.Equal(t, "P31", claim["PID"])
	assert.Equal(t, "wikibase-item", claim["datatype"])

	value := claim["values"].([]any)[0].(map[string]any)
	assert.Equal(t, "normal", value["rank"])
	assert.NotContains(t, value, "qualifiers")
	assert.NotContains(t, value, "references")
	assert.Equal(t, map[string]any{"QID": "Q5", "label": "human"}, value["value"])
}

func TestStructuredPropertyEntityKey(t *testing.T) {
	e := &model.Entity{ID: "P279", Label: model.TextLabel("subclass of")}
	out := Structured(e)
	assert.Equal(t, "P279", out["PID"])
	assert.NotContains(t, out, "QID")
}

func TestStructuredNoAliasesIsEmptyList(t *testing.T) {
	e := &model.Entity{ID: "Q1", Label: model.TextLabel("universe")}
	out := Structured(e)
	// Must encode as a JSON [], not null.
	aliases, ok := out["aliases"].([]string)
	require.True(t, ok, "aliases is %#v", out["aliases"])
	assert.NotNil(t, aliases)
	assert.Empty(t, aliases)
}

func TestStructuredMissingLabelIsNull(t *testing.T) {
	e := &model.Entity{ID: "Q1"}
	out := Structured(e)
	assert.Nil(t, out["label"])
	assert.Nil(t, out["description"])
}

func TestStructuredUnitlessQuantityIsBareAmount(t *testing.T) {
	c := &model.Claim{
		Property: &model.Entity{ID: "P1082", Label: model.TextLabel("population")},
		Datatype: model.DatatypeQuantity,
	}
	c.Values = []*model.ClaimValue{{Claim: c, Value: &model.Quantity{Amount: "+67000000"}}}
	e := &model.Entity{ID: "Q1", Label: model.TextLabel("x"), Claims: []*model.Claim{c}}

	out := Structured(e)
	value := out["claims"].([]any)[0].(map[string]any)["values"].([]any)[0].(map[string]any)
	assert.Equal(t, "+67000000", value["value"])
	assert.NotContains(t, value, "rank")
}

func TestStructuredFalsyValuesOmitted(t *testing.T) {
	c := &model.Claim{
		Property: &model.Entity{ID: "P31", Label: model.TextLabel("instance of")},
		Datatype: model.DatatypeItem,
	}
	c.Values = []*model.ClaimValue{
		{Claim: c, Value: nil},                                                // no-value sentinel
		{Claim: c, Value: &model.Text{Content: ""}},                           // wrong-language monolingual
		{Claim: c, Value: &model.Entity{ID: "Q5"}},                            // unresolved label
		{Claim: c, Value: &model.Entity{ID: "Q6", Label: model.TextLabel("ok")}},
	}
	e := &model.Entity{ID: "Q1", Label: model.TextLabel("x"), Claims: []*model.Claim{c}}

	out := Structured(e)
	values := out["claims"].([]any)[0].(map[string]any)["values"].([]any)
	require.Len(t, values, 1)
	assert.Equal(t, map[string]any{"QID": "Q6", "label": "ok"},
		values[0].(map[string]any)["value"])
}

func TestStructuredFalsyClaimOmitted(t *testing.T) {
	unlabeled := &model.Claim{
		Property: &model.Entity{ID: "P31"}, // property label unresolved
		Datatype: model.DatatypeItem,
	}
	unlabeled.Values = []*model.ClaimValue{{Claim: unlabeled,
		Value: &model.Entity{ID: "Q5", Label: model.TextLabel("human")}}}

	e := &model.Entity{ID: "Q1", Label: model.TextLabel("x"), Claims: []*model.Claim{unlabeled}}
	out := Structured(e)
	assert.Empty(t, out["claims"])
}

func TestProseHeaderOnly(t *testing.T) {
	e := &model.Entity{ID: "Q1", Label: model.TextLabel("universe")}
	assert.Equal(t, "universe", Prose(e, enLocale()))
}

func TestProseDescriptionWithoutAttributesEndsWithPeriod(t *testing.T) {
	e := &model.Entity{ID: "Q1", Label: model.TextLabel("universe"), Description: "everything"}
	assert.Equal(t, "universe, everything.", Prose(e, enLocale()))
}

func TestProseMissingLabelPlaceholder(t *testing.T) {
	e := &model.Entity{ID: "Q1"}
	assert.Equal(t, "<missing>", Prose(e, enLocale()))
}

func TestProseFull(t *testing.T) {
	claim := itemClaim("P31", "instance of", "Q5", "human", model.RankNormal)
	e := &model.Entity{
		ID:          "Q1",
		Label:       model.TextLabel("universe"),
		Description: "everything",
		Aliases:     []string{"cosmos", "world"},
		Claims:      []*model.Claim{claim},
	}
	want := "universe, everything, also known as cosmos, world. Attributes include:\n- instance of: human"
	assert.Equal(t, want, Prose(e, enLocale()))
}

func TestProseDeprecatedSuffix(t *testing.T) {
	claim := itemClaim("P31", "instance of", "Q5", "human", model.RankDeprecated)
	e := &model.Entity{ID: "Q1", Label: model.TextLabel("x"), Claims: []*model.Claim{claim}}
	assert.Contains(t, Prose(e, enLocale()), "instance of: human [deprecated]")
}

func TestProseQualifiers(t *testing.T) {
	claim := itemClaim("P106", "occupation", "Q214917", "playwright", model.RankNone)
	qual := &model.Claim{
		Property: &model.Entity{ID: "P1545", Label: model.TextLabel("series ordinal")},
		Datatype: model.DatatypeString,
	}
	qual.Values = []*model.ClaimValue{{Claim: qual, Value: &model.Text{Content: "1"}}}
	claim.Values[0].Qualifiers = []*model.Claim{qual}

	e := &model.Entity{ID: "Q1", Label: model.TextLabel("x"), Claims: []*model.Claim{claim}}
	assert.Contains(t, Prose(e, enLocale()), "occupation: playwright (series ordinal: 1)")
}

func TestTripletBareHead(t *testing.T) {
	e := &model.Entity{ID: "Q1", Label: model.TextLabel("universe")}
	assert.Equal(t, "universe (Q1)", Triplet(e, enLocale()))

	// Nothing truthy to say still yields the bare head.
	unlabeled := &model.Claim{Property: &model.Entity{ID: "P31"}, Datatype: model.DatatypeItem}
	e.Claims = []*model.Claim{unlabeled}
	assert.Equal(t, "universe (Q1)", Triplet(e, enLocale()))
}

func TestTripletLines(t *testing.T) {
	e := &model.Entity{
		ID:          "Q1",
		Label:       model.TextLabel("universe"),
		Description: "everything",
		Aliases:     []string{"cosmos"},
		Claims:      []*model.Claim{itemClaim("P31", "instance of", "Q5", "human", model.RankNormal)},
	}
	want := "universe (Q1): description: everything\n" +
		"universe (Q1): aliases: cosmos\n" +
		"universe (Q1): instance of (P31): human (Q5)"
	assert.Equal(t, want, Triplet(e, enLocale()))
}

func TestTripletDeprecatedAndQualifiers(t *testing.T) {
	claim := itemClaim("P31", "instance of", "Q5", "human", model.RankDeprecated)
	qual := &model.Claim{
		Property: &model.Entity{ID: "P580", Label: model.TextLabel("start time")},
		Datatype: model.DatatypeTime,
	}
	qual.Values = []*model.ClaimValue{{Claim: qual,
		Value: &model.Time{Raw: "+1952-00-00T00:00:00Z", Formatted: "1952 AD"}}}
	claim.Values[0].Qualifiers = []*model.Claim{qual}

	e := &model.Entity{ID: "Q1", Label: model.TextLabel("x"), Claims: []*model.Claim{claim}}
	want := "x (Q1): instance of (P31): human (Q5) [deprecated] | start time (P580): 1952 AD"
	assert.Equal(t, want, Triplet(e, enLocale()))
}
