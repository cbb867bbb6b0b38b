package label

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResolver struct {
	calls   int
	batches [][]string
	labels  map[string]Labels
}

func (c *countingResolver) ResolveBatch(_ context.Context, ids []string) (map[string]Labels, error) {
	c.calls++
	c.batches = append(c.batches, ids)
	out := make(map[string]Labels, len(ids))
	for _, id := range ids {
		if ls, ok := c.labels[id]; ok {
			out[id] = ls
		}
	}
	return out, nil
}

func TestRegistryTwoPhase(t *testing.T) {
	res := &countingResolver{labels: map[string]Labels{
		"Q5":  {"en": "human"},
		"P31": {"en": "instance of"},
	}}
	reg := NewRegistry(res, "en", "")

	h1 := reg.Handle("Q5")
	h2 := reg.Handle("P31")
	h3 := reg.Handle("Q999") // unknown upstream

	// Handles never fetch on their own; everything reads "" before the flush.
	assert.Equal(t, "", h1.String())
	assert.Equal(t, "", h2.String())
	assert.Zero(t, res.calls)

	require.NoError(t, reg.ResolveAll(context.Background()))
	assert.Equal(t, 1, res.calls, "one batched resolve for the whole build")
	assert.Len(t, res.batches[0], 3)

	assert.Equal(t, "human", h1.String())
	assert.Equal(t, "instance of", h2.String())
	assert.Equal(t, "", h3.String(), "unresolved identifiers stay empty")

	// A second flush with nothing pending touches the resolver no further.
	require.NoError(t, reg.ResolveAll(context.Background()))
	assert.Equal(t, 1, res.calls)
}

func TestRegistrySeedSkipsFetch(t *testing.T) {
	res := &countingResolver{labels: map[string]Labels{}}
	reg := NewRegistry(res, "en", "")

	h := reg.Handle("Q42")
	reg.Seed("Q42", Labels{"en": "Douglas Adams"})

	require.NoError(t, reg.ResolveAll(context.Background()))
	assert.Zero(t, res.calls, "seeded identifiers never reach the resolver")
	assert.Equal(t, "Douglas Adams", h.String())
}

func TestRegistryLanguageFallback(t *testing.T) {
	reg := NewRegistry(nil, "de", "en")
	reg.Seed("Q1", Labels{"en": "universe"})
	reg.Seed("Q2", Labels{"de": "Erde", "en": "Earth"})
	reg.Seed("Q3", Labels{"mul": "H2O"})

	assert.Equal(t, "universe", reg.Label("Q1"))
	assert.Equal(t, "Erde", reg.Label("Q2"))
	assert.Equal(t, "H2O", reg.Label("Q3"))
	assert.Equal(t, "", reg.Label("Q4"))
}

func TestZeroHandle(t *testing.T) {
	var h Handle
	assert.Equal(t, "", h.String())
	assert.Equal(t, "", h.ID())
}

func TestLabelsForLang(t *testing.T) {
	ls := Labels{"en": "cat", "mul": "felis"}
	assert.Equal(t, "cat", ls.ForLang("en", "de"))
	assert.Equal(t, "cat", ls.ForLang("de", "en"))
	assert.Equal(t, "felis", ls.ForLang("de", "fr"))

	var nilLabels Labels
	assert.Equal(t, "", nilLabels.ForLang("en", ""))
}
