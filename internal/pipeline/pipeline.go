// Package pipeline orchestrates fetch, normalize, label resolution and
// rendering for one request. Each entity build owns its own label registry;
// builds are independent and fan out across a bounded worker pool.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/korolevd/textifier/internal/format"
	"github.com/korolevd/textifier/internal/label"
	"github.com/korolevd/textifier/internal/llm"
	"github.com/korolevd/textifier/internal/model"
	"github.com/korolevd/textifier/internal/normalize"
	"github.com/korolevd/textifier/internal/render"
	"github.com/korolevd/textifier/internal/wikidata"
	"github.com/korolevd/textifier/internal/worker"
)

// Format selects the rendered encoding.
type Format string

const (
	FormatStructured Format = "json"
	FormatProse      Format = "text"
	FormatTriplet    Format = "triplet"
)

// ParseFormat validates a format name from a request parameter.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatStructured, FormatProse, FormatTriplet:
		return Format(s), nil
	case "":
		return FormatProse, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected json, text or triplet)", s)
	}
}

// Request is one textify call: one or more identifiers plus rendering
// parameters.
type Request struct {
	IDs          []string
	Format       Format
	Lang         string
	FallbackLang string
	Options      normalize.Options
}

// Pipeline wires the upstream client, the label resolver and the renderers.
type Pipeline struct {
	client     *wikidata.Client
	resolver   label.Resolver
	pool       *worker.Pool
	summarizer llm.Provider
	log        *log.Logger
}

// New creates a pipeline. summarizer may be nil (summaries disabled).
func New(client *wikidata.Client, resolver label.Resolver, workers int, summarizer llm.Provider, logger *log.Logger) *Pipeline {
	return &Pipeline{
		client:     client,
		resolver:   resolver,
		pool:       worker.NewPool(workers),
		summarizer: summarizer,
		log:        logger,
	}
}

// Textify renders every requested identifier. The result maps each
// identifier to its rendered output, or to nil when the upstream does not
// know the identifier. Transport failures abort the whole request.
func (p *Pipeline) Textify(ctx context.Context, req Request) (map[string]any, error) {
	if len(req.IDs) == 0 {
		return nil, errors.New("no identifiers given")
	}

	if len(req.IDs) == 1 {
		id := req.IDs[0]
		out, err := p.textifyTurtle(ctx, id, req)
		if errors.Is(err, wikidata.ErrNotFound) {
			p.log.Debug("entity not found", "id", id)
			return map[string]any{id: nil}, nil
		}
		if err != nil {
			return nil, err
		}
		return map[string]any{id: out}, nil
	}

	return p.textifyBatch(ctx, req)
}

// textifyTurtle builds a single entity from its Turtle export.
func (p *Pipeline) textifyTurtle(ctx context.Context, id string, req Request) (any, error) {
	turtle, err := p.client.EntityTurtle(ctx, id)
	if err != nil {
		return nil, err
	}

	reg := label.NewRegistry(p.resolver, req.Lang, req.FallbackLang)
	entity, err := normalize.RDF(id, turtle, reg, req.Lang, req.FallbackLang, req.Options)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", id, err)
	}
	if err := reg.ResolveAll(ctx); err != nil {
		return nil, err
	}

	p.log.Debug("built entity", "id", id, "claims", len(entity.Claims), "source", "turtle")
	return renderEntity(entity, req.Format, req.Lang), nil
}

// textifyBatch builds multiple entities from the attribute-graph JSON export,
// fanning the per-entity work out across the pool.
func (p *Pipeline) textifyBatch(ctx context.Context, req Request) (map[string]any, error) {
	payloads, err := p.client.EntitiesJSON(ctx, req.IDs)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(req.IDs))
	var jobs []worker.Job
	for _, id := range req.IDs {
		payload, ok := payloads[id]
		if !ok {
			p.log.Debug("entity not found", "id", id)
			out[id] = nil
			continue
		}
		jobs = append(jobs, &textifyJob{p: p, req: req, id: id, payload: payload})
	}

	for _, r := range p.pool.Run(ctx, jobs) {
		res := r.(*textifyResult)
		if res.err != nil {
			// Malformed payloads degrade to a per-identifier null rather
			// than failing the batch.
			p.log.Warn("entity build failed", "id", res.id, "err", res.err)
			out[res.id] = nil
			continue
		}
		out[res.id] = res.output
	}
	return out, nil
}

type textifyJob struct {
	p       *Pipeline
	req     Request
	id      string
	payload json.RawMessage
}

type textifyResult struct {
	id     string
	output any
	err    error
}

func (r *textifyResult) Err() error { return r.err }

func (j *textifyJob) Execute(ctx context.Context) worker.Result {
	reg := label.NewRegistry(j.p.resolver, j.req.Lang, j.req.FallbackLang)
	entity, err := normalize.Attribute(j.id, j.payload, reg, j.req.Lang, j.req.FallbackLang, j.req.Options)
	if err != nil {
		return &textifyResult{id: j.id, err: err}
	}
	if err := reg.ResolveAll(ctx); err != nil {
		return &textifyResult{id: j.id, err: err}
	}

	j.p.log.Debug("built entity", "id", j.id, "claims", len(entity.Claims), "source", "json")
	return &textifyResult{id: j.id, output: renderEntity(entity, j.req.Format, j.req.Lang)}
}

func renderEntity(e *model.Entity, f Format, lang string) any {
	loc := format.Lookup(lang)
	switch f {
	case FormatStructured:
		return render.Structured(e)
	case FormatTriplet:
		return render.Triplet(e, loc)
	default:
		return render.Prose(e, loc)
	}
}

// Summarize renders the entity as prose and asks the configured provider for
// a summary. It fails when no provider is configured.
func (p *Pipeline) Summarize(ctx context.Context, id string, req Request) (*llm.SummarizeResponse, error) {
	if p.summarizer == nil {
		return nil, errors.New("no LLM provider configured")
	}

	req.Format = FormatProse
	out, err := p.textifyTurtle(ctx, id, req)
	if err != nil {
		return nil, err
	}
	text, _ := out.(string)

	return p.summarizer.Summarize(ctx, llm.SummarizeRequest{
		EntityID: id,
		Text:     text,
		Lang:     req.Lang,
	})
}
