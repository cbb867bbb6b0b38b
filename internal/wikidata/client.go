// Package wikidata fetches raw entity payloads and labels from the Wikibase
// HTTP API. It distinguishes a missing entity (ErrNotFound, per-identifier)
// from a transport failure, rate-limits against the single upstream host and
// reads repeated payloads through the layered cache.
package wikidata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/korolevd/textifier/internal/cache"
	"github.com/korolevd/textifier/internal/label"
)

// ErrNotFound marks an identifier the upstream knowledge base does not have.
// It is surfaced per identifier and never fails a whole batch.
var ErrNotFound = errors.New("entity not found")

// The action API caps wbgetentities at 50 identifiers per request.
const idChunkSize = 50

// Client talks to one Wikibase instance.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	maxBytes  int64
	limiter   *rate.Limiter
	cache     cache.Cache
	cacheTTL  time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithCache routes payload reads through the given cache.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.cacheTTL = ttl
	}
}

// WithRateLimit caps outgoing requests to the upstream host.
func WithRateLimit(rps float64, burst int) Option {
	return func(cl *Client) {
		if rps > 0 {
			if burst <= 0 {
				burst = 1
			}
			cl.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewClient creates a client for the given base URL (e.g.
// "https://www.wikidata.org").
func NewClient(baseURL, userAgent string, timeout time.Duration, maxBytes int64, opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EntityTurtle fetches the single-entity RDF/Turtle export.
func (c *Client) EntityTurtle(ctx context.Context, id string) (string, error) {
	u := c.baseURL + "/wiki/Special:EntityData/" + url.PathEscape(id) + ".ttl?flavor=dump"

	if body, ok := c.cacheGet(u); ok {
		return string(body), nil
	}

	body, status, err := c.get(ctx, u)
	if err != nil {
		return "", fmt.Errorf("fetch entity %s: %w", id, err)
	}
	if status == http.StatusNotFound {
		return "", fmt.Errorf("entity %s: %w", id, ErrNotFound)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("fetch entity %s: unexpected status %d", id, status)
	}

	c.cacheSet(u, body)
	return string(body), nil
}

// EntitiesJSON fetches the attribute-graph JSON export for a batch of
// identifiers via wbgetentities, chunked at the API limit. Identifiers the
// upstream marks missing are absent from the result map.
func (c *Client) EntitiesJSON(ctx context.Context, ids []string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(ids))

	for _, chunk := range chunkIDs(ids) {
		raw, err := c.action(ctx, url.Values{
			"action": {"wbgetentities"},
			"ids":    {strings.Join(chunk, "|")},
			"props":  {"labels|descriptions|aliases|claims"},
			"format": {"json"},
			"origin": {"*"},
		})
		if err != nil {
			return nil, err
		}

		var payload struct {
			Entities map[string]json.RawMessage `json:"entities"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode entities response: %w", err)
		}
		for id, entity := range payload.Entities {
			if entityMissing(entity) {
				continue
			}
			out[id] = entity
		}
	}
	return out, nil
}

// Labels fetches per-language labels for a batch of identifiers. The result
// satisfies label.FetchFunc and plugs straight into the cached resolver.
func (c *Client) Labels(ctx context.Context, ids []string) (map[string]label.Labels, error) {
	out := make(map[string]label.Labels, len(ids))

	for _, chunk := range chunkIDs(ids) {
		raw, err := c.action(ctx, url.Values{
			"action": {"wbgetentities"},
			"ids":    {strings.Join(chunk, "|")},
			"props":  {"labels"},
			"format": {"json"},
			"origin": {"*"},
		})
		if err != nil {
			return nil, err
		}

		var payload struct {
			Entities map[string]struct {
				Missing *json.RawMessage `json:"missing"`
				Labels  map[string]struct {
					Value string `json:"value"`
				} `json:"labels"`
			} `json:"entities"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode labels response: %w", err)
		}
		for id, entity := range payload.Entities {
			if entity.Missing != nil || len(entity.Labels) == 0 {
				continue
			}
			labels := make(label.Labels, len(entity.Labels))
			for lang, l := range entity.Labels {
				labels[lang] = l.Value
			}
			out[id] = labels
		}
	}
	return out, nil
}

func (c *Client) action(ctx context.Context, params url.Values) ([]byte, error) {
	u := c.baseURL + "/w/api.php?" + params.Encode()

	if body, ok := c.cacheGet(u); ok {
		return body, nil
	}

	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("action api: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("action api: unexpected status %d", status)
	}

	c.cacheSet(u, body)
	return body, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/turtle, application/json;q=0.9, */*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	reader := io.Reader(resp.Body)
	if c.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, c.maxBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) cacheGet(u string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(cache.Key(u))
}

func (c *Client) cacheSet(u string, body []byte) {
	if c.cache == nil {
		return
	}
	_ = c.cache.Set(cache.Key(u), body, c.cacheTTL)
}

func chunkIDs(ids []string) [][]string {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Strings(uniq) // stable request URLs make cache keys deterministic

	var chunks [][]string
	for start := 0; start < len(uniq); start += idChunkSize {
		end := start + idChunkSize
		if end > len(uniq) {
			end = len(uniq)
		}
		chunks = append(chunks, uniq[start:end])
	}
	return chunks
}

func entityMissing(raw json.RawMessage) bool {
	var probe struct {
		Missing *json.RawMessage `json:"missing"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return true
	}
	return probe.Missing != nil
}
