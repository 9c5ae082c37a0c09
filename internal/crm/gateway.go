package crm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ringstreak/internal/resilience"
	"github.com/sells-group/ringstreak/pkg/streak"
)

// ErrUnauthorized is returned by Search when Streak rejects the API key.
var ErrUnauthorized = eris.New("crm: streak rejected credentials")

// SearchResult holds the tagged rows of one search.
type SearchResult struct {
	Contacts []RawRow
	Records  []RawRow
}

// Gateway applies the lookup policy on top of the Streak client: every call
// goes through a per-endpoint circuit breaker, and every failure other than
// a credential rejection degrades to "no data".
//
// Breakers are keyed by endpoint so a failing enrichment endpoint never
// short-circuits search.
type Gateway struct {
	client   streak.Client
	breakers *resilience.Breakers
}

// NewGateway wraps client. A nil ShouldTrip in cfg trips on upstream
// failures (5xx, 429, network) but not on 4xx answers or caller cancellation.
func NewGateway(client streak.Client, cfg resilience.BreakerConfig) *Gateway {
	if cfg.ShouldTrip == nil {
		cfg.ShouldTrip = upstreamFailure
	}
	return &Gateway{client: client, breakers: resilience.NewBreakers(cfg)}
}

// BreakerStates reports the state of every endpoint breaker used so far,
// keyed "streak.<version>.<endpoint>".
func (g *Gateway) BreakerStates() map[string]resilience.CircuitState {
	return g.breakers.States()
}

// Breaker endpoint names.
const (
	epSearch   = "search"
	epBoxes    = "contact_boxes"
	epStages   = "stages"
	epTimeline = "timeline"
	epThreads  = "threads"
	epBox      = "box"
	epContact  = "contact"
)

func (g *Gateway) breaker(v streak.APIVersion, endpoint string) *resilience.Breaker {
	return g.breakers.Get("streak." + string(v) + "." + endpoint)
}

func upstreamFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *streak.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return true
}

// degraded logs a failure that is being turned into "no data".
func degraded(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if streak.IsNotFound(err) || errors.Is(err, context.Canceled) || errors.Is(err, resilience.ErrCircuitOpen) {
		zap.L().Debug(msg, fields...)
		return
	}
	zap.L().Warn(msg, fields...)
}

// Search runs one search query. It fails only when the API key is rejected;
// any other failure returns an empty result.
func (g *Gateway) Search(ctx context.Context, query string) (SearchResult, error) {
	resp, err := resilience.ExecuteVal(ctx, g.breaker(streak.V1, epSearch), func(ctx context.Context) (*streak.SearchResponse, error) {
		return g.client.Search(ctx, query)
	})
	if err != nil {
		if streak.IsUnauthorized(err) {
			return SearchResult{}, eris.Wrapf(ErrUnauthorized, "search %q: %v", query, err)
		}
		degraded("crm: search failed", err, zap.String("query", query))
		return SearchResult{}, nil
	}
	if resp == nil {
		return SearchResult{}, nil
	}
	return SearchResult{
		Contacts: DetectRows(resp.Contacts),
		Records:  DetectRows(resp.Boxes),
	}, nil
}

// LinkedRecords returns the boxes linked to a contact. It tries the current
// API, then the legacy API with the key as given, then the legacy API with
// the numeric id decoded from a composite key. It returns nil when all fail.
func (g *Gateway) LinkedRecords(ctx context.Context, personKey string) []RawRow {
	rows, err := g.contactBoxes(ctx, streak.V2, personKey)
	if err == nil {
		return Rows(SchemaCurrent, rows)
	}
	degraded("crm: current linked records failed", err, zap.String("person_key", personKey), zap.String("api_version", string(streak.V2)))

	rows, err = g.contactBoxes(ctx, streak.V1, personKey)
	if err == nil {
		return Rows(SchemaLegacy, rows)
	}
	degraded("crm: legacy linked records failed", err, zap.String("person_key", personKey), zap.String("api_version", string(streak.V1)))

	if id, ok := streak.DecodeLegacyKey(personKey); ok && id != personKey {
		rows, err = g.contactBoxes(ctx, streak.V1, id)
		if err == nil {
			return Rows(SchemaLegacy, rows)
		}
		degraded("crm: legacy linked records by decoded key failed", err, zap.String("person_key", personKey), zap.String("legacy_id", id))
	}
	return nil
}

func (g *Gateway) contactBoxes(ctx context.Context, v streak.APIVersion, key string) ([]json.RawMessage, error) {
	return resilience.ExecuteVal(ctx, g.breaker(v, epBoxes), func(ctx context.Context) ([]json.RawMessage, error) {
		return g.client.ContactBoxes(ctx, v, key)
	})
}

// StageList returns a pipeline's stage names, trying the current API and then
// the legacy one. ok is false when both fail.
func (g *Gateway) StageList(ctx context.Context, pipelineKey string) (map[string]string, bool) {
	for _, v := range []streak.APIVersion{streak.V2, streak.V1} {
		body, err := resilience.ExecuteVal(ctx, g.breaker(v, epStages), func(ctx context.Context) (json.RawMessage, error) {
			return g.client.PipelineStages(ctx, v, pipelineKey)
		})
		if err != nil {
			degraded("crm: stage list failed", err, zap.String("pipeline_key", pipelineKey), zap.String("api_version", string(v)))
			continue
		}
		schema := SchemaLegacy
		if v == streak.V2 {
			schema = SchemaCurrent
		}
		return StageNames(Row(schema, body)), true
	}
	return map[string]string{}, false
}

// Timeline returns up to limit timeline entries of a record.
func (g *Gateway) Timeline(ctx context.Context, recordKey string, limit int) []RawRow {
	rows, err := resilience.ExecuteVal(ctx, g.breaker(streak.V2, epTimeline), func(ctx context.Context) ([]json.RawMessage, error) {
		return g.client.BoxTimeline(ctx, recordKey, limit)
	})
	if err != nil {
		degraded("crm: timeline failed", err, zap.String("record_key", recordKey))
		return nil
	}
	return Rows(SchemaCurrent, rows)
}

// LegacyThreads returns the email threads of a record from the legacy API.
func (g *Gateway) LegacyThreads(ctx context.Context, recordKey string) []RawRow {
	rows, err := resilience.ExecuteVal(ctx, g.breaker(streak.V1, epThreads), func(ctx context.Context) ([]json.RawMessage, error) {
		return g.client.BoxThreads(ctx, recordKey)
	})
	if err != nil {
		degraded("crm: legacy threads failed", err, zap.String("record_key", recordKey))
		return nil
	}
	return Rows(SchemaLegacy, rows)
}

// RecordDetail fetches one box.
func (g *Gateway) RecordDetail(ctx context.Context, recordKey string) (RawRow, bool) {
	body, err := resilience.ExecuteVal(ctx, g.breaker(streak.V1, epBox), func(ctx context.Context) (json.RawMessage, error) {
		return g.client.GetBox(ctx, recordKey)
	})
	if err != nil {
		degraded("crm: record detail failed", err, zap.String("record_key", recordKey))
		return RawRow{}, false
	}
	return Row(SchemaLegacy, body), true
}

// ContactDetail fetches one contact.
func (g *Gateway) ContactDetail(ctx context.Context, contactKey string) (RawRow, bool) {
	body, err := resilience.ExecuteVal(ctx, g.breaker(streak.V2, epContact), func(ctx context.Context) (json.RawMessage, error) {
		return g.client.GetContact(ctx, contactKey)
	})
	if err != nil {
		degraded("crm: contact detail failed", err, zap.String("person_key", contactKey))
		return RawRow{}, false
	}
	return Row(SchemaCurrent, body), true
}
