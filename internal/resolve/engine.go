// Package resolve turns a raw phone number into ranked CRM matches.
package resolve

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ringstreak/internal/crm"
	"github.com/sells-group/ringstreak/internal/model"
	"github.com/sells-group/ringstreak/pkg/phone"
)

// ErrUpstreamRejected is returned when every seed search was refused because
// the CRM rejected the credentials. Nothing could be searched at all.
var ErrUpstreamRejected = eris.New("resolve: upstream rejected credentials")

// DefaultMaxMatches caps the match list.
const DefaultMaxMatches = 12

// Source is the CRM access the engine needs.
type Source interface {
	Search(ctx context.Context, query string) (crm.SearchResult, error)
	LinkedRecords(ctx context.Context, personKey string) []crm.RawRow
	ContactDetail(ctx context.Context, contactKey string) (crm.RawRow, bool)
}

// Enricher fills the lazily resolved fields of an emitted record.
type Enricher interface {
	Enrich(ctx context.Context, rec model.Record) model.Record
}

// Options tune an Engine.
type Options struct {
	MaxMatches          int
	EnrichConcurrency   int
	SkipFreeMailDomains bool
	Links               crm.Links
}

// Engine resolves phone numbers against the CRM.
type Engine struct {
	src      Source
	enricher Enricher
	opts     Options
}

// NewEngine creates an Engine. enricher may be nil to skip enrichment.
func NewEngine(src Source, enricher Enricher, opts Options) *Engine {
	if opts.MaxMatches <= 0 {
		opts.MaxMatches = DefaultMaxMatches
	}
	if opts.EnrichConcurrency <= 0 {
		opts.EnrichConcurrency = 4
	}
	return &Engine{src: src, enricher: enricher, opts: opts}
}

// Resolve looks up raw in the CRM.
//
// An input without digits is not an error: the response has a nil
// Normalized and no matches. Upstream failures only make the result sparser.
// The error is non-nil only when the CRM rejected every seed search
// (ErrUpstreamRejected) or ctx ended, and then the response is nil.
func (e *Engine) Resolve(ctx context.Context, raw string) (*model.LookupResponse, error) {
	resp := &model.LookupResponse{Query: raw, Matches: []model.MatchResult{}}

	norm, ok := phone.Normalize(raw)
	if !ok {
		return resp, nil
	}
	resp.Normalized = &norm
	target := phone.Digits(norm)
	log := zap.L().With(zap.String("normalized", norm))

	seeds := SeedQueries(norm)
	seedResults, err := e.searchBatch(ctx, seeds)
	if err != nil {
		return nil, err
	}
	if err := rejected(seedResults); err != nil {
		return nil, err
	}

	contacts := newRowSet(crm.ContactKey)
	records := newRowSet(crm.RecordKey)
	for _, r := range seedResults {
		contacts.add(r.res.Contacts...)
		records.add(r.res.Records...)
	}

	confirmed := confirmedPeople(contacts.rows, target)
	log.Debug("resolve: seed searches done",
		zap.Int("queries", len(seeds)),
		zap.Int("contacts", len(contacts.rows)),
		zap.Int("confirmed", len(confirmed)),
		zap.Int("records", len(records.rows)),
	)
	if len(confirmed) == 0 {
		// Without a confirmed person the seed records are text-search noise.
		return resp, nil
	}

	primary := e.completePerson(ctx, confirmed[0])

	linked, err := e.linkedRecords(ctx, confirmed)
	if err != nil {
		return nil, err
	}
	for _, rows := range linked {
		records.add(rows...)
	}

	secondary := SecondaryQueries(primary, seeds, e.opts.SkipFreeMailDomains)
	if len(secondary) > 0 {
		results, err := e.searchBatch(ctx, secondary)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			records.add(r.res.Records...)
		}
	}

	recs := make([]model.Record, 0, len(records.rows))
	for _, row := range records.rows {
		if rec, ok := crm.RecordFromRow(row); ok {
			recs = append(recs, rec)
		}
	}
	SortRecords(recs)
	log.Debug("resolve: records merged",
		zap.String("person_key", primary.Key),
		zap.Int("secondary_queries", len(secondary)),
		zap.Int("records", len(recs)),
	)

	if len(recs) == 0 {
		resp.Matches = []model.MatchResult{e.match(primary, nil)}
		return resp, nil
	}

	if len(recs) > e.opts.MaxMatches {
		recs = recs[:e.opts.MaxMatches]
	}
	if err := e.enrich(ctx, recs); err != nil {
		return nil, err
	}

	matches := make([]model.MatchResult, len(recs))
	for i := range recs {
		matches[i] = e.match(primary, &recs[i])
	}
	SortMatches(matches)
	resp.Matches = matches
	return resp, nil
}

type searchOutcome struct {
	query string
	res   crm.SearchResult
	err   error
}

// searchBatch runs queries concurrently and waits for all of them. Each task
// writes only its own slot; callers fold the slots in query order.
func (e *Engine) searchBatch(ctx context.Context, queries []string) ([]searchOutcome, error) {
	out := make([]searchOutcome, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			res, err := e.src.Search(gctx, q)
			out[i] = searchOutcome{query: q, res: res, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, o := range out {
		if o.err != nil {
			zap.L().Debug("resolve: search failed", zap.String("query", o.query), zap.Error(o.err))
		}
	}
	return out, nil
}

// rejected returns ErrUpstreamRejected when every seed search was refused
// for credentials.
func rejected(results []searchOutcome) error {
	if len(results) == 0 {
		return nil
	}
	for _, r := range results {
		if r.err == nil || !errors.Is(r.err, crm.ErrUnauthorized) {
			return nil
		}
	}
	return eris.Wrap(ErrUpstreamRejected, results[0].err.Error())
}

// confirmedPeople keeps the contacts that carry the target number.
func confirmedPeople(rows []crm.RawRow, target string) []model.Person {
	var out []model.Person
	for _, row := range rows {
		p, ok := crm.PersonFromRow(row)
		if !ok {
			continue
		}
		for _, num := range p.AllPhones() {
			if phone.SameNumber(num, target) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// completePerson fills gaps in a lightweight search row from the contact
// detail when the email, organization, or a multi-word name is missing.
func (e *Engine) completePerson(ctx context.Context, p model.Person) model.Person {
	if p.Email != "" && p.Organization != "" && hasFullName(p.Name) {
		return p
	}
	row, ok := e.src.ContactDetail(ctx, p.Key)
	if !ok {
		return p
	}
	detail, ok := crm.PersonFromRow(row)
	if !ok {
		return p
	}
	if p.Email == "" {
		p.Email = detail.Email
	}
	if p.Organization == "" {
		p.Organization = detail.Organization
	}
	if p.Name == "" || (!hasFullName(p.Name) && hasFullName(detail.Name)) {
		p.Name = firstNonEmpty(detail.Name, p.Name)
	}
	if p.Phone == "" && len(p.Phones) == 0 {
		p.Phone, p.Phones = detail.Phone, detail.Phones
	}
	if p.Fields == nil {
		p.Fields = detail.Fields
	}
	return p
}

func hasFullName(name string) bool {
	return len(strings.Fields(name)) > 1
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// linkedRecords fetches the linked records of every confirmed person
// concurrently, returned in person order.
func (e *Engine) linkedRecords(ctx context.Context, people []model.Person) ([][]crm.RawRow, error) {
	out := make([][]crm.RawRow, len(people))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range people {
		g.Go(func() error {
			out[i] = e.src.LinkedRecords(gctx, p.Key)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// enrich enriches recs in place, bounded by EnrichConcurrency.
func (e *Engine) enrich(ctx context.Context, recs []model.Record) error {
	if e.enricher == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.EnrichConcurrency)
	for i := range recs {
		g.Go(func() error {
			recs[i] = e.enricher.Enrich(gctx, recs[i])
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (e *Engine) match(p model.Person, rec *model.Record) model.MatchResult {
	m := model.MatchResult{
		Score:  model.ScorePerson,
		Person: p,
		Links:  model.MatchLinks{PersonLink: e.opts.Links.Person(p.Key)},
	}
	if rec != nil {
		m.Score = model.ScoreRecord
		m.Record = rec
		m.Links.RecordLink = e.opts.Links.Record(rec.Key)
	}
	return m
}
