package enrich

import (
	"context"

	"github.com/sells-group/ringstreak/internal/model"
)

// Enricher fills the lazily resolved fields of a record.
type Enricher struct {
	stages *StageResolver
	email  *EmailPreviewer
}

// NewEnricher wires a stage resolver and an email previewer over src.
func NewEnricher(src Source, cache *StageCache, timelineLimit int) *Enricher {
	return &Enricher{
		stages: NewStageResolver(src, cache),
		email:  NewEmailPreviewer(src, timelineLimit),
	}
}

// Enrich resolves the stage of rec and then its last email. Failures leave
// the corresponding fields empty.
func (e *Enricher) Enrich(ctx context.Context, rec model.Record) model.Record {
	info := e.stages.Resolve(ctx, rec)
	rec.PipelineKey = info.PipelineKey
	rec.StageKey = info.StageKey
	rec.StageName = info.StageName

	if p, ok := e.email.Last(ctx, rec.Key); ok {
		rec.LastEmailPreview = p.Text
		rec.LastEmailSubject = p.Subject
		rec.LastEmailAt = p.At
	}
	return rec
}
