// Package enrich attaches stage names and last-email previews to records.
package enrich

import (
	"context"
	"maps"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/ringstreak/internal/crm"
	"github.com/sells-group/ringstreak/internal/model"
)

// Source is the part of the CRM gateway enrichment reads from.
type Source interface {
	StageList(ctx context.Context, pipelineKey string) (map[string]string, bool)
	RecordDetail(ctx context.Context, recordKey string) (crm.RawRow, bool)
	Timeline(ctx context.Context, recordKey string, limit int) []crm.RawRow
	LegacyThreads(ctx context.Context, recordKey string) []crm.RawRow
}

// StageCache maps pipelineKey → stageKey → stage name for the life of the
// process. Entries are never invalidated; a pipeline whose stages could not
// be fetched is cached as an empty map.
type StageCache struct {
	mu        sync.RWMutex
	pipelines map[string]map[string]string
}

// NewStageCache creates an empty cache.
func NewStageCache() *StageCache {
	return &StageCache{pipelines: make(map[string]map[string]string)}
}

// Get returns the cached stages of a pipeline.
func (c *StageCache) Get(pipelineKey string) (map[string]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stages, ok := c.pipelines[pipelineKey]
	return stages, ok
}

// Put stores a copy of stages. Storing the same pipeline twice keeps the
// latest map.
func (c *StageCache) Put(pipelineKey string, stages map[string]string) {
	cp := make(map[string]string, len(stages))
	maps.Copy(cp, stages)

	c.mu.Lock()
	c.pipelines[pipelineKey] = cp
	c.mu.Unlock()
}

// Len returns the number of cached pipelines.
func (c *StageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pipelines)
}

// StageInfo is the resolved stage placement of a record.
type StageInfo struct {
	PipelineKey string
	StageKey    string
	StageName   string
}

// StageResolver resolves stage names through a StageCache, collapsing
// concurrent fetches of the same pipeline.
type StageResolver struct {
	src   Source
	cache *StageCache
	group singleflight.Group
}

// NewStageResolver creates a resolver backed by cache.
func NewStageResolver(src Source, cache *StageCache) *StageResolver {
	if cache == nil {
		cache = NewStageCache()
	}
	return &StageResolver{src: src, cache: cache}
}

// Resolve returns the stage placement of rec, fetching the record detail
// first when its pipeline or stage key is missing.
func (r *StageResolver) Resolve(ctx context.Context, rec model.Record) StageInfo {
	info := StageInfo{PipelineKey: rec.PipelineKey, StageKey: rec.StageKey, StageName: rec.StageName}

	if info.PipelineKey == "" || info.StageKey == "" {
		if row, ok := r.src.RecordDetail(ctx, rec.Key); ok {
			if detail, ok := crm.RecordFromRow(row); ok {
				info.PipelineKey = firstNonEmpty(info.PipelineKey, detail.PipelineKey)
				info.StageKey = firstNonEmpty(info.StageKey, detail.StageKey)
				info.StageName = firstNonEmpty(info.StageName, detail.StageName)
			}
		}
	}
	if info.StageName != "" || info.PipelineKey == "" || info.StageKey == "" {
		return info
	}

	info.StageName = r.stages(ctx, info.PipelineKey)[info.StageKey]
	return info
}

func (r *StageResolver) stages(ctx context.Context, pipelineKey string) map[string]string {
	if stages, ok := r.cache.Get(pipelineKey); ok {
		return stages
	}

	if ctx.Err() != nil {
		return nil
	}

	// The shared fetch outlives any one caller so that a cancelled lookup
	// cannot starve the others waiting on the same pipeline.
	fetchCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(pipelineKey, func() (any, error) {
		if stages, ok := r.cache.Get(pipelineKey); ok {
			return stages, nil
		}
		stages, ok := r.src.StageList(fetchCtx, pipelineKey)
		if !ok {
			zap.L().Debug("enrich: caching empty stage list", zap.String("pipeline_key", pipelineKey))
		}
		r.cache.Put(pipelineKey, stages)
		return stages, nil
	})

	select {
	case res := <-ch:
		stages, _ := res.Val.(map[string]string)
		return stages
	case <-ctx.Done():
		return nil
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
