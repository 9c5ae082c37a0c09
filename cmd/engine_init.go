package main

import (
	"time"

	"github.com/sells-group/ringstreak/internal/config"
	"github.com/sells-group/ringstreak/internal/crm"
	"github.com/sells-group/ringstreak/internal/enrich"
	"github.com/sells-group/ringstreak/internal/resilience"
	"github.com/sells-group/ringstreak/internal/resolve"
	"github.com/sells-group/ringstreak/pkg/streak"
)

// engineEnv holds the initialized Streak client, gateway and engine needed
// by the lookup and serve commands.
type engineEnv struct {
	Gateway *crm.Gateway
	Stages  *enrich.StageCache
	Engine  *resolve.Engine
}

// Health reports the Streak circuit breaker states.
func (e *engineEnv) Health() map[string]string {
	states := e.Gateway.BreakerStates()
	out := make(map[string]string, len(states))
	for name, s := range states {
		out[name] = s.String()
	}
	return out
}

// initEngine builds the resolution engine from c. mode is the command mode
// the configuration is validated for.
func initEngine(c *config.Config, mode string) (*engineEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	retry := resilience.RetryFromConfig(c.Streak.MaxAttempts)
	retry.OnRetry = resilience.RetryLogger("streak", "get")

	client := streak.NewClient(c.Streak.APIKey,
		streak.WithBaseURL(c.Streak.BaseURL),
		streak.WithTimeout(time.Duration(c.Streak.TimeoutSecs)*time.Second),
		streak.WithRateLimit(c.Streak.RateLimit),
		streak.WithRetry(retry),
	)

	gw := crm.NewGateway(client, resilience.BreakerFromConfig(c.Streak.BreakerThreshold, c.Streak.BreakerResetSecs))
	stages := enrich.NewStageCache()
	enricher := enrich.NewEnricher(gw, stages, c.Lookup.TimelineLimit)

	engine := resolve.NewEngine(gw, enricher, resolve.Options{
		MaxMatches:          c.Lookup.MaxMatches,
		EnrichConcurrency:   c.Lookup.EnrichConcurrency,
		SkipFreeMailDomains: c.Lookup.SkipFreeMailDomains,
		Links:               crm.Links{AppURL: c.Streak.AppURL},
	})

	return &engineEnv{Gateway: gw, Stages: stages, Engine: engine}, nil
}
