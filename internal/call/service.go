// Package call turns telephony call notifications into published lookups.
package call

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/ringstreak/internal/events"
	"github.com/sells-group/ringstreak/internal/model"
	"github.com/sells-group/ringstreak/internal/resolve"
)

// ErrDuplicate is returned for a call already handled within the cooldown.
var ErrDuplicate = eris.New("call: already handled within cooldown")

// DefaultCooldown suppresses repeat notifications for the same call.
const DefaultCooldown = 15 * time.Second

// Resolver looks up a phone number.
type Resolver interface {
	Resolve(ctx context.Context, raw string) (*model.LookupResponse, error)
}

// Request is one call notification.
type Request struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Direction string `json:"direction"`
	CallID    string `json:"callId"`
}

// Service resolves the remote party of a call and publishes the result.
// Each call id is handled at most once per cooldown; concurrent duplicates
// share the first one's result.
type Service struct {
	resolver Resolver
	pub      events.Publisher
	cooldown time.Duration

	mu    sync.Mutex
	seen  map[string]time.Time
	group singleflight.Group
	now   func() time.Time
}

// NewService creates a Service. A non-positive cooldown uses DefaultCooldown.
func NewService(resolver Resolver, pub events.Publisher, cooldown time.Duration) *Service {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Service{
		resolver: resolver,
		pub:      pub,
		cooldown: cooldown,
		seen:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// Target returns the number of the remote party: the caller for inbound
// calls, the callee for outbound ones.
func Target(dir model.Direction, from, to string) string {
	if dir == model.DirectionOutbound {
		return to
	}
	return from
}

// Handle resolves and publishes req. It returns ErrDuplicate when the call
// was already handled within the cooldown.
func (s *Service) Handle(ctx context.Context, req Request) (*model.CallEvent, error) {
	callID := strings.TrimSpace(req.CallID)
	if callID == "" {
		// Without an id there is nothing to dedupe on.
		req.CallID = uuid.NewString()
		return s.handle(ctx, req)
	}
	req.CallID = callID

	// Duplicates wait on the first request's work, which must not end when
	// that request's client goes away.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(callID, func() (any, error) {
		if !s.admit(callID) {
			return nil, ErrDuplicate
		}
		return s.handle(flightCtx, req)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.CallEvent), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) handle(ctx context.Context, req Request) (*model.CallEvent, error) {
	dir := model.ParseDirection(req.Direction)
	target := Target(dir, req.From, req.To)
	log := zap.L().With(
		zap.String("call_id", req.CallID),
		zap.String("direction", string(dir)),
	)

	resp, err := s.resolver.Resolve(ctx, target)
	if err != nil {
		return nil, eris.Wrapf(err, "call: resolve %s", req.CallID)
	}

	ev := resolve.BuildCallEvent(dir, req.From, req.To, req.CallID, resp)
	if err := s.pub.Publish(ctx, events.TypeCall, ev); err != nil {
		return nil, eris.Wrapf(err, "call: publish %s", req.CallID)
	}

	if ev.Top != nil {
		log.Info("call matched",
			zap.String("person_key", ev.Top.Person.Key),
			zap.Int("score", ev.Top.Score),
			zap.Int("others", len(ev.Others)),
		)
	} else {
		log.Info("call unmatched", zap.String("target", target))
	}
	return &ev, nil
}

// admit records callID and reports whether it is outside the cooldown.
func (s *Service) admit(callID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, at := range s.seen {
		if now.Sub(at) >= s.cooldown {
			delete(s.seen, id)
		}
	}
	if _, ok := s.seen[callID]; ok {
		return false
	}
	s.seen[callID] = now
	return true
}
