package engine

import (
	"context"
	"time"

	"github.com/velist/gametest/internal/events"
	"github.com/velist/gametest/internal/narrative"
)

// Resolve fulfils the requests of fx synchronously, feeding each completion
// back into the session, until no request is left. It returns every event the
// chain produced. Used by headless runs and tests.
func Resolve(ctx context.Context, s *Session, p narrative.Provider, fx Effects, now time.Time) []events.GameEvent {
	out := append([]events.GameEvent(nil), fx.Events...)
	queue := append([]Request(nil), fx.Requests...)
	for len(queue) > 0 {
		req := queue[0]
		queue = queue[1:]
		next, ok := s.Complete(Fulfil(ctx, p, req), now)
		if !ok {
			continue
		}
		out = append(out, next.Events...)
		queue = append(queue, next.Requests...)
	}
	return out
}
