/*
Package sweep runs the periodic maintenance pass.

One pass marks stale pending help requests as unresolved (timed out) and
evicts idle conversation sessions. The sweeper runs the pass on a cron
schedule; the CLI can also run a single pass on demand.
*/
package sweep

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/frontdesk-ai/reception-hub/internal/convo"
	"github.com/frontdesk-ai/reception-hub/internal/storage"
)

// Result summarizes one maintenance pass.
type Result struct {
	TimedOut        int `json:"timedOut"`
	EvictedSessions int `json:"evictedSessions"`
}

// Sweeper owns the periodic maintenance schedule.
type Sweeper struct {
	store         storage.Store
	conversations *convo.Manager
	timeout       time.Duration

	stop chan struct{}
}

// New creates a sweeper. timeout is the age past which a pending help
// request counts as timed out; conversations may be nil when there is no
// live session state to evict (the one-shot CLI path).
func New(store storage.Store, conversations *convo.Manager, timeout time.Duration) *Sweeper {
	return &Sweeper{
		store:         store,
		conversations: conversations,
		timeout:       timeout,
		stop:          make(chan struct{}),
	}
}

// RunOnce executes a single maintenance pass.
func (s *Sweeper) RunOnce() (Result, error) {
	var result Result

	timedOut, err := s.store.MarkTimedOut(s.timeout)
	if err != nil {
		return result, fmt.Errorf("failed to time out stale help requests: %w", err)
	}
	result.TimedOut = timedOut

	if s.conversations != nil {
		result.EvictedSessions = s.conversations.EvictIdle()
	}

	return result, nil
}

// Start runs passes on a standard 5-field cron expression
// (minute hour day-of-month month day-of-week), e.g. "*/10 * * * *" for
// every ten minutes. An empty schedule disables the sweeper; an invalid one
// disables it with a logged warning rather than failing startup.
func (s *Sweeper) Start(schedule string) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		log.Println("Sweep disabled (no schedule set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Warning: invalid sweep schedule '%s': %v — sweep disabled", schedule, err)
		return
	}

	log.Printf("Sweep scheduled (cron: %s, timeout: %s)", schedule, s.timeout)

	go func() {
		for {
			now := time.Now()
			wait := sched.Next(now).Sub(now)

			select {
			case <-s.stop:
				return
			case <-time.After(wait):
			}

			result, err := s.RunOnce()
			if err != nil {
				log.Printf("Warning: sweep pass failed: %v", err)
				continue
			}
			if result.TimedOut > 0 || result.EvictedSessions > 0 {
				log.Printf("Sweep complete: %d requests timed out, %d idle sessions evicted",
					result.TimedOut, result.EvictedSessions)
			}
		}
	}()
}

// Stop halts the schedule. Safe to call when Start never ran.
func (s *Sweeper) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}
