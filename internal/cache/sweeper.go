package cache

import (
	"log"
	"time"

	"github.com/gorhill/cronexpr"
)

// Sweeper periodically reclaims expired entries from a Memory store on a
// cron schedule. Lazy expiry keeps reads correct without it; the sweep only
// bounds memory growth.
type Sweeper struct {
	store  *Memory
	expr   *cronexpr.Expression
	logger *log.Logger
	stop   chan struct{}
}

// NewSweeper parses the cron schedule and prepares a sweeper.
func NewSweeper(store *Memory, schedule string) (*Sweeper, error) {
	expr, err := cronexpr.Parse(schedule)
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		store:  store,
		expr:   expr,
		logger: log.New(log.Writer(), "[SWEEP] ", log.LstdFlags),
		stop:   make(chan struct{}),
	}, nil
}

// Start runs the sweep loop until Stop is called.
func (s *Sweeper) Start() {
	go func() {
		for {
			next := s.expr.Next(time.Now())
			if next.IsZero() {
				return
			}
			select {
			case <-time.After(time.Until(next)):
				if removed := s.store.Sweep(); removed > 0 {
					s.logger.Printf("reclaimed %d expired cache entries", removed)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweep loop.
func (s *Sweeper) Stop() { close(s.stop) }
