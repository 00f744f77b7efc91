// Package schedule runs registered tests on recurring intervals.
package schedule

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Handle stops a single scheduled entry. Stop is idempotent.
type Handle interface {
	Stop()
}

// Scheduler fires callback on the recurring schedule described by expr.
type Scheduler interface {
	Schedule(expr, timezone string, callback func()) (Handle, error)
}

// IntervalScheduler schedules callbacks at fixed intervals. Expressions
// are "@every <duration>" or a bare Go duration such as "90s".
type IntervalScheduler struct{}

var _ Scheduler = (*IntervalScheduler)(nil)

func NewIntervalScheduler() *IntervalScheduler {
	return &IntervalScheduler{}
}

// ParseInterval extracts the interval from a schedule expression.
func ParseInterval(expr string) (time.Duration, error) {
	s := strings.TrimSpace(expr)
	if strings.HasPrefix(s, "@every ") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "@every "))
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parsing schedule %q: %w", expr, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("schedule interval must be positive, got %v", d)
	}
	return d, nil
}

func (s *IntervalScheduler) Schedule(expr, timezone string, callback func()) (Handle, error) {
	interval, err := ParseInterval(expr)
	if err != nil {
		return nil, err
	}
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return nil, fmt.Errorf("loading timezone %q: %w", timezone, err)
		}
	}

	e := &entry{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-e.ticker.C:
				callback()
			case <-e.done:
				return
			}
		}
	}()

	slog.Info("Scheduled recurring run", "every", interval.String())
	return e, nil
}

type entry struct {
	ticker *time.Ticker
	done   chan struct{}
	stop   sync.Once
}

func (e *entry) Stop() {
	e.stop.Do(func() {
		e.ticker.Stop()
		close(e.done)
	})
}
