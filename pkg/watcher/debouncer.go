package watcher

import (
	"context"
	"time"

	"github.com/ritzau/migration-analyzer/pkg/logging"
)

// Debouncer coalesces rapid change batches into one re-analysis trigger.
// A quiet period postpones the flush while changes keep arriving; maxWait
// bounds how long a flush can be postponed in total.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a debouncer over the input channel
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 4),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins debouncing until ctx is cancelled
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		quiet       *time.Timer
		deadline    *time.Timer
		accumulated []string
	)

	flush := func() {
		if len(accumulated) == 0 {
			return
		}
		logging.Debug("flushing change batch", "paths", len(accumulated))
		d.output <- ChangeEvent{Paths: accumulated, Timestamp: time.Now()}
		accumulated = nil
		if quiet != nil {
			quiet.Stop()
		}
		if deadline != nil {
			deadline.Stop()
		}
	}

	timerC := func(t *time.Timer) <-chan time.Time {
		if t == nil {
			return nil
		}
		return t.C
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}
			accumulated = append(accumulated, event.Paths...)
			if quiet == nil {
				quiet = time.NewTimer(d.quietPeriod)
			} else {
				quiet.Reset(d.quietPeriod)
			}
			if deadline == nil {
				deadline = time.NewTimer(d.maxWait)
			}

		case <-timerC(quiet):
			flush()
			deadline = nil

		case <-timerC(deadline):
			flush()
			deadline = nil
		}
	}
}

// Output returns the channel of debounced change batches
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
