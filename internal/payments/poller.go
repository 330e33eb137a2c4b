package payments

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pitwallhq/pitwall-gateway/pkg/logger"
	"github.com/pitwallhq/pitwall-gateway/pkg/metrics"
)

// StatusSource answers one status check for a transaction. Implementations
// map transport failures and vanished transactions to an error; the poller
// treats any error as a terminal not_found condition rather than retrying,
// so a deleted transaction cannot keep a session alive forever.
type StatusSource interface {
	ChargeStatus(ctx context.Context, transactionID string) (Status, error)
}

// Hooks receive poll session events. OnUpdate fires on every successful
// non-terminal check with the attempts left before timeout; OnTerminal
// fires exactly once. Neither fires after Cancel, even when a response was
// already in flight when the session was cancelled.
type Hooks struct {
	OnUpdate   func(status Status, attemptsLeft int)
	OnTerminal func(outcome Status)
}

// Poller runs one status check per interval tick against a StatusSource.
// Ticks are strictly sequential: the next check is not issued until the
// previous response has been processed.
type Poller struct {
	source      StatusSource
	interval    time.Duration
	maxAttempts int
	logg        *logger.Logger
	metrics     *metrics.PaymentMetrics
}

func NewPoller(source StatusSource, interval time.Duration, maxAttempts int, logg *logger.Logger, m *metrics.PaymentMetrics) (*Poller, error) {
	if source == nil {
		return nil, errors.New("status source is required")
	}
	if interval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	if maxAttempts <= 0 {
		return nil, errors.New("poll max attempts must be positive")
	}
	return &Poller{
		source:      source,
		interval:    interval,
		maxAttempts: maxAttempts,
		logg:        logg,
		metrics:     m,
	}, nil
}

// Handle controls one live poll session.
type Handle struct {
	stop context.CancelFunc

	mu   sync.Mutex
	done bool
}

// Cancel ends the session. Idempotent. After it returns no new callback is
// started; a response already being delivered wins the race and counts as
// having fired before the cancel.
func (h *Handle) Cancel() {
	h.mu.Lock()
	h.done = true
	h.mu.Unlock()
	h.stop()
}

// close marks the session finished and reports whether this caller won,
// i.e. whether it may deliver the terminal callback.
func (h *Handle) close() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return false
	}
	h.done = true
	return true
}

func (h *Handle) active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.done
}

// Start begins polling the transaction. The returned handle must be
// cancelled by the caller unless a terminal callback has fired.
func (p *Poller) Start(ctx context.Context, transactionID string, hooks Hooks) (*Handle, error) {
	if transactionID == "" {
		return nil, errors.New("transaction id is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	handle := &Handle{stop: cancel}
	go p.run(ctx, transactionID, hooks, handle)
	return handle, nil
}

func (p *Poller) run(ctx context.Context, transactionID string, hooks Hooks, handle *Handle) {
	started := time.Now()
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	lctx := ctx
	if p.logg != nil {
		lctx = p.logg.WithTransactionID(ctx, transactionID)
		p.logg.Debug(lctx, "poll.session.start")
	}

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if attempt > p.maxAttempts {
			p.finish(lctx, handle, hooks, StatusTimeout, started)
			return
		}

		status, err := p.source.ChargeStatus(ctx, transactionID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if p.logg != nil {
				p.logg.Warn(p.logg.WithField(lctx, "error", err.Error()), "poll.transaction.gone")
			}
			p.finish(lctx, handle, hooks, StatusNotFound, started)
			return
		}

		p.metrics.IncPollTick(string(status))

		if status.IsTerminal() {
			p.finish(lctx, handle, hooks, status, started)
			return
		}

		if handle.active() && hooks.OnUpdate != nil {
			hooks.OnUpdate(status, p.maxAttempts-attempt)
		}

		timer.Reset(p.interval)
	}
}

func (p *Poller) finish(ctx context.Context, handle *Handle, hooks Hooks, outcome Status, started time.Time) {
	if !handle.close() {
		return
	}
	p.metrics.IncPollTerminal(string(outcome))
	p.metrics.ObservePollDuration(string(outcome), time.Since(started))
	if p.logg != nil {
		p.logg.Info(p.logg.WithField(ctx, "outcome", string(outcome)), "poll.session.end")
	}
	if hooks.OnTerminal != nil {
		hooks.OnTerminal(outcome)
	}
}
