package projector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pitwallhq/pitwall-gateway/internal/payments"
	"github.com/pitwallhq/pitwall-gateway/internal/reconcile"
	"github.com/pitwallhq/pitwall-gateway/pkg/logger"
)

// Events is the contract between the payment flow and whatever renders it.
// The host UI only ever needs these three signals.
type Events interface {
	OnStatusChanged(status payments.Status, secondsRemaining int)
	OnApprovedProcessing()
	OnReconciled(result reconcile.Result)
}

// Phase is the coarse flow position the UI renders around the status.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseProcessing Phase = "processing"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

// NoticeLevel grades the single user notification a terminal event produces.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is the one user-visible notification for a terminal event.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// State is the renderable snapshot of one checkout flow.
type State struct {
	TransactionID    string            `json:"transaction_id"`
	Status           payments.Status   `json:"status"`
	Phase            Phase             `json:"phase"`
	SecondsRemaining int               `json:"seconds_remaining"`
	Notice           *Notice           `json:"notice,omitempty"`
	Result           *reconcile.Result `json:"result,omitempty"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Snapshot is a thread-safe Events sink holding the last-known state for
// one checkout flow. The HTTP surface serves it as-is; the poller's
// exactly-once terminal delivery guarantees at most one notice per flow.
type Snapshot struct {
	mu    sync.Mutex
	state State
}

func NewSnapshot(transactionID string, secondsRemaining int) *Snapshot {
	return &Snapshot{state: State{
		TransactionID:    transactionID,
		Status:           payments.StatusPending,
		Phase:            PhaseWaiting,
		SecondsRemaining: secondsRemaining,
		UpdatedAt:        time.Now(),
	}}
}

func (s *Snapshot) OnStatusChanged(status payments.Status, secondsRemaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = status
	s.state.SecondsRemaining = secondsRemaining
	s.state.UpdatedAt = time.Now()
	if !status.IsTerminal() {
		s.state.Phase = PhaseWaiting
		return
	}
	s.state.Phase = PhaseFailed
	s.state.Notice = terminalNotice(status)
}

func (s *Snapshot) OnApprovedProcessing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = payments.StatusApproved
	s.state.Phase = PhaseProcessing
	s.state.SecondsRemaining = 0
	s.state.UpdatedAt = time.Now()
}

func (s *Snapshot) OnReconciled(result reconcile.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Phase = PhaseCompleted
	s.state.Result = &result
	s.state.UpdatedAt = time.Now()
	switch {
	case result.AllFailed():
		s.state.Notice = &Notice{
			Level:   NoticeError,
			Message: "payment confirmed but the purchase could not be applied",
		}
	case result.Partial():
		s.state.Notice = &Notice{
			Level: NoticeWarning,
			Message: fmt.Sprintf("purchase applied partially: %d item(s) ok, %d failed",
				len(result.Succeeded), len(result.Failed)),
		}
	default:
		s.state.Notice = &Notice{Level: NoticeSuccess, Message: "purchase completed"}
	}
}

// State returns a copy of the current snapshot.
func (s *Snapshot) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func terminalNotice(status payments.Status) *Notice {
	switch status {
	case payments.StatusDeclined, payments.StatusCancelled, payments.StatusExpired:
		return &Notice{Level: NoticeWarning, Message: "payment not completed, try again"}
	case payments.StatusTimeout:
		return &Notice{Level: NoticeError, Message: "payment confirmation timed out, close and try again"}
	case payments.StatusNotFound:
		return &Notice{Level: NoticeWarning, Message: "payment session ended"}
	}
	return nil
}

// Logging wraps an Events sink and traces every transition.
type Logging struct {
	next Events
	logg *logger.Logger
	ctx  context.Context
}

func WithLogging(ctx context.Context, logg *logger.Logger, next Events) Events {
	if logg == nil {
		return next
	}
	return &Logging{next: next, logg: logg, ctx: ctx}
}

func (l *Logging) OnStatusChanged(status payments.Status, secondsRemaining int) {
	lctx := l.logg.WithFields(l.ctx, map[string]any{
		"status":            string(status),
		"seconds_remaining": secondsRemaining,
	})
	l.logg.Debug(lctx, "payment.status.changed")
	if l.next != nil {
		l.next.OnStatusChanged(status, secondsRemaining)
	}
}

func (l *Logging) OnApprovedProcessing() {
	l.logg.Info(l.ctx, "payment.approved.processing")
	if l.next != nil {
		l.next.OnApprovedProcessing()
	}
}

func (l *Logging) OnReconciled(result reconcile.Result) {
	lctx := l.logg.WithFields(l.ctx, map[string]any{
		"applied": len(result.Succeeded),
		"failed":  len(result.Failed),
	})
	l.logg.Info(lctx, "payment.reconciled")
	if l.next != nil {
		l.next.OnReconciled(result)
	}
}
