package shop

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/pitwallhq/pitwall-gateway/internal/payments"
	"github.com/pitwallhq/pitwall-gateway/internal/projector"
	"github.com/pitwallhq/pitwall-gateway/internal/reconcile"
	"github.com/pitwallhq/pitwall-gateway/pkg/config"
	pkgerrors "github.com/pitwallhq/pitwall-gateway/pkg/errors"
	"github.com/pitwallhq/pitwall-gateway/pkg/leagueapi"
	"github.com/pitwallhq/pitwall-gateway/pkg/logger"
	"github.com/pitwallhq/pitwall-gateway/pkg/metrics"
)

// League is the slice of the upstream client the checkout flow uses.
type League interface {
	CreateCharge(ctx context.Context, token string, req leagueapi.CreateChargeRequest) (*leagueapi.PixCharge, error)
	ChargeStatus(ctx context.Context, token, transactionID string) (*leagueapi.ChargeStatusResponse, error)
	ConfirmManual(ctx context.Context, token, transactionID string) error
	StorePartInWarehouse(ctx context.Context, token, partID string) error
	RequestInstallFromWarehouse(ctx context.Context, token, partID, carID string) error
	InstallPartsOnActiveCar(ctx context.Context, token string, partIDs []string) error
	ActivateCar(ctx context.Context, token, carID string) error
}

// Refresher re-primes the read-side views after a reconciliation.
type Refresher interface {
	Refresh(ctx context.Context, token, teamID string)
}

// Service owns the payment confirmation flow: it opens charges upstream,
// polls them, reconciles approved purchases and projects the state the UI
// renders. One flow per team may be live at a time; opening a new one
// supersedes (and cancels) the previous.
type Service struct {
	league    League
	store     *payments.TransactionStore
	refresher Refresher
	poll      config.PollConfig
	logg      *logger.Logger
	metrics   *metrics.PaymentMetrics

	mu       sync.Mutex
	sessions map[string]*session
}

type ServiceParams struct {
	League    League
	Store     *payments.TransactionStore
	Refresher Refresher
	Poll      config.PollConfig
	Logger    *logger.Logger
	Metrics   *metrics.PaymentMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.League == nil {
		return nil, errors.New("league client is required")
	}
	if params.Store == nil {
		return nil, errors.New("transaction store is required")
	}
	if params.Refresher == nil {
		return nil, errors.New("views refresher is required")
	}
	if params.Poll.Interval <= 0 || params.Poll.MaxAttempts <= 0 {
		return nil, errors.New("poll config is required")
	}
	return &Service{
		league:    params.League,
		store:     params.Store,
		refresher: params.Refresher,
		poll:      params.Poll,
		logg:      params.Logger,
		metrics:   params.Metrics,
		sessions:  make(map[string]*session),
	}, nil
}

// session is the per-team flow state. The snapshot outlives the intent so
// the UI can still read the final outcome after the slot was evicted.
type session struct {
	owner  Owner
	intent *payments.PaymentIntent
	events projector.Events
	snap   *projector.Snapshot
	handle *payments.Handle

	mu         sync.Mutex
	reconciled bool
}

// beginReconcile claims the single reconciliation attempt for this
// session. Both the poller terminal path and the manual confirmation path
// call it; only the winner proceeds.
func (ss *session) beginReconcile() bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.reconciled {
		return false
	}
	ss.reconciled = true
	return true
}

// StartCheckout opens a charge upstream and starts polling it. Any flow
// already live for the owner is cancelled before the new one registers.
func (s *Service) StartCheckout(ctx context.Context, owner Owner, input StartCheckoutInput) (*CheckoutStarted, error) {
	if owner.TeamID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "team is required")
	}
	purchaseCtx, err := input.purchaseContext()
	if err != nil {
		return nil, err
	}

	charge, err := s.league.CreateCharge(ctx, owner.Token, buildChargeRequest(input))
	if err != nil {
		return nil, err
	}

	intent := &payments.PaymentIntent{
		TransactionID: charge.TransactionID,
		Status:        payments.StatusPending,
		ItemName:      charge.ItemName,
		AmountItem:    charge.AmountItem,
		AmountFee:     charge.AmountFee,
		AmountTotal:   charge.AmountTotal,
		Context:       purchaseCtx,
	}

	snap := projector.NewSnapshot(charge.TransactionID, s.poll.MaxAttempts)
	flowCtx := context.Background()
	if s.logg != nil {
		flowCtx = s.logg.WithTeamID(flowCtx, owner.TeamID)
		flowCtx = s.logg.WithTransactionID(flowCtx, charge.TransactionID)
	}
	sess := &session{
		owner:  owner,
		intent: intent,
		snap:   snap,
		events: projector.WithLogging(flowCtx, s.logg, snap),
	}

	poller, err := payments.NewPoller(
		statusSource{league: s.league, token: owner.Token},
		s.poll.Interval,
		s.poll.MaxAttempts,
		s.logg,
		s.metrics,
	)
	if err != nil {
		return nil, err
	}

	handle, err := poller.Start(flowCtx, charge.TransactionID, payments.Hooks{
		OnUpdate: func(status payments.Status, attemptsLeft int) {
			sess.events.OnStatusChanged(status, attemptsLeft)
		},
		OnTerminal: func(outcome payments.Status) {
			s.onTerminal(flowCtx, sess, outcome)
		},
	})
	if err != nil {
		return nil, err
	}
	sess.handle = handle

	// Register supersedes the previous flow: its poller is cancelled
	// before the new slot takes effect.
	s.store.Register(owner.TeamID, intent, handle)
	s.mu.Lock()
	s.sessions[owner.TeamID] = sess
	s.mu.Unlock()

	return &CheckoutStarted{
		TransactionID:    charge.TransactionID,
		QRCodeURL:        charge.QRCodeURL,
		ItemName:         charge.ItemName,
		AmountItem:       charge.AmountItem,
		AmountFee:        charge.AmountFee,
		AmountTotal:      charge.AmountTotal,
		SecondsRemaining: s.poll.MaxAttempts,
	}, nil
}

func buildChargeRequest(input StartCheckoutInput) leagueapi.CreateChargeRequest {
	req := leagueapi.CreateChargeRequest{ItemName: input.ItemName}
	switch input.Kind {
	case KindInstallPart, KindStoreWarehouse:
		req.Kind = "peca"
		req.ItemID = input.PartID
		if input.CarID != "" {
			carID := input.CarID
			req.CarID = &carID
		}
	case KindActivateCar:
		req.Kind = "carro"
		req.ItemID = input.CarID
	case KindCart:
		req.Kind = "carrinho"
		req.ItemID = "carrinho_" + uuid.NewString()
	}
	return req
}

// onTerminal runs on the poller goroutine, after the originating HTTP
// request is long gone.
func (s *Service) onTerminal(ctx context.Context, sess *session, outcome payments.Status) {
	if outcome != payments.StatusApproved {
		sess.events.OnStatusChanged(outcome, 0)
		s.store.ClearIf(sess.owner.TeamID, sess.intent.TransactionID)
		return
	}
	if !sess.beginReconcile() {
		return
	}
	s.settleApproved(ctx, sess)
}

// settleApproved applies the purchase, evicts the intent and refreshes the
// read views. Partial failures are non-fatal: the flow still completes and
// the result carries the per-item outcome.
func (s *Service) settleApproved(ctx context.Context, sess *session) {
	sess.events.OnApprovedProcessing()

	reconciler, err := reconcile.New(mutator{league: s.league, token: sess.owner.Token}, s.logg, s.metrics)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "reconciler init failed", err)
		}
		return
	}
	result := reconciler.Reconcile(ctx, sess.intent)

	s.store.ClearIf(sess.owner.TeamID, sess.intent.TransactionID)
	s.refresher.Refresh(ctx, sess.owner.Token, sess.owner.TeamID)
	sess.events.OnReconciled(result)
}

// ConfirmManual drives the manual/test confirmation path. On success it
// behaves exactly like an approved poll; the poller is cancelled first so
// only one path reconciles.
func (s *Service) ConfirmManual(ctx context.Context, owner Owner) (*projector.State, error) {
	sess := s.session(owner.TeamID)
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active payment")
	}
	current := s.store.Current(owner.TeamID)
	if current == nil || current.TransactionID != sess.intent.TransactionID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active payment")
	}

	if err := s.league.ConfirmManual(ctx, owner.Token, sess.intent.TransactionID); err != nil {
		return nil, err
	}

	sess.handle.Cancel()
	if sess.beginReconcile() {
		s.settleApproved(ctx, sess)
	}
	state := sess.snap.State()
	return &state, nil
}

// CancelCheckout drops the active flow, e.g. when the payment modal is
// closed. Safe to call when nothing is active.
func (s *Service) CancelCheckout(ctx context.Context, owner Owner) {
	s.store.Clear(owner.TeamID)
}

// CurrentState returns the last-known snapshot for the owner's flow. The
// snapshot survives the intent so terminal outcomes stay readable.
func (s *Service) CurrentState(owner Owner) (*projector.State, error) {
	sess := s.session(owner.TeamID)
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment flow")
	}
	state := sess.snap.State()
	return &state, nil
}

func (s *Service) session(teamID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[teamID]
}

// statusSource binds the team token and the status normalization so the
// poller only sees normalized statuses.
type statusSource struct {
	league League
	token  string
}

func (src statusSource) ChargeStatus(ctx context.Context, transactionID string) (payments.Status, error) {
	resp, err := src.league.ChargeStatus(ctx, src.token, transactionID)
	if err != nil {
		return "", err
	}
	return payments.Normalize(resp), nil
}

// mutator binds the team token for reconciliation mutations.
type mutator struct {
	league League
	token  string
}

func (m mutator) InstallPartOnActiveCar(ctx context.Context, partRef, carID string) error {
	if carID != "" {
		return m.league.RequestInstallFromWarehouse(ctx, m.token, partRef, carID)
	}
	return m.league.InstallPartsOnActiveCar(ctx, m.token, []string{partRef})
}

func (m mutator) StorePartInWarehouse(ctx context.Context, partRef string) error {
	return m.league.StorePartInWarehouse(ctx, m.token, partRef)
}

func (m mutator) ActivateCar(ctx context.Context, carID string) error {
	return m.league.ActivateCar(ctx, m.token, carID)
}
