package shop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwallhq/pitwall-gateway/internal/payments"
	"github.com/pitwallhq/pitwall-gateway/internal/projector"
	"github.com/pitwallhq/pitwall-gateway/pkg/config"
	pkgerrors "github.com/pitwallhq/pitwall-gateway/pkg/errors"
	"github.com/pitwallhq/pitwall-gateway/pkg/leagueapi"
)

// fakeLeague scripts the upstream: charge creation, a status sequence per
// transaction and mutation accounting.
type fakeLeague struct {
	mu            sync.Mutex
	nextTxID      string
	statuses      []string
	statusCalls   int
	confirmErr    error
	installs      []string
	stored        []string
	activated     []string
	installsOnCar [][]string
	failStore     map[string]error
}

func (f *fakeLeague) CreateCharge(ctx context.Context, token string, req leagueapi.CreateChargeRequest) (*leagueapi.PixCharge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &leagueapi.PixCharge{
		Success:       true,
		TransactionID: f.nextTxID,
		QRCodeURL:     "https://pix.example/qr.png",
		ItemName:      "Turbo Kit",
	}, nil
}

func (f *fakeLeague) ChargeStatus(ctx context.Context, token, transactionID string) (*leagueapi.ChargeStatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.statusCalls
	f.statusCalls++
	if idx < len(f.statuses) {
		return &leagueapi.ChargeStatusResponse{Status: f.statuses[idx]}, nil
	}
	return &leagueapi.ChargeStatusResponse{Status: "pendente"}, nil
}

func (f *fakeLeague) ConfirmManual(ctx context.Context, token, transactionID string) error {
	return f.confirmErr
}

func (f *fakeLeague) StorePartInWarehouse(ctx context.Context, token, partID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failStore[partID]; ok {
		return err
	}
	f.stored = append(f.stored, partID)
	return nil
}

func (f *fakeLeague) RequestInstallFromWarehouse(ctx context.Context, token, partID, carID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installs = append(f.installs, partID+"@"+carID)
	return nil
}

func (f *fakeLeague) InstallPartsOnActiveCar(ctx context.Context, token string, partIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.installsOnCar = append(f.installsOnCar, partIDs)
	return nil
}

func (f *fakeLeague) ActivateCar(ctx context.Context, token, carID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activated = append(f.activated, carID)
	return nil
}

func (f *fakeLeague) storedParts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stored...)
}

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRefresher) Refresh(ctx context.Context, token, teamID string) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeRefresher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestService(t *testing.T, league *fakeLeague, refresher *fakeRefresher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		League:    league,
		Store:     payments.NewTransactionStore(),
		Refresher: refresher,
		Poll:      config.PollConfig{Interval: 2 * time.Millisecond, MaxAttempts: 120},
	})
	require.NoError(t, err)
	return svc
}

func waitForPhase(t *testing.T, svc *Service, owner Owner, phase projector.Phase) projector.State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if state, err := svc.CurrentState(owner); err == nil && state.Phase == phase {
			return *state
		}
		time.Sleep(time.Millisecond)
	}
	state, err := svc.CurrentState(owner)
	require.NoError(t, err)
	t.Fatalf("flow never reached phase %s, still at %s", phase, state.Phase)
	return projector.State{}
}

func TestCheckoutApprovedEndToEnd(t *testing.T) {
	league := &fakeLeague{nextTxID: "tx_1", statuses: []string{"pendente", "pendente", "aprovado"}}
	refresher := &fakeRefresher{}
	svc := newTestService(t, league, refresher)
	owner := Owner{TeamID: "team-1", Token: "tok"}

	started, err := svc.StartCheckout(context.Background(), owner, StartCheckoutInput{
		Kind:   KindStoreWarehouse,
		PartID: "part-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "tx_1", started.TransactionID)
	assert.Equal(t, 120, started.SecondsRemaining)
	require.NotNil(t, svc.store.Current("team-1"))

	state := waitForPhase(t, svc, owner, projector.PhaseCompleted)
	require.NotNil(t, state.Notice)
	assert.Equal(t, projector.NoticeSuccess, state.Notice.Level)

	// Exactly one reconciliation, one view refresh, slot evicted.
	assert.Equal(t, []string{"part-9"}, league.storedParts())
	assert.Equal(t, 1, refresher.count())
	assert.Nil(t, svc.store.Current("team-1"))
}

func TestCheckoutDeclinedKeepsResultReadable(t *testing.T) {
	league := &fakeLeague{nextTxID: "tx_1", statuses: []string{"pendente", "recusado"}}
	refresher := &fakeRefresher{}
	svc := newTestService(t, league, refresher)
	owner := Owner{TeamID: "team-1", Token: "tok"}

	_, err := svc.StartCheckout(context.Background(), owner, StartCheckoutInput{
		Kind:   KindStoreWarehouse,
		PartID: "part-9",
	})
	require.NoError(t, err)

	state := waitForPhase(t, svc, owner, projector.PhaseFailed)
	assert.Equal(t, payments.StatusDeclined, state.Status)
	require.NotNil(t, state.Notice)
	assert.Equal(t, projector.NoticeWarning, state.Notice.Level)

	// Nothing was applied, nothing refreshed, slot evicted.
	assert.Empty(t, league.storedParts())
	assert.Equal(t, 0, refresher.count())
	assert.Nil(t, svc.store.Current("team-1"))
}

func TestStartCheckoutSupersedesPreviousFlow(t *testing.T) {
	league := &fakeLeague{nextTxID: "tx_1"}
	refresher := &fakeRefresher{}
	svc := newTestService(t, league, refresher)
	owner := Owner{TeamID: "team-1", Token: "tok"}

	_, err := svc.StartCheckout(context.Background(), owner, StartCheckoutInput{
		Kind:   KindStoreWarehouse,
		PartID: "part-1",
	})
	require.NoError(t, err)

	league.mu.Lock()
	league.nextTxID = "tx_2"
	league.mu.Unlock()

	_, err = svc.StartCheckout(context.Background(), owner, StartCheckoutInput{
		Kind:   KindStoreWarehouse,
		PartID: "part-2",
	})
	require.NoError(t, err)

	current := svc.store.Current("team-1")
	require.NotNil(t, current)
	assert.Equal(t, "tx_2", current.TransactionID)

	state, err := svc.CurrentState(owner)
	require.NoError(t, err)
	assert.Equal(t, "tx_2", state.TransactionID)
}

func TestCheckoutSplitCartPartialFailure(t *testing.T) {
	league := &fakeLeague{
		nextTxID: "tx_1",
		statuses: []string{"aprovado"},
		failStore: map[string]error{
			"part-2": pkgerrors.New(pkgerrors.CodeConflict, "out of stock"),
		},
	}
	refresher := &fakeRefresher{}
	svc := newTestService(t, league, refresher)
	owner := Owner{TeamID: "team-1", Token: "tok"}

	_, err := svc.StartCheckout(context.Background(), owner, StartCheckoutInput{
		Kind: KindCart,
		Items: []CartLineInput{
			{PartID: "part-1", Destination: "warehouse"},
			{PartID: "part-2", Destination: "warehouse"},
			{PartID: "part-3", Destination: "warehouse"},
		},
	})
	require.NoError(t, err)

	state := waitForPhase(t, svc, owner, projector.PhaseCompleted)
	require.NotNil(t, state.Notice)
	assert.Equal(t, projector.NoticeWarning, state.Notice.Level, "partial failure warns, does not fail")
	require.NotNil(t, state.Result)
	assert.Equal(t, []string{"part-1", "part-3"}, state.Result.Succeeded)
	require.Len(t, state.Result.Failed, 1)
	assert.Equal(t, "part-2", state.Result.Failed[0].Ref)

	// The cart still completed and views refreshed: no re-payment.
	assert.Equal(t, 1, refresher.count())
}

func TestConfirmManualSettlesFlow(t *testing.T) {
	// Status stays pending; confirmation arrives through the manual path.
	league := &fakeLeague{nextTxID: "tx_1"}
	refresher := &fakeRefresher{}
	svc := newTestService(t, league, refresher)
	owner := Owner{TeamID: "team-1", Token: "tok"}

	_, err := svc.StartCheckout(context.Background(), owner, StartCheckoutInput{
		Kind:  KindActivateCar,
		CarID: "car-5",
	})
	require.NoError(t, err)

	state, err := svc.ConfirmManual(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, projector.PhaseCompleted, state.Phase)
	require.NotNil(t, state.Notice)
	assert.Equal(t, projector.NoticeSuccess, state.Notice.Level)

	league.mu.Lock()
	activated := append([]string(nil), league.activated...)
	league.mu.Unlock()
	assert.Equal(t, []string{"car-5"}, activated)
	assert.Equal(t, 1, refresher.count())
	assert.Nil(t, svc.store.Current("team-1"))

	// A second manual confirmation has nothing to confirm.
	_, err = svc.ConfirmManual(context.Background(), owner)
	require.Error(t, err)
}

func TestConfirmManualWithoutFlow(t *testing.T) {
	svc := newTestService(t, &fakeLeague{nextTxID: "tx_1"}, &fakeRefresher{})
	_, err := svc.ConfirmManual(context.Background(), Owner{TeamID: "team-1"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCancelCheckoutEvictsSlot(t *testing.T) {
	league := &fakeLeague{nextTxID: "tx_1"}
	svc := newTestService(t, league, &fakeRefresher{})
	owner := Owner{TeamID: "team-1", Token: "tok"}

	_, err := svc.StartCheckout(context.Background(), owner, StartCheckoutInput{
		Kind:   KindStoreWarehouse,
		PartID: "part-1",
	})
	require.NoError(t, err)

	svc.CancelCheckout(context.Background(), owner)
	assert.Nil(t, svc.store.Current("team-1"))

	// Idempotent.
	svc.CancelCheckout(context.Background(), owner)
}

func TestStartCheckoutValidation(t *testing.T) {
	svc := newTestService(t, &fakeLeague{nextTxID: "tx_1"}, &fakeRefresher{})
	owner := Owner{TeamID: "team-1", Token: "tok"}

	_, err := svc.StartCheckout(context.Background(), owner, StartCheckoutInput{Kind: KindInstallPart})
	require.Error(t, err)

	_, err = svc.StartCheckout(context.Background(), owner, StartCheckoutInput{Kind: KindCart})
	require.Error(t, err)

	_, err = svc.StartCheckout(context.Background(), owner, StartCheckoutInput{
		Kind:  KindCart,
		Items: []CartLineInput{{PartID: "p1", Destination: "attic"}},
	})
	require.Error(t, err)

	_, err = svc.StartCheckout(context.Background(), Owner{}, StartCheckoutInput{
		Kind:   KindStoreWarehouse,
		PartID: "p1",
	})
	require.Error(t, err)
}
