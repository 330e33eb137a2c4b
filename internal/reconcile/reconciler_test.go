package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwallhq/pitwall-gateway/internal/payments"
)

type call struct {
	op  string
	ref string
}

type fakeMutator struct {
	calls   []call
	failRef string
	failErr error
}

func (f *fakeMutator) record(op, ref string) error {
	f.calls = append(f.calls, call{op: op, ref: ref})
	if ref == f.failRef {
		return f.failErr
	}
	return nil
}

func (f *fakeMutator) InstallPartOnActiveCar(ctx context.Context, partRef, carID string) error {
	return f.record("install", partRef)
}

func (f *fakeMutator) StorePartInWarehouse(ctx context.Context, partRef string) error {
	return f.record("store", partRef)
}

func (f *fakeMutator) ActivateCar(ctx context.Context, carID string) error {
	return f.record("activate", carID)
}

func newTestReconciler(t *testing.T, m Mutator) *Reconciler {
	t.Helper()
	r, err := New(m, nil, nil)
	require.NoError(t, err)
	return r
}

func TestReconcileInstallPart(t *testing.T) {
	mutator := &fakeMutator{}
	r := newTestReconciler(t, mutator)

	result := r.Reconcile(context.Background(), &payments.PaymentIntent{
		TransactionID: "tx_1",
		Context:       payments.InstallPart{PartRef: "part-1", TargetCarID: "car-1"},
	})

	assert.Equal(t, []call{{op: "install", ref: "part-1"}}, mutator.calls)
	assert.Equal(t, []string{"part-1"}, result.Succeeded)
	assert.Empty(t, result.Failed)
}

func TestReconcileStoreInWarehouse(t *testing.T) {
	mutator := &fakeMutator{}
	r := newTestReconciler(t, mutator)

	result := r.Reconcile(context.Background(), &payments.PaymentIntent{
		TransactionID: "tx_1",
		Context:       payments.StoreInWarehouse{PartRef: "part-2"},
	})

	assert.Equal(t, []call{{op: "store", ref: "part-2"}}, mutator.calls)
	assert.Equal(t, []string{"part-2"}, result.Succeeded)
}

func TestReconcileActivateCar(t *testing.T) {
	mutator := &fakeMutator{}
	r := newTestReconciler(t, mutator)

	result := r.Reconcile(context.Background(), &payments.PaymentIntent{
		TransactionID: "tx_1",
		Context:       payments.ActivateCar{CarID: "car-7"},
	})

	assert.Equal(t, []call{{op: "activate", ref: "car-7"}}, mutator.calls)
	assert.Equal(t, []string{"car-7"}, result.Succeeded)
}

func TestReconcileSplitCartContinuesPastFailure(t *testing.T) {
	mutator := &fakeMutator{failRef: "part-2", failErr: errors.New("out of stock")}
	r := newTestReconciler(t, mutator)

	result := r.Reconcile(context.Background(), &payments.PaymentIntent{
		TransactionID: "tx_1",
		Context: payments.SplitCart{Items: []payments.CartLine{
			{PartRef: "part-1", Destination: payments.DestinationWarehouse},
			{PartRef: "part-2", Destination: payments.DestinationActiveCar},
			{PartRef: "part-3", Destination: payments.DestinationWarehouse},
		}},
	})

	// Item 3 is processed even though item 2 failed, in order.
	assert.Equal(t, []call{
		{op: "store", ref: "part-1"},
		{op: "install", ref: "part-2"},
		{op: "store", ref: "part-3"},
	}, mutator.calls)
	assert.Equal(t, []string{"part-1", "part-3"}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "part-2", result.Failed[0].Ref)
	assert.ErrorContains(t, result.Failed[0].Err, "out of stock")
	assert.True(t, result.Partial())
	assert.False(t, result.AllFailed())
}

func TestReconcileSplitCartUnknownDestination(t *testing.T) {
	mutator := &fakeMutator{}
	r := newTestReconciler(t, mutator)

	result := r.Reconcile(context.Background(), &payments.PaymentIntent{
		TransactionID: "tx_1",
		Context: payments.SplitCart{Items: []payments.CartLine{
			{PartRef: "part-1", Destination: "attic"},
		}},
	})

	assert.Empty(t, mutator.calls)
	require.Len(t, result.Failed, 1)
	assert.True(t, result.AllFailed())
}

func TestReconcileNilContext(t *testing.T) {
	mutator := &fakeMutator{}
	r := newTestReconciler(t, mutator)

	result := r.Reconcile(context.Background(), &payments.PaymentIntent{TransactionID: "tx_1"})
	assert.Empty(t, mutator.calls)
	assert.Empty(t, result.Succeeded)
	assert.Empty(t, result.Failed)
}

func TestNewRequiresMutator(t *testing.T) {
	_, err := New(nil, nil, nil)
	require.Error(t, err)
}
