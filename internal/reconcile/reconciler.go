package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pitwallhq/pitwall-gateway/internal/payments"
	"github.com/pitwallhq/pitwall-gateway/pkg/logger"
	"github.com/pitwallhq/pitwall-gateway/pkg/metrics"
)

// Mutator applies the business effect of an approved purchase upstream.
// Implementations bind the team's token; the reconciler never sees it.
type Mutator interface {
	InstallPartOnActiveCar(ctx context.Context, partRef, carID string) error
	StorePartInWarehouse(ctx context.Context, partRef string) error
	ActivateCar(ctx context.Context, carID string) error
}

// ItemFailure is one sub-item that could not be applied after approval.
type ItemFailure struct {
	Ref string
	Err error
}

// MarshalJSON flattens the wrapped error so the UI sees a plain reason.
func (f ItemFailure) MarshalJSON() ([]byte, error) {
	reason := ""
	if f.Err != nil {
		reason = f.Err.Error()
	}
	return json.Marshal(struct {
		Ref    string `json:"ref"`
		Reason string `json:"reason"`
	}{Ref: f.Ref, Reason: reason})
}

// Result aggregates a reconciliation run. Failures are collected, never
// thrown: one bad item must not abort the rest of the batch, and the user
// is never asked to pay again for a partially applied purchase.
type Result struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []ItemFailure `json:"failed,omitempty"`
}

// Partial reports whether some but not all items applied.
func (r Result) Partial() bool {
	return len(r.Failed) > 0 && len(r.Succeeded) > 0
}

// AllFailed reports whether nothing could be applied.
func (r Result) AllFailed() bool {
	return len(r.Failed) > 0 && len(r.Succeeded) == 0
}

func (r Result) String() string {
	return fmt.Sprintf("%d applied, %d failed", len(r.Succeeded), len(r.Failed))
}

// Reconciler executes the mutations implied by an approved intent's
// purchase context. Exactly one reconciliation attempt is made per
// approved intent; failed sub-items are surfaced, not retried.
type Reconciler struct {
	mutator Mutator
	logg    *logger.Logger
	metrics *metrics.PaymentMetrics
}

func New(mutator Mutator, logg *logger.Logger, m *metrics.PaymentMetrics) (*Reconciler, error) {
	if mutator == nil {
		return nil, errors.New("mutator is required")
	}
	return &Reconciler{mutator: mutator, logg: logg, metrics: m}, nil
}

// Reconcile dispatches on the intent's purchase context. Multi-item carts
// are processed sequentially so the upstream is never flooded and the
// per-item outcome order stays deterministic.
func (r *Reconciler) Reconcile(ctx context.Context, intent *payments.PaymentIntent) Result {
	if intent == nil || intent.Context == nil {
		if r.logg != nil {
			r.logg.Warn(ctx, "reconcile.no.purchase.context")
		}
		return Result{}
	}

	var result Result
	switch pc := intent.Context.(type) {
	case payments.InstallPart:
		r.apply(ctx, &result, pc.PartRef, func() error {
			return r.mutator.InstallPartOnActiveCar(ctx, pc.PartRef, pc.TargetCarID)
		})
	case payments.StoreInWarehouse:
		r.apply(ctx, &result, pc.PartRef, func() error {
			return r.mutator.StorePartInWarehouse(ctx, pc.PartRef)
		})
	case payments.ActivateCar:
		r.apply(ctx, &result, pc.CarID, func() error {
			return r.mutator.ActivateCar(ctx, pc.CarID)
		})
	case payments.SplitCart:
		for _, line := range pc.Items {
			line := line
			switch line.Destination {
			case payments.DestinationWarehouse:
				r.apply(ctx, &result, line.PartRef, func() error {
					return r.mutator.StorePartInWarehouse(ctx, line.PartRef)
				})
			case payments.DestinationActiveCar:
				r.apply(ctx, &result, line.PartRef, func() error {
					return r.mutator.InstallPartOnActiveCar(ctx, line.PartRef, "")
				})
			default:
				result.Failed = append(result.Failed, ItemFailure{
					Ref: line.PartRef,
					Err: fmt.Errorf("unknown destination %q", line.Destination),
				})
				r.metrics.IncReconcileItem("failure")
			}
		}
	default:
		if r.logg != nil {
			r.logg.Warn(ctx, "reconcile.unknown.purchase.context")
		}
	}

	if r.logg != nil {
		lctx := r.logg.WithFields(ctx, map[string]any{
			"transaction_id": intent.TransactionID,
			"applied":        len(result.Succeeded),
			"failed":         len(result.Failed),
		})
		if len(result.Failed) > 0 {
			r.logg.Warn(lctx, "reconcile.partial")
		} else {
			r.logg.Info(lctx, "reconcile.complete")
		}
	}
	return result
}

func (r *Reconciler) apply(ctx context.Context, result *Result, ref string, fn func() error) {
	if err := fn(); err != nil {
		result.Failed = append(result.Failed, ItemFailure{Ref: ref, Err: err})
		r.metrics.IncReconcileItem("failure")
		if r.logg != nil {
			r.logg.Warn(r.logg.WithFields(ctx, map[string]any{"item": ref, "error": err.Error()}), "reconcile.item.failed")
		}
		return
	}
	result.Succeeded = append(result.Succeeded, ref)
	r.metrics.IncReconcileItem("success")
}
