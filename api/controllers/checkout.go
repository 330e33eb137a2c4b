package controllers

import (
	"context"
	"net/http"

	"github.com/pitwallhq/pitwall-gateway/api/middleware"
	"github.com/pitwallhq/pitwall-gateway/api/responses"
	"github.com/pitwallhq/pitwall-gateway/api/validators"
	"github.com/pitwallhq/pitwall-gateway/internal/projector"
	shopsvc "github.com/pitwallhq/pitwall-gateway/internal/shop"
	pkgerrors "github.com/pitwallhq/pitwall-gateway/pkg/errors"
	"github.com/pitwallhq/pitwall-gateway/pkg/logger"
)

// CheckoutService is the payment flow surface the HTTP layer drives.
type CheckoutService interface {
	StartCheckout(ctx context.Context, owner shopsvc.Owner, input shopsvc.StartCheckoutInput) (*shopsvc.CheckoutStarted, error)
	ConfirmManual(ctx context.Context, owner shopsvc.Owner) (*projector.State, error)
	CancelCheckout(ctx context.Context, owner shopsvc.Owner)
	CurrentState(owner shopsvc.Owner) (*projector.State, error)
}

func ownerFromContext(ctx context.Context) (shopsvc.Owner, error) {
	teamID := middleware.TeamIDFromContext(ctx)
	if teamID == "" {
		return shopsvc.Owner{}, pkgerrors.New(pkgerrors.CodeForbidden, "team context missing")
	}
	return shopsvc.Owner{TeamID: teamID, Token: middleware.TokenFromContext(ctx)}, nil
}

// CheckoutStart opens a new PIX payment flow for the caller's team.
func CheckoutStart(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		owner, err := ownerFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload shopsvc.StartCheckoutInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		started, err := svc.StartCheckout(r.Context(), owner, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, started)
	}
}

// CheckoutCurrent returns the last-known state of the team's active flow.
func CheckoutCurrent(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		owner, err := ownerFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.CurrentState(owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// CheckoutConfirmManual asks the league to settle the pending charge by hand
// and reconciles immediately on success.
func CheckoutConfirmManual(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		owner, err := ownerFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.ConfirmManual(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// CheckoutCancel abandons the team's active flow. Cancelling when no flow is
// open is a no-op.
func CheckoutCancel(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		owner, err := ownerFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		svc.CancelCheckout(r.Context(), owner)
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}
