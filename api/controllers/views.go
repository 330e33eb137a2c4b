package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pitwallhq/pitwall-gateway/api/middleware"
	"github.com/pitwallhq/pitwall-gateway/api/responses"
	pkgerrors "github.com/pitwallhq/pitwall-gateway/pkg/errors"
	"github.com/pitwallhq/pitwall-gateway/pkg/logger"
)

// ViewReader serves cached league view documents for one team.
type ViewReader interface {
	Garage(ctx context.Context, token, teamID string) (json.RawMessage, error)
	Warehouse(ctx context.Context, token, teamID string) (json.RawMessage, error)
	Team(ctx context.Context, token, teamID string) (json.RawMessage, error)
	History(ctx context.Context, token, teamID string) (json.RawMessage, error)
}

type viewFetch func(views ViewReader, ctx context.Context, token, teamID string) (json.RawMessage, error)

func view(views ViewReader, logg *logger.Logger, fetch viewFetch) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if views == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "view cache unavailable"))
			return
		}

		teamID := middleware.TeamIDFromContext(r.Context())
		if teamID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "team context missing"))
			return
		}

		doc, err := fetch(views, r.Context(), middleware.TokenFromContext(r.Context()), teamID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, doc)
	}
}

func GarageView(views ViewReader, logg *logger.Logger) http.HandlerFunc {
	return view(views, logg, ViewReader.Garage)
}

func WarehouseView(views ViewReader, logg *logger.Logger) http.HandlerFunc {
	return view(views, logg, ViewReader.Warehouse)
}

func TeamView(views ViewReader, logg *logger.Logger) http.HandlerFunc {
	return view(views, logg, ViewReader.Team)
}

func HistoryView(views ViewReader, logg *logger.Logger) http.HandlerFunc {
	return view(views, logg, ViewReader.History)
}
