package leagueapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/pitwallhq/pitwall-gateway/pkg/errors"
)

// ErrChargeGone marks a status check whose transaction no longer exists
// upstream (deleted or superseded). It ends the poll session; it is not a
// retryable transport failure.
var ErrChargeGone = errors.New("pix charge no longer exists")

// PixCharge is the QR payload the league returns when a charge is created.
type PixCharge struct {
	Success       bool            `json:"sucesso"`
	Reason        string          `json:"erro,omitempty"`
	TransactionID string          `json:"transacao_id"`
	QRCodeURL     string          `json:"qr_code_url"`
	ItemName      string          `json:"item_nome"`
	AmountItem    decimal.Decimal `json:"valor_item"`
	AmountFee     decimal.Decimal `json:"taxa"`
	AmountTotal   decimal.Decimal `json:"valor_total"`
}

// CreateChargeRequest mirrors the league's charge creation payload.
type CreateChargeRequest struct {
	Kind         string           `json:"tipo"`
	ItemID       string           `json:"item_id"`
	CarID        *string          `json:"carro_id"`
	CustomAmount *decimal.Decimal `json:"valor_custom,omitempty"`
	ItemName     string           `json:"item_nome,omitempty"`
}

// ChargeStatusResponse carries every shape the league has been observed to
// answer a status check with. Normalization happens in one place on the
// gateway side, not here.
type ChargeStatusResponse struct {
	Status      string                `json:"status"`
	Paid        *bool                 `json:"pago,omitempty"`
	Transaction *NestedChargeStatus   `json:"transacao,omitempty"`
}

// NestedChargeStatus is the older response shape with the status one level down.
type NestedChargeStatus struct {
	Status string `json:"status"`
}

// CreateCharge asks the league to create a PIX charge and returns the QR payload.
func (c *Client) CreateCharge(ctx context.Context, token string, req CreateChargeRequest) (*PixCharge, error) {
	var charge PixCharge
	if err := c.post(ctx, token, "/api/gerar-qr-pix", req, &charge); err != nil {
		return nil, err
	}
	if !charge.Success {
		reason := charge.Reason
		if reason == "" {
			reason = "league refused to create the charge"
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, reason)
	}
	if charge.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "league returned a charge without a transaction id")
	}
	return &charge, nil
}

// ChargeStatus fetches the current status of a PIX transaction. A non-2xx
// answer means the transaction was cancelled or deleted upstream and maps
// to ErrChargeGone rather than a transport error.
func (c *Client) ChargeStatus(ctx context.Context, token, transactionID string) (*ChargeStatusResponse, error) {
	if transactionID == "" {
		return nil, errors.New("transaction id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/transacao-pix/"+transactionID, nil)
	if err != nil {
		return nil, fmt.Errorf("building status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "pix status check failed")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ErrChargeGone
	}

	var status ChargeStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decoding pix status response")
	}
	return &status, nil
}

// ConfirmManual drives the manual/test confirmation path. A successful
// result is functionally equivalent to an approved status poll.
func (c *Client) ConfirmManual(ctx context.Context, token, transactionID string) error {
	if transactionID == "" {
		return errors.New("transaction id is required")
	}
	return c.mutate(ctx, token, "/api/confirmar-pagamento-manual", map[string]string{
		"transacao_id": transactionID,
	})
}
