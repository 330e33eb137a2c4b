package shop

import (
	"github.com/shopspring/decimal"

	"github.com/pitwallhq/pitwall-gateway/internal/payments"
	pkgerrors "github.com/pitwallhq/pitwall-gateway/pkg/errors"
)

// Owner identifies the UI surface a checkout belongs to: one authenticated
// team session. The league token travels with it so the flow can keep
// calling upstream after the originating HTTP request has returned.
type Owner struct {
	TeamID string
	Token  string
}

// Checkout kinds accepted from the UI.
const (
	KindInstallPart    = "install_part"
	KindStoreWarehouse = "store_warehouse"
	KindActivateCar    = "activate_car"
	KindCart           = "cart"
)

// CartLineInput is one cart item with its destination.
type CartLineInput struct {
	PartID      string `json:"part_id" validate:"required"`
	Destination string `json:"destination" validate:"required,oneof=active_car warehouse"`
}

// StartCheckoutInput is the request to open a new payment flow.
type StartCheckoutInput struct {
	Kind     string          `json:"kind" validate:"required,oneof=install_part store_warehouse activate_car cart"`
	PartID   string          `json:"part_id,omitempty"`
	CarID    string          `json:"car_id,omitempty"`
	ItemName string          `json:"item_name,omitempty"`
	Items    []CartLineInput `json:"items,omitempty" validate:"dive"`
}

// purchaseContext builds the intent's context from the input, enforcing
// the per-kind required fields.
func (in StartCheckoutInput) purchaseContext() (payments.PurchaseContext, error) {
	switch in.Kind {
	case KindInstallPart:
		if in.PartID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "part_id is required")
		}
		return payments.InstallPart{PartRef: in.PartID, TargetCarID: in.CarID}, nil
	case KindStoreWarehouse:
		if in.PartID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "part_id is required")
		}
		return payments.StoreInWarehouse{PartRef: in.PartID}, nil
	case KindActivateCar:
		if in.CarID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "car_id is required")
		}
		return payments.ActivateCar{CarID: in.CarID}, nil
	case KindCart:
		if len(in.Items) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one item")
		}
		lines := make([]payments.CartLine, 0, len(in.Items))
		for _, item := range in.Items {
			if item.PartID == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item part_id is required")
			}
			var dest payments.Destination
			switch item.Destination {
			case "active_car":
				dest = payments.DestinationActiveCar
			case "warehouse":
				dest = payments.DestinationWarehouse
			default:
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item destination must be active_car or warehouse")
			}
			lines = append(lines, payments.CartLine{PartRef: item.PartID, Destination: dest})
		}
		return payments.SplitCart{Items: lines}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown checkout kind")
}

// CheckoutStarted is the QR payload returned to the UI when a flow opens.
type CheckoutStarted struct {
	TransactionID    string          `json:"transaction_id"`
	QRCodeURL        string          `json:"qr_code_url"`
	ItemName         string          `json:"item_name"`
	AmountItem       decimal.Decimal `json:"amount_item"`
	AmountFee        decimal.Decimal `json:"amount_fee"`
	AmountTotal      decimal.Decimal `json:"amount_total"`
	SecondsRemaining int             `json:"seconds_remaining"`
}
