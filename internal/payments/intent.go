package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentIntent is an outstanding request to charge a team, identified by
// the league-assigned transaction id. It lives in process memory only and
// is evicted once its poll session reaches a terminal state.
type PaymentIntent struct {
	TransactionID string
	Status        Status
	ItemName      string
	AmountItem    decimal.Decimal
	AmountFee     decimal.Decimal
	AmountTotal   decimal.Decimal
	Context       PurchaseContext
	CreatedAt     time.Time
}

// Destination says where a purchased part ends up.
type Destination string

const (
	DestinationActiveCar Destination = "active_car"
	DestinationWarehouse Destination = "warehouse"
)

// CartLine is one part in a split cart together with its destination.
type CartLine struct {
	PartRef     string
	Destination Destination
}

// PurchaseContext describes the business effect to apply once the payment
// is approved. Exactly one variant is attached to each intent.
type PurchaseContext interface {
	purchaseContext()
}

// InstallPart installs a single purchased part on the given car.
type InstallPart struct {
	PartRef     string
	TargetCarID string
}

// StoreInWarehouse keeps a purchased part in the team's warehouse.
type StoreInWarehouse struct {
	PartRef string
}

// ActivateCar switches the team's active car.
type ActivateCar struct {
	CarID string
}

// SplitCart fans a multi-item purchase out across destinations.
type SplitCart struct {
	Items []CartLine
}

func (InstallPart) purchaseContext()      {}
func (StoreInWarehouse) purchaseContext() {}
func (ActivateCar) purchaseContext()      {}
func (SplitCart) purchaseContext()        {}
