package payments

import "github.com/pitwallhq/pitwall-gateway/pkg/leagueapi"

// Status is the normalized payment state. The league answers status checks
// in several dialects; everything funnels through Normalize so the rest of
// the gateway only ever sees these values.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"

	// Poll-session outcomes that the league never reports directly.
	StatusTimeout  Status = "timeout"
	StatusNotFound Status = "not_found"
)

// IsTerminal reports whether no further polling can change this status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusDeclined, StatusCancelled, StatusExpired, StatusTimeout, StatusNotFound:
		return true
	}
	return false
}

var wireStatuses = map[string]Status{
	"pendente":  StatusPending,
	"aprovado":  StatusApproved,
	"recusado":  StatusDeclined,
	"cancelado": StatusCancelled,
	"expirado":  StatusExpired,
}

// Normalize maps every observed league response shape onto one Status:
// the flat status string, the nested transacao.status, and the bare pago
// flag, in that order of precedence. Unknown shapes read as pending so a
// flaky payload cannot fake a terminal state.
func Normalize(resp *leagueapi.ChargeStatusResponse) Status {
	if resp == nil {
		return StatusPending
	}
	if status, ok := wireStatuses[resp.Status]; ok {
		return status
	}
	if resp.Transaction != nil {
		if status, ok := wireStatuses[resp.Transaction.Status]; ok {
			return status
		}
	}
	if resp.Paid != nil && *resp.Paid {
		return StatusApproved
	}
	return StatusPending
}
