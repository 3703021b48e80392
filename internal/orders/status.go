package orders

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// PaymentIDManual marks sales the seller recorded outside the gateway.
const PaymentIDManual = "MANUAL"

var validNext = map[Status]map[Status]bool{
	StatusPending:  {StatusApproved: true, StatusRejected: true},
	StatusApproved: {},
	StatusRejected: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// StatusFromProvider maps a gateway callback status onto the ledger status.
// Total: anything the provider invents beyond "approved"/"failure" means the
// payment is still in flight.
func StatusFromProvider(s string) Status {
	switch s {
	case "approved":
		return StatusApproved
	case "failure":
		return StatusRejected
	default:
		return StatusPending
	}
}
