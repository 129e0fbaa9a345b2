package payment

// MapAsaasStatus converts an Asaas payment status to a Status
func MapAsaasStatus(s string) Status {
	switch s {
	case "PENDING", "AWAITING_RISK_ANALYSIS":
		return StatusPending
	case "RECEIVED", "CONFIRMED", "RECEIVED_IN_CASH":
		return StatusPaid
	case "OVERDUE":
		return StatusOverdue
	case "REFUNDED", "REFUND_REQUESTED":
		return StatusRefunded
	default:
		return StatusFailed
	}
}

// IsPaidEvent reports whether a webhook event confirms payment
func IsPaidEvent(event string) bool {
	return event == "PAYMENT_RECEIVED" || event == "PAYMENT_CONFIRMED"
}
