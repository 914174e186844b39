package models

const (
	OutcomeSuccess          = "success"
	OutcomeTransientFailure = "transient_failure"
	OutcomeTerminalFailure  = "terminal_failure"
)

// DeliveryOutcome is the classified result of one delivery attempt.
// Terminal means the gateway proved the token dead; the caller must not
// retry. Transient covers everything not proven terminal.
type DeliveryOutcome struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func Success() DeliveryOutcome {
	return DeliveryOutcome{Status: OutcomeSuccess}
}

func TransientFailure(reason string) DeliveryOutcome {
	return DeliveryOutcome{Status: OutcomeTransientFailure, Reason: reason}
}

func TerminalFailure(reason string) DeliveryOutcome {
	return DeliveryOutcome{Status: OutcomeTerminalFailure, Reason: reason}
}

func (o DeliveryOutcome) Delivered() bool {
	return o.Status == OutcomeSuccess
}

func (o DeliveryOutcome) Terminal() bool {
	return o.Status == OutcomeTerminalFailure
}
