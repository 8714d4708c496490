package audit

import (
	"time"

	id "custody/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// route and retain them differently.
type EventCategory string

const (
	// CategoryCompliance covers movements of value and configuration changes.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers refused operations: authorization failures and
	// rate limit rejections.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine read-side activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category     EventCategory `json:"category"`
	Timestamp    time.Time     `json:"timestamp"`
	Action       AuditEvent    `json:"action"`
	Actor        id.Identity   `json:"actor"`
	Counterparty id.Identity   `json:"counterparty,omitzero"`
	Asset        string        `json:"asset,omitempty"`
	Amount       uint64        `json:"amount,omitempty"`
	Reference    string        `json:"reference,omitempty"` // time-lock ID or record key the event concerns
	Reason       string        `json:"reason,omitempty"`
	RequestID    string        `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	// Bank events
	EventBankInitialized AuditEvent = "bank_initialized"
	EventFeesCollected   AuditEvent = "fees_collected"

	// Ledger events
	EventDeposited          AuditEvent = "deposited"
	EventWithdrawn          AuditEvent = "withdrawn"
	EventTransferred        AuditEvent = "transferred"
	EventBatchTransferred   AuditEvent = "batch_transferred"
	EventExpansionCreated   AuditEvent = "expansion_created"
	EventCompensationFailed AuditEvent = "compensation_failed"

	// Escrow events
	EventTimeLockCreated AuditEvent = "timelock_created"
	EventTimeLockFunded  AuditEvent = "timelock_funded"
	EventTimeLockClaimed AuditEvent = "timelock_claimed"

	// Refusals
	EventRateLimitExceeded AuditEvent = "rate_limit_exceeded"
	EventNotAuthorized     AuditEvent = "not_authorized"

	// Queries
	EventHoldingsRead AuditEvent = "holdings_read"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventBankInitialized:    CategoryCompliance,
	EventFeesCollected:      CategoryCompliance,
	EventDeposited:          CategoryCompliance,
	EventWithdrawn:          CategoryCompliance,
	EventTransferred:        CategoryCompliance,
	EventBatchTransferred:   CategoryCompliance,
	EventExpansionCreated:   CategoryCompliance,
	EventTimeLockCreated:    CategoryCompliance,
	EventTimeLockFunded:     CategoryCompliance,
	EventTimeLockClaimed:    CategoryCompliance,
	EventCompensationFailed: CategorySecurity,
	EventRateLimitExceeded:  CategorySecurity,
	EventNotAuthorized:      CategorySecurity,
	EventHoldingsRead:       CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Normalize fills in the category and timestamp when the emitter left them empty.
func (e Event) Normalize(now time.Time) Event {
	if e.Category == "" {
		e.Category = e.Action.Category()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	return e
}
