package ledger

import "context"

// MovementRecordedEvent is emitted after a movement is durably appended.
type MovementRecordedEvent struct {
	Movement Movement
	OnHand   int64
}

// IntegrationHandler receives ledger events for downstream consumers such as
// the report cache and metrics.
type IntegrationHandler interface {
	HandleMovementRecorded(ctx context.Context, evt MovementRecordedEvent) error
}
