package ledger

import (
	"errors"
	"time"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementInbound represents goods received into stock.
	MovementInbound MovementType = "INBOUND"
	// MovementOutbound represents goods issued out of stock.
	MovementOutbound MovementType = "OUTBOUND"
	// MovementAdjustment represents a manual correction.
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// Direction states which way a movement changes the on-hand quantity.
// INBOUND is always IN and OUTBOUND always OUT; an ADJUSTMENT must declare
// its direction explicitly rather than implying it from the type.
type Direction string

const (
	// DirectionIn increases on-hand quantity.
	DirectionIn Direction = "IN"
	// DirectionOut decreases on-hand quantity.
	DirectionOut Direction = "OUT"
)

// Movement is one immutable ledger entry. Once appended it is never mutated
// or deleted; corrections are new ADJUSTMENT movements.
type Movement struct {
	ID         int64        `json:"id"`
	ItemID     int64        `json:"item_id"`
	Type       MovementType `json:"type"`
	Direction  Direction    `json:"direction"`
	Quantity   int64        `json:"quantity"`
	Supplier   string       `json:"supplier"`
	Operator   string       `json:"operator"`
	Note       string       `json:"note,omitempty"`
	RefID      string       `json:"ref_id,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Delta returns the signed effect of the movement on on-hand quantity.
func (m Movement) Delta() int64 {
	if m.Direction == DirectionOut {
		return -m.Quantity
	}
	return m.Quantity
}

// Level is the materialised on-hand projection for one item. It is rebuilt
// incrementally under the same transaction that appends a movement and is
// observably equal to folding the movement log.
type Level struct {
	ItemID    int64     `json:"item_id"`
	OnHand    int64     `json:"on_hand"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordInput describes a movement to append.
type RecordInput struct {
	ItemID    int64
	Type      MovementType
	Direction Direction
	Quantity  int64
	Supplier  string
	Operator  string
	Note      string
	RefID     string
}

// ListFilter narrows ledger listings by time window.
type ListFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// ErrInsufficientStock is returned when an outbound movement would drive the
// on-hand quantity negative.
var ErrInsufficientStock = errors.New("ledger: insufficient stock")

// ErrInvalidQuantity indicates a zero or negative quantity.
var ErrInvalidQuantity = errors.New("ledger: quantity must be a positive integer")

// ErrUnknownItem indicates the item does not exist or is tombstoned.
var ErrUnknownItem = errors.New("ledger: unknown item")

// ErrInvalidMovement indicates an unsupported type or direction combination.
var ErrInvalidMovement = errors.New("ledger: invalid movement type or direction")
