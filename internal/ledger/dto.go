package ledger

// RecordMovementRequest is the payload of the transaction-entry form.
type RecordMovementRequest struct {
	ItemID    int64  `json:"item_id" validate:"required,gt=0"`
	Type      string `json:"type" validate:"required,oneof=INBOUND OUTBOUND ADJUSTMENT"`
	Direction string `json:"direction" validate:"omitempty,oneof=IN OUT"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Supplier  string `json:"supplier" validate:"max=200"`
	Operator  string `json:"operator" validate:"required,max=100"`
	Note      string `json:"note" validate:"max=500"`
	RefID     string `json:"ref_id" validate:"omitempty,uuid4"`
}

// QuantityResponse reports the projected on-hand quantity of one item.
type QuantityResponse struct {
	ItemID int64 `json:"item_id"`
	OnHand int64 `json:"on_hand"`
}
