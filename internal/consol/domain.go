package consol

import "time"

// Row is one consolidated aggregate over a (calendar date, item, supplier)
// triple inside the query window. Rows are derived on every query and never
// persisted.
type Row struct {
	Date          string `json:"date"`
	ItemID        int64  `json:"item_id"`
	ItemName      string `json:"item_name"`
	Supplier      string `json:"supplier"`
	InboundTotal  int64  `json:"inbound_total"`
	OutboundTotal int64  `json:"outbound_total"`
}

// Filters narrows the consolidation window.
type Filters struct {
	From  time.Time
	To    time.Time
	Query string
}

// MovementRow is a ledger movement joined with its item name, as fetched by
// the repository for aggregation.
type MovementRow struct {
	ItemID     int64
	ItemName   string
	Supplier   string
	Direction  string
	Quantity   int64
	OccurredAt time.Time
}
