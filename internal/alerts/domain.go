package alerts

// Entry is one low-stock worklist item: an item whose projected on-hand
// quantity is at or below its reorder threshold.
type Entry struct {
	ItemID           int64  `json:"item_id"`
	SKU              string `json:"sku"`
	Name             string `json:"name"`
	DefaultSupplier  string `json:"default_supplier"`
	OnHand           int64  `json:"on_hand"`
	ReorderThreshold int64  `json:"reorder_threshold"`
	Deficit          int64  `json:"deficit"`
}
