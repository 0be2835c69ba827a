package catalog

// CreateItemRequest is the payload for registering a new item.
type CreateItemRequest struct {
	SKU              string `json:"sku" validate:"required,max=64"`
	Name             string `json:"name" validate:"required,max=200"`
	CategoryID       int64  `json:"category_id" validate:"gte=0"`
	Unit             string `json:"unit" validate:"required,max=20"`
	ReorderThreshold int64  `json:"reorder_threshold" validate:"gte=0"`
	DefaultSupplier  string `json:"default_supplier" validate:"max=200"`
	Location         string `json:"location" validate:"max=200"`
}

// UpdateItemRequest carries the descriptive fields that may change after
// creation. SKU is immutable.
type UpdateItemRequest struct {
	Name             string `json:"name" validate:"required,max=200"`
	CategoryID       int64  `json:"category_id" validate:"gte=0"`
	Unit             string `json:"unit" validate:"required,max=20"`
	ReorderThreshold int64  `json:"reorder_threshold" validate:"gte=0"`
	DefaultSupplier  string `json:"default_supplier" validate:"max=200"`
	Location         string `json:"location" validate:"max=200"`
}
