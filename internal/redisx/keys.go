package redisx

import "time"

const (
	// Cache of the product listing; dropped on every stock-touching mutation.
	KeyProductList = "warehouse:products"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLProductList = 30 * time.Second
	TTLDedup       = 48 * time.Hour
)
