package redisx

import "time"

const (
	// Per-user cart hash: cart:{user_id} -> field product_id, value quantity.
	KeyCart = "cart:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	// Rolling cart expiry, refreshed on every read or mutation.
	TTLCart  = 7 * 24 * time.Hour
	TTLDedup = 48 * time.Hour
)
