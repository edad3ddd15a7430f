package redisx

import "time"

const (
	// Cached order view: salesorder:view:{sales_order_id} -> wire.OrderView JSON
	KeyOrderView = "salesorder:view:%d"

	// Dedup event processing: dedup:{consumer}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderView = 5 * time.Minute
	TTLDedup     = 48 * time.Hour
)
