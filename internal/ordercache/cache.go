// Package ordercache keeps rendered sales order views in Redis and keeps them
// warm from the order event stream.
package ordercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-sales-orders/internal/redisx"
	"github.com/ariefcatur/go-sales-orders/internal/wire"
)

// Entries are versioned envelopes. A write only lands when its version is not
// older than the stored one, so a slow read-through fill cannot overwrite the
// view written by a later update. Deletes leave a tombstone that outranks any
// view until it expires.
type entry struct {
	Version int64           `json:"version"`
	Deleted bool            `json:"deleted,omitempty"`
	View    *wire.OrderView `json:"view,omitempty"`
}

const tombstoneVersion = 1<<53 - 1

var setIfNewer = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, e = pcall(cjson.decode, cur)
  if ok and type(e) == 'table' and tonumber(e.version) and tonumber(e.version) > tonumber(ARGV[2]) then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

type Cache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func New(rdb redis.Cmdable, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = redisx.TTLOrderView
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func viewKey(id int64) string { return fmt.Sprintf(redisx.KeyOrderView, id) }

// Get reports false without error on a cache miss or a tombstone.
func (c *Cache) Get(ctx context.Context, id int64) (wire.OrderView, bool, error) {
	b, err := c.rdb.Get(ctx, viewKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return wire.OrderView{}, false, nil
	}
	if err != nil {
		return wire.OrderView{}, false, err
	}
	var e entry
	if err := json.Unmarshal(b, &e); err != nil {
		return wire.OrderView{}, false, fmt.Errorf("decode cached order %d: %w", id, err)
	}
	if e.Deleted || e.View == nil {
		return wire.OrderView{}, false, nil
	}
	return *e.View, true, nil
}

// Set stores v unless the cache already holds a newer version of the order
// or its tombstone. A rejected write is not an error.
func (c *Cache) Set(ctx context.Context, v wire.OrderView) error {
	return c.put(ctx, v.SalesOrderID, entry{Version: v.Version, View: &v})
}

// Evict replaces the view with a tombstone so in-flight fills of a deleted
// order are rejected.
func (c *Cache) Evict(ctx context.Context, id int64) error {
	return c.put(ctx, id, entry{Version: tombstoneVersion, Deleted: true})
}

func (c *Cache) put(ctx context.Context, id int64, e entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := setIfNewer.Run(ctx, c.rdb, []string{viewKey(id)}, b, e.Version, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("store cached order %d: %w", id, err)
	}
	return nil
}

// Seen reports whether consumer already processed eventID.
func (c *Cache) Seen(ctx context.Context, consumer, eventID string) (bool, error) {
	return redisx.Exists(ctx, c.rdb, fmt.Sprintf(redisx.KeyDedup, consumer, eventID))
}

func (c *Cache) MarkSeen(ctx context.Context, consumer, eventID string) error {
	return c.rdb.Set(ctx, fmt.Sprintf(redisx.KeyDedup, consumer, eventID), "1", redisx.TTLDedup).Err()
}
