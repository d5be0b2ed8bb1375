package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Tombstones is the locally-retracted overlay for stopped promotions: event
// IDs a promoter stopped optimistically, applied over server data until an
// authoritative fetch confirms the stop. Entries expire on their own so a
// lost confirmation cannot pin a campaign hidden forever.
type Tombstones struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTombstones(rdb *redis.Client, ttl time.Duration) *Tombstones {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tombstones{rdb: rdb, ttl: ttl}
}

// Add marks eventID as retracted for the promoter.
func (t *Tombstones) Add(ctx context.Context, promoterID, eventID int64) error {
	key := KeyPromoTombstones(promoterID)

	pipe := t.rdb.TxPipeline()
	pipe.SAdd(ctx, key, eventID)
	pipe.Expire(ctx, key, t.ttl)
	_, err := pipe.Exec(ctx)

	return err
}

// List returns the retracted event IDs for the promoter.
func (t *Tombstones) List(ctx context.Context, promoterID int64) (map[int64]bool, error) {
	members, err := t.rdb.SMembers(ctx, KeyPromoTombstones(promoterID)).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[int64]bool, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		out[id] = true
	}

	return out, nil
}

// Remove clears tombstones whose stop the server has confirmed.
func (t *Tombstones) Remove(ctx context.Context, promoterID int64, eventIDs ...int64) error {
	if len(eventIDs) == 0 {
		return nil
	}

	members := make([]any, len(eventIDs))
	for i, id := range eventIDs {
		members[i] = id
	}

	return t.rdb.SRem(ctx, KeyPromoTombstones(promoterID), members...).Err()
}
