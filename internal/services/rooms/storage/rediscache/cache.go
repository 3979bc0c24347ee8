// Package rediscache keeps read-through snapshots of rooms in Redis.
//
// Snapshots are versioned: a write never replaces a newer snapshot, and a
// deleted room leaves a marker that blocks late writes until it expires.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hyamero/trackAsOne/internal/services/rooms/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a snapshot may be served without a refresh.
const DefaultTTL = 30 * time.Second

const deletedVersion = math.MaxInt64

// putScript writes the snapshot only when it is newer than the cached one.
var putScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if current and tonumber(current) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'room', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// Cache stores room snapshots in Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Open connects to the Redis instance at redisURL.
func Open(ctx context.Context, redisURL string, ttl time.Duration) (*Cache, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, errors.New("redis url is required")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return New(client, ttl), nil
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// GetRoom returns the cached snapshot and whether one was present.
func (c *Cache) GetRoom(ctx context.Context, roomID string) (domain.Room, bool, error) {
	raw, err := c.client.HGet(ctx, roomKey(roomID), "room").Result()
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return domain.Room{}, false, nil
	}
	if err != nil {
		return domain.Room{}, false, fmt.Errorf("redis: get room: %w", err)
	}
	room, err := decodeRoom(raw)
	if err != nil {
		return domain.Room{}, false, err
	}
	return room, true, nil
}

// PutRoom stores the snapshot unless a newer one is already cached.
func (c *Cache) PutRoom(ctx context.Context, room domain.Room) error {
	raw, err := encodeRoom(room)
	if err != nil {
		return err
	}
	if err := putScript.Run(ctx, c.client, []string{roomKey(room.ID)}, room.Version, raw, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis: put room: %w", err)
	}
	return nil
}

// DeleteRoom replaces the snapshot with a deletion marker.
func (c *Cache) DeleteRoom(ctx context.Context, roomID string) error {
	key := roomKey(roomID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, "version", int64(deletedVersion), "room", "")
	pipe.PExpire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: delete room: %w", err)
	}
	return nil
}

func roomKey(roomID string) string {
	return fmt.Sprintf("rooms:room:%s", roomID)
}

type roomRecord struct {
	ID              string     `json:"id"`
	Creator         string     `json:"creator"`
	Admins          domain.Set `json:"admins"`
	Members         domain.Set `json:"members"`
	PendingRequests domain.Set `json:"pendingRequests"`
	PendingInvites  domain.Set `json:"pendingInvites"`
	PendingDeletion bool       `json:"pendingDeletion"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	Version         int64      `json:"version"`
}

func encodeRoom(room domain.Room) (string, error) {
	data, err := json.Marshal(roomRecord(room))
	if err != nil {
		return "", fmt.Errorf("encode room snapshot: %w", err)
	}
	return string(data), nil
}

func decodeRoom(raw string) (domain.Room, error) {
	var record roomRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return domain.Room{}, fmt.Errorf("decode room snapshot: %w", err)
	}
	room := domain.Room(record)
	for _, s := range []*domain.Set{&room.Admins, &room.Members, &room.PendingRequests, &room.PendingInvites} {
		if *s == nil {
			*s = domain.NewSet()
		}
	}
	return room, nil
}
