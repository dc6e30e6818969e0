package notifications

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"tether/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	presenceOnlineSetKey = "ws:online_users"
	presenceLastSeenNS   = "ws:last_seen:"
	presenceTTL          = 90 * time.Second
	presenceReapInterval = 60 * time.Second
)

// Presence tracks which users hold a live notification socket. Local
// connection counts are authoritative for this process; Redis mirrors them
// so any instance can answer IsOnline.
type Presence struct {
	rdb *redis.Client

	mu     sync.RWMutex
	counts map[uint]int

	ttl      time.Duration
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewPresence returns a Presence and starts the stale-entry reaper when Redis is configured.
func NewPresence(rdb *redis.Client) *Presence {
	p := &Presence{
		rdb:    rdb,
		counts: make(map[uint]int),
		ttl:    presenceTTL,
		stopCh: make(chan struct{}),
	}
	if rdb != nil {
		go p.reapLoop(presenceReapInterval)
	}
	return p
}

// Register counts a new connection for userID.
func (p *Presence) Register(ctx context.Context, userID uint) {
	p.mu.Lock()
	p.counts[userID]++
	p.mu.Unlock()
	p.Touch(ctx, userID)
}

// Touch refreshes the user's last-seen marker.
func (p *Presence) Touch(ctx context.Context, userID uint) {
	if p.rdb == nil {
		return
	}
	uid := strconv.FormatUint(uint64(userID), 10)
	if err := p.rdb.SAdd(ctx, presenceOnlineSetKey, uid).Err(); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "presence touch failed",
			slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
		return
	}
	_ = p.rdb.SetEx(ctx, presenceLastSeenNS+uid, strconv.FormatInt(time.Now().Unix(), 10), p.ttl).Err()
}

// Unregister drops one connection. The last one clears the Redis entries.
func (p *Presence) Unregister(ctx context.Context, userID uint) {
	p.mu.Lock()
	p.counts[userID]--
	remaining := p.counts[userID]
	if remaining <= 0 {
		delete(p.counts, userID)
	}
	p.mu.Unlock()

	if remaining > 0 || p.rdb == nil {
		return
	}
	uid := strconv.FormatUint(uint64(userID), 10)
	_ = p.rdb.SRem(ctx, presenceOnlineSetKey, uid).Err()
	_ = p.rdb.Del(ctx, presenceLastSeenNS+uid).Err()
}

// IsOnline reports whether the user has a live socket on any instance.
func (p *Presence) IsOnline(ctx context.Context, userID uint) bool {
	p.mu.RLock()
	local := p.counts[userID] > 0
	p.mu.RUnlock()
	if local || p.rdb == nil {
		return local
	}

	n, err := p.rdb.Exists(ctx, presenceLastSeenNS+strconv.FormatUint(uint64(userID), 10)).Result()
	return err == nil && n > 0
}

// Stop ends the reaper.
func (p *Presence) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// reapOnce removes online-set members whose last-seen marker expired.
func (p *Presence) reapOnce(ctx context.Context) int {
	if p.rdb == nil {
		return 0
	}
	members, err := p.rdb.SMembers(ctx, presenceOnlineSetKey).Result()
	if err != nil {
		return 0
	}

	reaped := 0
	for _, raw := range members {
		n, err := p.rdb.Exists(ctx, presenceLastSeenNS+raw).Result()
		if err != nil || n > 0 {
			continue
		}
		if err := p.rdb.SRem(ctx, presenceOnlineSetKey, raw).Err(); err == nil {
			reaped++
		}
	}
	return reaped
}

func (p *Presence) reapLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.reapOnce(context.Background())
		}
	}
}
