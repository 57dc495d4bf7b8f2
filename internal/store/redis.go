package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tokenrank/internal/model"
)

// Redis keys for each of the five leaderboard sorted sets and the three
// latest-event singletons.
const (
	bumpOrderKey         = "bump_order"
	lastReplyOrderKey     = "last_reply_order"
	replyCountOrderKey    = "reply_count_order"
	marketCapOrderKey     = "market_cap_order"
	creationTimeOrderKey  = "creation_time_order"

	newTokenKey = "new_token"
	newBuyKey   = "new_buy"
	newSellKey  = "new_sell"
)

var orderKeys = map[string]string{
	"bump":          bumpOrderKey,
	"latest_reply":  lastReplyOrderKey,
	"reply_count":   replyCountOrderKey,
	"market_cap":    marketCapOrderKey,
	"creation_time": creationTimeOrderKey,
}

// Redis is the leaderboard store: each OrderType's top-N window lives
// in its own sorted set, scored by the ranking key for that ordering.
type Redis struct {
	client     *redis.Client
	windowSize int64
}

// NewRedis dials a standalone Redis instance.
func NewRedis(addr, password string, db int, windowSize int64) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		windowSize: windowSize,
	}
}

// Ping verifies connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// AddToWindow upserts token into the named ordering's sorted set scored by
// score (dropping any earlier member carrying the same token id), trims the set back down to the configured window size, and
// reports whether the token landed inside the window (true) or fell off
// the bottom (false) — mirroring the original's ZADD + ZREMRANGEBYRANK +
// ZREVRANK atomic pipeline.
func (r *Redis) AddToWindow(ctx context.Context, orderType string, token *model.OrderTokenSummary, score float64) (bool, error) {
	key, ok := orderKeys[orderType]
	if !ok {
		return false, fmt.Errorf("store: unknown order type %q", orderType)
	}

	member, err := json.Marshal(token)
	if err != nil {
		return false, fmt.Errorf("store: marshal order token: %w", err)
	}

	existing, err := r.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return false, fmt.Errorf("store: read window %s: %w", orderType, err)
	}
	var stale []interface{}
	for _, m := range existing {
		var t model.OrderTokenSummary
		if m != string(member) && json.Unmarshal([]byte(m), &t) == nil && t.ID == token.ID {
			stale = append(stale, m)
		}
	}

	pipe := r.client.TxPipeline()
	if len(stale) > 0 {
		pipe.ZRem(ctx, key, stale...)
	}
	pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
	pipe.ZRemRangeByRank(ctx, key, 0, -(r.windowSize + 1))
	rankCmd := pipe.ZRevRank(ctx, key, string(member))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return false, fmt.Errorf("store: add to window %s: %w", orderType, err)
	}

	rank, err := rankCmd.Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: rank lookup %s: %w", orderType, err)
	}
	return rank < r.windowSize, nil
}

// FetchWindow returns every member currently in the named ordering's
// window, highest score first, skipping any member that fails to parse
// (a defensive drop, not a hard error — matching the original reader).
func (r *Redis) FetchWindow(ctx context.Context, orderType string) ([]model.OrderTokenSummary, error) {
	key, ok := orderKeys[orderType]
	if !ok {
		return nil, fmt.Errorf("store: unknown order type %q", orderType)
	}

	raw, err := r.client.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("store: fetch window %s: %w", orderType, err)
	}

	out := make([]model.OrderTokenSummary, 0, len(raw))
	for _, member := range raw {
		var t model.OrderTokenSummary
		if err := json.Unmarshal([]byte(member), &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// SetWindow replaces the named ordering's window wholesale: delete the set,
// then pipeline a ZADD per (token, score) pair. Used only at startup to
// seed a window from the enrichment reader's initial ranking query.
func (r *Redis) SetWindow(ctx context.Context, orderType string, tokens []model.OrderTokenSummary, scores []float64) error {
	key, ok := orderKeys[orderType]
	if !ok {
		return fmt.Errorf("store: unknown order type %q", orderType)
	}
	if len(tokens) != len(scores) {
		return fmt.Errorf("store: set window %s: tokens/scores length mismatch", orderType)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	for i, t := range tokens {
		member, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("store: marshal seed token: %w", err)
		}
		pipe.ZAdd(ctx, key, redis.Z{Score: scores[i], Member: member})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store: set window %s: %w", orderType, err)
	}
	return nil
}

// setSingleton stores the given payload as the latest-event singleton under
// key, JSON-encoded.
func (r *Redis) setSingleton(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: marshal singleton %s: %w", key, err)
	}
	return r.client.Set(ctx, key, data, 0).Err()
}

func (r *Redis) getSingleton(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: get singleton %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("store: unmarshal singleton %s: %w", key, err)
	}
	return true, nil
}

// SetNewToken records the most recently created token, already enriched
// with the creator's nickname and avatar.
func (r *Redis) SetNewToken(ctx context.Context, t *model.NewTokenMessage) error {
	return r.setSingleton(ctx, newTokenKey, t)
}

// GetNewToken returns the most recently created token, if any.
func (r *Redis) GetNewToken(ctx context.Context) (*model.NewTokenMessage, bool, error) {
	var t model.NewTokenMessage
	ok, err := r.getSingleton(ctx, newTokenKey, &t)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &t, true, nil
}

// SetNewSwap records the most recent buy or sell under its own key, already
// enriched with the trader's nickname and avatar.
func (r *Redis) SetNewSwap(ctx context.Context, s *model.NewSwapMessage) error {
	key := newSellKey
	if s.IsBuy {
		key = newBuyKey
	}
	return r.setSingleton(ctx, key, s)
}

// GetNewBuy returns the most recent buy swap, if any.
func (r *Redis) GetNewBuy(ctx context.Context) (*model.NewSwapMessage, bool, error) {
	var s model.NewSwapMessage
	ok, err := r.getSingleton(ctx, newBuyKey, &s)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &s, true, nil
}

// GetNewSell returns the most recent sell swap, if any.
func (r *Redis) GetNewSell(ctx context.Context) (*model.NewSwapMessage, bool, error) {
	var s model.NewSwapMessage
	ok, err := r.getSingleton(ctx, newSellKey, &s)
	if !ok || err != nil {
		return nil, ok, err
	}
	return &s, true, nil
}
