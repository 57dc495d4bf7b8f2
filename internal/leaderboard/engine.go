// Package leaderboard implements the leaderboard engine: it keeps the
// five rankings current from CDC events and performs the initial bulk
// load at startup.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tokenrank/internal/hub"
	"tokenrank/internal/metrics"
	"tokenrank/internal/model"
	"tokenrank/internal/store"
)

// Engine maintains the five leaderboard windows and the three singletons,
// fed by the CDC ingest loop and read by the subscription protocol.
type Engine struct {
	pg    *store.Postgres
	redis *store.Redis

	orders     *hub.Orders
	newContent *hub.NewContent

	windowSize int64
	metrics    *metrics.Metrics
	log        *zap.Logger
}

// New constructs a leaderboard engine.
func New(pg *store.Postgres, redis *store.Redis, orders *hub.Orders, newContent *hub.NewContent, windowSize int64, m *metrics.Metrics, log *zap.Logger) *Engine {
	return &Engine{
		pg:         pg,
		redis:      redis,
		orders:     orders,
		newContent: newContent,
		windowSize: windowSize,
		metrics:    m,
		log:        log,
	}
}

// Initialize runs the five bulk loads concurrently; any single failure
// aborts initialization as a fatal startup error.
func (e *Engine) Initialize(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, ot := range model.AllOrderTypes {
		ot := ot
		g.Go(func() error { return e.seedWindow(gctx, ot) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("leaderboard: initialize: %w", err)
	}
	return nil
}

func (e *Engine) seedWindow(ctx context.Context, orderType model.OrderType) error {
	ids, scores, err := e.pg.SeedWindow(ctx, string(orderType), e.windowSize)
	if err != nil {
		return fmt.Errorf("seed %s: %w", orderType, err)
	}
	if len(ids) == 0 {
		e.log.Info("no tokens found for order", zap.String("order_type", string(orderType)))
		return nil
	}

	summaries, err := e.pg.OrderTokenSummaries(ctx, ids)
	if err != nil {
		return fmt.Errorf("seed %s: hydrate summaries: %w", orderType, err)
	}

	tokens := make([]model.OrderTokenSummary, 0, len(ids))
	floatScores := make([]float64, 0, len(ids))
	for i, id := range ids {
		s, ok := summaries[id]
		if !ok {
			continue
		}
		tokens = append(tokens, *s)
		f, _ := scores[i].Float64()
		floatScores = append(floatScores, f)
	}

	if err := e.redis.SetWindow(ctx, string(orderType), tokens, floatScores); err != nil {
		return fmt.Errorf("seed %s: set window: %w", orderType, err)
	}
	e.metrics.SetWindowSize(string(orderType), len(tokens))
	e.log.Info("seeded leaderboard window", zap.String("order_type", string(orderType)), zap.Int("count", len(tokens)))
	return nil
}

// HandleTokenCreated maintains the CreationTime ranking on a new token.
func (e *Engine) HandleTokenCreated(ctx context.Context, token *model.Token) error {
	summary, err := e.pg.OrderTokenSummary(ctx, token.ID)
	if err != nil {
		return fmt.Errorf("leaderboard: creation_time: %w", err)
	}
	return e.addAndPublish(ctx, model.OrderCreationTime, summary, float64(token.CreatedAt))
}

// HandleSwap maintains the Bump ranking on a new swap.
func (e *Engine) HandleSwap(ctx context.Context, swap *model.Swap) error {
	summary, err := e.pg.OrderTokenSummary(ctx, swap.TokenID)
	if err != nil {
		return fmt.Errorf("leaderboard: bump: %w", err)
	}
	return e.addAndPublish(ctx, model.OrderBump, summary, float64(swap.CreatedAt))
}

// HandleCurveUpdate maintains the MarketCap ranking on a curve price change.
func (e *Engine) HandleCurveUpdate(ctx context.Context, curve *model.Curve) error {
	summary, err := e.pg.OrderTokenSummary(ctx, curve.TokenID)
	if err != nil {
		return fmt.Errorf("leaderboard: market_cap: %w", err)
	}
	score, _ := curve.Price.Float64()
	return e.addAndPublish(ctx, model.OrderMarketCap, summary, score)
}

// HandleReplyCountChange maintains both the ReplyCount and LatestReply
// rankings on a reply-count change; LatestReply is scored by wall-clock
// time at event handling, since the reply-count channel carries no
// thread-create timestamp (see DESIGN.md).
func (e *Engine) HandleReplyCountChange(ctx context.Context, rc *model.TokenReplyCount, now time.Time) error {
	summary, err := e.pg.OrderTokenSummary(ctx, rc.TokenID)
	if err != nil {
		return fmt.Errorf("leaderboard: reply_count: %w", err)
	}

	if err := e.addAndPublish(ctx, model.OrderReplyCount, summary, float64(rc.ReplyCount)); err != nil {
		return err
	}
	return e.addAndPublish(ctx, model.OrderLatestReply, summary, float64(now.Unix()))
}

func (e *Engine) addAndPublish(ctx context.Context, orderType model.OrderType, summary *model.OrderTokenSummary, score float64) error {
	inWindow, err := e.redis.AddToWindow(ctx, string(orderType), summary, score)
	if err != nil {
		return fmt.Errorf("add to window %s: %w", orderType, err)
	}
	e.metrics.WindowUpdated(string(orderType))
	if !inWindow {
		return nil
	}

	msg := model.OrderMessage{OrderType: orderType, OrderToken: []model.OrderTokenSummary{*summary}}
	e.orders.Broadcast(orderType, msg)
	return nil
}

// UpdateNewTokenSingleton records the freshest token-created singleton,
// already enriched with the creator's nickname and avatar.
func (e *Engine) UpdateNewTokenSingleton(ctx context.Context, msg *model.NewTokenMessage) error {
	if err := e.redis.SetNewToken(ctx, msg); err != nil {
		return fmt.Errorf("leaderboard: set new token singleton: %w", err)
	}
	return nil
}

// UpdateNewSwapSingleton records the freshest buy or sell singleton,
// already enriched with the trader's nickname and avatar.
func (e *Engine) UpdateNewSwapSingleton(ctx context.Context, msg *model.NewSwapMessage) error {
	if err := e.redis.SetNewSwap(ctx, msg); err != nil {
		return fmt.Errorf("leaderboard: set new swap singleton: %w", err)
	}
	return nil
}

// Singletons assembles the current latest-buy/latest-sell/latest-new-token
// trio, used to seed fresh order_subscribe and new_content_subscribe
// responses.
func (e *Engine) Singletons(ctx context.Context) (*model.NewTokenMessage, *model.NewSwapMessage, *model.NewSwapMessage, error) {
	token, _, err := e.redis.GetNewToken(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("leaderboard: singletons: new token: %w", err)
	}
	buy, _, err := e.redis.GetNewBuy(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("leaderboard: singletons: new buy: %w", err)
	}
	sell, _, err := e.redis.GetNewSell(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("leaderboard: singletons: new sell: %w", err)
	}
	return token, buy, sell, nil
}

// Window returns the current contents of one leaderboard window.
func (e *Engine) Window(ctx context.Context, orderType model.OrderType) ([]model.OrderTokenSummary, error) {
	return e.redis.FetchWindow(ctx, string(orderType))
}
