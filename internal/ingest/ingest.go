// Package ingest implements the CDC ingest loop: it listens on the
// fixed set of notification channels, classifies and enriches each
// notification, and fans the result out to the subject hubs and the
// leaderboard engine.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"tokenrank/internal/event"
	"tokenrank/internal/hub"
	"tokenrank/internal/leaderboard"
	"tokenrank/internal/metrics"
	"tokenrank/internal/model"
	"tokenrank/internal/store"
)

// reconnectDelay is how long the loop sleeps before re-establishing the
// listener after a connection failure.
const reconnectDelay = 5 * time.Second

// Loop owns the dedicated LISTEN connection and the fan-out wiring.
type Loop struct {
	pool   *pgxpool.Pool
	pg     *store.Postgres
	redis  *store.Redis
	engine *leaderboard.Engine

	tokens     *hub.Tokens
	newContent *hub.NewContent

	metrics *metrics.Metrics
	log     *zap.Logger
}

// New constructs the ingest loop.
func New(pool *pgxpool.Pool, pg *store.Postgres, redis *store.Redis, engine *leaderboard.Engine, tokens *hub.Tokens, newContent *hub.NewContent, m *metrics.Metrics, log *zap.Logger) *Loop {
	return &Loop{
		pool:       pool,
		pg:         pg,
		redis:      redis,
		engine:     engine,
		tokens:     tokens,
		newContent: newContent,
		metrics:    m,
		log:        log,
	}
}

// Run listens until ctx is cancelled, reconnecting on failure with a fixed
// backoff. It never returns except when ctx is done.
func (l *Loop) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := l.listenOnce(ctx); err != nil {
			l.log.Error("change data capture error, retrying", zap.Error(err), zap.Duration("delay", reconnectDelay))
			l.metrics.SetListenerConnected(false)
			l.metrics.Reconnected()
			select {
			case <-time.After(reconnectDelay):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (l *Loop) listenOnce(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("ingest: acquire listen connection: %w", err)
	}
	defer conn.Release()

	var listen string
	for _, ch := range event.AllChannels {
		listen += "LISTEN \"" + string(ch) + "\";"
	}
	if _, err := conn.Exec(ctx, listen); err != nil {
		return fmt.Errorf("ingest: listen: %w", err)
	}
	l.metrics.SetListenerConnected(true)
	l.log.Info("change data capture started", zap.Int("channels", len(event.AllChannels)))

	rawConn := conn.Conn()
	for {
		notification, err := rawConn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("ingest: wait for notification: %w", err)
		}
		n := notification
		go l.handleNotification(ctx, n)
	}
}

func (l *Loop) handleNotification(ctx context.Context, n *pgconn.Notification) {
	start := time.Now()
	l.metrics.NotificationReceived(n.Channel)

	ev, err := event.Parse(n.Channel, []byte(n.Payload))
	if err != nil {
		l.log.Warn("failed to parse notification", zap.String("channel", n.Channel), zap.Error(err))
		l.metrics.NotificationError(n.Channel)
		return
	}

	if err := l.dispatch(ctx, ev); err != nil {
		l.log.Warn("failed to dispatch event", zap.String("channel", n.Channel), zap.Error(err))
		l.metrics.NotificationError(n.Channel)
		return
	}

	l.metrics.ObserveNotificationLatency(time.Since(start))
}

// dispatch enriches and fans out one classified event. Gating: when the
// token hub has no subscribers for this token, token-page fan-out is
// skipped, but leaderboard and singleton updates still proceed because
// they may be observed by order/new-content subscribers regardless.
func (l *Loop) dispatch(ctx context.Context, ev *event.Event) error {
	switch ev.Channel {
	case event.ChannelToken:
		return l.dispatchToken(ctx, ev)
	case event.ChannelSwap:
		return l.dispatchSwap(ctx, ev)
	case event.ChannelCurve:
		return l.dispatchCurve(ctx, ev)
	case event.ChannelReplyCount:
		return l.dispatchReplyCount(ctx, ev)
	case event.ChannelChart:
		return l.dispatchChart(ev)
	case event.ChannelBalance:
		return l.dispatchBalance(ev)
	case event.ChannelThread:
		return l.dispatchThread(ev)
	default:
		return fmt.Errorf("ingest: unhandled channel %s", ev.Channel)
	}
}

func (l *Loop) dispatchToken(ctx context.Context, ev *event.Event) error {
	token := ev.Token
	if l.tokens.SubscriberCount(token.ID) > 0 {
		l.tokens.Broadcast(token.ID, model.TokenMessage{ID: token.ID})
	}

	if err := l.engine.HandleTokenCreated(ctx, token); err != nil {
		return err
	}

	info, err := l.pg.TokenAndUserInfo(ctx, token.ID, token.Creator)
	if err != nil {
		return fmt.Errorf("token new-content enrichment: %w", err)
	}
	newToken := &model.NewTokenMessage{
		UserInfo:  model.UserInfo{Nickname: info.Nickname, ImageURI: info.UserImageURI},
		ID:        token.ID,
		Symbol:    info.Symbol,
		ImageURI:  info.ImageURI,
		CreatedAt: token.CreatedAt,
	}
	if err := l.engine.UpdateNewTokenSingleton(ctx, newToken); err != nil {
		return err
	}
	l.newContent.Publish(model.NewContentMessage{NewToken: newToken})
	return nil
}

func (l *Loop) dispatchSwap(ctx context.Context, ev *event.Event) error {
	swap := ev.Swap
	if l.tokens.SubscriberCount(swap.TokenID) > 0 {
		l.tokens.Broadcast(swap.TokenID, model.TokenMessage{ID: swap.TokenID, Swap: []model.Swap{*swap}})
	}

	if err := l.engine.HandleSwap(ctx, swap); err != nil {
		return err
	}

	info, err := l.pg.TokenAndUserInfo(ctx, swap.TokenID, swap.Sender)
	if err != nil {
		return fmt.Errorf("swap new-content enrichment: %w", err)
	}
	swapMsg := &model.NewSwapMessage{
		UserInfo:  model.UserInfo{Nickname: info.Nickname, ImageURI: info.UserImageURI},
		IsBuy:     swap.IsBuy,
		TokenInfo: model.TokenInfo{ID: info.TokenID, Symbol: info.Symbol, ImageURI: info.ImageURI},
		NadAmount: swap.NadAmount.String(),
	}
	if err := l.engine.UpdateNewSwapSingleton(ctx, swapMsg); err != nil {
		return err
	}

	msg := model.NewContentMessage{}
	if swap.IsBuy {
		msg.NewBuy = swapMsg
	} else {
		msg.NewSell = swapMsg
	}
	l.newContent.Publish(msg)
	return nil
}

func (l *Loop) dispatchCurve(ctx context.Context, ev *event.Event) error {
	curve := ev.Curve
	if l.tokens.SubscriberCount(curve.TokenID) > 0 {
		l.tokens.Broadcast(curve.TokenID, model.TokenMessage{ID: curve.TokenID, Curve: curve})
	}
	return l.engine.HandleCurveUpdate(ctx, curve)
}

func (l *Loop) dispatchReplyCount(ctx context.Context, ev *event.Event) error {
	rc := ev.ReplyCount
	return l.engine.HandleReplyCountChange(ctx, rc, time.Now())
}

func (l *Loop) dispatchChart(ev *event.Event) error {
	chart := ev.Chart
	if l.tokens.SubscriberCount(chart.TokenID) == 0 {
		return nil
	}
	l.tokens.Broadcast(chart.TokenID, model.TokenMessage{
		ID:        chart.TokenID,
		Chart:     []model.ChartBucket{*chart},
		ChartType: ev.ChartInterval,
	})
	return nil
}

func (l *Loop) dispatchBalance(ev *event.Event) error {
	balance := ev.Balance
	if l.tokens.SubscriberCount(balance.TokenID) == 0 {
		return nil
	}
	l.tokens.Broadcast(balance.TokenID, model.TokenMessage{ID: balance.TokenID, Balance: []model.Balance{*balance}})
	return nil
}

func (l *Loop) dispatchThread(ev *event.Event) error {
	thread := ev.Thread
	if l.tokens.SubscriberCount(thread.TokenID) == 0 {
		return nil
	}
	l.tokens.Broadcast(thread.TokenID, model.TokenMessage{ID: thread.TokenID, Thread: []model.Thread{*thread}})
	return nil
}
