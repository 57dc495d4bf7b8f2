package rpc

import (
	"context"

	"go.uber.org/zap"

	"tokenrank/internal/model"
)

// orderSubscribeResult is the initial and every subsequent order_subscribe
// payload. OrderToken is nulled out when forwarding a message whose order
// type does not match the one this socket subscribed to, per the narrowed
// fan-out rule: the hub already only ever delivers matching-type messages
// (see internal/hub.Orders), so this is a defensive no-op in practice, kept
// because the wire contract promises it regardless of hub internals.
type orderSubscribeResult struct {
	OrderType  model.OrderType           `json:"order_type"`
	OrderToken []model.OrderTokenSummary `json:"order_token"`
	NewToken   *model.NewTokenMessage    `json:"new_token"`
	NewBuy     *model.NewSwapMessage     `json:"new_buy"`
	NewSell    *model.NewSwapMessage     `json:"new_sell"`
}

func (s *Socket) subscribeOrder(ctx context.Context, req Request) {
	s.deps.Metrics.RPCRequest(string(req.Method))

	orderType, err := parseOrderSubscribeParams(req.Params)
	if err != nil {
		s.sendError(req.Method, ErrInvalidParams, err.Error())
		return
	}

	window, err := s.deps.Engine.Window(ctx, orderType)
	if err != nil {
		s.log.Error("order_subscribe: load window", zap.Error(err))
		s.sendError(req.Method, ErrInternal, "")
		return
	}
	newToken, newBuy, newSell, err := s.deps.Engine.Singletons(ctx)
	if err != nil {
		s.log.Error("order_subscribe: load singletons", zap.Error(err))
		s.sendError(req.Method, ErrInternal, "")
		return
	}

	sub := s.deps.Orders.Subscribe(orderType)
	forwardCtx := s.replace(ctx, MethodOrderSubscribe)

	s.sendResult(req.Method, orderSubscribeResult{
		OrderType:  orderType,
		OrderToken: window,
		NewToken:   newToken,
		NewBuy:     newBuy,
		NewSell:    newSell,
	})

	go s.forwardOrder(forwardCtx, sub.C(), sub.Close, orderType, req.Method)
}

func (s *Socket) forwardOrder(ctx context.Context, ch <-chan model.OrderMessage, closeFn func(), orderType model.OrderType, method Method) {
	defer closeFn()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.OrderType != orderType {
				msg.OrderToken = nil
			}
			s.sendResult(method, orderSubscribeResult{
				OrderType:  msg.OrderType,
				OrderToken: msg.OrderToken,
			})
		}
	}
}

func (s *Socket) subscribeToken(ctx context.Context, req Request) {
	s.deps.Metrics.RPCRequest(string(req.Method))

	tokenID, interval, err := parseTokenSubscribeParams(req.Params)
	if err != nil {
		s.sendError(req.Method, ErrInvalidParams, err.Error())
		return
	}

	page, err := s.deps.Postgres.TokenPage(ctx, tokenID, interval)
	if err != nil {
		s.log.Error("token_subscribe: load token page", zap.Error(err))
		s.sendError(req.Method, ErrNotFound, "token not found")
		return
	}

	sub := s.deps.Tokens.Subscribe(tokenID)
	forwardCtx := s.replace(ctx, MethodTokenSubscribe)

	s.sendResult(req.Method, model.TokenMessage{
		ID:        page.ID,
		Swap:      page.Swaps,
		Chart:     page.Charts,
		ChartType: interval,
		Balance:   page.Balances,
		Curve:     page.Curve,
		Thread:    page.Threads,
	})

	go s.forwardToken(forwardCtx, sub.C(), sub.Close, interval, req.Method)
}

func (s *Socket) forwardToken(ctx context.Context, ch <-chan model.TokenMessage, closeFn func(), interval model.ChartInterval, method Method) {
	defer closeFn()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(msg.Chart) > 0 && msg.ChartType != interval {
				continue
			}
			s.sendResult(method, msg)
		}
	}
}

func (s *Socket) subscribeNewContent(ctx context.Context, req Request) {
	s.deps.Metrics.RPCRequest(string(req.Method))

	newToken, newBuy, newSell, err := s.deps.Engine.Singletons(ctx)
	if err != nil {
		s.log.Error("new_content_subscribe: load singletons", zap.Error(err))
		s.sendError(req.Method, ErrInternal, "")
		return
	}

	sub := s.deps.NewContent.Subscribe()
	forwardCtx := s.replace(ctx, MethodNewContentSubscribe)

	s.sendResult(req.Method, model.NewContentMessage{
		NewToken: newToken,
		NewBuy:   newBuy,
		NewSell:  newSell,
	})

	go s.forwardNewContent(forwardCtx, sub.C(), sub.Close, req.Method)
}

func (s *Socket) forwardNewContent(ctx context.Context, ch <-chan model.NewContentMessage, closeFn func(), method Method) {
	defer closeFn()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.sendResult(method, msg)
		}
	}
}
