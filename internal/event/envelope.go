// Package event implements the payload codec: parsing CDC channel
// notifications into classified, typed events.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"tokenrank/internal/model"
)

// Channel names the CDC emits NOTIFY payloads on.
type Channel string

const (
	ChannelToken       Channel = "token"
	ChannelSwap        Channel = "swap"
	ChannelChart       Channel = "chart"
	ChannelBalance     Channel = "balance"
	ChannelCurve       Channel = "curve"
	ChannelThread      Channel = "thread"
	ChannelReplyCount  Channel = "token_replies_count"
)

// AllChannels is the fixed set the CDC ingest loop listens on atomically.
var AllChannels = []Channel{
	ChannelToken, ChannelSwap, ChannelChart, ChannelBalance,
	ChannelCurve, ChannelThread, ChannelReplyCount,
}

// Operation names the write kind the CDC trigger fired for. Unknown
// operations inside a known channel are preserved verbatim, not rejected.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpSelect Operation = "select"
)

// ParseError reports a malformed CDC payload, naming the channel and field
// at fault.
type ParseError struct {
	Channel string
	Field   string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("event: parse %s.%s: %v", e.Channel, e.Field, e.Err)
	}
	return fmt.Sprintf("event: parse %s: %v", e.Channel, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Event is the classified result of parsing one CDC notification. Exactly
// one payload field is populated, selected by Channel.
type Event struct {
	Channel       Channel
	Operation     Operation
	TokenID       string
	ChartInterval model.ChartInterval // only set when Channel == ChannelChart

	Token      *model.Token
	Swap       *model.Swap
	Curve      *model.Curve
	Chart      *model.ChartBucket
	Balance    *model.Balance
	Thread     *model.Thread
	ReplyCount *model.TokenReplyCount
}

// envelope is the outer shape every CDC channel shares: an operation tag, a
// raw record payload, the affected token id, and channel-specific extras.
type envelope struct {
	Operation string          `json:"operation"`
	Record    json.RawMessage `json:"record"`
	TokenID   string          `json:"token_id"`
	ChartType string          `json:"chart_type"`
}

// Parse decodes one CDC notification payload into a classified Event.
// Unknown channels are rejected; unknown operations within a known channel
// are not — the event is produced carrying the operation string as-is.
func Parse(channel string, raw []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &ParseError{Channel: channel, Field: "envelope", Err: err}
	}

	ev := &Event{
		Channel:   Channel(channel),
		Operation: Operation(env.Operation),
		TokenID:   env.TokenID,
	}

	switch ev.Channel {
	case ChannelToken:
		rec, err := decodeToken(env.Record)
		if err != nil {
			return nil, &ParseError{Channel: channel, Field: "record", Err: err}
		}
		ev.Token = rec
		if ev.TokenID == "" {
			ev.TokenID = rec.ID
		}
	case ChannelSwap:
		rec, err := decodeSwap(env.Record)
		if err != nil {
			return nil, &ParseError{Channel: channel, Field: "record", Err: err}
		}
		ev.Swap = rec
		if ev.TokenID == "" {
			ev.TokenID = rec.TokenID
		}
	case ChannelCurve:
		rec, err := decodeCurve(env.Record)
		if err != nil {
			return nil, &ParseError{Channel: channel, Field: "record", Err: err}
		}
		ev.Curve = rec
		if ev.TokenID == "" {
			ev.TokenID = rec.TokenID
		}
	case ChannelChart:
		rec, err := decodeChart(env.Record)
		if err != nil {
			return nil, &ParseError{Channel: channel, Field: "record", Err: err}
		}
		ev.Chart = rec
		if !model.ValidChartInterval(env.ChartType) {
			return nil, &ParseError{Channel: channel, Field: "chart_type", Err: fmt.Errorf("unknown chart interval %q", env.ChartType)}
		}
		ev.ChartInterval = model.ChartInterval(env.ChartType)
		if ev.TokenID == "" {
			ev.TokenID = rec.TokenID
		}
	case ChannelBalance:
		rec, err := decodeBalance(env.Record)
		if err != nil {
			return nil, &ParseError{Channel: channel, Field: "record", Err: err}
		}
		ev.Balance = rec
		if ev.TokenID == "" {
			ev.TokenID = rec.TokenID
		}
	case ChannelThread:
		rec, err := decodeThread(env.Record)
		if err != nil {
			return nil, &ParseError{Channel: channel, Field: "record", Err: err}
		}
		ev.Thread = rec
		if ev.TokenID == "" {
			ev.TokenID = rec.TokenID
		}
	case ChannelReplyCount:
		rec, err := decodeReplyCount(env.Record)
		if err != nil {
			return nil, &ParseError{Channel: channel, Field: "record", Err: err}
		}
		ev.ReplyCount = rec
		if ev.TokenID == "" {
			ev.TokenID = rec.TokenID
		}
	default:
		return nil, &ParseError{Channel: channel, Err: fmt.Errorf("unknown channel")}
	}

	return ev, nil
}

func decodeToken(raw json.RawMessage) (*model.Token, error) {
	var rec struct {
		ID                    string    `json:"id"`
		Name                  string    `json:"name"`
		Symbol                string    `json:"symbol"`
		Creator               string    `json:"creator"`
		Description           string    `json:"description"`
		ImageURI              string    `json:"image_uri"`
		Twitter               string    `json:"twitter"`
		Telegram              string    `json:"telegram"`
		Website               string    `json:"website"`
		IsListing             bool      `json:"is_listing"`
		Pair                  string    `json:"pair"`
		CreatedAt             flexInt64 `json:"created_at"`
		CreateTransactionHash string    `json:"create_transaction_hash"`
		IsUpdated             bool      `json:"is_updated"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &model.Token{
		ID: rec.ID, Name: rec.Name, Symbol: rec.Symbol, Creator: rec.Creator,
		Description: rec.Description, ImageURI: rec.ImageURI, Twitter: rec.Twitter,
		Telegram: rec.Telegram, Website: rec.Website, IsListing: rec.IsListing,
		Pair: rec.Pair, CreatedAt: rec.CreatedAt.Int64(),
		CreateTransactionHash: rec.CreateTransactionHash, IsUpdated: rec.IsUpdated,
	}, nil
}

func decodeSwap(raw json.RawMessage) (*model.Swap, error) {
	var rec struct {
		ID              flexInt64       `json:"id"`
		TokenID         string          `json:"token_id"`
		Sender          string          `json:"sender"`
		IsBuy           bool            `json:"is_buy"`
		NadAmount       decimal.Decimal `json:"nad_amount"`
		TokenAmount     decimal.Decimal `json:"token_amount"`
		CreatedAt       flexInt64       `json:"created_at"`
		TransactionHash string          `json:"transaction_hash"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &model.Swap{
		ID: rec.ID.Int64(), TokenID: rec.TokenID, Sender: rec.Sender, IsBuy: rec.IsBuy,
		NadAmount: rec.NadAmount, TokenAmount: rec.TokenAmount,
		CreatedAt: rec.CreatedAt.Int64(), TransactionHash: rec.TransactionHash,
	}, nil
}

func decodeCurve(raw json.RawMessage) (*model.Curve, error) {
	var rec struct {
		ID            string          `json:"id"`
		TokenID       string          `json:"token_id"`
		VirtualNad    decimal.Decimal `json:"virtual_nad"`
		VirtualToken  decimal.Decimal `json:"virtual_token"`
		ReserveToken  decimal.Decimal `json:"reserve_token"`
		LatestTradeAt flexInt64       `json:"latest_trade_at"`
		Price         decimal.Decimal `json:"price"`
		CreatedAt     flexInt64       `json:"created_at"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &model.Curve{
		ID: rec.ID, TokenID: rec.TokenID, VirtualNad: rec.VirtualNad,
		VirtualToken: rec.VirtualToken, ReserveToken: rec.ReserveToken,
		LatestTradeAt: rec.LatestTradeAt.Int64(), Price: rec.Price,
		CreatedAt: rec.CreatedAt.Int64(),
	}, nil
}

func decodeChart(raw json.RawMessage) (*model.ChartBucket, error) {
	var rec struct {
		ID         flexInt64       `json:"id"`
		TokenID    string          `json:"token_id"`
		OpenPrice  decimal.Decimal `json:"open_price"`
		ClosePrice decimal.Decimal `json:"close_price"`
		HighPrice  decimal.Decimal `json:"high_price"`
		LowPrice   decimal.Decimal `json:"low_price"`
		CreatedAt  flexInt64       `json:"created_at"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &model.ChartBucket{
		ID: rec.ID.Int64(), TokenID: rec.TokenID, OpenPrice: rec.OpenPrice,
		ClosePrice: rec.ClosePrice, HighPrice: rec.HighPrice, LowPrice: rec.LowPrice,
		CreatedAt: rec.CreatedAt.Int64(),
	}, nil
}

func decodeBalance(raw json.RawMessage) (*model.Balance, error) {
	var rec struct {
		ID      flexInt64       `json:"id"`
		TokenID string          `json:"token_id"`
		Account string          `json:"account"`
		Amount  decimal.Decimal `json:"amount"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &model.Balance{ID: rec.ID.Int64(), TokenID: rec.TokenID, Account: rec.Account, Amount: rec.Amount}, nil
}

func decodeThread(raw json.RawMessage) (*model.Thread, error) {
	var rec struct {
		ID         flexInt64  `json:"id"`
		TokenID    string     `json:"token_id"`
		AuthorID   string     `json:"author_id"`
		Content    string     `json:"content"`
		CreatedAt  flexInt64  `json:"created_at"`
		UpdatedAt  flexInt64  `json:"updated_at"`
		RootID     *flexInt64 `json:"root_id"`
		LikesCount flexInt32  `json:"likes_count"`
		ReplyCount flexInt32  `json:"reply_count"`
		ImageURI   string     `json:"image_uri"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	t := &model.Thread{
		ID: rec.ID.Int64(), TokenID: rec.TokenID, AuthorID: rec.AuthorID, Content: rec.Content,
		CreatedAt: rec.CreatedAt.Int64(), UpdatedAt: rec.UpdatedAt.Int64(),
		LikesCount: rec.LikesCount.Int32(), ReplyCount: rec.ReplyCount.Int32(), ImageURI: rec.ImageURI,
	}
	if rec.RootID != nil {
		v := rec.RootID.Int64()
		t.RootID = &v
	}
	return t, nil
}

func decodeReplyCount(raw json.RawMessage) (*model.TokenReplyCount, error) {
	var rec struct {
		TokenID    string    `json:"token_id"`
		ReplyCount flexInt32 `json:"reply_count"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &model.TokenReplyCount{TokenID: rec.TokenID, ReplyCount: rec.ReplyCount.Int32()}, nil
}
