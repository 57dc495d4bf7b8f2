// Package model holds the data-model entities shared by the enrichment
// reader, the leaderboard engine, and the subscription protocol.
package model

import (
	"github.com/shopspring/decimal"
)

// Token mirrors the `token` relation.
type Token struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Symbol                string `json:"symbol"`
	Creator               string `json:"creator"`
	Description           string `json:"description,omitempty"`
	ImageURI              string `json:"image_uri"`
	Twitter               string `json:"twitter,omitempty"`
	Telegram              string `json:"telegram,omitempty"`
	Website               string `json:"website,omitempty"`
	IsListing             bool   `json:"is_listing"`
	Pair                  string `json:"pair,omitempty"`
	CreatedAt             int64  `json:"created_at"`
	CreateTransactionHash string `json:"create_transaction_hash"`
	IsUpdated             bool   `json:"is_updated"`
}

// Account mirrors the `account` relation. ID is an on-chain address.
type Account struct {
	ID             string `json:"id"`
	Nickname       string `json:"nickname"`
	Bio            string `json:"bio"`
	ImageURI       string `json:"image_uri"`
	FollowerCount  int32  `json:"follower_count"`
	FollowingCount int32  `json:"following_count"`
	LikeCount      int32  `json:"like_count"`
}

// Curve mirrors the `curve` relation; Price is the market-cap ranking score.
type Curve struct {
	ID            string          `json:"id"`
	TokenID       string          `json:"token_id"`
	VirtualNad    decimal.Decimal `json:"virtual_nad"`
	VirtualToken  decimal.Decimal `json:"virtual_token"`
	ReserveToken  decimal.Decimal `json:"reserve_token"`
	LatestTradeAt int64           `json:"latest_trade_at"`
	Price         decimal.Decimal `json:"price"`
	CreatedAt     int64           `json:"created_at"`
}

// Swap mirrors the `swap` relation.
type Swap struct {
	ID              int64           `json:"id"`
	TokenID         string          `json:"token_id"`
	Sender          string          `json:"sender"`
	IsBuy           bool            `json:"is_buy"`
	NadAmount       decimal.Decimal `json:"nad_amount"`
	TokenAmount     decimal.Decimal `json:"token_amount"`
	CreatedAt       int64           `json:"created_at"`
	TransactionHash string          `json:"transaction_hash"`
}

// ChartInterval is one of the fixed OHLC bucket widths.
type ChartInterval string

const (
	Interval1m  ChartInterval = "1m"
	Interval5m  ChartInterval = "5m"
	Interval15m ChartInterval = "15m"
	Interval30m ChartInterval = "30m"
	Interval1h  ChartInterval = "1h"
	Interval4h  ChartInterval = "4h"
	Interval1d  ChartInterval = "1d"
)

// ValidChartInterval reports whether s names one of the fixed intervals.
func ValidChartInterval(s string) bool {
	switch ChartInterval(s) {
	case Interval1m, Interval5m, Interval15m, Interval30m, Interval1h, Interval4h, Interval1d:
		return true
	default:
		return false
	}
}

// ChartBucket mirrors one row of the interval-specific chart relation.
type ChartBucket struct {
	ID        int64           `json:"id"`
	TokenID   string          `json:"token_id"`
	OpenPrice decimal.Decimal `json:"open_price"`
	ClosePrice decimal.Decimal `json:"close_price"`
	HighPrice decimal.Decimal `json:"high_price"`
	LowPrice  decimal.Decimal `json:"low_price"`
	CreatedAt int64           `json:"created_at"`
}

// Balance mirrors the `balance` relation.
type Balance struct {
	ID      int64           `json:"id"`
	TokenID string          `json:"token_id"`
	Account string          `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
}

// Thread mirrors the `thread` relation.
type Thread struct {
	ID          int64  `json:"id"`
	TokenID     string `json:"token_id"`
	AuthorID    string `json:"author_id"`
	Content     string `json:"content"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	RootID      *int64 `json:"root_id,omitempty"`
	LikesCount  int32  `json:"likes_count"`
	ReplyCount  int32  `json:"reply_count"`
	ImageURI    string `json:"image_uri,omitempty"`
}

// TokenReplyCount mirrors the denormalized `token_reply_count` relation.
type TokenReplyCount struct {
	TokenID    string `json:"token_id"`
	ReplyCount int32  `json:"reply_count"`
}

// UserInfo is the nickname/avatar slice of an Account carried inside
// enrichment projections.
type UserInfo struct {
	Nickname string `json:"nickname"`
	ImageURI string `json:"image_uri"`
}

// TokenAndUserInfo is the result of the single-row inner-join projection
// used by token-created and swap new-content enrichment.
type TokenAndUserInfo struct {
	TokenID      string `json:"token_id"`
	Symbol       string `json:"symbol"`
	ImageURI     string `json:"image_uri"`
	Nickname     string `json:"nickname"`
	UserImageURI string `json:"user_image_uri"`
}

// OrderTokenSummary is the assembled leaderboard member: `order_token` in
// the wire protocol, and the sorted-set member once canonically encoded.
type OrderTokenSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	ImageURI    string   `json:"image_uri"`
	Description string   `json:"description"`
	ReplyCount  string   `json:"reply_count"`
	Price       string   `json:"price"`
	UserInfo    UserInfo `json:"user_info"`
	CreatedAt   int64    `json:"created_at"`
}

// TokenPage is the full per-token snapshot assembled by the enrichment
// reader and sent as the initial payload of a token_subscribe response.
type TokenPage struct {
	ID       string        `json:"id"`
	Swaps    []Swap        `json:"swaps"`
	Charts   []ChartBucket `json:"charts"`
	Balances []Balance     `json:"balances"`
	Curve    *Curve        `json:"curve,omitempty"`
	Threads  []Thread      `json:"threads"`
}

// HoldingToken is one row of an account's held-token listing, carrying the
// balance and current price alongside the token itself so the handler does
// not need a second round trip to rank holdings by value.
type HoldingToken struct {
	Token   Token           `json:"token"`
	Balance decimal.Decimal `json:"balance"`
	Price   decimal.Decimal `json:"price"`
}
