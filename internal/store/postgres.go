// Package store holds the enrichment reader (Postgres) and the
// leaderboard store (Redis).
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"tokenrank/internal/model"
)

// Postgres is the read-only enrichment reader: it assembles the projections
// the leaderboard engine and subscription protocol need, joining across the
// token/account/curve/thread/reply-count relations the same way the ingest
// loop's source tables are laid out.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a connection pool against url.
func NewPostgres(ctx context.Context, url string, maxConns int32) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("store: parse postgres config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Pool exposes the underlying connection pool so the ingest loop can borrow
// a dedicated connection for LISTEN, sharing the same pool as every other
// reader per the ~50-connection budget.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

const tokenAndUserInfoQuery = `
SELECT t.id, t.symbol, t.image_uri, a.nickname, a.image_uri
FROM token t
JOIN account a ON a.id = $2
WHERE t.id = $1
`

// TokenAndUserInfo looks up the token/user identity pair used to enrich a
// new-content notification: the token's symbol and image alongside the
// acting user's nickname and avatar. userID is the event's actor — the
// token's creator for a token-created event, the swap's sender for a
// trade — not necessarily the token's creator. Fails if either row is
// absent.
func (p *Postgres) TokenAndUserInfo(ctx context.Context, tokenID, userID string) (*model.TokenAndUserInfo, error) {
	var info model.TokenAndUserInfo
	err := p.pool.QueryRow(ctx, tokenAndUserInfoQuery, tokenID, userID).Scan(
		&info.TokenID, &info.Symbol, &info.ImageURI, &info.Nickname, &info.UserImageURI)
	if err != nil {
		return nil, fmt.Errorf("store: token and user info %s/%s: %w", tokenID, userID, err)
	}
	return &info, nil
}

const orderTokenQuery = `
SELECT
	t.id,
	t.name,
	t.symbol,
	t.image_uri,
	t.description,
	t.created_at,
	COALESCE(trc.reply_count::TEXT, '0') AS reply_count,
	COALESCE(cu.price::TEXT, '0') AS price,
	COALESCE(a.nickname, '') AS nickname,
	COALESCE(a.image_uri, '') AS user_image_uri
FROM token t
LEFT JOIN account a ON t.creator = a.id
LEFT JOIN token_reply_count trc ON t.id = trc.token_id
LEFT JOIN curve cu ON t.id = cu.token_id
WHERE t.id = $1
`

// OrderTokenSummary assembles the leaderboard member projection for a
// single token, joining creator/reply-count/curve in one round trip.
func (p *Postgres) OrderTokenSummary(ctx context.Context, tokenID string) (*model.OrderTokenSummary, error) {
	row := p.pool.QueryRow(ctx, orderTokenQuery, tokenID)

	var s model.OrderTokenSummary
	if err := row.Scan(&s.ID, &s.Name, &s.Symbol, &s.ImageURI, &s.Description,
		&s.CreatedAt, &s.ReplyCount, &s.Price, &s.UserInfo.Nickname, &s.UserInfo.ImageURI); err != nil {
		return nil, fmt.Errorf("store: order token summary %s: %w", tokenID, err)
	}
	return &s, nil
}

const orderTokenBatchQuery = orderTokenQueryForIDs

// orderTokenQueryForIDs reuses the single-token projection over a set of
// ids, matching the original's two-step "fetch sorted ids, then hydrate"
// bulk-load shape used by initial window population.
const orderTokenQueryForIDs = `
SELECT
	t.id,
	t.name,
	t.symbol,
	t.image_uri,
	t.description,
	t.created_at,
	COALESCE(trc.reply_count::TEXT, '0') AS reply_count,
	COALESCE(cu.price::TEXT, '0') AS price,
	COALESCE(a.nickname, '') AS nickname,
	COALESCE(a.image_uri, '') AS user_image_uri
FROM token t
LEFT JOIN account a ON t.creator = a.id
LEFT JOIN token_reply_count trc ON t.id = trc.token_id
LEFT JOIN curve cu ON t.id = cu.token_id
WHERE t.id = ANY($1)
`

// OrderTokenSummaries hydrates a batch of ids in one round trip, used to
// seed a leaderboard window at startup.
func (p *Postgres) OrderTokenSummaries(ctx context.Context, ids []string) (map[string]*model.OrderTokenSummary, error) {
	rows, err := p.pool.Query(ctx, orderTokenBatchQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("store: order token summaries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*model.OrderTokenSummary, len(ids))
	for rows.Next() {
		var s model.OrderTokenSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Symbol, &s.ImageURI, &s.Description,
			&s.CreatedAt, &s.ReplyCount, &s.Price, &s.UserInfo.Nickname, &s.UserInfo.ImageURI); err != nil {
			return nil, fmt.Errorf("store: scan order token summary: %w", err)
		}
		out[s.ID] = &s
	}
	return out, rows.Err()
}

// idScore is one row of a ranking seed query: a token id paired with the
// raw sort key for that ordering.
type idScore struct {
	ID    string
	Score string
}

var seedQueries = map[string]string{
	"creation_time": `SELECT id, created_at::TEXT AS score FROM token ORDER BY created_at DESC LIMIT $1`,
	"market_cap":    `SELECT token_id AS id, price::TEXT AS score FROM curve ORDER BY price DESC LIMIT $1`,
	"reply_count":   `SELECT token_id AS id, reply_count::TEXT AS score FROM token_reply_count ORDER BY reply_count DESC LIMIT $1`,
	"latest_reply":  `SELECT id, score FROM (SELECT DISTINCT ON (token_id) token_id AS id, created_at, created_at::TEXT AS score FROM thread ORDER BY token_id, created_at DESC) latest ORDER BY created_at DESC LIMIT $1`,
	"bump":          `SELECT id, score FROM (SELECT DISTINCT ON (token_id) token_id AS id, created_at, created_at::TEXT AS score FROM swap ORDER BY token_id, created_at DESC) latest ORDER BY created_at DESC LIMIT $1`,
}

// SeedWindow returns the top `limit` (token id, score) pairs for one of the
// five leaderboard orderings, used to populate a window from cold start.
func (p *Postgres) SeedWindow(ctx context.Context, orderType string, limit int64) ([]string, []decimal.Decimal, error) {
	query, ok := seedQueries[orderType]
	if !ok {
		return nil, nil, fmt.Errorf("store: unknown order type %q", orderType)
	}

	rows, err := p.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("store: seed window %s: %w", orderType, err)
	}
	defer rows.Close()

	var ids []string
	var scores []decimal.Decimal
	for rows.Next() {
		var r idScore
		if err := rows.Scan(&r.ID, &r.Score); err != nil {
			return nil, nil, fmt.Errorf("store: scan seed row: %w", err)
		}
		score, err := decimal.NewFromString(r.Score)
		if err != nil {
			score = decimal.Zero
		}
		ids = append(ids, r.ID)
		scores = append(scores, score)
	}
	return ids, scores, rows.Err()
}

const searchQuery = `
SELECT
	t.id,
	t.name,
	t.symbol,
	t.image_uri,
	t.description,
	t.created_at,
	COALESCE(trc.reply_count::TEXT, '0') AS reply_count,
	COALESCE(cu.price::TEXT, '0') AS price,
	COALESCE(a.nickname, '') AS nickname,
	COALESCE(a.image_uri, '') AS user_image_uri
FROM token t
LEFT JOIN account a ON t.creator = a.id
LEFT JOIN token_reply_count trc ON t.id = trc.token_id
LEFT JOIN curve cu ON t.id = cu.token_id
WHERE LOWER(t.name) LIKE $1 OR LOWER(t.symbol) LIKE $1
ORDER BY cu.price DESC NULLS LAST
LIMIT 50
`

// Search returns up to 50 tokens whose name or symbol contains query,
// ignoring case, ordered by market cap descending.
func (p *Postgres) Search(ctx context.Context, query string) ([]model.OrderTokenSummary, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := p.pool.Query(ctx, searchQuery, pattern)
	if err != nil {
		return nil, fmt.Errorf("store: search %q: %w", query, err)
	}
	defer rows.Close()

	var out []model.OrderTokenSummary
	for rows.Next() {
		var s model.OrderTokenSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Symbol, &s.ImageURI, &s.Description,
			&s.CreatedAt, &s.ReplyCount, &s.Price, &s.UserInfo.Nickname, &s.UserInfo.ImageURI); err != nil {
			return nil, fmt.Errorf("store: scan search row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const tokenPageQuery = `SELECT id, virtual_nad, virtual_token, reserve_token, latest_trade_at, price, created_at FROM curve WHERE token_id = $1`

// TokenPage assembles the full per-token snapshot (curve, recent swaps,
// chart buckets, balances, threads) sent as the initial payload of a
// token_subscribe response.
func (p *Postgres) TokenPage(ctx context.Context, tokenID string, interval model.ChartInterval) (*model.TokenPage, error) {
	page := &model.TokenPage{ID: tokenID}

	var c model.Curve
	err := p.pool.QueryRow(ctx, tokenPageQuery, tokenID).Scan(
		&c.ID, &c.VirtualNad, &c.VirtualToken, &c.ReserveToken, &c.LatestTradeAt, &c.Price, &c.CreatedAt)
	switch {
	case err == nil:
		c.TokenID = tokenID
		page.Curve = &c
	default:
		// a token with no curve yet (pre-launch) has no market-cap row
	}

	swapRows, err := p.pool.Query(ctx,
		`SELECT id, sender, is_buy, nad_amount, token_amount, created_at, transaction_hash FROM swap WHERE token_id = $1 ORDER BY created_at DESC LIMIT 100`,
		tokenID)
	if err != nil {
		return nil, fmt.Errorf("store: token page swaps: %w", err)
	}
	defer swapRows.Close()
	for swapRows.Next() {
		var s model.Swap
		if err := swapRows.Scan(&s.ID, &s.Sender, &s.IsBuy, &s.NadAmount, &s.TokenAmount, &s.CreatedAt, &s.TransactionHash); err != nil {
			return nil, fmt.Errorf("store: scan swap: %w", err)
		}
		s.TokenID = tokenID
		page.Swaps = append(page.Swaps, s)
	}

	chartRows, err := p.pool.Query(ctx,
		`SELECT id, open_price, close_price, high_price, low_price, created_at FROM chart_`+string(interval)+` WHERE token_id = $1 ORDER BY created_at DESC LIMIT 500`,
		tokenID)
	if err != nil {
		return nil, fmt.Errorf("store: token page charts: %w", err)
	}
	defer chartRows.Close()
	for chartRows.Next() {
		var cb model.ChartBucket
		if err := chartRows.Scan(&cb.ID, &cb.OpenPrice, &cb.ClosePrice, &cb.HighPrice, &cb.LowPrice, &cb.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan chart bucket: %w", err)
		}
		cb.TokenID = tokenID
		page.Charts = append(page.Charts, cb)
	}

	balRows, err := p.pool.Query(ctx, `SELECT id, account, amount FROM balance WHERE token_id = $1`, tokenID)
	if err != nil {
		return nil, fmt.Errorf("store: token page balances: %w", err)
	}
	defer balRows.Close()
	for balRows.Next() {
		var b model.Balance
		if err := balRows.Scan(&b.ID, &b.Account, &b.Amount); err != nil {
			return nil, fmt.Errorf("store: scan balance: %w", err)
		}
		b.TokenID = tokenID
		page.Balances = append(page.Balances, b)
	}

	threadRows, err := p.pool.Query(ctx,
		`SELECT id, author_id, content, created_at, updated_at, root_id, likes_count, reply_count, image_uri FROM thread WHERE token_id = $1 ORDER BY created_at DESC LIMIT 200`,
		tokenID)
	if err != nil {
		return nil, fmt.Errorf("store: token page threads: %w", err)
	}
	defer threadRows.Close()
	for threadRows.Next() {
		var t model.Thread
		if err := threadRows.Scan(&t.ID, &t.AuthorID, &t.Content, &t.CreatedAt, &t.UpdatedAt, &t.RootID, &t.LikesCount, &t.ReplyCount, &t.ImageURI); err != nil {
			return nil, fmt.Errorf("store: scan thread: %w", err)
		}
		t.TokenID = tokenID
		page.Threads = append(page.Threads, t)
	}

	return page, nil
}
