package store

import (
	"context"
	"fmt"
	"sort"

	"tokenrank/internal/model"
)

// Profile resolves identifier (either an on-chain address or a nickname)
// to an account, matching the source's single `WHERE nickname = $1 OR id =
// $1` lookup.
func (p *Postgres) Profile(ctx context.Context, identifier string) (*model.Account, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, nickname, bio, image_uri, follower_count, following_count, like_count
		 FROM account WHERE nickname = $1 OR id = $1`, identifier)

	var a model.Account
	if err := row.Scan(&a.ID, &a.Nickname, &a.Bio, &a.ImageURI, &a.FollowerCount, &a.FollowingCount, &a.LikeCount); err != nil {
		return nil, fmt.Errorf("store: profile %q: %w", identifier, err)
	}
	return &a, nil
}

// HoldingTokens lists every token an account holds a nonzero balance of,
// ordered by holding value (balance * price) descending.
func (p *Postgres) HoldingTokens(ctx context.Context, accountID string) ([]model.HoldingToken, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT t.id, t.name, t.symbol, t.image_uri, t.description, t.creator, t.created_at,
		       t.twitter, t.telegram, t.website, t.is_listing, t.create_transaction_hash, t.is_updated,
		       b.amount, COALESCE(cu.price, 0)
		FROM balance b
		JOIN token t ON b.token_id = t.id
		LEFT JOIN curve cu ON t.id = cu.token_id
		WHERE b.account = $1 AND b.amount > 0
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("store: holding tokens %q: %w", accountID, err)
	}
	defer rows.Close()

	var out []model.HoldingToken
	for rows.Next() {
		var h model.HoldingToken
		if err := rows.Scan(&h.Token.ID, &h.Token.Name, &h.Token.Symbol, &h.Token.ImageURI, &h.Token.Description,
			&h.Token.Creator, &h.Token.CreatedAt, &h.Token.Twitter, &h.Token.Telegram, &h.Token.Website,
			&h.Token.IsListing, &h.Token.CreateTransactionHash, &h.Token.IsUpdated, &h.Balance, &h.Price); err != nil {
			return nil, fmt.Errorf("store: scan holding token: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		vi := out[i].Balance.Mul(out[i].Price)
		vj := out[j].Balance.Mul(out[j].Price)
		return vi.GreaterThan(vj)
	})
	return out, nil
}

// AccountReplies lists an account's authored thread posts newest-first.
func (p *Postgres) AccountReplies(ctx context.Context, accountID string) ([]model.Thread, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, token_id, author_id, content, created_at, updated_at, root_id, likes_count, reply_count, image_uri
		 FROM thread WHERE author_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("store: account replies %q: %w", accountID, err)
	}
	defer rows.Close()

	var out []model.Thread
	for rows.Next() {
		var t model.Thread
		if err := rows.Scan(&t.ID, &t.TokenID, &t.AuthorID, &t.Content, &t.CreatedAt, &t.UpdatedAt, &t.RootID, &t.LikesCount, &t.ReplyCount, &t.ImageURI); err != nil {
			return nil, fmt.Errorf("store: scan reply: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreatedTokens lists the tokens an account created newest-first.
func (p *Postgres) CreatedTokens(ctx context.Context, accountID string) ([]model.Token, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, symbol, creator, description, image_uri, twitter, telegram, website,
		        is_listing, pair, created_at, create_transaction_hash, is_updated
		 FROM token WHERE creator = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("store: created tokens %q: %w", accountID, err)
	}
	defer rows.Close()

	var out []model.Token
	for rows.Next() {
		var t model.Token
		if err := rows.Scan(&t.ID, &t.Name, &t.Symbol, &t.Creator, &t.Description, &t.ImageURI, &t.Twitter,
			&t.Telegram, &t.Website, &t.IsListing, &t.Pair, &t.CreatedAt, &t.CreateTransactionHash, &t.IsUpdated); err != nil {
			return nil, fmt.Errorf("store: scan created token: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Followers lists the accounts that follow accountID.
func (p *Postgres) Followers(ctx context.Context, accountID string) ([]model.Account, error) {
	return p.queryFollowGraph(ctx, `
		SELECT a.id, a.nickname, a.bio, a.image_uri, a.follower_count, a.following_count, a.like_count
		FROM follow f JOIN account a ON f.follower_id = a.id
		WHERE f.following_id = $1`, accountID)
}

// Following lists the accounts accountID follows.
func (p *Postgres) Following(ctx context.Context, accountID string) ([]model.Account, error) {
	return p.queryFollowGraph(ctx, `
		SELECT a.id, a.nickname, a.bio, a.image_uri, a.follower_count, a.following_count, a.like_count
		FROM follow f JOIN account a ON f.following_id = a.id
		WHERE f.follower_id = $1`, accountID)
}

func (p *Postgres) queryFollowGraph(ctx context.Context, query, accountID string) ([]model.Account, error) {
	rows, err := p.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("store: follow graph %q: %w", accountID, err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Nickname, &a.Bio, &a.ImageURI, &a.FollowerCount, &a.FollowingCount, &a.LikeCount); err != nil {
			return nil, fmt.Errorf("store: scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
