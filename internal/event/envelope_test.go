package event

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tokenrank/internal/model"
)

func TestParse_Token(t *testing.T) {
	raw := []byte(`{
		"operation": "insert",
		"token_id": "",
		"record": {
			"id": "tok1", "name": "Mon Cat", "symbol": "MCAT", "creator": "acct1",
			"description": "a cat", "image_uri": "img", "twitter": "", "telegram": "",
			"website": "", "is_listing": false, "pair": "",
			"created_at": "1700000000", "create_transaction_hash": "0xabc", "is_updated": false
		}
	}`)

	ev, err := Parse(string(ChannelToken), raw)
	require.NoError(t, err)
	require.Equal(t, ChannelToken, ev.Channel)
	require.Equal(t, OpInsert, ev.Operation)
	require.NotNil(t, ev.Token)
	require.Equal(t, "tok1", ev.TokenID)
	require.Equal(t, int64(1700000000), ev.Token.CreatedAt)
}

func TestParse_Swap(t *testing.T) {
	raw := []byte(`{
		"operation": "insert",
		"record": {
			"id": 9, "token_id": "tok1", "sender": "acct1", "is_buy": true,
			"nad_amount": "1.5", "token_amount": "1000", "created_at": 1700000001,
			"transaction_hash": "0xdef"
		}
	}`)

	ev, err := Parse(string(ChannelSwap), raw)
	require.NoError(t, err)
	require.NotNil(t, ev.Swap)
	require.Equal(t, "tok1", ev.TokenID)
	require.True(t, ev.Swap.IsBuy)
	require.Equal(t, int64(9), ev.Swap.ID)
}

func TestParse_Curve(t *testing.T) {
	raw := []byte(`{
		"operation": "update",
		"record": {
			"id": "curve1", "token_id": "tok1", "virtual_nad": "30", "virtual_token": "1000000",
			"reserve_token": "900000", "latest_trade_at": "1700000002", "price": "0.00003",
			"created_at": "1699999999"
		}
	}`)

	ev, err := Parse(string(ChannelCurve), raw)
	require.NoError(t, err)
	require.NotNil(t, ev.Curve)
	require.Equal(t, "tok1", ev.TokenID)
	require.Equal(t, OpUpdate, ev.Operation)
}

func TestParse_Chart(t *testing.T) {
	raw := []byte(`{
		"operation": "insert",
		"chart_type": "1m",
		"record": {
			"id": 5, "token_id": "tok1", "open_price": "1", "close_price": "2",
			"high_price": "2.5", "low_price": "0.9", "created_at": "1700000003"
		}
	}`)

	ev, err := Parse(string(ChannelChart), raw)
	require.NoError(t, err)
	require.NotNil(t, ev.Chart)
	require.Equal(t, model.Interval1m, ev.ChartInterval)
	require.Equal(t, "tok1", ev.TokenID)
}

func TestParse_Chart_InvalidInterval(t *testing.T) {
	raw := []byte(`{
		"operation": "insert",
		"chart_type": "17m",
		"record": {
			"id": 5, "token_id": "tok1", "open_price": "1", "close_price": "2",
			"high_price": "2.5", "low_price": "0.9", "created_at": "1700000003"
		}
	}`)

	_, err := Parse(string(ChannelChart), raw)
	require.Error(t, err)
}

func TestParse_Balance(t *testing.T) {
	raw := []byte(`{
		"operation": "update",
		"record": {
			"id": 1, "token_id": "tok1", "account": "acct1", "amount": "42.5"
		}
	}`)

	ev, err := Parse(string(ChannelBalance), raw)
	require.NoError(t, err)
	require.NotNil(t, ev.Balance)
	require.Equal(t, "tok1", ev.TokenID)
	require.Equal(t, "acct1", ev.Balance.Account)
}

func TestParse_Thread(t *testing.T) {
	raw := []byte(`{
		"operation": "insert",
		"record": {
			"id": "12", "token_id": "tok1", "author_id": "acct1", "content": "gm",
			"created_at": "1700000004", "updated_at": "1700000004", "root_id": null,
			"likes_count": "0", "reply_count": 0, "image_uri": ""
		}
	}`)

	ev, err := Parse(string(ChannelThread), raw)
	require.NoError(t, err)
	require.NotNil(t, ev.Thread)
	require.Equal(t, "tok1", ev.TokenID)
	require.Nil(t, ev.Thread.RootID)
}

func TestParse_Thread_WithRootID(t *testing.T) {
	raw := []byte(`{
		"operation": "insert",
		"record": {
			"id": "13", "token_id": "tok1", "author_id": "acct1", "content": "reply",
			"created_at": "1700000005", "updated_at": "1700000005", "root_id": "12",
			"likes_count": 0, "reply_count": 0, "image_uri": ""
		}
	}`)

	ev, err := Parse(string(ChannelThread), raw)
	require.NoError(t, err)
	require.NotNil(t, ev.Thread.RootID)
	require.Equal(t, int64(12), *ev.Thread.RootID)
}

func TestParse_ReplyCount(t *testing.T) {
	raw := []byte(`{
		"operation": "update",
		"record": {"token_id": "tok1", "reply_count": "7"}
	}`)

	ev, err := Parse(string(ChannelReplyCount), raw)
	require.NoError(t, err)
	require.NotNil(t, ev.ReplyCount)
	require.Equal(t, int32(7), ev.ReplyCount.ReplyCount)
	require.Equal(t, "tok1", ev.TokenID)
}

func TestParse_UnknownChannel(t *testing.T) {
	raw := []byte(`{"operation": "insert", "record": {}}`)
	_, err := Parse("some_other_channel", raw)
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "some_other_channel", perr.Channel)
}

func TestParse_UnknownOperationPreserved(t *testing.T) {
	raw := []byte(`{
		"operation": "truncate",
		"record": {"token_id": "tok1", "reply_count": "0"}
	}`)

	ev, err := Parse(string(ChannelReplyCount), raw)
	require.NoError(t, err)
	require.Equal(t, Operation("truncate"), ev.Operation)
}

func TestParse_MalformedEnvelope(t *testing.T) {
	_, err := Parse(string(ChannelToken), []byte(`not json`))
	require.Error(t, err)
}
