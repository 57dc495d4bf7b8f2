package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOrderType(t *testing.T) {
	for _, ot := range AllOrderTypes {
		parsed, err := ParseOrderType(string(ot))
		require.NoError(t, err)
		require.Equal(t, ot, parsed)
	}

	_, err := ParseOrderType("not_a_real_order_type")
	require.Error(t, err)
}

func TestOrderLatestReplyWireForm(t *testing.T) {
	require.Equal(t, OrderType("latest_reply"), OrderLatestReply)
}
