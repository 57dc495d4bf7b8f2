package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlexInt64_Number(t *testing.T) {
	var f flexInt64
	require.NoError(t, json.Unmarshal([]byte(`42`), &f))
	require.Equal(t, int64(42), f.Int64())
}

func TestFlexInt64_String(t *testing.T) {
	var f flexInt64
	require.NoError(t, json.Unmarshal([]byte(`"42"`), &f))
	require.Equal(t, int64(42), f.Int64())
}

func TestFlexInt64_EmptyString(t *testing.T) {
	var f flexInt64
	require.NoError(t, json.Unmarshal([]byte(`""`), &f))
	require.Equal(t, int64(0), f.Int64())
}

func TestFlexInt64_Null(t *testing.T) {
	var f flexInt64
	require.NoError(t, json.Unmarshal([]byte(`null`), &f))
	require.Equal(t, int64(0), f.Int64())
}

func TestFlexInt64_InvalidString(t *testing.T) {
	var f flexInt64
	require.Error(t, json.Unmarshal([]byte(`"not-a-number"`), &f))
}

func TestFlexInt32_String(t *testing.T) {
	var f flexInt32
	require.NoError(t, json.Unmarshal([]byte(`"7"`), &f))
	require.Equal(t, int32(7), f.Int32())
}
