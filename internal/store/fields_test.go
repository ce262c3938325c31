package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListRoundTrip(t *testing.T) {
	items := []string{"/tmp/a", "/tmp/b c", "/tmp/d"}

	encoded, err := encodeList(items)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a|/tmp/b c|/tmp/d", encoded.String)
	assert.Equal(t, items, decodeList(encoded))
}

func TestEncodeListRejectsDelimiter(t *testing.T) {
	_, err := encodeList([]string{"/tmp/bad|name"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delimiter")
}

func TestEncodeListEmptyIsNull(t *testing.T) {
	encoded, err := encodeList(nil)
	require.NoError(t, err)
	assert.False(t, encoded.Valid)
	assert.Nil(t, decodeList(encoded))
}

func TestIntListRoundTrip(t *testing.T) {
	encoded, err := encodeIntList([]int{0, 2, 137})
	require.NoError(t, err)
	assert.Equal(t, "0|2|137", encoded.String)

	decoded, err := decodeIntList(encoded)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 137}, decoded)
}

func TestDecodeIntListRejectsGarbage(t *testing.T) {
	_, err := decodeIntList(sql.NullString{String: "1|x", Valid: true})
	assert.Error(t, err)
}

func TestDurationRoundTrip(t *testing.T) {
	d := 90 * time.Second
	encoded := encodeDuration(&d)
	assert.Equal(t, 90.0, encoded.Float64)

	decoded := decodeDuration(encoded)
	require.NotNil(t, decoded)
	assert.Equal(t, d, *decoded)

	assert.Nil(t, decodeDuration(encodeDuration(nil)))
}

func TestTimeRoundTrip(t *testing.T) {
	now := time.Now()
	decoded, err := decodeTime(encodeTime(&now))
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, now.Equal(*decoded))

	nilTime, err := decodeTime(encodeTime(nil))
	require.NoError(t, err)
	assert.Nil(t, nilTime)
}

func TestTimeEncodingSortsLexically(t *testing.T) {
	// Sub-second boundaries are the classic trap for trimmed encodings.
	t1 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	t2 := time.Date(2026, 1, 2, 3, 4, 5, 500_000_000, time.UTC)

	assert.Less(t, encodeTime(&t1).String, encodeTime(&t2).String)
}
