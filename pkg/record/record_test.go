package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() LinkedAccountRecord {
	return LinkedAccountRecord{
		Category:  CategoryTypeA,
		Address:   "acct-0x51f9eb2cc0",
		PublicKey: "04bfcab1e3",
		Provider:  map[string]string{"name": "example-bank", "region": "eu"},
		LinkedAt:  time.Unix(1700000000, 0).UTC(),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := sampleRecord()

	data, err := rec.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, rec.Equal(decoded), "decoded record differs from original")
}

func TestEncodeIsDeterministic(t *testing.T) {
	rec := sampleRecord()

	first, err := rec.Encode()
	require.NoError(t, err)
	second, err := rec.Encode()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDigestIsStable(t *testing.T) {
	rec := sampleRecord()

	d1, err := rec.Digest()
	require.NoError(t, err)
	d2, err := rec.Digest()
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	// A different record must not collide on the same digest.
	other := sampleRecord()
	other.Address = "acct-0x77aa01d3fe"
	d3, err := other.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

func TestCategoryTags(t *testing.T) {
	for _, cat := range Categories() {
		parsed, err := ParseCategory(cat.String())
		require.NoError(t, err)
		assert.Equal(t, cat, parsed)
	}
}

func TestParseCategoryUnknown(t *testing.T) {
	_, err := ParseCategory("type-z")
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownCategory(t *testing.T) {
	_, err := Decode([]byte(`{"category":"type-z","linkedAt":"2023-11-14T22:13:20Z"}`))
	assert.Error(t, err)
}

func TestEqualIgnoresTimeRepresentation(t *testing.T) {
	rec := sampleRecord()
	other := rec
	other.LinkedAt = rec.LinkedAt.In(time.FixedZone("UTC+2", 2*60*60))
	assert.True(t, rec.Equal(other))
}
