package policyfile

import (
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	huge, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	tests := []struct {
		name string
		in   any
		want uint64
		big  *big.Int
	}{
		{"nil", nil, 0, nil},
		{"int", 42, 42, nil},
		{"uint64", uint64(7), 7, nil},
		{"float", float64(3), 3, nil},
		{"decimal string", "1000", 1000, nil},
		{"hex string", "0x10", 16, nil},
		{"json number", json.Number("12"), 12, nil},
		{"uint256", uint256.NewInt(9), 9, nil},
		{"big", big.NewInt(5), 5, nil},
		{"max uint256", huge, 0, huge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Amount(tt.in)
			require.NoError(t, err)
			if tt.big != nil {
				assert.Equal(t, 0, got.ToBig().Cmp(tt.big))
				return
			}
			assert.Equal(t, tt.want, got.Uint64())
		})
	}
}

func TestAmountRejects(t *testing.T) {
	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	for name, in := range map[string]any{
		"negative int":   -1,
		"negative big":   big.NewInt(-1),
		"overflow":       tooBig,
		"fraction":       1.5,
		"garbage string": "ten",
		"bool":           true,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Amount(in)
			assert.Error(t, err)
		})
	}
}

func TestField(t *testing.T) {
	type tagged struct {
		Amount string `json:"amt"`
		Other  string `mapstructure:"other_field"`
		hidden string
	}

	v, ok := Field(map[string]any{"value": 1}, "value")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = Field(map[string]any{"Value": 2}, "value")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = Field(tagged{Amount: "5"}, "amt")
	assert.True(t, ok)
	assert.Equal(t, "5", v)

	v, ok = Field(&tagged{Other: "x"}, "other_field")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	v, ok = Field(map[string]string{"to": "0xabc"}, "to")
	assert.True(t, ok)
	assert.Equal(t, "0xabc", v)

	_, ok = Field(tagged{hidden: "h"}, "hidden")
	assert.False(t, ok)

	_, ok = Field("scalar", "value")
	assert.False(t, ok)

	_, ok = Field(nil, "value")
	assert.False(t, ok)

	var nilPtr *tagged
	_, ok = Field(nilPtr, "amt")
	assert.False(t, ok)
}

func TestAmountLargeFloats(t *testing.T) {
	twoTo64 := new(big.Int).Lsh(big.NewInt(1), 64)

	got, err := Amount(math.Ldexp(1, 64))
	require.NoError(t, err)
	assert.Equal(t, 0, got.ToBig().Cmp(twoTo64), "2^64 must convert exactly, got %s", got.Dec())

	got, err = Amount(1e18)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000_000_000_000), got.Uint64())

	_, err = Amount(math.Ldexp(1, 256))
	assert.Error(t, err, "2^256 overflows")
	_, err = Amount(math.Inf(1))
	assert.Error(t, err)
	_, err = Amount(math.NaN())
	assert.Error(t, err)
}
