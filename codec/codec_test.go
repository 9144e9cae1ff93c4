package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Name    string      `json:"name"`
		Centers [][]float64 `json:"centers"`
	}

	in := payload{Name: "m", Centers: [][]float64{{1.5, -2}, {3, 4}}}

	data, err := JSON{}.Marshal(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, JSON{}.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestCompressionRoundTrip(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeatedly: " +
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(string(c), func(t *testing.T) {
			compressed, err := Compress(c, data)
			require.NoError(t, err)

			out, err := Decompress(c, compressed)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestCompressionByName(t *testing.T) {
	c, ok := CompressionByName("zstd")
	require.True(t, ok)
	assert.Equal(t, CompressionZstd, c)

	_, ok = CompressionByName("brotli")
	assert.False(t, ok)
}

func TestCompressUnsupported(t *testing.T) {
	_, err := Compress(Compression("bogus"), []byte("x"))
	assert.Error(t, err)

	_, err = Decompress(Compression("bogus"), []byte("x"))
	assert.Error(t, err)
}

func TestMustMarshal(t *testing.T) {
	data := MustMarshal(nil, map[string]int{"k": 3})
	assert.JSONEq(t, `{"k":3}`, string(data))

	assert.Panics(t, func() {
		MustMarshal(JSON{}, make(chan int))
	})
}
