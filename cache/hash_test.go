package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest_Hash(t *testing.T) {
	tests := []struct {
		name   string
		digest Digest
		data   []byte
		expect string
	}{
		{name: "md5 empty", digest: MD5, data: []byte{}, expect: "d41d8cd98f00b204e9800998ecf8427e"},
		{name: "md5 abc", digest: MD5, data: []byte("abc"), expect: "900150983cd24fb0d6963f7d28e17f72"},
		{name: "default is md5", digest: "", data: []byte("abc"), expect: "900150983cd24fb0d6963f7d28e17f72"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := tc.digest.Hash(tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, actual)
		})
	}
}

func TestDigest_Highway128(t *testing.T) {
	first, err := Highway128.Hash([]byte("payload"))
	require.NoError(t, err)
	second, err := Highway128.Hash([]byte("payload"))
	require.NoError(t, err)
	other, err := Highway128.Hash([]byte("payload2"))
	require.NoError(t, err)

	assert.Len(t, first, 32)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Regexp(t, "^[0-9a-f]{32}$", first)
}

func TestParseDigest(t *testing.T) {
	d, err := ParseDigest("")
	require.NoError(t, err)
	assert.Equal(t, MD5, d)

	d, err = ParseDigest(" HighWay128 ")
	require.NoError(t, err)
	assert.Equal(t, Highway128, d)

	_, err = ParseDigest("sha1")
	assert.Error(t, err)

	_, err = Digest("crc").Hash([]byte("x"))
	assert.Error(t, err)
}
