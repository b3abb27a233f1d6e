package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/minio/highwayhash"
)

// Digest identifies a 128-bit content digest algorithm
type Digest string

const (
	// MD5 is the digest written by earlier releases of the tool
	MD5 Digest = "md5"
	// Highway128 is HighwayHash-128 with a fixed key
	Highway128 Digest = "highway128"
)

var key = []byte("0123456789ABCDEF0123456789ABCDEF")

// ParseDigest resolves a digest name, empty name falls back to MD5
func ParseDigest(name string) (Digest, error) {
	switch Digest(strings.ToLower(strings.TrimSpace(name))) {
	case "", MD5:
		return MD5, nil
	case Highway128:
		return Highway128, nil
	}
	return "", fmt.Errorf("unsupported digest: %q", name)
}

// Hash returns lowercase hex digest of data
func (d Digest) Hash(data []byte) (string, error) {
	switch d {
	case "", MD5:
		sum := md5.Sum(data)
		return hex.EncodeToString(sum[:]), nil
	case Highway128:
		h, err := highwayhash.New128(key)
		if err != nil {
			return "", err
		}
		if _, err = h.Write(data); err != nil {
			return "", err
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	}
	return "", fmt.Errorf("unsupported digest: %q", string(d))
}
