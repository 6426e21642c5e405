package net

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/twofish"
)

// Outbound stream transforms. Each connection gets a fresh transform seeded
// from the value sent in its plaintext preamble (the login seed, or the relay
// key on the game connection). Transforms are stream ciphers: the keystream
// depends only on the seed, so the same transform reverses itself.

const (
	EncryptionNone    = "none"
	EncryptionXOR     = "xor"
	EncryptionTwofish = "twofish"
)

// NewTransform builds the outbound transform for a connection. A nil stream
// with nil error means the stream is sent as-is.
func NewTransform(kind string, seed uint32) (cipher.Stream, error) {
	switch kind {
	case "", EncryptionNone:
		return nil, nil
	case EncryptionXOR:
		return NewLoginCipher(seed), nil
	case EncryptionTwofish:
		return newTwofishStream(seed)
	default:
		return nil, fmt.Errorf("unknown encryption %q", kind)
	}
}

const (
	loginMask1 = 0x2C13A5FD
	loginMask2 = 0xA39D527F
)

// LoginCipher is the rolling two-key XOR cipher used on the login connection.
// Both keys are derived from the connection seed and shift into each other
// after every byte.
type LoginCipher struct {
	key1, key2 uint32
}

// NewLoginCipher creates a cipher initialized with the given seed.
func NewLoginCipher(seed uint32) *LoginCipher {
	return &LoginCipher{
		key1: ((^seed ^ 0x00001357) << 16) | ((seed ^ 0xFFFFAAAA) & 0x0000FFFF),
		key2: ((seed ^ 0x43210000) >> 16) | ((^seed ^ 0xABCDFFFF) & 0xFFFF0000),
	}
}

// XORKeyStream implements cipher.Stream. dst and src may overlap entirely.
func (c *LoginCipher) XORKeyStream(dst, src []byte) {
	for i, b := range src {
		dst[i] = b ^ byte(c.key1)
		k1, k2 := c.key1, c.key2
		c.key2 = ((k2 >> 1) | (k1 << 31)) ^ loginMask2
		c.key1 = ((k1 >> 1) | (k2 << 31)) ^ loginMask1
	}
}

// newTwofishStream runs twofish in counter mode keyed by the seed repeated
// over the 16 byte key.
func newTwofishStream(seed uint32) (cipher.Stream, error) {
	var key [16]byte
	for i := 0; i < len(key); i += 4 {
		binary.BigEndian.PutUint32(key[i:], seed)
	}
	block, err := twofish.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("twofish key: %w", err)
	}
	iv := make([]byte, block.BlockSize())
	binary.BigEndian.PutUint32(iv, ^seed)
	return cipher.NewCTR(block, iv), nil
}
