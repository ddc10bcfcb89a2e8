package net

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// Cipher wraps a pair of ChaCha20 stream ciphers (one per direction) for
// a single session. Each direction gets its own nonce counter so the
// reader and writer goroutines never share mutable cipher state.
type Cipher struct {
	key   [chacha20.KeySize]byte
	encNonce [chacha20.NonceSize]byte
	decNonce [chacha20.NonceSize]byte
	enc   *chacha20.Cipher
	dec   *chacha20.Cipher
}

// NewSessionKey draws a fresh 256-bit key for one session from a CSPRNG.
// The key is sent to the client once, inside the encrypted handshake
// reply, never in the clear init packet.
func NewSessionKey() ([chacha20.KeySize]byte, error) {
	var key [chacha20.KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return key, fmt.Errorf("draw session key: %w", err)
	}
	return key, nil
}

// NewCipher builds encode/decode streams from a session key. Nonces
// start at the session's 64-bit id so two sessions never reuse a
// (key, nonce) pair even if keys were to collide.
func NewCipher(key [chacha20.KeySize]byte, sessionID uint64) (*Cipher, error) {
	c := &Cipher{key: key}
	putNonceSeed(c.encNonce[:], sessionID, 1)
	putNonceSeed(c.decNonce[:], sessionID, 2)

	var err error
	c.enc, err = chacha20.NewUnauthenticatedCipher(c.key[:], c.encNonce[:])
	if err != nil {
		return nil, fmt.Errorf("init encode stream: %w", err)
	}
	c.dec, err = chacha20.NewUnauthenticatedCipher(c.key[:], c.decNonce[:])
	if err != nil {
		return nil, fmt.Errorf("init decode stream: %w", err)
	}
	return c, nil
}

func putNonceSeed(nonce []byte, sessionID uint64, direction byte) {
	for i := 0; i < 8; i++ {
		nonce[i] = byte(sessionID >> (8 * i))
	}
	nonce[8] = direction
}

// Encrypt XORs data in place against the encode keystream and returns it.
func (c *Cipher) Encrypt(data []byte) []byte {
	c.enc.XORKeyStream(data, data)
	return data
}

// Decrypt XORs data in place against the decode keystream and returns it.
func (c *Cipher) Decrypt(data []byte) []byte {
	c.dec.XORKeyStream(data, data)
	return data
}
