// Package kasa implements smart plug and bulb client protocol.
package kasa

import (
	"encoding/binary"
)

const (
	// Initial autokey cipher key.
	initialKey byte = 171
	// TCP frame length header size.
	headerSize = 4
)

// Encrypt applies autokey cipher to the payload.
func Encrypt(in []byte) []byte {
	key := initialKey
	out := make([]byte, len(in))
	for i, b := range in {
		key = key ^ b
		out[i] = key
	}

	return out
}

// Decrypt reverts autokey cipher.
func Decrypt(in []byte) []byte {
	key := initialKey
	out := make([]byte, len(in))
	for i, c := range in {
		out[i] = key ^ c
		key = c
	}

	return out
}

// EncryptWithHeader encrypts payload and prepends big-endian length, as used over TCP.
func EncryptWithHeader(in []byte) []byte {
	out := make([]byte, headerSize+len(in))
	binary.BigEndian.PutUint32(out, uint32(len(in)))
	copy(out[headerSize:], Encrypt(in))
	return out
}

// DecryptWithHeader validates length header and decrypts the rest.
func DecryptWithHeader(in []byte) ([]byte, error) {
	if len(in) < headerSize {
		return nil, &ErrMalformedResponse{Reason: "frame is shorter than header"}
	}

	size := binary.BigEndian.Uint32(in)
	if int(size) != len(in)-headerSize {
		return nil, &ErrMalformedResponse{Reason: "frame length mismatch"}
	}

	return Decrypt(in[headerSize:]), nil
}
