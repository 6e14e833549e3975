package sealkit

import (
	"errors"
	"fmt"
)

// pkcs5Pad pads data to a multiple of blockSize; a full block is added when
// data is already aligned.
func pkcs5Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+pad)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(pad)
	}
	return padded
}

// pkcs5Unpad removes and validates PKCS#5 padding.
func pkcs5Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("padded data is not a multiple of the block size")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize {
		return nil, fmt.Errorf("invalid padding byte %d", pad)
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, errors.New("inconsistent padding bytes")
		}
	}
	return data[:len(data)-pad], nil
}
