package core

import (
	"crypto/sha256"
	"encoding/hex"
)

func Hash(data []byte) [32]byte {
	return HashSHA2(data)
}

func HashSHA2(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Hex encoded SHA-256 digest.
func HashHex(data []byte) string {
	h := Hash(data)
	return hex.EncodeToString(h[:])
}
