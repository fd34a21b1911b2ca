// Package crypto implements C2 (hash & MAC) and C3 (signature service):
// the cryptographic layer; within this module the audit chain uses it for
// block and vote hashing. Hashing always operates on the
// canonical byte representation from the codec package, never on a
// type's default JSON encoding, so a hash is stable regardless of how a
// record happened to be constructed.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/luxfi/concord/codec"
)

// Hash returns the SHA-256 digest of data.
func Hash(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HashRecord returns the SHA-256 digest of record's canonical byte
// representation, per spec.md §4.2.
func HashRecord(record interface{}) ([32]byte, error) {
	canonical, err := codec.Canonicalize(record)
	if err != nil {
		return [32]byte{}, err
	}
	return Hash(canonical), nil
}

// HashRecordHex is HashRecord with the digest lowercase-hex encoded.
func HashRecordHex(record interface{}) (string, error) {
	digest, err := HashRecord(record)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(digest[:]), nil
}

// HMACRecord returns the hex-encoded HMAC-SHA-256 of record's canonical
// byte representation, keyed by key.
func HMACRecord(record interface{}, key []byte) (string, error) {
	canonical, err := codec.Canonicalize(record)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// EqualsConstantTime compares two hex-encoded digests in constant time.
// Per spec.md §4.2, a length mismatch returns false immediately: the
// length check itself is not required to be constant-time, only the
// per-byte comparison that follows it.
func EqualsConstantTime(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
