package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/hkdf"
)

// deterministicKeyInfo is the HKDF info parameter binding deterministic
// key derivation to this module, so the same seed never collides with a
// derivation performed for an unrelated purpose.
const deterministicKeyInfo = "concord/governance-model-keypair/v1"

// PrivateKey is a secp256k1 signing key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey is a secp256k1 compressed public key.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// Bytes returns the 32-byte scalar private key.
func (p *PrivateKey) Bytes() []byte {
	return p.key.Serialize()
}

// Bytes returns the 33-byte compressed public key.
func (p *PublicKey) Bytes() []byte {
	return p.key.SerializeCompressed()
}

// Equal reports whether two public keys are the same point.
func (p *PublicKey) Equal(other *PublicKey) bool {
	if p == nil || other == nil {
		return p == other
	}
	return hex.EncodeToString(p.Bytes()) == hex.EncodeToString(other.Bytes())
}

// PrivateKeyFromBytes parses a 32-byte scalar into a PrivateKey.
func PrivateKeyFromBytes(b []byte) *PrivateKey {
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(b)}
}

// PublicKeyFromBytes parses a 33-byte compressed public key.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	pk, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, err
	}
	return &PublicKey{key: pk}, nil
}

// GenerateKeyPair returns a fresh, randomly generated secp256k1 keypair.
func GenerateKeyPair() (*PrivateKey, *PublicKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, nil, err
	}
	return &PrivateKey{key: priv}, &PublicKey{key: priv.PubKey()}, nil
}

// GenerateDeterministicKeyPair derives a stable secp256k1 keypair from
// seed via HKDF-SHA256 (per spec.md §4.3): the same seed always yields
// the same keypair, letting test scenarios pin model identities without
// persisting private key material.
func GenerateDeterministicKeyPair(seed string) (*PrivateKey, *PublicKey, error) {
	reader := hkdf.New(sha256.New, []byte(seed), nil, []byte(deterministicKeyInfo))
	material := make([]byte, 32)
	if _, err := io.ReadFull(reader, material); err != nil {
		return nil, nil, err
	}
	priv := secp256k1.PrivKeyFromBytes(material)
	return &PrivateKey{key: priv}, &PublicKey{key: priv.PubKey()}, nil
}

// Signature is a secp256k1 ECDSA signature with recovery information,
// per spec.md §4.3.
type Signature struct {
	R        [32]byte
	S        [32]byte
	Recovery byte
}

// the compact-signature recovery-code offset decred/bitcoin use for a
// compressed public key; see ecdsa.SignCompact / ecdsa.RecoverCompact.
const compressedRecoveryOffset = 31

// SignMessage signs the SHA-256 digest of msg with sk and returns the
// signature plus the recovery bit needed to reconstruct the signer's
// public key from (msg, signature) alone.
func SignMessage(msg []byte, sk *PrivateKey) (*Signature, error) {
	digest := Hash(msg)
	compact := ecdsa.SignCompact(sk.key, digest[:], true)

	sig := &Signature{Recovery: compact[0] - compressedRecoveryOffset}
	copy(sig.R[:], compact[1:33])
	copy(sig.S[:], compact[33:65])
	return sig, nil
}

// VerifySignature checks sig against msg and pk, returning whether it is
// valid and how long verification took.
func VerifySignature(msg []byte, sig *Signature, pk *PublicKey) (bool, time.Duration) {
	start := time.Now()
	digest := Hash(msg)

	r, s, ok := sig.scalars()
	if !ok {
		return false, time.Since(start)
	}
	valid := ecdsa.NewSignature(r, s).Verify(digest[:], pk.key)
	return valid, time.Since(start)
}

func (s *Signature) scalars() (*secp256k1.ModNScalar, *secp256k1.ModNScalar, bool) {
	r := new(secp256k1.ModNScalar)
	if overflow := r.SetByteSlice(s.R[:]); overflow {
		return nil, nil, false
	}
	sc := new(secp256k1.ModNScalar)
	if overflow := sc.SetByteSlice(s.S[:]); overflow {
		return nil, nil, false
	}
	return r, sc, true
}

// ToCompact returns the 64-byte r||s encoding of sig plus its recovery id,
// per spec.md §4.3.
func (s *Signature) ToCompact() ([64]byte, byte) {
	var out [64]byte
	copy(out[:32], s.R[:])
	copy(out[32:], s.S[:])
	return out, s.Recovery
}

// DER returns the ASN.1 DER encoding of sig's (r, s) pair. Recovery is
// carried out-of-band, as DER has no field for it.
func (s *Signature) DER() ([]byte, error) {
	r, sc, ok := s.scalars()
	if !ok {
		return nil, ErrInvalidSignature
	}
	return ecdsa.NewSignature(r, sc).Serialize(), nil
}

// RecoverPublicKey reproduces the signer's compressed public key from msg
// and sig alone, per spec.md §4.3.
func RecoverPublicKey(msg []byte, sig *Signature) (*PublicKey, error) {
	digest := Hash(msg)

	compact := make([]byte, 65)
	compact[0] = sig.Recovery + compressedRecoveryOffset
	copy(compact[1:33], sig.R[:])
	copy(compact[33:], sig.S[:])

	pub, _, err := ecdsa.RecoverCompact(compact, digest[:])
	if err != nil {
		return nil, err
	}
	return &PublicKey{key: pub}, nil
}
