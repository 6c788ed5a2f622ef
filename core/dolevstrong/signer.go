package dolevstrong

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/liamzebedee/tinyconsensus/core"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/pairing"
	"go.dedis.ch/kyber/v3/pairing/bn256"
	"go.dedis.ch/kyber/v3/sign/bls"
)

// A Signer produces and checks signatures on behalf of node identities.
// Protocol logic only ever talks to this interface, so schemes can be swapped freely.
type Signer interface {
	Sign(id NodeID, message string) string
	Verify(id NodeID, message string, sig string) bool
}

const (
	SchemeHash  = "hash"
	SchemeECDSA = "ecdsa"
	SchemeBLS   = "bls"
)

// Builds a signer for identities 1..n.
func NewSigner(scheme string, n int) (Signer, error) {
	switch scheme {
	case "", SchemeHash:
		return HashSigner{}, nil
	case SchemeECDSA:
		return NewWalletSigner(n)
	case SchemeBLS:
		return NewBLSSigner(n)
	default:
		return nil, fmt.Errorf("unknown signature scheme %q", scheme)
	}
}

// HashSigner is a keyed-hash stand-in for a signature scheme.
// sig = hex(sha256("<id>:<message>"))[:16].
type HashSigner struct{}

func (HashSigner) Sign(id NodeID, message string) string {
	return core.HashHex([]byte(strconv.FormatUint(uint64(id), 10) + ":" + message))[:16]
}

func (s HashSigner) Verify(id NodeID, message string, sig string) bool {
	return s.Sign(id, message) == sig
}

// WalletSigner gives every identity its own P-256 wallet.
type WalletSigner struct {
	wallets map[NodeID]*core.Wallet
}

func NewWalletSigner(n int) (*WalletSigner, error) {
	wallets := make(map[NodeID]*core.Wallet, n)
	for i := 1; i <= n; i++ {
		w, err := core.CreateRandomWallet()
		if err != nil {
			return nil, fmt.Errorf("error creating wallet for node %d: %w", i, err)
		}
		wallets[NodeID(i)] = w
	}
	return &WalletSigner{wallets: wallets}, nil
}

// Returns the empty signature for identities without a wallet, which never verifies.
func (s *WalletSigner) Sign(id NodeID, message string) string {
	w, ok := s.wallets[id]
	if !ok {
		return ""
	}
	sig, err := w.Sign([]byte(message))
	if err != nil {
		return ""
	}
	return hex.EncodeToString(sig)
}

func (s *WalletSigner) Verify(id NodeID, message string, sig string) bool {
	w, ok := s.wallets[id]
	if !ok {
		return false
	}
	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	return core.VerifySignature(w.PubkeyStr(), sigBytes, []byte(message))
}

type blsKeyPair struct {
	private kyber.Scalar
	public  kyber.Point
}

// BLSSigner signs with a BLS key pair per identity on the bn256 pairing curve.
type BLSSigner struct {
	suite pairing.Suite
	keys  map[NodeID]blsKeyPair
}

func NewBLSSigner(n int) (*BLSSigner, error) {
	suite := bn256.NewSuite()
	keys := make(map[NodeID]blsKeyPair, n)
	for i := 1; i <= n; i++ {
		private, public := bls.NewKeyPair(suite, suite.RandomStream())
		keys[NodeID(i)] = blsKeyPair{private: private, public: public}
	}
	return &BLSSigner{suite: suite, keys: keys}, nil
}

func (s *BLSSigner) Sign(id NodeID, message string) string {
	kp, ok := s.keys[id]
	if !ok {
		return ""
	}
	sig, err := bls.Sign(s.suite, kp.private, []byte(message))
	if err != nil {
		return ""
	}
	return hex.EncodeToString(sig)
}

func (s *BLSSigner) Verify(id NodeID, message string, sig string) bool {
	kp, ok := s.keys[id]
	if !ok {
		return false
	}
	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	return bls.Verify(s.suite, kp.public, []byte(message), sigBytes) == nil
}
