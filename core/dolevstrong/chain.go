package dolevstrong

import (
	"slices"
	"strconv"
	"strings"
)

// Identity of a party, 1..n.
type NodeID uint32

// A SignatureChain is a value together with the ordered list of parties that relayed it.
// Signature i covers the value and every (signer, signature) pair before it, so a valid chain
// proves the exact relay path. Chains are never mutated; Extend returns a copy.
type SignatureChain struct {
	Value      string   `json:"value" codec:"value"`
	Signers    []NodeID `json:"signers" codec:"signers"`
	Signatures []string `json:"signatures" codec:"signatures"`
}

// Creates the one-link chain a sender emits in round zero.
func NewSignatureChain(value string, id NodeID, signer Signer) SignatureChain {
	return SignatureChain{Value: value}.Extend(id, signer)
}

func (c SignatureChain) Len() int {
	return len(c.Signers)
}

func (c SignatureChain) HasSigner(id NodeID) bool {
	return slices.Contains(c.Signers, id)
}

// The message the next signer attests to: value:id1:sig1:id2:sig2...
func (c SignatureChain) RunningMessage() string {
	var sb strings.Builder
	sb.WriteString(c.Value)
	for i := 0; i < min(len(c.Signers), len(c.Signatures)); i++ {
		writeLink(&sb, c.Signers[i], c.Signatures[i])
	}
	return sb.String()
}

func writeLink(sb *strings.Builder, id NodeID, sig string) {
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatUint(uint64(id), 10))
	sb.WriteByte(':')
	sb.WriteString(sig)
}

// Checks every link in order. Signers outside [1, n] and signatures that do not cover the
// preceding history invalidate the whole chain. Duplicate signers are not rejected here.
func (c SignatureChain) IsValid(n int, signer Signer) bool {
	if len(c.Signers) != len(c.Signatures) {
		return false
	}

	var sb strings.Builder
	sb.WriteString(c.Value)
	for i, id := range c.Signers {
		if id < 1 || int64(id) > int64(n) {
			return false
		}
		if !signer.Verify(id, sb.String(), c.Signatures[i]) {
			return false
		}
		writeLink(&sb, id, c.Signatures[i])
	}
	return true
}

// Appends a signature by id over the running message.
func (c SignatureChain) Extend(id NodeID, signer Signer) SignatureChain {
	sig := signer.Sign(id, c.RunningMessage())

	signers := make([]NodeID, len(c.Signers), len(c.Signers)+1)
	copy(signers, c.Signers)
	signatures := make([]string, len(c.Signatures), len(c.Signatures)+1)
	copy(signatures, c.Signatures)

	return SignatureChain{
		Value:      c.Value,
		Signers:    append(signers, id),
		Signatures: append(signatures, sig),
	}
}
