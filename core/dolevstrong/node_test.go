package dolevstrong

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func chainsOf(envs []Envelope) []SignatureChain {
	out := make([]SignatureChain, 0, len(envs))
	for _, env := range envs {
		out = append(out, env.Chain)
	}
	return out
}

func TestRoundZeroSend(t *testing.T) {
	assert := assert.New(t)
	signer := HashSigner{}

	sender := NewSenderNode(1, 4, 1, "1", signer)
	out := sender.RoundZeroSend()
	assert.Len(out, 4)
	for i, env := range out {
		assert.Equal(NodeID(i+1), env.To)
		assert.Equal("1", env.Chain.Value)
		assert.Equal([]NodeID{1}, env.Chain.Signers)
		assert.True(env.Chain.IsValid(4, signer))
	}

	other := NewNode(2, 4, 1, signer)
	assert.Empty(other.RoundZeroSend())
}

func TestReceiveFiltersInvalidAndOverlong(t *testing.T) {
	assert := assert.New(t)
	signer := HashSigner{}

	node := NewNode(4, 4, 1, signer)
	good := NewSignatureChain("1", 1, signer)
	overlong := good.Extend(2, signer).Extend(3, signer)
	forged := good
	forged.Value = "0"
	outOfRange := good.Extend(7, signer)

	node.Receive([]SignatureChain{good, overlong, forged, outOfRange})
	assert.Equal([]SignatureChain{good}, node.inbox)

	// The inbox is replaced, not appended to.
	node.Receive(nil)
	assert.Empty(node.inbox)
}

func TestAdvanceRoundExtractsAndRelays(t *testing.T) {
	assert := assert.New(t)
	signer := HashSigner{}

	node := NewNode(2, 4, 1, signer)
	chain := NewSignatureChain("1", 1, signer)
	node.Receive([]SignatureChain{chain, chain})

	// Chains of the wrong length are skipped.
	assert.Empty(node.AdvanceRound(2))
	assert.Empty(node.Extracted())

	out := node.AdvanceRound(1)
	assert.Equal([]string{"1"}, node.Extracted())
	// The duplicate is ignored once the value is extracted.
	assert.Len(out, 4)
	for _, env := range out {
		assert.Equal([]NodeID{1, 2}, env.Chain.Signers)
		assert.True(env.Chain.IsValid(4, signer))
	}
	assert.Equal("1", node.Output())
}

func TestAdvanceRoundDoesNotResign(t *testing.T) {
	assert := assert.New(t)
	signer := HashSigner{}

	sender := NewSenderNode(1, 4, 1, "1", signer)
	sender.Receive(chainsOf(sender.RoundZeroSend()))

	out := sender.AdvanceRound(1)
	assert.Empty(out)
	assert.Equal([]string{"1"}, sender.Extracted())
	assert.Equal("1", sender.Output())
}

func TestOutputDefaultsOnConflict(t *testing.T) {
	assert := assert.New(t)
	signer := HashSigner{}

	node := NewNode(3, 4, 1, signer)
	assert.Equal(DefaultOutput, node.Output())

	// An equivocating sender signs two values.
	node.Receive([]SignatureChain{
		NewSignatureChain("1", 1, signer),
		NewSignatureChain("0", 1, signer),
	})
	out := node.AdvanceRound(1)
	assert.Len(out, 8)
	assert.Equal([]string{"0", "1"}, node.Extracted())
	assert.Equal(DefaultOutput, node.Output())

	// Extracted values are never forgotten.
	node.Receive(nil)
	node.AdvanceRound(2)
	assert.Equal([]string{"0", "1"}, node.Extracted())

	single := NewNode(3, 4, 1, signer)
	single.Receive([]SignatureChain{NewSignatureChain("7", 1, signer)})
	single.AdvanceRound(1)
	assert.Equal("7", single.Output())
}

func TestMailboxRoundTrip(t *testing.T) {
	assert := assert.New(t)
	signer := HashSigner{}

	c1 := NewSignatureChain("1", 1, signer)
	c2 := c1.Extend(2, signer)

	mb := NewMailbox(3)
	err := mb.Deliver([]Envelope{
		{To: 2, Chain: c1},
		{To: 2, Chain: c2},
		{To: 3, Chain: c1},
		{To: 0, Chain: c1},
		{To: 4, Chain: c1},
	})
	assert.NoError(err)
	assert.Equal(3, mb.Delivered())

	got, err := mb.Drain(2)
	assert.NoError(err)
	assert.Equal([]SignatureChain{c1, c2}, got)

	got, err = mb.Drain(2)
	assert.NoError(err)
	assert.Empty(got)

	got, err = mb.Drain(1)
	assert.NoError(err)
	assert.Empty(got)

	got, err = mb.Drain(3)
	assert.NoError(err)
	assert.Len(got, 1)
	assert.True(got[0].IsValid(3, signer))
}

func TestMailboxCopiesMessages(t *testing.T) {
	assert := assert.New(t)
	signer := HashSigner{}

	c := NewSignatureChain("1", 1, signer)
	mb := NewMailbox(2)
	assert.NoError(mb.Deliver([]Envelope{{To: 1, Chain: c}, {To: 2, Chain: c}}))

	a, _ := mb.Drain(1)
	b, _ := mb.Drain(2)
	a[0].Signers[0] = 2
	assert.Equal(NodeID(1), b[0].Signers[0])
	assert.Equal(NodeID(1), c.Signers[0])
}
