package dolevstrong

import (
	"slices"
)

// Decision when a node extracted zero values or more than one.
const DefaultOutput = "0"

// An Envelope is a chain addressed to one recipient.
type Envelope struct {
	To    NodeID         `codec:"to"`
	Chain SignatureChain `codec:"chain"`
}

// Node is one party's Dolev-Strong state machine.
//
// The inbox holds only the current round's accepted messages. The extracted set only grows.
type Node struct {
	ID NodeID

	n        int
	f        int
	isSender bool
	input    string
	signer   Signer

	extracted map[string]struct{}
	inbox     []SignatureChain
}

func NewNode(id NodeID, n int, f int, signer Signer) *Node {
	return &Node{
		ID:        id,
		n:         n,
		f:         f,
		signer:    signer,
		extracted: make(map[string]struct{}),
	}
}

func NewSenderNode(id NodeID, n int, f int, input string, signer Signer) *Node {
	node := NewNode(id, n, f, signer)
	node.isSender = true
	node.input = input
	return node
}

func (node *Node) IsSender() bool {
	return node.isSender
}

// The sender signs its input and addresses it to every party, itself included.
func (node *Node) RoundZeroSend() []Envelope {
	if !node.isSender {
		return nil
	}
	return node.broadcast(NewSignatureChain(node.input, node.ID, node.signer))
}

// Replaces the inbox with the valid messages no longer than f+1 signers.
func (node *Node) Receive(messages []SignatureChain) {
	inbox := make([]SignatureChain, 0, len(messages))
	for _, m := range messages {
		if m.Len() > node.f+1 {
			continue
		}
		if !m.IsValid(node.n, node.signer) {
			continue
		}
		inbox = append(inbox, m)
	}
	node.inbox = inbox
}

// Processes the inbox for round r. Each chain with exactly r signers carrying a value not yet
// extracted is accepted, and relayed with this node's signature unless it already signed it.
func (node *Node) AdvanceRound(r int) []Envelope {
	var out []Envelope
	for _, m := range node.inbox {
		if m.Len() != r {
			continue
		}
		if _, ok := node.extracted[m.Value]; ok {
			continue
		}
		node.extracted[m.Value] = struct{}{}

		if m.HasSigner(node.ID) {
			continue
		}
		out = append(out, node.broadcast(m.Extend(node.ID, node.signer))...)
	}
	return out
}

func (node *Node) broadcast(chain SignatureChain) []Envelope {
	out := make([]Envelope, 0, node.n)
	for j := 1; j <= node.n; j++ {
		out = append(out, Envelope{To: NodeID(j), Chain: chain})
	}
	return out
}

// The decided value: the single extracted value, otherwise DefaultOutput.
func (node *Node) Output() string {
	if len(node.extracted) == 1 {
		for v := range node.extracted {
			return v
		}
	}
	return DefaultOutput
}

// Extracted values in sorted order.
func (node *Node) Extracted() []string {
	values := make([]string, 0, len(node.extracted))
	for v := range node.extracted {
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}
