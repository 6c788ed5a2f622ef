package dolevstrong

import (
	"fmt"

	"github.com/hashicorp/go-msgpack/codec"
)

// A Mailbox is the simulated network for a single round. Chains are msgpack-encoded on delivery
// and decoded on drain, so no two nodes ever share a chain's backing arrays.
type Mailbox struct {
	n         int
	handle    *codec.MsgpackHandle
	slots     map[NodeID][][]byte
	delivered int
}

func NewMailbox(n int) *Mailbox {
	return &Mailbox{
		n:      n,
		handle: &codec.MsgpackHandle{},
		slots:  make(map[NodeID][][]byte, n),
	}
}

// Routes each envelope to its recipient. Recipients outside [1, n] are dropped.
func (m *Mailbox) Deliver(envelopes []Envelope) error {
	for _, env := range envelopes {
		if env.To < 1 || int64(env.To) > int64(m.n) {
			continue
		}
		var buf []byte
		enc := codec.NewEncoderBytes(&buf, m.handle)
		if err := enc.Encode(&env.Chain); err != nil {
			return fmt.Errorf("error encoding message for node %d: %w", env.To, err)
		}
		m.slots[env.To] = append(m.slots[env.To], buf)
		m.delivered++
	}
	return nil
}

// Returns the messages addressed to id, in delivery order, and empties its slot.
func (m *Mailbox) Drain(id NodeID) ([]SignatureChain, error) {
	raw := m.slots[id]
	delete(m.slots, id)

	messages := make([]SignatureChain, 0, len(raw))
	for _, buf := range raw {
		var chain SignatureChain
		dec := codec.NewDecoderBytes(buf, m.handle)
		if err := dec.Decode(&chain); err != nil {
			return nil, fmt.Errorf("error decoding message for node %d: %w", id, err)
		}
		messages = append(messages, chain)
	}
	return messages, nil
}

// Number of envelopes accepted by Deliver.
func (m *Mailbox) Delivered() int {
	return m.delivered
}
