package dolevstrong

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/liamzebedee/tinyconsensus/core"
)

var ErrInvalidParams = errors.New("invalid protocol parameters")

// Params configures one broadcast run.
type Params struct {
	// Number of parties, identities 1..N.
	N int
	// Number of tolerated corruptions. The protocol runs F+1 broadcast rounds.
	F int

	// Sender identity. Zero means node 1.
	Sender      NodeID
	SenderInput string

	// Omission-faulty identities. They never send anything.
	Corrupt []NodeID

	// Defaults to HashSigner.
	Signer Signer

	// Compute each node's send step on its own goroutine.
	Parallel bool
}

func (p Params) validate() error {
	if p.N < 1 {
		return fmt.Errorf("%w: n must be at least 1, got %d", ErrInvalidParams, p.N)
	}
	if p.F < 0 || p.F >= p.N {
		return fmt.Errorf("%w: f must be in [0, %d), got %d", ErrInvalidParams, p.N, p.F)
	}
	if p.Sender != 0 && int64(p.Sender) > int64(p.N) {
		return fmt.Errorf("%w: sender %d outside [1, %d]", ErrInvalidParams, p.Sender, p.N)
	}
	for _, id := range p.Corrupt {
		if id < 1 || int64(id) > int64(p.N) {
			return fmt.Errorf("%w: corrupt node %d outside [1, %d]", ErrInvalidParams, id, p.N)
		}
	}
	return nil
}

// Result of a run.
type Result struct {
	// Decided value per honest identity.
	Outputs map[NodeID]string
	// Broadcast rounds after round zero. Always F+1.
	Rounds int
	// Messages delivered in each round, index 0 is round zero.
	MessagesPerRound []int
}

// Protocol drives every node through round zero and rounds 1..F+1 over a fresh Mailbox per
// round. All sends of a round complete before any node receives.
type Protocol struct {
	params  Params
	nodes   []*Node
	corrupt map[NodeID]bool

	log *log.Logger
}

func NewProtocol(params Params) (*Protocol, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if params.Sender == 0 {
		params.Sender = 1
	}
	if params.Signer == nil {
		params.Signer = HashSigner{}
	}

	p := &Protocol{
		params:  params,
		nodes:   make([]*Node, 0, params.N),
		corrupt: make(map[NodeID]bool, len(params.Corrupt)),
		log:     core.NewLogger("dolev-strong", ""),
	}
	for _, id := range params.Corrupt {
		p.corrupt[id] = true
	}
	if len(p.corrupt) > params.F {
		p.log.Printf("Warning: %d corrupt nodes exceeds f=%d, agreement is not guaranteed\n", len(p.corrupt), params.F)
	}

	for i := 1; i <= params.N; i++ {
		id := NodeID(i)
		if id == params.Sender {
			p.nodes = append(p.nodes, NewSenderNode(id, params.N, params.F, params.SenderInput, params.Signer))
		} else {
			p.nodes = append(p.nodes, NewNode(id, params.N, params.F, params.Signer))
		}
	}
	return p, nil
}

// Nodes in identity order.
func (p *Protocol) Nodes() []*Node {
	return p.nodes
}

func (p *Protocol) Run() (Result, error) {
	res := Result{
		Outputs:          make(map[NodeID]string, p.params.N),
		MessagesPerRound: make([]int, 0, p.params.F+2),
	}

	// Round 0.
	delivered, err := p.runRound(func(node *Node) []Envelope {
		return node.RoundZeroSend()
	})
	if err != nil {
		return res, err
	}
	res.MessagesPerRound = append(res.MessagesPerRound, delivered)
	p.log.Printf("Round 0: sender=%d delivered=%d\n", p.params.Sender, delivered)

	// Rounds 1..f+1.
	for r := 1; r <= p.params.F+1; r++ {
		delivered, err := p.runRound(func(node *Node) []Envelope {
			return node.AdvanceRound(r)
		})
		if err != nil {
			return res, err
		}
		res.MessagesPerRound = append(res.MessagesPerRound, delivered)
		res.Rounds++
		p.log.Printf("Round %d: delivered=%d\n", r, delivered)
	}

	for _, node := range p.nodes {
		if p.corrupt[node.ID] {
			continue
		}
		res.Outputs[node.ID] = node.Output()
	}
	return res, nil
}

// Collects the round's sends from honest nodes, delivers them, then lets every node receive.
func (p *Protocol) runRound(send func(node *Node) []Envelope) (int, error) {
	outgoing := make([][]Envelope, len(p.nodes))

	if p.params.Parallel {
		var wg sync.WaitGroup
		for i, node := range p.nodes {
			if p.corrupt[node.ID] {
				continue
			}
			wg.Add(1)
			go func(i int, node *Node) {
				defer wg.Done()
				outgoing[i] = send(node)
			}(i, node)
		}
		wg.Wait()
	} else {
		for i, node := range p.nodes {
			if p.corrupt[node.ID] {
				continue
			}
			outgoing[i] = send(node)
		}
	}

	// Equivalent to slices.Concat (Go 1.22+), kept inline for the Go 1.21 toolchain.
	var all []Envelope
	for _, envs := range outgoing {
		all = append(all, envs...)
	}

	mailbox := NewMailbox(p.params.N)
	if err := mailbox.Deliver(all); err != nil {
		return 0, err
	}

	for _, node := range p.nodes {
		messages, err := mailbox.Drain(node.ID)
		if err != nil {
			return 0, err
		}
		node.Receive(messages)
	}
	return mailbox.Delivered(), nil
}

// Runs the protocol with node 1 as sender and the hash signer, returning each honest node's
// decided value.
func RunBroadcast(n int, f int, senderInput string, corrupt []NodeID) (map[NodeID]string, error) {
	p, err := NewProtocol(Params{
		N:           n,
		F:           f,
		SenderInput: senderInput,
		Corrupt:     corrupt,
	})
	if err != nil {
		return nil, err
	}
	res, err := p.Run()
	if err != nil {
		return nil, err
	}
	return res.Outputs, nil
}
