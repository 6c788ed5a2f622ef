package explorer

import (
	"time"

	"github.com/liamzebedee/tinyconsensus/core/dolevstrong"
	"github.com/liamzebedee/tinyconsensus/core/nakamoto"
)

// JSON view of a block, including its hash.
type BlockView struct {
	Hash      string    `json:"hash"`
	Height    uint64    `json:"height"`
	PrevHash  string    `json:"prev_hash"`
	Payload   string    `json:"payload"`
	Nonce     uint64    `json:"nonce"`
	Timestamp time.Time `json:"timestamp"`
	Canonical bool      `json:"canonical"`
}

func NewBlockView(b nakamoto.Block, canonical bool) BlockView {
	return BlockView{
		Hash:      b.Hash(),
		Height:    b.Height,
		PrevHash:  b.PrevHash,
		Payload:   b.Payload,
		Nonce:     b.Nonce,
		Timestamp: b.Timestamp,
		Canonical: canonical,
	}
}

// Result of a chain growth run.
type ChainReport struct {
	ChainLengthsPerRound []int    `json:"chain_lengths_per_round"`
	FinalLog             []string `json:"final_log"`
	FinalLength          int      `json:"final_length"`
}

func NewChainReport(store *nakamoto.ChainStore, lengths []int) ChainReport {
	if lengths == nil {
		lengths = []int{}
	}
	return ChainReport{
		ChainLengthsPerRound: lengths,
		FinalLog:             store.OrderedPayloadLog(),
		FinalLength:          store.CanonicalLength(),
	}
}

// Result of a broadcast run.
type BroadcastReport struct {
	N                int                           `json:"n"`
	F                int                           `json:"f"`
	SenderInput      string                        `json:"sender_input"`
	Corrupt          []dolevstrong.NodeID          `json:"corrupt"`
	HonestOutputs    map[dolevstrong.NodeID]string `json:"honest_outputs"`
	Rounds           int                           `json:"rounds"`
	MessagesPerRound []int                         `json:"messages_per_round"`
}

func NewBroadcastReport(params dolevstrong.Params, res dolevstrong.Result) BroadcastReport {
	corrupt := params.Corrupt
	if corrupt == nil {
		corrupt = []dolevstrong.NodeID{}
	}
	return BroadcastReport{
		N:                params.N,
		F:                params.F,
		SenderInput:      params.SenderInput,
		Corrupt:          corrupt,
		HonestOutputs:    res.Outputs,
		Rounds:           res.Rounds,
		MessagesPerRound: res.MessagesPerRound,
	}
}

// Runs the chain scenario and reports the result.
func RunChainScenario(store *nakamoto.ChainStore, rounds [][]nakamoto.Block) ChainReport {
	lengths := store.AdvanceRounds(rounds)
	return NewChainReport(store, lengths)
}

// Runs one broadcast and reports the result.
func RunBroadcastScenario(params dolevstrong.Params) (BroadcastReport, error) {
	p, err := dolevstrong.NewProtocol(params)
	if err != nil {
		return BroadcastReport{}, err
	}
	res, err := p.Run()
	if err != nil {
		return BroadcastReport{}, err
	}
	return NewBroadcastReport(params, res), nil
}
