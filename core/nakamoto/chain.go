package nakamoto

import (
	"errors"
	"log"
	"time"

	"github.com/liamzebedee/tinyconsensus/core"
)

var (
	ErrUnknownParent    = errors.New("Unknown parent block.")
	ErrHeightMismatch   = errors.New("Block height does not follow parent height.")
	ErrBadGenesisParent = errors.New("Genesis block parent hash is not the zero hash.")
)

// The ChainStore holds the canonical chain, every block it ever accepted, and the pending blocks
// which are valid but not on the canonical chain. Canonical selection is by block count.
//
// ChainStore is not safe for concurrent use.
type ChainStore struct {
	// Canonical chain. Index i holds height i.
	canonical []Block

	// Every accepted block by hash, canonical or not.
	known map[string]Block

	// Competing forks, in insertion order.
	pending []Block

	// Called when the canonical tip changes.
	OnNewTip func(tip Block, prevTip Block)

	log *log.Logger
}

func NewChainStore() *ChainStore {
	return &ChainStore{
		known: make(map[string]Block),
		log:   core.NewLogger("chain", ""),
	}
}

// Creates the height-0 block and makes it the whole canonical chain.
// If a genesis block already exists it is returned unchanged.
func (s *ChainStore) InitializeGenesis(payload string) Block {
	return s.InitializeGenesisAt(payload, time.Now())
}

func (s *ChainStore) InitializeGenesisAt(payload string, timestamp time.Time) Block {
	if len(s.canonical) > 0 {
		s.log.Printf("Genesis already initialised hash=%s\n", s.canonical[0].Hash())
		return s.canonical[0]
	}

	genesis := NewBlockAt(0, GenesisParentHash, payload, 0, timestamp)
	hash := genesis.Hash()
	s.known[hash] = genesis
	s.canonical = []Block{genesis}
	s.log.Printf("Inserted genesis block hash=%s\n", hash)
	return genesis
}

func (s *ChainStore) validateBlock(b Block) error {
	if b.Height == 0 {
		if b.PrevHash != GenesisParentHash {
			return ErrBadGenesisParent
		}
		return nil
	}

	parent, ok := s.known[b.PrevHash]
	if !ok {
		return ErrUnknownParent
	}
	if parent.Height != b.Height-1 {
		return ErrHeightMismatch
	}
	return nil
}

// Ingests a block and reports whether it is canonical at its height. Rejected blocks are not
// stored and the reason is returned; they may be resubmitted once their parent is known.
func (s *ChainStore) IngestBlock(b Block) (bool, error) {
	hash := b.Hash()

	// 1. Known blocks are a no-op.
	if _, ok := s.known[hash]; ok {
		return s.isCanonical(b.Height, hash), nil
	}

	// 2. Verify the parent link.
	if err := s.validateBlock(b); err != nil {
		return false, err
	}

	// 3. Store.
	s.known[hash] = b

	// 4. Extend the tip.
	if tip, ok := s.Tip(); ok && tip.Hash() == b.PrevHash {
		s.canonical = append(s.canonical, b)
		s.log.Printf("New tip: height=%d hash=%s\n", b.Height, hash)
		s.notifyNewTip(b, tip)
		return true, nil
	}

	// 5. Competing fork.
	s.pending = append(s.pending, b)
	return false, nil
}

// Returns true iff the block is canonical at its height after insertion.
func (s *ChainStore) AddBlock(b Block) bool {
	canonical, err := s.IngestBlock(b)
	if err != nil {
		s.log.Printf("Rejected block height=%d: %s\n", b.Height, err)
		return false
	}
	return canonical
}

func (s *ChainStore) isCanonical(height uint64, hash string) bool {
	if height >= uint64(len(s.canonical)) {
		return false
	}
	return s.canonical[height].Hash() == hash
}

// Walks parent links back to the genesis sentinel. Returns false when an ancestor is missing.
func (s *ChainStore) pathToGenesis(b Block) ([]Block, bool) {
	path := []Block{b}
	cur := b
	for cur.PrevHash != GenesisParentHash {
		parent, ok := s.known[cur.PrevHash]
		if !ok {
			return nil, false
		}
		path = append(path, parent)
		cur = parent
	}

	// Reverse into height order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// Replaces the canonical chain with the longest path ending in a pending block, when one is
// strictly longer. Ties keep the current chain. Returns whether a reorganization happened.
func (s *ChainStore) ReorganizeToLongest() bool {
	if len(s.canonical) == 0 && len(s.pending) == 0 {
		return false
	}

	best := s.canonical
	replaced := false
	for _, tip := range s.pending {
		path, ok := s.pathToGenesis(tip)
		if !ok {
			continue
		}
		if len(path) > len(best) {
			best = path
			replaced = true
		}
	}

	if replaced {
		prevTip, _ := s.Tip()
		s.canonical = best
		newTip, _ := s.Tip()
		s.log.Printf("Reorganized to longest chain: length=%d tip=%s\n", len(best), newTip.Hash())
		s.notifyNewTip(newTip, prevTip)
	}

	// Prune pending blocks that are now canonical.
	inChain := make(map[string]bool, len(s.canonical))
	for _, b := range s.canonical {
		inChain[b.Hash()] = true
	}
	pending := s.pending[:0]
	for _, b := range s.pending {
		if !inChain[b.Hash()] {
			pending = append(pending, b)
		}
	}
	s.pending = pending

	return replaced
}

func (s *ChainStore) notifyNewTip(tip Block, prevTip Block) {
	if s.OnNewTip == nil {
		return
	}
	s.OnNewTip(tip, prevTip)
}

// Ingests each round's blocks, resolves forks, and records the canonical length per round.
func (s *ChainStore) AdvanceRounds(blocksPerRound [][]Block) []int {
	lengths := make([]int, 0, len(blocksPerRound))
	for _, blocks := range blocksPerRound {
		for _, b := range blocks {
			s.AddBlock(b)
		}
		s.ReorganizeToLongest()
		lengths = append(lengths, s.CanonicalLength())
	}
	return lengths
}

func (s *ChainStore) CanonicalLength() int {
	return len(s.canonical)
}

// Payloads of the canonical chain in height order.
func (s *ChainStore) OrderedPayloadLog() []string {
	payloads := make([]string, len(s.canonical))
	for i, b := range s.canonical {
		payloads[i] = b.Payload
	}
	return payloads
}

func (s *ChainStore) Tip() (Block, bool) {
	if len(s.canonical) == 0 {
		return Block{}, false
	}
	return s.canonical[len(s.canonical)-1], true
}

func (s *ChainStore) Chain() []Block {
	return append([]Block(nil), s.canonical...)
}

func (s *ChainStore) Pending() []Block {
	return append([]Block(nil), s.pending...)
}

func (s *ChainStore) GetBlockByHash(hash string) (Block, bool) {
	b, ok := s.known[hash]
	return b, ok
}

func (s *ChainStore) NumKnownBlocks() int {
	return len(s.known)
}
