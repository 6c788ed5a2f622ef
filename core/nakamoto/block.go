// Nakamoto consensus.

package nakamoto

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jackpal/bencode-go"
	"github.com/liamzebedee/tinyconsensus/core"
)

// Parent hash of every height-0 block.
const GenesisParentHash = "0000000000000000000000000000000000000000000000000000000000000000"

// A Block is an immutable, hash-linked ledger entry. Validity is decided by the ChainStore,
// never at construction.
type Block struct {
	Height    uint64    `json:"height"`
	PrevHash  string    `json:"prev_hash"`
	Payload   string    `json:"payload"`
	Nonce     uint64    `json:"nonce"`
	Timestamp time.Time `json:"timestamp"`
}

// Creates a block stamped with the current wall-clock time.
func NewBlock(height uint64, prevHash string, payload string, nonce uint64) Block {
	return NewBlockAt(height, prevHash, payload, nonce, time.Now())
}

// Creates a block with an explicit timestamp. Blocks built from identical arguments hash equal.
func NewBlockAt(height uint64, prevHash string, payload string, nonce uint64, timestamp time.Time) Block {
	return Block{
		Height:    height,
		PrevHash:  prevHash,
		Payload:   payload,
		Nonce:     nonce,
		Timestamp: timestamp.UTC(),
	}
}

// Encodes the block canonically as the bencoded list
// [height, prev_hash, payload, nonce, timestamp (RFC 3339, UTC, nanoseconds)].
func (b Block) Envelope() []byte {
	buf := new(bytes.Buffer)
	fields := []interface{}{
		b.Height,
		b.PrevHash,
		b.Payload,
		b.Nonce,
		b.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	err := bencode.Marshal(buf, fields)
	if err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Hex SHA-256 of the envelope. Recomputed on every call.
func (b Block) Hash() string {
	return core.HashHex(b.Envelope())
}

func (b Block) IsGenesis() bool {
	return b.Height == 0
}

func (b Block) String() string {
	h := b.Hash()
	return fmt.Sprintf("Block(height=%d, prev=%s..., hash=%s...)", b.Height, shortHash(b.PrevHash), shortHash(h))
}

func shortHash(h string) string {
	return h[:min(8, len(h))]
}
