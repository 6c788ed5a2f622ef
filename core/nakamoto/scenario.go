package nakamoto

import (
	"fmt"
	"time"
)

// Interval between the timestamps of synthesized blocks.
const ScenarioBlockInterval = 10 * time.Second

// Builds one block per round, each extending the previous one, starting from parent.
// Timestamps advance by ScenarioBlockInterval from the parent's, so the output is deterministic.
func GrowthRounds(parent Block, rounds int) [][]Block {
	blocksPerRound := make([][]Block, 0, rounds)
	prev := parent
	for round := 1; round <= rounds; round++ {
		b := NewBlockAt(
			prev.Height+1,
			prev.Hash(),
			fmt.Sprintf("tx round %d", round),
			0,
			parent.Timestamp.Add(time.Duration(round)*ScenarioBlockInterval),
		)
		blocksPerRound = append(blocksPerRound, []Block{b})
		prev = b
	}
	return blocksPerRound
}

// Builds two competing branches off parent: a main branch of mainLen blocks and a fork of
// forkLen blocks. Round i carries the i-th main block (if any) followed by the i-th fork block
// (if any), so the main branch wins ties.
func ForkRounds(parent Block, mainLen int, forkLen int) [][]Block {
	rounds := max(mainLen, forkLen)
	blocksPerRound := make([][]Block, 0, rounds)
	mainPrev, forkPrev := parent, parent
	for round := 1; round <= rounds; round++ {
		ts := parent.Timestamp.Add(time.Duration(round) * ScenarioBlockInterval)
		var batch []Block
		if round <= mainLen {
			b := NewBlockAt(mainPrev.Height+1, mainPrev.Hash(), fmt.Sprintf("main %d", round), 0, ts)
			batch = append(batch, b)
			mainPrev = b
		}
		if round <= forkLen {
			b := NewBlockAt(forkPrev.Height+1, forkPrev.Hash(), fmt.Sprintf("fork %d", round), 1, ts)
			batch = append(batch, b)
			forkPrev = b
		}
		blocksPerRound = append(blocksPerRound, batch)
	}
	return blocksPerRound
}
