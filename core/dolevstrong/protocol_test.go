package dolevstrong

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAllEqual(t *testing.T, outputs map[NodeID]string, expected string) {
	t.Helper()
	for id, out := range outputs {
		assert.Equal(t, expected, out, "node %d", id)
	}
}

func TestValiditySenderOne(t *testing.T) {
	outputs, err := RunBroadcast(4, 1, "1", nil)
	require.NoError(t, err)
	assert.Len(t, outputs, 4)
	assertAllEqual(t, outputs, "1")
}

func TestValiditySenderZero(t *testing.T) {
	outputs, err := RunBroadcast(4, 1, "0", nil)
	require.NoError(t, err)
	assert.Len(t, outputs, 4)
	assertAllEqual(t, outputs, "0")
}

func TestConsistencyN5F2(t *testing.T) {
	outputs, err := RunBroadcast(5, 2, "1", nil)
	require.NoError(t, err)
	require.NotEmpty(t, outputs)
	first := outputs[1]
	for _, v := range outputs {
		assert.Equal(t, first, v)
	}
}

// All corrupt subsets of size <= f.
func corruptSubsets(n, f int) [][]NodeID {
	var out [][]NodeID
	var rec func(start int, cur []NodeID)
	rec = func(start int, cur []NodeID) {
		out = append(out, append([]NodeID(nil), cur...))
		if len(cur) == f {
			return
		}
		for i := start; i <= n; i++ {
			rec(i+1, append(cur, NodeID(i)))
		}
	}
	rec(1, nil)
	return out
}

func TestAgreementUnderOmission(t *testing.T) {
	for _, nf := range [][2]int{{4, 1}, {5, 2}, {7, 3}} {
		n, f := nf[0], nf[1]
		for _, corrupt := range corruptSubsets(n, f) {
			t.Run(fmt.Sprintf("n=%d,f=%d,corrupt=%v", n, f, corrupt), func(t *testing.T) {
				outputs, err := RunBroadcast(n, f, "v", corrupt)
				require.NoError(t, err)
				assert.Len(t, outputs, n-len(corrupt))
				for _, id := range corrupt {
					assert.NotContains(t, outputs, id)
				}

				senderCorrupt := false
				for _, id := range corrupt {
					senderCorrupt = senderCorrupt || id == 1
				}
				if senderCorrupt {
					assertAllEqual(t, outputs, DefaultOutput)
				} else {
					assertAllEqual(t, outputs, "v")
				}
			})
		}
	}
}

func TestTerminationRounds(t *testing.T) {
	assert := assert.New(t)

	for f := 0; f < 4; f++ {
		p, err := NewProtocol(Params{N: 5, F: f, SenderInput: "1"})
		require.NoError(t, err)
		res, err := p.Run()
		require.NoError(t, err)
		assert.Equal(f+1, res.Rounds)
		assert.Len(res.MessagesPerRound, f+2)
	}
}

func TestMessageCounts(t *testing.T) {
	p, err := NewProtocol(Params{N: 4, F: 1, SenderInput: "1"})
	require.NoError(t, err)
	res, err := p.Run()
	require.NoError(t, err)

	// Round 0: sender to all. Round 1: nodes 2..4 relay to all. Round 2: nothing new.
	assert.Equal(t, []int{4, 12, 0}, res.MessagesPerRound)
}

func TestCorruptSenderSendsNothing(t *testing.T) {
	p, err := NewProtocol(Params{N: 4, F: 1, SenderInput: "1", Corrupt: []NodeID{1}})
	require.NoError(t, err)
	res, err := p.Run()
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 0}, res.MessagesPerRound)
	assert.Len(t, res.Outputs, 3)
	assertAllEqual(t, res.Outputs, DefaultOutput)
}

func TestCustomSender(t *testing.T) {
	p, err := NewProtocol(Params{N: 4, F: 1, Sender: 3, SenderInput: "hello"})
	require.NoError(t, err)
	assert.True(t, p.Nodes()[2].IsSender())
	assert.False(t, p.Nodes()[0].IsSender())

	res, err := p.Run()
	require.NoError(t, err)
	assertAllEqual(t, res.Outputs, "hello")
}

func TestParallelMatchesSequential(t *testing.T) {
	for _, corrupt := range corruptSubsets(5, 2) {
		seq, err := NewProtocol(Params{N: 5, F: 2, SenderInput: "1", Corrupt: corrupt})
		require.NoError(t, err)
		par, err := NewProtocol(Params{N: 5, F: 2, SenderInput: "1", Corrupt: corrupt, Parallel: true})
		require.NoError(t, err)

		seqRes, err := seq.Run()
		require.NoError(t, err)
		parRes, err := par.Run()
		require.NoError(t, err)

		assert.Equal(t, seqRes, parRes)
	}
}

func TestRealSignatureSchemes(t *testing.T) {
	for _, scheme := range []string{SchemeECDSA, SchemeBLS} {
		t.Run(scheme, func(t *testing.T) {
			signer, err := NewSigner(scheme, 4)
			require.NoError(t, err)

			p, err := NewProtocol(Params{N: 4, F: 1, SenderInput: "1", Corrupt: []NodeID{3}, Signer: signer})
			require.NoError(t, err)
			res, err := p.Run()
			require.NoError(t, err)
			assert.Len(t, res.Outputs, 3)
			assertAllEqual(t, res.Outputs, "1")
		})
	}
}

func TestInvalidParams(t *testing.T) {
	cases := []Params{
		{N: 0, F: 0},
		{N: 4, F: -1},
		{N: 4, F: 4},
		{N: 4, F: 1, Sender: 5},
		{N: 4, F: 1, Corrupt: []NodeID{0}},
		{N: 4, F: 1, Corrupt: []NodeID{5}},
	}
	for _, params := range cases {
		_, err := NewProtocol(params)
		assert.True(t, errors.Is(err, ErrInvalidParams), "%+v", params)
	}

	_, err := RunBroadcast(0, 0, "1", nil)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestSingleNode(t *testing.T) {
	outputs, err := RunBroadcast(1, 0, "x", nil)
	require.NoError(t, err)
	assert.Equal(t, map[NodeID]string{1: "x"}, outputs)
}
