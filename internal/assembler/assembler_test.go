package assembler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/btminer/internal/crypto"
	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/mempool"
	"github.com/yourusername/btminer/internal/merkle"
	"github.com/yourusername/btminer/internal/pow"
	"github.com/yourusername/btminer/internal/tx"
	"github.com/yourusername/btminer/internal/ulogger"
	"github.com/yourusername/btminer/pkg/types"
)

const opTrueCoinbaseID = "ee4367b00cd84a7c86bb594814cec526320f2fd64ecf6f997abbfc4b41e88cc4"

func testSettings() Settings {
	return Settings{
		Bits:            pow.EasyBits,
		Time:            1700000000,
		MaxTransactions: 10,
		CoinbaseText:    "/btminer/",
		Payouts:         []tx.Payout{{Script: []byte{crypto.OpTrue}, Value: 5000000000}},
	}
}

func testTx(i int) *tx.Transaction {
	return tx.NewTransaction(
		[]tx.TxInput{{
			PrevOut:   tx.OutPoint{TxID: crypto.DoubleHash([]byte{byte(i)}), Index: uint32(i)},
			ScriptSig: []byte{0x00, byte(i)},
			Sequence:  tx.MaxSequence,
		}},
		[]tx.TxOutput{{Value: uint64(1000 + i), PkScript: []byte{crypto.OpTrue}}},
	)
}

func newAssembler(t *testing.T, logger ulogger.Logger, settings Settings) *Assembler {
	t.Helper()

	a, err := New(logger, settings)
	require.NoError(t, err)

	return a
}

func TestNew_RejectsBadSettings(t *testing.T) {
	settings := testSettings()
	settings.MaxTransactions = 0
	_, err := New(ulogger.TestLogger{}, settings)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	settings = testSettings()
	settings.Payouts = nil
	_, err = New(ulogger.TestLogger{}, settings)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	settings = testSettings()
	settings.Bits = 0x04923456
	_, err = New(ulogger.TestLogger{}, settings)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestAssemble_CoinbaseOnly(t *testing.T) {
	a := newAssembler(t, ulogger.TestLogger{}, testSettings())

	block, err := a.Assemble(context.Background(), mempool.StaticSource{})
	require.NoError(t, err)

	require.Len(t, block.Transactions, 1)
	assert.True(t, block.Coinbase().IsCoinbase())
	assert.Equal(t, opTrueCoinbaseID, block.Coinbase().TxID().String())
	assert.Equal(t, block.Coinbase().TxID(), block.Header.MerkleRoot)

	assert.Equal(t, int32(1), block.Header.Version)
	assert.True(t, block.Header.PrevBlockHash.IsZero())
	assert.Equal(t, uint32(1700000000), block.Header.Timestamp)
	assert.Equal(t, uint32(pow.EasyBits), block.Header.Bits)
	assert.Zero(t, block.Header.Nonce)
	assert.NotEqual(t, [16]byte{}, [16]byte(block.ID))
	require.NoError(t, block.CheckMerkleRoot())
}

func TestAssemble_SkipsBadRecords(t *testing.T) {
	logger := ulogger.NewBufferLogger()
	a := newAssembler(t, logger, testSettings())

	source := mempool.StaticSource{
		{Name: "0.json", Tx: testTx(0)},
		{Name: "1.json", Err: errors.NewRecordDecodeError("invalid transaction record", fmt.Errorf("bad scriptsig"))},
		{Name: "2.json", Tx: testTx(2)},
		{Name: "3.json", Err: errors.NewRecordDecodeError("invalid transaction record", fmt.Errorf("bad txid"))},
		{Name: "4.json", Tx: testTx(4)},
	}

	block, err := a.Assemble(context.Background(), source)
	require.NoError(t, err)
	require.Len(t, block.Transactions, 4)

	assert.Same(t, source[0].Tx, block.Transactions[1])
	assert.Same(t, source[2].Tx, block.Transactions[2])
	assert.Same(t, source[4].Tx, block.Transactions[3])

	expected, err := merkle.BuildMerkleRoot([]types.Hash{
		block.Coinbase().TxID(), testTx(0).TxID(), testTx(2).TxID(), testTx(4).TxID(),
	})
	require.NoError(t, err)
	assert.Equal(t, expected, block.Header.MerkleRoot)

	warnings := logger.Lines("WARN")
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "1.json")
	assert.Contains(t, warnings[0], "bad scriptsig")
	assert.Contains(t, warnings[1], "3.json")
}

func TestAssemble_FromDirectory(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 5; i++ {
		data, err := mempool.NewRecord(testTx(i)).Marshal()
		require.NoError(t, err)

		if i == 1 {
			data = []byte(`{"version": 1, "vin": [], "vout": []}`)
		}

		if i == 3 {
			data = data[:len(data)/2]
		}

		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("tx%d.json", i)), data, 0o600))
	}

	logger := ulogger.NewBufferLogger()
	a := newAssembler(t, logger, testSettings())

	block, err := a.Assemble(context.Background(), mempool.NewDirSource(dir, 10))
	require.NoError(t, err)
	require.Len(t, block.Transactions, 4)

	for i, want := range []int{0, 2, 4} {
		assert.Equal(t, testTx(want).TxID(), block.Transactions[i+1].TxID())
	}

	require.NoError(t, block.CheckMerkleRoot())
	assert.Len(t, logger.Lines("WARN"), 2)
}

func TestAssemble_SourceUnavailable(t *testing.T) {
	a := newAssembler(t, ulogger.TestLogger{}, testSettings())

	_, err := a.Assemble(context.Background(), mempool.NewDirSource(filepath.Join(t.TempDir(), "missing"), 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSourceUnavailable))
}

func TestAssemble_CapsTransactions(t *testing.T) {
	settings := testSettings()
	settings.MaxTransactions = 2

	logger := ulogger.NewBufferLogger()
	a := newAssembler(t, logger, settings)

	source := mempool.StaticSource{
		{Name: "a", Tx: testTx(1)},
		{Name: "b", Tx: testTx(2)},
		{Name: "c", Tx: testTx(3)},
	}

	block, err := a.Assemble(context.Background(), source)
	require.NoError(t, err)
	assert.Len(t, block.Transactions, 3)
	assert.Len(t, logger.Lines("WARN"), 1)
}

func TestAssemble_WallClockTime(t *testing.T) {
	settings := testSettings()
	settings.Time = 0

	a := newAssembler(t, ulogger.TestLogger{}, settings)
	a.now = func() time.Time { return time.Unix(1234567890, 0) }

	block, err := a.Assemble(context.Background(), mempool.StaticSource{})
	require.NoError(t, err)
	assert.Equal(t, uint32(1234567890), block.Header.Timestamp)
}

func TestAssemble_PrevBlockAndVersion(t *testing.T) {
	settings := testSettings()
	settings.Version = 0x20000000
	settings.PrevBlockHash = crypto.DoubleHash([]byte("tip"))

	block, err := newAssembler(t, ulogger.TestLogger{}, settings).Assemble(context.Background(), mempool.StaticSource{})
	require.NoError(t, err)
	assert.Equal(t, int32(0x20000000), block.Header.Version)
	assert.Equal(t, settings.PrevBlockHash, block.Header.PrevBlockHash)
}

func TestBlock_CheckMerkleRootDetectsTampering(t *testing.T) {
	source := mempool.StaticSource{{Name: "a", Tx: testTx(1)}, {Name: "b", Tx: testTx(2)}}

	block, err := newAssembler(t, ulogger.TestLogger{}, testSettings()).Assemble(context.Background(), source)
	require.NoError(t, err)

	block.Transactions[1], block.Transactions[2] = block.Transactions[2], block.Transactions[1]
	assert.Error(t, block.CheckMerkleRoot())
}

func TestBlock_RollExtraNonce(t *testing.T) {
	source := mempool.StaticSource{}
	for i := 0; i < 6; i++ {
		source = append(source, mempool.Candidate{Name: fmt.Sprint(i), Tx: testTx(i)})
	}

	block, err := newAssembler(t, ulogger.TestLogger{}, testSettings()).Assemble(context.Background(), source)
	require.NoError(t, err)

	oldRoot := block.Header.MerkleRoot
	oldCoinbase := block.Coinbase()
	block.Header.Nonce = 99

	require.NoError(t, block.RollExtraNonce())

	assert.Equal(t, uint64(1), block.ExtraNonce())
	assert.NotEqual(t, oldRoot, block.Header.MerkleRoot)
	assert.NotEqual(t, oldCoinbase.TxID(), block.Coinbase().TxID())
	assert.Equal(t, opTrueCoinbaseID, oldCoinbase.TxID().String(), "previous coinbase is not mutated")
	assert.Zero(t, block.Header.Nonce)
	require.NoError(t, block.CheckMerkleRoot())
}

type scriptedMiner struct {
	exhaustions int
	headers     []types.BlockHeader
}

func (m *scriptedMiner) Mine(_ context.Context, header types.BlockHeader) (*pow.Result, error) {
	m.headers = append(m.headers, header)

	if len(m.headers) <= m.exhaustions {
		return nil, errors.NewSearchExhaustedError("scripted")
	}

	header.Nonce = 7

	return &pow.Result{Header: header, Hash: crypto.HashBlockHeader(&header)}, nil
}

func TestMineBlock_RollsExtraNonce(t *testing.T) {
	block, err := newAssembler(t, ulogger.TestLogger{}, testSettings()).Assemble(context.Background(), mempool.StaticSource{{Name: "a", Tx: testTx(1)}})
	require.NoError(t, err)

	miner := &scriptedMiner{exhaustions: 2}

	result, err := MineBlock(context.Background(), ulogger.TestLogger{}, block, miner, 3)
	require.NoError(t, err)

	require.Len(t, miner.headers, 3)
	assert.NotEqual(t, miner.headers[0].MerkleRoot, miner.headers[1].MerkleRoot)
	assert.NotEqual(t, miner.headers[1].MerkleRoot, miner.headers[2].MerkleRoot)

	assert.Equal(t, uint64(2), block.ExtraNonce())
	assert.Equal(t, uint32(7), block.Header.Nonce)
	assert.Equal(t, result.Header, block.Header)
	require.NoError(t, block.CheckMerkleRoot())
}

func TestMineBlock_GivesUp(t *testing.T) {
	block, err := newAssembler(t, ulogger.TestLogger{}, testSettings()).Assemble(context.Background(), mempool.StaticSource{})
	require.NoError(t, err)

	miner := &scriptedMiner{exhaustions: 10}

	_, err = MineBlock(context.Background(), ulogger.TestLogger{}, block, miner, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSearchExhausted))
	assert.Len(t, miner.headers, 3)
}

func TestMineBlock_WithPowMiner(t *testing.T) {
	block, err := newAssembler(t, ulogger.TestLogger{}, testSettings()).Assemble(context.Background(), mempool.StaticSource{})
	require.NoError(t, err)

	result, err := MineBlock(context.Background(), ulogger.TestLogger{}, block, pow.NewMiner(ulogger.TestLogger{}, pow.WithWorkers(2)), 0)
	require.NoError(t, err)

	assert.Less(t, result.Attempts, uint64(1<<16))
	assert.Equal(t, result.Hash, block.Hash())

	target, err := pow.TargetFromCompact(block.Header.Bits)
	require.NoError(t, err)

	hash := block.Hash()
	assert.True(t, pow.HashMeetsTarget(&hash, &target))
	require.NoError(t, block.CheckMerkleRoot())
}

func TestAssemble_LogsCoinbaseValue(t *testing.T) {
	logger := ulogger.NewBufferLogger()

	settings := testSettings()
	settings.Payouts = tx.SplitReward(625000001, [][]byte{{crypto.OpTrue}, {crypto.OpTrue, crypto.OpTrue}})

	block, err := newAssembler(t, logger, settings).Assemble(context.Background(), mempool.StaticSource{})
	require.NoError(t, err)

	require.Len(t, block.Coinbase().Outputs, 2)
	assert.Equal(t, uint64(625000001), block.Coinbase().TotalOutput())

	debug := logger.Lines("DEBUG")
	require.Len(t, debug, 1)
	assert.Contains(t, debug[0], "pays 625000001 satoshis to 2 outputs")
}
