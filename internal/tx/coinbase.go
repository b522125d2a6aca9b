package tx

import (
	"encoding/binary"

	"github.com/yourusername/btminer/internal/errors"
)

const (
	// CoinbaseIndex is the output index of the null outpoint a coinbase spends
	CoinbaseIndex = 0xffffffff

	// ExtraNonceSize is the width of the extra nonce pushed into the coinbase script
	ExtraNonceSize = 8

	MinCoinbaseScriptLen = 2
	MaxCoinbaseScriptLen = 100

	opPushData1 = 0x4c
	opPushData2 = 0x4d
	op1         = 0x51
)

// Payout is one coinbase output
type Payout struct {
	Script []byte
	Value  uint64
}

// CoinbaseParams describe the reward transaction of a candidate block
type CoinbaseParams struct {
	Version    int32
	Height     uint32 // 0 leaves the height out of the script
	Text       string
	ExtraNonce uint64
	Payouts    []Payout
}

// NewCoinbaseTx creates the coinbase transaction (mining reward)
func NewCoinbaseTx(p CoinbaseParams) (*Transaction, error) {
	if len(p.Payouts) == 0 {
		return nil, errors.NewInvalidArgumentError("coinbase needs at least one payout")
	}

	script, err := CoinbaseScript(p.Height, p.Text, p.ExtraNonce)
	if err != nil {
		return nil, err
	}

	version := p.Version
	if version == 0 {
		version = 1
	}

	outputs := make([]TxOutput, len(p.Payouts))
	for i, payout := range p.Payouts {
		pkScript := make([]byte, len(payout.Script))
		copy(pkScript, payout.Script)

		outputs[i] = TxOutput{Value: payout.Value, PkScript: pkScript}
	}

	return &Transaction{
		Version: version,
		Inputs: []TxInput{{
			PrevOut:   OutPoint{Index: CoinbaseIndex},
			ScriptSig: script,
			Sequence:  MaxSequence,
		}},
		Outputs:  outputs,
		LockTime: 0,
	}, nil
}

// CoinbaseScript builds the unlocking data: [height push] text push, extra nonce push.
func CoinbaseScript(height uint32, text string, extraNonce uint64) ([]byte, error) {
	script := make([]byte, 0, 16+len(text))

	if height > 0 {
		script = appendScriptNum(script, int64(height))
	}

	if text != "" {
		script = appendPushData(script, []byte(text))
	}

	var nonce [ExtraNonceSize]byte
	binary.LittleEndian.PutUint64(nonce[:], extraNonce)
	script = appendPushData(script, nonce[:])

	if len(script) < MinCoinbaseScriptLen || len(script) > MaxCoinbaseScriptLen {
		return nil, errors.NewEncodingError("coinbase script length %d outside [%d, %d]", len(script), MinCoinbaseScriptLen, MaxCoinbaseScriptLen)
	}

	return script, nil
}

// SplitReward divides reward evenly across scripts, giving any remainder to the first one
func SplitReward(reward uint64, scripts [][]byte) []Payout {
	if len(scripts) == 0 {
		return nil
	}

	share := reward / uint64(len(scripts))
	payouts := make([]Payout, len(scripts))

	for i, script := range scripts {
		payouts[i] = Payout{Script: script, Value: share}
	}

	payouts[0].Value += reward - share*uint64(len(scripts))

	return payouts
}

func appendPushData(script, data []byte) []byte {
	switch n := len(data); {
	case n < opPushData1:
		script = append(script, byte(n))
	case n <= 0xff:
		script = append(script, opPushData1, byte(n))
	default:
		script = append(script, opPushData2)
		script = binary.LittleEndian.AppendUint16(script, uint16(n))
	}

	return append(script, data...)
}

// appendScriptNum pushes n the way the BIP34 height commitment does: OP_1..OP_16 for small values,
// otherwise the minimal little-endian sign-magnitude encoding.
func appendScriptNum(script []byte, n int64) []byte {
	if n >= 1 && n <= 16 {
		return append(script, byte(op1-1+n))
	}

	var num []byte
	for v := n; v > 0; v >>= 8 {
		num = append(num, byte(v&0xff))
	}

	if num[len(num)-1]&0x80 != 0 {
		num = append(num, 0x00)
	}

	return appendPushData(script, num)
}
