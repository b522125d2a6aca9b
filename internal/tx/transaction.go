package tx

import (
	"bytes"

	"github.com/yourusername/btminer/internal/crypto"
	"github.com/yourusername/btminer/internal/wire"
	"github.com/yourusername/btminer/pkg/types"
)

const (
	// MaxSequence marks an input as final
	MaxSequence = 0xffffffff

	witnessMarker = 0x00
	witnessFlag   = 0x01

	// smallest encodings, used to bound counts read from untrusted input
	minInputSize  = 32 + 4 + 1 + 4
	minOutputSize = 8 + 1
)

// OutPoint identifies a previously created output
type OutPoint struct {
	TxID  types.Hash
	Index uint32
}

// TxInput spends an OutPoint
type TxInput struct {
	PrevOut   OutPoint
	ScriptSig []byte
	Sequence  uint32
	Witness   [][]byte
}

// TxOutput carries an amount in satoshis locked by PkScript
type TxOutput struct {
	Value    uint64
	PkScript []byte
}

// Transaction is immutable once built; every method is read-only
type Transaction struct {
	Version  int32
	Inputs   []TxInput
	Outputs  []TxOutput
	LockTime uint32
}

// NewTransaction creates a new version 1 transaction with lock time 0
func NewTransaction(inputs []TxInput, outputs []TxOutput) *Transaction {
	return &Transaction{
		Version:  1,
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: 0,
	}
}

// IsCoinbase checks if the transaction spends the null outpoint
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 &&
		tx.Inputs[0].PrevOut.TxID.IsZero() &&
		tx.Inputs[0].PrevOut.Index == CoinbaseIndex
}

// HasWitness reports whether any input carries witness data
func (tx *Transaction) HasWitness() bool {
	for _, in := range tx.Inputs {
		if len(in.Witness) > 0 {
			return true
		}
	}

	return false
}

// TxID is the double hash of the legacy encoding; merkle roots are built over it
func (tx *Transaction) TxID() types.Hash {
	return crypto.DoubleHash(tx.LegacyBytes())
}

// WTxID is the double hash of the full encoding, witness data included
func (tx *Transaction) WTxID() types.Hash {
	return crypto.DoubleHash(tx.Bytes())
}

// LegacyBytes encodes the transaction without witness data
func (tx *Transaction) LegacyBytes() []byte {
	w := wire.NewWriter(tx.SerializeSize(false))
	tx.encode(w, false)

	return w.Bytes()
}

// Bytes encodes the transaction, using the witness form when any input has witness data
func (tx *Transaction) Bytes() []byte {
	withWitness := tx.HasWitness()

	w := wire.NewWriter(tx.SerializeSize(withWitness))
	tx.encode(w, withWitness)

	return w.Bytes()
}

// SerializeSize returns the encoded length with or without witness data
func (tx *Transaction) SerializeSize(withWitness bool) int {
	n := 4 + wire.CompactSizeLen(uint64(len(tx.Inputs))) + wire.CompactSizeLen(uint64(len(tx.Outputs))) + 4

	for _, in := range tx.Inputs {
		n += 32 + 4 + wire.VarBytesLen(in.ScriptSig) + 4
	}

	for _, out := range tx.Outputs {
		n += 8 + wire.VarBytesLen(out.PkScript)
	}

	if withWitness {
		n += 2
		for _, in := range tx.Inputs {
			n += wire.CompactSizeLen(uint64(len(in.Witness)))
			for _, item := range in.Witness {
				n += wire.VarBytesLen(item)
			}
		}
	}

	return n
}

func (tx *Transaction) encode(w *wire.Writer, withWitness bool) {
	w.WriteU32LE(uint32(tx.Version))

	if withWitness {
		w.WriteU8(witnessMarker)
		w.WriteU8(witnessFlag)
	}

	w.WriteCompactSize(uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		w.WriteBytes(in.PrevOut.TxID[:])
		w.WriteU32LE(in.PrevOut.Index)
		w.WriteVarBytes(in.ScriptSig)
		w.WriteU32LE(in.Sequence)
	}

	w.WriteCompactSize(uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		w.WriteU64LE(out.Value)
		w.WriteVarBytes(out.PkScript)
	}

	if withWitness {
		for _, in := range tx.Inputs {
			w.WriteCompactSize(uint64(len(in.Witness)))
			for _, item := range in.Witness {
				w.WriteVarBytes(item)
			}
		}
	}

	w.WriteU32LE(tx.LockTime)
}

// Decode parses a complete encoded transaction in either form. Nothing is returned unless every byte is
// consumed, so a failure never yields a partially built transaction.
//
// A legacy encoding with zero inputs is indistinguishable from the witness marker and does not decode. Block
// transactions always have at least one input.
func Decode(b []byte) (*Transaction, error) {
	r := wire.NewReader(b)

	version, err := r.ReadU32LE("version")
	if err != nil {
		return nil, err
	}

	tx := &Transaction{Version: int32(version)}

	withWitness := false
	if peek, ok := r.Peek(2); ok && peek[0] == witnessMarker {
		if peek[1] != witnessFlag {
			return nil, wire.NewParseError("witness flag", "unsupported flag", nil)
		}

		withWitness = true
		_, _ = r.ReadExact(2, "witness marker")
	}

	inputCount, err := r.ReadCount("input count", minInputSize)
	if err != nil {
		return nil, err
	}

	tx.Inputs = make([]TxInput, inputCount)
	for i := range tx.Inputs {
		if err = decodeInput(r, &tx.Inputs[i]); err != nil {
			return nil, err
		}
	}

	outputCount, err := r.ReadCount("output count", minOutputSize)
	if err != nil {
		return nil, err
	}

	tx.Outputs = make([]TxOutput, outputCount)
	for i := range tx.Outputs {
		if tx.Outputs[i].Value, err = r.ReadU64LE("output value"); err != nil {
			return nil, err
		}

		if tx.Outputs[i].PkScript, err = r.ReadVarBytes("scriptpubkey"); err != nil {
			return nil, err
		}
	}

	if withWitness {
		if err = decodeWitness(r, tx); err != nil {
			return nil, err
		}
	}

	if tx.LockTime, err = r.ReadU32LE("locktime"); err != nil {
		return nil, err
	}

	if r.Remaining() != 0 {
		return nil, wire.NewParseError("transaction", "trailing bytes after locktime", nil)
	}

	return tx, nil
}

func decodeInput(r *wire.Reader, in *TxInput) error {
	prev, err := r.ReadExact(types.HashSize, "txid")
	if err != nil {
		return err
	}

	copy(in.PrevOut.TxID[:], prev)

	if in.PrevOut.Index, err = r.ReadU32LE("vout"); err != nil {
		return err
	}

	if in.ScriptSig, err = r.ReadVarBytes("scriptsig"); err != nil {
		return err
	}

	in.Sequence, err = r.ReadU32LE("sequence")

	return err
}

func decodeWitness(r *wire.Reader, tx *Transaction) error {
	for i := range tx.Inputs {
		count, err := r.ReadCount("witness count", 1)
		if err != nil {
			return err
		}

		if count == 0 {
			continue
		}

		tx.Inputs[i].Witness = make([][]byte, count)
		for j := range tx.Inputs[i].Witness {
			if tx.Inputs[i].Witness[j], err = r.ReadVarBytes("witness item"); err != nil {
				return err
			}
		}
	}

	if !tx.HasWitness() {
		return wire.NewParseError("witness", "witness flag set without witness data", nil)
	}

	return nil
}

// Equal compares two transactions field by field
func (tx *Transaction) Equal(other *Transaction) bool {
	if other == nil {
		return false
	}

	return bytes.Equal(tx.Bytes(), other.Bytes())
}

// TotalOutput sums the output values
func (tx *Transaction) TotalOutput() uint64 {
	var total uint64
	for _, out := range tx.Outputs {
		total += out.Value
	}

	return total
}
