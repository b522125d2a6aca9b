// Package mempool reads candidate transactions for block assembly from JSON records.
package mempool

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/tx"
	"github.com/yourusername/btminer/internal/wire"
	"github.com/yourusername/btminer/pkg/types"
)

var jsonAPI = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
	DisallowUnknownFields:  false,
}.Froze()

// Record is one pending transaction as found in the mempool directory. Numbers are kept as text so that
// out-of-range values are reported against their field instead of being silently truncated.
type Record struct {
	Version  json.Number    `json:"version"`
	LockTime json.Number    `json:"locktime,omitempty"`
	Vin      []RecordInput  `json:"vin"`
	Vout     []RecordOutput `json:"vout"`
}

type RecordInput struct {
	TxID      string      `json:"txid"`
	Vout      json.Number `json:"vout"`
	ScriptSig string      `json:"scriptsig"`
	Sequence  json.Number `json:"sequence,omitempty"`
	Witness   []string    `json:"witness,omitempty"`
}

type RecordOutput struct {
	Value        json.Number `json:"value"`
	ScriptPubKey string      `json:"scriptpubkey"`
}

// ParseRecord decodes the JSON text of a single record
func ParseRecord(data []byte) (*Record, error) {
	var r Record

	if err := jsonAPI.Unmarshal(data, &r); err != nil {
		return nil, errors.NewRecordDecodeError("invalid record json", wire.NewParseError("json", "malformed", err))
	}

	return &r, nil
}

// NewRecord renders a transaction in record form, the inverse of ToTransaction
func NewRecord(t *tx.Transaction) *Record {
	r := &Record{
		Version:  json.Number(strconv.FormatInt(int64(t.Version), 10)),
		LockTime: json.Number(strconv.FormatUint(uint64(t.LockTime), 10)),
		Vin:      make([]RecordInput, len(t.Inputs)),
		Vout:     make([]RecordOutput, len(t.Outputs)),
	}

	for i, in := range t.Inputs {
		witness := make([]string, len(in.Witness))
		for j, item := range in.Witness {
			witness[j] = hex.EncodeToString(item)
		}

		r.Vin[i] = RecordInput{
			TxID:      in.PrevOut.TxID.String(),
			Vout:      json.Number(strconv.FormatUint(uint64(in.PrevOut.Index), 10)),
			ScriptSig: hex.EncodeToString(in.ScriptSig),
			Sequence:  json.Number(strconv.FormatUint(uint64(in.Sequence), 10)),
			Witness:   witness,
		}
	}

	for i, out := range t.Outputs {
		r.Vout[i] = RecordOutput{
			Value:        json.Number(strconv.FormatUint(out.Value, 10)),
			ScriptPubKey: hex.EncodeToString(out.PkScript),
		}
	}

	return r
}

// Marshal encodes the record as JSON
func (r *Record) Marshal() ([]byte, error) {
	return jsonAPI.Marshal(r)
}

// ToTransaction builds the transaction described by the record. It either returns a complete transaction or a
// RecordDecodeError wrapping a *wire.ParseError that names the offending field.
func (r *Record) ToTransaction() (*tx.Transaction, error) {
	if len(r.Vin) == 0 {
		return nil, decodeError(wire.NewParseError("vin", "no inputs", nil))
	}

	if len(r.Vout) == 0 {
		return nil, decodeError(wire.NewParseError("vout", "no outputs", nil))
	}

	version, err := parseInt32(r.Version, "version")
	if err != nil {
		return nil, decodeError(err)
	}

	lockTime, err := parseUint(r.LockTime, "locktime", 32, 0)
	if err != nil {
		return nil, decodeError(err)
	}

	t := &tx.Transaction{
		Version:  version,
		Inputs:   make([]tx.TxInput, len(r.Vin)),
		Outputs:  make([]tx.TxOutput, len(r.Vout)),
		LockTime: uint32(lockTime),
	}

	for i := range r.Vin {
		if err = r.Vin[i].decode(i, &t.Inputs[i]); err != nil {
			return nil, decodeError(err)
		}
	}

	for i := range r.Vout {
		if err = r.Vout[i].decode(i, &t.Outputs[i]); err != nil {
			return nil, decodeError(err)
		}
	}

	return t, nil
}

func (in *RecordInput) decode(i int, out *tx.TxInput) error {
	field := func(name string) string {
		return fmt.Sprintf("vin[%d].%s", i, name)
	}

	prevTxID, err := types.NewHashFromStr(in.TxID)
	if err != nil {
		return wire.NewParseError(field("txid"), "want 64 hex characters", err)
	}

	index, err := parseUint(in.Vout, field("vout"), 32, -1)
	if err != nil {
		return err
	}

	scriptSig, err := decodeHex(in.ScriptSig, field("scriptsig"))
	if err != nil {
		return err
	}

	sequence, err := parseUint(in.Sequence, field("sequence"), 32, tx.MaxSequence)
	if err != nil {
		return err
	}

	var witness [][]byte
	if len(in.Witness) > 0 {
		witness = make([][]byte, len(in.Witness))

		for j, item := range in.Witness {
			if witness[j], err = decodeHex(item, fmt.Sprintf("vin[%d].witness[%d]", i, j)); err != nil {
				return err
			}
		}
	}

	*out = tx.TxInput{
		PrevOut:   tx.OutPoint{TxID: prevTxID, Index: uint32(index)},
		ScriptSig: scriptSig,
		Sequence:  uint32(sequence),
		Witness:   witness,
	}

	return nil
}

func (o *RecordOutput) decode(i int, out *tx.TxOutput) error {
	value, err := parseUint(o.Value, fmt.Sprintf("vout[%d].value", i), 64, -1)
	if err != nil {
		return err
	}

	pkScript, err := decodeHex(o.ScriptPubKey, fmt.Sprintf("vout[%d].scriptpubkey", i))
	if err != nil {
		return err
	}

	*out = tx.TxOutput{Value: value, PkScript: pkScript}

	return nil
}

func decodeError(err error) error {
	return errors.NewRecordDecodeError("invalid transaction record", err)
}

func decodeHex(s, field string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, wire.NewParseError(field, "odd length hex", nil)
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, wire.NewParseError(field, "invalid hex", err)
	}

	return b, nil
}

// parseUint parses an unsigned field of the given width. An empty value yields def, or an error when def < 0.
func parseUint(n json.Number, field string, bitSize int, def int64) (uint64, error) {
	if n == "" {
		if def < 0 {
			return 0, wire.NewParseError(field, "missing", nil)
		}

		return uint64(def), nil
	}

	v, err := strconv.ParseUint(n.String(), 10, bitSize)
	if err != nil {
		return 0, wire.NewParseError(field, fmt.Sprintf("not a uint%d", bitSize), err)
	}

	return v, nil
}

func parseInt32(n json.Number, field string) (int32, error) {
	if n == "" {
		return 0, wire.NewParseError(field, "missing", nil)
	}

	v, err := strconv.ParseInt(n.String(), 10, 32)
	if err != nil {
		return 0, wire.NewParseError(field, "not an int32", err)
	}

	return int32(v), nil
}
