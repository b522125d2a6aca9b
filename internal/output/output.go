// Package output writes a mined block as text: the header hex, the coinbase hex, then one transaction id per line.
package output

import (
	"bufio"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/yourusername/btminer/internal/assembler"
	"github.com/yourusername/btminer/internal/errors"
)

// Write emits 2+T lines for a block of T transactions
func Write(w io.Writer, block *assembler.Block) error {
	coinbase := block.Coinbase()
	if coinbase == nil {
		return errors.NewEncodingError("block %s has no coinbase", block.ID)
	}

	bw := bufio.NewWriter(w)

	lines := make([]string, 0, 2+len(block.Transactions))
	lines = append(lines, hex.EncodeToString(block.Header.Serialize()), hex.EncodeToString(coinbase.Bytes()))

	for _, id := range block.TxIDs() {
		lines = append(lines, id.String())
	}

	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return errors.NewProcessingError("failed to write block %s", block.ID, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return errors.NewProcessingError("failed to write block %s", block.ID, err)
	}

	return nil
}

// WriteFile writes the block to path, replacing the file atomically
func WriteFile(path string, block *assembler.Block) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.NewProcessingError("failed to create output file for %s", path, err)
	}

	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err = tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return errors.NewProcessingError("failed to set mode on output file for %s", path, err)
	}

	if err = Write(tmp, block); err != nil {
		_ = tmp.Close()
		return err
	}

	if err = tmp.Close(); err != nil {
		return errors.NewProcessingError("failed to close output file for %s", path, err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.NewProcessingError("failed to move output into %s", path, err)
	}

	return nil
}
