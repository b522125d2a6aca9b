package mempool

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/tx"
	"golang.org/x/sync/errgroup"
)

const defaultReadConcurrency = 8

// Candidate is one record offered for inclusion. Exactly one of Tx and Err is set.
type Candidate struct {
	Name string
	Tx   *tx.Transaction
	Err  error
}

// Source supplies an ordered, bounded list of candidates. A failure to reach the source as a whole is returned
// as an error; a failure to decode a single record is reported on its Candidate.
type Source interface {
	Candidates(ctx context.Context) ([]Candidate, error)
}

// DirSource reads one JSON record per file from a directory, in file name order
type DirSource struct {
	dir        string
	maxRecords int
}

// NewDirSource reads at most maxRecords files from dir, 0 means all of them
func NewDirSource(dir string, maxRecords int) *DirSource {
	return &DirSource{
		dir:        dir,
		maxRecords: maxRecords,
	}
}

func (s *DirSource) Dir() string {
	return s.dir
}

func (s *DirSource) Candidates(ctx context.Context) ([]Candidate, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.NewSourceUnavailableError("cannot read mempool directory %s", s.dir, err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		names = append(names, entry.Name())
	}

	sort.Strings(names)

	if s.maxRecords > 0 && len(names) > s.maxRecords {
		names = names[:s.maxRecords]
	}

	candidates := make([]Candidate, len(names))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(defaultReadConcurrency)

	for i, name := range names {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return errors.NewContextCanceledError("reading mempool stopped", err)
			}

			candidates[i] = readCandidate(filepath.Join(s.dir, name), name)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return candidates, nil
}

func readCandidate(path, name string) Candidate {
	data, err := os.ReadFile(path)
	if err != nil {
		return Candidate{Name: name, Err: errors.NewRecordDecodeError("cannot read record file", err)}
	}

	record, err := ParseRecord(data)
	if err != nil {
		return Candidate{Name: name, Err: err}
	}

	t, err := record.ToTransaction()
	if err != nil {
		return Candidate{Name: name, Err: err}
	}

	return Candidate{Name: name, Tx: t}
}

// StaticSource serves candidates that are already in memory
type StaticSource []Candidate

func (s StaticSource) Candidates(ctx context.Context) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewContextCanceledError("reading candidates stopped", err)
	}

	return s, nil
}
