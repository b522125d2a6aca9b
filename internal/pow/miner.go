// Package pow implements the compact target arithmetic and the proof-of-work nonce search.
package pow

import (
	"context"
	"math"
	"runtime"
	"time"

	"github.com/yourusername/btminer/internal/errors"
	"github.com/yourusername/btminer/internal/metrics"
	"github.com/yourusername/btminer/internal/ulogger"
	"github.com/yourusername/btminer/pkg/types"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxTimeRolls bounds how many times the header time is bumped once the nonce range is spent
	DefaultMaxTimeRolls = 16

	noSolution    = math.MaxUint64
	ctxCheckEvery = 1024
)

// Result is a solved header
type Result struct {
	Header    types.BlockHeader
	Hash      types.Hash
	Attempts  uint64
	TimeRolls uint32
	Duration  time.Duration
}

// Miner searches the nonce space of a header for a hash at or below the header's compact target.
// The nonce range is split across workers; when several workers find a solution the lowest nonce wins,
// so the result does not depend on the worker count.
type Miner struct {
	logger       ulogger.Logger
	workers      int
	rollTime     bool
	maxTimeRolls uint32
	nonceStart   uint32
	nonceEnd     uint32
}

type Option func(*Miner)

// WithWorkers sets the number of parallel search goroutines, 0 means one per CPU
func WithWorkers(n int) Option {
	return func(m *Miner) {
		if n <= 0 {
			n = runtime.NumCPU()
		}

		m.workers = n
	}
}

// WithTimeRolling enables incrementing the header time up to maxRolls times after the nonce range is spent
func WithTimeRolling(maxRolls uint32) Option {
	return func(m *Miner) {
		m.rollTime = maxRolls > 0
		m.maxTimeRolls = maxRolls
	}
}

// WithNonceRange restricts the search to [start, end]
func WithNonceRange(start, end uint32) Option {
	return func(m *Miner) {
		m.nonceStart = start
		m.nonceEnd = end
	}
}

func NewMiner(logger ulogger.Logger, opts ...Option) *Miner {
	metrics.Init()

	m := &Miner{
		logger:       logger,
		workers:      runtime.NumCPU(),
		rollTime:     true,
		maxTimeRolls: DefaultMaxTimeRolls,
		nonceStart:   0,
		nonceEnd:     math.MaxUint32,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Mine returns a copy of header with a nonce, and possibly a later time, whose hash meets header.Bits.
// The input header is not modified.
func (m *Miner) Mine(ctx context.Context, header types.BlockHeader) (*Result, error) {
	if m.nonceEnd < m.nonceStart {
		return nil, errors.NewInvalidArgumentError("nonce range [%d, %d] is empty", m.nonceStart, m.nonceEnd)
	}

	target, err := TargetFromCompact(header.Bits)
	if err != nil {
		return nil, err
	}

	m.logger.Infof("[Miner] searching with %d workers, bits %08x, difficulty %g", m.workers, header.Bits, Difficulty(header.Bits))

	start := time.Now()

	defer func() {
		metrics.MinerSearchDuration.Observe(time.Since(start).Seconds())
	}()

	var (
		attempts  uint64
		timeRolls uint32
	)

	for {
		hasher, err := newHeaderHasher(&header)
		if err != nil {
			return nil, err
		}

		nonce, found, n, err := m.searchRange(ctx, hasher, &target, m.nonceStart, m.nonceEnd)
		attempts += n

		metrics.MinerHashesAttempted.Add(float64(n))

		if err != nil {
			return nil, err
		}

		if found {
			solved := header.WithNonce(nonce)

			result := &Result{
				Header:    solved,
				Attempts:  attempts,
				TimeRolls: timeRolls,
				Duration:  time.Since(start),
			}
			hasher.hash(nonce, &result.Hash)

			metrics.MinerBlocksFound.Inc()
			m.logger.Infof("[Miner] found nonce %d after %d attempts and %d time rolls in %s: %s", nonce, attempts, timeRolls, result.Duration, result.Hash)

			return result, nil
		}

		if !m.rollTime || timeRolls >= m.maxTimeRolls || header.Timestamp == math.MaxUint32 {
			break
		}

		timeRolls++
		header.Timestamp++

		metrics.MinerTimeRolls.Inc()
		m.logger.Debugf("[Miner] nonce range spent, rolling time to %d", header.Timestamp)
	}

	metrics.MinerSearchExhausted.Inc()

	return nil, errors.NewSearchExhaustedError("no nonce in [%d, %d] meets bits %08x after %d attempts and %d time rolls", m.nonceStart, m.nonceEnd, header.Bits, attempts, timeRolls)
}

// searchRange tests every nonce in [start, end] that could still beat the best solution found so far.
// Worker w visits start+w, start+w+W, ... and stops once it passes the best nonce, so every nonce below the
// final answer has been tested by some worker. Loop counters are 64-bit so that end == MaxUint32 terminates.
func (m *Miner) searchRange(ctx context.Context, hasher *headerHasher, target *Target, start, end uint32) (uint32, bool, uint64, error) {
	span := uint64(end) - uint64(start) + 1

	workers := uint64(m.workers)
	if workers == 0 {
		workers = 1
	}

	if workers > span {
		workers = span
	}

	best := atomic.NewUint64(noSolution)
	attempts := atomic.NewUint64(0)

	g, gCtx := errgroup.WithContext(ctx)

	for w := uint64(0); w < workers; w++ {
		hh := hasher.clone()
		first := uint64(start) + w

		g.Go(func() error {
			var (
				hash  types.Hash
				local uint64
			)

			defer func() {
				attempts.Add(local)
			}()

			for nonce := first; nonce <= uint64(end); nonce += workers {
				if nonce > best.Load() {
					return nil
				}

				if local%ctxCheckEvery == 0 {
					select {
					case <-gCtx.Done():
						return errors.NewContextCanceledError("nonce search stopped at %d", nonce, gCtx.Err())
					default:
					}
				}

				hh.hash(uint32(nonce), &hash)
				local++

				if HashMeetsTarget(&hash, target) {
					storeMin(best, nonce)
					return nil
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, false, attempts.Load(), err
	}

	nonce := best.Load()
	if nonce == noSolution {
		return 0, false, attempts.Load(), nil
	}

	return uint32(nonce), true, attempts.Load(), nil
}

func storeMin(best *atomic.Uint64, nonce uint64) {
	for {
		current := best.Load()
		if nonce >= current {
			return
		}

		if best.CompareAndSwap(current, nonce) {
			return
		}
	}
}
