// Package metrics holds the prometheus collectors shared by the assembler and the miner.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// in Assembler
	BlockAssemblerCandidates       prometheus.Counter
	BlockAssemblerTransactions     prometheus.Gauge
	BlockAssemblerRecordsRejected  prometheus.Counter
	BlockAssemblerAssembleDuration prometheus.Histogram

	// in Miner
	MinerHashesAttempted prometheus.Counter
	MinerBlocksFound     prometheus.Counter
	MinerSearchExhausted prometheus.Counter
	MinerTimeRolls       prometheus.Counter
	MinerSearchDuration  prometheus.Histogram
)

var prometheusMetricsInitOnce sync.Once

func Init() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	BlockAssemblerCandidates = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "btminer",
			Subsystem: "assembler",
			Name:      "candidates",
			Help:      "Number of block candidates assembled",
		},
	)

	BlockAssemblerTransactions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "btminer",
			Subsystem: "assembler",
			Name:      "transactions",
			Help:      "Number of transactions in the last assembled block, coinbase included",
		},
	)

	BlockAssemblerRecordsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "btminer",
			Subsystem: "assembler",
			Name:      "records_rejected",
			Help:      "Number of transaction records dropped because they failed to decode",
		},
	)

	BlockAssemblerAssembleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "btminer",
			Subsystem: "assembler",
			Name:      "assemble_duration_seconds",
			Help:      "Time taken to assemble a block candidate",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
	)

	MinerHashesAttempted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "btminer",
			Subsystem: "miner",
			Name:      "hashes_attempted",
			Help:      "Number of header hashes computed",
		},
	)

	MinerBlocksFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "btminer",
			Subsystem: "miner",
			Name:      "blocks_found",
			Help:      "Number of headers found that meet their target",
		},
	)

	MinerSearchExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "btminer",
			Subsystem: "miner",
			Name:      "search_exhausted",
			Help:      "Number of searches that ran out of nonces and time rolls",
		},
	)

	MinerTimeRolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "btminer",
			Subsystem: "miner",
			Name:      "time_rolls",
			Help:      "Number of times the header time was incremented after the nonce space ran out",
		},
	)

	MinerSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "btminer",
			Subsystem: "miner",
			Name:      "search_duration_seconds",
			Help:      "Time taken by a proof-of-work search",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
		},
	)
}

// Handler serves the default registry in the prometheus text format
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}
