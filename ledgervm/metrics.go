// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledgervm

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/ledgervm/executor"
)

type metrics struct {
	blocks      prometheus.Counter
	txs         *prometheus.CounterVec
	gasUsed     prometheus.Histogram
	mempoolSize prometheus.Gauge
}

func newMetrics(namespace string, registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_produced",
			Help:      "Number of blocks produced",
		}),
		txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_processed",
			Help:      "Number of transactions processed, by final status",
		}, []string{"status"}),
		gasUsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tx_gas_used",
			Help:      "Gas used per executed transaction",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 12),
		}),
		mempoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mempool_size",
			Help:      "Number of transactions waiting for a block",
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.blocks),
		registerer.Register(m.txs),
		registerer.Register(m.gasUsed),
		registerer.Register(m.mempoolSize),
	)
	return m, errs.Err
}

func (m *metrics) observe(out *executor.Output) {
	m.blocks.Inc()
	for _, o := range out.Outcomes {
		m.txs.WithLabelValues(o.Status.String()).Inc()
		if o.GasUsed > 0 {
			m.gasUsed.Observe(float64(o.GasUsed))
		}
	}
}
