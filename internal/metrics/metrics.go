// Package metrics 选举后台的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clubvote"

// Recorder 汇总链上交易与本地活动指标；nil Recorder 的方法均为空操作
type Recorder struct {
	txSubmitted   *prometheus.CounterVec
	txFailed      *prometheus.CounterVec
	txConfirmSecs *prometheus.HistogramVec
	chainSkipped  prometheus.Counter
	walletConnect *prometheus.CounterVec
	eventsCreated prometheus.Counter
	eventsDeleted prometheus.Counter
}

// NewRecorder 在指定 Registerer 上注册指标（测试用 prometheus.NewRegistry()）
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		txSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "transactions_submitted_total",
			Help:      "Transactions sent to the voting event contract.",
		}, []string{"method"}),
		txFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "transactions_failed_total",
			Help:      "Transactions that were rejected, failed or timed out.",
		}, []string{"method", "reason"}),
		txConfirmSecs: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "confirmation_seconds",
			Help:      "Time from submission to receipt.",
			Buckets:   []float64{1, 2, 5, 10, 30, 60, 120},
		}, []string{"method"}),
		chainSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "events_skipped_total",
			Help:      "Chain events skipped while listing because they could not be fetched or decoded.",
		}),
		walletConnect: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "wallet_connects_total",
			Help:      "Wallet connection attempts by outcome.",
		}, []string{"outcome"}),
		eventsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "created_total",
			Help:      "Local election events created.",
		}),
		eventsDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "deleted_total",
			Help:      "Local election events deleted.",
		}),
	}
}

func (r *Recorder) TxSubmitted(method string) {
	if r == nil {
		return
	}
	r.txSubmitted.WithLabelValues(method).Inc()
}

func (r *Recorder) TxFailed(method, reason string) {
	if r == nil {
		return
	}
	r.txFailed.WithLabelValues(method, reason).Inc()
}

func (r *Recorder) TxConfirmed(method string, seconds float64) {
	if r == nil {
		return
	}
	r.txConfirmSecs.WithLabelValues(method).Observe(seconds)
}

func (r *Recorder) ChainEventSkipped() {
	if r == nil {
		return
	}
	r.chainSkipped.Inc()
}

func (r *Recorder) WalletConnect(outcome string) {
	if r == nil {
		return
	}
	r.walletConnect.WithLabelValues(outcome).Inc()
}

func (r *Recorder) EventCreated() {
	if r == nil {
		return
	}
	r.eventsCreated.Inc()
}

func (r *Recorder) EventDeleted() {
	if r == nil {
		return
	}
	r.eventsDeleted.Inc()
}
