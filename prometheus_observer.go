package dramsim

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kestrel-sim/dramcore/internal/proto"
)

// PrometheusObserver exposes the same counters MetricsObserver accumulates
// in-process as prometheus/client_golang metrics, for deployments that
// scrape rather than read a final Snapshot.
type PrometheusObserver struct {
	commands    *prometheus.CounterVec
	rankActive  *prometheus.CounterVec
	rankIdle    *prometheus.CounterVec
	queueDepth  prometheus.Histogram
	readLatency prometheus.Histogram
	ranks       prometheus.Gauge
}

// NewPrometheusObserver builds a PrometheusObserver and registers its
// collectors with reg.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	o := &PrometheusObserver{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dramsim",
			Name:      "commands_issued_total",
			Help:      "Number of device commands issued, by command name and rank.",
		}, []string{"command", "rank"}),
		rankActive: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dramsim",
			Name:      "rank_active_cycles_total",
			Help:      "Cycles each rank had at least one open bank.",
		}, []string{"rank"}),
		rankIdle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dramsim",
			Name:      "rank_idle_cycles_total",
			Help:      "Cycles each rank had no open bank.",
		}, []string{"rank"}),
		queueDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dramsim",
			Name:      "queue_depth",
			Help:      "Read, write and priority buffer occupancy plus pending reads, sampled once per controller tick.",
			Buckets:   prometheus.LinearBuckets(0, 8, 16),
		}),
		readLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dramsim",
			Name:      "read_latency_cycles",
			Help:      "Completed read latency, in device cycles.",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 12),
		}),
		ranks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dramsim",
			Name:      "ranks_finalized",
			Help:      "Number of ranks the run tracked, set once at run end.",
		}),
	}
	reg.MustRegister(o.commands, o.rankActive, o.rankIdle, o.queueDepth, o.readLatency, o.ranks)
	return o
}

func (o *PrometheusObserver) ObserveCommand(cmd proto.Command, level proto.Level, rank int, clk int64) {
	if level != proto.Bank && level != proto.Rank {
		return
	}
	if rank < 0 {
		return
	}
	o.commands.WithLabelValues(cmd.String(), rankLabel(rank)).Inc()
}

func (o *PrometheusObserver) ObserveRankCycle(rank int, active bool) {
	if active {
		o.rankActive.WithLabelValues(rankLabel(rank)).Inc()
	} else {
		o.rankIdle.WithLabelValues(rankLabel(rank)).Inc()
	}
}

func (o *PrometheusObserver) ObserveQueueDepth(depth int) {
	o.queueDepth.Observe(float64(depth))
}

func (o *PrometheusObserver) ObserveReadLatency(cycles int64) {
	o.readLatency.Observe(float64(cycles))
}

// ObserveFinalize sets ranks_finalized, the signal a scrape can use to
// tell a completed run from one still in progress.
func (o *PrometheusObserver) ObserveFinalize(ranks int) {
	o.ranks.Set(float64(ranks))
}

func rankLabel(rank int) string {
	return strconv.Itoa(rank)
}

var _ Observer = (*PrometheusObserver)(nil)
