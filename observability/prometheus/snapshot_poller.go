package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-dispatch-queue/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// QueueSnapshotProvider provides current queue stats snapshots.
type QueueSnapshotProvider interface {
	Stats() core.QueueStats
}

// PoolSnapshotProvider provides current pool stats snapshots.
type PoolSnapshotProvider interface {
	Stats() core.PoolStats
}

// SnapshotPoller periodically exports queue/pool Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	queuesMu sync.RWMutex
	queues   map[string]QueueSnapshotProvider

	poolsMu sync.RWMutex
	pools   map[string]PoolSnapshotProvider

	queuePending  *prom.GaugeVec
	queueClosed   *prom.GaugeVec
	queueExecuted *prom.GaugeVec
	queueRejected *prom.GaugeVec
	queuePanicked *prom.GaugeVec
	queueDrains   *prom.GaugeVec
	queueWakes    *prom.GaugeVec

	poolQueued  *prom.GaugeVec
	poolActive  *prom.GaugeVec
	poolWorkers *prom.GaugeVec
	poolRunning *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	queueGauge := func(name, help string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "dispatchqueue",
			Name:      name,
			Help:      help,
		}, []string{"queue"})
	}
	queuePending := queueGauge("queue_pending", "Queue drain requested state (1=pending, 0=idle).")
	queueClosed := queueGauge("queue_closed", "Queue closed state (1=closed, 0=open).")
	queueExecuted := queueGauge("queue_executed_tasks", "Queue executed task count snapshot.")
	queueRejected := queueGauge("queue_rejected_tasks", "Queue rejected task count snapshot.")
	queuePanicked := queueGauge("queue_panicked_tasks", "Queue panicked task count snapshot.")
	queueDrains := queueGauge("queue_drains", "Queue drain count snapshot.")
	queueWakes := queueGauge("queue_wake_requests", "Queue wake request count snapshot; far below pushes when posts coalesce.")

	poolQueued := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "dispatchqueue",
		Name:      "pool_queued",
		Help:      "Queued drain callbacks per pool.",
	}, []string{"pool"})
	poolActive := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "dispatchqueue",
		Name:      "pool_active",
		Help:      "Active drain callbacks per pool.",
	}, []string{"pool"})
	poolWorkers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "dispatchqueue",
		Name:      "pool_workers",
		Help:      "Worker count per pool.",
	}, []string{"pool"})
	poolRunning := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "dispatchqueue",
		Name:      "pool_running",
		Help:      "Pool running state (1=running, 0=stopped).",
	}, []string{"pool"})

	var err error
	for _, g := range []**prom.GaugeVec{&queuePending, &queueClosed, &queueExecuted, &queueRejected, &queuePanicked, &queueDrains, &queueWakes} {
		if *g, err = registerCollector(reg, *g); err != nil {
			return nil, err
		}
	}
	if poolQueued, err = registerCollector(reg, poolQueued); err != nil {
		return nil, err
	}
	if poolActive, err = registerCollector(reg, poolActive); err != nil {
		return nil, err
	}
	if poolWorkers, err = registerCollector(reg, poolWorkers); err != nil {
		return nil, err
	}
	if poolRunning, err = registerCollector(reg, poolRunning); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:      interval,
		queues:        make(map[string]QueueSnapshotProvider),
		pools:         make(map[string]PoolSnapshotProvider),
		queuePending:  queuePending,
		queueClosed:   queueClosed,
		queueExecuted: queueExecuted,
		queueRejected: queueRejected,
		queuePanicked: queuePanicked,
		queueDrains:   queueDrains,
		queueWakes:    queueWakes,
		poolQueued:    poolQueued,
		poolActive:    poolActive,
		poolWorkers:   poolWorkers,
		poolRunning:   poolRunning,
	}, nil
}

// AddQueue adds or replaces a queue snapshot provider by name.
func (p *SnapshotPoller) AddQueue(name string, provider QueueSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "queue")
	p.queuesMu.Lock()
	p.queues[name] = provider
	p.queuesMu.Unlock()
}

// AddPool adds or replaces a pool snapshot provider by name.
func (p *SnapshotPoller) AddPool(name string, provider PoolSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.queuesMu.RLock()
	for name, provider := range p.queues {
		stats := provider.Stats()
		p.queuePending.WithLabelValues(name).Set(boolGauge(stats.Pending))
		p.queueClosed.WithLabelValues(name).Set(boolGauge(stats.Closed))
		p.queueExecuted.WithLabelValues(name).Set(float64(stats.Executed))
		p.queueRejected.WithLabelValues(name).Set(float64(stats.Rejected))
		p.queuePanicked.WithLabelValues(name).Set(float64(stats.Panicked))
		p.queueDrains.WithLabelValues(name).Set(float64(stats.Drains))
		p.queueWakes.WithLabelValues(name).Set(float64(stats.WakeRequests))
	}
	p.queuesMu.RUnlock()

	p.poolsMu.RLock()
	for name, provider := range p.pools {
		stats := provider.Stats()
		p.poolQueued.WithLabelValues(name).Set(float64(stats.Queued))
		p.poolActive.WithLabelValues(name).Set(float64(stats.Active))
		p.poolWorkers.WithLabelValues(name).Set(float64(stats.Workers))
		p.poolRunning.WithLabelValues(name).Set(boolGauge(stats.Running))
	}
	p.poolsMu.RUnlock()
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
