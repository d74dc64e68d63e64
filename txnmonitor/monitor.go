// Package txnmonitor implements the stuck-transaction monitor (spec.md
// §4.I): a periodic task that walks every active transaction, logging and
// counting those that have run unreasonably long, and forcibly finishing
// ones that have run past a hard limit. Grounded on the teacher's
// logger.Logger field-and-Sugar idiom (massifs/logdircache.go,
// mmrtesting/testcontext.go's `logger.Sugar.WithServiceName(...)`) and the
// tick-driven re-queueing pattern of massifs/watcher's background scans.
package txnmonitor

import (
	"sync"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/datatrails/go-patriciakv/telemetry"
	"github.com/datatrails/go-patriciakv/txncontext"
)

// EnvironmentStatus lets the monitor notice its owning environment has
// closed without holding a strong reference to it, per spec.md §5's "the
// stuck-monitor holds only a weak reference back to its environment to
// avoid pinning it" — modelled here as a narrow predicate interface rather
// than a pointer to the environment struct, since the monitor only ever
// needs the one bit of information.
type EnvironmentStatus interface {
	Closed() bool
}

// HitRateAdjuster is a cache whose hit-rate estimate needs periodic
// recomputation (spec.md §5's "a separate shared timer drives periodic
// tasks: hit-rate adjustment, stuck-transaction monitor" — both tasks ride
// the one ticker below rather than keeping a second one). Modelled as a
// narrow interface rather than a pointer to the cache struct for the same
// reason as EnvironmentStatus: the monitor only ever needs this one
// capability, so there is nothing for a literal weak reference to buy over
// holding the interface value directly (see DESIGN.md).
type HitRateAdjuster interface {
	AdjustHitRate() float64
}

// Monitor periodically scans a Registry for stuck transactions and, if any
// adjusters were supplied, recomputes their hit-rate estimates on the same
// tick.
type Monitor struct {
	registry  *txncontext.Registry
	log       logger.Logger
	tel       *telemetry.Counters
	env       EnvironmentStatus
	adjusters []HitRateAdjuster

	checkFreq   time.Duration
	softTimeout time.Duration
	hardTimeout time.Duration

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// New builds a Monitor. checkFreq is the tick interval (spec.md §6's
// envMonitorTxnsCheckFreq); softTimeout is the age past which a
// stack-carrying transaction is logged and counted; hardTimeout is the age
// past which a transaction is forcibly finished regardless of whether it
// carries a creation stack. adjusters, if any, have AdjustHitRate called on
// every tick alongside the transaction sweep.
func New(registry *txncontext.Registry, log logger.Logger, tel *telemetry.Counters, env EnvironmentStatus, checkFreq, softTimeout, hardTimeout time.Duration, adjusters ...HitRateAdjuster) *Monitor {
	return &Monitor{
		registry:    registry,
		log:         log,
		tel:         tel,
		env:         env,
		adjusters:   adjusters,
		checkFreq:   checkFreq,
		softTimeout: softTimeout,
		hardTimeout: hardTimeout,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start runs the monitor's tick loop in a new goroutine. It exits cleanly
// once the environment reports closed, or once Stop is called.
func (m *Monitor) Start() {
	go m.run()
}

// Stop signals the monitor to exit and waits for its loop to finish.
func (m *Monitor) Stop() {
	m.once.Do(func() { close(m.stop) })
	<-m.done
}

func (m *Monitor) run() {
	defer close(m.done)
	ticker := time.NewTicker(m.checkFreq)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if m.env != nil && m.env.Closed() {
				return
			}
			m.tick()
		}
	}
}

// tick walks every active transaction once, per spec.md §4.I, then
// recomputes every registered adjuster's hit-rate estimate, per spec.md §5.
func (m *Monitor) tick() {
	now := time.Now()
	m.registry.ForEachActiveTransaction(func(t *txncontext.Transaction) {
		age := now.Sub(t.CreatedAt())

		if age > m.softTimeout {
			if stack, ok := t.CreationStack(); ok {
				m.log.Errorf(
					"stuck transaction: creator=%s created=%s age=%s\n%s",
					t.Creator(), t.CreatedAt().Format(time.RFC3339), age, stack,
				)
				m.tel.StuckTransactions.Add(1)
			}
		}

		if age > m.hardTimeout {
			m.registry.Finish(t)
		}
	})

	for _, a := range m.adjusters {
		a.AdjustHitRate()
	}
}
