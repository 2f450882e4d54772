// Package queue finalizes expired lots in the background.
package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lotmarket/auction-api/internal/api/metrics"
	"github.com/lotmarket/auction-api/internal/core/domain"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Finalizer closes an expired lot. ports.SaleService satisfies it.
type Finalizer interface {
	FinalizeExpired(ctx context.Context, lotID string) (*domain.Sale, error)
}

// Dispatcher routes lot ids to a fixed set of workers by hashing the id, so a
// lot is only ever finalized by one worker and workers never contend on the
// same lot lock.
type Dispatcher struct {
	workers []chan string
	sales   Finalizer
	log     zerolog.Logger
	pending sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sales Finalizer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan string, numWorkers),
		sales:   sales,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches the workers. They stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands lotID to its worker. It blocks once the worker buffer is
// full and gives up when ctx ends.
func (d *Dispatcher) Enqueue(ctx context.Context, lotID string) bool {
	d.pending.Add(1)
	select {
	case d.workers[d.shardIndex(lotID)] <- lotID:
		return true
	case <-ctx.Done():
		d.pending.Done()
		return false
	}
}

// Wait blocks until every enqueued lot has been processed.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

func (d *Dispatcher) shardIndex(lotID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(lotID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	worker := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case lotID := <-ch:
			d.finalize(ctx, worker, lotID)
		}
	}
}

func (d *Dispatcher) finalize(ctx context.Context, worker, lotID string) {
	defer d.pending.Done()

	sale, err := d.sales.FinalizeExpired(ctx, lotID)
	if err != nil {
		d.log.Error().Err(err).
			Str("lot_id", lotID).
			Str("worker_id", worker).
			Msg("lot finalization failed")
		return
	}
	metrics.ObserveSale(sale)
}
