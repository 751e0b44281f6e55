// Package livequery keeps a fetched collection current by re-running its
// fetch whenever the backing table changes. Change events are not filtered by
// the original query predicate; the refetch re-applies whatever filter the
// fetch closure carries.
package livequery

import (
	"context"
	"sync"

	"github.com/darasahq/darasa/core"
)

type (
	// Change signals that some row in a table was inserted, updated or
	// deleted remotely.
	Change struct {
		Table string
	}

	// Feed is a per-table change subscription source. The cancel func tears
	// the subscription down; it must be called when the consumer goes away
	// to avoid leaking open channels.
	Feed interface {
		Subscribe(table string) (events <-chan Change, cancel func())
	}

	// FetchFunc loads the current collection.
	FetchFunc func(ctx context.Context) (interface{}, error)
)

// Query couples a fetch closure to a table subscription. At most one fetch is
// in flight; change events arriving mid-fetch coalesce into exactly one
// follow-up. Every fetch is tagged with a generation counter and responses
// from superseded generations are discarded, so a stale response can never
// overwrite fresher state after the fetch closure was swapped.
type Query struct {
	table  string
	feed   Feed
	logger core.Logger

	mu       sync.RWMutex
	fetch    FetchFunc
	snapshot interface{}
	err      error
	gen      uint64
	inflight bool
	dirty    bool

	updates   chan struct{}
	cancelSub func()
	done      chan struct{}
	closeOnce sync.Once
}

func New(table string, feed Feed, fetch FetchFunc, logger core.Logger) *Query {
	return &Query{
		table:   table,
		feed:    feed,
		logger:  logger,
		fetch:   fetch,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Run performs the initial fetch and watches the table for changes until
// Close is called. The first receive on Updates signals the initial snapshot.
func (q *Query) Run(ctx context.Context) {
	events, cancel := q.feed.Subscribe(q.table)
	q.mu.Lock()
	q.cancelSub = cancel
	q.mu.Unlock()

	q.kick(ctx)

	go func() {
		for {
			select {
			case <-q.done:
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				q.kick(ctx)
			}
		}
	}()
}

// kick starts a refetch unless one is already in flight, in which case the
// query is marked dirty and refetched once the current fetch lands.
func (q *Query) kick(ctx context.Context) {
	q.mu.Lock()
	if q.inflight {
		q.dirty = true
		q.mu.Unlock()
		return
	}
	q.inflight = true
	q.gen++
	gen := q.gen
	fetch := q.fetch
	q.mu.Unlock()

	go q.run(ctx, gen, fetch)
}

func (q *Query) run(ctx context.Context, gen uint64, fetch FetchFunc) {
	data, err := fetch(ctx)

	q.mu.Lock()
	fresh := gen == q.gen
	if fresh {
		q.snapshot, q.err = data, err
	}
	q.inflight = false
	redo := q.dirty
	q.dirty = false
	q.mu.Unlock()

	if err != nil && fresh {
		q.logger.Warn("refetching "+q.table, err)
	}
	if fresh {
		q.notify()
	}
	if redo {
		q.kick(ctx)
	}
}

func (q *Query) notify() {
	select {
	case q.updates <- struct{}{}:
	default:
	}
}

// SetFetch swaps the fetch closure (eg. a dependent filter changed) and
// refetches. Any in-flight response of the previous closure is discarded.
func (q *Query) SetFetch(ctx context.Context, fetch FetchFunc) {
	q.mu.Lock()
	q.fetch = fetch
	q.gen++ // supersede whatever is in flight
	q.mu.Unlock()
	q.kick(ctx)
}

// Refetch forces a reload with the current fetch closure.
func (q *Query) Refetch(ctx context.Context) {
	q.kick(ctx)
}

// Snapshot returns the last fresh result and fetch error.
func (q *Query) Snapshot() (interface{}, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.snapshot, q.err
}

// Updates signals (coalesced) snapshot refreshes.
func (q *Query) Updates() <-chan struct{} {
	return q.updates
}

// Close tears down the table subscription.
func (q *Query) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
		q.mu.Lock()
		cancel := q.cancelSub
		q.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	})
}
