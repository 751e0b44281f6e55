package database

import (
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/livequery"
)

// NotifyChannel is the Postgres NOTIFY channel the row-change triggers fire
// on; the payload is the table name.
const NotifyChannel = "darasa_changes"

// ListenFeed is a livequery.Feed backed by a single pq.Listener: every table
// trigger NOTIFY fans out to the per-table subscribers.
type ListenFeed struct {
	listener *pq.Listener
	broker   *livequery.Broker
	logger   core.Logger

	done      chan struct{}
	closeOnce sync.Once
}

var _ livequery.Feed = (*ListenFeed)(nil)

func NewListenFeed(conf *core.Config, logger core.Logger) *ListenFeed {
	f := &ListenFeed{
		broker: livequery.NewBroker(),
		logger: logger,
		done:   make(chan struct{}),
	}
	f.listener = pq.NewListener(
		connURL(conf.Database.Name, false, conf),
		10*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Warn("pq listener event", err)
			}
		},
	)
	return f
}

func (f *ListenFeed) Start() error {
	if err := f.listener.Listen(NotifyChannel); err != nil {
		return err
	}
	go f.loop()
	return nil
}

func (f *ListenFeed) loop() {
	// ping periodically so a dead connection is noticed and re-established
	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-f.done:
			return
		case n := <-f.listener.Notify:
			if n == nil { // connection loss; pq re-listens on its own
				continue
			}
			f.broker.Publish(livequery.Change{Table: n.Extra})
		case <-ping.C:
			go func() {
				if err := f.listener.Ping(); err != nil {
					f.logger.Warn("pq listener ping", err)
				}
			}()
		}
	}
}

func (f *ListenFeed) Subscribe(table string) (<-chan livequery.Change, func()) {
	return f.broker.Subscribe(table)
}

func (f *ListenFeed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		err = f.listener.Close()
	})
	return err
}
