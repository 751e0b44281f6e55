package livequery

import "sync"

// multiFeed fans several table subscriptions into one. The table name a
// Query passes to Subscribe is ignored; the adapter's own table set wins.
type multiFeed struct {
	feed   Feed
	tables []string
}

var _ Feed = (*multiFeed)(nil)

// MultiTable wraps a Feed so that a single subscription covers every listed
// table, for collections derived from more than one table.
func MultiTable(feed Feed, tables ...string) Feed {
	return &multiFeed{feed: feed, tables: tables}
}

func (m *multiFeed) Subscribe(string) (<-chan Change, func()) {
	out := make(chan Change, 8)
	cancels := make([]func(), 0, len(m.tables))
	done := make(chan struct{})

	var wg sync.WaitGroup
	for _, table := range m.tables {
		events, cancel := m.feed.Subscribe(table)
		cancels = append(cancels, cancel)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				case c, ok := <-events:
					if !ok {
						return
					}
					select {
					case out <- c:
					case <-done:
						return
					default: // consumer is behind; it refetches anyway
					}
				}
			}
		}()
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			for _, c := range cancels {
				c()
			}
			// out is closed only once every forwarder has exited
			wg.Wait()
			close(out)
		})
	}
	return out, cancel
}
