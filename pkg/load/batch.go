package load

import (
	"sync"

	"github.com/mesh-intelligence/itemdex/pkg/types"
)

// BatchResult reports the outcome of instantiating one container during a
// batch load.
type BatchResult struct {
	Name   string
	Object any
	Err    error
}

// LoadMany instantiates the given containers on a bounded worker pool and
// reports each completion through onDone. It returns once every container
// has been attempted; failures are reported per item, never aborting the
// batch. onDone may be called from several goroutines at once and must be
// safe for that; a nil onDone discards completions.
//
// The pool is purely a throughput optimization: results are identical to
// calling FromItem serially.
func (l *Loader) LoadMany(items []*types.Item, workers int, onDone func(BatchResult)) {
	if len(items) == 0 {
		return
	}
	if workers <= 0 || workers > len(items) {
		workers = len(items)
	}

	pending := make(chan *types.Item)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range pending {
				obj, err := l.FromItem(item)
				if err != nil {
					l.log.Warn("batch load failed", "name", item.Name(), "err", err)
				}
				if onDone != nil {
					onDone(BatchResult{Name: item.Name(), Object: obj, Err: err})
				}
			}
		}()
	}
	for _, item := range items {
		pending <- item
	}
	close(pending)
	wg.Wait()
}
