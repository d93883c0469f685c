package cache

import (
	"sync"
	"time"
)

// pruner runs a sweep function on a fixed interval until stopped.
type pruner struct {
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func startPruner(interval time.Duration, sweep func() int) *pruner {
	p := &pruner{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}

	ticker := time.NewTicker(interval)

	go func() {
		defer close(p.done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sweep()
			case <-p.stopCh:
				return
			}
		}
	}()

	return p
}

// stop signals the goroutine and blocks until it has returned.
func (p *pruner) stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	<-p.done
}
