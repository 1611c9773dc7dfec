package handler

import (
	"sync"
	"sync/atomic"

	"starkScope/internal/metrics"
	"starkScope/internal/model"
)

const defaultAsyncBuffer = 1024

// Async forwards notifications to another handler from a single goroutine.
// When the buffer is full the notification is dropped and counted.
type Async struct {
	next  EventHandler
	queue chan func(EventHandler)

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	done    chan struct{}
}

var _ EventHandler = (*Async)(nil)

// NewAsync starts the forwarding goroutine. Call Close to drain and stop it.
func NewAsync(next EventHandler, buffer int) *Async {
	if next == nil {
		next = Nop{}
	}
	if buffer <= 0 {
		buffer = defaultAsyncBuffer
	}
	a := &Async{
		next:  next,
		queue: make(chan func(EventHandler), buffer),
		done:  make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer close(a.done)
	for fn := range a.queue {
		fn(a.next)
	}
}

func (a *Async) enqueue(fn func(EventHandler)) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- fn:
	default:
		a.dropped.Add(1)
		metrics.HandlerDropped()
	}
}

// Dropped returns how many notifications were discarded.
func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}

// Close stops accepting notifications and waits for queued ones to be delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()
	<-a.done
}

func (a *Async) OnBlockProcessing(blockTimestamp uint64, blockNumber *uint64) {
	var n *uint64
	if blockNumber != nil {
		v := *blockNumber
		n = &v
	}
	a.enqueue(func(h EventHandler) { h.OnBlockProcessing(blockTimestamp, n) })
}

func (a *Async) OnBlockProcessed(blockNumber uint64, progress float64) {
	a.enqueue(func(h EventHandler) { h.OnBlockProcessed(blockNumber, progress) })
}

func (a *Async) OnNewLatestBlock(blockNumber uint64) {
	a.enqueue(func(h EventHandler) { h.OnNewLatestBlock(blockNumber) })
}

func (a *Async) OnIndexationRangeCompleted() {
	a.enqueue(func(h EventHandler) { h.OnIndexationRangeCompleted() })
}

func (a *Async) OnTokenRegistered(token model.TokenInfo) {
	a.enqueue(func(h EventHandler) { h.OnTokenRegistered(token) })
}

func (a *Async) OnEventRegistered(event model.TokenEvent) {
	a.enqueue(func(h EventHandler) { h.OnEventRegistered(event) })
}
