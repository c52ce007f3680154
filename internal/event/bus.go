package event

import (
	"log/slog"
	"sync"
)

// Bus forwards events to a sink asynchronously so that emission on the
// request path is fire-and-forget. Events are dropped when the buffer is
// full; auth outcomes never block on the sink.
type Bus struct {
	sink   Sink
	ch     chan Event
	done   chan struct{}
	wg     sync.WaitGroup
	closed sync.Once
}

func NewBus(sink Sink, buffer int) *Bus {
	if sink == nil {
		sink = NopSink{}
	}
	if buffer <= 0 {
		buffer = 64
	}

	b := &Bus{
		sink: sink,
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}

	b.wg.Add(1)
	go b.run()

	return b
}

func (b *Bus) run() {
	defer b.wg.Done()

	for {
		select {
		case e := <-b.ch:
			b.sink.Emit(e)
		case <-b.done:
			// Drain whatever is already buffered before exiting.
			for {
				select {
				case e := <-b.ch:
					b.sink.Emit(e)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) Emit(e Event) {
	select {
	case b.ch <- e:
	case <-b.done:
	default:
		slog.Warn("security event dropped", "type", string(e.Type))
	}
}

func (b *Bus) Close() {
	b.closed.Do(func() {
		close(b.done)
	})
	b.wg.Wait()
}

// LogSink writes security events to the process logger.
type LogSink struct{}

func (LogSink) Emit(e Event) {
	slog.Info("security event",
		"type", string(e.Type),
		"user_id", e.UserID,
		"email", e.Email,
		"reason", e.Reason,
	)
}
