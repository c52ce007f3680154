package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestBus_DeliversToSink(t *testing.T) {
	sink := &captureSink{}
	bus := NewBus(sink, 8)

	bus.Emit(Event{Type: LoginSuccess, UserID: "u1", At: time.Now()})
	bus.Emit(Event{Type: Logout, UserID: "u1", At: time.Now()})

	require.Eventually(t, func() bool {
		return sink.count() == 2
	}, time.Second, 5*time.Millisecond)

	bus.Close()
}

func TestBus_CloseDrainsBuffer(t *testing.T) {
	sink := &captureSink{}
	bus := NewBus(sink, 64)

	for i := 0; i < 20; i++ {
		bus.Emit(Event{Type: RefreshSuccess, UserID: "u1", At: time.Now()})
	}
	bus.Close()

	assert.Equal(t, 20, sink.count())
}

func TestBus_EmitAfterCloseIsSafe(t *testing.T) {
	bus := NewBus(&captureSink{}, 4)
	bus.Close()

	// Must not panic or block.
	bus.Emit(Event{Type: LoginFailure})
}

func TestBus_NilSinkDefaultsToNop(t *testing.T) {
	bus := NewBus(nil, 0)
	bus.Emit(Event{Type: LoginSuccess})
	bus.Close()
}
