package conductor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type fakeService struct {
	name string
	rec  *recorder
}

// same shape as the real services: an inner loop and an
// outer goroutine both waiting on stop
func (f fakeService) Run(started, stopped chan bool, stop chan context.Context) error {
	go func() {
		go func() {
			<-stop
		}()
		f.rec.add("start " + f.name)
		started <- true
		<-stop
		f.rec.add("stop " + f.name)
		stopped <- true
	}()
	return nil
}

func TestConductorStartsInOrderAndStopsInReverse(t *testing.T) {
	rec := &recorder{}
	c := NewConductor()
	c.Service("a", fakeService{"a", rec})
	c.Service("b", fakeService{"b", rec})

	done := c.Start()
	c.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("conductor did not stop")
	}

	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, rec.events)
}

func TestConductorStopIsIdempotent(t *testing.T) {
	c := NewConductor()
	done := c.Start()
	c.Stop()
	c.Stop()
	_, open := <-done
	require.False(t, open)
}

type stuckService struct{}

func (stuckService) Run(started, stopped chan bool, stop chan context.Context) error {
	go func() { started <- true }()
	return nil
}

func TestConductorGivesUpOnStuckService(t *testing.T) {
	c := NewConductor(StopTimeout(50 * time.Millisecond))
	c.Service("stuck", stuckService{})
	done := c.Start()
	c.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("conductor waited forever on a stuck service")
	}
}
