package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fleetsync/internal/broadcast/domain"
	fleetdomain "fleetsync/internal/fleet/domain"
	"fleetsync/internal/infrastructure/logger"
)

type mockObserver struct {
	id      string
	mu      sync.Mutex
	got     [][]byte
	sendErr error
	block   chan struct{}
	closed  chan struct{}
	once    sync.Once
}

func newMockObserver(id string) *mockObserver {
	return &mockObserver{id: id, closed: make(chan struct{})}
}

func (m *mockObserver) ID() string { return m.id }

func (m *mockObserver) Send(ctx context.Context, payload []byte) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	m.got = append(m.got, payload)
	m.mu.Unlock()
	return nil
}

func (m *mockObserver) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

func (m *mockObserver) messages(t *testing.T) []domain.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Message, 0, len(m.got))
	for _, raw := range m.got {
		var msg domain.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("bad payload %s: %v", raw, err)
		}
		out = append(out, msg)
	}
	return out
}

func (m *mockObserver) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.got)
}

func (m *mockObserver) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func snapshotOf(ids ...int64) fleetdomain.Snapshot {
	s := make(fleetdomain.Snapshot, len(ids))
	for i, id := range ids {
		s[i] = fleetdomain.Entity{ID: id, Name: fmt.Sprintf("robot-%d", id), Status: fleetdomain.StatusIdle}
	}
	return s
}

func TestHub_PublishReachesEveryObserver(t *testing.T) {
	hub := NewHub(logger.Discard(), Options{})
	defer hub.Close()

	a, b := newMockObserver("a"), newMockObserver("b")
	if err := hub.Register(a, nil); err != nil {
		t.Fatal(err)
	}
	if err := hub.Register(b, nil); err != nil {
		t.Fatal(err)
	}

	hub.Publish(context.Background(), fleetdomain.Change{Entities: snapshotOf(1, 2)})
	hub.Publish(context.Background(), fleetdomain.Change{Entities: snapshotOf(2), Removed: []int64{1}})

	for _, obs := range []*mockObserver{a, b} {
		eventually(t, func() bool { return obs.count() == 2 }, "observer "+obs.id+" missed a change")
		msgs := obs.messages(t)
		if len(msgs[0].Entities) != 2 || msgs[0].Type != domain.MessageSnapshot {
			t.Errorf("%s: unexpected first message %+v", obs.id, msgs[0])
		}
		last := msgs[1]
		if len(last.Entities) != 1 || last.Entities[0].ID != 2 {
			t.Errorf("%s: expected only entity 2, got %+v", obs.id, last.Entities)
		}
		if len(last.Removed) != 1 || last.Removed[0] != 1 {
			t.Errorf("%s: expected removal of 1, got %v", obs.id, last.Removed)
		}
	}
}

func TestHub_InitialMessageIsFirst(t *testing.T) {
	hub := NewHub(logger.Discard(), Options{})
	defer hub.Close()

	obs := newMockObserver("late")
	initial, _ := json.Marshal(domain.NewMessage(fleetdomain.Change{Entities: snapshotOf(1, 2, 3)}, time.Now()))
	hub.Register(obs, initial)
	hub.Publish(context.Background(), fleetdomain.Change{Entities: snapshotOf(1, 2)})

	eventually(t, func() bool { return obs.count() == 2 }, "expected initial and published messages")
	msgs := obs.messages(t)
	if len(msgs[0].Entities) != 3 {
		t.Errorf("expected initial list first, got %+v", msgs[0])
	}
}

func TestHub_NoReplayForLateJoiner(t *testing.T) {
	hub := NewHub(logger.Discard(), Options{})
	defer hub.Close()

	hub.Publish(context.Background(), fleetdomain.Change{Entities: snapshotOf(1)})

	obs := newMockObserver("late")
	hub.Register(obs, nil)
	time.Sleep(20 * time.Millisecond)
	if obs.count() != 0 {
		t.Errorf("late joiner received %d replayed messages", obs.count())
	}
}

func TestHub_FailingObserverIsDroppedAlone(t *testing.T) {
	hub := NewHub(logger.Discard(), Options{})
	defer hub.Close()

	good := newMockObserver("good")
	bad := newMockObserver("bad")
	bad.sendErr = errors.New("broken pipe")
	hub.Register(good, nil)
	hub.Register(bad, nil)

	hub.Publish(context.Background(), fleetdomain.Change{Entities: snapshotOf(1)})

	eventually(t, bad.isClosed, "failing observer was not closed")
	eventually(t, func() bool { return hub.Count() == 1 }, "failing observer was not unregistered")

	hub.Publish(context.Background(), fleetdomain.Change{Entities: snapshotOf(1, 2)})
	eventually(t, func() bool { return good.count() == 2 }, "healthy observer missed changes")
	if good.isClosed() {
		t.Error("healthy observer closed")
	}
}

func TestHub_SlowObserverTimesOut(t *testing.T) {
	hub := NewHub(logger.Discard(), Options{SendTimeout: 10 * time.Millisecond})
	defer hub.Close()

	slow := newMockObserver("slow")
	slow.block = make(chan struct{})
	fast := newMockObserver("fast")
	hub.Register(slow, nil)
	hub.Register(fast, nil)

	start := time.Now()
	hub.Publish(context.Background(), fleetdomain.Change{Entities: snapshotOf(1)})
	if time.Since(start) > 50*time.Millisecond {
		t.Error("publish blocked on a slow observer")
	}

	eventually(t, func() bool { return fast.count() == 1 }, "fast observer was delayed")
	eventually(t, slow.isClosed, "slow observer was not dropped after send timeout")
}

func TestHub_FullQueueDropsObserver(t *testing.T) {
	hub := NewHub(logger.Discard(), Options{QueueSize: 1, SendTimeout: time.Second})
	defer hub.Close()

	stuck := newMockObserver("stuck")
	stuck.block = make(chan struct{})
	hub.Register(stuck, nil)

	// First change is taken by the writer, second fills the queue, third overflows.
	hub.Publish(context.Background(), fleetdomain.Change{Entities: snapshotOf(1)})
	eventually(t, func() bool { return len(hub.observers["stuck"].queue) == 0 }, "writer did not pick up first change")
	hub.Publish(context.Background(), fleetdomain.Change{Entities: snapshotOf(1)})
	hub.Publish(context.Background(), fleetdomain.Change{Entities: snapshotOf(1)})

	if hub.Count() != 0 {
		t.Fatalf("expected stuck observer to be dropped, %d registered", hub.Count())
	}
	close(stuck.block)
	eventually(t, stuck.isClosed, "dropped observer was not closed")
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(logger.Discard(), Options{})
	defer hub.Close()

	obs := newMockObserver("a")
	hub.Register(obs, nil)
	hub.Unregister("a")
	hub.Unregister("unknown")

	eventually(t, obs.isClosed, "unregistered observer not closed")
	hub.Publish(context.Background(), fleetdomain.Change{Entities: snapshotOf(1)})
	time.Sleep(10 * time.Millisecond)
	if obs.count() != 0 {
		t.Error("unregistered observer still receives changes")
	}
}

func TestHub_DuplicateRegistrationRejected(t *testing.T) {
	hub := NewHub(logger.Discard(), Options{})
	defer hub.Close()

	obs := newMockObserver("a")
	if err := hub.Register(obs, nil); err != nil {
		t.Fatal(err)
	}
	if err := hub.Register(obs, nil); !errors.Is(err, domain.ErrObserverRegistered) {
		t.Fatalf("expected ErrObserverRegistered, got %v", err)
	}

	hub.Publish(context.Background(), fleetdomain.Change{Entities: snapshotOf(1)})
	eventually(t, func() bool { return obs.count() == 1 }, "first registration stopped receiving")
	if obs.isClosed() {
		t.Error("rejected registration closed the live observer")
	}
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(logger.Discard(), Options{})

	a, b := newMockObserver("a"), newMockObserver("b")
	hub.Register(a, nil)
	hub.Register(b, nil)
	hub.Close()

	if !a.isClosed() || !b.isClosed() {
		t.Error("close did not close every observer")
	}
	if err := hub.Register(newMockObserver("c"), nil); !errors.Is(err, domain.ErrHubClosed) {
		t.Errorf("expected ErrHubClosed, got %v", err)
	}
}

func TestHub_ConcurrentPublishers(t *testing.T) {
	hub := NewHub(logger.Discard(), Options{QueueSize: 64})
	defer hub.Close()

	obs := newMockObserver("a")
	hub.Register(obs, nil)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Publish(context.Background(), fleetdomain.Change{Entities: snapshotOf(int64(i))})
		}()
	}
	wg.Wait()

	eventually(t, func() bool { return obs.count() == 20 }, "expected all 20 changes")
}
