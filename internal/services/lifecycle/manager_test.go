package lifecycle

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	m.Register("first", func(context.Context) error { order = append(order, "first"); return nil })
	m.Register("second", func(context.Context) error { order = append(order, "second"); return nil })
	m.Register("nil", nil)

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestShutdownJoinsErrors(t *testing.T) {
	m := New(time.Second, nil)
	boom := errors.New("boom")
	ran := false
	m.Register("ok", func(context.Context) error { ran = true; return nil })
	m.Register("bad", func(context.Context) error { return boom })

	err := m.Shutdown(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !ran {
		t.Fatal("hooks after a failure must still run")
	}
}

func TestWaitReturnsComponentError(t *testing.T) {
	m := New(time.Second, nil)
	m.notify = func(chan<- os.Signal, ...os.Signal) {}
	boom := errors.New("listen failed")
	m.Go(context.Background(), "server", func(context.Context) error { return boom })

	if err := m.Wait(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected component error, got %v", err)
	}
}

func TestWaitReturnsOnSignal(t *testing.T) {
	m := New(time.Second, nil)
	m.notify = func(chan<- os.Signal, ...os.Signal) {}
	m.sigCh <- syscall.SIGTERM

	if err := m.Wait(context.Background()); err != nil {
		t.Fatalf("expected nil on signal, got %v", err)
	}
}

func TestShutdownWaitsForComponents(t *testing.T) {
	m := New(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	m.Go(ctx, "worker", func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	})
	m.Register("cancel", func(context.Context) error { cancel(); return nil })

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	select {
	case <-stopped:
	default:
		t.Fatal("worker did not stop before Shutdown returned")
	}
}
