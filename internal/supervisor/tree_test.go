package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// blockingService runs until ctx is canceled, recording whether it ran.
type blockingService struct {
	started chan struct{}
}

func newBlockingService() *blockingService {
	return &blockingService{started: make(chan struct{}, 1)}
}

func (b *blockingService) Serve(ctx context.Context) error {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTreeRunsCoreAndBridgeServices(t *testing.T) {
	tr := New(testLogger(), DefaultTreeConfig())

	core := newBlockingService()
	bridge := newBlockingService()
	tr.AddCore(core)
	tr.AddBridge(bridge)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tr.ServeBackground(ctx)

	select {
	case <-core.started:
	case <-time.After(time.Second):
		t.Fatal("core service never started")
	}
	select {
	case <-bridge.started:
	case <-time.After(time.Second):
		t.Fatal("bridge service never started")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("unexpected terminal error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down after cancel")
	}
}

func TestTreeRemove(t *testing.T) {
	tr := New(testLogger(), DefaultTreeConfig())
	svc := newBlockingService()
	token := tr.AddCore(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Serve(ctx) //nolint:errcheck

	select {
	case <-svc.started:
	case <-time.After(time.Second):
		t.Fatal("service never started")
	}

	if err := tr.Remove(token); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestDefaultTreeConfigUsedWhenZero(t *testing.T) {
	tr := New(testLogger(), TreeConfig{})
	if tr.config.FailureThreshold != DefaultTreeConfig().FailureThreshold {
		t.Fatalf("zero-value TreeConfig should fall back to defaults, got %+v", tr.config)
	}
}

var _ suture.Service = (*blockingService)(nil)
