package feed

import (
	"context"
	"testing"
)

func TestHandleFrameRejectsMalformedPayload(t *testing.T) {
	c := NewClient("ws://localhost:9001/ticks", "", nil)

	if err := c.handleFrame(context.Background(), []byte("not-json")); err == nil {
		t.Error("expected error for malformed frame")
	}
}

func TestHandleFrameRequiresSessionKey(t *testing.T) {
	c := NewClient("ws://localhost:9001/ticks", "", nil)

	frames := [][]byte{
		[]byte(`{"records":[{"lot":10}]}`),
		[]byte(`{"ticker":"BBCA","records":[{"lot":10}]}`),
		[]byte(`{"date":"2026-08-03","records":[{"lot":10}]}`),
	}
	for _, frame := range frames {
		if err := c.handleFrame(context.Background(), frame); err == nil {
			t.Errorf("expected error for frame missing ticker or date: %s", frame)
		}
	}
}

func TestHandleFrameSkipsEmptyBatch(t *testing.T) {
	c := NewClient("ws://localhost:9001/ticks", "", nil)

	// An empty batch never reaches ingestion.
	if err := c.handleFrame(context.Background(), []byte(`{"ticker":"BBCA","date":"2026-08-03","records":[]}`)); err != nil {
		t.Errorf("empty batch must be a no-op, got %v", err)
	}
}

func TestConnSwapIsGuarded(t *testing.T) {
	c := NewClient("ws://localhost:9001/ticks", "", nil)

	if c.current() != nil {
		t.Error("expected nil connection before Connect")
	}

	// The ping loop must tolerate a nil connection while Run reconnects.
	ctx, cancel := context.WithCancel(context.Background())
	c.StartPing(ctx, 1)
	cancel()
}
