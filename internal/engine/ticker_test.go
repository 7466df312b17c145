package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MRamiBalles/furcoin-clicker/internal/platform/logger"
)

func TestTickerStopsOnContext(t *testing.T) {
	var calls int64
	tk := NewTicker("test", time.Millisecond, func() { atomic.AddInt64(&calls, 1) }, logger.NewDiscardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go tk.Start(ctx)

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-tk.Done():
	case <-time.After(time.Second):
		t.Fatal("Ticker did not stop on context cancel")
	}
	if atomic.LoadInt64(&calls) == 0 {
		t.Error("Ticker never fired")
	}
}

func TestTickerStopIsIdempotent(t *testing.T) {
	tk := NewTicker("test", time.Hour, func() {}, logger.NewDiscardLogger())
	go tk.Start(context.Background())

	tk.Stop()
	tk.Stop()

	select {
	case <-tk.Done():
	case <-time.After(time.Second):
		t.Fatal("Ticker did not stop")
	}
}
