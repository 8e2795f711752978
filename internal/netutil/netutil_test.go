package netutil

import (
	"context"
	"testing"
)

func TestListenBindsAndAccepts(t *testing.T) {
	l, err := Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen error: %v", err)
	}
	defer l.Close()

	if l.Addr() == nil {
		t.Fatal("listener has no address")
	}
}

func TestListenRestartAfterClose(t *testing.T) {
	l, err := Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("first Listen error: %v", err)
	}
	addr := l.Addr().String()
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// SO_REUSEADDR should let a fresh listener bind the same address
	// immediately, without waiting out a TIME_WAIT window.
	l2, err := Listen(context.Background(), addr)
	if err != nil {
		t.Fatalf("second Listen on %s error: %v", addr, err)
	}
	l2.Close()
}
