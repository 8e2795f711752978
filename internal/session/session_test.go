package session

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/fitnesse-go/slimd/internal/codec"
)

func pipe(t *testing.T) (server net.Conn, client net.Conn) {
	t.Helper()
	server, client = net.Pipe()
	return
}

func TestRunSendsBannerThenEchoesEmptyBatch(t *testing.T) {
	server, client := pipe(t)
	defer client.Close()

	sess := New(server, nil, nil, nil)
	done := make(chan error, 1)
	go func() { done <- sess.Run(context.Background()) }()

	const wantBanner = "Slim -- V0.0\n"
	got := make([]byte, len(wantBanner))
	if _, err := io.ReadFull(client, got); err != nil {
		t.Fatalf("read banner: %v", err)
	}
	if string(got) != wantBanner {
		t.Fatalf("banner = %q, want %q", got, wantBanner)
	}

	request, err := codec.Pack(codec.List{})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if err := codec.WriteFrame(client, []byte(request)); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	body, err := codec.ReadFrame(client)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	list, err := codec.Unpack(string(body))
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty result list, got %v", list)
	}

	if err := codec.WriteFrame(client, []byte("bye")); err != nil {
		t.Fatalf("write bye: %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := sess.State(); got != StateClosed {
		t.Fatalf("final state = %v, want Closed", got)
	}
}

func TestRunRecordsStateTransitions(t *testing.T) {
	server, client := pipe(t)
	defer client.Close()

	sess := New(server, nil, nil, nil)
	var transitions []State
	sess.SetOnStateChange(func(s State) { transitions = append(transitions, s) })

	done := make(chan error, 1)
	go func() { done <- sess.Run(context.Background()) }()

	const wantBanner = "Slim -- V0.0\n"
	got := make([]byte, len(wantBanner))
	if _, err := io.ReadFull(client, got); err != nil {
		t.Fatalf("read banner: %v", err)
	}
	if err := codec.WriteFrame(client, []byte("bye")); err != nil {
		t.Fatalf("write bye: %v", err)
	}
	<-done

	want := []State{StateStart, StateRecvLen, StateRecvBody, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i, s := range want {
		if transitions[i] != s {
			t.Fatalf("transitions[%d] = %v, want %v", i, transitions[i], s)
		}
	}
}
