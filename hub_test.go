package main

import (
	"testing"
	"time"
)

func TestHubStopWaitsForRun(t *testing.T) {
	for i := 0; i < 50; i++ {
		h := newHub()
		h.start()

		stopped := make(chan struct{})
		go func() {
			h.stop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			t.Fatal("stop did not return")
		}

		// the loop has exited, so nobody receives on the hub channels any more
		select {
		case h.broadcast <- roomMessage{room: "mafia"}:
			t.Fatalf("run still receiving after stop (iteration %d)", i)
		default:
		}
	}
}

func TestSendToRoomAfterStop(t *testing.T) {
	h := newHub()
	h.start()
	h.stop()

	done := make(chan struct{})
	go func() {
		h.sendToRoom("mafia", []byte("late"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sendToRoom blocked on a stopped hub")
	}
}
