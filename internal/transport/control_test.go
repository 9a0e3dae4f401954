package transport

import (
	"testing"
	"time"

	"github.com/gimbalcam/streamer/internal/gimbal"
)

func TestControlEndpointRoundTrip(t *testing.T) {
	ln, err := ListenControl("127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenControl: %v", err)
	}
	defer ln.Close()

	addr := ln.ln.Addr().String()

	serverCh := make(chan *ControlEndpoint, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			t.Errorf("Accept: %v", err)
			return
		}
		serverCh <- conn
	}()

	client, err := DialControl(addr, time.Second)
	if err != nil {
		t.Fatalf("DialControl: %v", err)
	}
	defer client.Close()

	server := <-serverCh
	defer server.Close()

	want := gimbal.Angles{X: 12.34, Y: -5.67}
	if err := client.Send(want); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, ended, err := server.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if ended {
		t.Fatal("Recv reported ended for a normal angle record")
	}
	if got != want {
		t.Errorf("Recv() = %+v, want %+v", got, want)
	}
}

func TestControlEndpointEndHint(t *testing.T) {
	ln, err := ListenControl("127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenControl: %v", err)
	}
	defer ln.Close()

	addr := ln.ln.Addr().String()
	serverCh := make(chan *ControlEndpoint, 1)
	go func() {
		conn, _ := ln.Accept()
		serverCh <- conn
	}()

	client, err := DialControl(addr, time.Second)
	if err != nil {
		t.Fatalf("DialControl: %v", err)
	}
	defer client.Close()
	server := <-serverCh
	defer server.Close()

	if err := client.SendEndHint(); err != nil {
		t.Fatalf("SendEndHint: %v", err)
	}
	_, ended, err := server.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if !ended {
		t.Error("Recv should report ended=true for the end-of-session hint")
	}
}
