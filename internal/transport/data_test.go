package transport

import (
	"testing"
	"time"

	"github.com/gimbalcam/streamer/internal/wire"
)

func TestDataEndpointHandshakeAndPacketRoundTrip(t *testing.T) {
	server, err := ListenData("127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenData: %v", err)
	}
	defer server.Close()

	addr := server.conn.LocalAddr().String()

	type handshakeResult struct {
		width, height int
		err           error
	}
	resultCh := make(chan handshakeResult, 1)
	go func() {
		w, h, err := server.AwaitHandshake()
		resultCh <- handshakeResult{w, h, err}
	}()

	client, err := DialData(addr, 640, 480, time.Second)
	if err != nil {
		t.Fatalf("DialData: %v", err)
	}
	defer client.Close()

	res := <-resultCh
	if res.err != nil {
		t.Fatalf("AwaitHandshake: %v", res.err)
	}
	if res.width != 640 || res.height != 480 {
		t.Errorf("handshake dims = %d x %d, want 640 x 480", res.width, res.height)
	}

	pkt := wire.Packet{Payload: []byte("hello"), Salt: 1, Total: 1, Index: 0}
	if err := server.SendPacket(pkt); err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	got, err := client.ReceivePacket()
	if err != nil {
		t.Fatalf("ReceivePacket: %v", err)
	}
	if string(got.Payload) != "hello" || got.Salt != 1 || got.Total != 1 || got.Index != 0 {
		t.Errorf("ReceivePacket() = %+v", got)
	}
}
