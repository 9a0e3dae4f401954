package wire

import "testing"

func TestHandshakeRequestRoundTrip(t *testing.T) {
	req, err := EncodeHandshakeRequest(640, 480)
	if err != nil {
		t.Fatal(err)
	}
	if len(req) != 22 {
		t.Fatalf("handshake request is %d bytes, want 22", len(req))
	}
	if string(req) != "Hello Server 0640 0480" {
		t.Fatalf("got %q", req)
	}
	w, h, err := ParseHandshakeRequest(req)
	if err != nil {
		t.Fatal(err)
	}
	if w != 640 || h != 480 {
		t.Fatalf("got (%d, %d)", w, h)
	}
}

func TestHandshakeReply(t *testing.T) {
	if !IsHandshakeReply([]byte(HandshakeReply)) {
		t.Fatal("handshake reply not recognized")
	}
	if len(HandshakeReply) != 12 {
		t.Fatalf("handshake reply is %d bytes, want 12", len(HandshakeReply))
	}
	if IsHandshakeReply([]byte("Hello Server 0001 0001")) {
		t.Fatal("request misdetected as reply")
	}
}

func TestEncodeHandshakeRequestRejectsOversizedDims(t *testing.T) {
	if _, err := EncodeHandshakeRequest(99999, 100); err == nil {
		t.Fatal("expected error for width exceeding 4 digits")
	}
}
