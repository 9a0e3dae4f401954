package wire

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestFragmentReassembleRoundTrip(t *testing.T) {
	cases := []struct {
		name       string
		size       int
		maxPayload int
	}{
		{"empty", 0, 1400},
		{"single packet", 100, 1400},
		{"exact boundary", 2800, 1400},
		{"one over boundary", 2801, 1400},
		{"many packets", 50000, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			blob := make([]byte, tc.size)
			rand.New(rand.NewSource(1)).Read(blob)

			packets, err := Fragment(blob, tc.maxPayload, 42)
			if err != nil {
				t.Fatalf("Fragment: %v", err)
			}

			r := NewReassembler(8, 0)
			var got []byte
			for _, p := range packets {
				raw := p.Bytes()
				parsed, err := ParsePacket(raw)
				if err != nil {
					t.Fatalf("ParsePacket: %v", err)
				}
				blobOut, ok, err := r.Put(parsed)
				if err != nil {
					t.Fatalf("Put: %v", err)
				}
				if ok {
					got = blobOut
				}
			}
			if !bytes.Equal(got, blob) {
				t.Fatalf("reassembled blob mismatch: got %d bytes, want %d bytes", len(got), len(blob))
			}
		})
	}
}

func TestFragmentOutOfOrder(t *testing.T) {
	blob := make([]byte, 10000)
	rand.New(rand.NewSource(2)).Read(blob)

	packets, err := Fragment(blob, 300, 7)
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}

	rand.New(rand.NewSource(3)).Shuffle(len(packets), func(i, j int) {
		packets[i], packets[j] = packets[j], packets[i]
	})

	r := NewReassembler(8, 0)
	var got []byte
	for _, p := range packets {
		blobOut, ok, err := r.Put(p)
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		if ok {
			got = blobOut
		}
	}
	if !bytes.Equal(got, blob) {
		t.Fatal("out-of-order reassembly did not reproduce original blob")
	}
}

func TestFragmentDropOnePacketNeverCompletes(t *testing.T) {
	blob := make([]byte, 5000)
	packets, err := Fragment(blob, 300, 1)
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}

	r := NewReassembler(8, 0)
	for i, p := range packets {
		if i == len(packets)/2 {
			continue // simulate loss
		}
		_, ok, err := r.Put(p)
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		if ok {
			t.Fatal("frame completed despite a dropped packet")
		}
	}
}

func TestFragmentInterleavedFrames(t *testing.T) {
	blobA := bytes.Repeat([]byte("A"), 4000)
	blobB := bytes.Repeat([]byte("B"), 3000)

	packetsA, err := Fragment(blobA, 300, 10)
	if err != nil {
		t.Fatal(err)
	}
	packetsB, err := Fragment(blobB, 300, 20)
	if err != nil {
		t.Fatal(err)
	}

	r := NewReassembler(8, 0)
	var gotA, gotB []byte
	for i := 0; i < len(packetsA) || i < len(packetsB); i++ {
		if i < len(packetsA) {
			if blob, ok, err := r.Put(packetsA[i]); err != nil {
				t.Fatal(err)
			} else if ok {
				gotA = blob
			}
		}
		if i < len(packetsB) {
			if blob, ok, err := r.Put(packetsB[i]); err != nil {
				t.Fatal(err)
			} else if ok {
				gotB = blob
			}
		}
	}
	if !bytes.Equal(gotA, blobA) {
		t.Error("interleaved frame A mismatch")
	}
	if !bytes.Equal(gotB, blobB) {
		t.Error("interleaved frame B mismatch")
	}
}

func TestFragmentTooManyPackets(t *testing.T) {
	blob := make([]byte, MaxPacketsPerFrame*10+1)
	_, err := Fragment(blob, 10, 1)
	if err == nil {
		t.Fatal("expected FragmentationError for frame requiring >1000 packets")
	}
	if _, ok := err.(*FragmentationError); !ok {
		t.Fatalf("expected *FragmentationError, got %T", err)
	}
}

func TestReassemblerBoundedConcurrency(t *testing.T) {
	r := NewReassembler(2, 0)
	for salt := 0; salt < 5; salt++ {
		p := Packet{Payload: []byte("x"), Salt: salt, Total: 2, Index: 0}
		if _, _, err := r.Put(p); err != nil {
			t.Fatal(err)
		}
	}
	if got := r.InFlight(); got != 2 {
		t.Fatalf("expected at most 2 in-flight assemblies, got %d", got)
	}
}

func TestReassemblerInconsistentFrame(t *testing.T) {
	r := NewReassembler(8, 0)
	if _, _, err := r.Put(Packet{Payload: []byte("a"), Salt: 5, Total: 3, Index: 0}); err != nil {
		t.Fatal(err)
	}
	_, _, err := r.Put(Packet{Payload: []byte("b"), Salt: 5, Total: 4, Index: 0})
	if err == nil {
		t.Fatal("expected InconsistentFrameError on conflicting total for same salt")
	}
	if _, ok := err.(*InconsistentFrameError); !ok {
		t.Fatalf("expected *InconsistentFrameError, got %T", err)
	}
}

func TestPacketWireFormatTrailer(t *testing.T) {
	p := Packet{Payload: []byte("hello"), Salt: 7, Total: 13, Index: 4}
	raw := p.Bytes()
	if len(raw) != len(p.Payload)+TrailerSize {
		t.Fatalf("unexpected wire length %d", len(raw))
	}
	trailer := raw[len(raw)-TrailerSize:]
	if string(trailer) != "007012004" {
		t.Fatalf("unexpected trailer %q, want %q", trailer, "007012004")
	}

	parsed, err := ParsePacket(raw)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Salt != 7 || parsed.Total != 13 || parsed.Index != 4 {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
	if string(parsed.Payload) != "hello" {
		t.Fatalf("payload mismatch: %q", parsed.Payload)
	}
}
