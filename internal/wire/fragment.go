package wire

// Fragment splits blob into a sequence of Packets, each carrying at most
// maxPayload bytes of blob plus the fixed 9-byte trailer, all sharing the
// same salt. salt identifies one frame's packets to the reassembler at the
// other end and should vary between frames (callers use a random 0-999
// value per frame; see emitActivity in producerpipe).
//
// An empty blob still produces exactly one packet (index 0, total 1) so
// that zero-length frames round-trip through the wire format.
func Fragment(blob []byte, maxPayload, salt int) ([]Packet, error) {
	if maxPayload <= 0 {
		return nil, &FragmentationError{Reason: "maxPayload must be positive"}
	}
	if salt < 0 || salt > MaxSalt {
		return nil, &FragmentationError{Reason: "salt out of range 0-999"}
	}

	total := (len(blob) + maxPayload - 1) / maxPayload
	if total == 0 {
		total = 1
	}
	if total > MaxPacketsPerFrame {
		return nil, &FragmentationError{Reason: "frame requires more than 1000 packets at this max packet size"}
	}

	packets := make([]Packet, 0, total)
	for i := 0; i < total; i++ {
		start := i * maxPayload
		end := start + maxPayload
		if end > len(blob) {
			end = len(blob)
		}
		payload := make([]byte, end-start)
		copy(payload, blob[start:end])
		packets = append(packets, Packet{
			Payload: payload,
			Salt:    salt,
			Total:   total,
			Index:   i,
		})
	}
	return packets, nil
}
