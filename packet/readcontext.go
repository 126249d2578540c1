package packet

import "io"

// Source is the budget-limited byte source a decoder pulls from within one
// process_one call: at most Available bytes may be consumed without
// blocking the caller. It wraps an underlying io.Reader (usually the
// transport's Context) and never reads past the budget.
type Source struct {
	r         io.Reader
	Available int
}

// NewSource builds a Source that will read at most available bytes from r
// before reporting "not enough data yet" to callers.
func NewSource(r io.Reader, available int) *Source {
	return &Source{r: r, Available: available}
}

// ReadByte returns ok=false (no error) when the budget is exhausted; the
// caller must stop and retry on the next process_one call with a fresh
// Source over the same ReadContext.
func (s *Source) ReadByte() (b byte, ok bool, err error) {
	if s.Available <= 0 {
		return 0, false, nil
	}
	var buf [1]byte
	n, err := s.r.Read(buf[:])
	if n == 0 {
		if err == nil {
			err = io.ErrNoProgress
		}
		return 0, false, err
	}
	s.Available--
	return buf[0], true, nil
}

// ReadContext is the resumable state of one in-flight inbound packet. It
// survives across suspension points (a process_one call returning with the
// packet still partially parsed) and is reset once the packet is fully
// decoded and handed to its callback.
//
// Invariant: RemainingSize == 0 iff the packet is fully drained.
// Invariant: scratch is empty whenever Sequence advances.
type ReadContext struct {
	// Sequence is the ordinal of the next field to decode, 0 at the start
	// of a packet.
	Sequence int

	// Data holds per-field scratch for DecodeVariableInteger: the
	// accumulator and the number of bytes read so far. Blob, u16 and u32
	// fields accumulate their partial bytes in scratch instead.
	Data [2]uint32

	// RemainingSize is the number of payload bytes of the current packet
	// still unconsumed. It is seeded to 5 (the worst-case fixed header: a
	// 1-byte type/flags octet plus a 4-byte variable-length remaining
	// length) so the fixed header itself runs through the same resumable
	// machinery, then reset to the decoded remaining length.
	RemainingSize uint32

	// scratch accumulates the partial bytes of the field in progress
	// (e.g. 0 or 1 of a u16's 2 bytes) across suspensions.
	scratch []byte
}

// NewReadContext returns a context ready to parse a fresh fixed header.
func NewReadContext() *ReadContext {
	return &ReadContext{RemainingSize: 5}
}

// Reset clears per-field scratch and rearms RemainingSize for the decoded
// remaining-length of the packet whose fixed header was just parsed.
func (rc *ReadContext) Reset(remainingLength uint32) {
	rc.Sequence = 0
	rc.Data[0], rc.Data[1] = 0, 0
	rc.scratch = rc.scratch[:0]
	rc.RemainingSize = remainingLength
}

// Done reports whether the current packet has been fully drained.
func (rc *ReadContext) Done() bool {
	return rc.RemainingSize == 0
}

// data returns the scratch bytes accumulated so far for the field in
// progress.
func (rc *ReadContext) data() []byte {
	return rc.scratch
}

// appendScratch accumulates one more byte of the field in progress.
func (rc *ReadContext) appendScratch(b byte) {
	rc.scratch = append(rc.scratch, b)
}

func (rc *ReadContext) advance(n uint32) {
	rc.Sequence++
	rc.Data[0], rc.Data[1] = 0, 0
	rc.scratch = rc.scratch[:0]
	rc.consume(n)
}

// consume subtracts n already-read bytes from RemainingSize without
// touching Sequence or scratch. It is used by sub-decoders, like
// Properties, that track their own resumable progress outside the
// owning ReadContext's per-field Sequence machinery but still need their
// consumed bytes reflected in the packet's overall remaining-length
// budget.
func (rc *ReadContext) consume(n uint32) {
	if n > rc.RemainingSize {
		rc.RemainingSize = 0
	} else {
		rc.RemainingSize -= n
	}
}
