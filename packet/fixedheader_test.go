package packet

import (
	"bytes"
	"testing"
)

func TestFixedHeaderEncodeDecode(t *testing.T) {
	fh := &FixedHeader{Kind: PUBLISH, QoS: 1}
	var dst []byte
	dst, err := fh.Encode(dst, 42)
	if err != nil {
		t.Fatal(err)
	}

	rc := NewReadContext()
	src := NewSource(bytes.NewReader(dst), len(dst))
	var got FixedHeader
	done, err := decodeFixedHeader(&got, rc, src)
	if err != nil || !done {
		t.Fatalf("done=%v err=%v", done, err)
	}
	if got.Kind != PUBLISH || got.QoS != 1 || got.RemainingLength != 42 {
		t.Fatalf("got %+v", got)
	}
}

func TestFixedHeaderResumableByteAtATime(t *testing.T) {
	fh := &FixedHeader{Kind: SUBSCRIBE, Dup: 0, QoS: 1, Retain: 0}
	dst, err := fh.Encode(nil, 300)
	if err != nil {
		t.Fatal(err)
	}

	rc := NewReadContext()
	var got FixedHeader
	var done bool
	for i := 0; i < len(dst); i++ {
		src := NewSource(bytes.NewReader(dst[i:i+1]), 1)
		done, err = decodeFixedHeader(&got, rc, src)
		if err != nil {
			t.Fatalf("byte %d: %v", i, err)
		}
		if i < len(dst)-1 && done {
			t.Fatalf("byte %d: done too early", i)
		}
	}
	if !done {
		t.Fatal("expected done after final byte")
	}
	if got.Kind != SUBSCRIBE || got.RemainingLength != 300 {
		t.Fatalf("got %+v", got)
	}
}

func TestValidateFlagsRejectsMalformedSubscribe(t *testing.T) {
	fh := &FixedHeader{Kind: SUBSCRIBE, QoS: 0}
	if err := validateFlags(fh); err != ErrMalformedFlags {
		t.Fatalf("expected ErrMalformedFlags, got %v", err)
	}
}

func TestValidateFlagsRejectsBadPublishQoS(t *testing.T) {
	fh := &FixedHeader{Kind: PUBLISH, QoS: 3}
	if err := validateFlags(fh); err != ErrBadQoS {
		t.Fatalf("expected ErrBadQoS, got %v", err)
	}
}
