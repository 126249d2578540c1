package packet

import (
	"bytes"
	"testing"
)

func TestVariableIntegerRoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, MaxVariableInteger}
	for _, v := range cases {
		enc, err := EncodeVariableInteger(v)
		if err != nil {
			t.Fatalf("encode %d: %v", v, err)
		}
		rc := NewReadContext()
		src := NewSource(bytes.NewReader(enc), len(enc))
		got, ok, err := DecodeVariableInteger(rc, src)
		if err != nil || !ok {
			t.Fatalf("decode %d: ok=%v err=%v", v, ok, err)
		}
		if got != v {
			t.Fatalf("roundtrip %d: got %d", v, got)
		}
	}
}

func TestVariableIntegerTooLarge(t *testing.T) {
	if _, err := EncodeVariableInteger(MaxVariableInteger + 1); err != ErrVariableIntegerTooLarge {
		t.Fatalf("expected ErrVariableIntegerTooLarge, got %v", err)
	}
}

func TestDecodeVariableIntegerMalformed(t *testing.T) {
	// Five continuation-set bytes: never terminates within the 4-byte max.
	enc := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	rc := NewReadContext()
	src := NewSource(bytes.NewReader(enc), len(enc))
	_, _, err := DecodeVariableInteger(rc, src)
	if err != ErrMalformedVariableInteger {
		t.Fatalf("expected ErrMalformedVariableInteger, got %v", err)
	}
}

func TestVariableIntegerResumable(t *testing.T) {
	enc, _ := EncodeVariableInteger(2097152) // 4 bytes
	rc := NewReadContext()
	var got uint32
	for i := 0; i < len(enc); i++ {
		src := NewSource(bytes.NewReader(enc[i:i+1]), 1)
		v, ok, err := DecodeVariableInteger(rc, src)
		if err != nil {
			t.Fatalf("byte %d: %v", i, err)
		}
		if i < len(enc)-1 {
			if ok {
				t.Fatalf("byte %d: unexpectedly done", i)
			}
			continue
		}
		if !ok {
			t.Fatalf("final byte: not done")
		}
		got = v
	}
	if got != 2097152 {
		t.Fatalf("got %d", got)
	}
}

func TestBlobStringRoundTrip(t *testing.T) {
	s := "hello/world"
	enc := EncodeBlob(s)
	rc := NewReadContext()
	src := NewSource(bytes.NewReader(enc), len(enc))
	got, ok, err := DecodeBlobString(rc, src)
	if err != nil || !ok {
		t.Fatalf("decode: ok=%v err=%v", ok, err)
	}
	if got != s {
		t.Fatalf("got %q want %q", got, s)
	}
}

func TestBlobTooLong(t *testing.T) {
	if _, err := BlobSize(MaxBlobLength + 1); err != ErrContainerTooLong {
		t.Fatalf("expected ErrContainerTooLong, got %v", err)
	}
}

func TestDecodeU16ChunkedByOneByte(t *testing.T) {
	enc := EncodeU16(0xBEEF)
	rc := NewReadContext()
	for i := 0; i < len(enc); i++ {
		src := NewSource(bytes.NewReader(enc[i:i+1]), 1)
		v, ok, err := DecodeU16(rc, src)
		if err != nil {
			t.Fatalf("byte %d: %v", i, err)
		}
		if i == 0 {
			if ok {
				t.Fatalf("expected not done after 1 byte")
			}
			continue
		}
		if !ok {
			t.Fatalf("expected done after 2 bytes")
		}
		if v != 0xBEEF {
			t.Fatalf("got %x", v)
		}
	}
}
