package packet

import "sync"

// encodeBufferPool recycles the []byte scratch each Packet.Encode call
// appends to, so the client's write path (C9's single outbound mutex)
// doesn't allocate a fresh buffer per packet.
var encodeBufferPool = sync.Pool{
	New: func() any { return make([]byte, 0, 256) },
}

// GetEncodeBuffer returns a zero-length, pooled []byte ready to be passed
// as Packet.Encode's dst argument.
func GetEncodeBuffer() []byte {
	return encodeBufferPool.Get().([]byte)[:0]
}

// PutEncodeBuffer returns buf to the pool once its bytes have been
// written out.
func PutEncodeBuffer(buf []byte) {
	encodeBufferPool.Put(buf[:0])
}
