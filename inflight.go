package mqtt

import (
	"sync"

	"github.com/golang-io/mqtt/packet"
)

// inFlight tracks QoS-2 publishes a session has PUBREC'd but not yet
// PUBCOMP'd: the original packet is held under its packet identifier until
// the matching PUBREL arrives.
type inFlight struct {
	mu sync.RWMutex
	m  map[uint16]*packet.Publish
}

func newInFlight() *inFlight {
	return &inFlight{m: make(map[uint16]*packet.Publish)}
}

// get pops the publish awaiting this packet identifier's PUBREL, if any.
func (f *inFlight) get(id uint16) (*packet.Publish, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pub, ok := f.m[id]
	if ok {
		delete(f.m, id)
	}
	return pub, ok
}

// put records a QoS-2 publish as awaiting its PUBREL.
func (f *inFlight) put(pub *packet.Publish) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[pub.PacketID] = pub
}
