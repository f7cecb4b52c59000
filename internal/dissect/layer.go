package dissect

import "time"

// LayerClass orders protocol layers by their position in the stack, so a
// dissection level can cut traversal off at a chosen depth.
type LayerClass int

const (
	ClassLink LayerClass = iota
	ClassNetwork
	ClassTransport
	ClassApplication
	ClassOpaque // undecoded trailing payload
)

// Layer is one decoded protocol layer of a packet. Implementations enumerate
// their fields as (name, typed value) pairs; layers the reader cannot decode
// implement this with an opaque bytes field so traversal never special-cases
// unknown protocols.
type Layer interface {
	// Name is the layer's protocol name as used in field paths ("TCP").
	Name() string
	// Class is the layer's position in the protocol stack.
	Class() LayerClass
	// Fields enumerates the layer's decoded fields. A nil slice marks a
	// layer that could not be introspected at all; the dissector logs a
	// warning and moves on.
	Fields() []Field
}

// Packet is one captured packet as an already-layered model, outermost layer
// first, plus its capture timestamp.
type Packet struct {
	Timestamp time.Time
	Layers    []Layer
}

// Source supplies the ordered packet sequence of one capture. Next returns
// io.EOF when the capture is exhausted; any other error is fatal for the
// whole capture.
type Source interface {
	Next() (Packet, error)
}
