// Package pcapfile reads capture files into the layered packet model
// consumed by the dissector.
package pcapfile

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"capdiff/internal/dissect"
)

// File is an open capture file streaming decoded packets.
type File struct {
	handle *pcap.Handle
	source *gopacket.PacketSource
}

// Open opens a capture file and applies the BPF filter expression, if any.
// A missing or corrupt file is a fatal error surfaced here, before any
// dissection store exists.
func Open(path, filter string) (*File, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("open pcap %s: %w", path, err)
	}
	if filter != "" {
		if err := handle.SetBPFFilter(filter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("set BPF filter %q: %w", filter, err)
		}
	}
	source := gopacket.NewPacketSource(handle, handle.LinkType())
	source.Lazy = false
	source.NoCopy = true
	return &File{handle: handle, source: source}, nil
}

// Next returns the next packet as a layered model. It returns io.EOF once
// the capture is exhausted.
func (f *File) Next() (dissect.Packet, error) {
	pkt, err := f.source.NextPacket()
	if err != nil {
		return dissect.Packet{}, err
	}
	return Convert(pkt), nil
}

// Close releases the underlying capture handle.
func (f *File) Close() {
	f.handle.Close()
}

// Convert maps a decoded gopacket packet onto the dissect layer model,
// outermost layer first.
func Convert(pkt gopacket.Packet) dissect.Packet {
	out := dissect.Packet{Timestamp: pkt.Metadata().Timestamp}
	for _, l := range pkt.Layers() {
		out.Layers = append(out.Layers, convertLayer(l))
	}
	return out
}
