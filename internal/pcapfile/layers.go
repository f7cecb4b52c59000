package pcapfile

import (
	"strconv"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"capdiff/internal/dissect"
)

// decodedLayer is the concrete dissect.Layer produced by this reader. Field
// names follow scapy's conventions so paths from different capture tools
// remain comparable ("Ethernet.IP.TCP.flags").
type decodedLayer struct {
	name   string
	class  dissect.LayerClass
	fields []dissect.Field
}

func (l decodedLayer) Name() string              { return l.name }
func (l decodedLayer) Class() dissect.LayerClass { return l.class }
func (l decodedLayer) Fields() []dissect.Field   { return l.fields }

func convertLayer(l gopacket.Layer) dissect.Layer {
	switch v := l.(type) {
	case *layers.Ethernet:
		return convertEthernet(v)
	case *layers.ARP:
		return convertARP(v)
	case *layers.IPv4:
		return convertIPv4(v)
	case *layers.IPv6:
		return convertIPv6(v)
	case *layers.ICMPv4:
		return convertICMPv4(v)
	case *layers.ICMPv6:
		return convertICMPv6(v)
	case *layers.TCP:
		return convertTCP(v)
	case *layers.UDP:
		return convertUDP(v)
	case *layers.DNS:
		return convertDNS(v)
	case *gopacket.Payload:
		return decodedLayer{
			name:  "Raw",
			class: dissect.ClassOpaque,
			fields: []dissect.Field{
				{Name: "load", Value: dissect.Bytes(v.LayerContents())},
			},
		}
	case *layers.Padding:
		return decodedLayer{
			name:  "Padding",
			class: dissect.ClassOpaque,
			fields: []dissect.Field{
				{Name: "load", Value: dissect.Bytes(v.LayerContents())},
			},
		}
	default:
		// No field knowledge for this protocol. The nil field list makes
		// the dissector log a warning and keep walking the chain.
		return decodedLayer{
			name:  l.LayerType().String(),
			class: dissect.ClassOpaque,
		}
	}
}

func convertEthernet(eth *layers.Ethernet) dissect.Layer {
	return decodedLayer{
		name:  "Ethernet",
		class: dissect.ClassLink,
		fields: []dissect.Field{
			{Name: "dst", Value: dissect.Str(eth.DstMAC.String())},
			{Name: "src", Value: dissect.Str(eth.SrcMAC.String())},
			{Name: "type", Value: dissect.Int(int64(eth.EthernetType))},
		},
	}
}

func convertARP(arp *layers.ARP) dissect.Layer {
	return decodedLayer{
		name:  "ARP",
		class: dissect.ClassNetwork,
		fields: []dissect.Field{
			{Name: "hwtype", Value: dissect.Int(int64(arp.AddrType))},
			{Name: "ptype", Value: dissect.Int(int64(arp.Protocol))},
			{Name: "hwlen", Value: dissect.Int(int64(arp.HwAddressSize))},
			{Name: "plen", Value: dissect.Int(int64(arp.ProtAddressSize))},
			{Name: "op", Value: dissect.Int(int64(arp.Operation))},
			{Name: "hwsrc", Value: dissect.Bytes(arp.SourceHwAddress)},
			{Name: "psrc", Value: dissect.Bytes(arp.SourceProtAddress)},
			{Name: "hwdst", Value: dissect.Bytes(arp.DstHwAddress)},
			{Name: "pdst", Value: dissect.Bytes(arp.DstProtAddress)},
		},
	}
}

func convertIPv4(ip *layers.IPv4) dissect.Layer {
	options := make([]dissect.Value, 0, len(ip.Options))
	for _, opt := range ip.Options {
		name := strconv.Itoa(int(opt.OptionType))
		options = append(options, dissect.Named(name, dissect.Bytes(opt.OptionData)))
	}
	return decodedLayer{
		name:  "IP",
		class: dissect.ClassNetwork,
		fields: []dissect.Field{
			{Name: "version", Value: dissect.Int(int64(ip.Version))},
			{Name: "ihl", Value: dissect.Int(int64(ip.IHL))},
			{Name: "tos", Value: dissect.Int(int64(ip.TOS))},
			{Name: "len", Value: dissect.Int(int64(ip.Length))},
			{Name: "id", Value: dissect.Int(int64(ip.Id))},
			{Name: "flags", Value: dissect.Str(ip.Flags.String())},
			{Name: "frag", Value: dissect.Int(int64(ip.FragOffset))},
			{Name: "ttl", Value: dissect.Int(int64(ip.TTL))},
			{Name: "proto", Value: dissect.Int(int64(ip.Protocol))},
			{Name: "chksum", Value: dissect.Int(int64(ip.Checksum))},
			{Name: "src", Value: dissect.Str(ip.SrcIP.String())},
			{Name: "dst", Value: dissect.Str(ip.DstIP.String())},
			{Name: "options", Value: dissect.List(options)},
		},
	}
}

func convertIPv6(ip *layers.IPv6) dissect.Layer {
	return decodedLayer{
		name:  "IPv6",
		class: dissect.ClassNetwork,
		fields: []dissect.Field{
			{Name: "version", Value: dissect.Int(int64(ip.Version))},
			{Name: "tc", Value: dissect.Int(int64(ip.TrafficClass))},
			{Name: "fl", Value: dissect.Int(int64(ip.FlowLabel))},
			{Name: "plen", Value: dissect.Int(int64(ip.Length))},
			{Name: "nh", Value: dissect.Int(int64(ip.NextHeader))},
			{Name: "hlim", Value: dissect.Int(int64(ip.HopLimit))},
			{Name: "src", Value: dissect.Str(ip.SrcIP.String())},
			{Name: "dst", Value: dissect.Str(ip.DstIP.String())},
		},
	}
}

func convertICMPv4(icmp *layers.ICMPv4) dissect.Layer {
	return decodedLayer{
		name:  "ICMP",
		class: dissect.ClassTransport,
		fields: []dissect.Field{
			{Name: "type", Value: dissect.Int(int64(icmp.TypeCode.Type()))},
			{Name: "code", Value: dissect.Int(int64(icmp.TypeCode.Code()))},
			{Name: "chksum", Value: dissect.Int(int64(icmp.Checksum))},
			{Name: "id", Value: dissect.Int(int64(icmp.Id))},
			{Name: "seq", Value: dissect.Int(int64(icmp.Seq))},
		},
	}
}

func convertICMPv6(icmp *layers.ICMPv6) dissect.Layer {
	return decodedLayer{
		name:  "ICMPv6",
		class: dissect.ClassTransport,
		fields: []dissect.Field{
			{Name: "type", Value: dissect.Int(int64(icmp.TypeCode.Type()))},
			{Name: "code", Value: dissect.Int(int64(icmp.TypeCode.Code()))},
			{Name: "cksum", Value: dissect.Int(int64(icmp.Checksum))},
		},
	}
}

// tcpFlags renders the set flags in scapy's order, e.g. "SA" for SYN+ACK.
func tcpFlags(tcp *layers.TCP) string {
	flags := ""
	for _, f := range []struct {
		set  bool
		name string
	}{
		{tcp.FIN, "F"}, {tcp.SYN, "S"}, {tcp.RST, "R"}, {tcp.PSH, "P"},
		{tcp.ACK, "A"}, {tcp.URG, "U"}, {tcp.ECE, "E"}, {tcp.CWR, "C"},
		{tcp.NS, "N"},
	} {
		if f.set {
			flags += f.name
		}
	}
	return flags
}

func convertTCP(tcp *layers.TCP) dissect.Layer {
	// Repeated options are counted by option kind, not as one raw list.
	options := make([]dissect.Value, 0, len(tcp.Options))
	for _, opt := range tcp.Options {
		options = append(options, dissect.Named(opt.OptionType.String(), dissect.Bytes(opt.OptionData)))
	}
	return decodedLayer{
		name:  "TCP",
		class: dissect.ClassTransport,
		fields: []dissect.Field{
			{Name: "sport", Value: dissect.Int(int64(tcp.SrcPort))},
			{Name: "dport", Value: dissect.Int(int64(tcp.DstPort))},
			{Name: "seq", Value: dissect.Int(int64(tcp.Seq))},
			{Name: "ack", Value: dissect.Int(int64(tcp.Ack))},
			{Name: "dataofs", Value: dissect.Int(int64(tcp.DataOffset))},
			{Name: "flags", Value: dissect.Str(tcpFlags(tcp))},
			{Name: "window", Value: dissect.Int(int64(tcp.Window))},
			{Name: "chksum", Value: dissect.Int(int64(tcp.Checksum))},
			{Name: "urgptr", Value: dissect.Int(int64(tcp.Urgent))},
			{Name: "options", Value: dissect.List(options)},
		},
	}
}

func convertUDP(udp *layers.UDP) dissect.Layer {
	return decodedLayer{
		name:  "UDP",
		class: dissect.ClassTransport,
		fields: []dissect.Field{
			{Name: "sport", Value: dissect.Int(int64(udp.SrcPort))},
			{Name: "dport", Value: dissect.Int(int64(udp.DstPort))},
			{Name: "len", Value: dissect.Int(int64(udp.Length))},
			{Name: "chksum", Value: dissect.Int(int64(udp.Checksum))},
		},
	}
}

func convertDNS(dns *layers.DNS) dissect.Layer {
	questions := make([]dissect.Value, 0, len(dns.Questions))
	for _, q := range dns.Questions {
		questions = append(questions, dissect.Nested([]dissect.Field{
			{Name: "qname", Value: dissect.Bytes(q.Name)},
			{Name: "qtype", Value: dissect.Int(int64(q.Type))},
			{Name: "qclass", Value: dissect.Int(int64(q.Class))},
		}))
	}
	return decodedLayer{
		name:  "DNS",
		class: dissect.ClassApplication,
		fields: []dissect.Field{
			{Name: "id", Value: dissect.Int(int64(dns.ID))},
			{Name: "qr", Value: dissect.Int(boolInt(dns.QR))},
			{Name: "opcode", Value: dissect.Int(int64(dns.OpCode))},
			{Name: "aa", Value: dissect.Int(boolInt(dns.AA))},
			{Name: "tc", Value: dissect.Int(boolInt(dns.TC))},
			{Name: "rd", Value: dissect.Int(boolInt(dns.RD))},
			{Name: "ra", Value: dissect.Int(boolInt(dns.RA))},
			{Name: "z", Value: dissect.Int(int64(dns.Z))},
			{Name: "rcode", Value: dissect.Int(int64(dns.ResponseCode))},
			{Name: "qdcount", Value: dissect.Int(int64(dns.QDCount))},
			{Name: "ancount", Value: dissect.Int(int64(dns.ANCount))},
			{Name: "nscount", Value: dissect.Int(int64(dns.NSCount))},
			{Name: "arcount", Value: dissect.Int(int64(dns.ARCount))},
			{Name: "qd", Value: dissect.List(questions)},
			{Name: "an", Value: dissect.List(convertRRs(dns.Answers))},
			{Name: "ns", Value: dissect.List(convertRRs(dns.Authorities))},
			{Name: "ar", Value: dissect.List(convertRRs(dns.Additionals))},
		},
	}
}

func convertRRs(rrs []layers.DNSResourceRecord) []dissect.Value {
	out := make([]dissect.Value, 0, len(rrs))
	for _, rr := range rrs {
		out = append(out, dissect.Nested([]dissect.Field{
			{Name: "rrname", Value: dissect.Bytes(rr.Name)},
			{Name: "type", Value: dissect.Int(int64(rr.Type))},
			{Name: "rclass", Value: dissect.Int(int64(rr.Class))},
			{Name: "ttl", Value: dissect.Int(int64(rr.TTL))},
		}))
	}
	return out
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
