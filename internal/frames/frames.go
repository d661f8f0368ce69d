// ===== internal/frames/frames.go =====
package frames

import (
	"errors"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Frames builds the wire image a simulated announcement would have on a
// real segment: a gratuitous ARP request broadcast with sender and target
// protocol addresses both set to the claimed IP. The bytes exist for
// display and teaching only; nothing is ever written to a socket.

var broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Gratuitous serializes the gratuitous ARP announcement for ip claimed by mac
func Gratuitous(ip net.IP, mac net.HardwareAddr) ([]byte, error) {
	v4 := ip.To4()
	if v4 == nil {
		return nil, fmt.Errorf("not an IPv4 address: %v", ip)
	}
	if len(mac) != 6 {
		return nil, fmt.Errorf("not a 6-byte MAC: %v", mac)
	}

	eth := layers.Ethernet{
		SrcMAC:       mac,
		DstMAC:       broadcast,
		EthernetType: layers.EthernetTypeARP,
	}

	arp := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   mac,
		SourceProtAddress: v4,
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    v4,
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}

	if err := gopacket.SerializeLayers(buf, opts, &eth, &arp); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a frame back into its ARP layer
func Decode(data []byte) (*layers.ARP, error) {
	packet := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)

	arpLayer := packet.Layer(layers.LayerTypeARP)
	if arpLayer == nil {
		return nil, errors.New("frame carries no ARP layer")
	}

	arp, ok := arpLayer.(*layers.ARP)
	if !ok {
		return nil, errors.New("frame carries no ARP layer")
	}

	return arp, nil
}

// Summary renders a one-line description of a decoded announcement
func Summary(arp *layers.ARP) string {
	return fmt.Sprintf("who-has %s tell %s (%s)",
		net.IP(arp.DstProtAddress),
		net.IP(arp.SourceProtAddress),
		net.HardwareAddr(arp.SourceHwAddress))
}
