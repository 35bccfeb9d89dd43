package transport

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/net/icmp"

	"github.com/tkjaer/epinger/internal/shared"
)

// ICMP sends echo requests over kernel ICMP sockets. Unprivileged mode uses
// datagram ICMP sockets ("udp4"/"udp6"), which Linux and macOS allow for
// users within net.ipv4.ping_group_range. Privileged mode uses raw sockets.
type ICMP struct {
	resolver   *Resolver
	privileged bool
	id         uint16
	seq        atomic.Uint32
	payload    []byte
}

// NewICMP creates a native ICMP transport
func NewICMP(resolver *Resolver, privileged bool) *ICMP {
	return &ICMP{
		resolver:   resolver,
		privileged: privileged,
		id:         uint16(os.Getpid() & 0xffff),
		payload:    []byte("epinger-echo-req"),
	}
}

type replyKind int

const (
	replyEcho replyKind = iota
	replyError
)

// reply is a decoded ICMP message relevant to one of our echo requests
type reply struct {
	kind   replyKind
	id     uint16
	seq    uint16
	reason string
}

func (t *ICMP) Attempt(ctx context.Context, host string, timeout int) shared.AttemptOutcome {
	addr, err := t.resolver.Resolve(ctx, host)
	if err != nil {
		return shared.ResolutionError(err.Error())
	}
	address := addr.String()

	ctx, cancel := attemptContext(ctx, timeout)
	defer cancel()

	conn, err := t.listen(addr)
	if err != nil {
		return shared.Unreachable(address, err.Error())
	}
	defer conn.Close()

	// Unblock a pending read as soon as the attempt context ends
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	seq := uint16(t.seq.Add(1))
	msg, err := encodeEcho(addr.Is6(), t.id, seq, t.payload)
	if err != nil {
		return shared.Unreachable(address, err.Error())
	}

	start := time.Now()
	if _, err := conn.WriteTo(msg, t.destination(addr)); err != nil {
		return shared.Unreachable(address, err.Error())
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	buf := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if ctx.Err() != nil || (errors.As(err, &netErr) && netErr.Timeout()) {
				return shared.Timeout(address)
			}
			return shared.Unreachable(address, err.Error())
		}
		rtt := time.Since(start)

		r, ok := decodeReply(addr.Is6(), buf[:n])
		if !ok || r.seq != seq {
			continue
		}
		// Datagram sockets rewrite the identifier and only deliver our own replies
		if t.privileged && r.id != t.id {
			continue
		}
		switch r.kind {
		case replyEcho:
			if peerAddr(peer) != addr {
				continue
			}
			return shared.Success(rtt, address)
		case replyError:
			slog.Debug("ICMP error for echo request", "host", host, "from", peerAddr(peer), "reason", r.reason)
			return shared.Unreachable(address, r.reason)
		}
	}
}

func (t *ICMP) listen(addr netip.Addr) (*icmp.PacketConn, error) {
	network, laddr := "udp4", "0.0.0.0"
	if t.privileged {
		network = "ip4:icmp"
	}
	if addr.Is6() {
		network, laddr = "udp6", "::"
		if t.privileged {
			network = "ip6:ipv6-icmp"
		}
	}
	return icmp.ListenPacket(network, laddr)
}

func (t *ICMP) destination(addr netip.Addr) net.Addr {
	ip := net.IP(addr.AsSlice())
	if t.privileged {
		return &net.IPAddr{IP: ip, Zone: addr.Zone()}
	}
	return &net.UDPAddr{IP: ip, Zone: addr.Zone()}
}

func peerAddr(peer net.Addr) netip.Addr {
	var ip net.IP
	switch p := peer.(type) {
	case *net.IPAddr:
		ip = p.IP
	case *net.UDPAddr:
		ip = p.IP
	}
	addr, _ := netip.AddrFromSlice(ip)
	return addr.Unmap()
}

// encodeEcho serializes an echo request. The kernel fills in the ICMPv6
// checksum, which needs the IPv6 pseudo header we do not have here.
func encodeEcho(v6 bool, id, seq uint16, payload []byte) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	var err error
	if v6 {
		err = gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
			&layers.ICMPv6{TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeEchoRequest, 0)},
			&layers.ICMPv6Echo{Identifier: id, SeqNumber: seq},
			gopacket.Payload(payload),
		)
	} else {
		err = gopacket.SerializeLayers(buf, gopacket.SerializeOptions{ComputeChecksums: true},
			&layers.ICMPv4{
				TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
				Id:       id,
				Seq:      seq,
			},
			gopacket.Payload(payload),
		)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeReply(v6 bool, data []byte) (reply, bool) {
	if v6 {
		return decodeICMPv6(data)
	}
	return decodeICMPv4(data)
}

func decodeICMPv4(data []byte) (reply, bool) {
	packet := gopacket.NewPacket(data, layers.LayerTypeICMPv4, gopacket.Default)
	msg, ok := packet.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4)
	if !ok {
		return reply{}, false
	}

	switch msg.TypeCode.Type() {
	case layers.ICMPv4TypeEchoReply:
		return reply{kind: replyEcho, id: msg.Id, seq: msg.Seq}, true
	case layers.ICMPv4TypeDestinationUnreachable, layers.ICMPv4TypeTimeExceeded:
		// The payload quotes our original IPv4 header and echo request
		inner := gopacket.NewPacket(msg.Payload, layers.LayerTypeIPv4, gopacket.Default)
		orig, ok := inner.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4)
		if !ok || orig.TypeCode.Type() != layers.ICMPv4TypeEchoRequest {
			return reply{}, false
		}
		return reply{kind: replyError, id: orig.Id, seq: orig.Seq, reason: msg.TypeCode.String()}, true
	}
	return reply{}, false
}

func decodeICMPv6(data []byte) (reply, bool) {
	packet := gopacket.NewPacket(data, layers.LayerTypeICMPv6, gopacket.Default)
	msg, ok := packet.Layer(layers.LayerTypeICMPv6).(*layers.ICMPv6)
	if !ok {
		return reply{}, false
	}

	switch msg.TypeCode.Type() {
	case layers.ICMPv6TypeEchoReply:
		echo, ok := packet.Layer(layers.LayerTypeICMPv6Echo).(*layers.ICMPv6Echo)
		if !ok {
			return reply{}, false
		}
		return reply{kind: replyEcho, id: echo.Identifier, seq: echo.SeqNumber}, true
	case layers.ICMPv6TypeDestinationUnreachable, layers.ICMPv6TypeTimeExceeded:
		// 4 unused bytes precede the quoted IPv6 packet
		if len(msg.Payload) <= 4 {
			return reply{}, false
		}
		inner := gopacket.NewPacket(msg.Payload[4:], layers.LayerTypeIPv6, gopacket.Default)
		echo, ok := inner.Layer(layers.LayerTypeICMPv6Echo).(*layers.ICMPv6Echo)
		if !ok {
			return reply{}, false
		}
		return reply{kind: replyError, id: echo.Identifier, seq: echo.SeqNumber, reason: msg.TypeCode.String()}, true
	}
	return reply{}, false
}
