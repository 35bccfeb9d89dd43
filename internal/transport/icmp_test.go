package transport

import (
	"context"
	"net"
	"net/netip"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/tkjaer/epinger/internal/shared"
)

// checksum is the RFC 1071 internet checksum
func checksum(b []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(b); i += 2 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
	}
	if len(b)%2 == 1 {
		sum += uint32(b[len(b)-1]) << 8
	}
	for sum>>16 != 0 {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}

func TestEncodeEcho_IPv4(t *testing.T) {
	msg, err := encodeEcho(false, 0x1234, 7, []byte("payload"))
	if err != nil {
		t.Fatalf("encodeEcho() error = %v", err)
	}
	if len(msg) != 8+len("payload") {
		t.Fatalf("encodeEcho() length = %d, want %d", len(msg), 8+len("payload"))
	}
	if msg[0] != 8 || msg[1] != 0 {
		t.Errorf("type/code = %d/%d, want 8/0", msg[0], msg[1])
	}
	if id := uint16(msg[4])<<8 | uint16(msg[5]); id != 0x1234 {
		t.Errorf("id = %#x, want 0x1234", id)
	}
	if seq := uint16(msg[6])<<8 | uint16(msg[7]); seq != 7 {
		t.Errorf("seq = %d, want 7", seq)
	}
	if c := checksum(msg); c != 0 {
		t.Errorf("checksum over message = %#x, want 0", c)
	}
}

func TestEncodeEcho_IPv6(t *testing.T) {
	msg, err := encodeEcho(true, 0xbeef, 300, nil)
	if err != nil {
		t.Fatalf("encodeEcho() error = %v", err)
	}
	if len(msg) != 8 {
		t.Fatalf("encodeEcho() length = %d, want 8", len(msg))
	}
	if msg[0] != 128 {
		t.Errorf("type = %d, want 128", msg[0])
	}
	if seq := uint16(msg[6])<<8 | uint16(msg[7]); seq != 300 {
		t.Errorf("seq = %d, want 300", seq)
	}
}

func serialize(t *testing.T, opts gopacket.SerializeOptions, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, opts, ls...); err != nil {
		t.Fatalf("SerializeLayers() error = %v", err)
	}
	return buf.Bytes()
}

func TestDecodeICMPv4(t *testing.T) {
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	echoReply := serialize(t, opts,
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoReply, 0), Id: 42, Seq: 9},
		gopacket.Payload("data"),
	)

	original := serialize(t, opts,
		&layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolICMPv4,
			SrcIP:    net.ParseIP("192.0.2.2").To4(),
			DstIP:    net.ParseIP("192.0.2.1").To4(),
		},
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0), Id: 42, Seq: 10},
	)
	unreachable := serialize(t, opts,
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeDestinationUnreachable, layers.ICMPv4CodeHost)},
		gopacket.Payload(original),
	)

	request := serialize(t, opts,
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0), Id: 42, Seq: 11},
	)

	tests := []struct {
		name   string
		data   []byte
		want   reply
		wantOK bool
	}{
		{name: "echo reply", data: echoReply, want: reply{kind: replyEcho, id: 42, seq: 9}, wantOK: true},
		{name: "destination unreachable", data: unreachable, want: reply{kind: replyError, id: 42, seq: 10}, wantOK: true},
		{name: "own echo request", data: request},
		{name: "garbage", data: []byte{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeReply(false, tt.data)
			if ok != tt.wantOK {
				t.Fatalf("decodeReply() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.kind != tt.want.kind || got.id != tt.want.id || got.seq != tt.want.seq {
				t.Errorf("decodeReply() = %+v, want %+v", got, tt.want)
			}
			if got.kind == replyError && got.reason == "" {
				t.Error("decodeReply() reason should not be empty")
			}
		})
	}
}

func TestDecodeICMPv6_EchoReply(t *testing.T) {
	data := serialize(t, gopacket.SerializeOptions{},
		&layers.ICMPv6{TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeEchoReply, 0)},
		&layers.ICMPv6Echo{Identifier: 5, SeqNumber: 6},
		gopacket.Payload("data"),
	)

	got, ok := decodeReply(true, data)
	if !ok {
		t.Fatal("decodeReply() ok = false, want true")
	}
	if got.kind != replyEcho || got.id != 5 || got.seq != 6 {
		t.Errorf("decodeReply() = %+v, want echo id 5 seq 6", got)
	}
}

func TestPeerAddr(t *testing.T) {
	tests := []struct {
		peer net.Addr
		want netip.Addr
	}{
		{&net.IPAddr{IP: net.ParseIP("192.0.2.1")}, netip.MustParseAddr("192.0.2.1")},
		{&net.UDPAddr{IP: net.ParseIP("2001:db8::1")}, netip.MustParseAddr("2001:db8::1")},
		{nil, netip.Addr{}},
	}
	for _, tt := range tests {
		if got := peerAddr(tt.peer); got != tt.want {
			t.Errorf("peerAddr(%v) = %v, want %v", tt.peer, got, tt.want)
		}
	}
}

func TestICMP_AttemptResolutionError(t *testing.T) {
	r, _ := newTestResolver(t, FamilyAny, nil)
	got := NewICMP(r, false).Attempt(context.Background(), "nope.invalid", 1)
	if got.Status != shared.StatusResolutionError {
		t.Errorf("Attempt() status = %v, want %v", got.Status, shared.StatusResolutionError)
	}
}

func TestProbing_AttemptResolutionError(t *testing.T) {
	r, _ := newTestResolver(t, FamilyAny, nil)
	got := NewProbing(r, false).Attempt(context.Background(), "nope.invalid", 1)
	if got.Status != shared.StatusResolutionError {
		t.Errorf("Attempt() status = %v, want %v", got.Status, shared.StatusResolutionError)
	}
}

func TestNew(t *testing.T) {
	for _, kind := range Kinds {
		tr, closeFn, err := New(kind, Options{})
		if err != nil {
			t.Fatalf("New(%q) error = %v", kind, err)
		}
		if tr == nil {
			t.Errorf("New(%q) returned nil transport", kind)
		}
		closeFn()
	}

	if _, _, err := New("carrier-pigeon", Options{}); err == nil {
		t.Error("New() with unknown kind should fail")
	}
}
