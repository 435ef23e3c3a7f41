// Package ice implements the sans-I/O ICE Agent (spec C2, RFC 8445 plus the
// RFC 6544 TCP candidate extensions). Candidate/role/type definitions are
// adapted from the teacher's internal/ice/{candidate,candidatetype,role,
// networktype,protocol}.go; the Agent's checklist and connectivity-check
// state machine is written fresh since the teacher wraps the external
// (goroutine-driven) github.com/pion/ice.Agent, which has no sans-I/O seam.
package ice

import (
	"fmt"
	"hash/crc32"
	"net"
	"strconv"
	"strings"
)

// CandidateType is the ICE candidate type (spec §3).
type CandidateType int

const (
	CandidateTypeHost CandidateType = iota
	CandidateTypeServerReflexive
	CandidateTypePeerReflexive
	CandidateTypeRelay
)

func (t CandidateType) String() string {
	switch t {
	case CandidateTypeHost:
		return "host"
	case CandidateTypeServerReflexive:
		return "srflx"
	case CandidateTypePeerReflexive:
		return "prflx"
	case CandidateTypeRelay:
		return "relay"
	default:
		return "unknown"
	}
}

// preference is RFC 8445's type preference table, used by Priority.
func (t CandidateType) preference() uint32 {
	switch t {
	case CandidateTypeHost:
		return 126
	case CandidateTypePeerReflexive:
		return 110
	case CandidateTypeServerReflexive:
		return 100
	case CandidateTypeRelay:
		return 0
	default:
		return 0
	}
}

// NetworkType is the address family/transport combination a candidate was
// gathered on.
type NetworkType int

const (
	NetworkTypeUDP4 NetworkType = iota
	NetworkTypeUDP6
	NetworkTypeTCP4
	NetworkTypeTCP6
)

func (n NetworkType) IsTCP() bool { return n == NetworkTypeTCP4 || n == NetworkTypeTCP6 }

func (n NetworkType) String() string {
	switch n {
	case NetworkTypeUDP4:
		return "udp4"
	case NetworkTypeUDP6:
		return "udp6"
	case NetworkTypeTCP4:
		return "tcp4"
	case NetworkTypeTCP6:
		return "tcp6"
	default:
		return "unknown"
	}
}

// TCPType is the RFC 6544 TCP candidate subtype.
type TCPType int

const (
	TCPTypeNone TCPType = iota
	TCPTypeActive
	TCPTypePassive
	TCPTypeSimultaneousOpen
)

func (t TCPType) String() string {
	switch t {
	case TCPTypeActive:
		return "active"
	case TCPTypePassive:
		return "passive"
	case TCPTypeSimultaneousOpen:
		return "so"
	default:
		return ""
	}
}

// Component is the ICE component id; this module only ever gathers
// component 1 (RTP/data), matching rtcp-mux-only operation.
type Component uint16

const ComponentRTP Component = 1

// Candidate is an immutable ICE candidate (spec §3). Candidates are never
// mutated after NewCandidate/NewHostCandidate construction; Priority and
// Foundation are computed once at construction time.
type Candidate struct {
	foundation     string
	component      Component
	networkType    NetworkType
	priority       uint32
	address        string
	port           uint16
	typ            CandidateType
	tcpType        TCPType
	relatedAddress string
	relatedPort    uint16
}

// localPreference implements spec §3: "(2^13·direction_pref) + other_pref
// for TCP and 65535 for UDP". direction_pref favors simultaneous-open over
// active over passive per RFC 6544 §4.1; other_pref is a fixed mid-range
// value since this module gathers at most one candidate per local address.
func localPreference(networkType NetworkType, tcpType TCPType) uint32 {
	if !networkType.IsTCP() {
		return 65535
	}
	var directionPref uint32
	switch tcpType {
	case TCPTypeSimultaneousOpen:
		directionPref = 6
	case TCPTypeActive:
		directionPref = 4
	case TCPTypePassive:
		directionPref = 2
	default:
		directionPref = 0
	}
	const otherPref = 27 // odd, mid-range, stable across candidates of one type
	return directionPref<<13 + otherPref
}

// priorityFor computes spec §3's candidate priority formula:
// 2^24*type_pref + 2^8*local_pref + (256 - component).
func priorityFor(typ CandidateType, networkType NetworkType, tcpType TCPType, component Component) uint32 {
	typePref := typ.preference()
	localPref := localPreference(networkType, tcpType)
	return typePref<<24 + localPref<<8 + (256 - uint32(component))
}

// foundationFor computes spec §3's CRC-32-ISCSI foundation: a checksum
// over type || address || network_type, encoded as a hex string so it
// round-trips cleanly through SDP.
func foundationFor(typ CandidateType, address string, networkType NetworkType) string {
	data := typ.String() + address + networkType.String()
	sum := crc32.Checksum([]byte(data), crc32.MakeTable(crc32.Castagnoli))
	return fmt.Sprintf("%x", sum)
}

// NewCandidate constructs an immutable Candidate, computing Foundation and
// Priority per spec §3.
func NewCandidate(typ CandidateType, networkType NetworkType, address string, port uint16, component Component, tcpType TCPType, relatedAddress string, relatedPort uint16) *Candidate {
	return &Candidate{
		foundation:     foundationFor(typ, address, networkType),
		component:      component,
		networkType:    networkType,
		priority:       priorityFor(typ, networkType, tcpType, component),
		address:        address,
		port:           port,
		typ:            typ,
		tcpType:        tcpType,
		relatedAddress: relatedAddress,
		relatedPort:    relatedPort,
	}
}

// NewHostCandidate builds a host candidate for a caller-supplied local
// address (gathering enumerates no OS interfaces itself: spec §1 places
// "any interaction with OS sockets" out of scope for the core, so the
// caller supplies the address list — see Agent.AddHostAddr).
func NewHostCandidate(networkType NetworkType, address string, port uint16, tcpType TCPType) *Candidate {
	return NewCandidate(CandidateTypeHost, networkType, address, port, ComponentRTP, tcpType, "", 0)
}

// NewServerReflexiveCandidate builds a srflx candidate learned from a STUN
// Binding response's XOR-MAPPED-ADDRESS, related back to the base host
// candidate that sent the request.
func NewServerReflexiveCandidate(networkType NetworkType, address string, port uint16, base *Candidate) *Candidate {
	return NewCandidate(CandidateTypeServerReflexive, networkType, address, port, ComponentRTP, TCPTypeNone, base.address, base.port)
}

// NewPeerReflexiveCandidate builds a prflx candidate discovered from the
// source address of an incoming connectivity check (spec §4.3 "triggered
// checks").
func NewPeerReflexiveCandidate(networkType NetworkType, address string, port uint16, priority uint32) *Candidate {
	c := NewCandidate(CandidateTypePeerReflexive, networkType, address, port, ComponentRTP, TCPTypeNone, "", 0)
	c.priority = priority
	return c
}

func (c *Candidate) Foundation() string         { return c.foundation }
func (c *Candidate) Component() Component       { return c.component }
func (c *Candidate) NetworkType() NetworkType    { return c.networkType }
func (c *Candidate) Priority() uint32           { return c.priority }
func (c *Candidate) Address() string            { return c.address }
func (c *Candidate) Port() uint16               { return c.port }
func (c *Candidate) Type() CandidateType        { return c.typ }
func (c *Candidate) TCPType() TCPType           { return c.tcpType }
func (c *Candidate) RelatedAddress() string     { return c.relatedAddress }
func (c *Candidate) RelatedPort() uint16        { return c.relatedPort }

func (c *Candidate) addrPort() string {
	return net.JoinHostPort(c.address, fmt.Sprintf("%d", c.port))
}

// Marshal renders the candidate as an RFC 8839 candidate-attribute value
// (without the "candidate:" prefix or a=), spec §6.
func (c *Candidate) Marshal() string {
	proto := "udp"
	if c.networkType.IsTCP() {
		proto = "tcp"
	}
	s := fmt.Sprintf("%s %d %s %d %s %d typ %s", c.foundation, c.component, proto, c.priority, c.address, c.port, c.typ)
	if c.relatedAddress != "" {
		s += fmt.Sprintf(" raddr %s rport %d", c.relatedAddress, c.relatedPort)
	}
	if c.networkType.IsTCP() && c.tcpType != TCPTypeNone {
		s += fmt.Sprintf(" tcptype %s", c.tcpType)
	}
	return s
}

// ParseCandidate parses an RFC 8839 candidate-attribute value (spec §6):
// "foundation component udp|tcp priority address port typ <type>
// [raddr A rport P] [tcptype passive|active|so]", without the leading
// "candidate:" token. The parsed candidate keeps its wire-supplied
// foundation and priority rather than recomputing them, since a remote
// candidate's values are opaque to this side (RFC 8445 §5.1.3).
func ParseCandidate(s string) (*Candidate, error) {
	fields := strings.Fields(s)
	if len(fields) < 8 || fields[6] != "typ" {
		return nil, ErrMalformedCandidate
	}

	component, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: component: %v", ErrMalformedCandidate, err)
	}
	priority, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: priority: %v", ErrMalformedCandidate, err)
	}
	port, err := strconv.ParseUint(fields[5], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: port: %v", ErrMalformedCandidate, err)
	}

	isTCP := strings.EqualFold(fields[2], "tcp")
	typ, err := parseCandidateType(fields[7])
	if err != nil {
		return nil, err
	}

	c := &Candidate{
		foundation:  fields[0],
		component:   Component(component),
		priority:    uint32(priority),
		address:     fields[4],
		port:        uint16(port),
		typ:         typ,
		networkType: networkTypeFor(fields[4], isTCP),
	}

	for i := 8; i+1 < len(fields); i += 2 {
		switch fields[i] {
		case "raddr":
			c.relatedAddress = fields[i+1]
		case "rport":
			p, err := strconv.ParseUint(fields[i+1], 10, 16)
			if err != nil {
				return nil, fmt.Errorf("%w: rport: %v", ErrMalformedCandidate, err)
			}
			c.relatedPort = uint16(p)
		case "tcptype":
			c.tcpType = parseTCPType(fields[i+1])
		}
	}
	return c, nil
}

func parseCandidateType(s string) (CandidateType, error) {
	switch s {
	case "host":
		return CandidateTypeHost, nil
	case "srflx":
		return CandidateTypeServerReflexive, nil
	case "prflx":
		return CandidateTypePeerReflexive, nil
	case "relay":
		return CandidateTypeRelay, nil
	default:
		return 0, fmt.Errorf("%w: unknown type %q", ErrMalformedCandidate, s)
	}
}

func parseTCPType(s string) TCPType {
	switch s {
	case "active":
		return TCPTypeActive
	case "passive":
		return TCPTypePassive
	case "so":
		return TCPTypeSimultaneousOpen
	default:
		return TCPTypeNone
	}
}

func networkTypeFor(address string, isTCP bool) NetworkType {
	ip := net.ParseIP(address)
	isV6 := ip != nil && ip.To4() == nil
	switch {
	case isTCP && isV6:
		return NetworkTypeTCP6
	case isTCP:
		return NetworkTypeTCP4
	case isV6:
		return NetworkTypeUDP6
	default:
		return NetworkTypeUDP4
	}
}

func (c *Candidate) String() string {
	return fmt.Sprintf("%s:%s", c.typ, c.addrPort())
}

// Equal reports whether two candidates describe the same transport address
// and type (used for duplicate suppression during gathering).
func (c *Candidate) Equal(o *Candidate) bool {
	if o == nil {
		return false
	}
	return c.address == o.address && c.port == o.port && c.typ == o.typ && c.networkType == o.networkType
}
