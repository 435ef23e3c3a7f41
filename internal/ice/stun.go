package ice

import (
	"encoding/binary"
	"net"

	"github.com/pion/stun/v3"
)

// RFC 8445 §7.1.1's ICE-specific STUN attributes. pion/stun/v3 ships the
// generic attribute codec but not these ICE-specific ones (those live in
// github.com/pion/ice, which this package replaces), so they are encoded
// directly as raw attributes here.
const (
	attrPriority      stun.AttrType = 0x0024
	attrUseCandidate  stun.AttrType = 0x0025
	attrIceControlled stun.AttrType = 0x8029
	attrIceControlling stun.AttrType = 0x802a
)

// priorityAttr sets the PRIORITY attribute (spec §4.3).
type priorityAttr uint32

func (p priorityAttr) AddTo(m *stun.Message) error {
	v := make([]byte, 4)
	binary.BigEndian.PutUint32(v, uint32(p))
	m.Add(attrPriority, v)
	return nil
}

// useCandidateAttr sets the zero-length USE-CANDIDATE attribute.
type useCandidateAttr struct{}

func (useCandidateAttr) AddTo(m *stun.Message) error {
	m.Add(attrUseCandidate, nil)
	return nil
}

// tieBreakerAttr sets ICE-CONTROLLING or ICE-CONTROLLED depending on role.
type tieBreakerAttr struct {
	role       Role
	tieBreaker uint64
}

func (t tieBreakerAttr) AddTo(m *stun.Message) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, t.tieBreaker)
	if t.role == RoleControlling {
		m.Add(attrIceControlling, v)
	} else {
		m.Add(attrIceControlled, v)
	}
	return nil
}

func getPriority(m *stun.Message) (uint32, bool) {
	a, err := m.Get(attrPriority)
	if err != nil || len(a) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(a), true
}

func hasUseCandidate(m *stun.Message) bool {
	_, err := m.Get(attrUseCandidate)
	return err == nil
}

func getTieBreaker(m *stun.Message) (tieBreaker uint64, controlling bool, ok bool) {
	if a, err := m.Get(attrIceControlling); err == nil && len(a) == 8 {
		return binary.BigEndian.Uint64(a), true, true
	}
	if a, err := m.Get(attrIceControlled); err == nil && len(a) == 8 {
		return binary.BigEndian.Uint64(a), false, true
	}
	return 0, false, false
}

// buildBindingRequest constructs a connectivity-check STUN Binding Request
// per spec §4.3: USERNAME = remote_ufrag:local_ufrag, the tie-breaker
// attribute for localRole, PRIORITY, optionally USE-CANDIDATE, short-term
// integrity keyed by the peer's password, and a terminating FINGERPRINT.
func buildBindingRequest(localUfrag, remoteUfrag, remotePwd string, priority uint32, localRole Role, tieBreaker uint64, useCandidate bool) (*stun.Message, error) {
	setters := []stun.Setter{
		stun.TransactionID,
		stun.NewType(stun.MethodBinding, stun.ClassRequest),
		stun.NewUsername(remoteUfrag + ":" + localUfrag),
		priorityAttr(priority),
		tieBreakerAttr{role: localRole, tieBreaker: tieBreaker},
	}
	if useCandidate {
		setters = append(setters, useCandidateAttr{})
	}
	setters = append(setters, stun.NewShortTermIntegrity(remotePwd), stun.Fingerprint)
	return stun.Build(setters...)
}

// buildBindingSuccess constructs the success response to a Binding Request,
// echoing mappedAddr (the request's source address) in XOR-MAPPED-ADDRESS,
// authenticated with localPwd (our own password, since the peer signs
// requests to us with it).
func buildBindingSuccess(transactionID [stun.TransactionIDSize]byte, mappedAddr *net.UDPAddr, localPwd string) (*stun.Message, error) {
	return stun.Build(
		stun.NewType(stun.MethodBinding, stun.ClassSuccessResponse),
		stun.NewTransactionIDSetter(transactionID),
		&stun.XORMappedAddress{IP: mappedAddr.IP, Port: mappedAddr.Port},
		stun.NewShortTermIntegrity(localPwd),
		stun.Fingerprint,
	)
}

func isBindingRequest(m *stun.Message) bool {
	return m.Type.Method == stun.MethodBinding && m.Type.Class == stun.ClassRequest
}

func isBindingSuccess(m *stun.Message) bool {
	return m.Type.Method == stun.MethodBinding && m.Type.Class == stun.ClassSuccessResponse
}
