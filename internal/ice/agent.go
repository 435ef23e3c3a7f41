package ice

import (
	"net"
	"sort"
	"time"

	"github.com/pion/logging"
	"github.com/pion/randutil"
	"github.com/pion/stun/v3"

	"github.com/webrtc-rs/rtc/internal/pipeline"
)

// Default timing constants (RFC 8445 §14, spec §4.3).
const (
	taInterval            = 50 * time.Millisecond // pacing between ordinary checks
	keepaliveInterval     = 15 * time.Second
	hostAcceptanceMinWait = 100 * time.Millisecond
	maxRetransmits        = 7 // RFC 8445 default Rc
	initialRTO            = 250 * time.Millisecond
)

// pendingCheck tracks one outstanding STUN transaction on a pair.
type pendingCheck struct {
	pair          *CandidatePair
	transactionID [stun.TransactionIDSize]byte
	sentAt        time.Time
	rto           time.Duration
	attempt       int
	useCandidate  bool
}

// Agent is the sans-I/O ICE Agent (spec C2, RFC 8445). It implements
// pipeline.Handler for the STUN lane only: DTLS/SRTP/TURN lanes are routed
// to other handlers by the caller based on pipeline.Demuxed.Route, per
// demux.go's routing contract.
type Agent struct {
	pipeline.NoOp

	log logging.LeveledLogger

	role       Role
	tieBreaker uint64
	lite       bool

	localUfrag, localPwd   string
	remoteUfrag, remotePwd string

	localCandidates  []*Candidate
	remoteCandidates []*Candidate

	checklist   []*CandidatePair
	succeededAt map[*CandidatePair]time.Time

	pending map[string]*pendingCheck // keyed by transaction ID string

	selectedPair   *CandidatePair
	nominatingPair *CandidatePair

	connState     ConnectionState
	gatherState   GatheringState
	lastKeepalive time.Time
	lastCheckTick time.Time

	events    []pipeline.Event
	writeOut  []pipeline.Datagram
}

// NewAgent builds an Agent for the given role. loggerFactory may be nil.
func NewAgent(role Role, lite bool, loggerFactory logging.LoggerFactory) *Agent {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	tieBreaker := randutil.NewMathRandomGenerator().Uint64()
	return &Agent{
		log:         loggerFactory.NewLogger("ice"),
		role:        role,
		tieBreaker:  tieBreaker,
		lite:        lite,
		localUfrag:  randSeq(4),
		localPwd:    randSeq(22),
		pending:     map[string]*pendingCheck{},
		succeededAt: map[*CandidatePair]time.Time{},
		connState:   ConnectionStateNew,
		gatherState: GatheringStateNew,
	}
}

func randSeq(n int) string {
	s, err := randutil.GenerateCryptoRandomString(n, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	if err != nil {
		return "fallback0000000000000"[:n]
	}
	return s
}

func (a *Agent) LocalUfrag() string { return a.localUfrag }
func (a *Agent) LocalPwd() string   { return a.localPwd }
func (a *Agent) Role() Role         { return a.role }

// SetRole switches role, e.g. on an ICE role conflict resolving against
// this Agent's tie-breaker (RFC 8445 §7.3.1.1).
func (a *Agent) SetRole(r Role) { a.role = r }

// SetRemoteCredentials applies the remote ufrag/password learned from SDP.
func (a *Agent) SetRemoteCredentials(ufrag, pwd string) {
	a.remoteUfrag, a.remotePwd = ufrag, pwd
}

// AddHostAddr registers a locally gathered host candidate (spec §1: socket
// enumeration is the caller's responsibility, not the core's).
func (a *Agent) AddHostAddr(networkType NetworkType, address string, port uint16, tcpType TCPType) *Candidate {
	c := NewHostCandidate(networkType, address, port, tcpType)
	a.localCandidates = append(a.localCandidates, c)
	a.gatherState = GatheringStateGathering
	a.emitEvent(LocalCandidateGatheredEvent{Candidate: c})
	a.pairWithRemotes(c)
	return c
}

// AddServerReflexiveCandidate registers a srflx candidate learned from a
// STUN server's Binding response.
func (a *Agent) AddServerReflexiveCandidate(base *Candidate, networkType NetworkType, address string, port uint16) *Candidate {
	c := NewServerReflexiveCandidate(networkType, address, port, base)
	a.localCandidates = append(a.localCandidates, c)
	a.emitEvent(LocalCandidateGatheredEvent{Candidate: c})
	a.pairWithRemotes(c)
	return c
}

// EndOfLocalCandidates marks gathering complete (no trickle continuation).
func (a *Agent) EndOfLocalCandidates() {
	a.gatherState = GatheringStateComplete
	a.emitEvent(GatheringStateChangedEvent{State: a.gatherState})
}

// AddRemoteCandidate registers a remote candidate learned from SDP or
// trickled separately, pairing it against every known local candidate.
func (a *Agent) AddRemoteCandidate(c *Candidate) {
	for _, existing := range a.remoteCandidates {
		if existing.Equal(c) {
			return
		}
	}
	a.remoteCandidates = append(a.remoteCandidates, c)
	for _, local := range a.localCandidates {
		a.addPair(local, c)
	}
}

func (a *Agent) pairWithRemotes(local *Candidate) {
	for _, remote := range a.remoteCandidates {
		a.addPair(local, remote)
	}
}

// addPair inserts a new checklist entry preserving descending priority
// order (spec §4.3 "On each pair add ... inserts preserving descending
// priority").
func (a *Agent) addPair(local, remote *Candidate) *CandidatePair {
	if local.NetworkType().IsTCP() != remote.NetworkType().IsTCP() {
		return nil
	}
	for _, p := range a.checklist {
		if p.Local.Equal(local) && p.Remote.Equal(remote) {
			return p
		}
	}
	pair := NewCandidatePair(local, remote, a.role)
	pair.State = PairStateWaiting
	a.checklist = append(a.checklist, pair)
	sort.SliceStable(a.checklist, func(i, j int) bool {
		return a.checklist[i].Priority() > a.checklist[j].Priority()
	})
	return pair
}

// nominable implements spec §4.3's nominability predicate: non-host
// candidates are eligible as soon as their pair succeeds; host candidates
// must additionally have held Succeeded for hostAcceptanceMinWait, giving
// reflexive/relay candidates learned late a chance to compete.
func (a *Agent) nominable(p *CandidatePair, now time.Time, succeededAt map[*CandidatePair]time.Time) bool {
	if p.Local.Type() != CandidateTypeHost && p.Remote.Type() != CandidateTypeHost {
		return true
	}
	t, ok := succeededAt[p]
	return ok && now.Sub(t) >= hostAcceptanceMinWait
}

// --- pipeline.Handler ---

// HandleRead processes one inbound STUN datagram (Binding request or
// response). msg is expected to be a pipeline.Datagram carrying raw STUN
// bytes already routed by the Demuxer as RouteSTUN.
func (a *Agent) HandleRead(msg pipeline.Message) {
	dg, ok := msg.(pipeline.Datagram)
	if !ok {
		return
	}
	m := &stun.Message{Raw: append([]byte{}, dg.Data...)}
	if err := m.Decode(); err != nil {
		a.log.Warnf("ice: dropping malformed stun packet: %v", err)
		return
	}
	switch {
	case isBindingRequest(m):
		a.handleBindingRequest(m, dg)
	case isBindingSuccess(m):
		a.handleBindingSuccess(m, dg)
	default:
		a.log.Debugf("ice: ignoring stun message class %v", m.Type.Class)
	}
}

func (a *Agent) handleBindingRequest(m *stun.Message, dg pipeline.Datagram) {
	if err := stun.NewShortTermIntegrity(a.localPwd).Check(m); err != nil {
		a.log.Warnf("ice: binding request failed integrity check: %v", err)
		return
	}
	if _, controlling, ok := getTieBreaker(m); ok {
		if controlling && a.role == RoleControlling && a.tieBreaker <= tieBreakerOf(m) {
			a.role = RoleControlled
		} else if !controlling && a.role == RoleControlled && a.tieBreaker > tieBreakerOf(m) {
			a.role = RoleControlling
		}
	}

	pair := a.findPair(dg.Context.PeerAddr)
	if pair == nil {
		// Triggered check from an address not yet on the checklist: treat
		// as a peer-reflexive candidate (spec §4.3 "Triggered checks").
		priority, _ := getPriority(m)
		host, portStr, err := net.SplitHostPort(dg.Context.PeerAddr)
		if err != nil {
			return
		}
		port := parsePort(portStr)
		prflx := NewPeerReflexiveCandidate(networkTypeOf(dg.Context), host, port, priority)
		a.remoteCandidates = append(a.remoteCandidates, prflx)
		local := a.localCandidates[0]
		if len(a.localCandidates) > 0 {
			pair = a.addPair(local, prflx)
		}
	}

	useCandidate := hasUseCandidate(m)
	if pair != nil {
		if pair.State == PairStateSucceeded && useCandidate {
			a.selectPair(pair)
		} else if pair.State != PairStateInProgress {
			pair.State = PairStateWaiting
		}
	}

	host, portStr, err := net.SplitHostPort(dg.Context.PeerAddr)
	if err != nil {
		return
	}
	resp, err := buildBindingSuccess(m.TransactionID, &net.UDPAddr{IP: net.ParseIP(host), Port: parsePortInt(portStr)}, a.localPwd)
	if err != nil {
		a.log.Warnf("ice: failed to build binding success: %v", err)
		return
	}
	a.send(resp.Raw, dg.Context)
}

func (a *Agent) handleBindingSuccess(m *stun.Message, dg pipeline.Datagram) {
	key := string(m.TransactionID[:])
	check, ok := a.pending[key]
	if !ok {
		return
	}
	delete(a.pending, key)
	// Symmetry check (spec §4.3, RFC 8445 §7.2.5.2.1): the response must
	// have arrived from the address the request was sent to.
	if dg.Context.PeerAddr != check.pair.Remote.addrPort() {
		a.log.Warnf("ice: discarding asymmetric stun response from %s", dg.Context.PeerAddr)
		return
	}
	if err := stun.NewShortTermIntegrity(a.remotePwd).Check(m); err != nil {
		a.log.Warnf("ice: binding response failed integrity check: %v", err)
		return
	}
	check.pair.State = PairStateSucceeded
	a.succeededAt[check.pair] = dg.Now

	if check.useCandidate || a.role == RoleControlled {
		a.selectPair(check.pair)
	}
}

func (a *Agent) selectPair(p *CandidatePair) {
	p.Nominated = true
	if a.selectedPair == p {
		return
	}
	a.selectedPair = p
	a.nominatingPair = nil
	a.emitEvent(SelectedPairChangedEvent{Pair: p})
	a.updateConnState(ConnectionStateConnected)
}

func (a *Agent) findPair(remoteAddr string) *CandidatePair {
	for _, p := range a.checklist {
		if p.Remote.addrPort() == remoteAddr {
			return p
		}
	}
	return nil
}

// HandleTimeout drives contactCandidates() and retransmission bookkeeping.
func (a *Agent) HandleTimeout(now time.Time) {
	a.retransmit(now)
	a.contactCandidates(now)
	a.lastCheckTick = now
}

// contactCandidates implements spec §4.3's per-role decision tree.
func (a *Agent) contactCandidates(now time.Time) {
	if len(a.checklist) == 0 {
		return
	}
	if a.remoteUfrag == "" {
		return
	}

	if a.role == RoleControlling {
		a.contactControlling(now)
	} else {
		a.contactControlled(now)
	}
}

func (a *Agent) contactControlling(now time.Time) {
	if a.selectedPair != nil {
		a.keepalive(now)
		return
	}
	if a.nominatingPair != nil {
		a.sendCheck(a.nominatingPair, now, true)
		return
	}
	for _, p := range a.checklist {
		if p.State == PairStateSucceeded && a.nominable(p, now, a.succeededAt) {
			a.nominatingPair = p
			a.sendCheck(p, now, true)
			return
		}
	}
	a.pingWaiting(now)
}

func (a *Agent) contactControlled(now time.Time) {
	if a.lite {
		return
	}
	if a.selectedPair != nil {
		a.keepalive(now)
		return
	}
	a.pingWaiting(now)
}

func (a *Agent) pingWaiting(now time.Time) {
	if now.Sub(a.lastCheckTick) < taInterval {
		return
	}
	for _, p := range a.checklist {
		if p.State == PairStateWaiting {
			a.sendCheck(p, now, false)
			return
		}
	}
}

func (a *Agent) keepalive(now time.Time) {
	if now.Sub(a.lastKeepalive) < keepaliveInterval {
		return
	}
	a.lastKeepalive = now
	ind, err := stun.Build(stun.NewType(stun.MethodBinding, stun.ClassIndication), stun.TransactionID, stun.Fingerprint)
	if err != nil {
		return
	}
	a.send(ind.Raw, ctxFor(a.selectedPair.Remote))
}

func (a *Agent) sendCheck(p *CandidatePair, now time.Time, useCandidate bool) {
	req, err := buildBindingRequest(a.localUfrag, a.remoteUfrag, a.remotePwd, p.Local.Priority(), a.role, a.tieBreaker, useCandidate)
	if err != nil {
		a.log.Warnf("ice: failed to build binding request: %v", err)
		return
	}
	p.State = PairStateInProgress
	a.pending[string(req.TransactionID[:])] = &pendingCheck{
		pair:          p,
		transactionID: req.TransactionID,
		sentAt:        now,
		rto:           initialRTO,
		useCandidate:  useCandidate,
	}
	a.send(req.Raw, ctxFor(p.Remote))
}

func (a *Agent) retransmit(now time.Time) {
	for id, check := range a.pending {
		if now.Sub(check.sentAt) < check.rto {
			continue
		}
		check.attempt++
		if check.attempt > maxRetransmits {
			check.pair.State = PairStateFailed
			delete(a.pending, id)
			a.maybeFail()
			continue
		}
		check.sentAt = now
		check.rto *= 2
		req, err := buildBindingRequest(a.localUfrag, a.remoteUfrag, a.remotePwd, check.pair.Local.Priority(), a.role, a.tieBreaker, check.useCandidate)
		if err != nil {
			continue
		}
		delete(a.pending, id)
		check.transactionID = req.TransactionID
		a.pending[string(req.TransactionID[:])] = check
		a.send(req.Raw, ctxFor(check.pair.Remote))
	}
}

// maybeFail implements spec §4.3's failure model: the agent fails once
// every pair has failed and there is no selected pair.
func (a *Agent) maybeFail() {
	if a.selectedPair != nil {
		return
	}
	for _, p := range a.checklist {
		if p.State != PairStateFailed {
			return
		}
	}
	a.updateConnState(ConnectionStateFailed)
}

func (a *Agent) updateConnState(s ConnectionState) {
	if a.connState == s {
		return
	}
	a.connState = s
	a.emitEvent(ConnectionStateChangedEvent{State: s})
}

func (a *Agent) send(b []byte, ctx pipeline.TransportContext) {
	a.writeOut = append(a.writeOut, pipeline.Datagram{Context: ctx, Data: b})
}

func (a *Agent) emitEvent(e pipeline.Event) { a.events = append(a.events, e) }

// PollWrite returns the next STUN datagram the caller must send on the
// wire (connectivity checks travel as plain UDP, never tunneled through
// DTLS).
func (a *Agent) PollWrite() (pipeline.Message, bool) {
	if len(a.writeOut) == 0 {
		return nil, false
	}
	d := a.writeOut[0]
	a.writeOut = a.writeOut[1:]
	return d, true
}

func (a *Agent) PollEvent() (pipeline.Event, bool) {
	if len(a.events) == 0 {
		return nil, false
	}
	e := a.events[0]
	a.events = a.events[1:]
	return e, true
}

// PollTimeout reports the soonest time HandleTimeout should next run:
// either the next retransmission deadline or one Ta interval out so
// contactCandidates keeps making progress.
func (a *Agent) PollTimeout() (time.Time, bool) {
	if len(a.checklist) == 0 {
		return time.Time{}, false
	}
	next := a.lastCheckTick.Add(taInterval)
	for _, c := range a.pending {
		deadline := c.sentAt.Add(c.rto)
		if deadline.Before(next) {
			next = deadline
		}
	}
	return next, true
}

func (a *Agent) SelectedPair() *CandidatePair { return a.selectedPair }
func (a *Agent) ConnectionState() ConnectionState { return a.connState }
func (a *Agent) GatheringState() GatheringState   { return a.gatherState }

func ctxFor(c *Candidate) pipeline.TransportContext {
	proto := pipeline.TransportUDP
	if c.NetworkType().IsTCP() {
		proto = pipeline.TransportTCP
	}
	return pipeline.TransportContext{PeerAddr: c.addrPort(), Protocol: proto}
}

func networkTypeOf(ctx pipeline.TransportContext) NetworkType {
	if ctx.Protocol == pipeline.TransportTCP {
		return NetworkTypeTCP4
	}
	return NetworkTypeUDP4
}

func tieBreakerOf(m *stun.Message) uint64 {
	tb, _, _ := getTieBreaker(m)
	return tb
}

func parsePort(s string) uint16 {
	return uint16(parsePortInt(s))
}

func parsePortInt(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
