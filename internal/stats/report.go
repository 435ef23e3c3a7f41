package stats

// Report is a snapshot of every stats entry at one instant, keyed by the
// entry's stable id, matching the teacher's stats_go.go StatsReport getter
// convention (GetConnectionStats, GetDataChannelStats, ...).
type Report map[string]interface{}

func (r Report) PeerConnection(id string) (PeerConnectionStats, bool) {
	v, ok := r[id].(PeerConnectionStats)
	return v, ok
}

func (r Report) Transport(id string) (TransportStats, bool) {
	v, ok := r[id].(TransportStats)
	return v, ok
}

func (r Report) ICECandidate(id string) (ICECandidateStats, bool) {
	v, ok := r[id].(ICECandidateStats)
	return v, ok
}

func (r Report) ICECandidatePair(id string) (ICECandidatePairStats, bool) {
	v, ok := r[id].(ICECandidatePairStats)
	return v, ok
}

func (r Report) Certificate(id string) (CertificateStats, bool) {
	v, ok := r[id].(CertificateStats)
	return v, ok
}

func (r Report) Codec(id string) (CodecStats, bool) {
	v, ok := r[id].(CodecStats)
	return v, ok
}

func (r Report) DataChannel(id string) (DataChannelStats, bool) {
	v, ok := r[id].(DataChannelStats)
	return v, ok
}

func (r Report) InboundRTP(id string) (InboundRTPStreamStats, bool) {
	v, ok := r[id].(InboundRTPStreamStats)
	return v, ok
}

func (r Report) OutboundRTP(id string) (OutboundRTPStreamStats, bool) {
	v, ok := r[id].(OutboundRTPStreamStats)
	return v, ok
}

func (r Report) MediaSource(id string) (MediaSourceStats, bool) {
	v, ok := r[id].(MediaSourceStats)
	return v, ok
}

func (r Report) AudioPlayout(id string) (AudioPlayoutStats, bool) {
	v, ok := r[id].(AudioPlayoutStats)
	return v, ok
}
