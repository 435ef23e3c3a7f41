package ice

// PairState is the RFC 8445 §6.1.2.6 candidate pair state.
type PairState int

const (
	PairStateFrozen PairState = iota
	PairStateWaiting
	PairStateInProgress
	PairStateSucceeded
	PairStateFailed
)

func (s PairState) String() string {
	switch s {
	case PairStateFrozen:
		return "frozen"
	case PairStateWaiting:
		return "waiting"
	case PairStateInProgress:
		return "in-progress"
	case PairStateSucceeded:
		return "succeeded"
	case PairStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CandidatePair couples a local and remote candidate under checklist
// management (spec §4.3). Priority and Foundation are computed once, at
// construction, from the two candidates' own Priority/Foundation values.
type CandidatePair struct {
	Local, Remote *Candidate

	priority  uint64
	foundation string

	State    PairState
	Nominated bool

	// binding is true once this pair has received a USE-CANDIDATE-carrying
	// request as the controlled side, or sent one as the controlling side.
	binding bool
}

// pairPriority implements RFC 8445 §6.1.2.3: the controlling agent's
// priority is used as G, the controlled agent's as D.
func pairPriority(controllingPriority, controlledPriority uint32) uint64 {
	g := uint64(controllingPriority)
	d := uint64(controlledPriority)
	min, max := g, d
	if g > d {
		min, max = d, g
	}
	extra := uint64(0)
	if g > d {
		extra = 1
	}
	return (1<<32)*min + 2*max + extra
}

// NewCandidatePair builds a CandidatePair, computing its priority per spec
// §4.3 from the supplied local role.
func NewCandidatePair(local, remote *Candidate, localRole Role) *CandidatePair {
	var controlling, controlled uint32
	if localRole == RoleControlling {
		controlling, controlled = local.Priority(), remote.Priority()
	} else {
		controlling, controlled = remote.Priority(), local.Priority()
	}
	return &CandidatePair{
		Local:      local,
		Remote:     remote,
		priority:   pairPriority(controlling, controlled),
		foundation: local.Foundation() + remote.Foundation(),
		State:      PairStateFrozen,
	}
}

func (p *CandidatePair) Priority() uint64    { return p.priority }
func (p *CandidatePair) Foundation() string  { return p.foundation }

func (p *CandidatePair) String() string {
	return p.Local.String() + " <-> " + p.Remote.String()
}
