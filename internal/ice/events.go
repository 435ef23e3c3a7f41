package ice

// Events the Agent raises upward through PollEvent (spec §6 "Events
// surfaced to the application", restricted to the ICE-relevant subset;
// OnIceCandidateEvent/OnIceConnectionStateChangeEvent are renamed here
// without the On-prefix since they travel internally before the root
// package re-exposes them under their public spec names).
type ConnectionStateChangedEvent struct {
	State ConnectionState
}

type GatheringStateChangedEvent struct {
	State GatheringState
}

// LocalCandidateGatheredEvent is raised once per candidate added via
// AddHostAddr/AddServerReflexiveCandidate, mirroring the public
// OnIceCandidateEvent.
type LocalCandidateGatheredEvent struct {
	Candidate *Candidate
}

// SelectedPairChangedEvent is raised whenever the agent commits to a new
// selected pair: while handling a successful Binding response for a
// nominating check, or an inbound Binding request carrying USE-CANDIDATE.
type SelectedPairChangedEvent struct {
	Pair *CandidatePair
}
