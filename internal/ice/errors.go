package ice

import "errors"

// Error-kind taxonomy for the ICE agent, following the teacher's
// pkg/rtcerr distinct-struct-per-kind pattern but collapsed to sentinel
// values since the agent has no need to carry a wrapped cause per kind.
var (
	// ErrNoRemoteCredentials names the case where no remote ufrag/password
	// has been set. It is declared for callers to compare against; no
	// function in this package returns it.
	ErrNoRemoteCredentials = errors.New("ice: no remote credentials set")

	// ErrAllPairsFailed names the case where every checklist pair has
	// failed. The agent reports that case only through its Failed
	// connection state; no function in this package returns this value.
	ErrAllPairsFailed = errors.New("ice: all candidate pairs failed")

	// ErrUnknownPair names a STUN response that matches no pending check.
	// The agent drops such responses; no function in this package returns
	// this value.
	ErrUnknownPair = errors.New("ice: stun transaction matched no pending pair")

	// ErrMalformedCandidate is returned by ParseCandidate for a string
	// that does not follow the RFC 8839 candidate-attribute grammar.
	ErrMalformedCandidate = errors.New("ice: malformed candidate attribute")
)
