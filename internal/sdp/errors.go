package sdp

import "errors"

var (
	ErrNoFingerprint           = errors.New("sdp: no fingerprint attribute present")
	ErrConflictingFingerprints = errors.New("sdp: conflicting fingerprint attributes")
	ErrInvalidFingerprint      = errors.New("sdp: malformed fingerprint attribute")

	ErrMissingICEUfrag      = errors.New("sdp: missing ice-ufrag attribute")
	ErrMissingICEPwd        = errors.New("sdp: missing ice-pwd attribute")
	ErrConflictingICEUfrag  = errors.New("sdp: conflicting ice-ufrag attributes")
	ErrConflictingICEPwd    = errors.New("sdp: conflicting ice-pwd attributes")

	// ErrInvalidSignalingTransition is returned by NextSignalingState
	// for any (state, action) pair not in the RFC 8829 §4.1.7 table.
	ErrInvalidSignalingTransition = errors.New("sdp: invalid signaling state transition")
)
