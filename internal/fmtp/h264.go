// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package fmtp

import (
	"encoding/hex"
	"fmt"
)

type h264FMTP struct {
	parameters map[string]string
}

func (h *h264FMTP) MimeType() string {
	return "video/h264"
}

// Match compares two H264 fmtp lines per the packetization-mode and
// profile-level-id negotiation rules (RFC 6184 §8.1): packetization-mode
// must match exactly (default 0 if absent), and profile-level-id must be
// present on both sides and agree on profile_idc/profile_iop, ignoring the
// level byte.
func (h *h264FMTP) Match(b FMTP) bool {
	c, ok := b.(*h264FMTP)
	if !ok {
		return false
	}

	hMode, ok := h.parameters["packetization-mode"]
	if !ok {
		hMode = "0"
	}
	cMode, ok := c.parameters["packetization-mode"]
	if !ok {
		cMode = "0"
	}
	if hMode != cMode {
		return false
	}

	hProfile, ok := h.parameters["profile-level-id"]
	if !ok {
		return false
	}
	cProfile, ok := c.parameters["profile-level-id"]
	if !ok {
		return false
	}

	hID, err := parseH264ProfileLevelID(hProfile)
	if err != nil {
		return false
	}
	cID, err := parseH264ProfileLevelID(cProfile)
	if err != nil {
		return false
	}
	return hID == cID
}

func (h *h264FMTP) Parameter(key string) (string, bool) {
	v, ok := h.parameters[key]
	return v, ok
}

// parseH264ProfileLevelID returns the profile_idc/profile_iop octets (the
// first two bytes of the six hex digit profile-level-id), discarding the
// level_idc byte which does not affect negotiability.
func parseH264ProfileLevelID(s string) (string, error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 3 {
		return "", fmt.Errorf("fmtp: malformed profile-level-id %q", s)
	}
	return hex.EncodeToString(raw[:2]), nil
}
