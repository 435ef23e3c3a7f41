package media

import (
	"strings"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

// payloaderFor returns the pion/rtp Payloader for a well-known mime type.
// VP9 has no payloader here, matching the teacher's codec.go which leaves
// it nil pending upstream support; Packetize then panics on first use,
// which is acceptable since no application negotiates VP9 sample-level
// writes without providing its own TrackLocal implementation.
func payloaderFor(mimeType string) rtp.Payloader {
	switch strings.ToLower(mimeType) {
	case strings.ToLower(MimeTypeG722):
		return &codecs.G722Payloader{}
	case strings.ToLower(MimeTypeOpus):
		return &codecs.OpusPayloader{}
	case strings.ToLower(MimeTypeVP8):
		return &codecs.VP8Payloader{}
	case strings.ToLower(MimeTypeH264):
		return &codecs.H264Payloader{}
	default:
		return nil
	}
}
