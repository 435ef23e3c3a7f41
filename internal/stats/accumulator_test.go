package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccumulatorSnapshotPeerConnectionAndTransport(t *testing.T) {
	a := New()
	a.OnPacketSent(100)
	a.OnPacketSent(50)
	a.OnPacketReceived(200)
	a.OnICEStateChanged("connected")
	a.OnDTLSStateChanged("connected")
	a.OnDTLSHandshakeComplete("DTLS 1.2", "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256", "AEAD_AES_128_GCM", "client")

	now := time.Unix(1700000000, 0)
	report := a.Snapshot(now)

	pc, ok := report.PeerConnection("RTCPeerConnection")
	assert.True(t, ok)
	assert.Equal(t, now, pc.Timestamp)

	tr, ok := report.Transport("RTCTransport_0")
	assert.True(t, ok)
	assert.Equal(t, uint64(2), tr.PacketsSent)
	assert.Equal(t, uint64(150), tr.BytesSent)
	assert.Equal(t, uint64(1), tr.PacketsReceived)
	assert.Equal(t, "connected", tr.ICEState)
	assert.Equal(t, "connected", tr.DTLSState)
	assert.Equal(t, "client", tr.DTLSRole)
}

func TestAccumulatorInboundOutboundStreams(t *testing.T) {
	a := New()
	now := time.Unix(1700000000, 0)

	a.RegisterInboundCodec(1111, "video", 96, "video/VP8", 90000, 0, "")
	a.OnRTPReceived(1111, "video", 1000, 12, now)
	a.OnRTPReceived(1111, "video", 1000, 12, now)
	a.OnNACKSent(1111)
	a.OnRTCPReceiverReportGenerated(1111, 3, 0.02)

	a.RegisterOutboundCodec(2222, "audio", 111, "audio/opus", 48000, 2, "")
	a.OnRTPSent(2222, "audio", 160, 12)
	a.OnRemoteReceiverReport(2222, 0.01, 1, 0.005, 20*time.Millisecond)

	report := a.Snapshot(now)

	in, ok := report.InboundRTP("RTCInboundRTPStream_video_1111")
	assert.True(t, ok)
	assert.Equal(t, uint64(2), in.PacketsReceived)
	assert.Equal(t, uint64(2000), in.BytesReceived)
	assert.Equal(t, uint32(1), in.NACKCount)
	assert.Equal(t, int64(3), in.PacketsLost)
	assert.NotEmpty(t, in.CodecID)

	out, ok := report.OutboundRTP("RTCOutboundRTPStream_audio_2222")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), out.PacketsSent)
	assert.Equal(t, uint64(160), out.BytesSent)
	assert.NotEmpty(t, out.CodecID)

	remoteIn, ok := report["RTCRemoteInboundRTPStream_audio_2222"].(RemoteInboundRTPStreamStats)
	assert.True(t, ok)
	assert.Equal(t, int64(1), remoteIn.PacketsLost)
	assert.Equal(t, 20*time.Millisecond, remoteIn.RoundTripTime)

	a.CleanupUnreferencedCodecs()
	assert.Len(t, report, len(report)) // report is immutable; cleanup affects future snapshots only
}

func TestAccumulatorDataChannelLifecycle(t *testing.T) {
	a := New()
	dc := a.GetOrCreateDataChannel(1, "chat", "")
	assert.Equal(t, "chat", dc.Label)

	a.OnDataChannelOpened(1)
	a.OnDataChannelMessageSent(1, 10)
	a.OnDataChannelMessageReceived(1, 20)
	a.OnDataChannelClosed(1)

	report := a.Snapshot(time.Unix(1700000000, 0))
	snap, ok := report.DataChannel("RTCDataChannel_1")
	assert.True(t, ok)
	assert.Equal(t, "closed", snap.State)
	assert.Equal(t, uint64(1), snap.MessagesSent)
	assert.Equal(t, uint64(1), snap.MessagesReceived)
	assert.Equal(t, uint32(1), a.dataChannelsOpened)
	assert.Equal(t, uint32(1), a.dataChannelsClosed)
}

func TestAccumulatorCandidatePair(t *testing.T) {
	a := New()
	localID := a.RegisterLocalCandidate("10.0.0.1", 5000, "udp", "host", 100)
	remoteID := a.RegisterRemoteCandidate("10.0.0.2", 5000, "udp", "host", 100)
	a.UpdateCandidatePair("pair1", localID, remoteID, "succeeded", true)
	a.OnSTUNRequestSent("pair1")
	a.OnSTUNResponseReceived("pair1", 15*time.Millisecond)
	a.OnSelectedCandidatePairChanged("pair1")

	report := a.Snapshot(time.Unix(1700000000, 0))
	pair, ok := report.ICECandidatePair("pair1")
	assert.True(t, ok)
	assert.True(t, pair.Nominated)
	assert.Equal(t, uint64(1), pair.RequestsSent)
	assert.Equal(t, uint64(1), pair.ResponsesReceived)
	assert.Equal(t, 15*time.Millisecond, pair.CurrentRoundTripTime)

	tr, ok := report.Transport("RTCTransport_0")
	assert.True(t, ok)
	assert.Equal(t, "pair1", tr.SelectedCandidatePairID)
	assert.Equal(t, uint32(1), tr.SelectedCandidatePairChanges)

	_, ok = report.ICECandidate(localID)
	assert.True(t, ok)
}
