package sctp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReassemblyQueue_push(t *testing.T) {
	r := &reassemblyQueue{}

	r.push(&chunkPayloadData{beginingFragment: true, tsn: 1, streamSequenceNumber: 0, userData: []byte{0}})
	r.push(&chunkPayloadData{tsn: 2, streamSequenceNumber: 0, userData: []byte{1}})
	r.push(&chunkPayloadData{tsn: 3, streamSequenceNumber: 0, userData: []byte{2}})
	r.push(&chunkPayloadData{endingFragment: true, tsn: 4, streamSequenceNumber: 0, userData: []byte{3}})

	b, _, ok := r.pop()
	if ok {
		assert.Equal(t, []byte{0, 1, 2, 3}, b)
	} else {
		t.Error("Unable to assemble message")
	}

	r.push(&chunkPayloadData{beginingFragment: true, tsn: 1, streamSequenceNumber: 1, userData: []byte{0}})
	r.push(&chunkPayloadData{tsn: 2, streamSequenceNumber: 1, userData: []byte{1}})

	r.push(&chunkPayloadData{unordered: true, beginingFragment: true, tsn: 1, streamSequenceNumber: 1, userData: []byte{0}})
	r.push(&chunkPayloadData{unordered: true, endingFragment: true, tsn: 2, streamSequenceNumber: 1, userData: []byte{1}})

	r.push(&chunkPayloadData{tsn: 3, streamSequenceNumber: 1, userData: []byte{2}})
	r.push(&chunkPayloadData{endingFragment: true, tsn: 4, streamSequenceNumber: 1, userData: []byte{3}})

	b, _, ok = r.pop()
	if ok {
		assert.Equal(t, []byte{0, 1}, b)
	} else {
		t.Error("Unable to assemble unordered message")
	}

	b, _, ok = r.pop()
	if ok {
		assert.Equal(t, []byte{0, 1, 2, 3}, b)
	} else {
		t.Error("Unable to assemble message after unordered message")
	}

}

func TestReassemblyQueue_clear(t *testing.T) {
	r := &reassemblyQueue{}

	r.push(&chunkPayloadData{beginingFragment: true, tsn: 1, streamSequenceNumber: 0, userData: []byte{0}})
	r.push(&chunkPayloadData{tsn: 2, streamSequenceNumber: 0, userData: []byte{1}})
	r.push(&chunkPayloadData{tsn: 3, streamSequenceNumber: 0, userData: []byte{2}})
	r.push(&chunkPayloadData{endingFragment: true, tsn: 4, streamSequenceNumber: 0, userData: []byte{3}})

	m, ok := r.messageQueue.search(0)
	assert.True(t, ok)
	m.clear()
	assert.Equal(t, 0, m.length)
	assert.Empty(t, m.fragmentQueue)

	_, _, ok = r.pop()
	assert.False(t, ok)
}
