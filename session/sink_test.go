package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkPreservesOrder(t *testing.T) {
	sk := newSink[int](4)
	for i := 0; i < 50; i++ {
		sk.push(i)
	}
	sk.closeSink()

	var got []int
	for v := range sk.out {
		got = append(got, v)
	}
	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestSinkPushNeverBlocksEvenWithNoConsumer(t *testing.T) {
	sk := newSink[int](1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			sk.push(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("push blocked with no consumer draining out")
	}
}

func TestSinkPushAfterCloseIsDropped(t *testing.T) {
	sk := newSink[int](4)
	sk.push(1)
	sk.closeSink()
	sk.push(2) // must not panic or reopen the channel

	var got []int
	for v := range sk.out {
		got = append(got, v)
	}
	assert.Equal(t, []int{1}, got)
}
