package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastWithNoSubject(t *testing.T) {
	h := New[string, int](4)
	require.False(t, h.Broadcast("tok1", 1))
}

func TestHub_SubscribeCreatesSubjectLazily(t *testing.T) {
	h := New[string, int](4)
	require.Equal(t, 0, h.SubjectCount())

	sub := h.Subscribe("tok1")
	require.Equal(t, 1, h.SubjectCount())
	require.Equal(t, 1, h.SubscriberCount("tok1"))

	require.True(t, h.Broadcast("tok1", 42))
	require.Equal(t, 42, <-sub.C())

	sub.Close()
}

func TestHub_RefcountTracksMultipleSubscribers(t *testing.T) {
	h := New[string, int](4)
	a := h.Subscribe("tok1")
	b := h.Subscribe("tok1")
	require.Equal(t, 2, h.SubscriberCount("tok1"))

	a.Close()
	require.Eventually(t, func() bool {
		return h.SubscriberCount("tok1") == 1
	}, time.Second, time.Millisecond)

	b.Close()
	require.Eventually(t, func() bool {
		return h.SubjectCount() == 0
	}, time.Second, time.Millisecond)
}

func TestHub_SubjectRemovedWhenLastSubscriberReleases(t *testing.T) {
	h := New[string, int](4)
	sub := h.Subscribe("tok1")
	sub.Close()

	require.Eventually(t, func() bool {
		return h.SubjectCount() == 0
	}, time.Second, time.Millisecond)
	require.Equal(t, 0, h.SubscriberCount("tok1"))
	require.False(t, h.Broadcast("tok1", 1))
}

func TestHub_ResubscribeAfterFullRelease(t *testing.T) {
	h := New[string, int](4)
	first := h.Subscribe("tok1")
	first.Close()
	require.Eventually(t, func() bool {
		return h.SubjectCount() == 0
	}, time.Second, time.Millisecond)

	second := h.Subscribe("tok1")
	require.Equal(t, 1, h.SubscriberCount("tok1"))
	require.True(t, h.Broadcast("tok1", 7))
	require.Equal(t, 7, <-second.C())
	second.Close()
}

func TestHub_BroadcastDropsOnFullChannel(t *testing.T) {
	h := New[string, int](1)
	sub := h.Subscribe("tok1")
	defer sub.Close()

	require.True(t, h.Broadcast("tok1", 1))
	require.False(t, h.Broadcast("tok1", 2))

	require.Equal(t, 1, <-sub.C())
}

func TestHub_SubjectsAreIndependentPerKey(t *testing.T) {
	h := New[string, int](4)
	subA := h.Subscribe("tokA")
	defer subA.Close()

	require.False(t, h.Broadcast("tokB", 99))
	require.Equal(t, 1, h.SubjectCount())
}
