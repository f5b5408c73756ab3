package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/reelmates/watchparty/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SubscribeAndMembersOf(t *testing.T) {
	r := NewRoomRegistry()

	r.Subscribe("p1", "c1")
	r.Subscribe("p1", "c2")
	r.Subscribe("p2", "c3")

	require.ElementsMatch(t, []ConnID{"c1", "c2"}, r.MembersOf("p1"))
	require.ElementsMatch(t, []ConnID{"c3"}, r.MembersOf("p2"))
}

func TestRegistry_SubscribeTwiceIsSingleEntry(t *testing.T) {
	r := NewRoomRegistry()

	r.Subscribe("p1", "c1")
	r.Subscribe("p1", "c1")

	require.Len(t, r.MembersOf("p1"), 1)
}

func TestRegistry_UnsubscribeIsIdempotent(t *testing.T) {
	r := NewRoomRegistry()

	r.Subscribe("p1", "c1")
	r.Unsubscribe("p1", "c1")
	r.Unsubscribe("p1", "c1")
	r.Unsubscribe("p2", "c9")

	require.Empty(t, r.MembersOf("p1"))
	require.Empty(t, r.MembersOf("p2"))
}

func TestRegistry_MembersOfReturnsSnapshot(t *testing.T) {
	r := NewRoomRegistry()
	r.Subscribe("p1", "c1")

	snap := r.MembersOf("p1")
	r.Unsubscribe("p1", "c1")

	// The snapshot taken before the unsubscribe is unaffected.
	require.ElementsMatch(t, []ConnID{"c1"}, snap)
	require.Empty(t, r.MembersOf("p1"))
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	r := NewRoomRegistry()
	party := domain.PartyID("p1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := ConnID(fmt.Sprintf("conn-%d", i))
			r.Subscribe(party, id)
			r.MembersOf(party)
			if i%2 == 0 {
				r.Unsubscribe(party, id)
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, r.MembersOf(party), 25)
}
