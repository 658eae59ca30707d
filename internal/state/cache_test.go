package state

import (
	"sync"
	"testing"

	"roomkeeper/internal/store"
)

func TestLobbyLifecycle(t *testing.T) {
	c := NewCache()

	c.PutLobby(store.Lobby{RoomID: 10, GuildID: 1})
	l, ok := c.Lobby(10)
	if !ok || l.GuildID != 1 {
		t.Fatalf("Lobby(10) = (%+v, %v)", l, ok)
	}
	if c.LobbyCount() != 1 {
		t.Fatalf("LobbyCount = %d", c.LobbyCount())
	}

	c.RemoveLobby(10)
	if _, ok := c.Lobby(10); ok {
		t.Fatalf("lobby should be gone")
	}
}

func TestUpdateRoom(t *testing.T) {
	c := NewCache()
	c.PutRoom(store.TempRoom{RoomID: 100, GuildID: 1, OwnerID: 7})

	c.UpdateRoom(100, func(r *store.TempRoom) { r.Persistent = true })
	r, _ := c.Room(100)
	if !r.Persistent {
		t.Fatalf("UpdateRoom did not apply")
	}

	// Missing room is a no-op, not a phantom insert.
	c.UpdateRoom(999, func(r *store.TempRoom) { r.Persistent = true })
	if _, ok := c.Room(999); ok {
		t.Fatalf("UpdateRoom must not create entries")
	}
}

func TestRoomsOwnedBy(t *testing.T) {
	c := NewCache()
	c.PutRoom(store.TempRoom{RoomID: 100, GuildID: 1, OwnerID: 7, LobbyID: 10})
	c.PutRoom(store.TempRoom{RoomID: 101, GuildID: 1, OwnerID: 7, LobbyID: 10})
	c.PutRoom(store.TempRoom{RoomID: 102, GuildID: 1, OwnerID: 8, LobbyID: 10})
	c.PutRoom(store.TempRoom{RoomID: 103, GuildID: 2, OwnerID: 7, LobbyID: 10})

	got := c.RoomsOwnedBy(1, 7, 10, 100)
	if len(got) != 1 || got[0].RoomID != 101 {
		t.Fatalf("RoomsOwnedBy = %+v, want just room 101", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewCache()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for i := int64(0); i < 200; i++ {
				id := base*1000 + i
				c.PutRoom(store.TempRoom{RoomID: id, GuildID: base, OwnerID: i})
				c.Room(id)
				c.UpdateRoom(id, func(r *store.TempRoom) { r.Archived = true })
				if i%2 == 0 {
					c.RemoveRoom(id)
				}
			}
		}(int64(g))
	}
	wg.Wait()

	if got := c.RoomCount(); got != 8*100 {
		t.Fatalf("RoomCount = %d, want %d", got, 8*100)
	}
	for _, r := range c.Rooms() {
		if !r.Archived {
			t.Fatalf("room %d should be archived", r.RoomID)
		}
	}
}
