// Package state holds the in-memory working set: lobby registrations and
// live temp rooms, keyed by room id. It is rebuilt from the store at startup
// and kept current by the room controller.
package state

import "roomkeeper/internal/store"

type Cache struct {
	lobbies   *shardedMap[store.Lobby]
	tempRooms *shardedMap[store.TempRoom]
	archives  *shardedMap[int64] // guild id -> archive category id
}

func NewCache() *Cache {
	return &Cache{
		lobbies:   newShardedMap[store.Lobby](),
		tempRooms: newShardedMap[store.TempRoom](),
		archives:  newShardedMap[int64](),
	}
}

// ---- Lobbies ----

func (c *Cache) PutLobby(l store.Lobby)            { c.lobbies.Put(l.RoomID, l) }
func (c *Cache) Lobby(roomID int64) (store.Lobby, bool) { return c.lobbies.Get(roomID) }
func (c *Cache) RemoveLobby(roomID int64)          { c.lobbies.Delete(roomID) }
func (c *Cache) LobbyCount() int                   { return c.lobbies.Len() }

// ---- Temp rooms ----

func (c *Cache) PutRoom(r store.TempRoom)              { c.tempRooms.Put(r.RoomID, r) }
func (c *Cache) Room(roomID int64) (store.TempRoom, bool) { return c.tempRooms.Get(roomID) }
func (c *Cache) RemoveRoom(roomID int64)               { c.tempRooms.Delete(roomID) }
func (c *Cache) RoomCount() int                        { return c.tempRooms.Len() }

// UpdateRoom mutates a cached room in place under its shard lock.
// It is a no-op if the room is not cached.
func (c *Cache) UpdateRoom(roomID int64, fn func(r *store.TempRoom)) {
	c.tempRooms.Update(roomID, func(r store.TempRoom, ok bool) (store.TempRoom, bool) {
		if !ok {
			return r, false
		}
		fn(&r)
		return r, true
	})
}

// Rooms returns a copy of all cached temp rooms.
func (c *Cache) Rooms() []store.TempRoom {
	snap := c.tempRooms.Snapshot()
	out := make([]store.TempRoom, 0, len(snap))
	for _, r := range snap {
		out = append(out, r)
	}
	return out
}

// RoomsOwnedBy returns the cached temp rooms owned by a user under a given
// lobby in a guild, excluding excludeRoomID.
func (c *Cache) RoomsOwnedBy(guildID, ownerID, lobbyID, excludeRoomID int64) []store.TempRoom {
	var out []store.TempRoom
	for _, r := range c.tempRooms.Snapshot() {
		if r.RoomID == excludeRoomID {
			continue
		}
		if r.GuildID == guildID && r.OwnerID == ownerID && r.LobbyID == lobbyID {
			out = append(out, r)
		}
	}
	return out
}

// ---- Archive categories ----

func (c *Cache) ArchiveCategory(guildID int64) (int64, bool) { return c.archives.Get(guildID) }
func (c *Cache) SetArchiveCategory(guildID, categoryID int64) {
	c.archives.Put(guildID, categoryID)
}
func (c *Cache) RemoveArchiveCategory(guildID int64) { c.archives.Delete(guildID) }
