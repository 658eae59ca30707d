package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"roomkeeper/internal/eventbus"
	"roomkeeper/internal/platform"
	"roomkeeper/internal/state"
	"roomkeeper/internal/store"
	logx "roomkeeper/pkg/logx"
)

var (
	ErrNotTempRoom         = errors.New("not a managed temp room")
	ErrNotOwner            = errors.New("only the room owner may do this")
	ErrEmptyName           = errors.New("room name must not be blank")
	ErrDuplicatePersistent = errors.New("user already has a persistent room under this lobby")
)

// RoomStore is the slice of the store the controller needs.
type RoomStore interface {
	InsertLobby(ctx context.Context, l store.Lobby) error
	Lobbies(ctx context.Context) ([]store.Lobby, error)
	RemoveLobby(ctx context.Context, roomID int64) error

	InsertTempRoom(ctx context.Context, r store.TempRoom) error
	TempRooms(ctx context.Context) ([]store.TempRoom, error)
	RemoveTempRoom(ctx context.Context, roomID int64) error
	SetPersistent(ctx context.Context, roomID int64, persistent bool) error
	SetArchived(ctx context.Context, roomID int64, archived bool) error
	ArchivedRoom(ctx context.Context, guildID, ownerID, lobbyID int64) (store.TempRoom, bool, error)

	ArchiveCategory(ctx context.Context, guildID int64) (int64, bool, error)
	SetArchiveCategory(ctx context.Context, guildID, categoryID int64) error
	RemoveArchiveCategory(ctx context.Context, guildID int64) error
}

// Controller owns the temp room lifecycle: creation from lobby joins,
// deletion or archival on empty, restore on return, persistence toggling.
type Controller struct {
	client platform.Client
	store  RoomStore
	cache  *state.Cache
	bus    eventbus.Bus
	log    logx.Logger

	prompts atomic.Bool
}

type Option func(*Controller)

// WithPrompts controls whether the controller posts configuration prompts
// into created/restored rooms.
func WithPrompts(enabled bool) Option {
	return func(c *Controller) { c.prompts.Store(enabled) }
}

func NewController(client platform.Client, st RoomStore, cache *state.Cache, bus eventbus.Bus, log logx.Logger, opts ...Option) *Controller {
	c := &Controller{
		client: client,
		store:  st,
		cache:  cache,
		bus:    bus,
		log:    log.With(logx.String("component", "rooms")),
	}
	c.prompts.Store(true)
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetPrompts toggles prompt posting at runtime (config hot-reload).
func (c *Controller) SetPrompts(enabled bool) { c.prompts.Store(enabled) }

// WarmUp rebuilds the cache from the store. Load failures are logged but not
// fatal; the bot degrades to an empty working set rather than refusing to run.
func (c *Controller) WarmUp(ctx context.Context) {
	lobbies, err := c.store.Lobbies(ctx)
	if err != nil {
		c.log.Warn("lobby warm-up failed", logx.Err(err))
	} else {
		for _, l := range lobbies {
			c.cache.PutLobby(l)
		}
	}

	rooms, err := c.store.TempRooms(ctx)
	if err != nil {
		c.log.Warn("temp room warm-up failed", logx.Err(err))
	} else {
		for _, r := range rooms {
			c.cache.PutRoom(r)
		}
	}

	c.log.Info("cache warmed up",
		logx.Int("lobbies", c.cache.LobbyCount()),
		logx.Int("temp_rooms", c.cache.RoomCount()),
	)
}

// RegisterLobby marks a voice room as a lobby that spawns temp rooms.
func (c *Controller) RegisterLobby(ctx context.Context, guildID, roomID int64) error {
	l := store.Lobby{RoomID: roomID, GuildID: guildID}
	if err := c.store.InsertLobby(ctx, l); err != nil {
		return fmt.Errorf("register lobby %d: %w", roomID, err)
	}
	c.cache.PutLobby(l)
	return nil
}

func (c *Controller) RemoveLobby(ctx context.Context, roomID int64) error {
	if err := c.store.RemoveLobby(ctx, roomID); err != nil {
		return fmt.Errorf("remove lobby %d: %w", roomID, err)
	}
	c.cache.RemoveLobby(roomID)
	return nil
}

// HandlePresence reacts to a user moving between voice rooms.
// Leave handling runs before join handling so a lobby-to-lobby hop settles
// the old room first.
func (c *Controller) HandlePresence(ctx context.Context, ev platform.PresenceUpdate) {
	if ev.GuildID == 0 {
		return
	}
	if ev.OldRoomID != 0 {
		c.onLeave(ctx, ev.OldRoomID)
	}
	if ev.NewRoomID != 0 {
		c.onJoin(ctx, ev.GuildID, ev.UserID, ev.NewRoomID)
	}
}

// onLeave settles a temp room the user just left: archive if persistent and
// empty, delete if transient and empty.
func (c *Controller) onLeave(ctx context.Context, roomID int64) {
	r, ok := c.cache.Room(roomID)
	if !ok || r.Archived {
		return
	}

	members, err := c.client.RoomMembers(ctx, roomID)
	if err != nil {
		c.log.Error("member check failed", logx.Int64("room_id", roomID), logx.Err(err))
		return
	}
	if len(members) > 0 {
		return
	}

	if r.Persistent {
		if err := c.archiveRoom(ctx, r); err != nil {
			c.log.Error("archive failed", logx.Int64("room_id", roomID), logx.Err(err))
			return
		}
		c.log.Info("archived persistent room",
			logx.Int64("room_id", roomID), logx.Int64("owner_id", r.OwnerID))
	} else {
		c.deleteTempRoom(ctx, r)
	}
}

// onJoin handles a user entering a voice room. Joining a lobby either
// restores the user's archived room from that lobby or creates a fresh one.
func (c *Controller) onJoin(ctx context.Context, guildID, userID, roomID int64) {
	lobby, ok := c.cache.Lobby(roomID)
	if !ok {
		return
	}

	member, err := c.client.Member(ctx, guildID, userID)
	if err != nil {
		c.log.Error("member lookup failed",
			logx.Int64("guild_id", guildID), logx.Int64("user_id", userID), logx.Err(err))
		return
	}

	archived, found, err := c.store.ArchivedRoom(ctx, guildID, userID, lobby.RoomID)
	if err != nil {
		c.log.Error("archived room lookup failed", logx.Int64("user_id", userID), logx.Err(err))
		// Fall through to a fresh room.
	} else if found {
		rerr := c.restoreRoom(ctx, member, archived)
		if rerr == nil {
			return
		}
		c.log.Error("restore failed; purging stale room",
			logx.Int64("room_id", archived.RoomID), logx.Err(rerr))
		// The room most likely no longer exists on the platform.
		c.purgeRoom(ctx, archived.RoomID)
	}

	if err := c.createTempRoom(ctx, member, guildID, lobby.RoomID); err != nil {
		c.log.Error("temp room creation failed",
			logx.Int64("user_id", userID), logx.Int64("lobby_id", lobby.RoomID), logx.Err(err))
	}
}

// ownerOverwrite grants a temp room owner control over their room.
func ownerOverwrite(userID int64) platform.Overwrite {
	return platform.Overwrite{
		Kind:     platform.OverwriteMember,
		TargetID: userID,
		Allow: platform.PermManageRoom |
			platform.PermMoveMembers |
			platform.PermMuteMembers |
			platform.PermDeafenMembers,
	}
}

// hiddenOverwrite denies view+connect for @everyone (whose role id equals
// the guild id).
func hiddenOverwrite(guildID int64) platform.Overwrite {
	return platform.Overwrite{
		Kind:     platform.OverwriteRole,
		TargetID: guildID,
		Deny:     platform.PermViewRoom | platform.PermConnect,
	}
}

func (c *Controller) createTempRoom(ctx context.Context, member platform.Member, guildID, lobbyID int64) error {
	lobbyRoom, err := c.client.Room(ctx, lobbyID)
	if err != nil {
		return fmt.Errorf("lobby room %d: %w", lobbyID, err)
	}

	overwrites := append([]platform.Overwrite(nil), lobbyRoom.Overwrites...)
	overwrites = append(overwrites, ownerOverwrite(member.UserID))

	created, err := c.client.CreateRoom(ctx, guildID, platform.CreateRoom{
		Name:       tempRoomName(member.DisplayName),
		Kind:       platform.RoomVoice,
		ParentID:   lobbyRoom.ParentID,
		Overwrites: overwrites,
	})
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}

	r := store.TempRoom{
		RoomID:  created.ID,
		GuildID: guildID,
		OwnerID: member.UserID,
		LobbyID: lobbyID,
	}
	c.cache.PutRoom(r)
	if err := c.store.InsertTempRoom(ctx, r); err != nil {
		c.log.Error("temp room persist failed", logx.Int64("room_id", created.ID), logx.Err(err))
	}

	if err := c.client.MoveMember(ctx, guildID, member.UserID, created.ID); err != nil {
		return fmt.Errorf("move member: %w", err)
	}

	if c.prompts.Load() {
		if err := c.sendConfigPrompt(ctx, created.ID, member, false); err != nil {
			c.log.Warn("config prompt failed", logx.Int64("room_id", created.ID), logx.Err(err))
		}
	}

	c.publish(eventbus.TypeRoomCreated, created.ID)
	c.log.Info("created temp room",
		logx.Int64("room_id", created.ID),
		logx.Int64("owner_id", member.UserID),
		logx.Int64("guild_id", guildID),
	)
	return nil
}

func (c *Controller) deleteTempRoom(ctx context.Context, r store.TempRoom) {
	if err := c.client.DeleteRoom(ctx, r.RoomID); err != nil {
		c.log.Error("room delete failed", logx.Int64("room_id", r.RoomID), logx.Err(err))
		return
	}
	c.purgeRoom(ctx, r.RoomID)
	c.publish(eventbus.TypeRoomDeleted, r.RoomID)
	c.log.Info("deleted empty temp room",
		logx.Int64("room_id", r.RoomID), logx.Int64("owner_id", r.OwnerID))
}

// purgeRoom drops a room from cache and store.
func (c *Controller) purgeRoom(ctx context.Context, roomID int64) {
	c.cache.RemoveRoom(roomID)
	if err := c.store.RemoveTempRoom(ctx, roomID); err != nil {
		c.log.Error("temp room removal failed", logx.Int64("room_id", roomID), logx.Err(err))
	}
}

// archiveCategoryFor returns the guild's archive category, verifying cached
// and stored ids against the platform and recreating the category when the
// recorded one is gone.
func (c *Controller) archiveCategoryFor(ctx context.Context, guildID int64) (int64, error) {
	if id, ok := c.cache.ArchiveCategory(guildID); ok {
		if _, err := c.client.Room(ctx, id); err == nil {
			return id, nil
		}
		c.cache.RemoveArchiveCategory(guildID)
	}

	if id, ok, err := c.store.ArchiveCategory(ctx, guildID); err == nil && ok {
		if _, err := c.client.Room(ctx, id); err == nil {
			c.cache.SetArchiveCategory(guildID, id)
			return id, nil
		}
	}

	cat, err := c.client.CreateRoom(ctx, guildID, platform.CreateRoom{
		Name:       archiveCategoryName,
		Kind:       platform.RoomCategory,
		Overwrites: []platform.Overwrite{hiddenOverwrite(guildID)},
	})
	if err != nil {
		return 0, fmt.Errorf("create archive category: %w", err)
	}

	if err := c.store.SetArchiveCategory(ctx, guildID, cat.ID); err != nil {
		c.log.Error("archive category persist failed", logx.Int64("guild_id", guildID), logx.Err(err))
	}
	c.cache.SetArchiveCategory(guildID, cat.ID)

	c.log.Info("created archive category",
		logx.Int64("category_id", cat.ID), logx.Int64("guild_id", guildID))
	return cat.ID, nil
}

func (c *Controller) archiveRoom(ctx context.Context, r store.TempRoom) error {
	catID, err := c.archiveCategoryFor(ctx, r.GuildID)
	if err != nil {
		return err
	}

	parent := catID
	if err := c.client.EditRoom(ctx, r.RoomID, platform.EditRoom{
		ParentID:   &parent,
		Overwrites: []platform.Overwrite{hiddenOverwrite(r.GuildID)},
	}); err != nil {
		return fmt.Errorf("move to archive: %w", err)
	}

	c.cache.UpdateRoom(r.RoomID, func(r *store.TempRoom) { r.Archived = true })
	if err := c.store.SetArchived(ctx, r.RoomID, true); err != nil {
		c.log.Error("archived flag persist failed", logx.Int64("room_id", r.RoomID), logx.Err(err))
	}
	return nil
}

func (c *Controller) restoreRoom(ctx context.Context, member platform.Member, r store.TempRoom) error {
	lobbyRoom, err := c.client.Room(ctx, r.LobbyID)
	if err != nil {
		return fmt.Errorf("lobby room %d: %w", r.LobbyID, err)
	}

	overwrites := append([]platform.Overwrite(nil), lobbyRoom.Overwrites...)
	overwrites = append(overwrites, ownerOverwrite(member.UserID))

	parent := lobbyRoom.ParentID
	if err := c.client.EditRoom(ctx, r.RoomID, platform.EditRoom{
		ParentID:   &parent,
		Overwrites: overwrites,
	}); err != nil {
		return fmt.Errorf("unarchive: %w", err)
	}

	// A restored room may not be cached yet (fresh process, store hit).
	r.Archived = false
	c.cache.PutRoom(r)
	if err := c.store.SetArchived(ctx, r.RoomID, false); err != nil {
		c.log.Error("archived flag persist failed", logx.Int64("room_id", r.RoomID), logx.Err(err))
	}

	if err := c.client.MoveMember(ctx, r.GuildID, member.UserID, r.RoomID); err != nil {
		return fmt.Errorf("move member: %w", err)
	}

	if c.prompts.Load() {
		c.cleanOldPrompts(ctx, r.RoomID)
		if err := c.sendConfigPrompt(ctx, r.RoomID, member, true); err != nil {
			c.log.Warn("restore prompt failed", logx.Int64("room_id", r.RoomID), logx.Err(err))
		}
	}

	c.log.Info("restored archived room",
		logx.Int64("room_id", r.RoomID),
		logx.Int64("owner_id", member.UserID),
		logx.Int64("guild_id", r.GuildID),
	)
	return nil
}

// TogglePersistence flips a temp room between transient and persistent.
// Only one valid persistent room per (owner, lobby) is allowed; stale
// persistent entries pointing at rooms the platform no longer knows are
// purged along the way.
func (c *Controller) TogglePersistence(ctx context.Context, roomID, userID int64) (bool, error) {
	r, ok := c.cache.Room(roomID)
	if !ok {
		return false, ErrNotTempRoom
	}
	if r.OwnerID != userID {
		return false, ErrNotOwner
	}

	next := !r.Persistent
	if next {
		valid := false
		for _, other := range c.cache.RoomsOwnedBy(r.GuildID, userID, r.LobbyID, roomID) {
			if !other.Persistent {
				continue
			}
			if _, err := c.client.Room(ctx, other.RoomID); err == nil {
				valid = true
				break
			}
			c.log.Info("purging stale persistent room", logx.Int64("room_id", other.RoomID))
			c.purgeRoom(ctx, other.RoomID)
		}
		if valid {
			return r.Persistent, ErrDuplicatePersistent
		}
	}

	if err := c.store.SetPersistent(ctx, roomID, next); err != nil {
		return r.Persistent, fmt.Errorf("persist toggle: %w", err)
	}
	c.cache.UpdateRoom(roomID, func(r *store.TempRoom) { r.Persistent = next })

	c.log.Info("toggled persistence",
		logx.Int64("room_id", roomID), logx.Bool("persistent", next))
	return next, nil
}

// Rename renames a temp room on the owner's behalf. Blank names are
// rejected; overlong names are truncated rather than refused.
func (c *Controller) Rename(ctx context.Context, roomID, userID int64, name string) error {
	r, ok := c.cache.Room(roomID)
	if !ok {
		return ErrNotTempRoom
	}
	if r.OwnerID != userID {
		return ErrNotOwner
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > maxRoomNameLen {
		name = string([]rune(name)[:maxRoomNameLen])
	}

	if err := c.client.EditRoom(ctx, roomID, platform.EditRoom{Name: &name}); err != nil {
		return fmt.Errorf("rename room %d: %w", roomID, err)
	}
	c.log.Info("renamed room", logx.Int64("room_id", roomID))
	return nil
}

func (c *Controller) publish(typ string, roomID int64) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(eventbus.Event{Type: typ, Data: roomID})
}
