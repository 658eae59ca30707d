package platform

import "context"

type RoomKind string

const (
	RoomVoice    RoomKind = "voice"
	RoomCategory RoomKind = "category"
)

// Permissions is a bitset of room-level permissions.
type Permissions uint64

const (
	PermViewRoom Permissions = 1 << iota
	PermConnect
	PermManageRoom
	PermMoveMembers
	PermMuteMembers
	PermDeafenMembers
)

type OverwriteKind string

const (
	OverwriteMember OverwriteKind = "member"
	OverwriteRole   OverwriteKind = "role"
)

// Overwrite grants or denies permissions for a member or role on a room.
type Overwrite struct {
	Kind     OverwriteKind
	TargetID int64
	Allow    Permissions
	Deny     Permissions
}

type Room struct {
	ID       int64
	GuildID  int64
	Name     string
	Kind     RoomKind
	ParentID int64 // category the room sits in; 0 = none
	Overwrites []Overwrite
}

type Member struct {
	UserID      int64
	DisplayName string
	RoleIDs     []int64
}

type Message struct {
	ID            int64
	RoomID        int64
	AuthorID      int64
	Content       string
	HasComponents bool // carries interactive controls (buttons etc.)
}

// CreateRoom describes a room to be created.
type CreateRoom struct {
	Name       string
	Kind       RoomKind
	ParentID   int64 // 0 = top level
	Overwrites []Overwrite
}

// EditRoom describes a partial room update. Nil fields are left unchanged.
type EditRoom struct {
	Name       *string
	ParentID   *int64 // pointer so 0 can mean "move to top level"
	Overwrites []Overwrite
}

type EventKind string

const (
	EventPresence EventKind = "presence"
)

// PresenceUpdate reports a user moving between voice rooms.
// OldRoomID/NewRoomID are 0 when the user was/is not in a room.
type PresenceUpdate struct {
	GuildID   int64
	UserID    int64
	OldRoomID int64
	NewRoomID int64
}

type Event struct {
	Kind     EventKind
	Presence *PresenceUpdate
}

// Client is the platform collaborator: gateway event feed plus the REST
// surface the bot consumes. Connection, auth and retry handling live behind
// this interface; implementations are registered as drivers (see driver.go).
type Client interface {
	Start(ctx context.Context, out chan<- Event) error
	Stop(ctx context.Context) error

	// BotUserID reports the bot's own user id (valid after Start).
	BotUserID() int64

	Room(ctx context.Context, roomID int64) (Room, error)
	CreateRoom(ctx context.Context, guildID int64, req CreateRoom) (Room, error)
	EditRoom(ctx context.Context, roomID int64, req EditRoom) error
	DeleteRoom(ctx context.Context, roomID int64) error

	MoveMember(ctx context.Context, guildID, userID, roomID int64) error
	RoomMembers(ctx context.Context, roomID int64) ([]int64, error)

	SendMessage(ctx context.Context, roomID int64, content string) (Message, error)
	RecentMessages(ctx context.Context, roomID int64, limit int) ([]Message, error)
	DeleteMessage(ctx context.Context, roomID, messageID int64) error

	Member(ctx context.Context, guildID, userID int64) (Member, error)
	Members(ctx context.Context, guildID int64) ([]Member, error)
	AddRole(ctx context.Context, guildID, userID, roleID int64) error
	RemoveRole(ctx context.Context, guildID, userID, roleID int64) error

	Guilds(ctx context.Context) ([]int64, error)
}
