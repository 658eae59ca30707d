// Package rooms implements the temp voice room lifecycle. Joining a lobby
// spawns (or restores) a room owned by the joining user; the room is deleted
// when it empties, or parked in a hidden archive category if its owner made
// it persistent. Records that turn out to be stale against the platform are
// purged and recreated rather than surfaced as errors.
package rooms
