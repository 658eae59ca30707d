package rooms

import "fmt"

const (
	// archiveCategoryName is the hidden category that parked persistent
	// rooms live under.
	archiveCategoryName = "📦 Archived Channels"

	maxRoomNameLen = 100

	// maxPromptScan bounds how far back the restored-room cleanup looks.
	maxPromptScan = 50
)

// tempRoomName names a fresh temp room after its owner.
func tempRoomName(displayName string) string {
	return fmt.Sprintf("%s's Channel", displayName)
}
