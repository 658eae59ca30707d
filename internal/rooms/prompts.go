package rooms

import (
	"context"
	"fmt"

	"roomkeeper/internal/platform"
	logx "roomkeeper/pkg/logx"
)

// sendConfigPrompt posts the welcome message into a temp room. restored
// selects the welcome-back wording for rooms pulled out of the archive.
func (c *Controller) sendConfigPrompt(ctx context.Context, roomID int64, member platform.Member, restored bool) error {
	var content string
	if restored {
		content = fmt.Sprintf(
			"🎙️ **Welcome back to your channel, %s!**\n\nYour persistent channel has been restored from the archive.",
			member.DisplayName,
		)
	} else {
		content = fmt.Sprintf(
			"🎙️ **Welcome to your temporary voice channel, %s!**\n\n"+
				"This channel will be automatically deleted when everyone leaves.\n"+
				"Use the configuration controls to rename it, or make it persistent to keep it archived when empty.",
			member.DisplayName,
		)
	}
	_, err := c.client.SendMessage(ctx, roomID, content)
	return err
}

// cleanOldPrompts deletes stale bot prompts from a restored room so the user
// sees exactly one live set of controls. The scan is bounded; failures are
// logged and skipped.
func (c *Controller) cleanOldPrompts(ctx context.Context, roomID int64) {
	msgs, err := c.client.RecentMessages(ctx, roomID, maxPromptScan)
	if err != nil {
		c.log.Warn("prompt scan failed", logx.Int64("room_id", roomID), logx.Err(err))
		return
	}
	botID := c.client.BotUserID()
	for _, m := range msgs {
		if m.AuthorID != botID || !m.HasComponents {
			continue
		}
		if err := c.client.DeleteMessage(ctx, roomID, m.ID); err != nil {
			c.log.Warn("prompt delete failed",
				logx.Int64("room_id", roomID), logx.Int64("message_id", m.ID), logx.Err(err))
		}
	}
}
