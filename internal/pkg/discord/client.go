// Package discord delivers alerts as direct messages from a bot account.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

// Session is the part of *discordgo.Session used here.
type Session interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// maxMessageLength is Discord's per-message content limit, in characters.
const maxMessageLength = 2000

type Client struct {
	session Session
	logger  *slog.Logger
}

// NewSession opens a REST-only bot session; no gateway connection is needed to
// send direct messages.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord: failed to create session: %w", err)
	}
	return session, nil
}

func NewClient(session Session, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{session: session, logger: logger.With("stage", "alert", "channel", "discord")}
}

// Send DMs text to the user id in handle.
func (c *Client) Send(ctx context.Context, handle, text string) error {
	userID := strings.TrimSpace(handle)
	if userID == "" {
		return fmt.Errorf("discord: empty user id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	channel, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: failed to open DM channel: %w", err)
	}

	if utf8.RuneCountInString(text) > maxMessageLength {
		text = string([]rune(text)[:maxMessageLength])
	}
	if _, err := c.session.ChannelMessageSend(channel.ID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: failed to send message: %w", err)
	}

	c.logger.Info("Discord message sent", "user_id", userID)
	return nil
}
