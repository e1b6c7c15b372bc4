package notifier

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
)

type Notifier interface {
	NotifyAdmission(org models.Organization, event models.Event, guest models.Guest) error
	NotifyPlanChange(org models.Organization, by models.User) error
}

// channelSender is the part of *discordgo.Session the notifier uses.
type channelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   channelSender
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	n := &DiscordNotifier{channelID: channelID}
	if session != nil {
		n.session = session
	}
	return n
}

// NewDiscordSession opens a bot session for the given token.
func NewDiscordSession(botToken string) (*discordgo.Session, error) {
	if botToken == "" {
		return nil, fmt.Errorf("discord bot token is empty")
	}
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return session, nil
}

func (n *DiscordNotifier) NotifyAdmission(org models.Organization, event models.Event, guest models.Guest) error {
	status := "checked in 🎟️"
	if guest.CheckInCount > 1 {
		status = fmt.Sprintf("re-entered (entry #%d) 🔁", guest.CheckInCount)
	}

	message := fmt.Sprintf("**Check-in**\n**Event:** %s (%s/%s)\n**Guest:** %s\n**Status:** %s",
		event.Name,
		org.Slug,
		event.Slug,
		guest.Name,
		status,
	)
	return n.send(message)
}

func (n *DiscordNotifier) NotifyPlanChange(org models.Organization, by models.User) error {
	message := fmt.Sprintf("💳 **Plan Update**\n**Organization:** %s (%s)\n**Plan:** %s\n**Changed by:** %s",
		org.Name,
		org.Slug,
		org.Plan,
		by.Username,
	)
	return n.send(message)
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	if _, err := n.session.ChannelMessageSend(n.channelID, message); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}
