package discord

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/upworkrevolution/membership-api/models"
)

// ErrMemberNotFound is returned when a kick or DM targets a member that
// already left the guild.
var ErrMemberNotFound = errors.New("member not found in guild")

// MemberJoin carries the fields of a guild join event the engine cares about.
type MemberJoin struct {
	MemberID    int64
	Username    string
	DisplayName string
	GuildID     string
}

// MembershipGateway is the boundary to the community platform: it creates
// single-use invites, lists invite use counts, and removes or messages
// members. All calls are synchronous with the caller's timeout applied
// at the session level.
type MembershipGateway interface {
	CreateSingleUseInvite(channelID string) (*models.Invite, error)
	ListInvites(guildID string) ([]models.Invite, error)
	KickMember(guildID string, memberID int64, reason string) error
	DMMember(memberID int64, text string) error
}

// Gateway implements MembershipGateway on top of a discordgo session.
type Gateway struct {
	session *discordgo.Session
}

// NewGateway creates a gateway with the member intents the join events need.
func NewGateway(botToken string) (*Gateway, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	return &Gateway{session: session}, nil
}

// Open connects the underlying websocket session.
func (g *Gateway) Open() error {
	return g.session.Open()
}

// Close shuts the session down.
func (g *Gateway) Close() error {
	return g.session.Close()
}

// OnMemberJoin registers fn for guild member add events. Events whose
// member id cannot be parsed are dropped.
func (g *Gateway) OnMemberJoin(fn func(MemberJoin)) {
	g.session.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		memberID, err := strconv.ParseInt(m.User.ID, 10, 64)
		if err != nil {
			return
		}
		displayName := m.Nick
		if displayName == "" {
			displayName = m.User.Username
		}
		fn(MemberJoin{
			MemberID:    memberID,
			Username:    m.User.Username,
			DisplayName: displayName,
			GuildID:     m.GuildID,
		})
	})
}

// OnReady registers fn for the session ready event.
func (g *Gateway) OnReady(fn func()) {
	g.session.AddHandler(func(_ *discordgo.Session, _ *discordgo.Ready) {
		fn()
	})
}

func (g *Gateway) CreateSingleUseInvite(channelID string) (*models.Invite, error) {
	invite, err := g.session.ChannelInviteCreate(channelID, discordgo.Invite{
		MaxUses: 1,
		MaxAge:  0,
		Unique:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invite for channel %s: %w", channelID, err)
	}
	return &models.Invite{
		Code: invite.Code,
		URL:  InviteURL(invite.Code),
		Uses: invite.Uses,
	}, nil
}

func (g *Gateway) ListInvites(guildID string) ([]models.Invite, error) {
	invites, err := g.session.GuildInvites(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites for guild %s: %w", guildID, err)
	}
	out := make([]models.Invite, 0, len(invites))
	for _, invite := range invites {
		out = append(out, models.Invite{
			Code: invite.Code,
			URL:  InviteURL(invite.Code),
			Uses: invite.Uses,
		})
	}
	return out, nil
}

func (g *Gateway) KickMember(guildID string, memberID int64, reason string) error {
	err := g.session.GuildMemberDeleteWithReason(guildID, strconv.FormatInt(memberID, 10), reason)
	if err != nil {
		if isUnknownMember(err) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to kick member %d: %w", memberID, err)
	}
	return nil
}

func (g *Gateway) DMMember(memberID int64, text string) error {
	channel, err := g.session.UserChannelCreate(strconv.FormatInt(memberID, 10))
	if err != nil {
		if isUnknownMember(err) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to open DM channel for member %d: %w", memberID, err)
	}
	_, err = g.session.ChannelMessageSend(channel.ID, text)
	if err != nil {
		return fmt.Errorf("failed to DM member %d: %w", memberID, err)
	}
	return nil
}

// InviteURL returns the canonical invite URL for a code. Orders store
// the URL, the ledger diffs by code, this keeps the two joinable.
func InviteURL(code string) string {
	return "https://discord.gg/" + code
}

func isUnknownMember(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
			return true
		}
	}
	return false
}
