package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/EgorLis/kosbot/internal/listing"
)

const (
	cmdPanel      = "panel"
	cmdList       = "list"
	cmdSubmission = "submission"

	optChannel = "channel"
)

const (
	msgUnknown      = "Unknown command."
	msgForbidden    = "You are not allowed to use this command."
	msgPanelPosted  = "Panel posted."
	msgNoChannel    = "No list channel configured. Use /submission first."
	msgListFailed   = "Could not post the KOS list."
	msgListPosted   = "KOS list posted."
	msgUnreachable  = "The KOS list channel cannot be reached. Set it again with /submission."
	msgSaveFailed   = "Could not save the list channel."
	panelTitle      = "KOS Submissions"
	panelDesc       = "Use the buttons below to submit a player or a clan to the KOS list."
	panelColor      = 0xC0392B
	channelOptDescr = "Channel where the KOS list is posted"
)

// Commands возвращает slash-команды для bulk overwrite.
func Commands() []*discordgo.ApplicationCommand {
	manage := int64(discordgo.PermissionManageMessages)
	return []*discordgo.ApplicationCommand{
		{
			Name:                     cmdPanel,
			Description:              "Post the KOS submission panel in this channel",
			DefaultMemberPermissions: &manage,
		},
		{
			Name:        cmdList,
			Description: "Post the current KOS list",
		},
		{
			Name:                     cmdSubmission,
			Description:              "Set the channel for the KOS list",
			DefaultMemberPermissions: &manage,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         optChannel,
					Description:  channelOptDescr,
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
			},
		},
	}
}

func (b *KOSBot) handleCommand(ctx context.Context, log *slog.Logger, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	log = log.With("command", data.Name)

	switch data.Name {
	case cmdPanel:
		if !b.authorized(i) {
			return b.reply(i, msgForbidden)
		}
		return b.postPanel(ctx, log, i)

	case cmdList:
		if b.store.ListChannel() == "" {
			return b.reply(i, msgNoChannel)
		}
		err := b.listing.Post(ctx)
		switch {
		case err == nil:
			return b.reply(i, msgListPosted)
		case errors.Is(err, listing.ErrNoChannel):
			return b.reply(i, msgNoChannel)
		case errors.Is(err, listing.ErrChannelUnresolved):
			log.Warn("list channel unresolved", "channel_id", b.store.ListChannel())
			return b.reply(i, msgUnreachable)
		default:
			log.Error("publish listing", "error", err)
			return b.reply(i, msgListFailed)
		}

	case cmdSubmission:
		if !b.authorized(i) {
			return b.reply(i, msgForbidden)
		}
		channelID := optionString(data.Options, optChannel)
		if channelID == "" {
			return b.reply(i, msgUnknown)
		}
		if err := b.store.SetListChannel(ctx, channelID); err != nil {
			log.Error("set list channel", "channel_id", channelID, "error", err)
			return b.reply(i, msgSaveFailed)
		}
		log.Info("list channel set", "channel_id", channelID)
		return b.reply(i, fmt.Sprintf("KOS list channel set to <#%s>.", channelID))

	default:
		log.Warn("unknown command")
		return b.reply(i, msgUnknown)
	}
}

func (b *KOSBot) postPanel(ctx context.Context, log *slog.Logger, i *discordgo.InteractionCreate) error {
	_, err := b.s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       panelTitle,
			Description: panelDesc,
			Color:       panelColor,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Submit player", Style: discordgo.PrimaryButton, CustomID: btnPlayer},
				discordgo.Button{Label: "Submit clan", Style: discordgo.SecondaryButton, CustomID: btnClan},
			}},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.Error("post panel", "channel_id", i.ChannelID, "error", err)
		return b.reply(i, "Could not post the panel here.")
	}
	return b.reply(i, msgPanelPosted)
}

func optionString(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range opts {
		if o == nil || o.Name != name {
			continue
		}
		if s, ok := o.Value.(string); ok {
			return s
		}
	}
	return ""
}
