package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/EgorLis/kosbot/internal/listing"
)

// restSession — REST-часть *discordgo.Session, которая нужна листингу.
type restSession interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Messenger реализует listing.Messenger поверх discordgo.
type Messenger struct {
	s   restSession
	log *slog.Logger
}

func NewMessenger(s restSession, log *slog.Logger) *Messenger {
	return &Messenger{s: s, log: log}
}

// FetchChannel не возвращает ошибку: канал либо есть, либо нет.
func (m *Messenger) FetchChannel(ctx context.Context, channelID string) (listing.Channel, bool) {
	ch, err := m.s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil || ch == nil {
		m.log.Debug("channel fetch failed", "channel_id", channelID, "error", err)
		return listing.Channel{}, false
	}
	return listing.Channel{ID: ch.ID, Name: ch.Name}, true
}

func (m *Messenger) Send(ctx context.Context, channelID string, msg listing.Message) error {
	_, err := m.s.ChannelMessageSendEmbed(channelID, Embed(msg), discordgo.WithContext(ctx))
	return err
}

// Embed переводит листинг в embed Discord.
func Embed(msg listing.Message) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title: msg.Title,
		Color: msg.Color,
	}
	for _, f := range msg.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value})
	}
	return e
}
