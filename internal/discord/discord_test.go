package discord

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/kosbot/internal/config"
	"github.com/EgorLis/kosbot/internal/listing"
)

type fakeRest struct {
	channels map[string]*discordgo.Channel
	sentTo   string
	sent     *discordgo.MessageEmbed
	sendErr  error
}

func (f *fakeRest) Channel(id string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	ch, ok := f.channels[id]
	if !ok {
		return nil, errors.New("HTTP 404 Not Found")
	}
	return ch, nil
}

func (f *fakeRest) ChannelMessageSendEmbed(id string, e *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sentTo, f.sent = id, e
	return &discordgo.Message{ID: "m1", ChannelID: id}, nil
}

func quietLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestMessenger_FetchChannel(t *testing.T) {
	rest := &fakeRest{channels: map[string]*discordgo.Channel{"1": {ID: "1", Name: "kos-list"}}}
	m := NewMessenger(rest, quietLog())

	ch, ok := m.FetchChannel(context.Background(), "1")
	require.True(t, ok)
	assert.Equal(t, listing.Channel{ID: "1", Name: "kos-list"}, ch)

	_, ok = m.FetchChannel(context.Background(), "2")
	assert.False(t, ok)
}

func TestMessenger_SendEmbed(t *testing.T) {
	rest := &fakeRest{}
	m := NewMessenger(rest, quietLog())

	msg := listing.Render(nil, nil)[0]
	require.NoError(t, m.Send(context.Background(), "1", msg))

	assert.Equal(t, "1", rest.sentTo)
	require.NotNil(t, rest.sent)
	assert.Equal(t, "KOS List", rest.sent.Title)
	require.Len(t, rest.sent.Fields, 2)
	assert.Equal(t, "No players yet.", rest.sent.Fields[0].Value)
	assert.Equal(t, "No clans yet.", rest.sent.Fields[1].Value)

	rest.sendErr = errors.New("HTTP 403 Forbidden")
	assert.Error(t, m.Send(context.Background(), "1", msg))
}

type fakeRegistrar struct {
	appID, guildID string
	got            []*discordgo.ApplicationCommand
}

func (f *fakeRegistrar) ApplicationCommandBulkOverwrite(appID, guildID string, cmds []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.appID, f.guildID, f.got = appID, guildID, cmds
	return cmds, nil
}

func TestRegisterCommands(t *testing.T) {
	r := &fakeRegistrar{}
	names, err := RegisterCommands(r, "app", "guild", []*discordgo.ApplicationCommand{{Name: "list"}, {Name: "panel"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"list", "panel"}, names)
	assert.Equal(t, "app", r.appID)
	assert.Equal(t, "guild", r.guildID)
}

func TestNewSession(t *testing.T) {
	s, err := NewSession(config.DiscordConfig{Token: "t", UseProxy: true})
	require.NoError(t, err)

	require.NotNil(t, s.Dialer)
	assert.Equal(t, 10*time.Second, s.Dialer.HandshakeTimeout)
	assert.NotNil(t, s.Dialer.Proxy)
	assert.Equal(t, "Bot t", s.Token)
	assert.Equal(t, discordgo.IntentsGuilds, s.Identify.Intents)

	s, err = NewSession(config.DiscordConfig{Token: "t", HandshakeTimeout: 3 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, s.Dialer.HandshakeTimeout)
	assert.Nil(t, s.Dialer.Proxy)
	tr, ok := s.Client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Nil(t, tr.Proxy)
}
