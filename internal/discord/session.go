package discord

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/websocket"

	"github.com/EgorLis/kosbot/internal/config"
)

// NewSession собирает сессию discordgo: свой websocket-диалер для gateway
// (таймаут рукопожатия, прокси из окружения) и HTTP-клиент для REST.
func NewSession(cfg config.DiscordConfig) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	s.Dialer = gatewayDialer(cfg)
	s.Client = &http.Client{
		Timeout:   20 * time.Second,
		Transport: restTransport(cfg),
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	s.ShouldReconnectOnError = true
	return s, nil
}

func gatewayDialer(cfg config.DiscordConfig) *websocket.Dialer {
	d := &websocket.Dialer{
		HandshakeTimeout:  cfg.HandshakeTimeout,
		EnableCompression: true,
	}
	if cfg.UseProxy {
		d.Proxy = http.ProxyFromEnvironment
	}
	if d.HandshakeTimeout <= 0 {
		d.HandshakeTimeout = 10 * time.Second
	}
	return d
}

func restTransport(cfg config.DiscordConfig) http.RoundTripper {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.UseProxy {
		t.Proxy = nil
	}
	return t
}
