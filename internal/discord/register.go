package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type commandRegistrar interface {
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// RegisterCommands перезаписывает набор slash-команд приложения.
// guildID пустой — команды глобальные.
func RegisterCommands(s commandRegistrar, appID, guildID string, cmds []*discordgo.ApplicationCommand) ([]string, error) {
	created, err := s.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
	if err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}
	names := make([]string, 0, len(created))
	for _, c := range created {
		names = append(names, c.Name)
	}
	return names, nil
}
