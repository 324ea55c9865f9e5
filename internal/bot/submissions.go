package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/EgorLis/kosbot/internal/roster"
)

const (
	btnPlayer   = "kos:submit:player"
	btnClan     = "kos:submit:clan"
	modalPlayer = "kos:modal:player"
	modalClan   = "kos:modal:clan"

	fieldName     = "name"
	fieldUsername = "username"
	fieldRegion   = "region"

	inputMaxLen = 100
)

const (
	msgTooFast  = "You are submitting too fast, try again in a minute."
	msgRequired = "All fields are required."
)

var errIncomplete = errors.New("incomplete submission")

// handleComponent: кнопка панели открывает модалку заявки.
func (b *KOSBot) handleComponent(log *slog.Logger, i *discordgo.InteractionCreate) error {
	id := i.MessageComponentData().CustomID

	var modal *discordgo.InteractionResponseData
	switch id {
	case btnPlayer:
		modal = submitModal(modalPlayer, "Submit player",
			textInput(fieldName, "Player name"),
			textInput(fieldUsername, "Username"))
	case btnClan:
		modal = submitModal(modalClan, "Submit clan",
			textInput(fieldName, "Clan name"),
			textInput(fieldRegion, "Region"))
	default:
		log.Warn("unknown component", "custom_id", id)
		return b.reply(i, msgUnknown)
	}

	return b.s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: modal,
	})
}

func submitModal(id, title string, inputs ...discordgo.TextInput) *discordgo.InteractionResponseData {
	rows := make([]discordgo.MessageComponent, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{in}})
	}
	return &discordgo.InteractionResponseData{CustomID: id, Title: title, Components: rows}
}

func textInput(id, label string) discordgo.TextInput {
	return discordgo.TextInput{
		CustomID:  id,
		Label:     label,
		Style:     discordgo.TextInputShort,
		Required:  true,
		MaxLength: inputMaxLen,
	}
}

// handleModal: заявка из модалки уходит в admission, ответ — сообщение результата.
func (b *KOSBot) handleModal(ctx context.Context, log *slog.Logger, i *discordgo.InteractionCreate) error {
	data := i.ModalSubmitData()
	log = log.With("modal", data.CustomID)

	if !b.limiter.Allow(userID(i)) {
		log.Info("submission rate limited")
		return b.reply(i, msgTooFast)
	}

	e, err := entryFromModal(data.CustomID, modalValues(data.Components))
	if errors.Is(err, errIncomplete) {
		return b.reply(i, msgRequired)
	}
	if err != nil {
		log.Warn("unknown modal")
		return b.reply(i, msgUnknown)
	}

	res := b.admitter.Admit(ctx, e)
	if !res.OK() {
		log.Error("admission exhausted", "attempts", res.Attempts, "error", res.Err)
	} else if res.PublishErr != nil {
		log.Warn("listing not refreshed", "error", res.PublishErr)
	}
	return b.reply(i, res.Message)
}

func entryFromModal(id string, v map[string]string) (roster.Entry, error) {
	switch id {
	case modalPlayer:
		p := roster.Player{Name: v[fieldName], Username: v[fieldUsername]}
		if p.Name == "" || p.Username == "" {
			return nil, errIncomplete
		}
		return p, nil
	case modalClan:
		c := roster.Clan{Name: v[fieldName], Region: v[fieldRegion]}
		if c.Name == "" || c.Region == "" {
			return nil, errIncomplete
		}
		return c, nil
	default:
		return nil, errors.New("unknown modal " + id)
	}
}

// modalValues собирает значения полей по CustomID. После unmarshal discordgo
// отдаёт указатели, в тестах удобнее значения; принимаем и то, и другое.
func modalValues(components []discordgo.MessageComponent) map[string]string {
	out := make(map[string]string)
	for _, c := range components {
		var inner []discordgo.MessageComponent
		switch row := c.(type) {
		case *discordgo.ActionsRow:
			inner = row.Components
		case discordgo.ActionsRow:
			inner = row.Components
		}
		for _, ic := range inner {
			switch in := ic.(type) {
			case *discordgo.TextInput:
				out[in.CustomID] = strings.TrimSpace(in.Value)
			case discordgo.TextInput:
				out[in.CustomID] = strings.TrimSpace(in.Value)
			}
		}
	}
	return out
}
