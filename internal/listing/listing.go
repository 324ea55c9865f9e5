package listing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/EgorLis/kosbot/internal/roster"
)

const (
	Title       = "KOS List"
	NoPlayers   = "No players yet."
	NoClans     = "No clans yet."
	listColor   = 0xC0392B
	fieldMaxLen = 1024 // лимит Discord на значение поля embed
	embedMaxLen = 6000 // на весь embed: заголовок + имена и значения полей
	embedFields = 25
)

var (
	ErrNoChannel         = errors.New("listing: no list channel configured")
	ErrChannelUnresolved = errors.New("listing: list channel not found")
)

type Field struct {
	Name  string
	Value string
}

// Message — отрендеренный листинг, независимый от платформы.
type Message struct {
	Title  string
	Color  int
	Fields []Field
}

type Channel struct {
	ID   string
	Name string
}

// Messenger — внешний чат. FetchChannel падает мягко: ok=false.
type Messenger interface {
	FetchChannel(ctx context.Context, channelID string) (Channel, bool)
	Send(ctx context.Context, channelID string, msg Message) error
}

// Source — откуда читаем ростеры. Только чтение.
type Source interface {
	Players() []roster.Player
	Clans() []roster.Clan
	ListChannel() string
}

type Publisher struct {
	src Source
	out Messenger
	log *slog.Logger
}

func NewPublisher(src Source, out Messenger, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Publisher{src: src, out: out, log: log}
}

// Publish отправляет листинг новыми сообщениями в канал из конфигурации.
// Нет канала или он не резолвится — ничего не делаем.
func (p *Publisher) Publish(ctx context.Context) error {
	err := p.Post(ctx)
	if errors.Is(err, ErrNoChannel) || errors.Is(err, ErrChannelUnresolved) {
		p.log.Debug("publish skipped", "reason", err)
		return nil
	}
	return err
}

// Post — то же, что Publish, но пропуск отправки возвращается ошибкой
// ErrNoChannel или ErrChannelUnresolved.
func (p *Publisher) Post(ctx context.Context) error {
	channelID := p.src.ListChannel()
	if channelID == "" {
		return ErrNoChannel
	}
	ch, ok := p.out.FetchChannel(ctx, channelID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrChannelUnresolved, channelID)
	}

	pages := Render(p.src.Players(), p.src.Clans())
	for i, msg := range pages {
		if err := p.out.Send(ctx, ch.ID, msg); err != nil {
			return fmt.Errorf("send listing page %d/%d to %s: %w", i+1, len(pages), ch.ID, err)
		}
	}
	p.log.Info("listing published", "channel_id", ch.ID, "pages", len(pages))
	return nil
}

// Render раскладывает оба ростера по сообщениям, каждое в пределах лимитов embed.
// Первое сообщение всегда есть и озаглавлено Title.
func Render(players []roster.Player, clans []roster.Clan) []Message {
	var fields []Field
	fields = append(fields, section("Players", lines(players), NoPlayers)...)
	fields = append(fields, section("Clans", lines(clans), NoClans)...)
	return paginate(fields)
}

func paginate(fields []Field) []Message {
	var pages []Message
	cur := Message{Title: Title, Color: listColor}
	size := len(cur.Title)
	for _, f := range fields {
		n := len(f.Name) + len(f.Value)
		if len(cur.Fields) > 0 && (len(cur.Fields) == embedFields || size+n > embedMaxLen) {
			pages = append(pages, cur)
			cur = Message{Title: Title + " (cont.)", Color: listColor}
			size = len(cur.Title)
		}
		cur.Fields = append(cur.Fields, f)
		size += n
	}
	return append(pages, cur)
}

// Size — длина embed в том виде, в каком её считает Discord.
func (m Message) Size() int {
	n := len(m.Title)
	for _, f := range m.Fields {
		n += len(f.Name) + len(f.Value)
	}
	return n
}

func lines[T roster.Entry](items []T) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, fmt.Sprintf("%s (%s)", it.DisplayName(), it.Secondary()))
	}
	return out
}

// section режет список на поля по лимиту длины; продолжение — "<name> (cont.)".
func section(name string, rows []string, empty string) []Field {
	if len(rows) == 0 {
		return []Field{{Name: name, Value: empty}}
	}

	var (
		fields []Field
		b      strings.Builder
	)
	flush := func() {
		n := name
		if len(fields) > 0 {
			n = name + " (cont.)"
		}
		fields = append(fields, Field{Name: n, Value: b.String()})
		b.Reset()
	}
	for _, row := range rows {
		row = truncate(row, fieldMaxLen)
		if b.Len() > 0 && b.Len()+1+len(row) > fieldMaxLen {
			flush()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(row)
	}
	flush()
	return fields
}

// truncate режет строку до limit байт по границе руны, с многоточием.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
