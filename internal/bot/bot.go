package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/EgorLis/kosbot/internal/admission"
	"github.com/EgorLis/kosbot/internal/roster"
)

// Session — часть *discordgo.Session, которой пользуется бот.
type Session interface {
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Store interface {
	ListChannel() string
	SetListChannel(ctx context.Context, channelID string) error
}

type Admitter interface {
	Admit(ctx context.Context, e roster.Entry) admission.Result
}

// Publisher — листинг для /list. Post не молчит о пропуске: канал не задан
// или не найден (см. listing.ErrNoChannel, listing.ErrChannelUnresolved).
type Publisher interface {
	Post(ctx context.Context) error
}

type Deps struct {
	Session  Session
	Store    Store
	Admitter Admitter
	Listing  Publisher
	// OwnerID — если задан, /panel и /submission доступны только ему.
	OwnerID string
	Limiter *UserRateLimiter
	Log     *slog.Logger
}

type KOSBot struct {
	s        Session
	store    Store
	admitter Admitter
	listing  Publisher
	ownerID  string
	limiter  *UserRateLimiter
	log      *slog.Logger

	inbox  chan *discordgo.InteractionCreate
	stopCh chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func New(d Deps) *KOSBot {
	log := d.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &KOSBot{
		s:        d.Session,
		store:    d.Store,
		admitter: d.Admitter,
		listing:  d.Listing,
		ownerID:  d.OwnerID,
		limiter:  d.Limiter,
		log:      log,
		inbox:    make(chan *discordgo.InteractionCreate, 64),
	}
}

func (b *KOSBot) Start(ctx context.Context) error {
	if b == nil {
		return errors.New("bot: not initialized")
	}
	if b.s == nil {
		return errors.New("bot: discord session is not set")
	}

	b.mu.Lock()
	if b.stopCh != nil {
		b.mu.Unlock()
		return errors.New("bot: already running")
	}
	stopCh := make(chan struct{})
	b.stopCh = stopCh
	b.mu.Unlock()

	b.s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.log.Info("connected", "user", r.User.Username, "guilds", len(r.Guilds))
	})
	b.s.AddHandler(b.onInteraction)

	if err := b.s.Open(); err != nil {
		b.mu.Lock()
		b.stopCh = nil
		b.mu.Unlock()
		return fmt.Errorf("open gateway: %w", err)
	}

	b.wg.Add(1)
	go b.loop(ctx, stopCh)
	return nil
}

func (b *KOSBot) Stop() {
	b.mu.Lock()
	ch := b.stopCh
	b.stopCh = nil
	b.mu.Unlock()

	if ch != nil {
		close(ch)   // повторный Stop() ничего не делает
		b.wg.Wait() // ждём, пока цикл закончит текущее событие
		if err := b.s.Close(); err != nil {
			b.log.Warn("close gateway", "error", err)
		}
	}
}

// onInteraction вызывается discordgo из своих горутин; только ставит событие в очередь.
func (b *KOSBot) onInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	b.mu.Lock()
	stopCh := b.stopCh
	b.mu.Unlock()
	if stopCh == nil {
		return
	}
	select {
	case b.inbox <- i:
	case <-stopCh:
	}
}

// loop — единственный обработчик: одно событие до конца, затем следующее.
func (b *KOSBot) loop(ctx context.Context, stopCh <-chan struct{}) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case i := <-b.inbox:
			b.handle(ctx, i)
		}
	}
}

func (b *KOSBot) handle(ctx context.Context, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil {
		return
	}
	log := b.log.With("request_id", uuid.NewString(), "user_id", userID(i), "guild_id", i.GuildID)

	var err error
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		err = b.handleCommand(ctx, log, i)
	case discordgo.InteractionMessageComponent:
		err = b.handleComponent(log, i)
	case discordgo.InteractionModalSubmit:
		err = b.handleModal(ctx, log, i)
	default:
		log.Debug("interaction ignored", "type", i.Type.String())
		return
	}
	if err != nil {
		log.Error("interaction failed", "error", err)
	}
}

func userID(i *discordgo.InteractionCreate) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.ID
	case i.User != nil:
		return i.User.ID
	default:
		return ""
	}
}

func (b *KOSBot) authorized(i *discordgo.InteractionCreate) bool {
	return b.ownerID == "" || userID(i) == b.ownerID
}

func (b *KOSBot) reply(i *discordgo.InteractionCreate, content string) error {
	return b.s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
