// Package admission добавляет запись в KOS-ростер: поиск по ключу, вставка,
// persist, проверка, что запись действительно легла, и перепубликация листинга.
//
// Admit — явная машина состояний Attempting → Verified | Exhausted.
// Попыток не больше MaxAttempts, пауз между ними нет. Повтор безопасен:
// если запись уже есть, второй раз она не вставляется.
package admission

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/EgorLis/kosbot/internal/roster"
)

const MaxAttempts = 3

type State int

const (
	Attempting State = iota
	Verified
	Exhausted
)

func (s State) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case Verified:
		return "verified"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Roster — то, что Admission требует от хранилища.
type Roster interface {
	Find(key roster.Key) (roster.Entry, bool)
	InsertSorted(e roster.Entry)
	Persist(ctx context.Context) error
	Pending() bool
	Remove(key roster.Key) bool
}

type Publisher interface {
	Publish(ctx context.Context) error
}

// Notifier получает каждую подтверждённую запись (например, NATS).
type Notifier interface {
	Admitted(ctx context.Context, e roster.Entry)
}

type Result struct {
	State    State
	Attempts int
	Entry    roster.Entry
	// текст для пользователя
	Message string
	// Err — последняя ошибка persist, если попытки кончились.
	Err error
	// PublishErr — листинг не обновился, хотя запись сохранена.
	PublishErr error
}

func (r Result) OK() bool { return r.State == Verified }

type Option func(*Admitter)

func WithLogger(l *slog.Logger) Option {
	return func(a *Admitter) { a.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(a *Admitter) { a.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(a *Admitter) { a.notifier = n }
}

type Admitter struct {
	roster    Roster
	publisher Publisher
	notifier  Notifier
	metrics   *Metrics
	log       *slog.Logger
}

func New(r Roster, p Publisher, opts ...Option) *Admitter {
	a := &Admitter{
		roster:    r,
		publisher: p,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Admit добавляет entry в нужный ростер. Ровно один исход на вызов.
func (a *Admitter) Admit(ctx context.Context, e roster.Entry) Result {
	res := Result{State: Attempting, Entry: e}
	log := a.log.With("roster", e.Kind().String(), "name", e.DisplayName(), "secondary", e.Secondary())

	inserted := false
	for res.State == Attempting {
		res.Attempts++
		a.metrics.attempt(e.Kind())

		ins, err := a.try(ctx, e)
		inserted = inserted || ins
		switch {
		case err == nil:
			res.State = Verified
		case res.Attempts >= MaxAttempts:
			res.State = Exhausted
			res.Err = err
		default:
			log.Warn("admission attempt not verified", "attempt", res.Attempts, "error", err)
		}
	}

	if res.State == Exhausted {
		// ростер остаётся таким, каким его оставила последняя удачная мутация
		if inserted && a.roster.Remove(e.Key()) {
			log.Info("unpersisted entry rolled back")
		}
		log.Error("admission exhausted", "attempts", res.Attempts, "error", res.Err)
		a.metrics.outcome(e.Kind(), Exhausted)
		res.Message = fmt.Sprintf("Failed to add %s to the KOS list.", e.DisplayName())
		return res
	}

	log.Info("entry admitted", "attempts", res.Attempts)
	a.metrics.outcome(e.Kind(), Verified)
	res.Message = fmt.Sprintf("Added %s (%s) to the KOS list.", e.DisplayName(), e.Secondary())

	if a.notifier != nil {
		a.notifier.Admitted(ctx, e)
	}
	if a.publisher != nil {
		if err := a.publisher.Publish(ctx); err != nil {
			log.Error("listing publish failed", "error", err)
			res.PublishErr = err
			res.Message += " The listing could not be refreshed."
		}
	}
	return res
}

// try — одна попытка: найти → (вставить + сохранить) → проверить.
// inserted сообщает, что вставку сделала именно эта попытка.
func (a *Admitter) try(ctx context.Context, e roster.Entry) (inserted bool, err error) {
	key := e.Key()

	var persistErr error
	if _, found := a.roster.Find(key); !found {
		a.roster.InsertSorted(e)
		inserted = true
		persistErr = a.roster.Persist(ctx)
	} else if a.roster.Pending() {
		// запись уже в памяти, но прошлый persist не прошёл — дописываем
		persistErr = a.roster.Persist(ctx)
	}

	if _, found := a.roster.Find(key); !found {
		return inserted, fmt.Errorf("entry %q not found after insert", e.DisplayName())
	}
	if a.roster.Pending() {
		if persistErr != nil {
			return inserted, persistErr
		}
		return inserted, fmt.Errorf("entry %q not persisted", e.DisplayName())
	}
	return inserted, nil
}
