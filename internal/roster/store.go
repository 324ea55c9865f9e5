package roster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ErrNoSnapshot возвращается драйвером, если снапшота ещё нет.
var ErrNoSnapshot = errors.New("roster: snapshot not found")

// Persister — долговременное хранилище снапшота.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

type Option func(*Store)

// WithCreateIfMissing: при отсутствии снапшота стартуем с пустого состояния и сразу сохраняем его.
func WithCreateIfMissing(v bool) Option {
	return func(s *Store) { s.createIfMissing = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store — in-memory ростеры и канал листинга, write-through кэш снапшота.
type Store struct {
	mu      sync.Mutex
	p       Persister
	data    Snapshot
	saved   Snapshot // последнее, что точно легло в драйвер
	pending bool

	createIfMissing bool
	log             *slog.Logger
}

// Open загружает снапшот. Ошибка здесь фатальна для процесса.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		p:   p,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}

	snap, err := p.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSnapshot) && s.createIfMissing:
		s.log.Info("snapshot not found, starting empty")
		s.data = Snapshot{}
		s.data.normalize()
		if err := s.Persist(ctx); err != nil {
			return nil, fmt.Errorf("create snapshot: %w", err)
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	snap.normalize()
	s.data = snap
	s.saved = snap.clone()
	s.log.Info("snapshot loaded",
		"players", len(snap.Players),
		"clans", len(snap.Clans),
		"list_channel", snap.ListChannel)
	return s, nil
}

// Find ищет по точному совпадению ключа.
func (s *Store) Find(key Key) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch key.Kind {
	case KindPlayer:
		for _, p := range s.data.Players {
			if p.Key() == key {
				return p, true
			}
		}
	case KindClan:
		for _, c := range s.data.Clans {
			if c.Key() == key {
				return c, true
			}
		}
	}
	return nil, false
}

// InsertSorted добавляет запись и пересортировывает ростер. Дубликаты не проверяет.
func (s *Store) InsertSorted(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch v := e.(type) {
	case Player:
		s.data.Players = append(s.data.Players, v)
		sortByName(s.data.Players, func(p Player) string { return p.Name })
	case *Player:
		s.data.Players = append(s.data.Players, *v)
		sortByName(s.data.Players, func(p Player) string { return p.Name })
	case Clan:
		s.data.Clans = append(s.data.Clans, v)
		sortByName(s.data.Clans, func(c Clan) string { return c.Name })
	case *Clan:
		s.data.Clans = append(s.data.Clans, *v)
		sortByName(s.data.Clans, func(c Clan) string { return c.Name })
	default:
		s.log.Warn("insert: unsupported entry type", "type", fmt.Sprintf("%T", e))
		return
	}
	s.pending = true
}

// Persist полностью перезаписывает снапшот.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	snap := s.data.clone()
	s.pending = true
	s.mu.Unlock()

	if err := s.p.Save(ctx, snap); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	s.mu.Lock()
	s.saved = snap
	// за время записи состояние могло поменяться
	if snapshotsEqual(snap, s.data) {
		s.pending = false
	}
	s.mu.Unlock()
	return nil
}

// Remove убирает запись по ключу, не трогая драйвер. Если состояние снова
// совпало с последним сохранённым снапшотом, pending сбрасывается.
func (s *Store) Remove(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	switch key.Kind {
	case KindPlayer:
		s.data.Players, removed = removeKey(s.data.Players, key)
	case KindClan:
		s.data.Clans, removed = removeKey(s.data.Clans, key)
	}
	if removed {
		s.pending = !snapshotsEqual(s.data, s.saved)
	}
	return removed
}

func removeKey[T Entry](items []T, key Key) ([]T, bool) {
	for i, it := range items {
		if it.Key() == key {
			return append(items[:i:i], items[i+1:]...), true
		}
	}
	return items, false
}

// Pending — есть ли изменения, которые ещё не легли на диск.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// SetListChannel задаёт канал для листинга и сохраняет снапшот.
func (s *Store) SetListChannel(ctx context.Context, channelID string) error {
	s.mu.Lock()
	s.data.ListChannel = channelID
	s.pending = true
	s.mu.Unlock()
	return s.Persist(ctx)
}

func (s *Store) ListChannel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ListChannel
}

func (s *Store) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Player, len(s.data.Players))
	copy(out, s.data.Players)
	return out
}

func (s *Store) Clans() []Clan {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Clan, len(s.data.Clans))
	copy(out, s.data.Clans)
	return out
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.clone()
}

// Close делает финальный persist (если есть что писать) и закрывает драйвер.
func (s *Store) Close(ctx context.Context) error {
	var errs []error
	if s.Pending() {
		if err := s.Persist(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.p.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close persister: %w", err))
	}
	return errors.Join(errs...)
}

func snapshotsEqual(a, b Snapshot) bool {
	if a.ListChannel != b.ListChannel || len(a.Players) != len(b.Players) || len(a.Clans) != len(b.Clans) {
		return false
	}
	for i := range a.Players {
		if a.Players[i] != b.Players[i] {
			return false
		}
	}
	for i := range a.Clans {
		if a.Clans[i] != b.Clans[i] {
			return false
		}
	}
	return true
}

// OpenPersister выбирает драйвер снапшота по имени из конфига.
func OpenPersister(driver, path string) (Persister, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "json":
		return NewJSONFile(path), nil
	case "sqlite":
		db, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown snapshot driver %q (valid: json, sqlite)", driver)
	}
}
