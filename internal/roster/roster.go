package roster

import (
	"fmt"
	"sort"
	"strings"
)

// Kind — какой из двух ростеров (игроки или кланы).
type Kind int

const (
	KindPlayer Kind = iota + 1
	KindClan
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "players"
	case KindClan:
		return "clans"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Key — идентичность записи внутри ростера.
type Key struct {
	Kind      Kind
	Name      string
	Secondary string
}

// Entry — одна запись KOS-листа (Player или Clan).
type Entry interface {
	Kind() Kind
	Key() Key
	DisplayName() string
	// Secondary — username для игрока, регион для клана.
	Secondary() string
}

type Player struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

func (p Player) Kind() Kind          { return KindPlayer }
func (p Player) Key() Key            { return Key{Kind: KindPlayer, Name: p.Name, Secondary: p.Username} }
func (p Player) DisplayName() string { return p.Name }
func (p Player) Secondary() string   { return p.Username }

type Clan struct {
	Name   string `json:"name"`
	Region string `json:"region"`
}

func (c Clan) Kind() Kind          { return KindClan }
func (c Clan) Key() Key            { return Key{Kind: KindClan, Name: c.Name, Secondary: c.Region} }
func (c Clan) DisplayName() string { return c.Name }
func (c Clan) Secondary() string   { return c.Region }

// Snapshot — полное состояние, как оно лежит на диске.
type Snapshot struct {
	Players     []Player `json:"players"`
	Clans       []Clan   `json:"clans"`
	ListChannel string   `json:"listChannel,omitempty"`
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		Players:     make([]Player, len(s.Players)),
		Clans:       make([]Clan, len(s.Clans)),
		ListChannel: s.ListChannel,
	}
	copy(out.Players, s.Players)
	copy(out.Clans, s.Clans)
	return out
}

// normalize приводит снапшот с диска к инвариантам: без nil-слайсов и отсортирован.
func (s *Snapshot) normalize() {
	if s.Players == nil {
		s.Players = []Player{}
	}
	if s.Clans == nil {
		s.Clans = []Clan{}
	}
	sortByName(s.Players, func(p Player) string { return p.Name })
	sortByName(s.Clans, func(c Clan) string { return c.Name })
}

func sortByName[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(name(items[i])) < strings.ToLower(name(items[j]))
	})
}

// IsSorted проверяет порядок по имени без учёта регистра.
func IsSorted[T Entry](items []T) bool {
	return sort.SliceIsSorted(items, func(i, j int) bool {
		return strings.ToLower(items[i].DisplayName()) < strings.ToLower(items[j].DisplayName())
	})
}
