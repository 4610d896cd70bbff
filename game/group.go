package game

import (
	"sync"

	"github.com/google/uuid"

	"tablejack/utils"
)

// Status is the lifecycle state of a table.
type Status int

const (
	StatusWaiting Status = iota
	StatusBetting
	StatusPlaying
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "WAITING"
	case StatusBetting:
		return "BETTING"
	case StatusPlaying:
		return "PLAYING"
	}
	return "UNKNOWN"
}

// Group is a 1-4 player blackjack table with a shared shoe and dealer.
// All mutable fields are guarded by mu; the registry lock in SessionStore is
// always taken before a group lock, never the other way around.
type Group struct {
	mu sync.Mutex

	Code     string // short public join code
	UniqueID string // durable correlation id for the event log

	Status      Status
	Members     []*Player // order is turn order
	WaitingRoom []*Player // joined mid-round, promoted at next betting phase
	Deck        []utils.Card
	DealerHand  []utils.Card
	HoleCard    *utils.Card // dealer's second card, hidden until reveal
	Bets        map[string]int64
	Round       int
}

// NewGroup builds an empty table with the given join code.
func NewGroup(code string) *Group {
	return &Group{
		Code:     code,
		UniqueID: uuid.New().String(),
		Status:   StatusWaiting,
		Bets:     make(map[string]int64),
	}
}

func (g *Group) Lock()   { g.mu.Lock() }
func (g *Group) Unlock() { g.mu.Unlock() }

// The helpers below expect g.mu to be held.

// HasMember reports whether the user sits at the table.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the user ids of seated members in turn order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}

// AllIDs returns seated members plus waiting-room players.
func (g *Group) AllIDs() []string {
	ids := g.MemberIDs()
	for _, w := range g.WaitingRoom {
		ids = append(ids, w.UserID)
	}
	return ids
}

// Occupancy counts members and waiting-room players together.
func (g *Group) Occupancy() int {
	return len(g.Members) + len(g.WaitingRoom)
}

// Draw pops the next card off the shoe. Callers guarantee the shoe was
// refilled at round start; an empty shoe mid-round would be a defect, so the
// fallback hands out a filler deuce rather than panicking.
func (g *Group) Draw() utils.Card {
	if len(g.Deck) == 0 {
		return utils.Card{Rank: "2", Suit: utils.CardSuits[0]}
	}
	card := g.Deck[0]
	g.Deck = g.Deck[1:]
	return card
}

// RemoveMember drops a user from the members list, preserving turn order.
func (g *Group) RemoveMember(userID string) bool {
	for i, m := range g.Members {
		if m.UserID == userID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			delete(g.Bets, userID)
			return true
		}
	}
	return false
}

// RemoveWaiting drops a user from the waiting room.
func (g *Group) RemoveWaiting(userID string) bool {
	for i, w := range g.WaitingRoom {
		if w.UserID == userID {
			g.WaitingRoom = append(g.WaitingRoom[:i], g.WaitingRoom[i+1:]...)
			return true
		}
	}
	return false
}
