package game

import "tablejack/utils"

// Hand is one of a player's concurrently active card sets. Players hold more
// than one only after splitting.
type Hand struct {
	Cards      []utils.Card
	IsFinished bool
	IsDoubled  bool
}

// Value returns the hand's value string, e.g. "18" or "11/21".
func (h *Hand) Value() string {
	return utils.HandValue(h.Cards)
}

// Best returns the best playable total of the hand.
func (h *Hand) Best() int {
	return utils.BestValue(h.Value())
}

// Player is the live state of one connected user. Credits are mutated only
// by the game engine and synced back to the durable store at settlement.
type Player struct {
	UserID       string
	Name         string
	Credits      int64
	Hands        []*Hand
	HasFinished  bool
	HasInsurance bool
	IsReady      bool
}

// NewPlayer builds a registry entry for a freshly authenticated user.
func NewPlayer(userID, name string, credits int64) *Player {
	return &Player{UserID: userID, Name: name, Credits: credits}
}

// ActiveHand returns the first not-yet-finished hand and its index, or nil
// when every hand is done. Split hands are played left to right.
func (p *Player) ActiveHand() (*Hand, int) {
	for i, h := range p.Hands {
		if !h.IsFinished {
			return h, i
		}
	}
	return nil, -1
}

// ResetRound gives the player a single fresh hand and clears round flags.
func (p *Player) ResetRound() {
	p.Hands = []*Hand{{}}
	p.HasFinished = false
	p.HasInsurance = false
}

// ClearHands drops all hand state, e.g. when leaving a table.
func (p *Player) ClearHands() {
	p.Hands = nil
	p.HasFinished = false
	p.HasInsurance = false
	p.IsReady = false
}
