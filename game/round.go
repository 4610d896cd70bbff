package game

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"tablejack/models"
	"tablejack/protocol"
	"tablejack/utils"
)

// DealerID is the pseudo user id carried by dealer-related game payloads.
const DealerID = "dealer"

// HiddenCard is what clients see in place of the dealer's hole card.
const HiddenCard = "??"

// RoundController owns the table's phase transitions: readiness and
// settlement both funnel into StartBetting, and the betting-completion path
// funnels into BeginPlay. Group lifecycle and the action engine depend on
// this controller, not on each other.
type RoundController struct {
	store   *SessionStore
	notify  Notifier
	sink    EventSink
	credits CreditStore
	log     *zap.Logger

	dealDelay time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRoundController wires a controller. dealDelay paces card reveals;
// tests pass zero. A nil rng gets a time-seeded default.
func NewRoundController(store *SessionStore, notify Notifier, sink EventSink, credits CreditStore, dealDelay time.Duration, rng *rand.Rand, log *zap.Logger) *RoundController {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RoundController{
		store:     store,
		notify:    notify,
		sink:      sink,
		credits:   credits,
		log:       log,
		dealDelay: dealDelay,
		rng:       rng,
	}
}

func (rc *RoundController) pause() {
	if rc.dealDelay > 0 {
		time.Sleep(rc.dealDelay)
	}
}

func (rc *RoundController) shoe() []utils.Card {
	rc.rngMu.Lock()
	defer rc.rngMu.Unlock()
	return utils.NewShoe(utils.ShoeDecks, rc.rng)
}

// StartBetting moves a table into the betting phase: waiting-room players
// take their seats, hands from the previous round are cleared and the bet
// book is reset. A table already in BETTING is left alone so a stray
// readiness vote cannot wipe bets mid-phase.
func (rc *RoundController) StartBetting(g *Group) {
	g.Lock()
	if g.Status == StatusBetting || g.Occupancy() == 0 {
		g.Unlock()
		return
	}
	promoted := g.WaitingRoom
	g.Members = append(g.Members, promoted...)
	g.WaitingRoom = nil
	for _, m := range g.Members {
		m.ClearHands()
	}
	g.Bets = make(map[string]int64)
	g.Status = StatusBetting
	code := g.Code
	ids := g.MemberIDs()
	g.Unlock()

	for _, w := range promoted {
		rc.notify.Send(w.UserID, protocol.NewNotification(protocol.ToastSuccess, "A seat opened up, you joined the table."))
	}
	rc.notify.SendMany(ids, protocol.NewGroupNotification(code, "Place your bets."))
	rc.notify.SendMany(ids, buildGroupModel(g))
}

// MaybeBeginPlay starts the round when every seated member has a bet down.
func (rc *RoundController) MaybeBeginPlay(g *Group) {
	g.Lock()
	ready := g.Status == StatusBetting && len(g.Members) > 0 && len(g.Bets) == len(g.Members)
	g.Unlock()
	if ready {
		rc.BeginPlay(g)
	}
}

// BeginPlay runs the BETTING to PLAYING transition and the deal sequence.
// The group lock is released around every pacing delay and the member set is
// re-validated on each resume; a player who leaves mid-deal is skipped.
func (rc *RoundController) BeginPlay(g *Group) {
	g.Lock()
	if g.Status != StatusBetting || len(g.Members) == 0 {
		g.Unlock()
		return
	}
	g.Status = StatusPlaying
	if len(g.Deck) <= utils.DeckLowWater {
		g.Deck = rc.shoe()
	}
	g.DealerHand = nil
	g.HoleCard = nil
	for _, m := range g.Members {
		m.ResetRound()
	}
	g.Round++
	round := g.Round
	uid := g.UniqueID
	ids := g.MemberIDs()
	deckCount := len(g.Deck)
	g.Unlock()

	started := protocol.NewGameModel(protocol.ActionGameStarted)
	started.DeckCount = deckCount
	rc.notify.SendMany(ids, started)
	rc.sink.Record(models.GameEvent{GroupUID: uid, Action: "game_started", Round: round})

	// Two passes over the seats, dealer's up card in between, hole card last.
	for pass := 0; pass < 2; pass++ {
		for _, id := range ids {
			if !rc.dealToMember(g, id, ids) {
				return
			}
			rc.pause()
		}
		if pass == 0 {
			if !rc.dealToDealer(g, ids, false) {
				return
			}
			rc.pause()
		}
	}
	if !rc.dealToDealer(g, ids, true) {
		return
	}

	// Naturals finish immediately.
	g.Lock()
	var finished []string
	for _, m := range g.Members {
		if h, _ := m.ActiveHand(); h != nil && utils.IsNatural(h.Cards) {
			h.IsFinished = true
			if next, _ := m.ActiveHand(); next == nil {
				m.HasFinished = true
				finished = append(finished, m.UserID)
			}
		}
	}
	g.Unlock()
	for _, id := range finished {
		done := protocol.NewGameModel(protocol.ActionPlayerFinished)
		done.UserID = id
		rc.notify.SendMany(ids, done)
	}

	rc.Advance(g)
}

// dealToMember deals one card to the named member's first hand. Returns
// false when the round was torn down while the controller slept.
func (rc *RoundController) dealToMember(g *Group, userID string, recipients []string) bool {
	g.Lock()
	if g.Status != StatusPlaying || len(g.Members) == 0 {
		g.Unlock()
		return false
	}
	var member *Player
	for _, m := range g.Members {
		if m.UserID == userID {
			member = m
			break
		}
	}
	if member == nil || len(member.Hands) == 0 {
		// Left mid-deal; skip, do not fault.
		g.Unlock()
		return true
	}
	card := g.Draw()
	hand := member.Hands[0]
	hand.Cards = append(hand.Cards, card)
	value := hand.Value()
	deckCount := len(g.Deck)
	g.Unlock()

	drawn := protocol.NewGameModel(protocol.ActionCardDrawn)
	drawn.UserID = userID
	drawn.Card = card.String()
	drawn.TotalValue = value
	drawn.DeckCount = deckCount
	rc.notify.SendMany(recipients, drawn)
	return true
}

// dealToDealer deals the dealer's up card, or the hole card (drawn but
// withheld from the broadcast) when hole is true.
func (rc *RoundController) dealToDealer(g *Group, recipients []string, hole bool) bool {
	g.Lock()
	if g.Status != StatusPlaying || len(g.Members) == 0 {
		g.Unlock()
		return false
	}
	card := g.Draw()
	g.DealerHand = append(g.DealerHand, card)
	shown := card.String()
	value := utils.HandValue(g.DealerHand[:1])
	if hole {
		g.HoleCard = &card
		shown = HiddenCard
	}
	deckCount := len(g.Deck)
	g.Unlock()

	drawn := protocol.NewGameModel(protocol.ActionCardDrawn)
	drawn.UserID = DealerID
	drawn.Card = shown
	drawn.TotalValue = value
	drawn.DeckCount = deckCount
	rc.notify.SendMany(recipients, drawn)
	return true
}

// Advance re-evaluates whose turn it is. When every member is finished it
// runs the dealer and settlement; otherwise it announces the next unfinished
// member, in seat order.
func (rc *RoundController) Advance(g *Group) {
	g.Lock()
	if g.Status != StatusPlaying {
		g.Unlock()
		return
	}
	if len(g.Members) == 0 {
		g.Status = StatusWaiting
		g.Unlock()
		return
	}
	var next *Player
	for _, m := range g.Members {
		if !m.HasFinished {
			next = m
			break
		}
	}
	ids := g.AllIDs()
	g.Unlock()

	if next == nil {
		rc.FinishRound(g)
		return
	}
	turn := protocol.NewGameModel(protocol.ActionTurn)
	turn.UserID = next.UserID
	rc.notify.SendMany(ids, turn)
}

// FinishRound reveals the hole card, runs the dealer to completion
// (drawing while the best value is 16 or less), settles every hand, and
// reopens betting.
func (rc *RoundController) FinishRound(g *Group) {
	g.Lock()
	if g.Status != StatusPlaying {
		g.Unlock()
		return
	}
	hole := g.HoleCard
	g.HoleCard = nil
	value := utils.HandValue(g.DealerHand)
	deckCount := len(g.Deck)
	ids := g.AllIDs()
	g.Unlock()

	if hole != nil {
		reveal := protocol.NewGameModel(protocol.ActionCardDrawn)
		reveal.UserID = DealerID
		reveal.Card = hole.String()
		reveal.TotalValue = value
		reveal.DeckCount = deckCount
		rc.notify.SendMany(ids, reveal)
		rc.pause()
	}

	for {
		g.Lock()
		if g.Status != StatusPlaying {
			g.Unlock()
			return
		}
		if utils.BestValue(utils.HandValue(g.DealerHand)) >= utils.DealerStandAt {
			g.Unlock()
			break
		}
		card := g.Draw()
		g.DealerHand = append(g.DealerHand, card)
		dealerValue := utils.HandValue(g.DealerHand)
		remaining := len(g.Deck)
		g.Unlock()

		drawn := protocol.NewGameModel(protocol.ActionCardDrawn)
		drawn.UserID = DealerID
		drawn.Card = card.String()
		drawn.TotalValue = dealerValue
		drawn.DeckCount = remaining
		rc.notify.SendMany(ids, drawn)
		rc.pause()
	}

	rc.settle(g)
	g.Lock()
	g.Status = StatusWaiting // settlement complete; StartBetting reopens
	g.Unlock()
	rc.StartBetting(g)
}
