package game

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"tablejack/models"
	"tablejack/protocol"
	"tablejack/utils"
)

// Rule violations. Each maps to a warning toast for the acting player; the
// request is dropped with no partial state change.
var (
	ErrNoGroup             = errors.New("you are not seated at a table")
	ErrNotBetting          = errors.New("betting is not open")
	ErrAlreadyBet          = errors.New("you already placed a bet this round")
	ErrBadBetAmount        = errors.New("bet must be a positive multiple of 10")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNotPlaying          = errors.New("no round in progress")
	ErrDealIncomplete      = errors.New("cards are still being dealt")
	ErrAlreadyFinished     = errors.New("your turn is already complete")
	ErrNotYourTurn         = errors.New("it is not your turn")
	ErrDoubleFirstTwo      = errors.New("double is only allowed on a two-card hand")
	ErrSurrenderShape      = errors.New("surrender is only allowed on your only two-card hand")
	ErrInsureShape         = errors.New("insurance requires a single two-card hand")
	ErrInsureNoAce         = errors.New("insurance is only offered when the dealer shows an ace")
	ErrAlreadyInsured      = errors.New("insurance already taken")
	ErrSplitShape          = errors.New("split requires two cards of the same rank")
	ErrSplitLimit          = errors.New("you cannot split into more than 4 hands")
)

// errAnomaly marks consistency defects: logged server-side and reported to
// the whole group as a generic failure, never as a user-facing rule.
var errAnomaly = errors.New("inconsistent turn state")

// Engine applies player actions to the table they sit at. Phase transitions
// are delegated to the RoundController.
type Engine struct {
	store  *SessionStore
	notify Notifier
	sink   EventSink
	rounds *RoundController
	log    *zap.Logger
}

// NewEngine wires the action engine.
func NewEngine(store *SessionStore, notify Notifier, sink EventSink, rounds *RoundController, log *zap.Logger) *Engine {
	return &Engine{store: store, notify: notify, sink: sink, rounds: rounds, log: log}
}

func (e *Engine) warn(p *Player, err error) {
	e.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastWarning, err.Error()))
}

func (e *Engine) anomaly(g *Group, p *Player, what string) {
	e.log.Error("turn state anomaly",
		zap.String("group", g.Code),
		zap.String("user_id", p.UserID),
		zap.String("what", what))
	g.Lock()
	ids := g.AllIDs()
	g.Unlock()
	e.notify.SendMany(ids, protocol.NewNotification(protocol.ToastError, "Something went wrong at the table, try again later."))
}

// checkTurn validates that the player may act right now. Group lock held by
// the caller.
func (e *Engine) checkTurn(g *Group, p *Player) error {
	if g.Status != StatusPlaying {
		return ErrNotPlaying
	}
	if len(g.DealerHand) < 2 {
		return ErrDealIncomplete
	}
	if !g.HasMember(p.UserID) {
		return errAnomaly
	}
	if p.HasFinished {
		return ErrAlreadyFinished
	}
	for _, m := range g.Members {
		if m.UserID == p.UserID {
			return nil
		}
		if !m.HasFinished {
			return ErrNotYourTurn
		}
	}
	return errAnomaly
}

// record writes one row to the durable action log.
func (e *Engine) record(g *Group, p *Player, action, result, payload string, round int) {
	e.sink.Record(models.GameEvent{
		UserID:   p.UserID,
		GroupUID: g.UniqueID,
		Action:   action,
		Result:   result,
		Payload:  payload,
		Round:    round,
	})
}

// Bet places a stake for the current round. When the last seated member has
// bet, the round begins.
func (e *Engine) Bet(p *Player, amount int64) {
	g := e.store.GroupForPlayer(p)
	if g == nil {
		e.warn(p, ErrNoGroup)
		return
	}

	g.Lock()
	var err error
	switch {
	case g.Status != StatusBetting:
		err = ErrNotBetting
	case hasBet(g, p.UserID):
		err = ErrAlreadyBet
	case amount <= 0 || amount%utils.BetStep != 0:
		err = ErrBadBetAmount
	case amount > p.Credits:
		err = ErrInsufficientCredits
	}
	if err != nil {
		g.Unlock()
		e.warn(p, err)
		return
	}
	p.Credits -= amount
	g.Bets[p.UserID] = amount
	ids := g.AllIDs()
	round := g.Round
	g.Unlock()

	placed := protocol.NewGameModel(protocol.ActionBetPlaced)
	placed.UserID = p.UserID
	placed.Bet = amount
	e.notify.SendMany(ids, placed)
	e.record(g, p, "bet", "", strconv.FormatInt(amount, 10), round)

	e.rounds.MaybeBeginPlay(g)
}

func hasBet(g *Group, userID string) bool {
	_, ok := g.Bets[userID]
	return ok
}

// Hit draws one card into the active hand. The hand finishes at 21 or above;
// the player finishes when no unfinished hand remains.
func (e *Engine) Hit(p *Player) {
	g := e.store.GroupForPlayer(p)
	if g == nil {
		e.warn(p, ErrNoGroup)
		return
	}

	g.Lock()
	if err := e.checkTurn(g, p); err != nil {
		g.Unlock()
		e.reject(g, p, err)
		return
	}
	hand, idx := p.ActiveHand()
	if hand == nil {
		g.Unlock()
		e.anomaly(g, p, "active hand expected but absent on hit")
		return
	}
	card := g.Draw()
	hand.Cards = append(hand.Cards, card)
	value := hand.Value()
	if utils.BestValue(value) >= 21 {
		hand.IsFinished = true
	}
	playerDone := e.cascadeFinish(p)
	ids := g.AllIDs()
	round := g.Round
	deckCount := len(g.Deck)
	g.Unlock()

	hit := protocol.NewGameModel(protocol.ActionHit)
	hit.UserID = p.UserID
	hit.Card = card.String()
	hit.HandIndex = idx
	hit.TotalValue = value
	hit.DeckCount = deckCount
	e.notify.SendMany(ids, hit)
	e.record(g, p, "hit", value, card.String(), round)

	e.finishIfDone(g, p, ids, playerDone)
}

// Stand finishes the active hand without drawing.
func (e *Engine) Stand(p *Player) {
	g := e.store.GroupForPlayer(p)
	if g == nil {
		e.warn(p, ErrNoGroup)
		return
	}

	g.Lock()
	if err := e.checkTurn(g, p); err != nil {
		g.Unlock()
		e.reject(g, p, err)
		return
	}
	hand, idx := p.ActiveHand()
	if hand == nil {
		g.Unlock()
		e.anomaly(g, p, "active hand expected but absent on stand")
		return
	}
	hand.IsFinished = true
	value := hand.Value()
	playerDone := e.cascadeFinish(p)
	ids := g.AllIDs()
	round := g.Round
	g.Unlock()

	stand := protocol.NewGameModel(protocol.ActionStand)
	stand.UserID = p.UserID
	stand.HandIndex = idx
	stand.TotalValue = value
	e.notify.SendMany(ids, stand)
	e.record(g, p, "stand", value, "", round)

	e.finishIfDone(g, p, ids, playerDone)
}

// Double doubles the active hand's stake, draws exactly one card and
// force-finishes the hand. Only legal on a two-card hand with enough credits
// to match the original bet.
func (e *Engine) Double(p *Player) {
	g := e.store.GroupForPlayer(p)
	if g == nil {
		e.warn(p, ErrNoGroup)
		return
	}

	g.Lock()
	if err := e.checkTurn(g, p); err != nil {
		g.Unlock()
		e.reject(g, p, err)
		return
	}
	hand, idx := p.ActiveHand()
	if hand == nil {
		g.Unlock()
		e.anomaly(g, p, "active hand expected but absent on double")
		return
	}
	bet := g.Bets[p.UserID]
	var err error
	switch {
	case len(hand.Cards) != 2:
		err = ErrDoubleFirstTwo
	case p.Credits < bet:
		err = ErrInsufficientCredits
	}
	if err != nil {
		g.Unlock()
		e.warn(p, err)
		return
	}
	p.Credits -= bet
	hand.IsDoubled = true
	card := g.Draw()
	hand.Cards = append(hand.Cards, card)
	hand.IsFinished = true
	value := hand.Value()
	playerDone := e.cascadeFinish(p)
	ids := g.AllIDs()
	round := g.Round
	deckCount := len(g.Deck)
	g.Unlock()

	double := protocol.NewGameModel(protocol.ActionDouble)
	double.UserID = p.UserID
	double.Card = card.String()
	double.HandIndex = idx
	double.TotalValue = value
	double.Bet = bet * 2
	double.DeckCount = deckCount
	e.notify.SendMany(ids, double)
	e.record(g, p, "double", value, card.String(), round)

	e.finishIfDone(g, p, ids, playerDone)
}

// Surrender refunds half the bet, clears the hand (the settlement sentinel)
// and finishes the player. Only legal on the player's only two-card hand.
func (e *Engine) Surrender(p *Player) {
	g := e.store.GroupForPlayer(p)
	if g == nil {
		e.warn(p, ErrNoGroup)
		return
	}

	g.Lock()
	if err := e.checkTurn(g, p); err != nil {
		g.Unlock()
		e.reject(g, p, err)
		return
	}
	if len(p.Hands) != 1 || len(p.Hands[0].Cards) != 2 {
		g.Unlock()
		e.warn(p, ErrSurrenderShape)
		return
	}
	bet := g.Bets[p.UserID]
	p.Credits += bet / 2
	hand := p.Hands[0]
	hand.Cards = nil
	hand.IsFinished = true
	p.HasFinished = true
	credits := p.Credits
	ids := g.AllIDs()
	round := g.Round
	g.Unlock()

	sur := protocol.NewGameModel(protocol.ActionSurrender)
	sur.UserID = p.UserID
	sur.Credits = credits
	e.notify.SendMany(ids, sur)
	e.record(g, p, "surrender", "", strconv.FormatInt(bet/2, 10), round)

	e.finishIfDone(g, p, ids, true)
}

// Insure sells insurance against a dealer natural: half the bet, only while
// the dealer's face-up card is an ace and the player holds a single
// two-card hand.
func (e *Engine) Insure(p *Player) {
	g := e.store.GroupForPlayer(p)
	if g == nil {
		e.warn(p, ErrNoGroup)
		return
	}

	g.Lock()
	if err := e.checkTurn(g, p); err != nil {
		g.Unlock()
		e.reject(g, p, err)
		return
	}
	bet := g.Bets[p.UserID]
	cost := bet / utils.InsuranceDivisor
	var err error
	switch {
	case p.HasInsurance:
		err = ErrAlreadyInsured
	case len(p.Hands) != 1 || len(p.Hands[0].Cards) != 2:
		err = ErrInsureShape
	case len(g.DealerHand) == 0 || !g.DealerHand[0].IsAce():
		err = ErrInsureNoAce
	case p.Credits < cost:
		err = ErrInsufficientCredits
	}
	if err != nil {
		g.Unlock()
		e.warn(p, err)
		return
	}
	p.Credits -= cost
	p.HasInsurance = true
	ids := g.AllIDs()
	round := g.Round
	g.Unlock()

	ins := protocol.NewGameModel(protocol.ActionInsure)
	ins.UserID = p.UserID
	ins.Bet = cost
	e.notify.SendMany(ids, ins)
	e.record(g, p, "insure", "", strconv.FormatInt(cost, 10), round)
}

// Split replaces a two-card hand of matching ranks with two one-card hands,
// staking a matching additional bet. A player holds at most 4 hands.
func (e *Engine) Split(p *Player) {
	g := e.store.GroupForPlayer(p)
	if g == nil {
		e.warn(p, ErrNoGroup)
		return
	}

	g.Lock()
	if err := e.checkTurn(g, p); err != nil {
		g.Unlock()
		e.reject(g, p, err)
		return
	}
	hand, idx := p.ActiveHand()
	if hand == nil {
		g.Unlock()
		e.anomaly(g, p, "active hand expected but absent on split")
		return
	}
	bet := g.Bets[p.UserID]
	var err error
	switch {
	case len(hand.Cards) != 2 || hand.Cards[0].Rank != hand.Cards[1].Rank:
		err = ErrSplitShape
	case len(p.Hands) >= utils.MaxHandsPerPlayer:
		err = ErrSplitLimit
	case p.Credits < bet:
		err = ErrInsufficientCredits
	}
	if err != nil {
		g.Unlock()
		e.warn(p, err)
		return
	}
	p.Credits -= bet
	left := &Hand{Cards: []utils.Card{hand.Cards[0]}}
	right := &Hand{Cards: []utils.Card{hand.Cards[1]}}
	hands := make([]*Hand, 0, len(p.Hands)+1)
	hands = append(hands, p.Hands[:idx]...)
	hands = append(hands, left, right)
	hands = append(hands, p.Hands[idx+1:]...)
	p.Hands = hands
	ids := g.AllIDs()
	round := g.Round
	g.Unlock()

	split := protocol.NewGameModel(protocol.ActionSplit)
	split.UserID = p.UserID
	split.HandIndex = idx
	split.Bet = bet
	e.notify.SendMany(ids, split)
	e.record(g, p, "split", "", fmt.Sprintf("%d hands", len(hands)), round)
}

// cascadeFinish marks the player finished when no unfinished hand remains.
// Group lock held by the caller. Reports whether the player just finished.
func (e *Engine) cascadeFinish(p *Player) bool {
	if p.HasFinished {
		return false
	}
	if h, _ := p.ActiveHand(); h == nil {
		p.HasFinished = true
		return true
	}
	return false
}

// finishIfDone announces a finished player and hands turn progression to the
// round controller.
func (e *Engine) finishIfDone(g *Group, p *Player, ids []string, done bool) {
	if !done {
		return
	}
	fin := protocol.NewGameModel(protocol.ActionPlayerFinished)
	fin.UserID = p.UserID
	e.notify.SendMany(ids, fin)
	e.rounds.Advance(g)
}

// reject maps a turn-gate failure to the right channel: rule violations go
// to the actor as a warning, anomalies to the whole group.
func (e *Engine) reject(g *Group, p *Player, err error) {
	if errors.Is(err, errAnomaly) {
		e.anomaly(g, p, err.Error())
		return
	}
	e.warn(p, err)
}
