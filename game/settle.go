package game

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"tablejack/models"
	"tablejack/protocol"
	"tablejack/utils"
)

// Per-hand settlement outcomes.
const (
	OutcomeSurrender = "surrender"
	OutcomeBust      = "bust"
	OutcomePush      = "push"
	OutcomeBlackjack = "blackjack"
	OutcomeLose      = "lose"
	OutcomeWin       = "win"
)

type memberSettlement struct {
	player   *Player
	outcomes []string
	earnings int64
	losses   int64
	credits  int64
	stipend  string
}

// settle resolves every hand of every member against the completed dealer
// hand, applies credit mutations under the group lock, then fans out results
// and persists outside of it.
func (rc *RoundController) settle(g *Group) {
	g.Lock()
	dealerBest := utils.BestValue(utils.HandValue(g.DealerHand))
	dealerNatural := utils.IsNatural(g.DealerHand)

	results := make([]memberSettlement, 0, len(g.Members))
	for _, m := range g.Members {
		bet := g.Bets[m.UserID]
		res := memberSettlement{player: m}
		insuranceSettled := false

		for _, h := range m.Hands {
			// Surrendered hands carry the cleared-cards sentinel and skip
			// every other check.
			if len(h.Cards) == 0 {
				res.losses += bet / 2
				res.outcomes = append(res.outcomes, OutcomeSurrender)
				continue
			}

			// Insurance resolves once, independent of the hand outcome.
			if m.HasInsurance && !insuranceSettled {
				insuranceSettled = true
				if dealerNatural {
					m.Credits += bet // half-bet stake back plus 1:1 payout
					res.earnings += bet / utils.InsuranceDivisor
				} else {
					res.losses += bet / utils.InsuranceDivisor
				}
			}

			stake := bet
			if h.IsDoubled {
				stake = bet * 2
			}
			best := h.Best()
			switch {
			case best > 21:
				res.losses += stake
				res.outcomes = append(res.outcomes, OutcomeBust)
			case best == dealerBest:
				m.Credits += stake
				res.outcomes = append(res.outcomes, OutcomePush)
			case best == 21 && len(h.Cards) == 2:
				bonus := bet * utils.BlackjackNumerator / utils.BlackjackDivisor
				m.Credits += bet + bonus
				res.earnings += bonus
				res.outcomes = append(res.outcomes, OutcomeBlackjack)
			case dealerBest > best && dealerBest <= 21:
				res.losses += stake
				res.outcomes = append(res.outcomes, OutcomeLose)
			default: // player higher, or dealer bust
				m.Credits += stake * 2
				res.earnings += stake
				res.outcomes = append(res.outcomes, OutcomeWin)
			}
		}

		if m.Credits < utils.BankruptcyFloor {
			m.Credits += utils.BankruptcyStipend
			res.stipend = utils.BankruptcyLines[rc.pickLine()]
		}
		res.credits = m.Credits
		results = append(results, res)
	}

	uid := g.UniqueID
	round := g.Round
	ids := g.AllIDs()
	g.Unlock()

	for _, res := range results {
		outcome := strings.Join(res.outcomes, ",")

		finished := protocol.NewGameModel(protocol.ActionGameFinished)
		finished.UserID = res.player.UserID
		finished.Result = outcome
		finished.Bet = res.earnings
		rc.notify.SendMany(ids, finished)

		if res.stipend != "" {
			rc.notify.Send(res.player.UserID, protocol.NewNotification(protocol.ToastDefault, res.stipend))
		}

		rc.persist(res)

		update := protocol.NewGameModel(protocol.ActionCreditsUpdate)
		update.UserID = res.player.UserID
		update.Credits = res.credits
		rc.notify.Send(res.player.UserID, update)

		rc.sink.Record(models.GameEvent{
			UserID:   res.player.UserID,
			GroupUID: uid,
			Action:   "game_finished",
			Result:   outcome,
			Round:    round,
		})
	}
}

// persist syncs a member's credits and statistics to durable storage.
// Failures are logged and swallowed so a storage outage never blocks the
// table; the in-memory balance stays authoritative for the session.
func (rc *RoundController) persist(res memberSettlement) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rc.credits.UpdateCredits(ctx, res.player.UserID, res.credits); err != nil {
		rc.log.Error("credit sync failed, in-memory balance may drift from storage",
			zap.String("user_id", res.player.UserID),
			zap.Int64("credits", res.credits),
			zap.Error(err))
	}
	if err := rc.credits.UpdateStatistics(ctx, res.player.UserID, res.earnings, res.losses); err != nil {
		rc.log.Error("statistics sync failed",
			zap.String("user_id", res.player.UserID),
			zap.Error(err))
	}
}

func (rc *RoundController) pickLine() int {
	rc.rngMu.Lock()
	defer rc.rngMu.Unlock()
	return rc.rng.Intn(len(utils.BankruptcyLines))
}
