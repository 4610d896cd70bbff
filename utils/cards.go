package utils

import (
	"math/rand"
	"strconv"
	"strings"
)

// Card represents a playing card.
type Card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// CardRanks maps a rank to its blackjack value. Aces are nominally 11; the
// soft/hard resolution happens in HandValue.
var CardRanks = map[string]int{
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
	"J": 10, "Q": 10, "K": 10, "A": 11,
}

// CardSuits defines the available card suits.
var CardSuits = []string{"S", "H", "D", "C"}

var cardRankOrder = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// String returns the card's display form, e.g. "KH" or "10S". Clients map
// this to an asset file name; the server treats it as opaque.
func (c Card) String() string {
	return c.Rank + c.Suit
}

// Value returns the blackjack value of the card (A=11).
func (c Card) Value() int {
	return CardRanks[c.Rank]
}

// IsAce checks if the card is an Ace.
func (c Card) IsAce() bool {
	return c.Rank == "A"
}

// NewShoe builds numDecks concatenated 52-card decks and shuffles them with
// the provided rng.
func NewShoe(numDecks int, rng *rand.Rand) []Card {
	shoe := make([]Card, 0, numDecks*52)
	for d := 0; d < numDecks; d++ {
		for _, suit := range CardSuits {
			for _, rank := range cardRankOrder {
				shoe = append(shoe, Card{Rank: rank, Suit: suit})
			}
		}
	}
	rng.Shuffle(len(shoe), func(i, j int) {
		shoe[i], shoe[j] = shoe[j], shoe[i]
	})
	return shoe
}

// HandValue computes the blackjack value string of a hand. Hands containing
// a usable ace report both representations as "low/high" (e.g. {5,5,A} is
// "11/21"); otherwise a single number. An empty hand reports "0", the
// surrender sentinel.
func HandValue(cards []Card) string {
	sum := 0
	aces := 0
	for _, c := range cards {
		if c.IsAce() {
			aces++
		} else {
			sum += c.Value()
		}
	}
	if aces == 0 {
		return strconv.Itoa(sum)
	}
	low := sum + aces
	high := sum + aces + 10 // one ace promoted to 11
	if high <= 21 {
		return strconv.Itoa(low) + "/" + strconv.Itoa(high)
	}
	return strconv.Itoa(low)
}

// BestValue resolves a value string from HandValue to the best playable
// total: the high representation when it fits under 21, the low otherwise.
func BestValue(value string) int {
	if lowStr, highStr, found := strings.Cut(value, "/"); found {
		high, _ := strconv.Atoi(highStr)
		if high <= 21 {
			return high
		}
		low, _ := strconv.Atoi(lowStr)
		return low
	}
	v, _ := strconv.Atoi(value)
	return v
}

// IsNatural checks for a natural blackjack: 21 from exactly two cards.
func IsNatural(cards []Card) bool {
	return len(cards) == 2 && BestValue(HandValue(cards)) == 21
}
