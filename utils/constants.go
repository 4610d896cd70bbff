package utils

// Economy
const (
	StartingCredits    int64 = 1000
	BetStep            int64 = 10
	BankruptcyFloor    int64 = 10
	BankruptcyStipend  int64 = 100
	InsuranceDivisor   int64 = 2
	BlackjackNumerator int64 = 3 // 3:2 natural payout, integer-truncated
	BlackjackDivisor   int64 = 2
)

// Table limits
const (
	MaxGroupMembers   = 4
	MaxHandsPerPlayer = 4
	GroupCodeLength   = 6
)

// Deck management
const (
	ShoeDecks     = 2  // fresh shoe is two 52-card decks
	DeckLowWater  = 52 // reshuffle when at most one deck remains
	DealerStandAt = 17 // dealer draws while best value <= 16
)

// GroupCodeAlphabet is the character set for public join codes.
const GroupCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// BankruptcyLines is the flavor text pool for the stipend grant.
var BankruptcyLines = []string{
	"The house takes pity on you. Here's 100 credits, try not to lose it all.",
	"A mysterious benefactor slides 100 credits across the table.",
	"The pit boss sighs and comps you 100 credits.",
	"You found 100 credits under the table. Lucky you.",
	"Charity night at the casino: +100 credits.",
}
