package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablejack/protocol"
	"tablejack/utils"
)

func TestCreateSeatsPlayer(t *testing.T) {
	f := newFixture()
	p := NewPlayer("u1", "Ann", 500)
	f.store.RegisterPlayer(p)

	f.manager.Create(p)

	g := f.store.GroupForPlayer(p)
	require.NotNil(t, g)
	assert.Len(t, g.Code, utils.GroupCodeLength)
	assert.Equal(t, StatusWaiting, g.Status)

	n, ok := f.notify.lastNotification(p.UserID)
	require.True(t, ok)
	assert.Equal(t, protocol.ToastSuccess, n.Toast)
}

func TestCreateLeavesPreviousTable(t *testing.T) {
	f := newFixture()
	p := NewPlayer("u1", "Ann", 500)
	f.store.RegisterPlayer(p)

	f.manager.Create(p)
	first := f.store.GroupForPlayer(p)
	f.manager.Create(p)
	second := f.store.GroupForPlayer(p)

	require.NotNil(t, second)
	assert.NotEqual(t, first.Code, second.Code)
	// The emptied table is gone.
	assert.Nil(t, f.store.GetGroup(first.Code))
}

func TestJoinUnknownTable(t *testing.T) {
	f := newFixture()
	p := NewPlayer("u1", "Ann", 500)
	f.store.RegisterPlayer(p)

	f.manager.Join(p, "NOPE99")

	n, ok := f.notify.lastNotification(p.UserID)
	require.True(t, ok)
	assert.Equal(t, protocol.ToastWarning, n.Toast)
}

func TestJoinIsIdempotent(t *testing.T) {
	f := newFixture()
	p := NewPlayer("u1", "Ann", 500)
	g := f.seat(p)

	f.manager.Join(p, g.Code)

	assert.Equal(t, 1, g.Occupancy())
	n, ok := f.notify.lastNotification(p.UserID)
	require.True(t, ok)
	assert.Equal(t, protocol.ToastInfo, n.Toast)
}

func TestJoinFullTable(t *testing.T) {
	f := newFixture()
	g := f.seat(
		NewPlayer("a", "A", 500),
		NewPlayer("b", "B", 500),
		NewPlayer("c", "C", 500),
		NewPlayer("d", "D", 500),
	)
	late := NewPlayer("e", "E", 500)
	f.store.RegisterPlayer(late)

	f.manager.Join(late, g.Code)

	assert.Equal(t, 4, g.Occupancy())
	assert.Nil(t, f.store.GroupForPlayer(late))
	n, ok := f.notify.lastNotification(late.UserID)
	require.True(t, ok)
	assert.Equal(t, protocol.ToastWarning, n.Toast)
}

func TestJoinMidRoundWaits(t *testing.T) {
	f := newFixture()
	a := NewPlayer("a", "Ann", 500)
	g := f.seat(a)
	g.Status = StatusPlaying
	g.Deck = filler(60)

	late := NewPlayer("b", "Bob", 500)
	f.store.RegisterPlayer(late)
	f.manager.Join(late, g.Code)

	assert.Nil(t, f.store.GroupForPlayer(late))
	require.NotNil(t, f.store.GroupForWaitingRoomPlayer(late))
	assert.Equal(t, 2, g.Occupancy())
}

func TestWaitingRoomPromotedAtBetting(t *testing.T) {
	f := newFixture()
	a := NewPlayer("a", "Ann", 500)
	b := NewPlayer("b", "Bob", 500)
	g := f.seat(a)
	f.store.RegisterPlayer(b)
	g.WaitingRoom = append(g.WaitingRoom, b)

	f.rounds.StartBetting(g)

	assert.Equal(t, StatusBetting, g.Status)
	assert.True(t, g.HasMember("b"))
	assert.Empty(t, g.WaitingRoom)
}

func TestReadyMajorityStartsBetting(t *testing.T) {
	f := newFixture()
	a := NewPlayer("a", "Ann", 500)
	b := NewPlayer("b", "Bob", 500)
	g := f.seat(a, b)

	f.manager.Ready(a)
	assert.Equal(t, StatusWaiting, g.Status) // 1/2 is not a strict majority

	f.manager.Ready(b)
	assert.Equal(t, StatusBetting, g.Status)
}

func TestReadyRejectedMidRound(t *testing.T) {
	f := newFixture()
	a := NewPlayer("a", "Ann", 500)
	g := f.seat(a)
	g.Deck = filler(10)

	f.manager.Ready(a)

	assert.False(t, a.IsReady)
	n, ok := f.notify.lastNotification(a.UserID)
	require.True(t, ok)
	assert.Equal(t, protocol.ToastWarning, n.Toast)
}

func TestLeaveDeletesEmptyTable(t *testing.T) {
	f := newFixture()
	p := NewPlayer("u1", "Ann", 500)
	g := f.seat(p)

	f.manager.Leave(p)

	assert.Nil(t, f.store.GetGroup(g.Code))
	assert.Nil(t, f.store.GroupForPlayer(p))
}

func TestLeaveWithoutSeat(t *testing.T) {
	f := newFixture()
	p := NewPlayer("u1", "Ann", 500)
	f.store.RegisterPlayer(p)

	f.manager.Leave(p)

	n, ok := f.notify.lastNotification(p.UserID)
	require.True(t, ok)
	assert.Equal(t, ErrNoGroup.Error(), n.Text)
}

// A blocker leaving mid-round must not stall the remaining players.
func TestLeaveUnblocksRound(t *testing.T) {
	f := newFixture()
	a := NewPlayer("a", "Ann", 400)
	b := NewPlayer("b", "Bob", 400)
	g := f.seat(a, b)
	startPlaying(g, []utils.Card{card("10", "H"), card("7", "H")}, map[string]int64{"a": 100, "b": 100})
	a.Hands = []*Hand{{Cards: []utils.Card{card("10", "S"), card("6", "S")}}}
	b.Hands = []*Hand{{Cards: []utils.Card{card("10", "D"), card("9", "D")}, IsFinished: true}}
	b.HasFinished = true

	f.manager.Leave(a)

	// Bob's 19 beats the dealer's 17 and the table reopens.
	assert.Equal(t, int64(600), b.Credits)
	assert.Equal(t, StatusBetting, g.Status)
	assert.False(t, g.HasMember("a"))
}

// A member who leaves while cards are going out is skipped for the rest of
// the deal; the sequence runs to completion for everyone else.
func TestLeaveMidDealSkipsDepartedMember(t *testing.T) {
	f := newFixture()
	a := NewPlayer("a", "Ann", 500)
	b := NewPlayer("b", "Bob", 500)
	g := f.seat(a, b)
	g.Status = StatusBetting
	g.Deck = append([]utils.Card{
		card("10", "H"), // a, first pass
		card("5", "H"),  // b, first pass; the leave fires on this broadcast
		card("9", "H"),  // dealer up card
		card("9", "S"),  // a, second pass
		card("5", "S"),  // hole; b's second-pass slot is skipped entirely
	}, filler(48)...)

	var left bool
	f.notify.onSend = func(_ string, msg protocol.Outbound) {
		gm, ok := msg.(protocol.GameModel)
		if !ok || gm.Action != protocol.ActionCardDrawn || gm.UserID != "b" || left {
			return
		}
		left = true
		f.manager.Leave(b)
	}

	f.engine.Bet(a, 100)
	f.engine.Bet(b, 100)

	assert.False(t, g.HasMember("b"))
	require.Len(t, a.Hands, 1)
	assert.Equal(t, "19", a.Hands[0].Value())
	require.NotNil(t, g.HoleCard)
	assert.Equal(t, "5S", g.HoleCard.String())
	assert.Equal(t, StatusPlaying, g.Status)

	dealtToBob := 0
	for _, msg := range f.notify.messagesFor("a") {
		if gm, ok := msg.(protocol.GameModel); ok && gm.Action == protocol.ActionCardDrawn && gm.UserID == "b" {
			dealtToBob++
		}
	}
	assert.Equal(t, 1, dealtToBob)
}

func TestLeaveDuringBettingStartsRoundWhenRestHaveBet(t *testing.T) {
	f := newFixture()
	a := NewPlayer("a", "Ann", 500)
	b := NewPlayer("b", "Bob", 500)
	g := f.seat(a, b)
	g.Status = StatusBetting
	g.Deck = filler(53)
	f.engine.Bet(b, 100)

	f.manager.Leave(a)

	assert.Equal(t, StatusPlaying, g.Status)
	require.Len(t, b.Hands, 1)
	assert.Len(t, b.Hands[0].Cards, 2)
}

func TestCheckGroupAndLobby(t *testing.T) {
	f := newFixture()
	p := NewPlayer("u1", "Ann", 500)
	g := f.seat(p)

	f.manager.CheckGroup(p)
	msgs := f.notify.messagesFor(p.UserID)
	require.NotEmpty(t, msgs)
	gm, ok := msgs[len(msgs)-1].(protocol.GroupModel)
	require.True(t, ok)
	assert.Equal(t, g.Code, gm.GroupID)

	outsider := NewPlayer("u2", "Bob", 500)
	f.store.RegisterPlayer(outsider)
	f.manager.ShowLobby(outsider)
	msgs = f.notify.messagesFor(outsider.UserID)
	require.NotEmpty(t, msgs)
	lm, ok := msgs[len(msgs)-1].(protocol.LobbyModel)
	require.True(t, ok)
	require.Len(t, lm.Groups, 1)
	assert.Equal(t, 1, lm.Groups[0].PlayerCount)
}
