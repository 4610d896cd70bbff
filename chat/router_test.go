package chat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tablejack/game"
	"tablejack/protocol"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent map[string][]protocol.Outbound
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{sent: make(map[string][]protocol.Outbound)}
}

func (c *captureNotifier) Send(userID string, msg protocol.Outbound) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent[userID] = append(c.sent[userID], msg)
}

func (c *captureNotifier) SendMany(userIDs []string, msg protocol.Outbound) {
	for _, id := range userIDs {
		c.Send(id, msg)
	}
}

func (c *captureNotifier) Broadcast(msg protocol.Outbound) {
	c.Send("*", msg)
}

func (c *captureNotifier) received(userID string) []protocol.Outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent[userID]
}

func setup() (*game.SessionStore, *captureNotifier, *Router) {
	store := game.NewSessionStore()
	notify := newCaptureNotifier()
	return store, notify, NewRouter(store, notify, zap.NewNop())
}

func player(store *game.SessionStore, id, name string) *game.Player {
	p := game.NewPlayer(id, name, 1000)
	store.RegisterPlayer(p)
	return p
}

func seat(store *game.SessionStore, code string, players ...*game.Player) *game.Group {
	g := game.NewGroup(code)
	store.RegisterGroup(g)
	g.Members = append(g.Members, players...)
	return g
}

func TestGlobalChatReachesLobbyOnly(t *testing.T) {
	store, notify, router := setup()
	sender := player(store, "s", "Sender")
	lobbyist := player(store, "l", "Lobbyist")
	seated := player(store, "g", "Gamer")
	seat(store, "TBL001", seated)

	router.Route(sender, protocol.ChatCommand{Scope: protocol.ChatGlobal, Text: "hi all"})

	require.Len(t, notify.received(lobbyist.UserID), 1)
	msg, ok := notify.received(lobbyist.UserID)[0].(protocol.ChatMessage)
	require.True(t, ok)
	assert.Equal(t, "hi all", msg.Text)
	assert.Equal(t, "Sender", msg.Name)
	assert.Empty(t, notify.received(seated.UserID))
}

func TestGlobalChatBlockedWhileSeated(t *testing.T) {
	store, notify, router := setup()
	sender := player(store, "s", "Sender")
	lobbyist := player(store, "l", "Lobbyist")
	seat(store, "TBL001", sender)

	router.Route(sender, protocol.ChatCommand{Scope: protocol.ChatGlobal, Text: "hi"})

	assert.Empty(t, notify.received(lobbyist.UserID))
	msgs := notify.received(sender.UserID)
	require.Len(t, msgs, 1)
	n, ok := msgs[0].(protocol.Notification)
	require.True(t, ok)
	assert.Equal(t, protocol.ToastWarning, n.Toast)
}

func TestGroupChatIncludesWaitingRoom(t *testing.T) {
	store, notify, router := setup()
	sender := player(store, "s", "Sender")
	mate := player(store, "m", "Mate")
	waiter := player(store, "w", "Waiter")
	outsider := player(store, "o", "Outsider")
	g := seat(store, "TBL001", sender, mate)
	g.WaitingRoom = append(g.WaitingRoom, waiter)

	router.Route(sender, protocol.ChatCommand{Scope: protocol.ChatGroup, Text: "nice hand"})

	assert.Len(t, notify.received(mate.UserID), 1)
	assert.Len(t, notify.received(waiter.UserID), 1)
	assert.Len(t, notify.received(sender.UserID), 1)
	assert.Empty(t, notify.received(outsider.UserID))
}

func TestGroupChatWithoutSeat(t *testing.T) {
	store, notify, router := setup()
	sender := player(store, "s", "Sender")

	router.Route(sender, protocol.ChatCommand{Scope: protocol.ChatGroup, Text: "hello?"})

	msgs := notify.received(sender.UserID)
	require.Len(t, msgs, 1)
	n, ok := msgs[0].(protocol.Notification)
	require.True(t, ok)
	assert.Equal(t, protocol.ToastWarning, n.Toast)
}

func TestPrivateChatEchoesSender(t *testing.T) {
	store, notify, router := setup()
	sender := player(store, "s", "Sender")
	target := player(store, "t", "Target")

	router.Route(sender, protocol.ChatCommand{Scope: protocol.ChatPrivate, Target: "t", Text: "psst"})

	require.Len(t, notify.received(target.UserID), 1)
	require.Len(t, notify.received(sender.UserID), 1)
	msg := notify.received(target.UserID)[0].(protocol.ChatMessage)
	assert.Equal(t, protocol.ChatPrivate, msg.Scope)
	assert.Equal(t, "psst", msg.Text)
}

func TestPrivateChatToSelfDropped(t *testing.T) {
	store, notify, router := setup()
	sender := player(store, "s", "Sender")

	router.Route(sender, protocol.ChatCommand{Scope: protocol.ChatPrivate, Target: "s", Text: "me"})

	assert.Empty(t, notify.received(sender.UserID))
}

func TestPrivateChatUnknownTarget(t *testing.T) {
	store, notify, router := setup()
	sender := player(store, "s", "Sender")

	router.Route(sender, protocol.ChatCommand{Scope: protocol.ChatPrivate, Target: "ghost", Text: "boo"})

	msgs := notify.received(sender.UserID)
	require.Len(t, msgs, 1)
	n, ok := msgs[0].(protocol.Notification)
	require.True(t, ok)
	assert.Equal(t, protocol.ToastWarning, n.Toast)
}

func TestUnknownScope(t *testing.T) {
	store, notify, router := setup()
	sender := player(store, "s", "Sender")

	router.Route(sender, protocol.ChatCommand{Scope: "shout", Text: "??"})

	msgs := notify.received(sender.UserID)
	require.Len(t, msgs, 1)
	n, ok := msgs[0].(protocol.Notification)
	require.True(t, ok)
	assert.Equal(t, protocol.ToastError, n.Toast)
}
