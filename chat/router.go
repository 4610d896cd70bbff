// Package chat routes player messages across the three chat scopes: the
// lobby, the sender's table and direct whispers.
package chat

import (
	"go.uber.org/zap"

	"tablejack/game"
	"tablejack/protocol"
)

// Router delivers chat messages. Scope rules follow seating: lobby chat is
// for unseated players, table chat for seated ones.
type Router struct {
	store  *game.SessionStore
	notify game.Notifier
	log    *zap.Logger
}

// NewRouter wires the chat router.
func NewRouter(store *game.SessionStore, notify game.Notifier, log *zap.Logger) *Router {
	return &Router{store: store, notify: notify, log: log}
}

// Route dispatches one chat command from the given player.
func (r *Router) Route(p *game.Player, cmd protocol.ChatCommand) {
	switch cmd.Scope {
	case protocol.ChatGlobal:
		r.global(p, cmd.Text)
	case protocol.ChatGroup:
		r.group(p, cmd.Text)
	case protocol.ChatPrivate:
		r.private(p, cmd.Target, cmd.Text)
	default:
		r.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastError, "Unknown chat scope."))
	}
}

func (r *Router) global(p *game.Player, text string) {
	if r.store.GroupForPlayer(p) != nil || r.store.GroupForWaitingRoomPlayer(p) != nil {
		r.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastWarning, "Leave your table to chat in the lobby."))
		return
	}
	msg := protocol.NewChatMessage(protocol.ChatGlobal, p.UserID, p.Name, text)
	r.notify.SendMany(r.store.PlayersOutsideGroups(), msg)
}

func (r *Router) group(p *game.Player, text string) {
	g := r.store.GroupForPlayer(p)
	if g == nil {
		g = r.store.GroupForWaitingRoomPlayer(p)
	}
	if g == nil {
		r.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastWarning, "You are not seated at a table."))
		return
	}
	g.Lock()
	ids := g.AllIDs()
	g.Unlock()
	msg := protocol.NewChatMessage(protocol.ChatGroup, p.UserID, p.Name, text)
	r.notify.SendMany(ids, msg)
}

func (r *Router) private(p *game.Player, target, text string) {
	if target == p.UserID {
		return
	}
	if r.store.TryGetExistingPlayer(target) == nil {
		r.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastWarning, "That player is not online."))
		return
	}
	msg := protocol.NewChatMessage(protocol.ChatPrivate, p.UserID, p.Name, text)
	r.notify.Send(target, msg)
	r.notify.Send(p.UserID, msg)
}
