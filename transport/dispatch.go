package transport

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tablejack/game"
	"tablejack/protocol"
)

const retrieveTimeout = 5 * time.Second

// handleMessage decodes one inbound frame and routes it. Runs on the
// session's read pump, so per-conn state needs no locking here.
func (s *Server) handleMessage(c *Conn, data []byte) {
	env, cmd, err := protocol.Decode(data)
	if err != nil {
		s.reply(c, protocol.NewNotification(protocol.ToastError, err.Error()))
		return
	}

	if _, ok := cmd.(protocol.AckCommand); ok {
		s.ack(c, env.Token)
		return
	}

	p := s.playerFor(c, env.Token)
	if p == nil {
		return
	}

	switch v := cmd.(type) {
	case protocol.ChatCommand:
		s.chat.Route(p, v)
	case protocol.GroupCommand:
		s.groupCommand(p, v)
	case protocol.GameCommand:
		s.gameCommand(p, v)
	}
}

// reply writes straight to the session, bypassing user routing. Used before
// the session has an identity.
func (s *Server) reply(c *Conn, msg protocol.Outbound) {
	if data := encode(msg, s.log); data != nil {
		c.enqueue(data)
	}
}

// ack binds a verified identity to this session and loads the account.
func (s *Server) ack(c *Conn, token string) {
	userID, name, err := s.auth.ResolveToken(token)
	if err != nil {
		s.reply(c, protocol.NewNotification(protocol.ToastError, err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), retrieveTimeout)
	credits, err := s.credits.RetrieveCredits(ctx, userID, name)
	cancel()
	if err != nil {
		s.log.Error("account load failed", zap.String("user_id", userID), zap.Error(err))
		s.reply(c, protocol.NewNotification(protocol.ToastError, "Could not load your account, try again later."))
		return
	}

	p := s.store.TryGetExistingPlayer(userID)
	if p == nil {
		p = game.NewPlayer(userID, name, credits)
		s.store.RegisterPlayer(p)
	}
	s.store.LinkUserToSession(userID, c.ID)
	c.UserID = userID

	s.log.Info("session authenticated", zap.String("session", c.ID), zap.String("user_id", userID))
	s.reply(c, protocol.NewNotification(protocol.ToastSuccess, "Welcome to the table, "+name+"."))
	update := protocol.NewGameModel(protocol.ActionCreditsUpdate)
	update.UserID = userID
	update.Credits = p.Credits
	s.reply(c, update)
}

// playerFor resolves the acting player for a non-ack command. Sessions that
// skipped the ack are bound here from the same token.
func (s *Server) playerFor(c *Conn, token string) *game.Player {
	if c.UserID != "" {
		if p := s.store.TryGetExistingPlayer(c.UserID); p != nil {
			return p
		}
	}
	s.ack(c, token)
	if c.UserID == "" {
		return nil
	}
	return s.store.TryGetExistingPlayer(c.UserID)
}

func (s *Server) groupCommand(p *game.Player, cmd protocol.GroupCommand) {
	switch cmd.Verb {
	case protocol.GroupCreate:
		s.manager.Create(p)
	case protocol.GroupJoin:
		s.manager.Join(p, cmd.GroupID)
	case protocol.GroupLeave:
		s.manager.Leave(p)
	case protocol.GroupReady:
		s.manager.Ready(p)
	case protocol.GroupUnready:
		s.manager.Unready(p)
	case protocol.GroupCheck:
		s.manager.CheckGroup(p)
	case protocol.GroupLobby:
		s.manager.ShowLobby(p)
	}
}

func (s *Server) gameCommand(p *game.Player, cmd protocol.GameCommand) {
	switch cmd.Verb {
	case protocol.GameBet:
		s.engine.Bet(p, cmd.Amount)
	case protocol.GameHit:
		s.engine.Hit(p)
	case protocol.GameStand:
		s.engine.Stand(p)
	case protocol.GameDouble:
		s.engine.Double(p)
	case protocol.GameSplit:
		s.engine.Split(p)
	case protocol.GameInsure:
		s.engine.Insure(p)
	case protocol.GameSurrender:
		s.engine.Surrender(p)
	}
}
