package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound message categories.
const (
	CategoryChat        = "chat"
	CategoryGroup       = "group"
	CategoryGame        = "game"
	CategoryAcknowledge = "acknowledge"
)

var (
	ErrBadEnvelope    = errors.New("protocol: missing category or action")
	ErrMissingToken   = errors.New("protocol: missing token")
	ErrUnknownCommand = errors.New("protocol: unknown command")
)

// Envelope is the raw inbound frame. Token resolution happens in the
// transport layer; the core only ever sees an already-bound player.
type Envelope struct {
	Category string `json:"category"`
	Action   string `json:"action"`
	Token    string `json:"token"`
	GroupID  string `json:"group_id,omitempty"`
	Target   string `json:"target,omitempty"`
	Text     string `json:"text,omitempty"`
	Amount   int64  `json:"amount,omitempty"`
}

// Command is the typed form of an inbound request, keyed by
// (category, action). Unknown tags are rejected here, centrally, instead of
// inside each handler.
type Command interface {
	isCommand()
}

// AckCommand binds the token's resolved identity to the connection.
type AckCommand struct{}

// Chat scopes.
const (
	ChatGlobal  = "global"
	ChatGroup   = "group"
	ChatPrivate = "private"
)

// ChatCommand routes a chat line to a scope.
type ChatCommand struct {
	Scope  string
	Target string
	Text   string
}

// Group lifecycle verbs.
const (
	GroupCreate  = "create_group"
	GroupJoin    = "join_group"
	GroupLeave   = "leave_group"
	GroupReady   = "ready"
	GroupUnready = "unready"
	GroupCheck   = "check_group"
	GroupLobby   = "show_lobby"
)

// GroupCommand is a table lifecycle request.
type GroupCommand struct {
	Verb    string
	GroupID string
}

// Game action verbs.
const (
	GameBet       = "bet"
	GameHit       = "hit"
	GameStand     = "stand"
	GameDouble    = "double"
	GameSplit     = "split"
	GameInsure    = "insure"
	GameSurrender = "surrender"
)

// GameCommand is an in-round action request.
type GameCommand struct {
	Verb   string
	Amount int64
}

func (AckCommand) isCommand()   {}
func (ChatCommand) isCommand()  {}
func (GroupCommand) isCommand() {}
func (GameCommand) isCommand()  {}

// Decode parses a raw frame into its envelope and typed command.
func Decode(data []byte) (Envelope, Command, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if env.Category == "" || env.Action == "" {
		return env, nil, ErrBadEnvelope
	}
	if env.Token == "" {
		return env, nil, ErrMissingToken
	}

	switch env.Category {
	case CategoryAcknowledge:
		return env, AckCommand{}, nil

	case CategoryChat:
		switch env.Action {
		case ChatGlobal, ChatGroup, ChatPrivate:
			return env, ChatCommand{Scope: env.Action, Target: env.Target, Text: env.Text}, nil
		}
		// Unknown destination tokens still reach the router, which answers
		// with an error notification rather than a protocol error.
		return env, ChatCommand{Scope: env.Action, Target: env.Target, Text: env.Text}, nil

	case CategoryGroup:
		switch env.Action {
		case GroupCreate, GroupJoin, GroupLeave, GroupReady, GroupUnready, GroupCheck, GroupLobby:
			return env, GroupCommand{Verb: env.Action, GroupID: env.GroupID}, nil
		}
		return env, nil, fmt.Errorf("%w: %s/%s", ErrUnknownCommand, env.Category, env.Action)

	case CategoryGame:
		switch env.Action {
		case GameBet, GameHit, GameStand, GameDouble, GameSplit, GameInsure, GameSurrender:
			return env, GameCommand{Verb: env.Action, Amount: env.Amount}, nil
		}
		return env, nil, fmt.Errorf("%w: %s/%s", ErrUnknownCommand, env.Category, env.Action)
	}
	return env, nil, fmt.Errorf("%w: %s", ErrUnknownCommand, env.Category)
}
