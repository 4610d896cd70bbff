package protocol

// Outbound is a typed payload the transport serializes to one or more
// sockets. The Kind discriminator tells the client how to decode the rest.
type Outbound interface {
	isOutbound()
}

// Toast levels for Notification.
const (
	ToastInfo    = "info"
	ToastSuccess = "success"
	ToastWarning = "warning"
	ToastError   = "error"
	ToastDefault = "default"
)

// Notification is a per-player toast.
type Notification struct {
	Kind  string `json:"kind"`
	Toast string `json:"toast"`
	Text  string `json:"text"`
}

// NewNotification builds a toast payload.
func NewNotification(toast, text string) Notification {
	return Notification{Kind: "notification", Toast: toast, Text: text}
}

// GroupNotification is a group-scoped banner.
type GroupNotification struct {
	Kind    string `json:"kind"`
	GroupID string `json:"group_id"`
	Text    string `json:"text"`
}

// NewGroupNotification builds a group banner payload.
func NewGroupNotification(groupID, text string) GroupNotification {
	return GroupNotification{Kind: "group_notification", GroupID: groupID, Text: text}
}

// Game model actions.
const (
	ActionTurn           = "TURN"
	ActionCreditsUpdate  = "CREDITS_UPDATE"
	ActionCardDrawn      = "CARD_DRAWN"
	ActionBetPlaced      = "BET_PLACED"
	ActionGameFinished   = "GAME_FINISHED"
	ActionGameStarted    = "GAME_STARTED"
	ActionPlayerFinished = "PLAYER_FINISHED"
	ActionHit            = "HIT"
	ActionStand          = "STAND"
	ActionSplit          = "SPLIT"
	ActionInsure         = "INSURE"
	ActionDouble         = "DOUBLE"
	ActionSurrender      = "SURRENDER"
)

// GameModel carries one in-round state change. Only the fields relevant to
// the action are populated.
type GameModel struct {
	Kind       string `json:"kind"`
	Action     string `json:"action"`
	UserID     string `json:"user_id,omitempty"`
	Card       string `json:"card,omitempty"`
	HandIndex  int    `json:"hand_index"`
	TotalValue string `json:"total_value,omitempty"`
	Bet        int64  `json:"bet,omitempty"`
	Credits    int64  `json:"credits,omitempty"`
	DeckCount  int    `json:"deck_count,omitempty"`
	Result     string `json:"result,omitempty"`
}

// NewGameModel builds a game payload for the given action.
func NewGameModel(action string) GameModel {
	return GameModel{Kind: "game", Action: action}
}

// GroupMember is one row of a group membership view.
type GroupMember struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	IsReady   bool   `json:"is_ready"`
	IsWaiting bool   `json:"is_waiting"`
}

// GroupModel is the membership view pushed to a group's players.
type GroupModel struct {
	Kind    string        `json:"kind"`
	GroupID string        `json:"group_id"`
	Members []GroupMember `json:"members"`
}

// NewGroupModel builds a membership view payload.
func NewGroupModel(groupID string, members []GroupMember) GroupModel {
	return GroupModel{Kind: "group", GroupID: groupID, Members: members}
}

// LobbyEntry is one joinable table in the lobby listing.
type LobbyEntry struct {
	GroupID     string `json:"group_id"`
	PlayerCount int    `json:"player_count"`
}

// LobbyModel lists every live table for players outside any group.
type LobbyModel struct {
	Kind   string       `json:"kind"`
	Groups []LobbyEntry `json:"groups"`
}

// NewLobbyModel builds a lobby listing payload.
func NewLobbyModel(groups []LobbyEntry) LobbyModel {
	return LobbyModel{Kind: "lobby", Groups: groups}
}

// ChatMessage is a delivered chat line.
type ChatMessage struct {
	Kind   string `json:"kind"`
	Scope  string `json:"scope"`
	Sender string `json:"sender"`
	Name   string `json:"name"`
	Text   string `json:"text"`
}

// NewChatMessage builds a chat delivery payload.
func NewChatMessage(scope, sender, name, text string) ChatMessage {
	return ChatMessage{Kind: "chat", Scope: scope, Sender: sender, Name: name, Text: text}
}

func (Notification) isOutbound()      {}
func (GroupNotification) isOutbound() {}
func (GameModel) isOutbound()         {}
func (GroupModel) isOutbound()        {}
func (LobbyModel) isOutbound()        {}
func (ChatMessage) isOutbound()       {}
