package game

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"tablejack/protocol"
	"tablejack/utils"
)

// Manager handles table membership: creating, joining, leaving, readiness
// and the lobby view. Round and action flow belong to the RoundController
// and Engine.
type Manager struct {
	store  *SessionStore
	notify Notifier
	rounds *RoundController
	log    *zap.Logger
}

// NewManager wires the group lifecycle manager.
func NewManager(store *SessionStore, notify Notifier, rounds *RoundController, log *zap.Logger) *Manager {
	return &Manager{store: store, notify: notify, rounds: rounds, log: log}
}

// Create opens a fresh table with the caller as its only member. A player
// can only sit at one table, so any current seat is given up first.
func (m *Manager) Create(p *Player) {
	m.leaveCurrent(p)

	var g *Group
	for {
		code, err := gonanoid.Generate(utils.GroupCodeAlphabet, utils.GroupCodeLength)
		if err != nil {
			m.log.Error("group code generation failed", zap.Error(err))
			m.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastError, "Could not create a table, try again later."))
			return
		}
		g = NewGroup(code)
		if m.store.RegisterGroup(g) {
			break
		}
	}

	g.Lock()
	g.Members = append(g.Members, p)
	g.Unlock()

	m.log.Info("group created", zap.String("group", g.Code), zap.String("user_id", p.UserID))
	m.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastSuccess, fmt.Sprintf("Table %s created.", g.Code)))
	m.notify.Send(p.UserID, buildGroupModel(g))
	m.broadcastLobby()
}

// Join seats the caller at an existing table. Mid-round joins land in the
// waiting room until the next betting phase.
func (m *Manager) Join(p *Player, code string) {
	g := m.store.GetGroup(code)
	if g == nil {
		m.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastWarning, "No such table."))
		return
	}

	g.Lock()
	if g.HasMember(p.UserID) {
		g.Unlock()
		m.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastInfo, "You are already at this table."))
		return
	}
	if g.Occupancy() >= utils.MaxGroupMembers {
		g.Unlock()
		m.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastWarning, "That table is full."))
		return
	}
	g.Unlock()

	m.leaveCurrent(p)

	g.Lock()
	// Re-check after releasing for the implicit leave.
	if g.Occupancy() >= utils.MaxGroupMembers {
		g.Unlock()
		m.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastWarning, "That table is full."))
		return
	}
	waiting := len(g.Deck) > 0
	if waiting {
		g.WaitingRoom = append(g.WaitingRoom, p)
	} else {
		g.Members = append(g.Members, p)
	}
	ids := g.AllIDs()
	g.Unlock()

	m.log.Info("group joined",
		zap.String("group", g.Code),
		zap.String("user_id", p.UserID),
		zap.Bool("waiting", waiting))
	if waiting {
		m.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastInfo, "A round is in progress, you will join at the next one."))
	}
	m.notify.SendMany(ids, protocol.NewGroupNotification(g.Code, fmt.Sprintf("%s joined the table.", p.Name)))
	m.notify.SendMany(ids, buildGroupModel(g))
	m.broadcastLobby()
}

// Leave gives up the caller's seat.
func (m *Manager) Leave(p *Player) {
	if !m.leaveCurrent(p) {
		m.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastWarning, ErrNoGroup.Error()))
		return
	}
	m.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastInfo, "You left the table."))
	m.notify.Send(p.UserID, buildLobbyModel(m.store))
}

// leaveCurrent removes the player from whatever table they sit at, deleting
// the table when it empties and unblocking the round when the departing
// player was holding it up. Reports whether a seat was given up.
func (m *Manager) leaveCurrent(p *Player) bool {
	if g := m.store.GroupForWaitingRoomPlayer(p); g != nil {
		g.Lock()
		g.RemoveWaiting(p.UserID)
		empty := g.Occupancy() == 0
		ids := g.AllIDs()
		g.Unlock()
		if empty {
			m.store.RemoveGroup(g.Code)
			m.log.Info("group deleted", zap.String("group", g.Code))
		} else {
			m.notify.SendMany(ids, protocol.NewGroupNotification(g.Code, fmt.Sprintf("%s left the table.", p.Name)))
			m.notify.SendMany(ids, buildGroupModel(g))
		}
		m.broadcastLobby()
		return true
	}

	g := m.store.GroupForPlayer(p)
	if g == nil {
		return false
	}

	g.Lock()
	g.RemoveMember(p.UserID)
	p.ClearHands()
	p.IsReady = false
	empty := g.Occupancy() == 0
	status := g.Status
	allBet := status == StatusBetting && len(g.Bets) == len(g.Members) && len(g.Members) > 0
	ids := g.AllIDs()
	g.Unlock()

	m.log.Info("group left", zap.String("group", g.Code), zap.String("user_id", p.UserID))

	if empty {
		m.store.RemoveGroup(g.Code)
		m.log.Info("group deleted", zap.String("group", g.Code))
		m.broadcastLobby()
		return true
	}

	m.notify.SendMany(ids, protocol.NewGroupNotification(g.Code, fmt.Sprintf("%s left the table.", p.Name)))
	m.notify.SendMany(ids, buildGroupModel(g))
	m.broadcastLobby()

	switch {
	case status == StatusPlaying:
		// The departed player may have been the round's blocker.
		m.rounds.Advance(g)
	case allBet:
		m.rounds.BeginPlay(g)
	}
	return true
}

// Ready casts a ready vote. A strict majority of seated members starts the
// betting phase.
func (m *Manager) Ready(p *Player) {
	m.vote(p, true)
}

// Unready withdraws a ready vote.
func (m *Manager) Unready(p *Player) {
	m.vote(p, false)
}

func (m *Manager) vote(p *Player, ready bool) {
	g := m.store.GroupForPlayer(p)
	if g == nil {
		m.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastWarning, ErrNoGroup.Error()))
		return
	}

	g.Lock()
	if len(g.Deck) > 0 {
		g.Unlock()
		m.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastWarning, "A round is in progress."))
		return
	}
	p.IsReady = ready
	total := len(g.Members)
	count := 0
	for _, member := range g.Members {
		if member.IsReady {
			count++
		}
	}
	ids := g.AllIDs()
	g.Unlock()

	m.notify.SendMany(ids, protocol.NewGroupNotification(g.Code, fmt.Sprintf("%d/%d players are ready.", count, total)))
	m.notify.SendMany(ids, buildGroupModel(g))

	if count*2 > total {
		m.rounds.StartBetting(g)
	}
}

// CheckGroup pushes the caller's current table view.
func (m *Manager) CheckGroup(p *Player) {
	g := m.store.GroupForPlayer(p)
	if g == nil {
		g = m.store.GroupForWaitingRoomPlayer(p)
	}
	if g == nil {
		m.notify.Send(p.UserID, protocol.NewNotification(protocol.ToastWarning, ErrNoGroup.Error()))
		return
	}
	m.notify.Send(p.UserID, buildGroupModel(g))
}

// ShowLobby pushes the list of open tables to the caller.
func (m *Manager) ShowLobby(p *Player) {
	m.notify.Send(p.UserID, buildLobbyModel(m.store))
}

func (m *Manager) broadcastLobby() {
	ids := m.store.PlayersOutsideGroups()
	if len(ids) == 0 {
		return
	}
	m.notify.SendMany(ids, buildLobbyModel(m.store))
}
