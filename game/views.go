package game

import (
	"github.com/samber/lo"

	"tablejack/protocol"
)

// buildGroupModel snapshots a group's membership view. Takes the group lock.
func buildGroupModel(g *Group) protocol.GroupModel {
	g.Lock()
	defer g.Unlock()

	members := lo.Map(g.Members, func(m *Player, _ int) protocol.GroupMember {
		return protocol.GroupMember{
			UserID:  m.UserID,
			Name:    m.Name,
			IsReady: m.IsReady,
		}
	})
	members = append(members, lo.Map(g.WaitingRoom, func(w *Player, _ int) protocol.GroupMember {
		return protocol.GroupMember{
			UserID:    w.UserID,
			Name:      w.Name,
			IsWaiting: true,
		}
	})...)

	return protocol.NewGroupModel(g.Code, members)
}

// buildLobbyModel snapshots every live table for the lobby listing.
func buildLobbyModel(s *SessionStore) protocol.LobbyModel {
	groups := s.Groups()
	entries := lo.Map(groups, func(g *Group, _ int) protocol.LobbyEntry {
		g.Lock()
		defer g.Unlock()
		return protocol.LobbyEntry{GroupID: g.Code, PlayerCount: g.Occupancy()}
	})
	return protocol.NewLobbyModel(entries)
}
