package game

import "sync"

// SessionStore owns the process-wide live state: registered players, live
// groups, and the user → transport-session routing map. Its RWMutex is the
// registry lock and is ordered before any per-group lock; scans that peek at
// group membership take the group lock briefly while still holding the
// registry read lock.
type SessionStore struct {
	mu      sync.RWMutex
	players map[string]*Player
	groups  map[string]*Group
	routes  map[string]string // user id -> transport session id
}

// NewSessionStore builds an empty registry.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		players: make(map[string]*Player),
		groups:  make(map[string]*Group),
		routes:  make(map[string]string),
	}
}

// TryGetExistingPlayer returns the registered player or nil.
func (s *SessionStore) TryGetExistingPlayer(userID string) *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players[userID]
}

// RegisterPlayer adds a player to the registry.
func (s *SessionStore) RegisterPlayer(p *Player) {
	s.mu.Lock()
	s.players[p.UserID] = p
	s.mu.Unlock()
}

// RemovePlayer drops a player from the registry. The durable account row is
// untouched.
func (s *SessionStore) RemovePlayer(userID string) {
	s.mu.Lock()
	delete(s.players, userID)
	delete(s.routes, userID)
	s.mu.Unlock()
}

// LinkUserToSession records which transport session delivers to a user.
func (s *SessionStore) LinkUserToSession(userID, sessionID string) {
	s.mu.Lock()
	s.routes[userID] = sessionID
	s.mu.Unlock()
}

// UnlinkSession removes the routing entry for a transport session and
// returns the user id it was bound to, if any.
func (s *SessionStore) UnlinkSession(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, sid := range s.routes {
		if sid == sessionID {
			delete(s.routes, userID)
			return userID
		}
	}
	return ""
}

// SessionFor returns the transport session id bound to a user.
func (s *SessionStore) SessionFor(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sid, ok := s.routes[userID]
	return sid, ok
}

// RegisterGroup adds a group under its join code. It reports false on a code
// collision so the caller can retry with a fresh code.
func (s *SessionStore) RegisterGroup(g *Group) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.groups[g.Code]; exists {
		return false
	}
	s.groups[g.Code] = g
	return true
}

// RemoveGroup deletes a group from the registry.
func (s *SessionStore) RemoveGroup(code string) {
	s.mu.Lock()
	delete(s.groups, code)
	s.mu.Unlock()
}

// GetGroup looks a group up by join code.
func (s *SessionStore) GetGroup(code string) *Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups[code]
}

// Groups returns a snapshot of all live groups.
func (s *SessionStore) Groups() []*Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	return out
}

// GroupForPlayer returns the group whose members list contains the player.
// Linear scan over groups; fine at table-game scale.
func (s *SessionStore) GroupForPlayer(p *Player) *Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		g.Lock()
		found := g.HasMember(p.UserID)
		g.Unlock()
		if found {
			return g
		}
	}
	return nil
}

// GroupForWaitingRoomPlayer returns the group whose waiting room holds the
// player.
func (s *SessionStore) GroupForWaitingRoomPlayer(p *Player) *Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		g.Lock()
		var found bool
		for _, w := range g.WaitingRoom {
			if w.UserID == p.UserID {
				found = true
				break
			}
		}
		g.Unlock()
		if found {
			return g
		}
	}
	return nil
}

// PlayersOutsideGroups lists registered users who are neither seated nor
// waiting at any table. Lobby broadcasts and global chat go to these.
func (s *SessionStore) PlayersOutsideGroups() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seated := make(map[string]struct{})
	for _, g := range s.groups {
		g.Lock()
		for _, id := range g.AllIDs() {
			seated[id] = struct{}{}
		}
		g.Unlock()
	}

	var out []string
	for id := range s.players {
		if _, ok := seated[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
