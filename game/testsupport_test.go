package game

import (
	"context"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"tablejack/models"
	"tablejack/protocol"
)

// fakeNotifier captures every outbound payload per recipient. onSend, when
// set, runs after each delivery with no notifier lock held, so it may call
// back into the engines.
type fakeNotifier struct {
	mu     sync.Mutex
	sent   map[string][]protocol.Outbound
	onSend func(userID string, msg protocol.Outbound)
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(map[string][]protocol.Outbound)}
}

func (f *fakeNotifier) Send(userID string, msg protocol.Outbound) {
	f.mu.Lock()
	f.sent[userID] = append(f.sent[userID], msg)
	f.mu.Unlock()
	if f.onSend != nil {
		f.onSend(userID, msg)
	}
}

func (f *fakeNotifier) SendMany(userIDs []string, msg protocol.Outbound) {
	for _, id := range userIDs {
		f.Send(id, msg)
	}
}

func (f *fakeNotifier) Broadcast(msg protocol.Outbound) {
	f.Send("*", msg)
}

func (f *fakeNotifier) messagesFor(userID string) []protocol.Outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Outbound, len(f.sent[userID]))
	copy(out, f.sent[userID])
	return out
}

func (f *fakeNotifier) lastNotification(userID string) (protocol.Notification, bool) {
	msgs := f.messagesFor(userID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if n, ok := msgs[i].(protocol.Notification); ok {
			return n, true
		}
	}
	return protocol.Notification{}, false
}

func (f *fakeNotifier) lastGameModel(userID, action string) (protocol.GameModel, bool) {
	msgs := f.messagesFor(userID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if gm, ok := msgs[i].(protocol.GameModel); ok && gm.Action == action {
			return gm, true
		}
	}
	return protocol.GameModel{}, false
}

// fakeSink collects recorded events.
type fakeSink struct {
	mu     sync.Mutex
	events []models.GameEvent
}

func (f *fakeSink) Record(ev models.GameEvent) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
}

func (f *fakeSink) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, ev := range f.events {
		out[i] = ev.Action
	}
	return out
}

// fakeCredits records persistence calls and succeeds unless an error is set.
type fakeCredits struct {
	mu         sync.Mutex
	saved      map[string]int64
	statsCalls int
	err        error
}

func newFakeCredits() *fakeCredits {
	return &fakeCredits{saved: make(map[string]int64)}
}

func (f *fakeCredits) RetrieveCredits(_ context.Context, _, _ string) (int64, error) {
	return 1000, f.err
}

func (f *fakeCredits) UpdateCredits(_ context.Context, userID string, credits int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved[userID] = credits
	return nil
}

func (f *fakeCredits) UpdateStatistics(_ context.Context, _ string, _, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.statsCalls++
	return nil
}

// fixture bundles a fully wired in-memory table stack with zero deal pacing
// and a fixed rng seed.
type fixture struct {
	store   *SessionStore
	notify  *fakeNotifier
	sink    *fakeSink
	credits *fakeCredits
	rounds  *RoundController
	engine  *Engine
	manager *Manager
}

func newFixture() *fixture {
	store := NewSessionStore()
	notify := newFakeNotifier()
	sink := &fakeSink{}
	credits := newFakeCredits()
	log := zap.NewNop()
	rounds := NewRoundController(store, notify, sink, credits, 0, rand.New(rand.NewSource(1)), log)
	return &fixture{
		store:   store,
		notify:  notify,
		sink:    sink,
		credits: credits,
		rounds:  rounds,
		engine:  NewEngine(store, notify, sink, rounds, log),
		manager: NewManager(store, notify, rounds, log),
	}
}

// seat registers players and sits them at a fresh table.
func (f *fixture) seat(players ...*Player) *Group {
	g := NewGroup("TEST01")
	f.store.RegisterGroup(g)
	for _, p := range players {
		f.store.RegisterPlayer(p)
		g.Members = append(g.Members, p)
	}
	return g
}
