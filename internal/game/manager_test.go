package game

import (
	"testing"

	"github.com/skeldnet/skeld/internal/proto"
)

type fakeNotifier struct {
	created []string
	deleted []string
}

func (n *fakeNotifier) GameCreated(code string) { n.created = append(n.created, code) }
func (n *fakeNotifier) GameDeleted(code string) { n.deleted = append(n.deleted, code) }

func newTestManager(notifier Notifier) *Manager {
	m := &Manager{
		Logger:     testLogger(),
		Registry:   &fakeRegistry{ok: true},
		Notifier:   notifier,
		MaxPlayers: 10,
	}
	m.Init()
	return m
}

func TestCreateGame(t *testing.T) {
	notifier := &fakeNotifier{}
	m := newTestManager(notifier)

	g := m.CreateGame(5)

	if m.Count() != 1 {
		t.Errorf("Count() want = 1, got = %d", m.Count())
	}
	if found := m.FindGame(g.Code()); found != g {
		t.Errorf("FindGame(%d) did not return the created game", g.Code())
	}
	if g.MaxPlayers() != 5 {
		t.Errorf("MaxPlayers() want = 5, got = %d", g.MaxPlayers())
	}
	if len(notifier.created) != 1 || notifier.created[0] != g.CodeString() {
		t.Errorf("notifier creations want = [%s], got = %v", g.CodeString(), notifier.created)
	}
}

func TestCreateGameCapsRequestedPlayers(t *testing.T) {
	m := newTestManager(nil)

	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{"over the server cap", 100, 10},
		{"zero falls back to the cap", 0, 10},
		{"negative falls back to the cap", -3, 10},
		{"under the cap honored", 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := m.CreateGame(tt.requested)
			if g.MaxPlayers() != tt.want {
				t.Errorf("CreateGame(%d).MaxPlayers() want = %d, got = %d", tt.requested, tt.want, g.MaxPlayers())
			}
		})
	}
}

func TestCreateGameGeneratesUniqueCodes(t *testing.T) {
	m := newTestManager(nil)

	seen := make(map[int32]bool)
	for i := 0; i < 50; i++ {
		g := m.CreateGame(10)
		if seen[g.Code()] {
			t.Fatalf("CreateGame() reused code %s", g.CodeString())
		}
		seen[g.Code()] = true
	}
}

func TestCreateGameV1Codes(t *testing.T) {
	m := newTestManager(nil)
	m.UseV1Codes = true

	g := m.CreateGame(10)
	if g.Code() < 0 {
		t.Errorf("CreateGame() with v1 codes produced a v2 code %s", g.CodeString())
	}
	if rendered := g.CodeString(); len(rendered) != 4 {
		t.Errorf("CreateGame() with v1 codes rendered to %q, want 4 letters", rendered)
	}
}

func TestGameDestructionUnregistersGame(t *testing.T) {
	notifier := &fakeNotifier{}
	m := newTestManager(notifier)

	g := m.CreateGame(10)
	c := newFakeClient(1)
	join(t, g, c)

	if err := g.HandleRemovePlayer(1, proto.DisconnectExitGame); err != nil {
		t.Fatalf("HandleRemovePlayer() returned an unexpected error: %v", err)
	}

	if m.Count() != 0 {
		t.Errorf("Count() after destruction want = 0, got = %d", m.Count())
	}
	if m.FindGame(g.Code()) != nil {
		t.Errorf("FindGame() still returns a destroyed game")
	}
	if len(notifier.deleted) != 1 || notifier.deleted[0] != g.CodeString() {
		t.Errorf("notifier deletions want = [%s], got = %v", g.CodeString(), notifier.deleted)
	}
}
