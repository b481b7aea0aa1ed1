package identity

import "testing"

type stubNames struct{ next string }

func (s *stubNames) GenerateName() string { return s.next }

func TestNewHumanRegistersAndLooksUp(t *testing.T) {
	r := NewRegistry(&stubNames{next: "Silver Otter"})
	p := r.NewHuman()

	if p.Kind != Human {
		t.Fatalf("Kind = %v, want Human", p.Kind)
	}
	if p.ConnectionState != Connected {
		t.Fatalf("ConnectionState = %v, want Connected", p.ConnectionState)
	}
	got, ok := r.Get(p.ID)
	if !ok || got != p {
		t.Fatalf("Get(%q) = %v, %v; want the same player back", p.ID, got, ok)
	}
}

func TestTwoPlayersGetDistinctIDs(t *testing.T) {
	r := NewRegistry(&stubNames{next: "Quiet Fox"})
	a := r.NewHuman()
	b := r.NewBot()
	if a.ID == b.ID {
		t.Fatalf("expected distinct stable ids, both got %q", a.ID)
	}
	if b.Kind != Bot {
		t.Fatalf("Kind = %v, want Bot", b.Kind)
	}
}

func TestSetConnectionStateIgnoresBots(t *testing.T) {
	r := NewRegistry(&stubNames{next: "Loud Panda"})
	bot := r.NewBot()
	r.SetConnectionState(bot.ID, Disconnected)
	got, _ := r.Get(bot.ID)
	if got.ConnectionState != Connected {
		t.Fatalf("bot ConnectionState = %v, want unchanged Connected", got.ConnectionState)
	}
}

func TestRemoveForgetsPlayer(t *testing.T) {
	r := NewRegistry(&stubNames{next: "Brave Wolf"})
	p := r.NewHuman()
	r.Remove(p.ID)
	if _, ok := r.Get(p.ID); ok {
		t.Fatalf("expected player to be forgotten after Remove")
	}
}
