package league

import "testing"

func TestNew_FillsIdentityKey(t *testing.T) {
	l := New("league_1", "  Liga dos  Campeões ", "EUROPA")

	if l.Name != "Liga dos Campeões" {
		t.Fatalf("unexpected display name %q", l.Name)
	}
	if l.Key != "liga dos campeoes|europa" {
		t.Fatalf("unexpected key %q", l.Key)
	}
	if err := l.Validate(); err != nil {
		t.Fatalf("expected valid league: %v", err)
	}
}

func TestValidate_RejectsStaleKey(t *testing.T) {
	l := New("league_1", "Primeira Liga", "Portugal")
	l.Name = "Liga Portugal"

	if err := l.Validate(); err == nil {
		t.Fatalf("expected key mismatch error")
	}
}
