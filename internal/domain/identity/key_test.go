package identity

import "testing"

func TestTeamKey_InsensitiveToCaseAccentsAndSpacing(t *testing.T) {
	variants := []string{
		"Kairat Almaty",
		"KAIRAT ALMATY",
		"Kairat  Almaty",
		" kairat\talmaty ",
		"Káirat Almaty",
	}

	want := TeamKey(variants[0])
	for _, v := range variants[1:] {
		if got := TeamKey(v); got != want {
			t.Fatalf("TeamKey(%q) = %q, want %q", v, got, want)
		}
	}
	if want != "kairat almaty" {
		t.Fatalf("unexpected folded key %q", want)
	}
}

func TestFold_PortugueseNames(t *testing.T) {
	cases := map[string]string{
		"Liga dos Campeões": "liga dos campeoes",
		"São Paulo":         "sao paulo",
		"Vitória SC":        "vitoria sc",
		"Atlético-MG":       "atletico-mg",
		"":                  "",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Fatalf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFold_LettersWithoutCombiningMarks(t *testing.T) {
	cases := map[string]string{
		"Bodø/Glimt":            "bodo/glimt",
		"BODØ/GLIMT":            "bodo/glimt",
		"ŁKS Łódź":              "lks lodz",
		"Hajduk Split (Đakovo)": "hajduk split (dakovo)",
		"Großaspach":            "grossaspach",
		"Æbelholt":              "aebelholt",
		"Þór Akureyri":          "thor akureyri",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Fatalf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
	if TeamKey("Bodø/Glimt") != TeamKey("Bodo/Glimt") {
		t.Fatal("expected transliterated and ASCII spellings to share a key")
	}
}

func TestLeagueKey_IncludesCountry(t *testing.T) {
	a := LeagueKey("Primeira Liga", "PORTUGAL")
	b := LeagueKey("primeira  liga", "Portugal")
	c := LeagueKey("Primeira Liga", "Brasil")

	if a != b {
		t.Fatalf("expected same key, got %q and %q", a, b)
	}
	if a == c {
		t.Fatalf("expected country to separate leagues, both %q", a)
	}
}

func TestCleanName_KeepsDisplayForm(t *testing.T) {
	if got := CleanName("  Olympiakos   Piraeus "); got != "Olympiakos Piraeus" {
		t.Fatalf("unexpected clean name %q", got)
	}
}
