package extraction

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/riskibarqy/livescore-sync/internal/domain/match"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New("https://www.flashscore.pt", nil)
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	return e
}

func loadFixture(t *testing.T) []match.Fragment {
	t.Helper()
	doc, err := os.ReadFile("testdata/live.html")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	fragments, err := newTestExtractor(t).ExtractHTML(context.Background(), doc)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return fragments
}

func TestExtract_DocumentOrderAndDedup(t *testing.T) {
	fragments := loadFixture(t)

	var ids []string
	for _, f := range fragments {
		ids = append(ids, f.SourceID)
	}
	want := "KMICP6x0,ABC12345,FIN00001,COMB0001"
	if got := strings.Join(ids, ","); got != want {
		t.Fatalf("unexpected ids:\nwant: %s\ngot:  %s", want, got)
	}

	dup := fragments[1]
	if dup.TimeText != "20:30" {
		t.Fatalf("expected last duplicate to win, got time %q", dup.TimeText)
	}
	if dup.League.Name != "Liga Portugal Betclic" {
		t.Fatalf("expected duplicate to carry its own league context, got %q", dup.League.Name)
	}
}

func TestExtract_LiveRow(t *testing.T) {
	f := loadFixture(t)[0]

	if f.HomeName != "Kairat Almaty" || f.AwayName != "Olympiakos" {
		t.Fatalf("unexpected teams %q vs %q", f.HomeName, f.AwayName)
	}
	if f.HomeScore != "1" || f.AwayScore != "0" {
		t.Fatalf("unexpected scores %q-%q", f.HomeScore, f.AwayScore)
	}
	if f.StateHint != match.StatusLive {
		t.Fatalf("unexpected state hint %q", f.StateHint)
	}
	if f.MinuteText != "23 '" && f.MinuteText != "23'" {
		t.Fatalf("unexpected minute text %q", f.MinuteText)
	}
	if f.League.Name != "Liga dos Campeões" || f.League.Country != "EUROPA" {
		t.Fatalf("unexpected league %+v", f.League)
	}
	if f.League.LogoSrc != "https://static.flashscore.com/res/image/data/ucl.png" {
		t.Fatalf("unexpected league logo %q", f.League.LogoSrc)
	}
	if !f.HasTV || f.HasAudio || f.HasInfo {
		t.Fatalf("unexpected icons tv=%t audio=%t info=%t", f.HasTV, f.HasAudio, f.HasInfo)
	}
	if f.URL != "https://www.flashscore.pt/jogo/futebol/KMICP6x0/#/resumo-do-jogo" {
		t.Fatalf("unexpected url %q", f.URL)
	}
	if f.HomeLogoSrc != "https://static.flashscore.com/res/image/data/kairat.png" {
		t.Fatalf("unexpected home logo %q", f.HomeLogoSrc)
	}
}

func TestExtract_FinishedRowWithIcons(t *testing.T) {
	f := loadFixture(t)[2]

	if f.StatusText != "Terminado" || f.StateHint != match.StatusFinished {
		t.Fatalf("unexpected status %q hint %q", f.StatusText, f.StateHint)
	}
	if !f.HasInfo || !f.HasAudio || f.HasTV {
		t.Fatalf("unexpected icons tv=%t audio=%t info=%t", f.HasTV, f.HasAudio, f.HasInfo)
	}
	if f.League.Country != "PORTUGAL" {
		t.Fatalf("expected second header to apply, got %+v", f.League)
	}
}

func TestExtract_FallbackSelectors(t *testing.T) {
	f := loadFixture(t)[3]

	if f.HomeName != "Porto" || f.AwayName != "Braga" {
		t.Fatalf("unexpected fallback teams %q vs %q", f.HomeName, f.AwayName)
	}
	if f.HomeScore != "3" || f.AwayScore != "1" {
		t.Fatalf("unexpected combined scores %q-%q", f.HomeScore, f.AwayScore)
	}
	if f.StatusText != "Intervalo" || f.StateHint != "" {
		t.Fatalf("unexpected status %q hint %q", f.StatusText, f.StateHint)
	}
	if f.URL != "" || f.TimeText != "" {
		t.Fatalf("expected missing optional fields to be empty, got url=%q time=%q", f.URL, f.TimeText)
	}
}

func TestExtract_RowBeforeHeaderHasNoLeague(t *testing.T) {
	doc := `<div class="sportName soccer">
		<div id="g_1_NOLEAGUE" class="event__match"><div class="event__homeParticipant">A</div><div class="event__awayParticipant">B</div></div>
	</div>`

	fragments, err := newTestExtractor(t).ExtractHTML(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(fragments) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(fragments))
	}
	if fragments[0].League != (match.LeagueContext{}) {
		t.Fatalf("expected empty league context, got %+v", fragments[0].League)
	}
}

func TestExtract_EmptyContainerIsValid(t *testing.T) {
	fragments, err := newTestExtractor(t).ExtractHTML(context.Background(), []byte(`<div id="live-table"></div>`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(fragments) != 0 {
		t.Fatalf("expected no fragments, got %d", len(fragments))
	}
}

func TestExtract_NoContainer(t *testing.T) {
	_, err := newTestExtractor(t).ExtractHTML(context.Background(), []byte(`<html><body><p>Sem jogos</p></body></html>`))
	if !errors.Is(err, ErrNoContainer) {
		t.Fatalf("expected ErrNoContainer, got %v", err)
	}
}

func TestExtract_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExtractor(t).ExtractHTML(ctx, []byte(`<div id="live-table"></div>`))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
