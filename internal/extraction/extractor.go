// Package extraction turns a rendered live-results page into raw match
// fragments. It does no I/O beyond reading the supplied document.
package extraction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"

	"github.com/riskibarqy/livescore-sync/internal/domain/match"
	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
)

var tracer = otel.Tracer("livescore.extraction")

// ErrNoContainer is returned when the page has no recognizable match list.
var ErrNoContainer = errors.New("match container not found")

// Root containers in order of preference.
var rootSelectors = []string{
	"#live-table",
	"div.sportName",
	".leagues--live",
}

const (
	headerSelector = ".headerLeague, .wclLeagueHeader"
	rowSelector    = "div.event__match"
	scanSelector   = headerSelector + ", " + rowSelector
)

var sourceIDPrefix = regexp.MustCompile(`^g_\d+_`)

type Extractor struct {
	baseURL *url.URL
	logger  *logging.Logger
}

// New returns an extractor that resolves relative match links against baseURL.
func New(baseURL string, logger *logging.Logger) (*Extractor, error) {
	if logger == nil {
		logger = logging.Default()
	}
	var base *url.URL
	if strings.TrimSpace(baseURL) != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		base = parsed
	}
	return &Extractor{baseURL: base, logger: logger.Named("extraction")}, nil
}

func (e *Extractor) ExtractHTML(ctx context.Context, doc []byte) ([]match.Fragment, error) {
	return e.Extract(ctx, bytes.NewReader(doc))
}

// Extract returns one fragment per distinct source id in document order.
// When an id repeats, the last row wins but keeps the first row's position.
func (e *Extractor) Extract(ctx context.Context, r io.Reader) ([]match.Fragment, error) {
	ctx, span := tracer.Start(ctx, "extraction.Extractor.Extract")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse document")
		return nil, fmt.Errorf("parse document: %w", err)
	}

	root := findRoot(doc)
	if root == nil {
		span.SetStatus(codes.Error, ErrNoContainer.Error())
		return nil, ErrNoContainer
	}

	var (
		state     scanState
		fragments []match.Fragment
		positions = make(map[string]int)
		skipped   int
	)
	root.Find(scanSelector).Each(func(_ int, sel *goquery.Selection) {
		if !sel.Is(rowSelector) {
			state.league = parseHeader(sel)
			return
		}

		f, ok := e.parseRow(sel, state.league)
		if !ok {
			skipped++
			return
		}
		if pos, seen := positions[f.SourceID]; seen {
			fragments[pos] = f
			return
		}
		positions[f.SourceID] = len(fragments)
		fragments = append(fragments, f)
	})

	if skipped > 0 {
		e.logger.DebugContext(ctx, "rows without id skipped", "count", skipped)
	}
	span.SetAttributes(
		attribute.Int("extraction.fragments", len(fragments)),
		attribute.Int("extraction.skipped", skipped),
	)
	return fragments, nil
}

// scanState is the fold carried across the ordered header and row nodes.
type scanState struct {
	league match.LeagueContext
}

func findRoot(doc *goquery.Document) *goquery.Selection {
	for _, selector := range rootSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

func parseHeader(sel *goquery.Selection) match.LeagueContext {
	return match.LeagueContext{
		Name:    firstText(sel, ".headerLeague__title strong", ".headerLeague__title", ".wclLeagueHeader__title", "strong"),
		Country: firstText(sel, ".headerLeague__category-text", ".wclLeagueHeader__category", "[class*='category']"),
		LogoSrc: firstAttr(sel, "src", "img.headerLeague__logo", "img[data-testid='wcl-leagueLogo']", "img"),
	}
}

func (e *Extractor) parseRow(sel *goquery.Selection, league match.LeagueContext) (match.Fragment, bool) {
	rawID, _ := sel.Attr("id")
	sourceID := sourceIDPrefix.ReplaceAllString(strings.TrimSpace(rawID), "")
	if sourceID == "" {
		return match.Fragment{}, false
	}

	home := participant(sel, ".event__homeParticipant", ".event__participant--home")
	away := participant(sel, ".event__awayParticipant", ".event__participant--away")

	homeScore := text(sel.Find(".event__score--home").First())
	awayScore := text(sel.Find(".event__score--away").First())
	if homeScore == "" && awayScore == "" {
		homeScore, awayScore = splitScores(text(sel.Find(".event__scores").First()))
	}

	stage := sel.Find(".event__stage").First()
	stageText := text(stage)
	minuteText := text(stage.Find(".event__stage--block").First())
	if minuteText == "" {
		minuteText = stageText
	}

	return match.Fragment{
		SourceID:    sourceID,
		HomeName:    home.name,
		AwayName:    away.name,
		HomeScore:   homeScore,
		AwayScore:   awayScore,
		StatusText:  stageText,
		StateHint:   stateHint(sel),
		MinuteText:  minuteText,
		TimeText:    text(sel.Find(".event__time").First()),
		League:      league,
		HasTV:       sel.Find(".event__icon--tv").Length() > 0,
		HasAudio:    sel.Find(".event__icon--audio").Length() > 0,
		HasInfo:     sel.Find(".event__icon--info").Length() > 0,
		URL:         e.absolute(firstAttr(sel, "href", "a.eventRowLink")),
		HomeLogoSrc: home.logo,
		AwayLogoSrc: away.logo,
	}, true
}

type side struct {
	name string
	logo string
}

func participant(row *goquery.Selection, selectors ...string) side {
	for _, selector := range selectors {
		p := row.Find(selector).First()
		if p.Length() == 0 {
			continue
		}
		name := firstText(p, "[class*='wcl-name']", "[class*='simpleText']")
		if name == "" {
			name = text(p)
		}
		return side{
			name: name,
			logo: firstAttr(p, "src", "img[data-testid='wcl-participantLogo']", "img"),
		}
	}
	return side{}
}

// stateHint reads the row's modifier classes. Stage text, when present,
// takes precedence over it during normalization.
func stateHint(row *goquery.Selection) match.Status {
	switch {
	case row.HasClass("event__match--live"):
		return match.StatusLive
	case row.HasClass("event__match--scheduled"):
		return match.StatusScheduled
	case row.HasClass("event__match--finished"), row.HasClass("event__match--last"):
		return match.StatusFinished
	default:
		return ""
	}
}

// splitScores handles the combined "1-0" / "1 - 0" score cell.
func splitScores(combined string) (string, string) {
	home, away, ok := strings.Cut(combined, "-")
	if !ok {
		return "", ""
	}
	return strings.TrimSpace(home), strings.TrimSpace(away)
}

func (e *Extractor) absolute(href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if e.baseURL == nil || ref.IsAbs() {
		return ref.String()
	}
	return e.baseURL.ResolveReference(ref).String()
}

func firstText(sel *goquery.Selection, selectors ...string) string {
	for _, selector := range selectors {
		if v := text(sel.Find(selector).First()); v != "" {
			return v
		}
	}
	return ""
}

func firstAttr(sel *goquery.Selection, attr string, selectors ...string) string {
	for _, selector := range selectors {
		if v, ok := sel.Find(selector).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// text joins the node's text runs with single spaces, so markup like
// <span>45</span><span>+2'</span> stays readable.
func text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var parts []string
	for _, n := range sel.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if v := strings.TrimSpace(n.Data); v != "" {
			*parts = append(*parts, v)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
