package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/livescore-sync/internal/domain/match"
	"github.com/riskibarqy/livescore-sync/internal/platform/logging"
	"github.com/riskibarqy/livescore-sync/internal/usecase"
)

type Handler struct {
	matchQueries *usecase.MatchQueryService
	catalog      *usecase.CatalogService
	logger       *logging.Logger
	validator    *validator.Validate
}

func NewHandler(matchQueries *usecase.MatchQueryService, catalog *usecase.CatalogService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchQueries: matchQueries,
		catalog:      catalog,
		logger:       logger.Named("httpapi"),
		validator:    validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type matchListQuery struct {
	League string `validate:"max=100"`
	Team   string `validate:"max=100"`
	Status string `validate:"omitempty,oneof=scheduled live finished postponed cancelled unknown"`
	Limit  int    `validate:"min=0,max=1000"`
}

func (h *Handler) parseMatchListQuery(ctx context.Context, r *http.Request) (match.Filter, error) {
	query := r.URL.Query()
	q := matchListQuery{
		League: strings.TrimSpace(query.Get("league")),
		Team:   strings.TrimSpace(query.Get("team")),
		Status: strings.ToLower(strings.TrimSpace(query.Get("status"))),
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return match.Filter{}, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput)
		}
		q.Limit = v
	}
	if err := h.validateRequest(ctx, q); err != nil {
		return match.Filter{}, err
	}

	return match.Filter{
		Status: match.Status(q.Status),
		League: q.League,
		Team:   q.Team,
		Limit:  q.Limit,
	}, nil
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Health")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	filter, err := h.parseMatchListQuery(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	overview, err := h.matchQueries.Overview(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, overview)
}

func (h *Handler) ListMatchesByStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchesByStatus")
	defer span.End()

	filter, err := h.parseMatchListQuery(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	status := r.PathValue("status")
	items, err := h.matchQueries.ListByStatus(ctx, status, filter)
	if err != nil {
		h.logger.WarnContext(ctx, "list matches by status failed", "status", status, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchStatusListDTO{
		Status:  strings.ToLower(strings.TrimSpace(status)),
		Total:   len(items),
		Matches: items,
	})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStats")
	defer span.End()

	stats, err := h.matchQueries.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get match stats failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, statsDTO{
		TotalMatches:    stats.Total,
		MatchesByStatus: stats.ByStatus,
	})
}

type catalogQuery struct {
	Country string `validate:"max=100"`
	Name    string `validate:"max=100"`
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	q := catalogQuery{Country: strings.TrimSpace(r.URL.Query().Get("country"))}
	if err := h.validateRequest(ctx, q); err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.catalog.ListLeagues(ctx, q.Country)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]leagueDTO, 0, len(items))
	for _, item := range items {
		out = append(out, leagueDTO{
			ID:      item.ID,
			Name:    item.Name,
			Country: item.Country,
			LogoURL: item.LogoURL,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	q := catalogQuery{Name: strings.TrimSpace(r.URL.Query().Get("name"))}
	if err := h.validateRequest(ctx, q); err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.catalog.ListTeams(ctx, q.Name)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]teamDTO, 0, len(items))
	for _, item := range items {
		out = append(out, teamDTO{
			ID:      item.ID,
			Name:    item.Name,
			LogoURL: item.LogoURL,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

type leagueDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	LogoURL string `json:"logo_url,omitempty"`
}

type teamDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
}

type matchStatusListDTO struct {
	Status  string                `json:"status"`
	Total   int                   `json:"total_matches"`
	Matches []usecase.MatchRecord `json:"data"`
}

type statsDTO struct {
	TotalMatches    int                  `json:"total_matches"`
	MatchesByStatus map[match.Status]int `json:"matches_by_status"`
}
