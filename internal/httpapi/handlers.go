package httpapi

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/storydesk/internal/aggregate"
	"horse.fit/storydesk/internal/auth"
	"horse.fit/storydesk/internal/globaltime"
	"horse.fit/storydesk/internal/grouping"
	"horse.fit/storydesk/internal/news"
	"horse.fit/storydesk/internal/provider"
	"horse.fit/storydesk/internal/reader"
	"horse.fit/storydesk/internal/schema"
)

const (
	defaultPreviewMaxChars = 1000
	minPreviewMaxChars     = 200
	maxPreviewMaxChars     = 4000
)

type clusterGroup struct {
	GroupID     grouping.GroupID `json:"groupId"`
	Articles    []news.Article   `json:"articles"`
	SourceCount int              `json:"sourceCount"`
	Sources     []string         `json:"sources"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service":   "storydesk",
		"time":      globaltime.UTC(),
		"providers": enabledSourceNames(s.opts.Sources),
	})
}

func (s *Server) handleSources(c echo.Context) error {
	return success(c, map[string]any{
		"items": s.opts.Sources,
	})
}

func (s *Server) handleStories(c echo.Context) error {
	fieldErrors := map[string]string{}

	page, err := parsePositiveInt(c.QueryParam("page"), 1, 1, 10000)
	if err != nil {
		fieldErrors["page"] = err.Error()
	}
	pageSize, err := parsePositiveInt(c.QueryParam("page_size"), aggregate.DefaultPageSize, 1, aggregate.MaxPageSize)
	if err != nil {
		fieldErrors["page_size"] = err.Error()
	}
	threshold, err := parseThreshold(c.QueryParam("threshold"), s.stories.Threshold())
	if err != nil {
		fieldErrors["threshold"] = err.Error()
	}
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	result, err := s.stories.Run(c.Request().Context(), aggregate.Request{
		Category:  c.QueryParam("category"),
		Country:   c.QueryParam("country"),
		Keywords:  c.QueryParam("q"),
		Page:      page,
		PageSize:  pageSize,
		Threshold: threshold,
	})
	if err != nil {
		if errors.Is(err, aggregate.ErrNoArticles) {
			return errorWithStatus(c, http.StatusBadGateway, "No news providers could be reached")
		}
		s.logger.Error().Err(err).Msg("aggregate stories failed")
		return internalError(c, "Failed to load stories")
	}
	return success(c, result)
}

func (s *Server) handleCluster(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Could not read request body", nil)
	}

	req, err := schema.ValidateClusterRequest(body)
	if err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	threshold := s.stories.Threshold()
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	groups := grouping.Group(news.FilterValid(req.Articles), threshold)
	items := make([]clusterGroup, len(groups))
	for i, g := range groups {
		items[i] = clusterGroup{
			GroupID:     g.ID,
			Articles:    g.Articles,
			SourceCount: g.SourceCount(),
			Sources:     g.Sources(),
		}
	}

	return success(c, map[string]any{
		"threshold": threshold,
		"total":     len(items),
		"items":     items,
	})
}

func (s *Server) handleArticlePreview(c echo.Context) error {
	pageURL := strings.TrimSpace(c.QueryParam("url"))
	if news.CanonicalURL(pageURL) == "" {
		return failValidation(c, map[string]string{"url": "must be an absolute URL"})
	}

	maxChars, err := parsePositiveInt(c.QueryParam("max_chars"), defaultPreviewMaxChars, minPreviewMaxChars, maxPreviewMaxChars)
	if err != nil {
		return failValidation(c, map[string]string{"max_chars": err.Error()})
	}

	preview := s.previewer.Preview(c.Request().Context(), pageURL, c.QueryParam("fallback"), maxChars)
	if preview.Error != nil {
		s.logger.Warn().
			Str("url", pageURL).
			Str("source", preview.Source).
			Str("error", *preview.Error).
			Msg("reader preview fallback used")
	}
	if preview.Source == reader.SourceNone {
		return fail(c, http.StatusBadGateway, "Article text could not be extracted", preview)
	}
	return success(c, preview)
}

func (s *Server) requireAdminKey() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.TrimSpace(s.opts.AdminKeyHash) == "" {
				return fail(c, http.StatusForbidden, "Admin endpoints are disabled", nil)
			}
			if !auth.VerifyAdminKey(c.Request().Header.Get(adminKeyHeader), s.opts.AdminKeyHash) {
				return failUnauthorized(c, "Invalid admin key")
			}
			return next(c)
		}
	}
}

func (s *Server) handlePurgeCache(c echo.Context) error {
	removed, err := s.stories.PurgeCache(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("cache purge failed")
		return internalError(c, "Failed to purge cache")
	}
	s.logger.Info().Int("removed", removed).Msg("cache purged")
	return success(c, map[string]any{"removed": removed})
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}

func parseThreshold(raw string, defaultValue float64) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) {
		return 0, fmt.Errorf("must be a number")
	}
	if value <= 0 || value > 1 {
		return 0, fmt.Errorf("must be greater than 0 and at most 1")
	}
	return value, nil
}

func enabledSourceNames(sources []provider.Info) []string {
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		if src.Enabled {
			names = append(names, src.Name)
		}
	}
	return names
}
