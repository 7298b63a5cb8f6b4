package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"unicorn-dashboard/internal/derivation"
	"unicorn-dashboard/internal/domain"
	"unicorn-dashboard/internal/reporting"
	"unicorn-dashboard/internal/storage"
)

type unicornPayload struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Breed        string          `json:"breed"`
	Habitat      string          `json:"habitat"`
	Region       string          `json:"region"`
	Status       string          `json:"status"`
	Value        decimal.Decimal `json:"value"`
	RegisteredAt *time.Time      `json:"registered_at"`
}

// toDomain resolves enumeration names case-insensitively. Status defaults to
// available and the registration time to asOf.
func (p unicornPayload) toDomain(asOf time.Time) (*domain.Unicorn, error) {
	breed, ok := domain.ParseBreed(p.Breed)
	if !ok {
		return nil, fmt.Errorf("breed %q: %w", p.Breed, storage.ErrInvalidInput)
	}
	habitat, ok := domain.ParseHabitat(p.Habitat)
	if !ok {
		return nil, fmt.Errorf("habitat %q: %w", p.Habitat, storage.ErrInvalidInput)
	}
	region, ok := domain.ParseRegion(p.Region)
	if !ok {
		return nil, fmt.Errorf("region %q: %w", p.Region, storage.ErrInvalidInput)
	}
	status := domain.StatusAvailable
	if p.Status != "" {
		if status, ok = domain.ParseStatus(p.Status); !ok {
			return nil, fmt.Errorf("status %q: %w", p.Status, storage.ErrInvalidInput)
		}
	}
	registered := asOf
	if p.RegisteredAt != nil {
		registered = p.RegisteredAt.UTC()
	}

	return &domain.Unicorn{
		ID:           normalizeID(p.ID),
		Name:         p.Name,
		Breed:        breed,
		Habitat:      habitat,
		Region:       region,
		Status:       status,
		Value:        p.Value,
		RegisteredAt: registered,
	}, nil
}

type statusPayload struct {
	Status string `json:"status"`
}

type filterPayload struct {
	Value string `json:"value"`
}

type tradePayload struct {
	UnicornID   string          `json:"unicorn_id"`
	Value       decimal.Decimal `json:"value"`
	CompletedAt *time.Time      `json:"completed_at"`
}

// normalizeID accepts ids with or without the leading "#".
func normalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, "#") {
		return id
	}
	return "#" + id
}

func pagingParams(c *gin.Context) (derivation.Params, error) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		return derivation.Params{}, errBadPaging
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		return derivation.Params{}, errBadPaging
	}
	return derivation.Params{Offset: offset, Limit: limit}, nil
}

func (s *Server) getPage(c *gin.Context) {
	params, err := pagingParams(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	page, err := s.dash.Page(params)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) getDerivation(c *gin.Context) {
	params, err := pagingParams(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	result, err := s.dash.Compute(derivation.Kind(c.Param("kind")), params)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) getActivity(c *gin.Context) {
	c.JSON(http.StatusOK, s.dash.Activity())
}

// getReport renders the current page as markdown, or as CSV listings with
// format=csv.
func (s *Server) getReport(c *gin.Context) {
	page, err := s.dash.Page(derivation.Params{})
	if err != nil {
		fail(c, err)
		return
	}
	report := s.reports.Generate(page)

	switch c.DefaultQuery("format", "markdown") {
	case "markdown", "md":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(reporting.RenderMarkdown(report)))
	case "csv":
		out, err := reporting.RenderCSV(report)
		if err != nil {
			fail(c, err)
			return
		}
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(out))
	default:
		writeError(c, http.StatusBadRequest, fmt.Errorf("unknown format %q", c.Query("format")))
	}
}

func (s *Server) getFilter(c *gin.Context) {
	c.JSON(http.StatusOK, s.dash.Filter())
}

func (s *Server) setFilter(c *gin.Context) {
	var payload filterPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if payload.Value == "" {
		writeError(c, http.StatusBadRequest, errMissingValue)
		return
	}
	if err := s.dash.SetFilter(domain.Dimension(c.Param("dimension")), payload.Value); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.dash.Filter())
}

func (s *Server) clearFilter(c *gin.Context) {
	if err := s.dash.ClearFilter(domain.Dimension(c.Param("dimension"))); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.dash.Filter())
}

func (s *Server) resetFilter(c *gin.Context) {
	s.dash.ResetFilter()
	c.JSON(http.StatusOK, s.dash.Filter())
}

func (s *Server) createUnicorn(c *gin.Context) {
	var payload unicornPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	u, err := payload.toDomain(s.dash.Snapshot().AsOf)
	if err != nil {
		fail(c, err)
		return
	}
	if err := s.dash.Insert(c.Request.Context(), u); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (s *Server) updateStatus(c *gin.Context) {
	var payload statusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if payload.Status == "" {
		writeError(c, http.StatusBadRequest, errMissingStatus)
		return
	}
	status, ok := domain.ParseStatus(payload.Status)
	if !ok {
		fail(c, fmt.Errorf("status %q: %w", payload.Status, storage.ErrInvalidInput))
		return
	}

	id := normalizeID(c.Param("id"))
	if err := s.dash.UpdateStatus(c.Request.Context(), id, status); err != nil {
		fail(c, err)
		return
	}
	u, _ := s.dash.Snapshot().Lookup(id)
	c.JSON(http.StatusOK, u)
}

func (s *Server) createTrade(c *gin.Context) {
	var payload tradePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	t := &domain.TradeRecord{
		UnicornID: normalizeID(payload.UnicornID),
		Value:     payload.Value,
	}
	if payload.CompletedAt != nil {
		t.CompletedAt = payload.CompletedAt.UTC()
	}
	if err := s.dash.AppendTrade(c.Request.Context(), t); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}
