package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/miespacioubb/miespacio/internal/note"
	"github.com/miespacioubb/miespacio/internal/recommend"
	"github.com/miespacioubb/miespacio/internal/search"
	"github.com/miespacioubb/miespacio/internal/trends"
)

type Recommender interface {
	Personalized(ctx context.Context, rut string, limit int) ([]recommend.Recommendation, error)
	Generic(ctx context.Context, limit int) ([]recommend.Recommendation, error)
	BySubject(ctx context.Context, rut, subject string, limit int) ([]recommend.Recommendation, error)
}

type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.SearchResult, error)
}

type NoteLister interface {
	ListAll(ctx context.Context) ([]note.Note, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type limitQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=50"`
}

type personalizedRequest struct {
	Rut   string `validate:"required,rut"`
	Limit int    `validate:"omitempty,min=1,max=50"`
}

type subjectRequest struct {
	Subject string `validate:"required,max=200"`
	Rut     string `validate:"omitempty,rut"`
	Limit   int    `form:"limit" validate:"omitempty,min=1,max=30"`
}

type searchQuery struct {
	Q     string `form:"q" validate:"required,min=2,max=200"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=50"`
}

type trendsQuery struct {
	Days  int `form:"days" validate:"omitempty,min=1,max=365"`
	Limit int `form:"limit" validate:"omitempty,min=1,max=50"`
}

type Handler struct {
	recommender Recommender
	searcher    Searcher
	notes       NoteLister
	db          Pinger
	now         func() time.Time
}

func NewHandler(r Recommender, s Searcher, notes NoteLister, db Pinger) *Handler {
	return &Handler{recommender: r, searcher: s, notes: notes, db: db, now: time.Now}
}

func (h *Handler) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			_ = c.Error(err)
			respondError(c, http.StatusServiceUnavailable, CodeUnavailable, "Base de datos no disponible")
			return
		}
	}
	c.String(http.StatusOK, "ok")
}

func (h *Handler) Personalized(c *gin.Context) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParams, "limit must be a number")
		return
	}
	req := personalizedRequest{Rut: strings.TrimSpace(c.GetHeader(HeaderUserRut)), Limit: q.Limit}
	if msg := validateRequest(&req); msg != "" {
		respondError(c, http.StatusBadRequest, CodeInvalidParams, msg)
		return
	}

	recs, err := h.recommender.Personalized(c.Request.Context(), req.Rut, req.Limit)
	if errors.Is(err, recommend.ErrNoProfile) {
		respondError(c, http.StatusNotFound, CodeProfileNotFound,
			"No tienes un perfil académico; usa las recomendaciones genéricas")
		return
	}
	if err != nil {
		respondInternal(c, err)
		return
	}
	respondOK(c, recs)
}

func (h *Handler) Generic(c *gin.Context) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParams, "limit must be a number")
		return
	}
	if msg := validateRequest(&q); msg != "" {
		respondError(c, http.StatusBadRequest, CodeInvalidParams, msg)
		return
	}

	recs, err := h.recommender.Generic(c.Request.Context(), q.Limit)
	if err != nil {
		respondInternal(c, err)
		return
	}
	respondOK(c, recs)
}

func (h *Handler) BySubject(c *gin.Context) {
	var req subjectRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParams, "limit must be a number")
		return
	}
	req.Subject = strings.TrimSpace(c.Param("subject"))
	req.Rut = strings.TrimSpace(c.GetHeader(HeaderUserRut))
	if msg := validateRequest(&req); msg != "" {
		respondError(c, http.StatusBadRequest, CodeInvalidParams, msg)
		return
	}

	recs, err := h.recommender.BySubject(c.Request.Context(), req.Rut, req.Subject, req.Limit)
	if err != nil {
		respondInternal(c, err)
		return
	}
	respondOK(c, recs)
}

func (h *Handler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParams, "limit must be a number")
		return
	}
	q.Q = strings.TrimSpace(q.Q)
	if msg := validateRequest(&q); msg != "" {
		respondError(c, http.StatusBadRequest, CodeInvalidParams, msg)
		return
	}
	if q.Limit == 0 {
		q.Limit = 20
	}

	results, err := h.searcher.Search(c.Request.Context(), q.Q, q.Limit)
	if err != nil {
		respondInternal(c, err)
		return
	}
	if results == nil {
		results = []search.SearchResult{}
	}
	respondOK(c, results)
}

func (h *Handler) Trends(c *gin.Context) {
	var q trendsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidParams, "days and limit must be numbers")
		return
	}
	if msg := validateRequest(&q); msg != "" {
		respondError(c, http.StatusBadRequest, CodeInvalidParams, msg)
		return
	}
	if q.Days == 0 {
		q.Days = 30
	}
	if q.Limit == 0 {
		q.Limit = 10
	}

	notes, err := h.notes.ListAll(c.Request.Context())
	if err != nil {
		respondInternal(c, err)
		return
	}
	respondOK(c, trends.FromNotes(notes, h.now()).GetTrends(q.Days, q.Limit))
}
