// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline queries as a JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/arxiv-digest/internal/arxiv"
	"github.com/pdiddy/arxiv-digest/internal/fetch"
	"github.com/pdiddy/arxiv-digest/internal/pipeline"
	"github.com/pdiddy/arxiv-digest/internal/store"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// ClientIDHeader identifies a caller whose browse requests supersede
// each other.
const ClientIDHeader = "X-Client-ID"

const dateFmt = "2006-01-02"

// Queries is the subset of *pipeline.Service the API serves.
type Queries interface {
	Browse(ctx context.Context, req pipeline.BrowseRequest) ([]types.Paper, error)
	SearchTitle(ctx context.Context, term string) ([]types.Paper, error)
	SearchKeywords(ctx context.Context, keywords []string) ([]types.Paper, error)
	DailyPapers(ctx context.Context, day time.Time) ([]types.Paper, error)
	Digest(ctx context.Context, userID, digest string, day time.Time) ([]types.Paper, error)
	Tagged(ctx context.Context, userID, tag string) ([]types.Paper, error)
}

var _ Queries = (*pipeline.Service)(nil)

// Server holds the handlers' dependencies.
type Server struct {
	Queries Queries
	Log     zerolog.Logger

	// Now reports the current time; it picks the default browse day.
	Now func() time.Time

	sessions pipeline.Sessions
}

// New returns a server over q.
func New(q Queries, log zerolog.Logger) *Server {
	return &Server{Queries: q, Log: log, Now: time.Now}
}

// PapersResponse is the body of every paper listing endpoint.
type PapersResponse struct {
	Papers []types.Paper `json:"papers"`
	Total  int           `json:"total"`
}

// SetupRouter registers the routes.
func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/papers", s.Browse)
	r.GET("/papers/title", s.Title)
	r.GET("/papers/keywords", s.Keywords)
	r.GET("/papers/daily", s.Daily)
	r.GET("/digests/:name", s.Digest)
	r.GET("/tags/:name/papers", s.Tagged)
	return r
}

// requestLogger attaches a request-scoped logger to the request context
// and logs each completed request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		log := s.Log.With().Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Logger()
		c.Request = c.Request.WithContext(log.WithContext(c.Request.Context()))
		c.Next()
		log.Debug().
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// Browse serves GET /papers?query=&from=&to=&user=&tag=.
func (s *Server) Browse(c *gin.Context) {
	today := s.now().UTC()
	start, err := dateParam(c, "from", today)
	if err != nil {
		badRequest(c, err)
		return
	}
	end, err := dateParam(c, "to", start)
	if err != nil {
		badRequest(c, err)
		return
	}
	req := pipeline.BrowseRequest{
		Query:  c.Query("query"),
		Start:  start,
		End:    end,
		UserID: c.Query("user"),
		Tag:    c.Query("tag"),
	}
	run := func(ctx context.Context) ([]types.Paper, error) {
		return s.Queries.Browse(ctx, req)
	}

	clientID := c.GetHeader(ClientIDHeader)
	if clientID == "" {
		papers, err := run(c.Request.Context())
		s.respond(c, papers, err)
		return
	}

	papers, ok, err := s.sessions.Submit(c.Request.Context(), clientID, run)
	if !ok && err == nil {
		c.Status(http.StatusNoContent)
		return
	}
	s.respond(c, papers, err)
}

// Title serves GET /papers/title?q=.
func (s *Server) Title(c *gin.Context) {
	papers, err := s.Queries.SearchTitle(c.Request.Context(), c.Query("q"))
	s.respond(c, papers, err)
}

// Keywords serves GET /papers/keywords?k=a&k=b.
func (s *Server) Keywords(c *gin.Context) {
	keywords := c.QueryArray("k")
	if len(keywords) == 1 && strings.Contains(keywords[0], ",") {
		keywords = strings.Split(keywords[0], ",")
	}
	papers, err := s.Queries.SearchKeywords(c.Request.Context(), keywords)
	s.respond(c, papers, err)
}

// Daily serves GET /papers/daily?date=.
func (s *Server) Daily(c *gin.Context) {
	day, err := dateParam(c, "date", s.now().UTC())
	if err != nil {
		badRequest(c, err)
		return
	}
	papers, err := s.Queries.DailyPapers(c.Request.Context(), day)
	s.respond(c, papers, err)
}

// Digest serves GET /digests/:name?user=&date=.
func (s *Server) Digest(c *gin.Context) {
	user := c.Query("user")
	if user == "" {
		badRequest(c, errors.New("user is required"))
		return
	}
	day, err := dateParam(c, "date", s.now().UTC())
	if err != nil {
		badRequest(c, err)
		return
	}
	papers, err := s.Queries.Digest(c.Request.Context(), user, c.Param("name"), day)
	s.respond(c, papers, err)
}

// Tagged serves GET /tags/:name/papers?user=.
func (s *Server) Tagged(c *gin.Context) {
	user := c.Query("user")
	if user == "" {
		badRequest(c, errors.New("user is required"))
		return
	}
	papers, err := s.Queries.Tagged(c.Request.Context(), user, c.Param("name"))
	s.respond(c, papers, err)
}

func (s *Server) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Server) respond(c *gin.Context, papers []types.Paper, err error) {
	if err != nil {
		if fetch.IsCancelled(err) {
			// The client went away; nobody reads the body.
			c.Status(http.StatusNoContent)
			return
		}
		status := StatusFor(err)
		log := zerolog.Ctx(c.Request.Context())
		log.Warn().Err(err).Int("status", status).Msg("query failed")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if papers == nil {
		papers = []types.Paper{}
	}
	c.JSON(http.StatusOK, PapersResponse{Papers: papers, Total: len(papers)})
}

// StatusFor maps a query error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, fetch.ErrFetchExhausted), errors.Is(err, arxiv.ErrMalformedDocument):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrNotFound), errors.Is(err, arxiv.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func dateParam(c *gin.Context, key string, fallback time.Time) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return arxiv.StartOfDay(fallback), nil
	}
	t, err := time.Parse(dateFmt, raw)
	if err != nil {
		return time.Time{}, errors.New(key + " must be YYYY-MM-DD")
	}
	return t, nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
