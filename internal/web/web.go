// Package web serves the portfolio side: a landing page, the leaderboard
// API and a not-found page that points at the Star Catcher.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tomz197/starcatch/internal/catch"
	"github.com/tomz197/starcatch/internal/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Leaderboard limits for /api/scores.
const (
	DefaultLimit = 10
	MaxLimit     = 50
	pageLimit    = 5
)

// Scores is the read side of the score store. *store.Store implements it.
type Scores interface {
	TopScores(ctx context.Context, variant string, limit int) ([]store.Score, error)
	Count(ctx context.Context, variant string) (int, error)
}

// Options configures the router.
type Options struct {
	Scores  Scores // Nil serves empty leaderboards
	SSHHost string // Shown in the connect instructions
	Logger  *zap.Logger
}

type handler struct {
	scores  Scores
	sshHost string
	logger  *zap.Logger
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(opts Options) *gin.Engine {
	h := &handler{scores: opts.Scores, sshHost: opts.SSHHost, logger: opts.Logger}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.sshHost == "" {
		h.sshHost = "localhost"
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).ParseFS(templatesFS, "templates/*.html")))

	r.GET("/", h.index)
	r.GET("/api/scores", h.apiScores)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.NoRoute(h.notFound)
	return r
}

// board is one leaderboard on the landing page.
type board struct {
	Title  string
	Games  int
	Scores []store.Score
}

func (h *handler) index(c *gin.Context) {
	var boards []board
	for _, v := range []catch.Variant{catch.StarCatcher(), catch.SpaceCatcher()} {
		b := board{Title: v.Title}
		if h.scores != nil {
			top, err := h.scores.TopScores(c.Request.Context(), v.Name, pageLimit)
			if err != nil {
				h.logger.Warn("load top scores", zap.String("variant", v.Name), zap.Error(err))
			}
			b.Scores = top
			if b.Games, err = h.scores.Count(c.Request.Context(), v.Name); err != nil {
				h.logger.Warn("count scores", zap.String("variant", v.Name), zap.Error(err))
			}
		}
		boards = append(boards, b)
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"sshHost": h.sshHost,
		"boards":  boards,
	})
}

func (h *handler) apiScores(c *gin.Context) {
	variant := c.DefaultQuery("variant", catch.VariantStar)
	if _, ok := catch.Builtin(variant); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown variant " + strconv.Quote(variant)})
		return
	}
	limit := parseLimit(c.Query("limit"))

	scores := []store.Score{}
	if h.scores != nil {
		top, err := h.scores.TopScores(c.Request.Context(), variant, limit)
		switch {
		case errors.Is(err, store.ErrUnknownVariant):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case err != nil:
			h.logger.Error("load top scores", zap.String("variant", variant), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scores"})
			return
		}
		if top != nil {
			scores = top
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"variant": variant,
		"scores":  scores,
	})
}

func (h *handler) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "notfound.html", gin.H{
		"path":    c.Request.URL.Path,
		"sshHost": h.sshHost,
	})
}

// parseLimit reads the limit query value, clamped to [1, MaxLimit].
// Missing or malformed values use DefaultLimit.
func parseLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultLimit
	}
	return min(max(n, 1), MaxLimit)
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
