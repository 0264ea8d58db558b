package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"lotto/domain/entities"
	"lotto/domain/interfaces"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RoundClock reports the scheduler's timing
type RoundClock interface {
	NextDrawAt() time.Time
	LastDrawAt() time.Time
	TimeLeft() time.Duration
}

type timeLeftResponse struct {
	NextDrawAt  time.Time  `json:"nextDrawAt"`
	LastDrawAt  *time.Time `json:"lastDrawAt"`
	SecondsLeft int64      `json:"secondsLeft"`
}

type drawResponse struct {
	ID      int64     `json:"id"`
	Numbers []int64   `json:"numbers"`
	Time    time.Time `json:"time"`
}

type leaderboardEntry struct {
	Username string `json:"username"`
	Points   int64  `json:"points"`
}

type betResponse struct {
	ID            int64      `json:"id"`
	Numbers       []int64    `json:"numbers"`
	Cost          int64      `json:"cost"`
	PlacedAt      time.Time  `json:"placedAt"`
	SettledDrawID *int64     `json:"settledDrawId"`
	CorrectCount  *int       `json:"correctCount,omitempty"`
	Payout        *int64     `json:"payout,omitempty"`
	SettledAt     *time.Time `json:"settledAt,omitempty"`
}

type historyResponse struct {
	BalanceBefore   int64                    `json:"balanceBefore"`
	BalanceAfter    int64                    `json:"balanceAfter"`
	ChangeAmount    int64                    `json:"changeAmount"`
	TransactionType entities.TransactionType `json:"transactionType"`
	Metadata        map[string]any           `json:"metadata,omitempty"`
	RelatedBetID    *int64                   `json:"relatedBetId,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
}

func toDrawResponse(d *entities.Draw) drawResponse {
	return drawResponse{ID: d.ID, Numbers: d.Numbers, Time: d.CreatedAt}
}

// HTTPServer serves the realtime stream and the read-only reporting routes
type HTTPServer struct {
	engine  *gin.Engine
	server  *http.Server
	hub     *WebsocketHub
	clock   RoundClock
	queries interfaces.QueryService
}

// NewHTTPServer builds the gin engine and registers every route
func NewHTTPServer(addr string, hub *WebsocketHub, clock RoundClock, queries interfaces.QueryService) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &HTTPServer{
		engine:  engine,
		hub:     hub,
		clock:   clock,
		queries: queries,
	}
	s.Register(engine)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Register attaches the routes to r
func (s *HTTPServer) Register(r *gin.Engine) {
	r.GET("/healthz", s.health)
	r.GET("/ws", gin.WrapH(s.hub))

	api := r.Group("/api")
	api.GET("/time-left", s.timeLeft)
	api.GET("/draw/current", s.currentDraw)
	api.GET("/draws", s.draws)
	api.GET("/leaderboard", s.leaderboard)
	api.GET("/players/:id/bets", s.playerBets)
	api.GET("/players/:id/history", s.playerHistory)
}

// Handler returns the root handler
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Serve accepts connections on l until Shutdown
func (s *HTTPServer) Serve(l net.Listener) error {
	log.WithField("addr", l.Addr().String()).Info("HTTP server listening")
	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured address
func (s *HTTPServer) ListenAndServe() error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	return s.Serve(l)
}

// Shutdown stops accepting requests and waits for handlers to return
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) timeLeft(c *gin.Context) {
	resp := timeLeftResponse{
		NextDrawAt:  s.clock.NextDrawAt(),
		SecondsLeft: int64(s.clock.TimeLeft().Round(time.Second) / time.Second),
	}
	if last := s.clock.LastDrawAt(); !last.IsZero() {
		resp.LastDrawAt = &last
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) currentDraw(c *gin.Context) {
	draw, err := s.queries.GetCurrentDraw(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	if draw == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no draw yet"})
		return
	}
	c.JSON(http.StatusOK, toDrawResponse(draw))
}

func (s *HTTPServer) draws(c *gin.Context) {
	draws, err := s.queries.GetAllDraws(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}

	resp := make([]drawResponse, 0, len(draws))
	for _, d := range draws {
		resp = append(resp, toDrawResponse(d))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) leaderboard(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("n", "3"))
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a non-negative integer"})
		return
	}

	players, err := s.queries.GetTopPlayers(c.Request.Context(), n)
	if err != nil {
		s.internalError(c, err)
		return
	}

	resp := make([]leaderboardEntry, 0, len(players))
	for _, p := range players {
		resp = append(resp, leaderboardEntry{Username: p.Username, Points: p.Points})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) playerBets(c *gin.Context) {
	playerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}

	bets, err := s.queries.GetAllBetsForPlayer(c.Request.Context(), playerID)
	if err != nil {
		s.internalError(c, err)
		return
	}

	resp := make([]betResponse, 0, len(bets))
	for _, b := range bets {
		resp = append(resp, betResponse{
			ID:            b.ID,
			Numbers:       b.Numbers,
			Cost:          b.Cost,
			PlacedAt:      b.PlacedAt,
			SettledDrawID: b.SettledDrawID,
			CorrectCount:  b.CorrectCount,
			Payout:        b.Payout,
			SettledAt:     b.SettledAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) playerHistory(c *gin.Context) {
	playerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	history, err := s.queries.GetBalanceHistory(c.Request.Context(), playerID, limit)
	if err != nil {
		s.internalError(c, err)
		return
	}

	resp := make([]historyResponse, 0, len(history))
	for _, h := range history {
		resp = append(resp, historyResponse{
			BalanceBefore:   h.BalanceBefore,
			BalanceAfter:    h.BalanceAfter,
			ChangeAmount:    h.ChangeAmount,
			TransactionType: h.TransactionType,
			Metadata:        h.TransactionMetadata,
			RelatedBetID:    h.RelatedBetID,
			CreatedAt:       h.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) internalError(c *gin.Context, err error) {
	log.WithFields(log.Fields{
		"path":  c.FullPath(),
		"error": err,
	}).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
