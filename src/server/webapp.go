package server

import (
	"embed"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stock-historian/src/interfaces"
	"stock-historian/src/logger"
	"stock-historian/src/models"
	"stock-historian/src/utils"

	"github.com/gin-gonic/gin"
)

//go:embed static
var staticFS embed.FS

const sessionCookie = "stockhist_session"

// -----------------------------------------------------------------------------
// WebAppServer
// -----------------------------------------------------------------------------

// WebAppServer serves the two-screen single-page UI and its JSON API. Every
// action is a synchronous request handled to completion; the only state it
// holds between requests is the per-session pending table.
type WebAppServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Store    interfaces.IStore
	Source   interfaces.IMarketDataSource
	Sessions *SessionRegistry
	engine   *gin.Engine
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewWebAppServer(cfg *models.MConfig, log *logger.Logger, store interfaces.IStore, source interfaces.IMarketDataSource) *WebAppServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &WebAppServer{
		Config:   cfg,
		Logger:   log,
		Store:    store,
		Source:   source,
		Sessions: NewSessionRegistry(),
		engine:   gin.Default(),
	}

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *WebAppServer) setupRoutes() {
	s.engine.GET("/", s.getIndex)

	s.engine.POST("/api/collect/fetch", s.postCollectFetch)
	s.engine.POST("/api/collect/save", s.postCollectSave)
	s.engine.POST("/api/visualize", s.postVisualize)

	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/health", s.getHealth)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *WebAppServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)
	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Engine exposes the router for tests.
func (s *WebAppServer) Engine() *gin.Engine {
	return s.engine
}

// -----------------------------------------------------------------------------
// Request / Response shapes
// -----------------------------------------------------------------------------

type collectFetchRequest struct {
	Symbol string `json:"symbol"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

type visualizeRequest struct {
	Symbol1 string `json:"symbol1"`
	Symbol2 string `json:"symbol2"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *WebAppServer) getIndex(c *gin.Context) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		c.String(http.StatusInternalServerError, "page unavailable")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// -----------------------------------------------------------------------------

// postCollectFetch handles the "Get Data" click: one provider round-trip,
// then the result is parked in the session until "Save Data".
func (s *WebAppServer) postCollectFetch(c *gin.Context) {
	var req collectFetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker symbol is required"})
		return
	}

	start, end, err := parseDateRange(req.Start, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := s.Source.FetchDailyHistory(c.Request.Context(), symbol, start, end)
	if err != nil {
		s.Logger.Error("Fetch failed for %s: %v", symbol, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("fetch failed: %v", err)})
		return
	}

	sessionID := s.sessionID(c)

	resp := gin.H{
		"symbol":  symbol,
		"rows":    len(records),
		"records": records,
	}

	if len(records) == 0 {
		// Empty is "no data", not an error. The trading calendar tells the
		// user whether the market was even open in that range.
		if !utils.GetCalendar(symbol).HasTradingDays(start, end) {
			resp["note"] = "The selected range contains no trading days."
		} else {
			resp["note"] = "No trading data returned for this symbol and range."
		}
		s.Sessions.Clear(sessionID)
	} else {
		s.Sessions.Put(sessionID, symbol, records)
	}

	c.JSON(http.StatusOK, resp)
}

// -----------------------------------------------------------------------------

// postCollectSave handles the "Save Data" click. Saving without a prior
// fetch is a benign no-op; the pending table is dropped only after the
// insert commits.
func (s *WebAppServer) postCollectSave(c *gin.Context) {
	sessionID := s.sessionID(c)

	pending := s.Sessions.Get(sessionID)
	if pending == nil {
		c.JSON(http.StatusOK, gin.H{"saved": false, "message": "No data to save."})
		return
	}

	// The fetch result carries no ticker; stamp it before writing.
	records := make([]models.MPriceRecord, len(pending.Records))
	copy(records, pending.Records)
	for i := range records {
		records[i].Ticker = pending.Symbol
	}

	written, err := s.Store.SavePriceHistory(records)
	if err != nil {
		s.Logger.Error("Save failed for %s: %v", pending.Symbol, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("save failed: %v", err)})
		return
	}

	s.Sessions.Clear(sessionID)
	s.Logger.Info("Saved %d rows for %s", written, pending.Symbol)

	c.JSON(http.StatusOK, gin.H{
		"saved":        true,
		"rows_written": written,
		"message":      fmt.Sprintf("%d data saved successfully!", written),
	})
}

// -----------------------------------------------------------------------------

func (s *WebAppServer) postVisualize(c *gin.Context) {
	var req visualizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	symbol1 := strings.ToUpper(strings.TrimSpace(req.Symbol1))
	symbol2 := strings.ToUpper(strings.TrimSpace(req.Symbol2))
	if symbol1 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker symbol is required"})
		return
	}

	start, end, err := parseDateRange(req.Start, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	aggs, err := s.Store.AggregateDividends(symbol1, symbol2, start, end)
	if err != nil {
		s.Logger.Error("Aggregation failed for %s/%s: %v", symbol1, symbol2, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("query failed: %v", err)})
		return
	}

	if len(aggs) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"records": []models.MAggregateRecord{},
			"message": "No data found for the selected criteria. Please adjust the inputs.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": aggs})
}

// -----------------------------------------------------------------------------

func (s *WebAppServer) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default_range_years": s.Config.DataSource.DefaultRangeYears,
	})
}

// -----------------------------------------------------------------------------

func (s *WebAppServer) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// sessionID reads the session cookie, minting one on first contact.
func (s *WebAppServer) sessionID(c *gin.Context) string {
	if id, err := c.Cookie(sessionCookie); err == nil && id != "" {
		return id
	}
	id := NewSessionID()
	c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	return id
}

// -----------------------------------------------------------------------------

func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", startStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %q", startStr)
	}
	end, err := time.ParseInLocation("2006-01-02", endStr, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %q", endStr)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date precedes start date")
	}
	return start, end, nil
}
