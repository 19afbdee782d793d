package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/SscSPs/org_books/internal/core/ports/services"
	"github.com/SscSPs/org_books/internal/dto"
	"github.com/SscSPs/org_books/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Values of the unbalanced report's source parameter.
const (
	unbalancedSourcePersisted = "persisted"
	unbalancedSourceLastRun   = "last_run"
)

// journalHandler handles HTTP requests related to the journal.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

// newJournalHandler creates a new journalHandler.
func newJournalHandler(journalService portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{
		journalService: journalService,
	}
}

// registerJournalRoutes registers journal specific routes
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	journal := rg.Group("/journal")
	{
		journal.GET("/entries", h.listEntries)
		journal.GET("/entries/:entryID", h.getEntry)
		journal.GET("/unbalanced", h.unbalancedEntries)
		journal.GET("/dbcheck", h.dbCheck)
		journal.POST("/regenerate", h.regenerate)
	}
}

// getEntry godoc
// @Summary Get a journal entry
// @Description Retrieves a journal entry with its line items and totals
// @Tags journal
// @Produce  json
// @Param   entryID path int true "Journal entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 400 {object} map[string]string "Invalid entry ID"
// @Failure 404 {object} map[string]string "Journal entry not found"
// @Failure 500 {object} map[string]string "Failed to retrieve journal entry"
// @Router /journal/entries/{entryID} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	entryID, err := strconv.ParseInt(c.Param("entryID"), 10, 64)
	if err != nil || entryID <= 0 {
		logger.Warn("Invalid journal entry ID", slog.String("entry_id", c.Param("entryID")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry ID"})
		return
	}

	entry, err := h.journalService.GetEntryByID(c.Request.Context(), entryID)
	if err != nil {
		respondError(c, err, "Failed to retrieve journal entry")
		return
	}

	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// listEntries godoc
// @Summary List journal entries
// @Description Retrieves journal entries newest first, using token-based pagination
// @Tags journal
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 500 {object} map[string]string "Failed to list journal entries"
// @Router /journal/entries [get]
func (h *journalHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.journalService.ListEntries(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list journal entries")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// unbalancedEntries godoc
// @Summary Report unbalanced journal entries
// @Description Lists entries whose debits and credits differ, either as stored now or as seen by the last regeneration run
// @Tags journal
// @Produce  json
// @Param   source query string false "persisted or last_run" default(persisted)
// @Success 200 {object} dto.UnbalancedEntriesResponse
// @Failure 400 {object} map[string]string "Unknown source"
// @Failure 404 {object} map[string]string "No regeneration run yet"
// @Failure 500 {object} map[string]string "Failed to compute unbalanced entries"
// @Router /journal/unbalanced [get]
func (h *journalHandler) unbalancedEntries(c *gin.Context) {
	ctx := c.Request.Context()
	source := c.DefaultQuery("source", unbalancedSourcePersisted)

	resp := dto.UnbalancedEntriesResponse{Source: source}
	switch source {
	case unbalancedSourcePersisted:
		balances, err := h.journalService.FindUnbalancedEntries(ctx)
		if err != nil {
			respondError(c, err, "Failed to compute unbalanced entries")
			return
		}
		resp.Entries = dto.ToEntryBalanceResponses(balances)
	case unbalancedSourceLastRun:
		balances, runID, err := h.journalService.UnbalancedEntries(ctx)
		if err != nil {
			respondError(c, err, "Failed to report unbalanced entries")
			return
		}
		resp.RunID = runID
		resp.Entries = dto.ToEntryBalanceResponses(balances)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "source must be persisted or last_run"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// dbCheck godoc
// @Summary Check journal and transaction consistency
// @Description Checks every stored entry's balance and every transaction's internal consistency
// @Tags journal
// @Produce  json
// @Success 200 {object} dto.DBCheckReport
// @Failure 500 {object} map[string]string "Failed to run database check"
// @Router /journal/dbcheck [get]
func (h *journalHandler) dbCheck(c *gin.Context) {
	report, err := h.journalService.DBCheck(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to run database check")
		return
	}
	c.JSON(http.StatusOK, report)
}

// regenerate godoc
// @Summary Regenerate the journal
// @Description Deletes every unfrozen entry and rebuilds the journal from the transactions
// @Tags journal
// @Accept  json
// @Produce  json
// @Param   request body dto.RegenerateRequest false "Run options"
// @Success 200 {object} dto.RegenerationReport
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 409 {object} map[string]string "A regeneration run is already in progress"
// @Failure 500 {object} map[string]string "Failed to regenerate journal"
// @Router /journal/regenerate [post]
func (h *journalHandler) regenerate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to bind JSON for Regenerate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	report, err := h.journalService.Regenerate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to regenerate journal")
		return
	}

	logger.Info("Journal regenerated",
		slog.String("run_id", report.RunID),
		slog.Bool("dry_run", report.DryRun),
		slog.Int("entries", report.EntriesWritten),
		slog.Int("failures", len(report.Failures)))
	c.JSON(http.StatusOK, report)
}
