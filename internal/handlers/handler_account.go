package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/org_books/internal/core/ports/services"
	"github.com/SscSPs/org_books/internal/dto"
	"github.com/SscSPs/org_books/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(as portssvc.AccountSvcFacade) *accountHandler {
	return &accountHandler{
		accountService: as,
	}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade) {
	h := newAccountHandler(accountService)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("", h.listAccounts)
	}
}

// listAccounts godoc
// @Summary List the chart of accounts
// @Description Retrieves every account, ordered by name
// @Tags accounts
// @Produce  json
// @Success 200 {object} dto.ListAccountsResponse
// @Failure 500 {object} map[string]string "Failed to list accounts"
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accounts, err := h.accountService.ListAccounts(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list accounts from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list accounts"})
		return
	}

	logger.Debug("Accounts listed successfully", slog.Int("count", len(accounts)))
	c.JSON(http.StatusOK, dto.ListAccountsResponse{Accounts: dto.ToListAccountResponse(accounts)})
}
