package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/core/ledger"
	portssvc "github.com/SscSPs/org_books/internal/core/ports/services"
	"github.com/SscSPs/org_books/internal/dto"
	"github.com/SscSPs/org_books/internal/handlers"
	"github.com/SscSPs/org_books/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) LoadChart(ctx context.Context) *ledger.Chart {
	args := m.Called(ctx)
	return args.Get(0).(*ledger.Chart)
}

func (m *MockAccountService) SeedAccounts(ctx context.Context, r io.Reader) (*dto.SeedAccountsResponse, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SeedAccountsResponse), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Mock JournalService ---
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) GetEntryByID(ctx context.Context, entryID int64) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}

func (m *MockJournalService) Regenerate(ctx context.Context, req dto.RegenerateRequest) (*dto.RegenerationReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RegenerationReport), args.Error(1)
}

func (m *MockJournalService) UnbalancedEntries(ctx context.Context) ([]domain.EntryBalance, string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]domain.EntryBalance), args.String(1), args.Error(2)
}

func (m *MockJournalService) FindUnbalancedEntries(ctx context.Context) ([]domain.EntryBalance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EntryBalance), args.Error(1)
}

func (m *MockJournalService) DBCheck(ctx context.Context) (*dto.DBCheckReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DBCheckReport), args.Error(1)
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

// --- Test Suite Setup ---

type JournalHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockAccountService *MockAccountService
	mockJournalService *MockJournalService
}

func (suite *JournalHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.mockAccountService = new(MockAccountService)
	suite.mockJournalService = new(MockJournalService)

	cfg := &config.Config{RateLimit: "1000-M", CORSAllowedOrigins: "*"}
	services := &portssvc.ServiceContainer{
		Account: suite.mockAccountService,
		Journal: suite.mockJournalService,
	}
	suite.router = gin.New()
	suite.Require().NoError(handlers.RegisterRoutes(suite.router, cfg, services))
}

func (suite *JournalHandlerTestSuite) serve(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func sampleEntry() *domain.JournalEntry {
	cash := &domain.Account{ID: 1, Name: domain.AcctAssetCash, Category: domain.Asset, Type: domain.Debit}
	donations := &domain.Account{ID: 2, Name: domain.AcctRevenueDonation, Category: domain.Revenue, Type: domain.Credit}
	return &domain.JournalEntry{
		ID:        7,
		SourceURL: "/admin/books/sale/3/change/",
		When:      time.Date(2018, 4, 2, 0, 0, 0, 0, time.UTC),
		LineItems: []domain.JournalEntryLineItem{
			{ID: 1, JournalEntryID: 7, AccountID: 1, Account: cash, Action: domain.Increase, Amount: decimal.NewFromInt(25)},
			{ID: 2, JournalEntryID: 7, AccountID: 2, Account: donations, Action: domain.Increase, Amount: decimal.NewFromInt(25)},
		},
	}
}

// --- Tests ---

func (suite *JournalHandlerTestSuite) TestHealth() {
	w := suite.serve(http.MethodGet, "/health", "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
}

func (suite *JournalHandlerTestSuite) TestMetrics() {
	w := suite.serve(http.MethodGet, "/metrics", "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), "go_goroutines")
}

func (suite *JournalHandlerTestSuite) TestGetEntry_Success() {
	suite.mockJournalService.On("GetEntryByID", mock.Anything, int64(7)).Return(sampleEntry(), nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/journal/entries/7", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.JournalEntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(int64(7), resp.EntryID)
	suite.Equal("2018-04-02", resp.When)
	suite.True(resp.Balanced)
	suite.Require().Len(resp.LineItems, 2)
	suite.Equal("dr", resp.LineItems[0].Side)
	suite.Equal("cr", resp.LineItems[1].Side)
	suite.Equal(domain.AcctRevenueDonation, resp.LineItems[1].AccountName)
	suite.mockJournalService.AssertExpectations(suite.T())
}

func (suite *JournalHandlerTestSuite) TestGetEntry_Errors() {
	suite.mockJournalService.On("GetEntryByID", mock.Anything, int64(404)).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockJournalService.On("GetEntryByID", mock.Anything, int64(500)).Return(nil, fmt.Errorf("boom")).Once()

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{name: "not a number", target: "/api/v1/journal/entries/abc", want: http.StatusBadRequest},
		{name: "zero", target: "/api/v1/journal/entries/0", want: http.StatusBadRequest},
		{name: "missing", target: "/api/v1/journal/entries/404", want: http.StatusNotFound},
		{name: "storage failure", target: "/api/v1/journal/entries/500", want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.serve(http.MethodGet, tt.target, "")
			suite.Equal(tt.want, w.Code)
		})
	}
}

func (suite *JournalHandlerTestSuite) TestGetEntry_InternalErrorDoesNotLeak() {
	suite.mockJournalService.On("GetEntryByID", mock.Anything, int64(9)).
		Return(nil, fmt.Errorf("dial tcp 10.0.0.5:5432: connection refused")).Once()

	w := suite.serve(http.MethodGet, "/api/v1/journal/entries/9", "")

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "10.0.0.5")
}

func (suite *JournalHandlerTestSuite) TestListEntries() {
	token := "abc"
	next := "def"
	params := dto.ListEntriesParams{Limit: 5, NextToken: &token}
	suite.mockJournalService.On("ListEntries", mock.Anything, params).Return(&dto.ListEntriesResponse{
		Entries:   []dto.JournalEntryResponse{{EntryID: 3}},
		NextToken: &next,
	}, nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/journal/entries?limit=5&nextToken=abc", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListEntriesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Entries, 1)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal("def", *resp.NextToken)
}

func (suite *JournalHandlerTestSuite) TestListEntries_InvalidLimit() {
	w := suite.serve(http.MethodGet, "/api/v1/journal/entries?limit=1000", "")
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockJournalService.AssertNotCalled(suite.T(), "ListEntries", mock.Anything, mock.Anything)
}

func (suite *JournalHandlerTestSuite) TestListEntries_BadToken() {
	suite.mockJournalService.On("ListEntries", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewAppError(400, "invalid nextToken", fmt.Errorf("bad base64"))).Once()

	w := suite.serve(http.MethodGet, "/api/v1/journal/entries?nextToken=%25%25", "")

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *JournalHandlerTestSuite) TestUnbalanced_Persisted() {
	balances := []domain.EntryBalance{{
		EntryID:   4,
		SourceURL: "/admin/books/sale/1/change/",
		When:      time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
		Debits:    decimal.NewFromInt(100),
		Credits:   decimal.NewFromInt(95),
	}}
	suite.mockJournalService.On("FindUnbalancedEntries", mock.Anything).Return(balances, nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/journal/unbalanced", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.UnbalancedEntriesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("persisted", resp.Source)
	suite.Require().Len(resp.Entries, 1)
	suite.True(decimal.NewFromInt(95).Equal(resp.Entries[0].Credits))
	suite.mockJournalService.AssertNotCalled(suite.T(), "UnbalancedEntries", mock.Anything)
}

func (suite *JournalHandlerTestSuite) TestUnbalanced_LastRun() {
	suite.mockJournalService.On("UnbalancedEntries", mock.Anything).Return([]domain.EntryBalance{}, "run-1", nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/journal/unbalanced?source=last_run", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.UnbalancedEntriesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("run-1", resp.RunID)
	suite.Empty(resp.Entries)
}

func (suite *JournalHandlerTestSuite) TestUnbalanced_LastRunBeforeAnyRun() {
	suite.mockJournalService.On("UnbalancedEntries", mock.Anything).Return(nil, "", apperrors.ErrNotFound).Once()

	w := suite.serve(http.MethodGet, "/api/v1/journal/unbalanced?source=last_run", "")

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *JournalHandlerTestSuite) TestUnbalanced_UnknownSource() {
	w := suite.serve(http.MethodGet, "/api/v1/journal/unbalanced?source=yesterday", "")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *JournalHandlerTestSuite) TestDBCheck() {
	report := &dto.DBCheckReport{
		CheckedEntries: 3,
		CheckedRoots:   2,
		Findings:       []dto.DBCheckFinding{{Kind: "sale", Reference: "/admin/books/sale/1/change/", Problem: "checksum mismatch"}},
	}
	suite.mockJournalService.On("DBCheck", mock.Anything).Return(report, nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/journal/dbcheck", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.DBCheckReport
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(3, resp.CheckedEntries)
	suite.Len(resp.Findings, 1)
}

func (suite *JournalHandlerTestSuite) TestRegenerate() {
	tests := []struct {
		name string
		body string
		req  dto.RegenerateRequest
	}{
		{name: "no body", body: "", req: dto.RegenerateRequest{}},
		{name: "dry run", body: `{"dryRun": true}`, req: dto.RegenerateRequest{DryRun: true}},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			report := &dto.RegenerationReport{RunID: "r", DryRun: tt.req.DryRun, EntriesWritten: 12}
			suite.mockJournalService.On("Regenerate", mock.Anything, tt.req).Return(report, nil).Once()

			w := suite.serve(http.MethodPost, "/api/v1/journal/regenerate", tt.body)

			suite.Equal(http.StatusOK, w.Code)
			var resp dto.RegenerationReport
			suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
			suite.Equal(12, resp.EntriesWritten)
			suite.Equal(tt.req.DryRun, resp.DryRun)
		})
	}
}

func (suite *JournalHandlerTestSuite) TestRegenerate_Errors() {
	w := suite.serve(http.MethodPost, "/api/v1/journal/regenerate", `{"dryRun": "maybe"}`)
	suite.Equal(http.StatusBadRequest, w.Code)

	suite.mockJournalService.On("Regenerate", mock.Anything, dto.RegenerateRequest{}).
		Return(nil, fmt.Errorf("%w: regeneration already in progress", apperrors.ErrConflict)).Once()
	w = suite.serve(http.MethodPost, "/api/v1/journal/regenerate", "")
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *JournalHandlerTestSuite) TestListAccounts() {
	accounts := []domain.Account{
		{ID: 2, Name: domain.AcctAssetCash, Category: domain.Asset, Type: domain.Debit},
		{ID: 1, Name: domain.AcctLiabilityPayable, Category: domain.Liability, Type: domain.Credit},
	}
	suite.mockAccountService.On("ListAccounts", mock.Anything).Return(accounts, nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/accounts", "")

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListAccountsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Require().Len(resp.Accounts, 2)
	suite.Equal(domain.Asset, resp.Accounts[0].Category)
}

func (suite *JournalHandlerTestSuite) TestListAccounts_Error() {
	suite.mockAccountService.On("ListAccounts", mock.Anything).Return(nil, fmt.Errorf("db down")).Once()

	w := suite.serve(http.MethodGet, "/api/v1/accounts", "")

	suite.Equal(http.StatusInternalServerError, w.Code)
}

func (suite *JournalHandlerTestSuite) TestRateLimitHeaders() {
	suite.mockAccountService.On("ListAccounts", mock.Anything).Return([]domain.Account{}, nil).Once()

	w := suite.serve(http.MethodGet, "/api/v1/accounts", "")

	suite.Equal("1000", w.Header().Get("X-RateLimit-Limit"))
	suite.Equal("999", w.Header().Get("X-RateLimit-Remaining"))
}

func TestJournalHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(JournalHandlerTestSuite))
}

func TestRegisterRoutes_InvalidRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{RateLimit: "lots", CORSAllowedOrigins: "*"}
	err := handlers.RegisterRoutes(gin.New(), cfg, &portssvc.ServiceContainer{})
	if err == nil {
		t.Fatal("expected an error for an unparseable rate limit")
	}
}
