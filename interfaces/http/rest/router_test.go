package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"schoolhub-backend/application/commands/bus"
	querybus "schoolhub-backend/application/queries/bus"
	"schoolhub-backend/application/sweep"
	"schoolhub-backend/domain/lending"
	"schoolhub-backend/domain/notification"
	"schoolhub-backend/interfaces/http/rest/handlers"
	"schoolhub-backend/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type emptyLoanStore struct{}

func (emptyLoanStore) Save(ctx context.Context, loan *lending.LoanRecord) error { return nil }
func (emptyLoanStore) GetByID(ctx context.Context, loanID string) (*lending.LoanRecord, error) {
	return nil, nil
}
func (emptyLoanStore) FindByBorrower(ctx context.Context, borrowerID string, includeClosed bool) ([]*lending.LoanRecord, error) {
	return nil, nil
}
func (emptyLoanStore) FindOpenLoansOverdueBefore(ctx context.Context, cutoff time.Time) ([]*lending.LoanRecord, error) {
	return nil, nil
}
func (emptyLoanStore) FindOpenLoansDueInRange(ctx context.Context, start, end time.Time) ([]*lending.LoanRecord, error) {
	return nil, nil
}
func (emptyLoanStore) MarkOverdue(ctx context.Context, loanID string) error { return nil }
func (emptyLoanStore) MarkReturned(ctx context.Context, loanID string, returnedAt time.Time) error {
	return nil
}

type discardSink struct{}

func (discardSink) Notify(ctx context.Context, event *notification.Event) error { return nil }

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv("JWT_SECRET", "router-test-secret")

	logger := zap.NewNop()
	engine := sweep.NewEngine(emptyLoanStore{}, discardSink{}, logger)
	sweepHandler := handlers.NewSweepHandler(engine, nil, nil, nil, logger)

	router := NewRouter(bus.NewCommandBus(), querybus.NewQueryBus(), sweepHandler, logger)
	return router.Setup()
}

func issueToken(t *testing.T, userID string, roles []string) string {
	t.Helper()
	generator, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SigningMethod: "HS256",
		SecretKey:     "router-test-secret",
		Issuer:        "schoolhub-backend",
		Audience:      []string{"schoolhub-api"},
		ExpiryTime:    time.Hour,
	})
	require.NoError(t, err)

	token, err := generator.GenerateToken(userID, userID+"@school.test", roles)
	require.NoError(t, err)
	return token
}

func TestPreflightSucceedsWithoutCredentials(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/loans/sweep", nil)
	req.Header.Set("Origin", "https://app.school.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSweepRequiresAuthentication(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/sweep", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSweepRejectsNonStaffRoles(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/sweep", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "student-1", []string{"student"}))
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSweepAllowsSchedulerRole(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans/sweep", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "scheduler", []string{"scheduler"}))
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "newlyOverdue")
}
