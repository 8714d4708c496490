package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custody/internal/custody/book"
	escrowHandler "custody/internal/escrow/handler"
	escrowMocks "custody/internal/escrow/handler/mocks"
	jwttoken "custody/internal/jwt_token"
	ledgerHandler "custody/internal/ledger/handler"
	ledgerMocks "custody/internal/ledger/handler/mocks"
	"custody/internal/platform/metrics"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/testutil"
)

type RouterSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	ledger *ledgerMocks.MockService
	escrow *escrowMocks.MockService
	jwt    *jwttoken.JWTService
	book   *book.Book
	router http.Handler
	health map[string]HealthCheck
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

var alice = id.Identity{0xA1}

func (s *RouterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ledger = ledgerMocks.NewMockService(s.ctrl)
	s.escrow = escrowMocks.NewMockService(s.ctrl)
	s.jwt = jwttoken.NewJWTService("router-test-key", "custody", "custody-api")
	s.book = book.New()
	s.health = map[string]HealthCheck{"store": func(context.Context) error { return nil }}
	s.build()
}

func (s *RouterSuite) build() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	s.router = NewRouter(Deps{
		Ledger:    ledgerHandler.New(s.ledger, logger),
		Escrow:    escrowHandler.New(s.escrow, logger),
		Validator: jwttoken.NewJWTServiceAdapter(s.jwt),
		Logger:    logger,
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		Health:    s.health,
		Minter:    s.book,
	})
}

func (s *RouterSuite) token(identity id.Identity) string {
	tok, err := s.jwt.GenerateAccessToken(identity, time.Minute)
	s.Require().NoError(err)
	return tok
}

func (s *RouterSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Authentication
// =============================================================================

func (s *RouterSuite) TestAuthenticatedRoutes() {
	s.Run("missing token is rejected before the handler runs", func() {
		rec := s.serve(httptest.NewRequest(http.MethodGet, "/ledger/holdings", nil))
		testutil.AssertStatusAndError(s.T(), rec, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("invalid token is rejected", func() {
		req := httptest.NewRequest(http.MethodGet, "/ledger/holdings", nil)
		testutil.WithBearer(req, "not-a-token")
		s.Equal(http.StatusUnauthorized, s.serve(req).Code)
	})

	s.Run("valid token reaches the handler with the caller identity", func() {
		s.ledger.EXPECT().Holdings(gomock.Any(), alice).Return(nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/ledger/holdings", nil)
		testutil.WithBearer(req, s.token(alice))
		rec := s.serve(req)
		s.Equal(http.StatusOK, rec.Code)
	})
}

func (s *RouterSuite) TestPublicRoutes() {
	s.Run("current fee needs no token", func() {
		s.ledger.EXPECT().CurrentFee(gomock.Any()).Return(uint64(100), nil)

		rec := s.serve(httptest.NewRequest(http.MethodGet, "/bank/fee", nil))
		s.Equal(http.StatusOK, rec.Code)

		var body ledgerHandler.FeeResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
		s.Equal(uint64(100), body.Fee)
	})

	s.Run("lock lookup needs no token", func() {
		lockID := id.NewTimeLockID()
		s.escrow.EXPECT().Get(gomock.Any(), lockID).Return(nil, errors.New("boom"))

		rec := s.serve(httptest.NewRequest(http.MethodGet, "/escrow/locks/"+lockID.String(), nil))
		s.Equal(http.StatusInternalServerError, rec.Code)
	})

	s.Run("lock mutations still need a token", func() {
		lockID := id.NewTimeLockID()
		rec := s.serve(httptest.NewRequest(http.MethodPost, "/escrow/locks/"+lockID.String()+"/claim", nil))
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

// =============================================================================
// Operational endpoints
// =============================================================================

func (s *RouterSuite) TestHealth() {
	s.Run("healthy", func() {
		rec := s.serve(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"status":"ok"`)
	})

	s.Run("failing check degrades", func() {
		s.health["store"] = func(context.Context) error { return errors.New("connection refused") }
		s.build()

		rec := s.serve(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		s.Equal(http.StatusServiceUnavailable, rec.Code)
		s.Contains(rec.Body.String(), "connection refused")
	})
}

func (s *RouterSuite) TestMetricsRecordsRequests() {
	s.ledger.EXPECT().CurrentFee(gomock.Any()).Return(uint64(1), nil)
	s.serve(httptest.NewRequest(http.MethodGet, "/bank/fee", nil))

	rec := s.serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `route="/bank/fee"`)
}

func (s *RouterSuite) TestDevMint() {
	s.Run("credits the caller's external balance", func() {
		req := httptest.NewRequest(http.MethodPost, "/dev/mint", strings.NewReader(`{"amount":500}`))
		testutil.WithBearer(req, s.token(alice))
		rec := s.serve(req)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal(uint64(500), s.book.Balance(alice, id.NativeAsset))
	})

	s.Run("zero amount is rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/dev/mint", map[string]any{"amount": 0})
		testutil.WithBearer(req, s.token(alice))
		testutil.AssertStatusAndError(s.T(), s.serve(req), http.StatusBadRequest, dErrors.CodeZeroAmount)
	})

	s.Run("not mounted without a minter", func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		router := NewRouter(Deps{
			Ledger:    ledgerHandler.New(s.ledger, logger),
			Escrow:    escrowHandler.New(s.escrow, logger),
			Validator: jwttoken.NewJWTServiceAdapter(s.jwt),
			Logger:    logger,
			Gatherer:  prometheus.NewRegistry(),
		})
		req := httptest.NewRequest(http.MethodPost, "/dev/mint", strings.NewReader(`{"amount":1}`))
		testutil.WithBearer(req, s.token(alice))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}
