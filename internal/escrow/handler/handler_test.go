package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"custody/internal/escrow/handler/mocks"
	"custody/internal/escrow/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/testutil"
)

func newRouter(t *testing.T) (*mocks.MockService, http.Handler) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.Register(r)
	h.RegisterPublic(r)
	return svc, r
}

func TestEscrowHandler(t *testing.T) {
	owner := id.Identity{0x01}
	recipient := id.Identity{0x02}
	lockID := id.NewTimeLockID()
	unlockAt := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	testutil.Given(t, "an authenticated owner", func(t *testing.T) {
		testutil.When(t, "creating a lock", func(t *testing.T) {
			svc, router := newRouter(t)
			svc.EXPECT().Create(gomock.Any(), owner, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ id.Identity, req models.CreateRequest) (*models.TimeLockRecord, error) {
					require.Equal(t, recipient, req.Recipient)
					require.Equal(t, id.NativeAsset, req.Asset)
					require.True(t, unlockAt.Equal(req.UnlockAt))
					require.Equal(t, "vesting", req.Note)
					return &models.TimeLockRecord{ID: lockID, Owner: owner, Recipient: recipient}, nil
				})

			req := testutil.NewJSONRequest(t, http.MethodPost, "/escrow/locks", map[string]any{
				"recipient": recipient.String(),
				"unlock_at": unlockAt,
				"note":      "vesting",
			})
			rr := testutil.DoRequest(router, testutil.WithCaller(req, owner))

			testutil.Then(t, "the lock is returned", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusCreated)
				testutil.AssertJSONContains(t, rr, "id", lockID.String())
			})
		})

		testutil.When(t, "the recipient is malformed", func(t *testing.T) {
			_, router := newRouter(t)
			req := testutil.NewJSONRequest(t, http.MethodPost, "/escrow/locks", map[string]any{
				"recipient": "not-base58!",
				"unlock_at": unlockAt,
			})
			rr := testutil.DoRequest(router, testutil.WithCaller(req, owner))

			testutil.Then(t, "the request is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_recipient")
			})
		})

		testutil.When(t, "funding after unlock", func(t *testing.T) {
			svc, router := newRouter(t)
			svc.EXPECT().Fund(gomock.Any(), owner, lockID, uint64(10)).
				Return(nil, dErrors.New(dErrors.CodeLockExpired, "time lock has already unlocked"))

			req := testutil.NewJSONRequest(t, http.MethodPost, "/escrow/locks/"+lockID.String()+"/fund", map[string]any{"amount": 10})
			rr := testutil.DoRequest(router, testutil.WithCaller(req, owner))

			testutil.Then(t, "the error code is surfaced", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "lock_expired")
			})
		})
	})

	testutil.Given(t, "an authenticated recipient", func(t *testing.T) {
		testutil.When(t, "claiming twice", func(t *testing.T) {
			svc, router := newRouter(t)
			gomock.InOrder(
				svc.EXPECT().Claim(gomock.Any(), recipient, lockID).
					Return(&models.TimeLockRecord{ID: lockID, Amount: 5, Claimed: true}, nil),
				svc.EXPECT().Claim(gomock.Any(), recipient, lockID).
					Return(nil, dErrors.New(dErrors.CodeAlreadyClaimed, "time lock has been claimed")),
			)

			path := "/escrow/locks/" + lockID.String() + "/claim"
			first := testutil.DoRequest(router, testutil.WithCaller(testutil.NewRequest(t, http.MethodPost, path), recipient))
			second := testutil.DoRequest(router, testutil.WithCaller(testutil.NewRequest(t, http.MethodPost, path), recipient))

			testutil.Then(t, "only the first succeeds", func(t *testing.T) {
				testutil.AssertStatusOK(t, first)
				testutil.AssertStatusAndError(t, second, http.StatusConflict, "already_claimed")
			})
		})
	})

	testutil.Given(t, "an anonymous caller", func(t *testing.T) {
		testutil.When(t, "reading a lock", func(t *testing.T) {
			svc, router := newRouter(t)
			svc.EXPECT().Get(gomock.Any(), lockID).Return(&models.TimeLockView{
				TimeLockRecord: models.TimeLockRecord{ID: lockID},
				CanClaim:       true,
			}, nil)

			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/escrow/locks/"+lockID.String()))

			testutil.Then(t, "the derived state is included", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONContains(t, rr, "can_claim", true)
			})
		})

		testutil.When(t, "the lock id is malformed", func(t *testing.T) {
			_, router := newRouter(t)
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/escrow/locks/nope"))

			testutil.Then(t, "the request is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
			})
		})

		testutil.When(t, "claiming", func(t *testing.T) {
			_, router := newRouter(t)
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPost, "/escrow/locks/"+lockID.String()+"/claim"))

			testutil.Then(t, "authentication is required", func(t *testing.T) {
				require.Equal(t, http.StatusUnauthorized, rr.Code)
			})
		})
	})
}
