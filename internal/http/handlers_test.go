package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gradebench/gradebench/internal/data"
	"github.com/gradebench/gradebench/internal/domain/model"
	"github.com/gradebench/gradebench/internal/mocks"
	"github.com/gradebench/gradebench/internal/service"
)

const (
	testUserID    = "user-1"
	testVersionID = "6b9c1a7e-0d2f-4f7a-9c66-000000000001"
	testProjectID = "6b9c1a7e-0d2f-4f7a-9c66-000000000002"
)

type testServer struct {
	handler     http.Handler
	evaluations *mocks.MockEvaluationRepository
	projects    *mocks.MockProjectRepository
	queue       *mocks.MockQueueClient
}

// stubTokenRepo fails every lookup; handler tests only exercise the
// format precheck path.
type stubTokenRepo struct{}

func (stubTokenRepo) GetByToken(context.Context, string) (*model.ShareToken, error) {
	return nil, data.ErrShareTokenNotFound
}

func (stubTokenRepo) Create(context.Context, *model.ShareToken) error { return nil }

func newTestServer(t *testing.T, ctrl *gomock.Controller) *testServer {
	t.Helper()

	evaluations := mocks.NewMockEvaluationRepository(ctrl)
	projects := mocks.NewMockProjectRepository(ctrl)
	queueClient := mocks.NewMockQueueClient(ctrl)

	guard := service.MustNewAccessService(service.AccessServiceOptions{Projects: projects})
	evalSvc := service.MustNewEvaluationService(service.EvaluationServiceOptions{
		Repo:  evaluations,
		Guard: guard,
		Queue: queueClient,
	})
	shareSvc := service.MustNewShareService(service.ShareServiceOptions{
		Tokens:      stubTokenRepo{},
		Evaluations: evaluations,
		Projects:    projects,
	})

	handler := NewRouter(RouterServices{
		Evaluations: evalSvc,
		Share:       shareSvc,
	})

	return &testServer{
		handler:     handler,
		evaluations: evaluations,
		projects:    projects,
		queue:       queueClient,
	}
}

func TestSubmitRequiresIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	srv := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodPost, "/api/evaluations",
		strings.NewReader(`{"version_id":"`+testVersionID+`","kind":"grade"}`))
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitCreatesPendingRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	srv := newTestServer(t, ctrl)

	srv.projects.EXPECT().ResolveVersionOwner(gomock.Any(), testVersionID).
		Return(&model.VersionOwnership{
			VersionID: testVersionID,
			ProjectID: testProjectID,
			UserID:    testUserID,
		}, nil)
	srv.evaluations.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(&model.Evaluation{
			ID:        "job-1",
			VersionID: testVersionID,
			ProjectID: testProjectID,
			Kind:      model.KindGrade,
			Status:    model.StatusPending,
			QueuedAt:  time.Now().UTC(),
		}, nil)
	srv.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/evaluations",
		strings.NewReader(`{"version_id":"`+testVersionID+`","kind":"grade"}`))
	req.Header.Set(UserIDHeader, testUserID)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var report model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "job-1", report.ID)
	assert.Equal(t, model.StatusPending, report.Status)
	assert.NotNil(t, report.CategoryScores)
}

func TestGetMapsErrorTaxonomyToStatusCodes(t *testing.T) {
	t.Run("missing job is 404", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		srv := newTestServer(t, ctrl)

		srv.evaluations.EXPECT().GetByID(gomock.Any(), "missing").
			Return(nil, data.ErrEvaluationNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/evaluations/missing", nil)
		req.Header.Set(UserIDHeader, testUserID)
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_found")
	})

	t.Run("foreign job is 403", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		srv := newTestServer(t, ctrl)

		srv.evaluations.EXPECT().GetByID(gomock.Any(), "job-1").
			Return(&model.Evaluation{
				ID:        "job-1",
				ProjectID: testProjectID,
				Kind:      model.KindGrade,
				Status:    model.StatusRunning,
			}, nil)
		srv.projects.EXPECT().ResolveProjectOwner(gomock.Any(), testProjectID).
			Return("someone-else", nil)

		req := httptest.NewRequest(http.MethodGet, "/api/evaluations/job-1", nil)
		req.Header.Set(UserIDHeader, testUserID)
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "forbidden")
	})
}

func TestWorkerCompleteReportsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	srv := newTestServer(t, ctrl)

	srv.evaluations.EXPECT().MarkCompleted(gomock.Any(), "job-1", gomock.Any()).
		Return(false, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/worker/evaluations/job-1/complete",
		strings.NewReader(`{"overall_score":88}`))
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"advanced":false}`, rec.Body.String())
}

func TestSharedTokenFormatRejectedWithoutLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	srv := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/api/shared/ab", nil)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestHealthzWithoutDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	srv := newTestServer(t, ctrl)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
