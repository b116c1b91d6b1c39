package submissions

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ecolearn/internal/models"
	"ecolearn/internal/response"
	"ecolearn/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSubmissionService struct {
	submitFn      func(ctx context.Context, req *services.SubmitChallengeRequest) (*models.ChallengeSubmission, error)
	reviewFn      func(ctx context.Context, req *services.ReviewSubmissionRequest) (*models.ChallengeSubmission, error)
	listByUserFn  func(ctx context.Context, userID string) ([]*models.ChallengeSubmission, error)
	listPendingFn func(ctx context.Context, limit, offset int) ([]*models.ChallengeSubmission, error)
}

func (m *mockSubmissionService) Submit(ctx context.Context, req *services.SubmitChallengeRequest) (*models.ChallengeSubmission, error) {
	return m.submitFn(ctx, req)
}

func (m *mockSubmissionService) Review(ctx context.Context, req *services.ReviewSubmissionRequest) (*models.ChallengeSubmission, error) {
	return m.reviewFn(ctx, req)
}

func (m *mockSubmissionService) GetUserSubmissions(ctx context.Context, userID string) ([]*models.ChallengeSubmission, error) {
	return m.listByUserFn(ctx, userID)
}

func (m *mockSubmissionService) GetPendingSubmissions(ctx context.Context, limit, offset int) ([]*models.ChallengeSubmission, error) {
	return m.listPendingFn(ctx, limit, offset)
}

func newTestRouter(svc services.SubmissionService) http.Handler {
	builder := response.NewBuilder(&response.Config{Version: "v1"}, zap.NewNop())
	controller := NewSubmissionController(svc, zap.NewNop(), builder)

	r := chi.NewRouter()
	r.Post("/api/v1/challenges/{id}/submit", controller.Submit)
	r.Put("/api/v1/submissions/{id}/review", controller.Review)
	r.Get("/api/v1/submissions/user/{userID}", controller.ListByUser)
	r.Get("/api/v1/submissions/pending", controller.ListPending)
	return r
}

func multipartBody(t *testing.T, userID, caption string, photo []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("user_id", userID))
	require.NoError(t, writer.WriteField("caption", caption))
	part, err := writer.CreateFormFile("photo", "proof.jpg")
	require.NoError(t, err)
	_, err = part.Write(photo)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestSubmitEndpoint(t *testing.T) {
	svc := &mockSubmissionService{
		submitFn: func(ctx context.Context, req *services.SubmitChallengeRequest) (*models.ChallengeSubmission, error) {
			assert.Equal(t, "u1", req.UserID)
			assert.Equal(t, int64(7), req.ChallengeID)
			assert.Equal(t, "my proof", req.Caption)
			return &models.ChallengeSubmission{
				ID:          1,
				UserID:      req.UserID,
				ChallengeID: req.ChallengeID,
				Status:      models.StatusPending,
			}, nil
		},
	}
	router := newTestRouter(svc)

	body, contentType := multipartBody(t, "u1", "my proof", []byte("jpegdata"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/challenges/7/submit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Submission models.ChallengeSubmission `json:"submission"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, models.StatusPending, envelope.Data.Submission.Status)
}

func TestSubmitEndpointMissingPhoto(t *testing.T) {
	svc := &mockSubmissionService{}
	router := newTestRouter(svc)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("user_id", "u1"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/challenges/7/submit", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitEndpointInvalidChallengeID(t *testing.T) {
	svc := &mockSubmissionService{}
	router := newTestRouter(svc)

	body, contentType := multipartBody(t, "u1", "", []byte("jpegdata"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/challenges/abc/submit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewEndpoint(t *testing.T) {
	svc := &mockSubmissionService{
		reviewFn: func(ctx context.Context, req *services.ReviewSubmissionRequest) (*models.ChallengeSubmission, error) {
			assert.Equal(t, int64(3), req.SubmissionID)
			assert.Equal(t, "approved", req.Status)
			return &models.ChallengeSubmission{
				ID:            3,
				Status:        models.StatusApproved,
				PointsAwarded: 50,
			}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/submissions/3/review",
		strings.NewReader(`{"status":"approved"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"approved"`)
}

func TestReviewEndpointConflict(t *testing.T) {
	svc := &mockSubmissionService{
		reviewFn: func(ctx context.Context, req *services.ReviewSubmissionRequest) (*models.ChallengeSubmission, error) {
			return nil, services.NewInvalidStateError("submission is approved, only pending submissions can be reviewed", "SUBMISSION_NOT_PENDING")
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/submissions/3/review",
		strings.NewReader(`{"status":"rejected"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_STATE")
}

func TestReviewEndpointBadBody(t *testing.T) {
	svc := &mockSubmissionService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/submissions/3/review",
		strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListByUserEndpoint(t *testing.T) {
	svc := &mockSubmissionService{
		listByUserFn: func(ctx context.Context, userID string) ([]*models.ChallengeSubmission, error) {
			assert.Equal(t, "u1", userID)
			return []*models.ChallengeSubmission{
				{ID: 1, UserID: "u1", Status: models.StatusPending},
				{ID: 2, UserID: "u1", Status: models.StatusApproved},
			}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/user/u1", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"submissions"`)
}

func TestListPendingEndpoint(t *testing.T) {
	svc := &mockSubmissionService{
		listPendingFn: func(ctx context.Context, limit, offset int) ([]*models.ChallengeSubmission, error) {
			assert.Equal(t, 10, limit)
			return []*models.ChallengeSubmission{{ID: 1, Status: models.StatusPending}}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/pending?limit=10", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
