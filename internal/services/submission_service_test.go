package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"ecolearn/internal/models"
	"ecolearn/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ===============================
// FAKES
// ===============================

type fakeChallengeRepo struct {
	mu         sync.Mutex
	seq        int64
	challenges map[int64]*models.Challenge
}

func newFakeChallengeRepo() *fakeChallengeRepo {
	return &fakeChallengeRepo{challenges: make(map[int64]*models.Challenge)}
}

func (r *fakeChallengeRepo) Create(ctx context.Context, c *models.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c.ID = r.seq
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.challenges[c.ID] = c
	return nil
}

func (r *fakeChallengeRepo) Update(ctx context.Context, c *models.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.challenges[c.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.challenges[c.ID] = c
	return nil
}

func (r *fakeChallengeRepo) GetByID(ctx context.Context, id int64) (*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.challenges[id], nil
}

func (r *fakeChallengeRepo) List(ctx context.Context, filter *models.ChallengeFilter) ([]*models.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Challenge
	for _, c := range r.challenges {
		out = append(out, c)
	}
	return out, nil
}

type fakeSubmissionRepo struct {
	mu         sync.Mutex
	seq        int64
	byID       map[int64]*models.ChallengeSubmission
	byPair     map[string]int64
	challenges *fakeChallengeRepo
	credited   map[string]int
}

func newFakeSubmissionRepo(challenges *fakeChallengeRepo) *fakeSubmissionRepo {
	return &fakeSubmissionRepo{
		byID:       make(map[int64]*models.ChallengeSubmission),
		byPair:     make(map[string]int64),
		challenges: challenges,
		credited:   make(map[string]int),
	}
}

func pairKey(userID string, challengeID int64) string {
	return fmt.Sprintf("%s|%d", userID, challengeID)
}

func (r *fakeSubmissionRepo) Create(ctx context.Context, sub *models.ChallengeSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(sub.UserID, sub.ChallengeID)
	if _, exists := r.byPair[key]; exists {
		return &repositories.DuplicateError{Resource: "submission"}
	}
	r.seq++
	sub.ID = r.seq
	sub.Status = models.StatusPending
	sub.SubmittedAt = time.Now()
	sub.UpdatedAt = sub.SubmittedAt
	copied := *sub
	r.byID[sub.ID] = &copied
	r.byPair[key] = sub.ID
	return nil
}

func (r *fakeSubmissionRepo) GetByID(ctx context.Context, id int64) (*models.ChallengeSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *sub
	return &copied, nil
}

func (r *fakeSubmissionRepo) GetByUserAndChallenge(ctx context.Context, userID string, challengeID int64) (*models.ChallengeSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPair[pairKey(userID, challengeID)]
	if !ok {
		return nil, nil
	}
	copied := *r.byID[id]
	return &copied, nil
}

func (r *fakeSubmissionRepo) ListByUser(ctx context.Context, userID string) ([]*models.ChallengeSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ChallengeSubmission
	for _, sub := range r.byID {
		if sub.UserID == userID {
			copied := *sub
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) ListPending(ctx context.Context, limit, offset int) ([]*models.ChallengeSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ChallengeSubmission
	for _, sub := range r.byID {
		if sub.Status == models.StatusPending {
			copied := *sub
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSubmissionRepo) Resubmit(ctx context.Context, id int64, photoURL, photoPublicID, caption string) (*models.ChallengeSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.byID[id]
	if !ok || sub.Status != models.StatusRejected {
		return nil, nil
	}
	sub.PhotoURL = photoURL
	sub.PhotoPublicID = photoPublicID
	sub.Caption = caption
	sub.Status = models.StatusPending
	sub.Feedback = nil
	sub.PointsAwarded = 0
	sub.ReviewedAt = nil
	sub.ReviewedBy = nil
	sub.SubmittedAt = time.Now()
	copied := *sub
	return &copied, nil
}

func (r *fakeSubmissionRepo) Review(ctx context.Context, id int64, status models.SubmissionStatus, feedback *string, reviewerID string) (*models.ChallengeSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.byID[id]
	if !ok || sub.Status != models.StatusPending {
		return nil, nil
	}
	now := time.Now()
	sub.Status = status
	sub.Feedback = feedback
	sub.ReviewedAt = &now
	sub.ReviewedBy = &reviewerID
	if status == models.StatusApproved {
		challenge := r.challenges.challenges[sub.ChallengeID]
		sub.PointsAwarded = challenge.Points
		r.credited[sub.UserID] += challenge.Points
	}
	copied := *sub
	return &copied, nil
}

type fakePhotoStorage struct {
	mu       sync.Mutex
	uploads  int
	fail     error
	deleted  []string
	uploaded []string
}

func (s *fakePhotoStorage) Upload(ctx context.Context, photo io.ReadSeeker, size int64) (*UploadedPhoto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	s.uploads++
	publicID := fmt.Sprintf("photo-%d", s.uploads)
	s.uploaded = append(s.uploaded, publicID)
	return &UploadedPhoto{
		URL:      "https://cdn.example.com/" + publicID + ".jpg",
		PublicID: publicID,
	}, nil
}

func (s *fakePhotoStorage) Delete(ctx context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, publicID)
	return nil
}

// ===============================
// HELPERS
// ===============================

type submissionFixture struct {
	service     SubmissionService
	challenges  *fakeChallengeRepo
	submissions *fakeSubmissionRepo
	photos      *fakePhotoStorage
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	challenges := newFakeChallengeRepo()
	submissions := newFakeSubmissionRepo(challenges)
	photos := &fakePhotoStorage{}
	service := NewSubmissionService(submissions, challenges, photos, validator.New(), zap.NewNop())
	return &submissionFixture{
		service:     service,
		challenges:  challenges,
		submissions: submissions,
		photos:      photos,
	}
}

func (f *submissionFixture) addChallenge(t *testing.T, points int, active bool) *models.Challenge {
	t.Helper()
	c := &models.Challenge{
		Title:    "Plant a tree",
		Points:   points,
		Category: "action",
		Week:     1,
		IsActive: active,
	}
	require.NoError(t, f.challenges.Create(context.Background(), c))
	return c
}

func submitReq(userID string, challengeID int64) *SubmitChallengeRequest {
	return &SubmitChallengeRequest{
		UserID:      userID,
		ChallengeID: challengeID,
		Caption:     "my tree",
		Photo:       bytes.NewReader([]byte("fake image bytes")),
		PhotoSize:   16,
	}
}

// ===============================
// SUBMIT
// ===============================

func TestSubmitCreatesPendingSubmission(t *testing.T) {
	f := newSubmissionFixture(t)
	challenge := f.addChallenge(t, 50, true)

	sub, err := f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, sub.Status)
	assert.Equal(t, "u1", sub.UserID)
	assert.NotEmpty(t, sub.PhotoURL)
	assert.Zero(t, sub.PointsAwarded)
}

func TestSubmitUnknownChallenge(t *testing.T) {
	f := newSubmissionFixture(t)

	_, err := f.service.Submit(context.Background(), submitReq("u1", 999))
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
	assert.Equal(t, 0, f.photos.uploads)
}

func TestSubmitInactiveChallenge(t *testing.T) {
	f := newSubmissionFixture(t)
	challenge := f.addChallenge(t, 50, false)

	_, err := f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestSubmitCaptionTooLong(t *testing.T) {
	f := newSubmissionFixture(t)
	challenge := f.addChallenge(t, 50, true)

	req := submitReq("u1", challenge.ID)
	req.Caption = string(bytes.Repeat([]byte("x"), 201))
	_, err := f.service.Submit(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestSubmitDuplicateWhilePending(t *testing.T) {
	f := newSubmissionFixture(t)
	challenge := f.addChallenge(t, 50, true)

	_, err := f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.NoError(t, err)

	_, err = f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
	// No second upload should have happened.
	assert.Equal(t, 1, f.photos.uploads)
}

func TestSubmitAfterApprovalConflicts(t *testing.T) {
	f := newSubmissionFixture(t)
	challenge := f.addChallenge(t, 50, true)

	sub, err := f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.NoError(t, err)

	_, err = f.service.Review(context.Background(), &ReviewSubmissionRequest{
		SubmissionID: sub.ID,
		Status:       "approved",
		ReviewerID:   "admin1",
	})
	require.NoError(t, err)

	_, err = f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestSubmitResubmissionAfterRejection(t *testing.T) {
	f := newSubmissionFixture(t)
	challenge := f.addChallenge(t, 50, true)

	sub, err := f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.NoError(t, err)

	feedback := "photo too blurry"
	_, err = f.service.Review(context.Background(), &ReviewSubmissionRequest{
		SubmissionID: sub.ID,
		Status:       "rejected",
		Feedback:     &feedback,
		ReviewerID:   "admin1",
	})
	require.NoError(t, err)

	resubmitted, err := f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.NoError(t, err)
	assert.Equal(t, sub.ID, resubmitted.ID, "resubmission must reuse the row")
	assert.Equal(t, models.StatusPending, resubmitted.Status)
	assert.Nil(t, resubmitted.Feedback)
	assert.Zero(t, resubmitted.PointsAwarded)
	assert.Nil(t, resubmitted.ReviewedAt)
}

func TestSubmitPhotoValidationFailure(t *testing.T) {
	f := newSubmissionFixture(t)
	challenge := f.addChallenge(t, 50, true)
	f.photos.fail = fmt.Errorf("%w: 12000000 bytes", ErrPhotoTooLarge)

	_, err := f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestSubmitUploadFailureLeavesNoRecord(t *testing.T) {
	f := newSubmissionFixture(t)
	challenge := f.addChallenge(t, 50, true)
	f.photos.fail = fmt.Errorf("%w: network down", ErrUploadFailed)

	_, err := f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.Error(t, err)
	serviceErr := GetServiceError(err)
	assert.Equal(t, 500, serviceErr.GetStatusCode())

	existing, repoErr := f.submissions.GetByUserAndChallenge(context.Background(), "u1", challenge.ID)
	require.NoError(t, repoErr)
	assert.Nil(t, existing, "no partial record may remain")
}

// ===============================
// REVIEW
// ===============================

func TestReviewApproveAwardsPointsOnce(t *testing.T) {
	f := newSubmissionFixture(t)
	challenge := f.addChallenge(t, 50, true)

	sub, err := f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.NoError(t, err)

	reviewed, err := f.service.Review(context.Background(), &ReviewSubmissionRequest{
		SubmissionID: sub.ID,
		Status:       "approved",
		ReviewerID:   "admin1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, reviewed.Status)
	assert.Equal(t, 50, reviewed.PointsAwarded)
	assert.Equal(t, 50, f.submissions.credited["u1"])
}

func TestReviewRejectDoesNotAward(t *testing.T) {
	f := newSubmissionFixture(t)
	challenge := f.addChallenge(t, 50, true)

	sub, err := f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.NoError(t, err)

	feedback := "not a tree"
	reviewed, err := f.service.Review(context.Background(), &ReviewSubmissionRequest{
		SubmissionID: sub.ID,
		Status:       "rejected",
		Feedback:     &feedback,
		ReviewerID:   "admin1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, reviewed.Status)
	assert.Zero(t, reviewed.PointsAwarded)
	assert.Equal(t, 0, f.submissions.credited["u1"])
}

func TestReviewInvalidStatus(t *testing.T) {
	f := newSubmissionFixture(t)

	_, err := f.service.Review(context.Background(), &ReviewSubmissionRequest{
		SubmissionID: 1,
		Status:       "archived",
		ReviewerID:   "admin1",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestReviewUnknownSubmission(t *testing.T) {
	f := newSubmissionFixture(t)

	_, err := f.service.Review(context.Background(), &ReviewSubmissionRequest{
		SubmissionID: 42,
		Status:       "approved",
		ReviewerID:   "admin1",
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestReviewNonPendingSubmission(t *testing.T) {
	f := newSubmissionFixture(t)
	challenge := f.addChallenge(t, 50, true)

	sub, err := f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.NoError(t, err)

	_, err = f.service.Review(context.Background(), &ReviewSubmissionRequest{
		SubmissionID: sub.ID,
		Status:       "approved",
		ReviewerID:   "admin1",
	})
	require.NoError(t, err)

	_, err = f.service.Review(context.Background(), &ReviewSubmissionRequest{
		SubmissionID: sub.ID,
		Status:       "rejected",
		ReviewerID:   "admin2",
	})
	require.Error(t, err)
	assert.True(t, IsInvalidStateError(err))
}

func TestConcurrentReviewsAwardOnce(t *testing.T) {
	f := newSubmissionFixture(t)
	challenge := f.addChallenge(t, 50, true)

	sub, err := f.service.Submit(context.Background(), submitReq("u1", challenge.ID))
	require.NoError(t, err)

	const reviewers = 10
	var wg sync.WaitGroup
	successes := make(chan *models.ChallengeSubmission, reviewers)

	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			reviewed, err := f.service.Review(context.Background(), &ReviewSubmissionRequest{
				SubmissionID: sub.ID,
				Status:       "approved",
				ReviewerID:   fmt.Sprintf("admin%d", n),
			})
			if err == nil {
				successes <- reviewed
			}
		}(i)
	}
	wg.Wait()
	close(successes)

	var winners int
	for range successes {
		winners++
	}
	assert.Equal(t, 1, winners, "exactly one reviewer may win")
	assert.Equal(t, 50, f.submissions.credited["u1"], "points are awarded exactly once")
}
