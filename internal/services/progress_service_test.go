package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bochamaakram/knowway/internal/cache"
	"github.com/bochamaakram/knowway/internal/events"
	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/utils"
)

func newProgressFixture(t *testing.T, lessonCount int) (*fakeRepository, ProgressService, *events.MockEventPublisher, *models.User, *models.Course, []*models.Lesson) {
	t.Helper()

	repo := newFakeRepository()
	user := repo.addUser(&models.User{Username: "learner", Email: "learner@example.com"})
	course := repo.addCourse(&models.Course{Title: "Go Basics", IsFree: true, UserID: 99})

	lessons := make([]*models.Lesson, 0, lessonCount)
	for i := 0; i < lessonCount; i++ {
		lessons = append(lessons, repo.addLesson(&models.Lesson{
			CourseID:   course.ID,
			Title:      "Lesson",
			OrderIndex: i,
		}))
	}
	repo.addEnrollment(user.ID, course.ID)

	publisher := events.NewMockEventPublisher(slog.Default())
	svc := NewProgressService(repo, cache.NoopCache{}, publisher, slog.Default())

	return repo, svc, publisher, user, course, lessons
}

func TestMarkCompleteUpdatesPercentage(t *testing.T) {
	ctx := context.Background()
	_, svc, _, user, course, lessons := newProgressFixture(t, 4)

	pct, err := svc.MarkComplete(ctx, user.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 25, pct)

	progress, err := svc.GetCourseProgress(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, progress.Total)
	assert.Equal(t, 1, progress.Completed)
	assert.Equal(t, 25, progress.Percentage)
	assert.Equal(t, []uint{lessons[0].ID}, progress.CompletedLessonIDs)
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, svc, _, user, course, lessons := newProgressFixture(t, 4)

	for i := 0; i < 3; i++ {
		pct, err := svc.MarkComplete(ctx, user.ID, lessons[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 25, pct)
	}

	done, err := repo.Progress().CountCompleted(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, done)
}

func TestMarkCompleteRequiresEnrollment(t *testing.T) {
	ctx := context.Background()
	repo, svc, _, _, _, lessons := newProgressFixture(t, 2)

	stranger := repo.addUser(&models.User{Username: "stranger", Email: "s@example.com"})

	_, err := svc.MarkComplete(ctx, stranger.ID, lessons[0].ID)
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestMarkCompleteUnknownLesson(t *testing.T) {
	ctx := context.Background()
	_, svc, _, user, _, _ := newProgressFixture(t, 1)

	_, err := svc.MarkComplete(ctx, user.ID, 9999)
	assert.ErrorIs(t, err, ErrLessonNotFound)
}

func TestMarkIncompleteRevertsPercentage(t *testing.T) {
	ctx := context.Background()
	repo, svc, _, user, course, lessons := newProgressFixture(t, 4)

	pct, err := svc.MarkComplete(ctx, user.ID, lessons[0].ID)
	require.NoError(t, err)
	require.Equal(t, 25, pct)

	pct, err = svc.MarkIncomplete(ctx, user.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pct)

	enrollment, err := repo.Enrollment().GetByUserAndCourse(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, enrollment.Progress)
}

func TestMarkIncompleteWithoutProgressRowSucceeds(t *testing.T) {
	ctx := context.Background()
	_, svc, _, user, _, lessons := newProgressFixture(t, 3)

	pct, err := svc.MarkIncomplete(ctx, user.ID, lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pct)
}

func TestMarkIncompleteWithoutEnrollmentIsNoOp(t *testing.T) {
	ctx := context.Background()
	repo, svc, _, _, _, lessons := newProgressFixture(t, 2)

	stranger := repo.addUser(&models.User{Username: "stranger", Email: "s@example.com"})

	pct, err := svc.MarkIncomplete(ctx, stranger.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pct)
}

func TestCompleteAllLessonsInAnyOrder(t *testing.T) {
	ctx := context.Background()
	_, svc, publisher, user, course, lessons := newProgressFixture(t, 3)

	order := []int{2, 0, 1}
	expected := []int{33, 67, 100}
	for i, idx := range order {
		pct, err := svc.MarkComplete(ctx, user.ID, lessons[idx].ID)
		require.NoError(t, err)
		assert.Equal(t, expected[i], pct)
	}

	progress, err := svc.GetCourseProgress(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, progress.Percentage)
	assert.Len(t, progress.CompletedLessonIDs, 3)

	var courseCompleted int
	for _, event := range publisher.GetPublishedEvents() {
		if event.Type == events.EventCourseCompleted {
			courseCompleted++
		}
	}
	assert.Equal(t, 1, courseCompleted)
}

func TestProgressWithNoLessons(t *testing.T) {
	ctx := context.Background()
	_, svc, _, user, course, _ := newProgressFixture(t, 0)

	progress, err := svc.GetCourseProgress(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.Total)
	assert.Equal(t, 0, progress.Percentage)
	assert.NotNil(t, progress.CompletedLessonIDs)
	assert.Empty(t, progress.CompletedLessonIDs)
}

func TestRecomputeIsFullRecount(t *testing.T) {
	ctx := context.Background()
	repo, svc, _, user, course, lessons := newProgressFixture(t, 4)

	for _, lesson := range lessons[:2] {
		_, err := svc.MarkComplete(ctx, user.ID, lesson.ID)
		require.NoError(t, err)
	}

	// Drift the denormalized value, then recompute.
	require.NoError(t, repo.Enrollment().UpdateProgress(ctx, user.ID, course.ID, 99))

	pct, err := svc.Recompute(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, pct)

	enrollment, err := repo.Enrollment().GetByUserAndCourse(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, enrollment.Progress)
}

func TestRoundPercentage(t *testing.T) {
	assert.Equal(t, 0, roundPercentage(0, 0))
	assert.Equal(t, 0, roundPercentage(3, 0))
	assert.Equal(t, 33, roundPercentage(1, 3))
	assert.Equal(t, 67, roundPercentage(2, 3))
	assert.Equal(t, 17, roundPercentage(1, 6))
	assert.Equal(t, 13, roundPercentage(1, 8)) // 12.5 rounds half up
	assert.Equal(t, 100, roundPercentage(7, 7))
}

func TestLessonCompletedEventCarriesPercentage(t *testing.T) {
	ctx := context.Background()
	_, svc, publisher, user, _, lessons := newProgressFixture(t, 4)

	_, err := svc.MarkComplete(ctx, user.ID, lessons[0].ID)
	require.NoError(t, err)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventLessonCompleted, published[0].Type)

	payload, ok := published[0].Data.(events.LessonCompletedEvent)
	require.True(t, ok)
	assert.Equal(t, 25, payload.Percentage)
	assert.Equal(t, user.ID, payload.UserID)
}

func newCatalogFixture(t *testing.T) (*fakeRepository, *memoryCache, ProgressService, *models.User, *models.User, *models.Course, []*models.Lesson) {
	t.Helper()

	repo := newFakeRepository()
	author := repo.addUser(&models.User{Username: "author", Email: "author@example.com", Role: models.RoleTeacher})
	learner := repo.addUser(&models.User{Username: "learner", Email: "learner@example.com"})
	course := repo.addCourse(&models.Course{Title: "Go Basics", IsFree: true, UserID: author.ID})

	lessons := make([]*models.Lesson, 0, 4)
	for i := 0; i < 4; i++ {
		lessons = append(lessons, repo.addLesson(&models.Lesson{
			CourseID:   course.ID,
			Title:      "Lesson",
			OrderIndex: i,
		}))
	}
	repo.addEnrollment(learner.ID, course.ID)

	mem := newMemoryCache()
	svc := NewProgressService(repo, mem, events.NewMockEventPublisher(slog.Default()), slog.Default())

	return repo, mem, svc, author, learner, course, lessons
}

func TestCreateLessonInvalidatesProgressSnapshots(t *testing.T) {
	ctx := context.Background()
	repo, mem, svc, author, learner, course, lessons := newCatalogFixture(t)
	lessonSvc := NewLessonService(repo, mem, slog.Default(), utils.NewValidator())

	_, err := svc.MarkComplete(ctx, learner.ID, lessons[0].ID)
	require.NoError(t, err)

	snap, err := svc.GetCourseProgress(ctx, learner.ID, course.ID)
	require.NoError(t, err)
	require.Equal(t, 4, snap.Total)
	require.Equal(t, 25, snap.Percentage)
	require.True(t, mem.has(cache.CourseProgressKey(learner.ID, course.ID)))

	_, err = lessonSvc.Create(ctx, &CreateLessonRequest{
		CourseID: course.ID,
		Title:    "Closing Notes",
	}, author.ID)
	require.NoError(t, err)
	assert.False(t, mem.has(cache.CourseProgressKey(learner.ID, course.ID)))

	snap, err = svc.GetCourseProgress(ctx, learner.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Total)
	assert.Equal(t, 20, snap.Percentage)
}

func TestDeleteLessonInvalidatesProgressSnapshots(t *testing.T) {
	ctx := context.Background()
	repo, mem, svc, author, learner, course, lessons := newCatalogFixture(t)
	lessonSvc := NewLessonService(repo, mem, slog.Default(), utils.NewValidator())

	_, err := svc.MarkComplete(ctx, learner.ID, lessons[0].ID)
	require.NoError(t, err)
	_, err = svc.GetCourseProgress(ctx, learner.ID, course.ID)
	require.NoError(t, err)

	require.NoError(t, lessonSvc.Delete(ctx, lessons[3].ID, author.ID))
	assert.False(t, mem.has(cache.CourseProgressKey(learner.ID, course.ID)))

	snap, err := svc.GetCourseProgress(ctx, learner.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 33, snap.Percentage)
}

func TestDeleteCourseInvalidatesProgressSnapshots(t *testing.T) {
	ctx := context.Background()
	repo, mem, svc, author, learner, course, lessons := newCatalogFixture(t)
	courseSvc := NewCourseService(repo, mem, slog.Default(), utils.NewValidator())

	_, err := svc.MarkComplete(ctx, learner.ID, lessons[0].ID)
	require.NoError(t, err)
	_, err = svc.GetCourseProgress(ctx, learner.ID, course.ID)
	require.NoError(t, err)
	require.True(t, mem.has(cache.CourseProgressKey(learner.ID, course.ID)))

	require.NoError(t, courseSvc.Delete(ctx, course.ID, author.ID))
	assert.False(t, mem.has(cache.CourseProgressKey(learner.ID, course.ID)))
}

func TestMarkIncompleteAfterEnrollmentRemoved(t *testing.T) {
	ctx := context.Background()
	repo, svc, _, user, course, lessons := newProgressFixture(t, 4)

	_, err := svc.MarkComplete(ctx, user.ID, lessons[0].ID)
	require.NoError(t, err)
	_, err = svc.MarkComplete(ctx, user.ID, lessons[1].ID)
	require.NoError(t, err)

	delete(repo.enrollments, [2]uint{user.ID, course.ID})

	pct, err := svc.MarkIncomplete(ctx, user.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 25, pct)

	done, err := repo.Progress().CountCompleted(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, done)
}
