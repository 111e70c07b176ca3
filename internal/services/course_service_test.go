package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bochamaakram/knowway/internal/cache"
	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/repositories"
	"github.com/bochamaakram/knowway/internal/utils"
)

func newCourseFixture(t *testing.T) (*fakeRepository, CourseService) {
	t.Helper()
	repo := newFakeRepository()
	return repo, NewCourseService(repo, cache.NoopCache{}, slog.Default(), utils.NewValidator())
}

func TestCreateCourseRequiresTeacherRole(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCourseFixture(t)

	repo.addUser(&models.User{Username: "admin", Email: "a@example.com"}) // occupies SuperAdminID so the learner gets a non-pinned ID
	learner := repo.addUser(&models.User{Username: "learner", Email: "l@example.com"})
	teacher := repo.addUser(&models.User{Username: "teacher", Email: "t@example.com", Role: models.RoleTeacher})

	req := &CourseRequest{Title: "Go Basics", IsFree: true}

	_, err := svc.Create(ctx, req, learner.ID)
	var pe *PermissionError
	assert.ErrorAs(t, err, &pe)

	course, err := svc.Create(ctx, req, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, course.UserID)
	assert.Equal(t, models.LevelBeginner, course.Level)
}

func TestUpdateCourseRequiresAuthor(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCourseFixture(t)

	author := repo.addUser(&models.User{Username: "teacher", Email: "t@example.com", Role: models.RoleTeacher})
	other := repo.addUser(&models.User{Username: "other", Email: "o@example.com", Role: models.RoleTeacher})
	course := repo.addCourse(&models.Course{Title: "Original", UserID: author.ID})

	req := &CourseRequest{Title: "Hijacked", IsFree: true}
	_, err := svc.Update(ctx, course.ID, req, other.ID)
	var pe *PermissionError
	assert.ErrorAs(t, err, &pe)

	updated, err := svc.Update(ctx, course.ID, req, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hijacked", updated.Title)
}

func TestListRecordsSearchQuery(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCourseFixture(t)

	repo.addCourse(&models.Course{Title: "Go Basics", UserID: 1})
	user := repo.addUser(&models.User{Username: "learner", Email: "l@example.com"})

	_, _, err := svc.List(ctx, repositories.CourseFilters{Query: "golang", Limit: 10}, &user.ID)
	require.NoError(t, err)

	// Browsing without a query is not logged.
	_, _, err = svc.List(ctx, repositories.CourseFilters{Limit: 10}, &user.ID)
	require.NoError(t, err)

	require.Len(t, repo.searchLogs, 1)
	assert.Equal(t, "golang", repo.searchLogs[0].Query)
	require.NotNil(t, repo.searchLogs[0].UserID)
	assert.Equal(t, user.ID, *repo.searchLogs[0].UserID)
}

func TestFavoritesAreIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCourseFixture(t)

	user := repo.addUser(&models.User{Username: "learner", Email: "l@example.com"})
	course := repo.addCourse(&models.Course{Title: "Go Basics", UserID: 99})

	require.NoError(t, svc.AddFavorite(ctx, user.ID, course.ID))
	require.NoError(t, svc.AddFavorite(ctx, user.ID, course.ID))

	favorites, err := svc.ListFavorites(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, favorites, 1)

	require.NoError(t, svc.RemoveFavorite(ctx, user.ID, course.ID))
	favorites, err = svc.ListFavorites(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}

func TestAddFavoriteUnknownCourse(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCourseFixture(t)

	user := repo.addUser(&models.User{Username: "learner", Email: "l@example.com"})
	assert.ErrorIs(t, svc.AddFavorite(ctx, user.ID, 404), ErrCourseNotFound)
}

func TestListSearchLogsRequiresSuperAdmin(t *testing.T) {
	ctx := context.Background()
	repo, svc := newCourseFixture(t)

	admin := repo.addUser(&models.User{ID: 1, Username: "root", Email: "root@example.com"})
	plain := repo.addUser(&models.User{ID: 2, Username: "plain", Email: "p@example.com"})

	_, _, err := svc.ListSearchLogs(ctx, plain.ID, 1, 10)
	var pe *PermissionError
	assert.ErrorAs(t, err, &pe)

	_, _, err = svc.ListSearchLogs(ctx, admin.ID, 1, 10)
	require.NoError(t, err)
}
