package services

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/bochamaakram/knowway/internal/cache"
	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/repositories"
)

// fakeRepository is an in-memory Repository used by the service tests. It
// mirrors the uniqueness constraints of the real schema so idempotency and
// double-insert behavior can be exercised without a database.
type fakeRepository struct {
	users       map[uint]*models.User
	courses     map[uint]*models.Course
	lessons     map[uint]*models.Lesson
	enrollments map[[2]uint]*models.Enrollment // (userID, courseID)
	progress    map[[2]uint]*models.LessonProgress
	points      []*models.PointsTransaction
	favorites   map[[2]uint]*models.Favorite
	quizzes     map[uint]*models.Quiz // by courseID
	messages    []*models.CourseMessage
	searchLogs  []*models.SearchLog

	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:       make(map[uint]*models.User),
		courses:     make(map[uint]*models.Course),
		lessons:     make(map[uint]*models.Lesson),
		enrollments: make(map[[2]uint]*models.Enrollment),
		progress:    make(map[[2]uint]*models.LessonProgress),
		favorites:   make(map[[2]uint]*models.Favorite),
		quizzes:     make(map[uint]*models.Quiz),
	}
}

func (f *fakeRepository) id() uint {
	f.nextID++
	return f.nextID
}

// Seeding helpers

func (f *fakeRepository) addUser(user *models.User) *models.User {
	if user.ID == 0 {
		user.ID = f.id()
	}
	f.users[user.ID] = user
	return user
}

func (f *fakeRepository) addCourse(course *models.Course) *models.Course {
	if course.ID == 0 {
		course.ID = f.id()
	}
	f.courses[course.ID] = course
	return course
}

func (f *fakeRepository) addLesson(lesson *models.Lesson) *models.Lesson {
	if lesson.ID == 0 {
		lesson.ID = f.id()
	}
	f.lessons[lesson.ID] = lesson
	return lesson
}

func (f *fakeRepository) addEnrollment(userID, courseID uint) *models.Enrollment {
	e := &models.Enrollment{ID: f.id(), UserID: userID, CourseID: courseID}
	f.enrollments[[2]uint{userID, courseID}] = e
	return e
}

// Repository

func (f *fakeRepository) User() repositories.UserRepository             { return (*fakeUserRepo)(f) }
func (f *fakeRepository) Course() repositories.CourseRepository         { return (*fakeCourseRepo)(f) }
func (f *fakeRepository) Lesson() repositories.LessonRepository         { return (*fakeLessonRepo)(f) }
func (f *fakeRepository) Enrollment() repositories.EnrollmentRepository { return (*fakeEnrollmentRepo)(f) }
func (f *fakeRepository) Progress() repositories.ProgressRepository     { return (*fakeProgressRepo)(f) }
func (f *fakeRepository) Points() repositories.PointsRepository         { return (*fakePointsRepo)(f) }
func (f *fakeRepository) Favorite() repositories.FavoriteRepository     { return (*fakeFavoriteRepo)(f) }
func (f *fakeRepository) Quiz() repositories.QuizRepository             { return (*fakeQuizRepo)(f) }
func (f *fakeRepository) Chat() repositories.ChatRepository             { return (*fakeChatRepo)(f) }
func (f *fakeRepository) SearchLog() repositories.SearchLogRepository   { return (*fakeSearchLogRepo)(f) }

func (f *fakeRepository) WithTx(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

// Users

type fakeUserRepo fakeRepository

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	(*fakeRepository)(f).addUser(user)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) UpdatePoints(ctx context.Context, id uint, delta int) error {
	user, ok := f.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Points += delta
	return nil
}

// Courses

type fakeCourseRepo fakeRepository

func (f *fakeCourseRepo) Create(ctx context.Context, course *models.Course) error {
	(*fakeRepository)(f).addCourse(course)
	return nil
}

func (f *fakeCourseRepo) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	if course, ok := f.courses[id]; ok {
		return course, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCourseRepo) GetByIDWithAuthor(ctx context.Context, id uint) (*models.Course, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeCourseRepo) Update(ctx context.Context, course *models.Course) error {
	if _, ok := f.courses[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.courses[course.ID] = course
	return nil
}

func (f *fakeCourseRepo) Delete(ctx context.Context, id uint) error {
	delete(f.courses, id)
	return nil
}

func (f *fakeCourseRepo) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	var out []*models.Course
	for _, course := range f.courses {
		out = append(out, course)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

// Lessons

type fakeLessonRepo fakeRepository

func (f *fakeLessonRepo) Create(ctx context.Context, lesson *models.Lesson) error {
	(*fakeRepository)(f).addLesson(lesson)
	return nil
}

func (f *fakeLessonRepo) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	if lesson, ok := f.lessons[id]; ok {
		return lesson, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLessonRepo) Update(ctx context.Context, lesson *models.Lesson) error {
	if _, ok := f.lessons[lesson.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.lessons[lesson.ID] = lesson
	return nil
}

func (f *fakeLessonRepo) Delete(ctx context.Context, id uint) error {
	delete(f.lessons, id)
	return nil
}

func (f *fakeLessonRepo) GetRefsByCourse(ctx context.Context, courseID uint) ([]models.LessonRef, error) {
	var refs []models.LessonRef
	for _, lesson := range f.lessons {
		if lesson.CourseID == courseID {
			refs = append(refs, models.LessonRef{ID: lesson.ID, Title: lesson.Title, OrderIndex: lesson.OrderIndex})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].OrderIndex < refs[j].OrderIndex })
	return refs, nil
}

func (f *fakeLessonRepo) CountByCourse(ctx context.Context, courseID uint) (int, error) {
	count := 0
	for _, lesson := range f.lessons {
		if lesson.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLessonRepo) MaxOrderIndex(ctx context.Context, courseID uint) (int, error) {
	max := -1
	for _, lesson := range f.lessons {
		if lesson.CourseID == courseID && lesson.OrderIndex > max {
			max = lesson.OrderIndex
		}
	}
	return max, nil
}

// Enrollments

type fakeEnrollmentRepo fakeRepository

func (f *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	key := [2]uint{enrollment.UserID, enrollment.CourseID}
	if _, ok := f.enrollments[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	enrollment.ID = (*fakeRepository)(f).id()
	f.enrollments[key] = enrollment
	return nil
}

func (f *fakeEnrollmentRepo) GetByUserAndCourse(ctx context.Context, userID, courseID uint) (*models.Enrollment, error) {
	if e, ok := f.enrollments[[2]uint{userID, courseID}]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEnrollmentRepo) ListByUser(ctx context.Context, userID uint) ([]*models.Enrollment, error) {
	var out []*models.Enrollment
	for _, e := range f.enrollments {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeEnrollmentRepo) UpdateProgress(ctx context.Context, userID, courseID uint, percentage int) error {
	e, ok := f.enrollments[[2]uint{userID, courseID}]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Progress = percentage
	return nil
}

// Progress

type fakeProgressRepo fakeRepository

func (f *fakeProgressRepo) Upsert(ctx context.Context, progress *models.LessonProgress) error {
	key := [2]uint{progress.UserID, progress.LessonID}
	if existing, ok := f.progress[key]; ok {
		existing.Completed = progress.Completed
		existing.CompletedAt = progress.CompletedAt
		return nil
	}
	progress.ID = (*fakeRepository)(f).id()
	f.progress[key] = progress
	return nil
}

func (f *fakeProgressRepo) SetCompleted(ctx context.Context, userID, lessonID uint, completed bool, completedAt *time.Time) (int64, error) {
	if existing, ok := f.progress[[2]uint{userID, lessonID}]; ok {
		existing.Completed = completed
		existing.CompletedAt = completedAt
		return 1, nil
	}
	return 0, nil
}

func (f *fakeProgressRepo) CountCompleted(ctx context.Context, userID, courseID uint) (int, error) {
	count := 0
	for _, p := range f.progress {
		if p.UserID == userID && p.CourseID == courseID && p.Completed {
			count++
		}
	}
	return count, nil
}

func (f *fakeProgressRepo) CompletedLessonIDs(ctx context.Context, userID, courseID uint) ([]uint, error) {
	var ids []uint
	for _, p := range f.progress {
		if p.UserID == userID && p.CourseID == courseID && p.Completed {
			ids = append(ids, p.LessonID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Points

type fakePointsRepo fakeRepository

func (f *fakePointsRepo) CreateTransaction(ctx context.Context, tx *models.PointsTransaction) error {
	tx.ID = (*fakeRepository)(f).id()
	f.points = append(f.points, tx)
	return nil
}

func (f *fakePointsRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.PointsTransaction, int64, error) {
	var out []*models.PointsTransaction
	for _, tx := range f.points {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, int64(len(out)), nil
}

// Favorites

type fakeFavoriteRepo fakeRepository

func (f *fakeFavoriteRepo) Add(ctx context.Context, favorite *models.Favorite) error {
	key := [2]uint{favorite.UserID, favorite.CourseID}
	if _, ok := f.favorites[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	favorite.ID = (*fakeRepository)(f).id()
	f.favorites[key] = favorite
	return nil
}

func (f *fakeFavoriteRepo) Remove(ctx context.Context, userID, courseID uint) error {
	delete(f.favorites, [2]uint{userID, courseID})
	return nil
}

func (f *fakeFavoriteRepo) ListByUser(ctx context.Context, userID uint) ([]*models.Favorite, error) {
	var out []*models.Favorite
	for _, fav := range f.favorites {
		if fav.UserID == userID {
			out = append(out, fav)
		}
	}
	return out, nil
}

func (f *fakeFavoriteRepo) Exists(ctx context.Context, userID, courseID uint) (bool, error) {
	_, ok := f.favorites[[2]uint{userID, courseID}]
	return ok, nil
}

// Quizzes

type fakeQuizRepo fakeRepository

func (f *fakeQuizRepo) GetByCourse(ctx context.Context, courseID uint) (*models.Quiz, error) {
	if quiz, ok := f.quizzes[courseID]; ok {
		return quiz, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeQuizRepo) Upsert(ctx context.Context, quiz *models.Quiz) error {
	if existing, ok := f.quizzes[quiz.CourseID]; ok {
		quiz.ID = existing.ID
	} else if quiz.ID == 0 {
		quiz.ID = (*fakeRepository)(f).id()
	}
	f.quizzes[quiz.CourseID] = quiz
	return nil
}

func (f *fakeQuizRepo) ReplaceQuestions(ctx context.Context, quizID uint, questions []models.QuizQuestion) error {
	for courseID, quiz := range f.quizzes {
		if quiz.ID == quizID {
			for i := range questions {
				questions[i].ID = (*fakeRepository)(f).id()
				questions[i].QuizID = quizID
			}
			quiz.Questions = questions
			f.quizzes[courseID] = quiz
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeQuizRepo) CreateQuestions(ctx context.Context, questions []models.QuizQuestion) error {
	for _, quiz := range f.quizzes {
		if len(questions) > 0 && quiz.ID == questions[0].QuizID {
			for i := range questions {
				questions[i].ID = (*fakeRepository)(f).id()
			}
			quiz.Questions = append(quiz.Questions, questions...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// Chat

type fakeChatRepo fakeRepository

func (f *fakeChatRepo) Create(ctx context.Context, message *models.CourseMessage) error {
	message.ID = (*fakeRepository)(f).id()
	message.CreatedAt = time.Now()
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeChatRepo) ListByCourse(ctx context.Context, courseID uint, limit int) ([]*models.CourseMessage, error) {
	var out []*models.CourseMessage
	for _, msg := range f.messages {
		if msg.CourseID == courseID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Search logs

type fakeSearchLogRepo fakeRepository

func (f *fakeSearchLogRepo) Create(ctx context.Context, log *models.SearchLog) error {
	log.ID = (*fakeRepository)(f).id()
	f.searchLogs = append(f.searchLogs, log)
	return nil
}

func (f *fakeSearchLogRepo) List(ctx context.Context, limit, offset int) ([]*models.SearchLog, int64, error) {
	return f.searchLogs, int64(len(f.searchLogs)), nil
}

// memoryCache is a map-backed cache.CacheService for tests that assert on
// invalidation behavior. DeletePattern uses glob matching like Redis SCAN.
type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = data
	return nil
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := m.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func (m *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	for key := range m.entries {
		if ok, err := path.Match(pattern, key); err != nil {
			return err
		} else if ok {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *memoryCache) has(key string) bool {
	_, ok := m.entries[key]
	return ok
}
