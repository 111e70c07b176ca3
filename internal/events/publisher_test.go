package events

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLearningEventEnvelope(t *testing.T) {
	payload := LessonCompletedEvent{UserID: 7, LessonID: 3, CourseID: 1, Percentage: 50}
	event := NewLearningEvent(EventLessonCompleted, payload)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventLessonCompleted, event.Type)
	assert.Equal(t, "knowway", event.Source)
	assert.Equal(t, "1.0", event.Version)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, payload, event.Data)
}

func TestMockPublisherRecordsEvents(t *testing.T) {
	publisher := NewMockEventPublisher(slog.Default())
	ctx := context.Background()

	require.NoError(t, publisher.PublishLearningEvent(ctx, NewLearningEvent(EventEnrollmentCreated, EnrollmentCreatedEvent{UserID: 1, CourseID: 2})))
	require.NoError(t, publisher.PublishLearningEvent(ctx, NewLearningEvent(EventQuizPassed, QuizPassedEvent{UserID: 1, CourseID: 2, Score: 90})))

	events := publisher.GetPublishedEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventEnrollmentCreated, events[0].Type)
	assert.Equal(t, EventQuizPassed, events[1].Type)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}
