package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"ai-docreview-be/internal/dto"
	"ai-docreview-be/internal/entity"
	"ai-docreview-be/internal/repository/specification"
	"ai-docreview-be/internal/repository/unitofwork"
	"ai-docreview-be/pkg/reasoning"
	"ai-docreview-be/pkg/retry"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLearningRepo struct {
	store *memStore
}

func (r *memLearningRepo) Create(ctx context.Context, entry *entity.LearningEntry) error {
	if entry.Id == uuid.Nil {
		entry.Id = uuid.New()
	}
	entry.CreatedAt = time.Now()
	clone := *entry
	r.store.learnings = append(r.store.learnings, &clone)
	return nil
}

func (r *memLearningRepo) CreateBatch(ctx context.Context, entries []*entity.LearningEntry) error {
	for _, entry := range entries {
		if err := r.Create(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (r *memLearningRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.LearningEntry, error) {
	var out []*entity.LearningEntry
	for _, entry := range r.store.learnings {
		keep := true
		for _, spec := range specs {
			switch v := spec.(type) {
			case specification.ByID:
				if entry.Id != v.ID {
					keep = false
				}
			case specification.ByUserID:
				if entry.UserId != v.UserID {
					keep = false
				}
			case specification.ByProjectKey:
				if entry.ProjectKey != v.ProjectKey {
					keep = false
				}
			}
		}
		if keep {
			clone := *entry
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memLearningRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.LearningEntry, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *memLearningRepo) Delete(ctx context.Context, id uuid.UUID) error {
	kept := r.store.learnings[:0]
	for _, entry := range r.store.learnings {
		if entry.Id != id {
			kept = append(kept, entry)
		}
	}
	r.store.learnings = kept
	return nil
}

func (r *memLearningRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type fakeExporter struct {
	items      []reasoning.LearningItem
	outcomeLog string
}

func (f *fakeExporter) ExportLearning(ctx context.Context, outcomeLog string) ([]reasoning.LearningItem, error) {
	f.outcomeLog = outcomeLog
	return f.items, nil
}

func newLearningHarness(t *testing.T) (*harness, ILearningService, *fakeExporter) {
	t.Helper()
	h := newHarness(t)
	exporter := &fakeExporter{
		items: []reasoning.LearningItem{
			{Category: "preference", Description: "author rejects tense-shift findings in flashbacks"},
		},
	}
	factory := &memFactory{store: h.store}
	policy := retry.Policy{
		MaxAttempts: 1,
		BaseDelay:   time.Millisecond,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}
	svc := NewLearningService(factory, unitofwork.NewTransactionRunner(factory, policy), exporter, h.publisher, nopLogger{})
	return h, svc, exporter
}

func TestExportLearningBuildsOutcomeLog(t *testing.T) {
	h, svc, exporter := newLearningHarness(t)
	userId := uuid.New()
	started := h.startSession(t, userId)
	ctx := context.Background()

	first := h.findingByNumber(t, started.SessionId, 1)
	_, err := h.service.Accept(ctx, userId, first.Id, "good catch")
	require.NoError(t, err)
	second := h.findingByNumber(t, started.SessionId, 2)
	_, err = h.service.Reject(ctx, userId, second.Id, "intentional")
	require.NoError(t, err)

	response, err := svc.ExportLearning(ctx, userId, &dto.ExportLearningRequest{SessionId: started.SessionId})
	require.NoError(t, err)

	require.Len(t, response.Entries, 1)
	assert.Equal(t, "preference", response.Entries[0].Category)

	// The outcome log carries each finding's final state.
	assert.Contains(t, exporter.outcomeLog, "accepted")
	assert.Contains(t, exporter.outcomeLog, "rejected (intentional)")
	assert.True(t, strings.Contains(exporter.outcomeLog, "finding #1"))
	assert.Contains(t, h.publisher.published, "LEARNING_EXPORTED")

	list, err := svc.ListLearningEntries(ctx, userId, "novel-draft")
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}

func TestExportLearningDropsUnknownCategory(t *testing.T) {
	h, svc, exporter := newLearningHarness(t)
	exporter.items = []reasoning.LearningItem{
		{Category: "preference", Description: "author favors short scenes"},
		{Category: "vibes", Description: "not a legal category"},
	}
	userId := uuid.New()
	started := h.startSession(t, userId)
	ctx := context.Background()

	first := h.findingByNumber(t, started.SessionId, 1)
	_, err := h.service.Accept(ctx, userId, first.Id, "")
	require.NoError(t, err)

	response, err := svc.ExportLearning(ctx, userId, &dto.ExportLearningRequest{SessionId: started.SessionId})
	require.NoError(t, err)
	require.Len(t, response.Entries, 1)
	assert.Equal(t, "preference", response.Entries[0].Category)
}

func TestDeleteLearningEntryIsOwnerScoped(t *testing.T) {
	h, svc, _ := newLearningHarness(t)
	userId := uuid.New()
	started := h.startSession(t, userId)
	ctx := context.Background()

	first := h.findingByNumber(t, started.SessionId, 1)
	_, err := h.service.Accept(ctx, userId, first.Id, "")
	require.NoError(t, err)

	response, err := svc.ExportLearning(ctx, userId, &dto.ExportLearningRequest{SessionId: started.SessionId})
	require.NoError(t, err)
	require.Len(t, response.Entries, 1)
	entryId := response.Entries[0].Id

	err = svc.DeleteLearningEntry(ctx, uuid.New(), entryId)
	assert.Error(t, err)

	require.NoError(t, svc.DeleteLearningEntry(ctx, userId, entryId))
	list, err := svc.ListLearningEntries(ctx, userId, "")
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)
}

func TestExportLearningUnknownSession(t *testing.T) {
	_, svc, _ := newLearningHarness(t)

	_, err := svc.ExportLearning(context.Background(), uuid.New(), &dto.ExportLearningRequest{SessionId: uuid.New()})
	assert.Error(t, err)
}

func TestConsumerProcessesLearningCapture(t *testing.T) {
	h, svc, _ := newLearningHarness(t)
	userId := uuid.New()
	started := h.startSession(t, userId)
	ctx := context.Background()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	consumer := NewConsumerService(pubSub, LearningCaptureTopic, svc, nopLogger{})
	require.NoError(t, consumer.Consume(ctx))

	payload, err := json.Marshal(dto.LearningCaptureMessage{SessionId: started.SessionId, UserId: userId})
	require.NoError(t, err)
	require.NoError(t, pubSub.Publish(LearningCaptureTopic, message.NewMessage(uuid.NewString(), payload)))

	assert.Eventually(t, func() bool {
		for _, published := range h.publisher.published {
			if published == "LEARNING_EXPORTED" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}
