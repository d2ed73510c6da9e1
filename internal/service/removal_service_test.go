package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/scientia-api/internal/repository"
)

type removalRepoStub struct {
	summary repository.RemovalSummary
	err     error
	calls   []uint
}

func (s *removalRepoStub) cascade(_ context.Context, id uint) (repository.RemovalSummary, error) {
	s.calls = append(s.calls, id)
	return s.summary, s.err
}

func (s *removalRepoStub) DeleteStudent(ctx context.Context, id uint) (repository.RemovalSummary, error) {
	return s.cascade(ctx, id)
}

func (s *removalRepoStub) DeleteClass(ctx context.Context, id uint) (repository.RemovalSummary, error) {
	return s.cascade(ctx, id)
}

func (s *removalRepoStub) DeleteSubject(ctx context.Context, id uint) (repository.RemovalSummary, error) {
	return s.cascade(ctx, id)
}

func (s *removalRepoStub) DeleteExam(ctx context.Context, id uint) (repository.RemovalSummary, error) {
	return s.cascade(ctx, id)
}

func TestRemovalServiceReportsCounts(t *testing.T) {
	repo := &removalRepoStub{summary: repository.RemovalSummary{Students: 2, Marks: 4, Classes: 1}}
	svc := NewRemovalService(repo, testLogger())

	resp, err := svc.DeleteClass(context.Background(), adminActor, 7)
	require.NoError(t, err)
	require.Equal(t, "class", resp.Entity)
	require.Equal(t, uint(7), resp.ID)
	require.Equal(t, map[string]int64{"students": 2, "marks": 4, "classes": 1}, resp.Removed)
}

func TestRemovalServiceMapsFailures(t *testing.T) {
	repo := &removalRepoStub{err: repository.ErrSharedRegNo}
	svc := NewRemovalService(repo, testLogger())

	_, err := svc.DeleteStudent(context.Background(), adminActor, 1)
	require.ErrorIs(t, err, ErrConflict)

	repo.err = gorm.ErrRecordNotFound
	_, err = svc.DeleteExam(context.Background(), adminActor, 2)
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, "exam not found", PublicMessage(err))

	_, err = svc.DeleteSubject(context.Background(), teacherActor, 3)
	require.ErrorIs(t, err, ErrForbidden)
	require.Len(t, repo.calls, 2, "forbidden requests never reach the store")
}
