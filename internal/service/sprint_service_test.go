package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sprinthub/internal/model"
	"sprinthub/internal/repository"
)

func sprintFixture(e *env) (model.Actor, *model.Sprint) {
	pm := e.users.seed(model.User{Email: "pm@acme.io", Role: model.RolePM, IsActive: true})
	project := e.projects.seed(model.Project{Title: "Platform", Status: model.ProjectStarted, PMID: pm.ID})
	sprint := e.sprints.seed(model.Sprint{
		ProjectID:    project.ID,
		Name:         "Sprint 1",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DurationDays: 7,
		Status:       model.SprintOpen,
	})
	return model.Actor{ID: pm.ID, Role: model.RolePM}, sprint
}

func newSprintService(e *env) *SprintService {
	return NewSprintService(e.sprints, e.projects, e.access, zap.NewNop())
}

func TestCompleteSprintCreatesNext(t *testing.T) {
	e := newEnv()
	actor, sprint := sprintFixture(e)
	svc := newSprintService(e)

	updated, created, err := svc.Complete(context.Background(), actor, sprint.ID, repository.RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, model.SprintCompleted, updated.Status)
	require.NotNil(t, created)
	assert.Equal(t, "Sprint 2", created.Name)
	assert.Equal(t, sprint.ProjectID, created.ProjectID)
	assert.Equal(t, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), created.StartDate)
	assert.Equal(t, model.SprintOpen, created.Status)
	assert.Equal(t, 7, created.DurationDays)

	// One UPDATE for the completion, one CREATE for the next sprint.
	assert.Equal(t, 1, e.audit.count(model.AuditUpdate, "sprint"))
	assert.Equal(t, 1, e.audit.count(model.AuditCreate, "sprint"))
}

func TestCompleteSprintIdempotent(t *testing.T) {
	e := newEnv()
	actor, sprint := sprintFixture(e)
	svc := newSprintService(e)

	_, created, err := svc.Complete(context.Background(), actor, sprint.ID, repository.RequestMeta{})
	require.NoError(t, err)
	require.NotNil(t, created)

	// Completing an already completed sprint fires nothing.
	updated, created, err := svc.Complete(context.Background(), actor, sprint.ID, repository.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, model.SprintCompleted, updated.Status)
	assert.Nil(t, created)

	assert.Equal(t, 1, e.audit.count(model.AuditUpdate, "sprint"))
	assert.Equal(t, 1, e.audit.count(model.AuditCreate, "sprint"))

	sprints, err := e.sprints.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, sprints, 2)
}

func TestNextSprintNameSkipsDeleted(t *testing.T) {
	e := newEnv()
	actor, sprint := sprintFixture(e)
	e.sprints.seed(model.Sprint{ProjectID: sprint.ProjectID, Name: "Sprint old", IsDeleted: true})
	svc := newSprintService(e)

	_, created, err := svc.Complete(context.Background(), actor, sprint.ID, repository.RequestMeta{})
	require.NoError(t, err)
	require.NotNil(t, created)
	// The deleted sprint does not count toward the name.
	assert.Equal(t, "Sprint 2", created.Name)
}

func TestConcurrentCompletionsNumberSprintsDistinctly(t *testing.T) {
	e := newEnv()
	_, first := sprintFixture(e)
	second := e.sprints.seed(model.Sprint{
		ProjectID:    first.ProjectID,
		Name:         "Sprint 2",
		StartDate:    time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
		DurationDays: 7,
		Status:       model.SprintOpen,
	})
	svc := newSprintService(e)
	owner := model.Actor{ID: 99, Role: model.RoleOwner}

	// Complete both sprints of the project at once. The count read
	// must serialize so the generated names never collide.
	type result struct {
		next *model.Sprint
		err  error
	}
	results := make(chan result, 2)
	var wg sync.WaitGroup
	for _, id := range []int{first.ID, second.ID} {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, next, err := svc.Complete(context.Background(), owner, id, repository.RequestMeta{})
			results <- result{next: next, err: err}
		}(id)
	}
	wg.Wait()
	close(results)

	names := map[string]bool{}
	for r := range results {
		require.NoError(t, r.err)
		require.NotNil(t, r.next)
		assert.False(t, names[r.next.Name], "duplicate generated name %q", r.next.Name)
		names[r.next.Name] = true
	}
	assert.Equal(t, map[string]bool{"Sprint 3": true, "Sprint 4": true}, names)
}

func TestSprintDurationMustBePositive(t *testing.T) {
	e := newEnv()
	actor, sprint := sprintFixture(e)
	svc := newSprintService(e)

	_, err := svc.Create(context.Background(), actor, CreateSprintInput{
		ProjectID:    sprint.ProjectID,
		Name:         "Sprint bad",
		StartDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DurationDays: -3,
	}, repository.RequestMeta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duration_days must be positive.")

	days := 0
	_, _, err = svc.Update(context.Background(), actor, sprint.ID, repository.SprintPatch{DurationDays: &days}, repository.RequestMeta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duration_days must be positive.")
}

func TestUpdateSprintPlainFieldsNoCascade(t *testing.T) {
	e := newEnv()
	actor, sprint := sprintFixture(e)
	svc := newSprintService(e)

	name := "Sprint 1 (extended)"
	days := 14
	updated, created, err := svc.Update(context.Background(), actor, sprint.ID, repository.SprintPatch{
		Name:         &name,
		DurationDays: &days,
	}, repository.RequestMeta{})
	require.NoError(t, err)

	assert.Nil(t, created)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, 14, updated.DurationDays)
	assert.Equal(t, model.SprintOpen, updated.Status)
}

func TestUpdateSprintRejectsInvalidStatus(t *testing.T) {
	e := newEnv()
	actor, sprint := sprintFixture(e)
	svc := newSprintService(e)

	bad := model.SprintStatus("DONE")
	_, _, err := svc.Update(context.Background(), actor, sprint.ID, repository.SprintPatch{Status: &bad}, repository.RequestMeta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid status value.")
}

func TestPMCannotCompleteAnotherPMsSprint(t *testing.T) {
	e := newEnv()
	_, sprint := sprintFixture(e)
	other := e.users.seed(model.User{Email: "other-pm@acme.io", Role: model.RolePM, IsActive: true})
	svc := newSprintService(e)

	_, _, err := svc.Complete(context.Background(), model.Actor{ID: other.ID, Role: model.RolePM}, sprint.ID, repository.RequestMeta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PM may not modify resources owned by the Owner or another PM.")
}

func TestCreateSprintDefaultsDuration(t *testing.T) {
	e := newEnv()
	actor, sprint := sprintFixture(e)
	svc := newSprintService(e)

	sp, err := svc.Create(context.Background(), actor, CreateSprintInput{
		ProjectID: sprint.ProjectID,
		Name:      "Sprint extra",
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}, repository.RequestMeta{})
	require.NoError(t, err)

	assert.Equal(t, 7, sp.DurationDays)
	assert.Equal(t, model.SprintOpen, sp.Status)
}

func TestListDeletedSprintsOwnerOnly(t *testing.T) {
	e := newEnv()
	actor, _ := sprintFixture(e)
	svc := newSprintService(e)

	_, err := svc.List(context.Background(), actor, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Only the Owner may view deleted sprints.")

	_, err = svc.List(context.Background(), model.Actor{ID: 99, Role: model.RoleOwner}, true)
	assert.NoError(t, err)
}
