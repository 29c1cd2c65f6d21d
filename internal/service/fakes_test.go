package service

import (
	"context"
	"sync"
	"time"

	"sprinthub/internal/apperr"
	"sprinthub/internal/model"
	"sprinthub/internal/repository"
	"sprinthub/internal/workflow"
)

// auditRecord is what the fakes log for each mutation, standing in for
// the audit rows the real repositories insert transactionally.
type auditRecord struct {
	Action     model.AuditAction
	EntityType string
	EntityID   int
	Changes    model.Changes
}

type auditLog struct {
	records []auditRecord
}

func (l *auditLog) add(action model.AuditAction, entityType string, id int, changes model.Changes) {
	l.records = append(l.records, auditRecord{Action: action, EntityType: entityType, EntityID: id, Changes: changes})
}

func (l *auditLog) count(action model.AuditAction, entityType string) int {
	n := 0
	for _, r := range l.records {
		if r.Action == action && r.EntityType == entityType {
			n++
		}
	}
	return n
}

type fakeUserStore struct {
	nextID int
	users  map[int]*model.User
	audit  *auditLog
}

func newFakeUserStore(audit *auditLog) *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: map[int]*model.User{}, audit: audit}
}

func (s *fakeUserStore) seed(u model.User) *model.User {
	if u.ID == 0 {
		u.ID = s.nextID
	}
	if u.ID >= s.nextID {
		s.nextID = u.ID + 1
	}
	cp := u
	s.users[cp.ID] = &cp
	return &cp
}

func (s *fakeUserStore) Create(_ context.Context, u *model.User, _ repository.RequestMeta) error {
	u.ID = s.nextID
	s.nextID++
	cp := *u
	s.users[cp.ID] = &cp
	s.audit.add(model.AuditCreate, "user", u.ID, nil)
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id int, includeDeleted bool) (*model.User, error) {
	u, ok := s.users[id]
	if !ok || (u.IsDeleted && !includeDeleted) {
		return nil, apperr.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email && !u.IsDeleted && u.IsActive {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (s *fakeUserStore) List(_ context.Context, includeDeleted bool) ([]model.User, error) {
	var out []model.User
	for _, u := range s.users {
		if u.IsDeleted && !includeDeleted {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (s *fakeUserStore) UpdateName(_ context.Context, id int, name string, _ repository.RequestMeta) (*model.User, error) {
	u, ok := s.users[id]
	if !ok || u.IsDeleted {
		return nil, apperr.NotFound("user not found")
	}
	if u.Name != name {
		s.audit.add(model.AuditUpdate, "user", id, model.Changes{"name": model.FieldChange(u.Name, name)})
		u.Name = name
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) SoftDelete(_ context.Context, id int, _ repository.RequestMeta) error {
	u, ok := s.users[id]
	if !ok || u.IsDeleted {
		return apperr.NotFound("user not found")
	}
	now := time.Now()
	u.IsDeleted = true
	u.DeletedAt = &now
	s.audit.add(model.AuditSoftDelete, "user", id, model.DeletedChange())
	return nil
}

func (s *fakeUserStore) HardDelete(_ context.Context, id int, _ repository.RequestMeta) error {
	if _, ok := s.users[id]; !ok {
		return apperr.NotFound("user not found")
	}
	delete(s.users, id)
	s.audit.add(model.AuditHardDelete, "user", id, model.DeletedChange())
	return nil
}

type fakeProjectStore struct {
	nextID   int
	projects map[int]*model.Project
	audit    *auditLog
}

func newFakeProjectStore(audit *auditLog) *fakeProjectStore {
	return &fakeProjectStore{nextID: 1, projects: map[int]*model.Project{}, audit: audit}
}

func (s *fakeProjectStore) seed(p model.Project) *model.Project {
	if p.ID == 0 {
		p.ID = s.nextID
	}
	if p.ID >= s.nextID {
		s.nextID = p.ID + 1
	}
	cp := p
	s.projects[cp.ID] = &cp
	return &cp
}

func (s *fakeProjectStore) Create(_ context.Context, p *model.Project, _ repository.RequestMeta) error {
	p.ID = s.nextID
	s.nextID++
	cp := *p
	s.projects[cp.ID] = &cp
	s.audit.add(model.AuditCreate, "project", p.ID, nil)
	return nil
}

func (s *fakeProjectStore) GetByID(_ context.Context, id int, includeDeleted bool) (*model.Project, error) {
	p, ok := s.projects[id]
	if !ok || (p.IsDeleted && !includeDeleted) {
		return nil, apperr.NotFound("project not found")
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProjectStore) List(_ context.Context, includeDeleted bool) ([]model.Project, error) {
	var out []model.Project
	for _, p := range s.projects {
		if p.IsDeleted && !includeDeleted {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeProjectStore) Update(_ context.Context, id int, patch repository.ProjectPatch, _ repository.RequestMeta) (*model.Project, error) {
	p, ok := s.projects[id]
	if !ok || p.IsDeleted {
		return nil, apperr.NotFound("project not found")
	}
	changes := model.Changes{}
	if patch.Title != nil && *patch.Title != p.Title {
		changes["title"] = model.FieldChange(p.Title, *patch.Title)
		p.Title = *patch.Title
	}
	if patch.Status != nil && *patch.Status != p.Status {
		changes["status"] = model.FieldChange(string(p.Status), string(*patch.Status))
		p.Status = *patch.Status
	}
	if patch.PMID != nil && *patch.PMID != p.PMID {
		changes["pm_id"] = model.FieldChange(p.PMID, *patch.PMID)
		p.PMID = *patch.PMID
	}
	if len(changes) > 0 {
		s.audit.add(model.AuditUpdate, "project", id, changes)
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProjectStore) SoftDelete(_ context.Context, id int, _ repository.RequestMeta) error {
	p, ok := s.projects[id]
	if !ok || p.IsDeleted {
		return apperr.NotFound("project not found")
	}
	now := time.Now()
	p.IsDeleted = true
	p.DeletedAt = &now
	s.audit.add(model.AuditSoftDelete, "project", id, model.DeletedChange())
	return nil
}

func (s *fakeProjectStore) HardDelete(_ context.Context, id int, _ repository.RequestMeta) error {
	if _, ok := s.projects[id]; !ok {
		return apperr.NotFound("project not found")
	}
	delete(s.projects, id)
	s.audit.add(model.AuditHardDelete, "project", id, model.DeletedChange())
	return nil
}

type fakeSprintStore struct {
	// mu stands in for the project-row lock the real repository takes
	// before the cascade's sprint-count read.
	mu      sync.Mutex
	nextID  int
	sprints map[int]*model.Sprint
	audit   *auditLog
}

func newFakeSprintStore(audit *auditLog) *fakeSprintStore {
	return &fakeSprintStore{nextID: 1, sprints: map[int]*model.Sprint{}, audit: audit}
}

func (s *fakeSprintStore) seed(sp model.Sprint) *model.Sprint {
	if sp.ID == 0 {
		sp.ID = s.nextID
	}
	if sp.ID >= s.nextID {
		s.nextID = sp.ID + 1
	}
	cp := sp
	s.sprints[cp.ID] = &cp
	return &cp
}

func (s *fakeSprintStore) Create(_ context.Context, sp *model.Sprint, _ repository.RequestMeta) error {
	sp.ID = s.nextID
	s.nextID++
	cp := *sp
	s.sprints[cp.ID] = &cp
	s.audit.add(model.AuditCreate, "sprint", sp.ID, nil)
	return nil
}

func (s *fakeSprintStore) GetByID(_ context.Context, id int, includeDeleted bool) (*model.Sprint, error) {
	sp, ok := s.sprints[id]
	if !ok || (sp.IsDeleted && !includeDeleted) {
		return nil, apperr.NotFound("sprint not found")
	}
	cp := *sp
	return &cp, nil
}

func (s *fakeSprintStore) List(_ context.Context, includeDeleted bool) ([]model.Sprint, error) {
	var out []model.Sprint
	for _, sp := range s.sprints {
		if sp.IsDeleted && !includeDeleted {
			continue
		}
		out = append(out, *sp)
	}
	return out, nil
}

func (s *fakeSprintStore) countForProject(projectID int) int {
	n := 0
	for _, sp := range s.sprints {
		if sp.ProjectID == projectID && !sp.IsDeleted {
			n++
		}
	}
	return n
}

// Update mirrors the real repository: patch the row, and when the
// status moves into COMPLETED create the next sprint in the same unit.
func (s *fakeSprintStore) Update(ctx context.Context, id int, patch repository.SprintPatch, nextSprint func(model.Sprint, int) model.Sprint, _ repository.RequestMeta) (*model.Sprint, *model.Sprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.sprints[id]
	if !ok || sp.IsDeleted {
		return nil, nil, apperr.NotFound("sprint not found")
	}

	oldStatus := sp.Status
	changes := model.Changes{}
	if patch.Name != nil && *patch.Name != sp.Name {
		changes["name"] = model.FieldChange(sp.Name, *patch.Name)
		sp.Name = *patch.Name
	}
	if patch.DurationDays != nil && *patch.DurationDays != sp.DurationDays {
		changes["duration_days"] = model.FieldChange(sp.DurationDays, *patch.DurationDays)
		sp.DurationDays = *patch.DurationDays
	}
	if patch.Status != nil && *patch.Status != sp.Status {
		changes["status"] = model.FieldChange(string(sp.Status), string(*patch.Status))
		sp.Status = *patch.Status
	}
	if len(changes) > 0 {
		s.audit.add(model.AuditUpdate, "sprint", id, changes)
	}

	var created *model.Sprint
	if workflow.CompletionFired(oldStatus, sp.Status) {
		next := nextSprint(*sp, s.countForProject(sp.ProjectID))
		next.ID = s.nextID
		s.nextID++
		cp := next
		s.sprints[cp.ID] = &cp
		s.audit.add(model.AuditCreate, "sprint", cp.ID, nil)
		created = &next
	}

	cp := *sp
	return &cp, created, nil
}

func (s *fakeSprintStore) SoftDelete(_ context.Context, id int, _ repository.RequestMeta) error {
	sp, ok := s.sprints[id]
	if !ok || sp.IsDeleted {
		return apperr.NotFound("sprint not found")
	}
	now := time.Now()
	sp.IsDeleted = true
	sp.DeletedAt = &now
	s.audit.add(model.AuditSoftDelete, "sprint", id, model.DeletedChange())
	return nil
}

func (s *fakeSprintStore) HardDelete(_ context.Context, id int, _ repository.RequestMeta) error {
	if _, ok := s.sprints[id]; !ok {
		return apperr.NotFound("sprint not found")
	}
	delete(s.sprints, id)
	s.audit.add(model.AuditHardDelete, "sprint", id, model.DeletedChange())
	return nil
}

type fakeTaskStore struct {
	nextID int
	tasks  map[int]*model.Task
	audit  *auditLog
}

func newFakeTaskStore(audit *auditLog) *fakeTaskStore {
	return &fakeTaskStore{nextID: 1, tasks: map[int]*model.Task{}, audit: audit}
}

func (s *fakeTaskStore) seed(t model.Task) *model.Task {
	if t.ID == 0 {
		t.ID = s.nextID
	}
	if t.ID >= s.nextID {
		s.nextID = t.ID + 1
	}
	cp := t
	s.tasks[cp.ID] = &cp
	return &cp
}

func (s *fakeTaskStore) Create(_ context.Context, t *model.Task, _ repository.RequestMeta) error {
	t.ID = s.nextID
	s.nextID++
	cp := *t
	s.tasks[cp.ID] = &cp
	s.audit.add(model.AuditCreate, "task", t.ID, nil)
	return nil
}

func (s *fakeTaskStore) GetByID(_ context.Context, id int, includeDeleted bool) (*model.Task, error) {
	t, ok := s.tasks[id]
	if !ok || (t.IsDeleted && !includeDeleted) {
		return nil, apperr.NotFound("task not found")
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTaskStore) List(_ context.Context, includeDeleted bool) ([]model.Task, error) {
	var out []model.Task
	for _, t := range s.tasks {
		if t.IsDeleted && !includeDeleted {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *fakeTaskStore) ListByAssignee(_ context.Context, userID int) ([]model.Task, error) {
	var out []model.Task
	for _, t := range s.tasks {
		if !t.IsDeleted && t.AssignedTo(userID) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *fakeTaskStore) Update(_ context.Context, id int, patch repository.TaskPatch, _ repository.RequestMeta) (*model.Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.IsDeleted {
		return nil, apperr.NotFound("task not found")
	}
	changes := model.Changes{}
	if patch.Title != nil && *patch.Title != t.Title {
		changes["title"] = model.FieldChange(t.Title, *patch.Title)
		t.Title = *patch.Title
	}
	if patch.Status != nil && *patch.Status != t.Status {
		changes["status"] = model.FieldChange(string(t.Status), string(*patch.Status))
		t.Status = *patch.Status
	}
	if patch.Assignees != nil {
		changes["assignees"] = model.FieldChange(t.Assignees, patch.Assignees)
		t.Assignees = patch.Assignees
	}
	if len(changes) > 0 {
		s.audit.add(model.AuditUpdate, "task", id, changes)
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTaskStore) TransitionStatus(_ context.Context, id int, requested model.TaskStatus, validate func(current *model.Task) error, _ repository.RequestMeta) (*model.Task, error) {
	t, ok := s.tasks[id]
	if !ok || t.IsDeleted {
		return nil, apperr.NotFound("task not found")
	}
	if err := validate(t); err != nil {
		return nil, err
	}
	if t.Status != requested {
		s.audit.add(model.AuditUpdate, "task", id, model.Changes{"status": model.FieldChange(string(t.Status), string(requested))})
		t.Status = requested
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTaskStore) SoftDelete(_ context.Context, id int, _ repository.RequestMeta) error {
	t, ok := s.tasks[id]
	if !ok || t.IsDeleted {
		return apperr.NotFound("task not found")
	}
	now := time.Now()
	t.IsDeleted = true
	t.DeletedAt = &now
	s.audit.add(model.AuditSoftDelete, "task", id, model.DeletedChange())
	return nil
}

func (s *fakeTaskStore) HardDelete(_ context.Context, id int, _ repository.RequestMeta) error {
	if _, ok := s.tasks[id]; !ok {
		return apperr.NotFound("task not found")
	}
	delete(s.tasks, id)
	s.audit.add(model.AuditHardDelete, "task", id, model.DeletedChange())
	return nil
}

// env bundles one fully wired in-memory backend per test.
type env struct {
	audit    *auditLog
	users    *fakeUserStore
	projects *fakeProjectStore
	sprints  *fakeSprintStore
	tasks    *fakeTaskStore
	access   *Access
}

func newEnv() *env {
	audit := &auditLog{}
	users := newFakeUserStore(audit)
	projects := newFakeProjectStore(audit)
	sprints := newFakeSprintStore(audit)
	tasks := newFakeTaskStore(audit)
	return &env{
		audit:    audit,
		users:    users,
		projects: projects,
		sprints:  sprints,
		tasks:    tasks,
		access:   NewAccess(users, projects, sprints, tasks),
	}
}
