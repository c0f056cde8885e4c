package service_test

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"taskManager/internal/repository/inmemory"
	"taskManager/internal/service"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type taskFixture struct {
	svc   *service.TaskService
	store *inmemory.Storage
	admin *user.Identity
	alice *user.Identity
	bob   *user.Identity
	clock *time.Time
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	clock := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	store := inmemory.New().WithClock(now)
	identity := func(name string, role user.Role) *user.Identity {
		u := &user.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: role, Active: true}
		require.NoError(t, store.CreateUser(context.Background(), u))
		return u.Identity()
	}

	return &taskFixture{
		svc:   service.NewTaskService(store, store).WithClock(now),
		store: store,
		admin: identity("admin", user.RoleAdmin),
		alice: identity("alice", user.RoleUser),
		bob:   identity("bob", user.RoleUser),
		clock: &clock,
	}
}

func (f *taskFixture) create(t *testing.T, actor *user.Identity, title string, assignee *int64) *task.Task {
	t.Helper()
	created, err := f.svc.Create(context.Background(), service.CreateTaskInput{
		Title:      title,
		DueDate:    f.clock.Add(24 * time.Hour),
		Category:   "work",
		AssignedTo: assignee,
	}, actor)
	require.NoError(t, err)
	return created
}

// TestTaskService_CreateDefaults тестирует значения по умолчанию и назначение на себя
func TestTaskService_CreateDefaults(t *testing.T) {
	f := newTaskFixture(t)

	created := f.create(t, f.alice, "Write report", nil)
	assert.Equal(t, task.StatusPending, created.Status)
	assert.Equal(t, task.PriorityMedium, created.Priority)
	assert.Equal(t, f.alice.ID, created.AssignedTo)
	assert.Equal(t, f.alice.ID, created.CreatedBy)
	assert.Equal(t, "alice", created.AssignedToName)

	// явное назначение на себя разрешено
	self := f.create(t, f.alice, "Self", &f.alice.ID)
	assert.Equal(t, f.alice.ID, self.AssignedTo)
}

func TestTaskService_CreateValidation(t *testing.T) {
	f := newTaskFixture(t)
	due := f.clock.Add(time.Hour)

	tests := []struct {
		name  string
		in    service.CreateTaskInput
		field string
	}{
		{name: "no title", in: service.CreateTaskInput{DueDate: due, Category: "c"}, field: "title"},
		{name: "no due date", in: service.CreateTaskInput{Title: "t", Category: "c"}, field: "due_date"},
		{name: "no category", in: service.CreateTaskInput{Title: "t", DueDate: due, Category: " "}, field: "category"},
		{name: "bad status", in: service.CreateTaskInput{Title: "t", DueDate: due, Category: "c", Status: "done"}, field: "status"},
		{name: "bad priority", in: service.CreateTaskInput{Title: "t", DueDate: due, Category: "c", Priority: "urgent"}, field: "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.in, f.alice)
			busErr, ok := service.AsBusiness(err)
			require.True(t, ok)
			assert.Equal(t, service.CodeValidation, busErr.Code)
			assert.Equal(t, tt.field, busErr.Details["field"])
		})
	}
}

// TestTaskService_CreateAssign тестирует права на назначение исполнителя
func TestTaskService_CreateAssign(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	due := f.clock.Add(time.Hour)

	_, err := f.svc.Create(ctx, service.CreateTaskInput{Title: "t", DueDate: due, Category: "c", AssignedTo: &f.bob.ID}, f.alice)
	assert.True(t, service.HasCode(err, service.CodeForbidden))

	missing := int64(404)
	_, err = f.svc.Create(ctx, service.CreateTaskInput{Title: "t", DueDate: due, Category: "c", AssignedTo: &missing}, f.admin)
	busErr, ok := service.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, service.CodeNotFound, busErr.Code)
	assert.Equal(t, "Assigned user not found", busErr.Message)

	assigned := f.create(t, f.admin, "for bob", &f.bob.ID)
	assert.Equal(t, f.bob.ID, assigned.AssignedTo)
	assert.Equal(t, f.admin.ID, assigned.CreatedBy)
}

// TestTaskService_Visibility тестирует, что чужая задача неотличима от отсутствующей
func TestTaskService_Visibility(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	bobs := f.create(t, f.bob, "bob's", nil)

	_, errForeign := f.svc.Get(ctx, bobs.ID, f.alice)
	_, errMissing := f.svc.Get(ctx, 9999, f.alice)
	assert.True(t, service.HasCode(errForeign, service.CodeNotFound))
	assert.Equal(t, errMissing.Error(), errForeign.Error())

	title := "hijack"
	_, err := f.svc.Update(ctx, bobs.ID, task.Patch{Title: &title}, f.alice)
	assert.True(t, service.HasCode(err, service.CodeNotFound))
	assert.True(t, service.HasCode(f.svc.Delete(ctx, bobs.ID, f.alice), service.CodeNotFound))
	_, err = f.svc.Complete(ctx, bobs.ID, f.alice)
	assert.True(t, service.HasCode(err, service.CodeNotFound))

	got, err := f.svc.Get(ctx, bobs.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "bob's", got.Title)

	_, err = f.svc.Get(ctx, bobs.ID, nil)
	assert.True(t, service.HasCode(err, service.CodeAuth))
}

// TestTaskService_ListScoping тестирует, что обычный пользователь видит только свои задачи
func TestTaskService_ListScoping(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	f.create(t, f.alice, "a1", nil)
	f.create(t, f.alice, "a2", nil)
	f.create(t, f.bob, "b1", nil)

	// клиентский AssignedTo игнорируется
	res, err := f.svc.List(ctx, task.ListQuery{Filter: task.Filter{AssignedTo: &f.bob.ID}}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pagination.TotalTasks)
	for _, tsk := range res.Tasks {
		assert.Equal(t, f.alice.ID, tsk.AssignedTo)
	}

	res, err = f.svc.List(ctx, task.ListQuery{}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Pagination.TotalTasks)
}

// TestTaskService_ListPagination тестирует page=2, limit=5 при 12 задачах
func TestTaskService_ListPagination(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := f.svc.Create(ctx, service.CreateTaskInput{
			Title:    fmt.Sprintf("task %02d", i),
			DueDate:  f.clock.Add(time.Duration(i+1) * time.Hour),
			Category: "work",
		}, f.alice)
		require.NoError(t, err)
	}

	res, err := f.svc.List(ctx, task.ListQuery{Page: task.Page{Number: 2, Limit: 5}}, f.alice)
	require.NoError(t, err)
	assert.Len(t, res.Tasks, 5)
	assert.Equal(t, task.Pagination{CurrentPage: 2, TotalPages: 3, TotalTasks: 12, Limit: 5}, res.Pagination)
	assert.Equal(t, "task 05", res.Tasks[0].Title)

	// неизвестная колонка сортировки -> due_date ASC
	res, err = f.svc.List(ctx, task.ListQuery{Sort: task.Sort{Column: "password", Order: "sideways"}}, f.alice)
	require.NoError(t, err)
	require.Len(t, res.Tasks, 10)
	assert.Equal(t, "task 00", res.Tasks[0].Title)
	assert.Equal(t, 10, res.Pagination.Limit)

	res, err = f.svc.List(ctx, task.ListQuery{Sort: task.Sort{Column: "due_date", Order: "desc"}}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "task 11", res.Tasks[0].Title)
}

// TestTaskService_Update тестирует частичное обновление и запрет переназначения
func TestTaskService_Update(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	own := f.create(t, f.alice, "mine", nil)

	_, err := f.svc.Update(ctx, own.ID, task.Patch{}, f.alice)
	busErr, ok := service.AsBusiness(err)
	require.True(t, ok)
	assert.Equal(t, service.CodeValidation, busErr.Code)
	assert.Equal(t, "No fields to update", busErr.Message)

	priority := task.PriorityHigh
	updated, err := f.svc.Update(ctx, own.ID, task.Patch{Priority: &priority}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, task.PriorityHigh, updated.Priority)
	assert.Equal(t, "mine", updated.Title)

	_, err = f.svc.Update(ctx, own.ID, task.Patch{AssignedTo: &f.bob.ID}, f.alice)
	assert.True(t, service.HasCode(err, service.CodeForbidden))

	empty := " "
	_, err = f.svc.Update(ctx, own.ID, task.Patch{Title: &empty}, f.alice)
	assert.True(t, service.HasCode(err, service.CodeValidation))

	missing := int64(777)
	_, err = f.svc.Update(ctx, own.ID, task.Patch{AssignedTo: &missing}, f.admin)
	assert.True(t, service.HasCode(err, service.CodeNotFound))

	moved, err := f.svc.Update(ctx, own.ID, task.Patch{AssignedTo: &f.bob.ID}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, moved.AssignedTo)

	// после переназначения задача alice больше не видна
	_, err = f.svc.Get(ctx, own.ID, f.alice)
	assert.True(t, service.HasCode(err, service.CodeNotFound))
}

// TestTaskService_UpdateClearsOverdue тестирует снятие просрочки при переносе срока в будущее
func TestTaskService_UpdateClearsOverdue(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	late := f.create(t, f.alice, "late", nil)
	kept := f.create(t, f.alice, "kept", nil)

	*f.clock = f.clock.Add(48 * time.Hour)
	marked, err := f.store.MarkOverdue(ctx, *f.clock, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), marked)

	due := f.clock.Add(72 * time.Hour)
	updated, err := f.svc.Update(ctx, late.ID, task.Patch{DueDate: &due}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, updated.Status)

	res, err := f.svc.List(ctx, task.ListQuery{Filter: task.Filter{Status: task.StatusPending}}, f.alice)
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, late.ID, res.Tasks[0].ID)

	// явный статус в патче не перетирается
	inProgress := task.StatusInProgress
	updated, err = f.svc.Update(ctx, kept.ID, task.Patch{DueDate: &due, Status: &inProgress}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, updated.Status)

	// срок, всё ещё лежащий в прошлом, просрочку не снимает
	stale := f.create(t, f.alice, "stale", nil)
	*f.clock = f.clock.Add(48 * time.Hour)
	_, err = f.store.MarkOverdue(ctx, *f.clock, 10)
	require.NoError(t, err)
	past := f.clock.Add(-time.Hour)
	updated, err = f.svc.Update(ctx, stale.ID, task.Patch{DueDate: &past}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, task.StatusOverdue, updated.Status)
}

// TestTaskService_CompleteRestamps тестирует повторное завершение с новым completed_at
func TestTaskService_CompleteRestamps(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	own := f.create(t, f.alice, "mine", nil)

	first, err := f.svc.Complete(ctx, own.ID, f.alice)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, first.Status)
	require.NotNil(t, first.CompletedAt)
	assert.Equal(t, *f.clock, *first.CompletedAt)

	*f.clock = f.clock.Add(time.Hour)
	second, err := f.svc.Complete(ctx, own.ID, f.alice)
	require.NoError(t, err)
	assert.True(t, second.CompletedAt.After(*first.CompletedAt))
}

func TestTaskService_Delete(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	own := f.create(t, f.alice, "mine", nil)

	require.NoError(t, f.svc.Delete(ctx, own.ID, f.alice))
	_, err := f.svc.Get(ctx, own.ID, f.admin)
	assert.True(t, service.HasCode(err, service.CodeNotFound))
}

// TestTaskService_StoreFailure тестирует проброс ошибок хранилища без бизнес-кода
func TestTaskService_StoreFailure(t *testing.T) {
	tasks := &MockTaskRepository{}
	users := &MockUserRepository{}
	tasks.On("GetTask", mock.Anything, int64(1)).Return(nil, errors.New("connection reset"))
	tasks.On("ListTasks", mock.Anything, mock.Anything).Return(nil, 0, errors.New("timeout"))

	svc := service.NewTaskService(tasks, users)
	actor := &user.Identity{ID: 1, Role: user.RoleUser, Active: true}

	_, err := svc.Get(context.Background(), 1, actor)
	require.Error(t, err)
	_, isBusiness := service.AsBusiness(err)
	assert.False(t, isBusiness)

	_, err = svc.List(context.Background(), task.ListQuery{}, actor)
	require.Error(t, err)
	tasks.AssertExpectations(t)
}

// TestTaskService_ListQueryNormalized тестирует, что в хранилище уходит нормализованный запрос
func TestTaskService_ListQueryNormalized(t *testing.T) {
	tasks := &MockTaskRepository{}
	svc := service.NewTaskService(tasks, &MockUserRepository{})
	actor := &user.Identity{ID: 5, Role: user.RoleUser, Active: true}

	tasks.On("ListTasks", mock.Anything, mock.MatchedBy(func(q task.ListQuery) bool {
		return q.Filter.AssignedTo != nil && *q.Filter.AssignedTo == 5 &&
			q.Filter.View == task.ViewAll &&
			q.Filter.Search == "milk" &&
			q.Sort == task.Sort{Column: task.SortDueDate, Order: task.OrderAsc} &&
			q.Page == task.Page{Number: 1, Limit: task.MaxLimit}
	})).Return([]*task.Task{}, 0, nil)

	res, err := svc.List(context.Background(), task.ListQuery{
		Filter: task.Filter{Search: "  milk ", View: "tomorrow"},
		Sort:   task.Sort{Column: "id; --", Order: "up"},
		Page:   task.Page{Number: -1, Limit: 5000},
	}, actor)
	require.NoError(t, err)
	assert.Empty(t, res.Tasks)
	assert.Equal(t, 0, res.Pagination.TotalPages)
	tasks.AssertExpectations(t)
}
