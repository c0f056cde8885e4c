package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"
)

func (s *Storage) CreateTask(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.users[t.CreatedBy]; !ok {
		return fmt.Errorf("добавление задачи: автор: %w", repo.ErrNotFound)
	}
	if _, ok := s.users[t.AssignedTo]; !ok {
		return fmt.Errorf("добавление задачи: исполнитель: %w", repo.ErrNotFound)
	}

	s.nextTaskID++
	t.ID = s.nextTaskID
	t.CreatedAt = s.now()

	s.tasks[t.ID] = copyTask(t)
	return nil
}

func (s *Storage) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("получение задачи %d: %w", id, repo.ErrNotFound)
	}
	return s.withNames(t), nil
}

// withNames вызывается под блокировкой
func (s *Storage) withNames(t *task.Task) *task.Task {
	c := copyTask(t)
	if u, ok := s.users[c.CreatedBy]; ok {
		c.CreatedByName = u.Name
	}
	if u, ok := s.users[c.AssignedTo]; ok {
		c.AssignedToName = u.Name
	}
	return c
}

func (s *Storage) ListTasks(ctx context.Context, q task.ListQuery) ([]*task.Task, int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	now := s.now()
	matched := []*task.Task{}
	for _, t := range s.tasks {
		if matches(t, q.Filter, now) {
			matched = append(matched, t)
		}
	}

	sortTasks(matched, task.Sort{
		Column: task.ParseSortColumn(string(q.Sort.Column)),
		Order:  task.ParseSortOrder(string(q.Sort.Order)),
	})

	total := len(matched)
	page := task.NewPage(q.Page.Number, q.Page.Limit)
	from := page.Offset()
	if from > total {
		from = total
	}
	to := from + page.Limit
	if to > total {
		to = total
	}

	res := make([]*task.Task, 0, to-from)
	for _, t := range matched[from:to] {
		res = append(res, s.withNames(t))
	}
	return res, total, nil
}

func matches(t *task.Task, f task.Filter, now time.Time) bool {
	if f.AssignedTo != nil && t.AssignedTo != *f.AssignedTo {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}

	completed := t.Status == task.StatusCompleted
	switch f.View {
	case task.ViewToday:
		return !completed && sameDay(t.DueDate, now)
	case task.ViewOverdue:
		return !completed && t.DueDate.Before(now)
	case task.ViewCompleted:
		return completed
	case task.ViewPending:
		return !completed
	}
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sortTasks(tasks []*task.Task, by task.Sort) {
	less := func(a, b *task.Task) int {
		switch by.Column {
		case task.SortCreatedAt:
			return a.CreatedAt.Compare(b.CreatedAt)
		case task.SortPriority:
			return strings.Compare(string(a.Priority), string(b.Priority))
		case task.SortStatus:
			return strings.Compare(string(a.Status), string(b.Status))
		case task.SortTitle:
			return strings.Compare(a.Title, b.Title)
		}
		return a.DueDate.Compare(b.DueDate)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		c := less(tasks[i], tasks[j])
		if by.Order == task.OrderDesc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return tasks[i].ID < tasks[j].ID
	})
}

func (s *Storage) UpdateTask(ctx context.Context, id int64, patch task.Patch) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("обновление задачи %d: %w", id, repo.ErrNotFound)
	}
	if patch.AssignedTo != nil {
		if _, ok := s.users[*patch.AssignedTo]; !ok {
			return nil, fmt.Errorf("обновление задачи %d: исполнитель: %w", id, repo.ErrNotFound)
		}
	}

	updated := copyTask(t)
	patch.Apply(updated)
	s.tasks[id] = updated
	return s.withNames(updated), nil
}

func (s *Storage) DeleteTask(ctx context.Context, id int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("удаление задачи %d: %w", id, repo.ErrNotFound)
	}
	delete(s.tasks, id)
	return nil
}

func (s *Storage) MarkOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	due := []*task.Task{}
	for _, t := range s.tasks {
		if (t.Status == task.StatusPending || t.Status == task.StatusInProgress) && t.DueDate.Before(now) {
			due = append(due, t)
		}
	}
	sortTasks(due, task.Sort{Column: task.SortDueDate, Order: task.OrderAsc})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	for _, t := range due {
		t.Status = task.StatusOverdue
	}
	return int64(len(due)), nil
}
