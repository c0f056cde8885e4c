package postgres

import (
	"fmt"
	"strings"
	"taskManager/internal/models/task"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var taskColumns = []string{
	"t.id",
	"t.title",
	"t.description",
	"t.due_date",
	"t.category",
	"t.status",
	"t.priority",
	"t.created_by",
	"t.assigned_to",
	"t.completed_at",
	"t.created_at",
	"COALESCE(u1.name, '')",
	"COALESCE(u2.name, '')",
}

func selectTasks() sq.SelectBuilder {
	return psql.Select(taskColumns...).
		From("tasks t").
		LeftJoin("users u1 ON t.created_by = u1.id").
		LeftJoin("users u2 ON t.assigned_to = u2.id")
}

// filterPredicates переводит фильтр в условия WHERE; значения идут только аргументами
func filterPredicates(f task.Filter) sq.And {
	where := sq.And{}

	if f.AssignedTo != nil {
		where = append(where, sq.Eq{"t.assigned_to": *f.AssignedTo})
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		where = append(where, sq.Or{
			sq.ILike{"t.title": pattern},
			sq.ILike{"t.description": pattern},
		})
	}
	if f.Status != "" {
		where = append(where, sq.Eq{"t.status": f.Status})
	}
	if f.Category != "" {
		where = append(where, sq.Eq{"t.category": f.Category})
	}
	if f.Priority != "" {
		where = append(where, sq.Eq{"t.priority": f.Priority})
	}

	switch f.View {
	case task.ViewToday:
		where = append(where,
			sq.Expr("DATE(t.due_date) = CURRENT_DATE"),
			sq.NotEq{"t.status": task.StatusCompleted},
		)
	case task.ViewOverdue:
		where = append(where,
			sq.Expr("t.due_date < NOW()"),
			sq.NotEq{"t.status": task.StatusCompleted},
		)
	case task.ViewCompleted:
		where = append(where, sq.Eq{"t.status": task.StatusCompleted})
	case task.ViewPending:
		where = append(where, sq.NotEq{"t.status": task.StatusCompleted})
	}

	return where
}

func listTasksQuery(q task.ListQuery) sq.SelectBuilder {
	sort := task.Sort{
		Column: task.ParseSortColumn(string(q.Sort.Column)),
		Order:  task.ParseSortOrder(string(q.Sort.Order)),
	}
	page := task.NewPage(q.Page.Number, q.Page.Limit)

	return withFilter(selectTasks(), q.Filter).
		OrderBy(fmt.Sprintf("t.%s %s", sort.Column, sort.Order), "t.id ASC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset()))
}

func countTasksQuery(f task.Filter) sq.SelectBuilder {
	return withFilter(psql.Select("COUNT(*)").From("tasks t"), f)
}

func withFilter(b sq.SelectBuilder, f task.Filter) sq.SelectBuilder {
	if where := filterPredicates(f); len(where) > 0 {
		return b.Where(where)
	}
	return b
}

func patchClauses(p task.Patch) map[string]interface{} {
	set := map[string]interface{}{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.DueDate != nil {
		set["due_date"] = *p.DueDate
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
	}
	if p.AssignedTo != nil {
		set["assigned_to"] = *p.AssignedTo
	}
	if p.CompletedAt != nil {
		set["completed_at"] = *p.CompletedAt
	}
	return set
}

// markOverdueQuery берёт пачку просроченных задач под блокировку, чтобы несколько инстансов не дрались за строки
func markOverdueQuery(now time.Time, limit int) sq.UpdateBuilder {
	due := sq.Select("id").
		From("tasks").
		Where(sq.Eq{"status": []task.Status{task.StatusPending, task.StatusInProgress}}).
		Where(sq.Lt{"due_date": now}).
		OrderBy("due_date ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED")

	return psql.Update("tasks").
		Set("status", task.StatusOverdue).
		Where(sq.Expr("id IN (?)", due))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
