// Package policy собирает в одном месте правила доступа к задачам:
// админ видит и меняет всё, остальные - только назначенные на себя задачи.
package policy

import (
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
)

type Action string

const ActionView Action = "view"
const ActionUpdate Action = "update"
const ActionDelete Action = "delete"
const ActionComplete Action = "complete"

// Can решает (actor, task, action) -> allow/deny
func Can(actor *user.Identity, t *task.Task, action Action) bool {
	if actor == nil || t == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	switch action {
	case ActionView, ActionUpdate, ActionDelete, ActionComplete:
		return t.AssignedTo == actor.ID
	}
	return false
}

// CanAssign - назначать задачу на другого пользователя может только админ
func CanAssign(actor *user.Identity, assigneeID int64) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || assigneeID == actor.ID
}

// Scope возвращает фильтр видимости для списка задач: nil - без ограничений
func Scope(actor *user.Identity) *int64 {
	if actor == nil || actor.IsAdmin() {
		return nil
	}
	id := actor.ID
	return &id
}
