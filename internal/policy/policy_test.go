package policy_test

import (
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"taskManager/internal/policy"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCan(t *testing.T) {
	admin := &user.Identity{ID: 1, Role: user.RoleAdmin}
	owner := &user.Identity{ID: 2, Role: user.RoleUser}
	stranger := &user.Identity{ID: 3, Role: user.RoleUser}
	tsk := &task.Task{ID: 10, CreatedBy: 3, AssignedTo: 2}

	actions := []policy.Action{policy.ActionView, policy.ActionUpdate, policy.ActionDelete, policy.ActionComplete}
	for _, action := range actions {
		t.Run(string(action), func(t *testing.T) {
			assert.True(t, policy.Can(admin, tsk, action))
			assert.True(t, policy.Can(owner, tsk, action))
			// автор задачи без назначения её не видит
			assert.False(t, policy.Can(stranger, tsk, action))
			assert.False(t, policy.Can(nil, tsk, action))
			assert.False(t, policy.Can(owner, nil, action))
		})
	}

	assert.False(t, policy.Can(owner, tsk, policy.Action("archive")))
}

func TestCanAssign(t *testing.T) {
	admin := &user.Identity{ID: 1, Role: user.RoleAdmin}
	regular := &user.Identity{ID: 2, Role: user.RoleUser}

	assert.True(t, policy.CanAssign(admin, 99))
	assert.True(t, policy.CanAssign(regular, 2))
	assert.False(t, policy.CanAssign(regular, 99))
	assert.False(t, policy.CanAssign(nil, 2))
}

func TestScope(t *testing.T) {
	assert.Nil(t, policy.Scope(&user.Identity{ID: 1, Role: user.RoleAdmin}))

	scope := policy.Scope(&user.Identity{ID: 5, Role: user.RoleUser})
	require.NotNil(t, scope)
	assert.Equal(t, int64(5), *scope)
}
