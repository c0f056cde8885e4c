package dashboard

import (
	"math"
)

const WindowDays = 7
const TopUsersLimit = 5

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int64  `json:"count"`
}

type TopUser struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	TaskCount int64  `json:"task_count"`
}

// Snapshot - сырые счётчики из хранилища, без вычислений
type Snapshot struct {
	TotalTasks           int64
	TotalUsers           int64
	TasksLast7Days       int64
	TasksPrevious7Days   int64
	ActiveAssignees7Days int64
	StatusDistribution   []StatusCount
	CategoryDistribution []CategoryCount
	PriorityDistribution []PriorityCount
	TopUsers             []TopUser
}

type Comparison struct {
	Last7Days        int64   `json:"last7Days"`
	Previous7Days    int64   `json:"previous7Days"`
	PercentageChange float64 `json:"percentageChange"`
}

type Dashboard struct {
	TotalTasks           int64           `json:"totalTasks"`
	TotalUsers           int64           `json:"totalUsers"`
	AvgTasksPerUser      float64         `json:"avgTasksPerUser"`
	TaskDistribution     []StatusCount   `json:"taskDistribution"`
	CategoryDistribution []CategoryCount `json:"categoryDistribution"`
	PriorityDistribution []PriorityCount `json:"priorityDistribution"`
	TasksComparison      Comparison      `json:"tasksComparison"`
	TopUsers             []TopUser       `json:"topUsers"`
}

func Build(s *Snapshot) *Dashboard {
	return &Dashboard{
		TotalTasks:           s.TotalTasks,
		TotalUsers:           s.TotalUsers,
		AvgTasksPerUser:      AverageTasksPerUser(s.TasksLast7Days, s.ActiveAssignees7Days),
		TaskDistribution:     nonNil(s.StatusDistribution),
		CategoryDistribution: nonNil(s.CategoryDistribution),
		PriorityDistribution: nonNil(s.PriorityDistribution),
		TasksComparison: Comparison{
			Last7Days:        s.TasksLast7Days,
			Previous7Days:    s.TasksPrevious7Days,
			PercentageChange: PercentageChange(s.TasksLast7Days, s.TasksPrevious7Days),
		},
		TopUsers: nonNil(s.TopUsers),
	}
}

// AverageTasksPerUser возвращает 0, если в окне не было ни одного исполнителя
func AverageTasksPerUser(tasks, assignees int64) float64 {
	if assignees == 0 {
		return 0
	}
	return Round2(float64(tasks) / float64(assignees))
}

// PercentageChange возвращает 0, если в предыдущем окне задач не было
func PercentageChange(last, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	return Round2(float64(last-previous) / float64(previous) * 100)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
