package inmemory

import (
	"context"
	"sort"
	"taskManager/internal/models/dashboard"
	"time"
)

func (s *Storage) DashboardSnapshot(ctx context.Context, now time.Time) (*dashboard.Snapshot, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	window := time.Duration(dashboard.WindowDays) * 24 * time.Hour
	last := now.Add(-window)
	previous := now.Add(-2 * window)

	snap := &dashboard.Snapshot{
		TotalTasks: int64(len(s.tasks)),
		TotalUsers: int64(len(s.users)),
	}

	statuses := map[string]int64{}
	categories := map[string]int64{}
	priorities := map[string]int64{}
	assignees := map[int64]struct{}{}
	perUser := map[int64]int64{}

	for _, t := range s.tasks {
		statuses[string(t.Status)]++
		categories[t.Category]++
		priorities[string(t.Priority)]++
		perUser[t.AssignedTo]++

		switch {
		case !t.CreatedAt.Before(last):
			snap.TasksLast7Days++
			assignees[t.AssignedTo] = struct{}{}
		case !t.CreatedAt.Before(previous):
			snap.TasksPrevious7Days++
		}
	}
	snap.ActiveAssignees7Days = int64(len(assignees))

	for _, c := range sortedCounts(statuses) {
		snap.StatusDistribution = append(snap.StatusDistribution, dashboard.StatusCount{Status: c.key, Count: c.count})
	}
	for _, c := range sortedCounts(categories) {
		snap.CategoryDistribution = append(snap.CategoryDistribution, dashboard.CategoryCount{Category: c.key, Count: c.count})
	}
	for _, c := range sortedCounts(priorities) {
		snap.PriorityDistribution = append(snap.PriorityDistribution, dashboard.PriorityCount{Priority: c.key, Count: c.count})
	}

	top := make([]dashboard.TopUser, 0, len(s.users))
	for _, u := range s.users {
		top = append(top, dashboard.TopUser{ID: u.ID, Name: u.Name, Email: u.Email, TaskCount: perUser[u.ID]})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].TaskCount != top[j].TaskCount {
			return top[i].TaskCount > top[j].TaskCount
		}
		return top[i].ID < top[j].ID
	})
	if len(top) > dashboard.TopUsersLimit {
		top = top[:dashboard.TopUsersLimit]
	}
	snap.TopUsers = top

	return snap, nil
}

type keyCount struct {
	key   string
	count int64
}

func sortedCounts(m map[string]int64) []keyCount {
	counts := make([]keyCount, 0, len(m))
	for k, v := range m {
		counts = append(counts, keyCount{key: k, count: v})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].key < counts[j].key
	})
	return counts
}
