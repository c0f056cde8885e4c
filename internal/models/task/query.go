package task

import (
	"strings"
)

// View - именованный фильтр поверх явных фильтров
type View string

const ViewAll View = "all"
const ViewToday View = "today"
const ViewOverdue View = "overdue"
const ViewCompleted View = "completed"
const ViewPending View = "pending"

func ParseView(s string) View {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case ViewToday:
		return ViewToday
	case ViewOverdue:
		return ViewOverdue
	case ViewCompleted:
		return ViewCompleted
	case ViewPending:
		return ViewPending
	}
	return ViewAll
}

type SortColumn string

const SortDueDate SortColumn = "due_date"
const SortCreatedAt SortColumn = "created_at"
const SortPriority SortColumn = "priority"
const SortStatus SortColumn = "status"
const SortTitle SortColumn = "title"

// SortColumns - закрытый список колонок, по которым разрешена сортировка
var SortColumns = []SortColumn{SortDueDate, SortCreatedAt, SortPriority, SortStatus, SortTitle}

// ParseSortColumn никогда не возвращает ошибку: неизвестное значение -> due_date
func ParseSortColumn(s string) SortColumn {
	for _, c := range SortColumns {
		if string(c) == s {
			return c
		}
	}
	return SortDueDate
}

type SortOrder string

const OrderAsc SortOrder = "ASC"
const OrderDesc SortOrder = "DESC"

func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(OrderDesc)) {
		return OrderDesc
	}
	return OrderAsc
}

type Sort struct {
	Column SortColumn
	Order  SortOrder
}

func NewSort(column, order string) Sort {
	return Sort{
		Column: ParseSortColumn(column),
		Order:  ParseSortOrder(order),
	}
}

const DefaultPage = 1
const DefaultLimit = 10
const MaxLimit = 100

type Page struct {
	Number int
	Limit  int
}

func NewPage(number, limit int) Page {
	if number < 1 {
		number = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Number: number, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

func (p Page) TotalPages(total int) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// Filter - AssignedTo выставляет сервер, клиент его не контролирует
type Filter struct {
	AssignedTo *int64
	Search     string
	Status     Status
	Category   string
	Priority   Priority
	View       View
}

type ListQuery struct {
	Filter Filter
	Sort   Sort
	Page   Page
}

type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalTasks  int `json:"totalTasks"`
	Limit       int `json:"limit"`
}

type ListResult struct {
	Tasks      []*Task    `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

func NewListResult(tasks []*Task, total int, page Page) *ListResult {
	if tasks == nil {
		tasks = []*Task{}
	}
	return &ListResult{
		Tasks: tasks,
		Pagination: Pagination{
			CurrentPage: page.Number,
			TotalPages:  page.TotalPages(total),
			TotalTasks:  total,
			Limit:       page.Limit,
		},
	}
}
