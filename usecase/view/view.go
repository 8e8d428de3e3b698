// Package view derives the task list shown to the user: a pure,
// deterministic pipeline of search, status and deadline filters, a stable
// sort, and presentation grouping. It never mutates its input and is safe
// to recompute on every change.
package view

import (
	"sort"
	"strings"

	"github.com/taskloop/backend/domain"
)

// StatusFilter narrows the list to one lifecycle state.
type StatusFilter string

const (
	StatusAll     StatusFilter = "all"
	StatusPending StatusFilter = "pending"
	StatusDone    StatusFilter = "done"
)

// DeadlineFilter narrows the list to one deadline category.
type DeadlineFilter string

const (
	DeadlineAll     DeadlineFilter = "all"
	DeadlineOverdue DeadlineFilter = "overdue"
	DeadlineToday   DeadlineFilter = "today"
	DeadlineFuture  DeadlineFilter = "future"
)

// SortOption picks the ordering of the projected list.
type SortOption string

const (
	SortDeadlineAsc  SortOption = "deadline-asc"
	SortDeadlineDesc SortOption = "deadline-desc"
	SortStatus       SortOption = "status"
)

// Options is the ephemeral view state. It is never persisted; callers pass
// it fresh on every projection.
type Options struct {
	Search   string
	Status   StatusFilter
	Deadline DeadlineFilter
	Sort     SortOption
}

// Normalize fills zero values with the defaults the UI starts from.
func (o Options) Normalize() Options {
	if o.Status == "" {
		o.Status = StatusAll
	}
	if o.Deadline == "" {
		o.Deadline = DeadlineAll
	}
	if o.Sort == "" {
		o.Sort = SortDeadlineAsc
	}
	return o
}

// Validate rejects unknown filter or sort values.
func (o Options) Validate() error {
	switch o.Status {
	case StatusAll, StatusPending, StatusDone:
	default:
		return domain.ValidationError("unknown status filter: " + string(o.Status))
	}
	switch o.Deadline {
	case DeadlineAll, DeadlineOverdue, DeadlineToday, DeadlineFuture:
	default:
		return domain.ValidationError("unknown deadline filter: " + string(o.Deadline))
	}
	switch o.Sort {
	case SortDeadlineAsc, SortDeadlineDesc, SortStatus:
	default:
		return domain.ValidationError("unknown sort option: " + string(o.Sort))
	}
	return nil
}

// Active reports whether any filter or search narrows the list.
func (o Options) Active() bool {
	return strings.TrimSpace(o.Search) != "" || o.Status != StatusAll || o.Deadline != DeadlineAll
}

// Group is one labeled section of the rendered list.
type Group struct {
	Label string        `json:"label"`
	Tasks []domain.Task `json:"tasks"`
}

// Result is the grouped presentation list. When no task survives the
// pipeline, Message distinguishes an empty account from an empty match.
type Result struct {
	Groups  []Group `json:"groups"`
	Total   int     `json:"total"`
	Message string  `json:"message,omitempty"`
}

const (
	msgNoTasks   = "No tasks yet. Create one to get started!"
	msgNoMatches = "No tasks match your filters. Try adjusting your search or filters."
)

// Project applies the full pipeline to the given tasks. The reference date
// decides deadline categories and is evaluated by the caller at projection
// time, so day boundaries are picked up on the next recompute.
func Project(tasks []domain.Task, opts Options, today domain.Date) Result {
	opts = opts.Normalize()

	filtered := make([]domain.Task, 0, len(tasks))
	query := strings.ToLower(strings.TrimSpace(opts.Search))
	for _, t := range tasks {
		if query != "" && !strings.Contains(strings.ToLower(t.Text), query) {
			continue
		}
		if opts.Status != StatusAll && string(t.Status) != string(opts.Status) {
			continue
		}
		if opts.Deadline != DeadlineAll && string(t.Categorize(today)) != string(opts.Deadline) {
			continue
		}
		filtered = append(filtered, t)
	}

	sortTasks(filtered, opts.Sort)

	if len(filtered) == 0 {
		message := msgNoTasks
		if opts.Active() {
			message = msgNoMatches
		}
		return Result{Groups: []Group{}, Message: message}
	}

	return Result{
		Groups: group(filtered, opts),
		Total:  len(filtered),
	}
}

// sortTasks orders in place. The sort is stable: tasks with equal keys keep
// their filtered-list order.
func sortTasks(tasks []domain.Task, option SortOption) {
	switch option {
	case SortDeadlineDesc:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Deadline.After(tasks[j].Deadline)
		})
	case SortStatus:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Status == domain.StatusPending && tasks[j].Status != domain.StatusPending
		})
	default:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Deadline.Before(tasks[j].Deadline)
		})
	}
}

// group applies the presentation policy: a single labeled list when a
// status or deadline filter is active, otherwise pending before completed.
func group(tasks []domain.Task, opts Options) []Group {
	if opts.Status != StatusAll {
		return []Group{{Label: statusLabel(opts.Status), Tasks: tasks}}
	}
	if opts.Deadline != DeadlineAll {
		return []Group{{Label: deadlineLabel(opts.Deadline), Tasks: tasks}}
	}

	pending := make([]domain.Task, 0, len(tasks))
	done := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == domain.StatusDone {
			done = append(done, t)
		} else {
			pending = append(pending, t)
		}
	}

	groups := make([]Group, 0, 2)
	if len(pending) > 0 {
		groups = append(groups, Group{Label: "Pending Tasks", Tasks: pending})
	}
	if len(done) > 0 {
		groups = append(groups, Group{Label: "Completed Tasks", Tasks: done})
	}
	return groups
}

func statusLabel(filter StatusFilter) string {
	if filter == StatusDone {
		return "Completed Tasks"
	}
	return "Pending Tasks"
}

func deadlineLabel(filter DeadlineFilter) string {
	switch filter {
	case DeadlineOverdue:
		return "Overdue Tasks"
	case DeadlineToday:
		return "Today's Tasks"
	default:
		return "Future Tasks"
	}
}
