package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/backend/domain"
)

var today = domain.NewDate(2024, time.June, 15)

func fixtures() []domain.Task {
	finished := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	return []domain.Task{
		{ID: "a", Text: "Buy Milk", Deadline: domain.NewDate(2024, time.June, 14), Status: domain.StatusPending},
		{ID: "b", Text: "Renew passport", Deadline: domain.NewDate(2024, time.July, 1), Status: domain.StatusPending},
		{ID: "c", Text: "Water plants", Deadline: domain.NewDate(2024, time.June, 15), Status: domain.StatusDone, FinishedAt: &finished},
		{ID: "d", Text: "File taxes", Deadline: domain.NewDate(2024, time.June, 15), Status: domain.StatusPending},
	}
}

func ids(groups []Group) [][]string {
	out := make([][]string, 0, len(groups))
	for _, g := range groups {
		row := make([]string, 0, len(g.Tasks))
		for _, t := range g.Tasks {
			row = append(row, t.ID)
		}
		out = append(out, row)
	}
	return out
}

func TestProjectDefaultGrouping(t *testing.T) {
	result := Project(fixtures(), Options{}, today)

	require.Len(t, result.Groups, 2)
	assert.Equal(t, "Pending Tasks", result.Groups[0].Label)
	assert.Equal(t, "Completed Tasks", result.Groups[1].Label)
	// deadline-asc inside each group, ties keep input order
	assert.Equal(t, [][]string{{"a", "d", "b"}, {"c"}}, ids(result.Groups))
	assert.Equal(t, 4, result.Total)
	assert.Empty(t, result.Message)
}

func TestProjectIsDeterministic(t *testing.T) {
	tasks := fixtures()
	opts := Options{Sort: SortStatus}

	first := Project(tasks, opts, today)
	second := Project(tasks, opts, today)

	assert.Equal(t, first, second)
	// input order must survive untouched
	assert.Equal(t, "a", tasks[0].ID)
}

func TestProjectSearchIsCaseInsensitive(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "lowercase query matches mixed case", query: "milk", want: []string{"a"}},
		{name: "uppercase query", query: "MILK", want: []string{"a"}},
		{name: "substring", query: "pass", want: []string{"b"}},
		{name: "query is trimmed", query: "  milk  ", want: []string{"a"}},
		{name: "empty query keeps everything", query: "", want: []string{"a", "d", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Project(fixtures(), Options{Search: tt.query}, today)
			var got []string
			for _, g := range result.Groups {
				for _, task := range g.Tasks {
					got = append(got, task.ID)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProjectStatusFilterRendersSingleGroup(t *testing.T) {
	result := Project(fixtures(), Options{Status: StatusDone}, today)

	require.Len(t, result.Groups, 1)
	assert.Equal(t, "Completed Tasks", result.Groups[0].Label)
	assert.Equal(t, [][]string{{"c"}}, ids(result.Groups))
	for _, task := range result.Groups[0].Tasks {
		assert.Equal(t, domain.StatusDone, task.Status)
	}
}

func TestProjectDeadlineFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter DeadlineFilter
		label  string
		want   []string
	}{
		{name: "overdue", filter: DeadlineOverdue, label: "Overdue Tasks", want: []string{"a"}},
		{name: "today", filter: DeadlineToday, label: "Today's Tasks", want: []string{"c", "d"}},
		{name: "future", filter: DeadlineFuture, label: "Future Tasks", want: []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Project(fixtures(), Options{Deadline: tt.filter}, today)
			require.Len(t, result.Groups, 1)
			assert.Equal(t, tt.label, result.Groups[0].Label)
			assert.Equal(t, [][]string{tt.want}, ids(result.Groups))
		})
	}
}

func TestProjectSortOptions(t *testing.T) {
	tests := []struct {
		name string
		sort SortOption
		want [][]string
	}{
		{name: "deadline ascending", sort: SortDeadlineAsc, want: [][]string{{"a", "d", "b"}, {"c"}}},
		{name: "deadline descending", sort: SortDeadlineDesc, want: [][]string{{"b", "d", "a"}, {"c"}}},
		{name: "status puts pending first", sort: SortStatus, want: [][]string{{"a", "b", "d"}, {"c"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Project(fixtures(), Options{Sort: tt.sort}, today)
			assert.Equal(t, tt.want, ids(result.Groups))
		})
	}
}

func TestProjectStatusSortIgnoresDeadline(t *testing.T) {
	finished := time.Now()
	tasks := []domain.Task{
		{ID: "late-done", Deadline: domain.NewDate(2024, time.June, 1), Status: domain.StatusDone, FinishedAt: &finished},
		{ID: "far-pending", Deadline: domain.NewDate(2025, time.January, 1), Status: domain.StatusPending},
		{ID: "near-done", Deadline: domain.NewDate(2024, time.June, 14), Status: domain.StatusDone, FinishedAt: &finished},
		{ID: "near-pending", Deadline: domain.NewDate(2024, time.June, 16), Status: domain.StatusPending},
	}

	result := Project(tasks, Options{Status: StatusAll, Sort: SortStatus, Deadline: DeadlineAll}, today)

	// single flattened check: every pending task comes before every done task
	var flat []domain.Status
	for _, g := range result.Groups {
		for _, task := range g.Tasks {
			flat = append(flat, task.Status)
		}
	}
	lastPending := -1
	firstDone := len(flat)
	for i, s := range flat {
		if s == domain.StatusPending && i > lastPending {
			lastPending = i
		}
		if s == domain.StatusDone && i < firstDone {
			firstDone = i
		}
	}
	assert.Less(t, lastPending, firstDone)
}

func TestProjectEmptyStates(t *testing.T) {
	t.Run("no tasks at all", func(t *testing.T) {
		result := Project(nil, Options{}, today)
		assert.Empty(t, result.Groups)
		assert.Zero(t, result.Total)
		assert.Equal(t, "No tasks yet. Create one to get started!", result.Message)
	})

	t.Run("no matches with active filter", func(t *testing.T) {
		result := Project(fixtures(), Options{Search: "no such task"}, today)
		assert.Empty(t, result.Groups)
		assert.Equal(t, "No tasks match your filters. Try adjusting your search or filters.", result.Message)
	})
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "defaults", opts: Options{}.Normalize()},
		{name: "explicit values", opts: Options{Status: StatusDone, Deadline: DeadlineToday, Sort: SortStatus}},
		{name: "bad status", opts: Options{Status: "archived", Deadline: DeadlineAll, Sort: SortStatus}, wantErr: true},
		{name: "bad deadline", opts: Options{Status: StatusAll, Deadline: "yesterday", Sort: SortStatus}, wantErr: true},
		{name: "bad sort", opts: Options{Status: StatusAll, Deadline: DeadlineAll, Sort: "priority"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
