package database

import "time"

// Task priority codes
const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

// DefaultTaskStatus is the workflow status given to tasks created without one
const DefaultTaskStatus = "To Do"

// Completion filters understood by FilterTasks and TasksByList
const (
	StatusFilterCompleted = "completed"
	StatusFilterPending   = "pending"
)

// NoTasksRatio is the completion ratio reported for a list without tasks
const NoTasksRatio = "N/A (No Tasks)"

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type Board struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description,omitempty"`
	TaskLists   []TaskList `db:"-" json:"taskLists,omitempty"`
}

type TaskList struct {
	ID      int64      `db:"id" json:"id"`
	Name    string     `db:"name" json:"name"`
	BoardID int64      `db:"board_id" json:"boardId"`
	Tasks   []TaskItem `db:"-" json:"tasks,omitempty"`
}

type TaskItem struct {
	ID                   int64      `db:"id" json:"id"`
	Title                string     `db:"title" json:"title"`
	Description          *string    `db:"description" json:"description,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
	DueDate              *time.Time `db:"due_date" json:"dueDate,omitempty"`
	Priority             int        `db:"priority" json:"priority"`
	Status               string     `db:"status" json:"status"`
	IsCompleted          bool       `db:"is_completed" json:"isCompleted"`
	IsArchived           bool       `db:"is_archived" json:"isArchived"`
	TaskListID           int64      `db:"task_list_id" json:"taskListId"`
	AssignedUserID       *string    `db:"assigned_user_id" json:"assignedUserId,omitempty"`
	BoardID              int64      `db:"board_id" json:"boardId"`
	DependencyTaskItemID *int64     `db:"dependency_task_item_id" json:"dependencyTaskItemId,omitempty"`
	Labels               []Label    `db:"-" json:"labels,omitempty"`
	Comments             []Comment  `db:"-" json:"comments,omitempty"`
}

type Label struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	BoardID int64  `db:"board_id" json:"boardId"`
}

type Comment struct {
	ID         int64     `db:"id" json:"id"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UserID     string    `db:"user_id" json:"userId"`
	TaskItemID int64     `db:"task_item_id" json:"taskItemId"`
}

// LabelUsage is one row of the most-used labels ranking
type LabelUsage struct {
	LabelID    int64  `db:"label_id" json:"labelId"`
	UsageCount int    `db:"usage_count" json:"usageCount"`
	Label      *Label `db:"-" json:"label"`
}

// ListTaskCount is the number of tasks held by one list
type ListTaskCount struct {
	ListID    int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	TaskCount int    `db:"task_count" json:"taskCount"`
}

// CompletionRatio reports how much of a list is done.
// Ratio is nil when the list has no tasks and Formatted then holds NoTasksRatio.
type CompletionRatio struct {
	ListID    int64    `json:"listId"`
	Total     int      `json:"total"`
	Completed int      `json:"completed"`
	Ratio     *float64 `json:"ratio"`
	Formatted string   `json:"completionRatio"`
}

// TaskFilter narrows FilterTasks; zero values disable a criterion
type TaskFilter struct {
	Status    string
	Priority  int
	DueBefore *time.Time
}

// Include selects related collections to load alongside the primary rows
type Include uint8

const (
	IncludeTaskLists Include = 1 << iota
	IncludeTasks
	IncludeLabels
	IncludeComments
)

// Has reports whether flag is part of the set
func (i Include) Has(flag Include) bool {
	return i&flag != 0
}
