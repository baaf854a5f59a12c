package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const taskItemColumns = `id, title, description, created_at, due_date, priority, status, is_completed,
	is_archived, task_list_id, assigned_user_id, board_id, dependency_task_item_id`

// ListTaskItems returns every task
func (s *Store) ListTaskItems(ctx context.Context, include Include) ([]TaskItem, error) {
	tasks := []TaskItem{}
	if err := s.db.SelectContext(ctx, &tasks, `SELECT `+taskItemColumns+` FROM task_items ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	if err := s.attachTaskRelations(ctx, tasks, include); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTaskItem returns a single task
func (s *Store) GetTaskItem(ctx context.Context, id int64, include Include) (*TaskItem, error) {
	t, err := getTaskItem(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	tasks := []TaskItem{*t}
	if err := s.attachTaskRelations(ctx, tasks, include); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// CreateTaskItem inserts a task. The task list must exist and belong to the task's board;
// a zero BoardID is taken from the list.
func (s *Store) CreateTaskItem(ctx context.Context, t *TaskItem) error {
	if err := normalizeTask(t); err != nil {
		return err
	}
	t.CreatedAt = time.Now().UTC()

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := resolveTaskBoard(ctx, tx, t); err != nil {
			return err
		}
		err := tx.QueryRowxContext(ctx, tx.Rebind(
			`INSERT INTO task_items (title, description, created_at, due_date, priority, status, is_completed,
				is_archived, task_list_id, assigned_user_id, board_id, dependency_task_item_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			t.Title, t.Description, t.CreatedAt, t.DueDate, t.Priority, t.Status, t.IsCompleted,
			t.IsArchived, t.TaskListID, t.AssignedUserID, t.BoardID, t.DependencyTaskItemID).Scan(&t.ID)
		if err != nil {
			return fmt.Errorf("failed to insert task: %w", translateError(err, ErrValidation))
		}
		return nil
	})
}

// UpdateTaskItem replaces every column of the task identified by id except its creation time.
// Concurrent updates are last-writer-wins.
func (s *Store) UpdateTaskItem(ctx context.Context, id int64, t *TaskItem) error {
	if t.ID != id {
		return fmt.Errorf("%w: task id %d does not match path id %d", ErrValidation, t.ID, id)
	}
	if err := normalizeTask(t); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := getTaskItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := resolveTaskBoard(ctx, tx, t); err != nil {
			return err
		}
		if t.DependencyTaskItemID != nil {
			if err := checkDependency(ctx, tx, id, *t.DependencyTaskItemID); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(
			`UPDATE task_items SET title = ?, description = ?, due_date = ?, priority = ?, status = ?,
				is_completed = ?, is_archived = ?, task_list_id = ?, assigned_user_id = ?, board_id = ?,
				dependency_task_item_id = ?
			WHERE id = ?`),
			t.Title, t.Description, t.DueDate, t.Priority, t.Status, t.IsCompleted, t.IsArchived,
			t.TaskListID, t.AssignedUserID, t.BoardID, t.DependencyTaskItemID, id)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", translateError(err, ErrValidation))
		}
		t.CreatedAt = current.CreatedAt
		return nil
	})
}

// DeleteTaskItem removes a task with its comments and label links.
// A task that another task depends on cannot be deleted.
func (s *Store) DeleteTaskItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM task_items WHERE id = ?`), id)
	if err != nil {
		err = translateError(err, ErrConflict)
		if errors.Is(err, ErrConflict) {
			return fmt.Errorf("%w: task %d is a dependency of another task", ErrConflict, id)
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// FilterTasks returns the tasks matching every criterion set in f
func (s *Store) FilterTasks(ctx context.Context, f TaskFilter) ([]TaskItem, error) {
	var (
		conds []string
		args  []any
	)

	switch f.Status {
	case "":
	case StatusFilterCompleted:
		conds = append(conds, "is_completed = ?")
		args = append(args, true)
	case StatusFilterPending:
		conds = append(conds, "is_completed = ?")
		args = append(args, false)
	default:
		return nil, fmt.Errorf("%w: unknown status filter %q", ErrValidation, f.Status)
	}
	if f.Priority > 0 {
		conds = append(conds, "priority = ?")
		args = append(args, f.Priority)
	}
	if f.DueBefore != nil {
		conds = append(conds, "due_date <= ?")
		args = append(args, f.DueBefore.UTC())
	}

	query := `SELECT ` + taskItemColumns + ` FROM task_items`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	tasks := []TaskItem{}
	if err := s.db.SelectContext(ctx, &tasks, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to filter tasks: %w", err)
	}
	return tasks, nil
}

// BulkSetCompletion sets the completion flag on every existing task among ids in one
// transaction and returns how many were updated. No matching task is ErrNotFound.
func (s *Store) BulkSetCompletion(ctx context.Context, ids []int64, isCompleted bool) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no tasks found", ErrNotFound)
	}

	var updated int
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := inClause(tx, `SELECT id FROM task_items WHERE id IN (?)`, ids)
		if err != nil {
			return err
		}
		var found []int64
		if err := tx.SelectContext(ctx, &found, query, args...); err != nil {
			return fmt.Errorf("failed to query tasks: %w", err)
		}
		if len(found) == 0 {
			return fmt.Errorf("%w: no tasks found", ErrNotFound)
		}

		query, args, err = inClause(tx, `UPDATE task_items SET is_completed = ? WHERE id IN (?)`, isCompleted, found)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update tasks: %w", err)
		}
		updated = len(found)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// SetDependency makes taskID depend on dependencyID. Self-dependencies and cycles are rejected.
func (s *Store) SetDependency(ctx context.Context, taskID, dependencyID int64) (*TaskItem, error) {
	var task *TaskItem
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		t, err := getTaskItem(ctx, tx, taskID)
		if err != nil {
			return fmt.Errorf("task: %w", err)
		}
		if _, err := getTaskItem(ctx, tx, dependencyID); err != nil {
			return fmt.Errorf("dependency: %w", err)
		}
		if err := checkDependency(ctx, tx, taskID, dependencyID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(
			`UPDATE task_items SET dependency_task_item_id = ? WHERE id = ?`), dependencyID, taskID)
		if err != nil {
			return fmt.Errorf("failed to set dependency: %w", translateError(err, ErrValidation))
		}
		t.DependencyTaskItemID = &dependencyID
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// OverdueTasks returns unfinished tasks whose due date is before now
func (s *Store) OverdueTasks(ctx context.Context, now time.Time) ([]TaskItem, error) {
	tasks := []TaskItem{}
	err := s.db.SelectContext(ctx, &tasks, s.db.Rebind(
		`SELECT `+taskItemColumns+` FROM task_items
		WHERE is_completed = ? AND due_date IS NOT NULL AND due_date < ? ORDER BY id`), false, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue tasks: %w", err)
	}
	return tasks, nil
}

// TasksByAssignedUser returns the tasks assigned to userID
func (s *Store) TasksByAssignedUser(ctx context.Context, userID string) ([]TaskItem, error) {
	tasks := []TaskItem{}
	err := s.db.SelectContext(ctx, &tasks, s.db.Rebind(
		`SELECT `+taskItemColumns+` FROM task_items WHERE assigned_user_id = ? ORDER BY id`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks for user: %w", err)
	}
	return tasks, nil
}

// TasksByList returns the tasks of one list, optionally narrowed to completed or pending
func (s *Store) TasksByList(ctx context.Context, listID int64, status string) ([]TaskItem, error) {
	if _, err := s.GetTaskList(ctx, listID, 0); err != nil {
		return nil, err
	}

	query := `SELECT ` + taskItemColumns + ` FROM task_items WHERE task_list_id = ?`
	args := []any{listID}
	switch status {
	case "":
	case StatusFilterCompleted:
		query += " AND is_completed = ?"
		args = append(args, true)
	case StatusFilterPending:
		query += " AND is_completed = ?"
		args = append(args, false)
	default:
		return nil, fmt.Errorf("%w: unknown status filter %q", ErrValidation, status)
	}

	tasks := []TaskItem{}
	if err := s.db.SelectContext(ctx, &tasks, s.db.Rebind(query+" ORDER BY id"), args...); err != nil {
		return nil, fmt.Errorf("failed to query tasks for list: %w", err)
	}
	return tasks, nil
}

// MoveTaskToList moves a task into another list. The task follows the list onto its board.
func (s *Store) MoveTaskToList(ctx context.Context, taskID, newListID int64) (*TaskItem, error) {
	var task *TaskItem
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		t, err := getTaskItem(ctx, tx, taskID)
		if err != nil {
			return fmt.Errorf("task: %w", err)
		}
		var boardID int64
		err = tx.GetContext(ctx, &boardID, tx.Rebind(`SELECT board_id FROM task_lists WHERE id = ?`), newListID)
		if err != nil {
			return fmt.Errorf("task list: %w", translateError(err, ErrValidation))
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(
			`UPDATE task_items SET task_list_id = ?, board_id = ? WHERE id = ?`), newListID, boardID, taskID)
		if err != nil {
			return fmt.Errorf("failed to move task: %w", translateError(err, ErrValidation))
		}
		t.TaskListID = newListID
		t.BoardID = boardID
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// SetTaskStatus changes the free-form workflow status of a task
func (s *Store) SetTaskStatus(ctx context.Context, taskID int64, status string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE task_items SET status = ? WHERE id = ?`), status, taskID)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func getTaskItem(ctx context.Context, q sqlx.ExtContext, id int64) (*TaskItem, error) {
	var t TaskItem
	err := sqlx.GetContext(ctx, q, &t, q.Rebind(`SELECT `+taskItemColumns+` FROM task_items WHERE id = ?`), id)
	if err != nil {
		return nil, translateError(err, ErrValidation)
	}
	return &t, nil
}

func normalizeTask(t *TaskItem) error {
	if t.Status == "" {
		t.Status = DefaultTaskStatus
	}
	if t.Priority == 0 {
		t.Priority = PriorityMedium
	}
	if t.Priority < PriorityHigh || t.Priority > PriorityLow {
		return fmt.Errorf("%w: priority must be 1 (high), 2 (medium) or 3 (low)", ErrValidation)
	}
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}
	return nil
}

// resolveTaskBoard checks that the task's list exists and sits on the task's board
func resolveTaskBoard(ctx context.Context, tx *sqlx.Tx, t *TaskItem) error {
	var boardID int64
	err := tx.GetContext(ctx, &boardID, tx.Rebind(`SELECT board_id FROM task_lists WHERE id = ?`), t.TaskListID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: task list %d does not exist", ErrValidation, t.TaskListID)
	}
	if err != nil {
		return fmt.Errorf("failed to query task list: %w", err)
	}

	if t.BoardID == 0 {
		t.BoardID = boardID
		return nil
	}
	if t.BoardID != boardID {
		return fmt.Errorf("%w: task list %d belongs to board %d, not %d", ErrValidation, t.TaskListID, boardID, t.BoardID)
	}
	return nil
}

// checkDependency walks the dependency chain starting at dependencyID and fails if it
// leads back to taskID
func checkDependency(ctx context.Context, tx *sqlx.Tx, taskID, dependencyID int64) error {
	if taskID == dependencyID {
		return fmt.Errorf("%w: a task cannot depend on itself", ErrValidation)
	}

	seen := map[int64]bool{dependencyID: true}
	current := dependencyID
	for {
		var next sql.NullInt64
		err := tx.GetContext(ctx, &next, tx.Rebind(
			`SELECT dependency_task_item_id FROM task_items WHERE id = ?`), current)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to walk dependencies: %w", err)
		}
		if !next.Valid || seen[next.Int64] {
			return nil
		}
		if next.Int64 == taskID {
			return fmt.Errorf("%w: dependency on task %d would create a cycle", ErrValidation, dependencyID)
		}
		seen[next.Int64] = true
		current = next.Int64
	}
}

func (s *Store) attachTaskRelations(ctx context.Context, tasks []TaskItem, include Include) error {
	if len(tasks) == 0 || !(include.Has(IncludeLabels) || include.Has(IncludeComments)) {
		return nil
	}
	ids := make([]int64, len(tasks))
	index := make(map[int64]int, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
		index[tasks[i].ID] = i
	}

	if include.Has(IncludeLabels) {
		query, args, err := inClause(s.db,
			`SELECT tl.task_item_id, l.id, l.name, l.board_id FROM task_labels tl
			JOIN labels l ON l.id = tl.label_id
			WHERE tl.task_item_id IN (?) ORDER BY l.id`, ids)
		if err != nil {
			return err
		}
		var rows []struct {
			TaskItemID int64 `db:"task_item_id"`
			Label
		}
		if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return fmt.Errorf("failed to load task labels: %w", err)
		}
		for i := range tasks {
			tasks[i].Labels = []Label{}
		}
		for _, r := range rows {
			i := index[r.TaskItemID]
			tasks[i].Labels = append(tasks[i].Labels, r.Label)
		}
	}

	if include.Has(IncludeComments) {
		query, args, err := inClause(s.db, `SELECT `+commentColumns+` FROM comments WHERE task_item_id IN (?) ORDER BY id`, ids)
		if err != nil {
			return err
		}
		var comments []Comment
		if err := s.db.SelectContext(ctx, &comments, query, args...); err != nil {
			return fmt.Errorf("failed to load task comments: %w", err)
		}
		for i := range tasks {
			tasks[i].Comments = []Comment{}
		}
		for _, c := range comments {
			i := index[c.TaskItemID]
			tasks[i].Comments = append(tasks[i].Comments, c)
		}
	}
	return nil
}
