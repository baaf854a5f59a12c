package database

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
)

const taskListColumns = `id, name, board_id`

// ListTaskLists returns every task list
func (s *Store) ListTaskLists(ctx context.Context, include Include) ([]TaskList, error) {
	lists := []TaskList{}
	if err := s.db.SelectContext(ctx, &lists, `SELECT `+taskListColumns+` FROM task_lists ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to query task lists: %w", err)
	}
	if include.Has(IncludeTasks) {
		if err := s.attachTasks(ctx, lists); err != nil {
			return nil, err
		}
	}
	return lists, nil
}

// GetTaskList returns a single task list
func (s *Store) GetTaskList(ctx context.Context, id int64, include Include) (*TaskList, error) {
	var l TaskList
	err := s.db.GetContext(ctx, &l, s.db.Rebind(`SELECT `+taskListColumns+` FROM task_lists WHERE id = ?`), id)
	if err != nil {
		return nil, translateError(err, ErrValidation)
	}
	if include.Has(IncludeTasks) {
		lists := []TaskList{l}
		if err := s.attachTasks(ctx, lists); err != nil {
			return nil, err
		}
		l = lists[0]
	}
	return &l, nil
}

// CreateTaskList inserts a list into an existing board
func (s *Store) CreateTaskList(ctx context.Context, l *TaskList) error {
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(
		`INSERT INTO task_lists (name, board_id) VALUES (?, ?) RETURNING id`),
		l.Name, l.BoardID).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("failed to insert task list: %w", translateError(err, ErrValidation))
	}
	return nil
}

// UpdateTaskList replaces every column of the list identified by id. Tasks in the list
// follow it when it moves to another board.
func (s *Store) UpdateTaskList(ctx context.Context, id int64, l *TaskList) error {
	if l.ID != id {
		return fmt.Errorf("%w: task list id %d does not match path id %d", ErrValidation, l.ID, id)
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(
			`UPDATE task_lists SET name = ?, board_id = ? WHERE id = ?`), l.Name, l.BoardID, id)
		if err != nil {
			return fmt.Errorf("failed to update task list: %w", translateError(err, ErrValidation))
		}
		if err := rowsAffectedOrNotFound(res); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(
			`UPDATE task_items SET board_id = ? WHERE task_list_id = ?`), l.BoardID, id)
		if err != nil {
			return fmt.Errorf("failed to move tasks with their list: %w", err)
		}
		return nil
	})
}

// DeleteTaskList removes a list and the tasks it holds
func (s *Store) DeleteTaskList(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM task_lists WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete task list: %w", translateError(err, ErrConflict))
	}
	return rowsAffectedOrNotFound(res)
}

// TaskCountPerList counts tasks in every list, including empty ones
func (s *Store) TaskCountPerList(ctx context.Context) ([]ListTaskCount, error) {
	counts := []ListTaskCount{}
	err := s.db.SelectContext(ctx, &counts,
		`SELECT l.id, l.name, COUNT(t.id) AS task_count
		FROM task_lists l LEFT JOIN task_items t ON t.task_list_id = l.id
		GROUP BY l.id, l.name ORDER BY l.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks per list: %w", err)
	}
	return counts, nil
}

// CompletionRatio reports the share of completed tasks in a list
func (s *Store) CompletionRatio(ctx context.Context, listID int64) (*CompletionRatio, error) {
	if _, err := s.GetTaskList(ctx, listID, 0); err != nil {
		return nil, err
	}

	var row struct {
		Total     int `db:"total"`
		Completed int `db:"completed"`
	}
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_completed THEN 1 ELSE 0 END), 0) AS completed
		FROM task_items WHERE task_list_id = ?`), listID)
	if err != nil {
		return nil, fmt.Errorf("failed to count list completion: %w", err)
	}

	result := &CompletionRatio{ListID: listID, Total: row.Total, Completed: row.Completed}
	if row.Total == 0 {
		result.Formatted = NoTasksRatio
		return result, nil
	}
	ratio := float64(row.Completed) / float64(row.Total)
	result.Ratio = &ratio
	result.Formatted = strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
	return result, nil
}

func (s *Store) attachTasks(ctx context.Context, lists []TaskList) error {
	if len(lists) == 0 {
		return nil
	}
	ids := make([]int64, len(lists))
	index := make(map[int64]int, len(lists))
	for i := range lists {
		ids[i] = lists[i].ID
		index[lists[i].ID] = i
		lists[i].Tasks = []TaskItem{}
	}

	query, args, err := inClause(s.db, `SELECT `+taskItemColumns+` FROM task_items WHERE task_list_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	var tasks []TaskItem
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	for _, t := range tasks {
		i := index[t.TaskListID]
		lists[i].Tasks = append(lists[i].Tasks, t)
	}
	return nil
}
