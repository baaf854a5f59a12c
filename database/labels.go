package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const labelColumns = `id, name, board_id`

// ListLabels returns every label
func (s *Store) ListLabels(ctx context.Context) ([]Label, error) {
	labels := []Label{}
	if err := s.db.SelectContext(ctx, &labels, `SELECT `+labelColumns+` FROM labels ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	return labels, nil
}

// GetLabel returns a single label
func (s *Store) GetLabel(ctx context.Context, id int64) (*Label, error) {
	var l Label
	err := s.db.GetContext(ctx, &l, s.db.Rebind(`SELECT `+labelColumns+` FROM labels WHERE id = ?`), id)
	if err != nil {
		return nil, translateError(err, ErrValidation)
	}
	return &l, nil
}

// CreateLabel inserts a label scoped to an existing board
func (s *Store) CreateLabel(ctx context.Context, l *Label) error {
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(
		`INSERT INTO labels (name, board_id) VALUES (?, ?) RETURNING id`), l.Name, l.BoardID).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("failed to insert label: %w", translateError(err, ErrValidation))
	}
	return nil
}

// UpdateLabel replaces every column of the label identified by id
func (s *Store) UpdateLabel(ctx context.Context, id int64, l *Label) error {
	if l.ID != id {
		return fmt.Errorf("%w: label id %d does not match path id %d", ErrValidation, l.ID, id)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE labels SET name = ?, board_id = ? WHERE id = ?`), l.Name, l.BoardID, id)
	if err != nil {
		return fmt.Errorf("failed to update label: %w", translateError(err, ErrValidation))
	}
	return rowsAffectedOrNotFound(res)
}

// DeleteLabel removes a label and detaches it from every task
func (s *Store) DeleteLabel(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM labels WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete label: %w", translateError(err, ErrConflict))
	}
	return rowsAffectedOrNotFound(res)
}

// LabelsByBoard returns the labels defined on a board
func (s *Store) LabelsByBoard(ctx context.Context, boardID int64) ([]Label, error) {
	labels := []Label{}
	err := s.db.SelectContext(ctx, &labels, s.db.Rebind(
		`SELECT `+labelColumns+` FROM labels WHERE board_id = ? ORDER BY id`), boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels for board: %w", err)
	}
	return labels, nil
}

// LabelsByTask returns the labels attached to a task
func (s *Store) LabelsByTask(ctx context.Context, taskID int64) ([]Label, error) {
	labels := []Label{}
	err := s.db.SelectContext(ctx, &labels, s.db.Rebind(
		`SELECT l.id, l.name, l.board_id FROM labels l
		JOIN task_labels tl ON tl.label_id = l.id
		WHERE tl.task_item_id = ? ORDER BY l.id`), taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels for task: %w", err)
	}
	return labels, nil
}

// AssignLabelToTask tags a task with a label. Tagging an already tagged task is a no-op.
func (s *Store) AssignLabelToTask(ctx context.Context, labelID, taskID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := getTaskItem(ctx, tx, taskID); err != nil {
			return fmt.Errorf("task: %w", err)
		}
		var exists int
		err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM labels WHERE id = ?`), labelID)
		if err != nil {
			return fmt.Errorf("failed to query label: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("label: %w", ErrNotFound)
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO task_labels (task_item_id, label_id) VALUES (?, ?)
			ON CONFLICT (task_item_id, label_id) DO NOTHING`), taskID, labelID)
		if err != nil {
			return fmt.Errorf("failed to assign label: %w", translateError(err, ErrNotFound))
		}
		return nil
	})
}

// UnassignLabelFromTask removes a label from a task
func (s *Store) UnassignLabelFromTask(ctx context.Context, labelID, taskID int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`DELETE FROM task_labels WHERE task_item_id = ? AND label_id = ?`), taskID, labelID)
	if err != nil {
		return fmt.Errorf("failed to unassign label: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// MostUsedLabels ranks labels by how many tasks carry them. Ties go to the lower label id.
func (s *Store) MostUsedLabels(ctx context.Context, top int) ([]LabelUsage, error) {
	if top <= 0 {
		return nil, fmt.Errorf("%w: top must be positive", ErrValidation)
	}

	var rows []struct {
		LabelUsage
		Name    string `db:"name"`
		BoardID int64  `db:"board_id"`
	}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT tl.label_id, COUNT(*) AS usage_count, l.name, l.board_id
		FROM task_labels tl JOIN labels l ON l.id = tl.label_id
		GROUP BY tl.label_id, l.name, l.board_id
		ORDER BY usage_count DESC, tl.label_id ASC
		LIMIT ?`), top)
	if err != nil {
		return nil, fmt.Errorf("failed to rank labels: %w", err)
	}

	usage := make([]LabelUsage, len(rows))
	for i, r := range rows {
		usage[i] = r.LabelUsage
		usage[i].Label = &Label{ID: r.LabelID, Name: r.Name, BoardID: r.BoardID}
	}
	return usage, nil
}
