package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const boardColumns = `id, name, description`

// ListBoards returns every board
func (s *Store) ListBoards(ctx context.Context, include Include) ([]Board, error) {
	boards := []Board{}
	if err := s.db.SelectContext(ctx, &boards, `SELECT `+boardColumns+` FROM boards ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}
	if include.Has(IncludeTaskLists) {
		if err := s.attachTaskLists(ctx, boards); err != nil {
			return nil, err
		}
	}
	return boards, nil
}

// GetBoard returns a single board
func (s *Store) GetBoard(ctx context.Context, id int64, include Include) (*Board, error) {
	var b Board
	err := s.db.GetContext(ctx, &b, s.db.Rebind(`SELECT `+boardColumns+` FROM boards WHERE id = ?`), id)
	if err != nil {
		return nil, translateError(err, ErrValidation)
	}
	if include.Has(IncludeTaskLists) {
		boards := []Board{b}
		if err := s.attachTaskLists(ctx, boards); err != nil {
			return nil, err
		}
		b = boards[0]
	}
	return &b, nil
}

// CreateBoard inserts a board and assigns its id
func (s *Store) CreateBoard(ctx context.Context, b *Board) error {
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(
		`INSERT INTO boards (name, description) VALUES (?, ?) RETURNING id`),
		b.Name, b.Description).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("failed to insert board: %w", translateError(err, ErrValidation))
	}
	return nil
}

// UpdateBoard replaces every column of the board identified by id
func (s *Store) UpdateBoard(ctx context.Context, id int64, b *Board) error {
	if b.ID != id {
		return fmt.Errorf("%w: board id %d does not match path id %d", ErrValidation, b.ID, id)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE boards SET name = ?, description = ? WHERE id = ?`), b.Name, b.Description, id)
	if err != nil {
		return fmt.Errorf("failed to update board: %w", translateError(err, ErrValidation))
	}
	return rowsAffectedOrNotFound(res)
}

// DeleteBoard removes a board together with its lists, tasks, labels and memberships.
// It returns the ids of the tasks that went with it.
func (s *Store) DeleteBoard(ctx context.Context, id int64) ([]int64, error) {
	taskIDs := []int64{}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.SelectContext(ctx, &taskIDs, tx.Rebind(
			`SELECT id FROM task_items WHERE board_id = ? ORDER BY id`), id)
		if err != nil {
			return fmt.Errorf("failed to query tasks for board: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM boards WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to delete board: %w", translateError(err, ErrConflict))
		}
		return rowsAffectedOrNotFound(res)
	})
	if err != nil {
		return nil, err
	}
	return taskIDs, nil
}

// BoardsByUser returns the boards userID is a member of
func (s *Store) BoardsByUser(ctx context.Context, userID string) ([]Board, error) {
	boards := []Board{}
	err := s.db.SelectContext(ctx, &boards, s.db.Rebind(
		`SELECT b.id, b.name, b.description FROM boards b
		JOIN user_boards ub ON ub.board_id = b.id
		WHERE ub.user_id = ? ORDER BY b.id`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query boards for user: %w", err)
	}
	return boards, nil
}

// BoardMembers returns the users assigned to a board
func (s *Store) BoardMembers(ctx context.Context, boardID int64) ([]User, error) {
	if _, err := s.GetBoard(ctx, boardID, 0); err != nil {
		return nil, err
	}
	users := []User{}
	err := s.db.SelectContext(ctx, &users, s.db.Rebind(
		`SELECT u.id, u.username, u.email, u.password_hash, u.created_at FROM users u
		JOIN user_boards ub ON ub.user_id = u.id
		WHERE ub.board_id = ? ORDER BY u.username`), boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query board members: %w", err)
	}
	return users, nil
}

// AssignUserToBoard records board membership. Assigning twice is a conflict.
func (s *Store) AssignUserToBoard(ctx context.Context, boardID int64, userID string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		err := tx.GetContext(ctx, &exists, tx.Rebind(
			`SELECT COUNT(*) FROM user_boards WHERE board_id = ? AND user_id = ?`), boardID, userID)
		if err != nil {
			return fmt.Errorf("failed to query membership: %w", err)
		}
		if exists > 0 {
			return fmt.Errorf("%w: user is already assigned to this board", ErrConflict)
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO user_boards (user_id, board_id) VALUES (?, ?)`), userID, boardID)
		if err != nil {
			return fmt.Errorf("failed to insert membership: %w", translateError(err, ErrNotFound))
		}
		return nil
	})
}

// UnassignUserFromBoard removes board membership
func (s *Store) UnassignUserFromBoard(ctx context.Context, boardID int64, userID string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`DELETE FROM user_boards WHERE board_id = ? AND user_id = ?`), boardID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

func (s *Store) attachTaskLists(ctx context.Context, boards []Board) error {
	if len(boards) == 0 {
		return nil
	}
	ids := make([]int64, len(boards))
	index := make(map[int64]int, len(boards))
	for i := range boards {
		ids[i] = boards[i].ID
		index[boards[i].ID] = i
		boards[i].TaskLists = []TaskList{}
	}

	query, args, err := inClause(s.db, `SELECT `+taskListColumns+` FROM task_lists WHERE board_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return err
	}
	var lists []TaskList
	if err := s.db.SelectContext(ctx, &lists, query, args...); err != nil {
		return fmt.Errorf("failed to load task lists: %w", err)
	}
	for _, l := range lists {
		i := index[l.BoardID]
		boards[i].TaskLists = append(boards[i].TaskLists, l)
	}
	return nil
}
