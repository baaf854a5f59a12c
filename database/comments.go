package database

import (
	"context"
	"fmt"
	"time"
)

const commentColumns = `id, content, created_at, user_id, task_item_id`

// ListComments returns every comment
func (s *Store) ListComments(ctx context.Context) ([]Comment, error) {
	comments := []Comment{}
	if err := s.db.SelectContext(ctx, &comments, `SELECT `+commentColumns+` FROM comments ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	return comments, nil
}

// CommentsByTask returns the comments left on a task, oldest first
func (s *Store) CommentsByTask(ctx context.Context, taskID int64) ([]Comment, error) {
	if _, err := getTaskItem(ctx, s.db, taskID); err != nil {
		return nil, err
	}
	comments := []Comment{}
	err := s.db.SelectContext(ctx, &comments, s.db.Rebind(
		`SELECT `+commentColumns+` FROM comments WHERE task_item_id = ? ORDER BY created_at, id`), taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments for task: %w", err)
	}
	return comments, nil
}

// GetComment returns a single comment
func (s *Store) GetComment(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	err := s.db.GetContext(ctx, &c, s.db.Rebind(`SELECT `+commentColumns+` FROM comments WHERE id = ?`), id)
	if err != nil {
		return nil, translateError(err, ErrValidation)
	}
	return &c, nil
}

// CreateComment inserts a comment by an existing user on an existing task
func (s *Store) CreateComment(ctx context.Context, c *Comment) error {
	c.CreatedAt = time.Now().UTC()
	err := s.db.QueryRowxContext(ctx, s.db.Rebind(
		`INSERT INTO comments (content, created_at, user_id, task_item_id) VALUES (?, ?, ?, ?) RETURNING id`),
		c.Content, c.CreatedAt, c.UserID, c.TaskItemID).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", translateError(err, ErrValidation))
	}
	return nil
}

// UpdateComment replaces the content, author and task of a comment. CreatedAt is kept.
func (s *Store) UpdateComment(ctx context.Context, id int64, c *Comment) error {
	if c.ID != id {
		return fmt.Errorf("%w: comment id %d does not match path id %d", ErrValidation, c.ID, id)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE comments SET content = ?, user_id = ?, task_item_id = ? WHERE id = ?`),
		c.Content, c.UserID, c.TaskItemID, id)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", translateError(err, ErrValidation))
	}
	if err := rowsAffectedOrNotFound(res); err != nil {
		return err
	}

	stored, err := s.GetComment(ctx, id)
	if err != nil {
		return err
	}
	c.CreatedAt = stored.CreatedAt
	return nil
}

// DeleteComment removes a comment
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM comments WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}
