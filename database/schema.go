package database

// Task dependencies use the default NO ACTION rule rather than RESTRICT: the check runs at the
// end of the statement, so a board delete can cascade through a dependency chain while a direct
// delete of a depended-upon task still fails.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS boards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS task_lists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		board_id INTEGER NOT NULL REFERENCES boards(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS task_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMP NOT NULL,
		due_date TIMESTAMP,
		priority INTEGER NOT NULL DEFAULT 2,
		status TEXT NOT NULL DEFAULT 'To Do',
		is_completed BOOLEAN NOT NULL DEFAULT 0,
		is_archived BOOLEAN NOT NULL DEFAULT 0,
		task_list_id INTEGER NOT NULL REFERENCES task_lists(id) ON DELETE CASCADE,
		assigned_user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		board_id INTEGER NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		dependency_task_item_id INTEGER REFERENCES task_items(id)
	)`,
	`CREATE TABLE IF NOT EXISTS labels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		board_id INTEGER NOT NULL REFERENCES boards(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS task_labels (
		task_item_id INTEGER NOT NULL REFERENCES task_items(id) ON DELETE CASCADE,
		label_id INTEGER NOT NULL REFERENCES labels(id) ON DELETE CASCADE,
		PRIMARY KEY (task_item_id, label_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		task_item_id INTEGER NOT NULL REFERENCES task_items(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS user_boards (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		board_id INTEGER NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, board_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_lists_board ON task_lists(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_items_list ON task_items(task_list_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_items_board ON task_items(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_items_assignee ON task_items(assigned_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_items_dependency ON task_items(dependency_task_item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_labels_board ON labels(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_labels_label ON task_labels(label_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_task ON comments(task_item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_boards_board ON user_boards(board_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS boards (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS task_lists (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		board_id BIGINT NOT NULL REFERENCES boards(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS task_items (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		due_date TIMESTAMPTZ,
		priority INTEGER NOT NULL DEFAULT 2,
		status TEXT NOT NULL DEFAULT 'To Do',
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		is_archived BOOLEAN NOT NULL DEFAULT FALSE,
		task_list_id BIGINT NOT NULL REFERENCES task_lists(id) ON DELETE CASCADE,
		assigned_user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		board_id BIGINT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		dependency_task_item_id BIGINT REFERENCES task_items(id)
	)`,
	`CREATE TABLE IF NOT EXISTS labels (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		board_id BIGINT NOT NULL REFERENCES boards(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS task_labels (
		task_item_id BIGINT NOT NULL REFERENCES task_items(id) ON DELETE CASCADE,
		label_id BIGINT NOT NULL REFERENCES labels(id) ON DELETE CASCADE,
		PRIMARY KEY (task_item_id, label_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id BIGSERIAL PRIMARY KEY,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		task_item_id BIGINT NOT NULL REFERENCES task_items(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS user_boards (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		board_id BIGINT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, board_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_lists_board ON task_lists(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_items_list ON task_items(task_list_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_items_board ON task_items(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_items_assignee ON task_items(assigned_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_items_dependency ON task_items(dependency_task_item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_labels_board ON labels(board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_labels_label ON task_labels(label_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_task ON comments(task_item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_boards_board ON user_boards(board_id)`,
}
