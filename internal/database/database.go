package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"chatdesk/internal/database/migrations"
	"chatdesk/internal/models"
	"chatdesk/internal/security"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db *sql.DB
}

func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	// Validate database path to prevent directory traversal
	if err := security.ValidateFilePath(dbPath); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to run migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Database{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Chat operations

func (d *Database) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	row := d.db.QueryRowContext(ctx, selectChatQuery, id)
	chat, err := scanChat(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return chat, nil
}

func (d *Database) CreateChat(ctx context.Context, chat *models.Chat) error {
	participants, err := marshalParticipants(chat.Participants)
	if err != nil {
		return fmt.Errorf("failed to encode participants: %w", err)
	}

	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, insertChatQuery,
			chat.ID, chat.LastMessage, chat.LastMessageTime, chat.UnreadCount,
			chat.PushName, chat.ContactID, chat.UserID, string(chat.Status),
			participants, chat.IsArchived,
		)
		if err != nil {
			return fmt.Errorf("failed to create chat: %w", err)
		}
		return nil
	}, "create chat")
}

func (d *Database) UpdateChat(ctx context.Context, chat *models.Chat) error {
	participants, err := marshalParticipants(chat.Participants)
	if err != nil {
		return fmt.Errorf("failed to encode participants: %w", err)
	}

	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, updateChatQuery,
			chat.LastMessage, chat.LastMessageTime, chat.UnreadCount,
			chat.PushName, chat.ContactID, chat.UserID, string(chat.Status),
			participants, chat.IsArchived, chat.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update chat: %w", err)
		}
		return nil
	}, "update chat")
}

func (d *Database) ListChats(ctx context.Context, limit, offset int) ([]models.Chat, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, listChatsQuery, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chats []models.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, *chat)
	}
	return chats, rows.Err()
}

// Message operations

func (d *Database) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	row := d.db.QueryRowContext(ctx, selectMessageQuery, id)
	msg, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

func (d *Database) CreateMessage(ctx context.Context, msg *models.Message) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, insertMessageQuery,
			msg.ID, msg.ChatID, msg.Message, msg.Timestamp, string(msg.MessageType),
			msg.IsFromMe, msg.ContactID, msg.MediaPath, msg.IsDelivered,
			msg.IsRead, msg.IsEdit, msg.ReplyToMessageID, msg.UserID,
		)
		if err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		return nil
	}, "create message")
}

func (d *Database) UpdateMessage(ctx context.Context, msg *models.Message) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, updateMessageQuery,
			msg.ChatID, msg.Message, msg.Timestamp, string(msg.MessageType),
			msg.IsFromMe, msg.ContactID, msg.MediaPath, msg.IsDelivered,
			msg.IsRead, msg.IsEdit, msg.ReplyToMessageID, msg.UserID, msg.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update message: %w", err)
		}
		return nil
	}, "update message")
}

func (d *Database) ListMessagesByChat(ctx context.Context, chatID string, limit, offset int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, listMessagesByChatQuery, chatID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, *msg)
	}
	return msgs, rows.Err()
}

func (d *Database) GetMessagesByIDs(ctx context.Context, ids []string) ([]models.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, chat_id, message, timestamp, message_type, is_from_me,
		       contact_id, media_path, is_delivered, is_read, is_edit,
		       reply_to_message_id, user_id, created_at, updated_at
		FROM messages
		WHERE id IN (%s)`, placeholders(len(ids)))

	rows, err := d.db.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages by ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, *msg)
	}
	return msgs, rows.Err()
}

// UpdateMessagesStatus sets delivery/read flags on a batch of messages and
// returns the updated rows. Empty ids is a no-op.
func (d *Database) UpdateMessagesStatus(ctx context.Context, ids []string, delivered, read bool) ([]models.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		UPDATE messages
		SET is_delivered = CASE WHEN ? THEN 1 ELSE is_delivered END,
		    is_read = CASE WHEN ? THEN 1 ELSE is_read END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id IN (%s)`, placeholders(len(ids)))

	args := append([]interface{}{delivered, read}, stringArgs(ids)...)

	err := retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update message status: %w", err)
		}
		return nil
	}, "update message status")
	if err != nil {
		return nil, err
	}

	return d.GetMessagesByIDs(ctx, ids)
}

// Reaction operations

func (d *Database) SaveReaction(ctx context.Context, reaction *models.Reaction) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, upsertReactionQuery,
			reaction.ID, reaction.MessageID, reaction.Participant,
			reaction.Emoji, reaction.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save reaction: %w", err)
		}
		return nil
	}, "save reaction")
}

func (d *Database) GetReactionsByMessage(ctx context.Context, messageID string) ([]models.Reaction, error) {
	rows, err := d.db.QueryContext(ctx, selectReactionsByMessageQuery, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reactions []models.Reaction
	for rows.Next() {
		var r models.Reaction
		if err := rows.Scan(&r.ID, &r.MessageID, &r.Participant, &r.Emoji, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		reactions = append(reactions, r)
	}
	return reactions, rows.Err()
}

// User operations

// GetUserIDByToken resolves an instance token to its owning user id. An
// unknown token yields "" without error so ingestion can proceed with a
// sentinel owner.
func (d *Database) GetUserIDByToken(ctx context.Context, token string) (string, error) {
	var id string
	err := d.db.QueryRowContext(ctx, selectUserIDByTokenQuery, token).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve user token: %w", err)
	}
	return id, nil
}

func (d *Database) CreateUser(ctx context.Context, id, name, token string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO users (id, name, token) VALUES (?, ?, ?)`, id, name, token)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Retention

func (d *Database) CleanupOldRecords(retentionDays int) error {
	if _, err := d.db.Exec(cleanupMessagesQuery, retentionDays); err != nil {
		return fmt.Errorf("failed to cleanup old messages: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays).UnixMilli()
	if _, err := d.db.Exec(cleanupReactionsQuery, cutoff); err != nil {
		return fmt.Errorf("failed to cleanup old reactions: %w", err)
	}

	return nil
}

// Scanning helpers

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChat(row rowScanner) (*models.Chat, error) {
	var chat models.Chat
	var status, participants string
	err := row.Scan(
		&chat.ID, &chat.LastMessage, &chat.LastMessageTime, &chat.UnreadCount,
		&chat.PushName, &chat.ContactID, &chat.UserID, &status, &participants,
		&chat.IsArchived, &chat.CreatedAt, &chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	chat.Status = models.ChatStatus(status)
	if participants != "" && participants != "[]" {
		if err := json.Unmarshal([]byte(participants), &chat.Participants); err != nil {
			return nil, fmt.Errorf("failed to decode participants: %w", err)
		}
	}
	return &chat, nil
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var msg models.Message
	var msgType string
	err := row.Scan(
		&msg.ID, &msg.ChatID, &msg.Message, &msg.Timestamp, &msgType,
		&msg.IsFromMe, &msg.ContactID, &msg.MediaPath, &msg.IsDelivered,
		&msg.IsRead, &msg.IsEdit, &msg.ReplyToMessageID, &msg.UserID,
		&msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	msg.MessageType = models.MessageType(msgType)
	return &msg, nil
}

func marshalParticipants(participants []models.Participant) (string, error) {
	if len(participants) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(participants)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
