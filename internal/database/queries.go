package database

// Chat queries
const (
	selectChatQuery = `
		SELECT id, last_message, last_message_time, unread_count, push_name,
		       contact_id, user_id, status, participants, is_archived,
		       created_at, updated_at
		FROM chats
		WHERE id = ?
	`

	insertChatQuery = `
		INSERT INTO chats (
			id, last_message, last_message_time, unread_count, push_name,
			contact_id, user_id, status, participants, is_archived
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	updateChatQuery = `
		UPDATE chats
		SET last_message = ?, last_message_time = ?, unread_count = ?,
		    push_name = ?, contact_id = ?, user_id = ?, status = ?,
		    participants = ?, is_archived = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	listChatsQuery = `
		SELECT id, last_message, last_message_time, unread_count, push_name,
		       contact_id, user_id, status, participants, is_archived,
		       created_at, updated_at
		FROM chats
		ORDER BY last_message_time DESC
		LIMIT ? OFFSET ?
	`
)

// Message queries
const (
	selectMessageQuery = `
		SELECT id, chat_id, message, timestamp, message_type, is_from_me,
		       contact_id, media_path, is_delivered, is_read, is_edit,
		       reply_to_message_id, user_id, created_at, updated_at
		FROM messages
		WHERE id = ?
	`

	insertMessageQuery = `
		INSERT INTO messages (
			id, chat_id, message, timestamp, message_type, is_from_me,
			contact_id, media_path, is_delivered, is_read, is_edit,
			reply_to_message_id, user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	updateMessageQuery = `
		UPDATE messages
		SET chat_id = ?, message = ?, timestamp = ?, message_type = ?,
		    is_from_me = ?, contact_id = ?, media_path = ?, is_delivered = ?,
		    is_read = ?, is_edit = ?, reply_to_message_id = ?, user_id = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	listMessagesByChatQuery = `
		SELECT id, chat_id, message, timestamp, message_type, is_from_me,
		       contact_id, media_path, is_delivered, is_read, is_edit,
		       reply_to_message_id, user_id, created_at, updated_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`
)

// Reaction queries
const (
	upsertReactionQuery = `
		INSERT INTO reactions (id, message_id, participant, emoji, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			message_id = excluded.message_id,
			participant = excluded.participant,
			emoji = excluded.emoji,
			created_at = excluded.created_at
	`

	selectReactionsByMessageQuery = `
		SELECT id, message_id, participant, emoji, created_at
		FROM reactions
		WHERE message_id = ?
		ORDER BY created_at ASC
	`
)

// User queries
const (
	selectUserIDByTokenQuery = `SELECT id FROM users WHERE token = ?`
)

// Retention queries
const (
	cleanupMessagesQuery = `
		DELETE FROM messages
		WHERE created_at < datetime('now', '-' || ? || ' days')
	`

	cleanupReactionsQuery = `
		DELETE FROM reactions
		WHERE created_at > 0 AND created_at < ?
	`
)
