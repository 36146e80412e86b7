package dao

import (
	"context"
	"time"

	"ziggie/ziggie/errs"
	"ziggie/ziggie/sources/psql/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageDAO struct {
	DB *pgxpool.Pool
}

func NewMessageDAO(db *pgxpool.Pool) *MessageDAO {
	return &MessageDAO{DB: db}
}

const messageColumns = "id, session_id, role, content, tokens_used, created_at"

func scanMessage(row pgx.Row) (*models.Message, error) {
	var msg models.Message
	err := row.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.TokensUsed, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (dao *MessageDAO) Create(ctx context.Context, sessionID, role, content string, tokensUsed *int) (*models.Message, error) {
	query := `INSERT INTO messages (id, session_id, role, content, tokens_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + messageColumns
	row := dao.DB.QueryRow(ctx, query, uuid.New().String(), sessionID, role, content, tokensUsed, time.Now())
	msg, err := scanMessage(row)
	if err != nil {
		return nil, errs.Database("failed to save message", err)
	}
	return msg, nil
}

// CreateMany runs all inserts in one transaction; a failed insert rolls
// back the whole batch.
func (dao *MessageDAO) CreateMany(ctx context.Context, sessionID string, inputs []models.MessageInput) ([]models.Message, error) {
	tx, err := dao.DB.Begin(ctx)
	if err != nil {
		return nil, errs.Database("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	saved := make([]models.Message, 0, len(inputs))
	query := `INSERT INTO messages (id, session_id, role, content, tokens_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + messageColumns
	for _, in := range inputs {
		row := tx.QueryRow(ctx, query, uuid.New().String(), sessionID, in.Role, in.Content, in.TokensUsed, time.Now())
		msg, err := scanMessage(row)
		if err != nil {
			return nil, errs.Database("failed to save message batch", err)
		}
		saved = append(saved, *msg)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errs.Database("failed to commit message batch", err)
	}
	return saved, nil
}

func (dao *MessageDAO) queryMessages(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := dao.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	return msgs, rows.Err()
}

// GetRecentBySessionID fetches newest-first up to limit then reverses, so
// the result is the tail of the conversation in ascending time order.
func (dao *MessageDAO) GetRecentBySessionID(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2`
	msgs, err := dao.queryMessages(ctx, query, sessionID, limit)
	if err != nil {
		return nil, errs.Database("failed to get recent messages", err)
	}
	reverse(msgs)
	return msgs, nil
}

func (dao *MessageDAO) GetAllBySessionID(ctx context.Context, sessionID string) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE session_id = $1 ORDER BY created_at ASC`
	msgs, err := dao.queryMessages(ctx, query, sessionID)
	if err != nil {
		return nil, errs.Database("failed to get all messages", err)
	}
	return msgs, nil
}

// GetConversationHistory is the recent window without system messages.
func (dao *MessageDAO) GetConversationHistory(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE session_id = $1 AND role != 'system'
		ORDER BY created_at DESC LIMIT $2`
	msgs, err := dao.queryMessages(ctx, query, sessionID, limit)
	if err != nil {
		return nil, errs.Database("failed to get conversation history", err)
	}
	reverse(msgs)
	return msgs, nil
}

func (dao *MessageDAO) CountBySessionID(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := dao.DB.QueryRow(ctx, "SELECT COUNT(*) FROM messages WHERE session_id = $1", sessionID).Scan(&count)
	if err != nil {
		return 0, errs.Database("failed to count messages", err)
	}
	return count, nil
}

func (dao *MessageDAO) DeleteBySessionID(ctx context.Context, sessionID string) (int64, error) {
	tag, err := dao.DB.Exec(ctx, "DELETE FROM messages WHERE session_id = $1", sessionID)
	if err != nil {
		return 0, errs.Database("failed to delete messages", err)
	}
	return tag.RowsAffected(), nil
}

func (dao *MessageDAO) TotalTokensBySessionID(ctx context.Context, sessionID string) (int64, error) {
	var total *int64
	err := dao.DB.QueryRow(ctx, "SELECT SUM(tokens_used) FROM messages WHERE session_id = $1", sessionID).Scan(&total)
	if err != nil {
		return 0, errs.Database("failed to get total tokens", err)
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func reverse(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
