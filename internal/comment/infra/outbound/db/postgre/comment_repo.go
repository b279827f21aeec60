package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/davicafu/sociolab/internal/comment/domain"
	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
)

type CommentRepoPostgres struct {
	db *sql.DB
}

func NewCommentRepoPostgres(db *sql.DB) *CommentRepoPostgres {
	return &CommentRepoPostgres{db: db}
}

// ------------------ Helper DRY para insertar en outbox ------------------

func insertOutboxTx(ctx context.Context, tx *sql.Tx, evt sharedDomain.OutboxEvent) error {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at, processed)
		 VALUES ($1, $2, $3, $4, $5, $6, false)`,
		evt.ID, evt.AggregateType, evt.AggregateID, evt.EventType, payloadBytes, evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// ------------------ CRUD + Outbox ------------------

func (r *CommentRepoPostgres) Create(ctx context.Context, c *domain.Comment, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO comments (id,message,owner_id,post_id,publish_date)
		 VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.Message, c.OwnerID, c.PostID, c.PublishDate,
	); err != nil {
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *CommentRepoPostgres) Update(ctx context.Context, c *domain.Comment, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE comments SET message=$1 WHERE id=$2`,
		c.Message, c.ID,
	)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		err = domain.ErrCommentNotFound
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *CommentRepoPostgres) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		err = domain.ErrCommentNotFound
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

const commentColumns = `c.id, c.message, c.owner_id, c.post_id, c.publish_date,
	u.id, u.first_name, u.last_name, u.title, u.picture`

const commentFrom = `FROM comments c JOIN users u ON u.id = c.owner_id`

func scanComment(scan func(dest ...interface{}) error) (*domain.Comment, error) {
	var c domain.Comment
	var ownerPicture sql.NullString

	if err := scan(&c.ID, &c.Message, &c.OwnerID, &c.PostID, &c.PublishDate,
		&c.Owner.ID, &c.Owner.FirstName, &c.Owner.LastName, &c.Owner.Title, &ownerPicture); err != nil {
		return nil, err
	}

	if ownerPicture.Valid {
		c.Owner.Picture = &ownerPicture.String
	}

	return &c, nil
}

func (r *CommentRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` `+commentFrom+` WHERE c.id = $1`, id)

	c, err := scanComment(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrCommentNotFound
		}
		return nil, err
	}
	return c, nil
}

// List aplica los filtros en SQL; orden y paginación son del pipeline.
func (r *CommentRepoPostgres) List(ctx context.Context, f domain.CommentFilter) ([]*domain.Comment, error) {
	var args []interface{}
	var conditions []string

	next := func() string { return fmt.Sprintf("$%d", len(args)) }

	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		conditions = append(conditions, "c.owner_id::text = "+next())
	}
	if f.PostID != nil {
		args = append(args, *f.PostID)
		conditions = append(conditions, "c.post_id::text = "+next())
	}
	if f.PublishDate != nil {
		args = append(args, *f.PublishDate)
		conditions = append(conditions, "c.publish_date::text = "+next())
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+commentColumns+` `+commentFrom+` `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	return comments, rows.Err()
}

func (r *CommentRepoPostgres) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE id = $1`, ownerID,
	).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CommentRepoPostgres) PostExists(ctx context.Context, postID uuid.UUID) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM posts WHERE id = $1`, postID,
	).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CommentRepoPostgres) ParentsExist(ctx context.Context, ownerID, postID uuid.UUID) (bool, error) {
	ownerOK, err := r.OwnerExists(ctx, ownerID)
	if err != nil {
		return false, err
	}
	postOK, err := r.PostExists(ctx, postID)
	if err != nil {
		return false, err
	}
	return ownerOK && postOK, nil
}

// ------------------ Inicialización ------------------

func InitPostgres(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS comments (
		id UUID PRIMARY KEY,
		message TEXT NOT NULL,
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		publish_date TIMESTAMP NOT NULL
	)`)
	return err
}

// Verificación en tiempo de compilación.
var _ domain.CommentRepository = (*CommentRepoPostgres)(nil)
