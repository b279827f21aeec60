package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davicafu/sociolab/internal/comment/domain"
	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
)

type CommentRepoSQLite struct {
	db *sql.DB
}

func NewCommentRepoSQLite(db *sql.DB) *CommentRepoSQLite {
	return &CommentRepoSQLite{db: db}
}

// ------------------ Helper DRY para insertar en outbox ------------------

func insertOutboxTx(ctx context.Context, tx *sql.Tx, evt sharedDomain.OutboxEvent) error {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (id,aggregate_type,aggregate_id,event_type,payload,created_at,processed)
		 VALUES (?,?,?,?,?,?,0)`,
		evt.ID.String(), evt.AggregateType, evt.AggregateID, evt.EventType, string(payloadBytes), evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	return nil
}

// ------------------ Métodos ------------------

// Create inserta comentario y evento en transacción.
func (r *CommentRepoSQLite) Create(ctx context.Context, c *domain.Comment, evt sharedDomain.OutboxEvent) error {
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
		 VALUES (?,?,?,?,?)`,
		c.ID.String(), c.Message, c.OwnerID.String(), c.PostID.String(), c.PublishDate,
	); err != nil {
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// Update actualiza comentario y crea evento Outbox en transacción
func (r *CommentRepoSQLite) Update(ctx context.Context, c *domain.Comment, evt sharedDomain.OutboxEvent) error {
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
		`UPDATE comments SET message=? WHERE id=?`,
		c.Message, c.ID.String(),
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

// DeleteByID elimina comentario y crea evento Outbox en transacción.
func (r *CommentRepoSQLite) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id=?`, id.String())
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

// Las lecturas traen siempre el resumen del autor con un JOIN a users.
const commentColumns = `c.id, c.message, c.owner_id, c.post_id, c.publish_date,
	u.id, u.first_name, u.last_name, u.title, u.picture`

const commentFrom = `FROM comments c JOIN users u ON u.id = c.owner_id`

func scanComment(scan func(dest ...interface{}) error) (*domain.Comment, error) {
	var c domain.Comment
	var idStr, ownerIDStr, postIDStr, ownerIDStr2 string
	var ownerPicture sql.NullString

	if err := scan(&idStr, &c.Message, &ownerIDStr, &postIDStr, &c.PublishDate,
		&ownerIDStr2, &c.Owner.FirstName, &c.Owner.LastName, &c.Owner.Title, &ownerPicture); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	c.ID = parsedID

	ownerID, err := uuid.Parse(ownerIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid owner UUID in DB: %w", err)
	}
	c.OwnerID = ownerID
	c.Owner.ID = ownerID

	postID, err := uuid.Parse(postIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid post UUID in DB: %w", err)
	}
	c.PostID = postID

	if ownerPicture.Valid {
		c.Owner.Picture = &ownerPicture.String
	}

	return &c, nil
}

func (r *CommentRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` `+commentFrom+` WHERE c.id = ?`, id.String())

	c, err := scanComment(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrCommentNotFound
		}
		return nil, err
	}
	return c, nil
}

// List aplica los filtros en SQL y devuelve la colección completa que los
// pasa; la búsqueda global, el orden y la paginación los hace el pipeline.
func (r *CommentRepoSQLite) List(ctx context.Context, f domain.CommentFilter) ([]*domain.Comment, error) {
	var args []interface{}
	var conditions []string

	if f.OwnerID != nil {
		conditions = append(conditions, "c.owner_id = ?")
		args = append(args, *f.OwnerID)
	}
	if f.PostID != nil {
		conditions = append(conditions, "c.post_id = ?")
		args = append(args, *f.PostID)
	}
	if f.PublishDate != nil {
		conditions = append(conditions, "c.publish_date = ?")
		args = append(args, *f.PublishDate)
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

func (r *CommentRepoSQLite) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE id = ?`, ownerID.String(),
	).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CommentRepoSQLite) PostExists(ctx context.Context, postID uuid.UUID) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM posts WHERE id = ?`, postID.String(),
	).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CommentRepoSQLite) ParentsExist(ctx context.Context, ownerID, postID uuid.UUID) (bool, error) {
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

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas del esquema si no existen.
func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS comments (
            id TEXT PRIMARY KEY,
            message TEXT NOT NULL,
            owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
            publish_date DATETIME NOT NULL
        )
    `)
	return err
}

// Verificación en tiempo de compilación.
var _ domain.CommentRepository = (*CommentRepoSQLite)(nil)
