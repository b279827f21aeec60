package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davicafu/sociolab/internal/post/domain"
	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
)

type PostRepoSQLite struct {
	db *sql.DB
}

func NewPostRepoSQLite(db *sql.DB) *PostRepoSQLite {
	return &PostRepoSQLite{db: db}
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

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(data), nil
}

// ------------------ Métodos ------------------

// Create inserta post y evento en transacción.
func (r *PostRepoSQLite) Create(ctx context.Context, p *domain.Post, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	tagsJSON, err := marshalTags(p.Tags)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO posts (id,text,owner_id,publish_date,image,likes,link,tags)
		 VALUES (?,?,?,?,?,?,?,?)`,
		p.ID.String(), p.Text, p.OwnerID.String(), p.PublishDate, p.Image, p.Likes, p.Link, tagsJSON,
	); err != nil {
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// Update actualiza post y crea evento Outbox en transacción
func (r *PostRepoSQLite) Update(ctx context.Context, p *domain.Post, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	tagsJSON, err := marshalTags(p.Tags)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE posts SET text=?, image=?, likes=?, link=?, tags=? WHERE id=?`,
		p.Text, p.Image, p.Likes, p.Link, tagsJSON, p.ID.String(),
	)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		err = domain.ErrPostNotFound
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteByID elimina post y crea evento Outbox en transacción. Los
// comentarios del post se eliminan en cascada (FK ON DELETE CASCADE).
func (r *PostRepoSQLite) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id=?`, id.String())
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		err = domain.ErrPostNotFound
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// Las lecturas traen siempre el resumen del autor con un JOIN a users.
const postColumns = `p.id, p.text, p.owner_id, p.publish_date, p.image, p.likes, p.link, p.tags,
	u.id, u.first_name, u.last_name, u.title, u.picture`

const postFrom = `FROM posts p JOIN users u ON u.id = p.owner_id`

func scanPost(scan func(dest ...interface{}) error) (*domain.Post, error) {
	var p domain.Post
	var idStr, ownerIDStr, ownerIDStr2 string
	var image, link, tags, ownerPicture sql.NullString

	if err := scan(&idStr, &p.Text, &ownerIDStr, &p.PublishDate, &image, &p.Likes, &link, &tags,
		&ownerIDStr2, &p.Owner.FirstName, &p.Owner.LastName, &p.Owner.Title, &ownerPicture); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	p.ID = parsedID

	ownerID, err := uuid.Parse(ownerIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid owner UUID in DB: %w", err)
	}
	p.OwnerID = ownerID
	p.Owner.ID = ownerID

	if image.Valid {
		p.Image = &image.String
	}
	if link.Valid {
		p.Link = &link.String
	}
	if ownerPicture.Valid {
		p.Owner.Picture = &ownerPicture.String
	}

	p.Tags = []string{}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &p.Tags); err != nil {
			return nil, fmt.Errorf("invalid tags JSON in DB: %w", err)
		}
	}

	return &p, nil
}

func (r *PostRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` `+postFrom+` WHERE p.id = ?`, id.String())

	p, err := scanPost(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

// List aplica los filtros en SQL y devuelve la colección completa que los
// pasa; la búsqueda global, el orden y la paginación los hace el pipeline.
func (r *PostRepoSQLite) List(ctx context.Context, f domain.PostFilter) ([]*domain.Post, error) {
	var args []interface{}
	var conditions []string

	if f.OwnerID != nil {
		conditions = append(conditions, "p.owner_id = ?")
		args = append(args, *f.OwnerID)
	}
	if f.Likes != nil {
		conditions = append(conditions, "p.likes = ?")
		args = append(args, *f.Likes)
	}
	if f.PublishDate != nil {
		conditions = append(conditions, "p.publish_date = ?")
		args = append(args, *f.PublishDate)
	}
	// Cada tag se busca como substring `"tag"` dentro de la columna JSON.
	for _, t := range f.Tags {
		conditions = append(conditions, "p.tags LIKE ?")
		args = append(args, `%"`+strings.ToLower(strings.TrimSpace(t))+`"%`)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` `+postFrom+` `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

func (r *PostRepoSQLite) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE id = ?`, ownerID.String(),
	).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas del esquema si no existen.
func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS posts (
            id TEXT PRIMARY KEY,
            text TEXT NOT NULL,
            owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            publish_date DATETIME NOT NULL,
            image TEXT,
            likes INTEGER NOT NULL DEFAULT 0,
            link TEXT,
            tags TEXT
        )
    `)
	return err
}

// Verificación en tiempo de compilación.
var _ domain.PostRepository = (*PostRepoSQLite)(nil)
