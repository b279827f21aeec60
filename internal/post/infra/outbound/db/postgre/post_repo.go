package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/davicafu/sociolab/internal/post/domain"
	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
)

type PostRepoPostgres struct {
	db *sql.DB
}

func NewPostRepoPostgres(db *sql.DB) *PostRepoPostgres {
	return &PostRepoPostgres{db: db}
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

func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return data, nil
}

// ------------------ CRUD + Outbox ------------------

func (r *PostRepoPostgres) Create(ctx context.Context, p *domain.Post, evt sharedDomain.OutboxEvent) error {
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
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.Text, p.OwnerID, p.PublishDate, p.Image, p.Likes, p.Link, tagsJSON,
	); err != nil {
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostRepoPostgres) Update(ctx context.Context, p *domain.Post, evt sharedDomain.OutboxEvent) error {
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
		`UPDATE posts SET text=$1, image=$2, likes=$3, link=$4, tags=$5 WHERE id=$6`,
		p.Text, p.Image, p.Likes, p.Link, tagsJSON, p.ID,
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

func (r *PostRepoPostgres) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id=$1`, id)
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

const postColumns = `p.id, p.text, p.owner_id, p.publish_date, p.image, p.likes, p.link, p.tags,
	u.id, u.first_name, u.last_name, u.title, u.picture`

const postFrom = `FROM posts p JOIN users u ON u.id = p.owner_id`

func scanPost(scan func(dest ...interface{}) error) (*domain.Post, error) {
	var p domain.Post
	var image, link, ownerPicture sql.NullString
	var tags []byte

	if err := scan(&p.ID, &p.Text, &p.OwnerID, &p.PublishDate, &image, &p.Likes, &link, &tags,
		&p.Owner.ID, &p.Owner.FirstName, &p.Owner.LastName, &p.Owner.Title, &ownerPicture); err != nil {
		return nil, err
	}

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
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &p.Tags); err != nil {
			return nil, fmt.Errorf("invalid tags JSON in DB: %w", err)
		}
	}

	return &p, nil
}

func (r *PostRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` `+postFrom+` WHERE p.id = $1`, id)

	p, err := scanPost(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

// List aplica los filtros en SQL; orden y paginación son del pipeline.
func (r *PostRepoPostgres) List(ctx context.Context, f domain.PostFilter) ([]*domain.Post, error) {
	var args []interface{}
	var conditions []string

	next := func() string { return fmt.Sprintf("$%d", len(args)) }

	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		conditions = append(conditions, "p.owner_id::text = "+next())
	}
	if f.Likes != nil {
		args = append(args, *f.Likes)
		conditions = append(conditions, "p.likes = "+next())
	}
	if f.PublishDate != nil {
		args = append(args, *f.PublishDate)
		conditions = append(conditions, "p.publish_date::text = "+next())
	}
	for _, t := range f.Tags {
		args = append(args, `%"`+strings.ToLower(strings.TrimSpace(t))+`"%`)
		conditions = append(conditions, "p.tags::text ILIKE "+next())
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

func (r *PostRepoPostgres) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE id = $1`, ownerID,
	).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// ------------------ Inicialización ------------------

func InitPostgres(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS posts (
		id UUID PRIMARY KEY,
		text TEXT NOT NULL,
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		publish_date TIMESTAMP NOT NULL,
		image TEXT,
		likes INTEGER NOT NULL DEFAULT 0,
		link TEXT,
		tags JSONB
	)`)
	return err
}

// Verificación en tiempo de compilación.
var _ domain.PostRepository = (*PostRepoPostgres)(nil)
