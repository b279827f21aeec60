package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
	"github.com/davicafu/sociolab/internal/shared/rest"
	"github.com/davicafu/sociolab/internal/user/domain"
)

type UserRepoPostgres struct {
	db *sql.DB
}

func NewUserRepoPostgres(db *sql.DB) *UserRepoPostgres {
	return &UserRepoPostgres{db: db}
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

func marshalLocation(loc *domain.Location) (interface{}, error) {
	if loc == nil {
		return nil, nil
	}
	data, err := json.Marshal(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal location: %w", err)
	}
	return data, nil
}

// ------------------ CRUD + Outbox ------------------

// Create inserta usuario y evento en transacción. El email es único.
func (r *UserRepoPostgres) Create(ctx context.Context, u *domain.User, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var count int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE email = $1`, u.Email,
	).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		err = domain.ErrEmailAlreadyExists
		return err
	}

	locJSON, err := marshalLocation(u.Location)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO users (id,first_name,last_name,email,title,date_of_birth,register_date,phone,picture,location)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.Title,
		u.DateOfBirth, u.RegisterDate, u.Phone, u.Picture, locJSON,
	); err != nil {
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// Update actualiza usuario y crea evento Outbox en transacción
func (r *UserRepoPostgres) Update(ctx context.Context, u *domain.User, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	locJSON, err := marshalLocation(u.Location)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET first_name=$1, last_name=$2, title=$3, date_of_birth=$4, phone=$5, picture=$6, location=$7 WHERE id=$8`,
		u.FirstName, u.LastName, u.Title, u.DateOfBirth, u.Phone, u.Picture, locJSON, u.ID,
	)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		err = domain.ErrUserNotFound
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteByID elimina usuario y crea evento Outbox en transacción.
func (r *UserRepoPostgres) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		err = domain.ErrUserNotFound
		return err
	}

	if err = insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}

	return tx.Commit()
}

const userColumns = `id, first_name, last_name, email, title, date_of_birth, register_date, phone, picture, location`

func scanUser(scan func(dest ...interface{}) error) (*domain.User, error) {
	var u domain.User
	var dateOfBirth sql.NullTime
	var phone, picture sql.NullString
	var location []byte

	if err := scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Title,
		&dateOfBirth, &u.RegisterDate, &phone, &picture, &location); err != nil {
		return nil, err
	}

	if dateOfBirth.Valid {
		t := dateOfBirth.Time
		u.DateOfBirth = &t
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	if picture.Valid {
		u.Picture = &picture.String
	}
	if len(location) > 0 {
		var loc domain.Location
		if err := json.Unmarshal(location, &loc); err != nil {
			return nil, fmt.Errorf("invalid location JSON in DB: %w", err)
		}
		u.Location = &loc
	}

	return &u, nil
}

func (r *UserRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	u, err := scanUser(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// List aplica los filtros en SQL; orden y paginación son del pipeline.
func (r *UserRepoPostgres) List(ctx context.Context, f domain.UserFilter) ([]*domain.User, error) {
	var args []interface{}
	var conditions []string

	next := func() string { return fmt.Sprintf("$%d", len(args)) }

	if f.FirstName != nil {
		args = append(args, "%"+rest.RemoveAccents(*f.FirstName)+"%")
		conditions = append(conditions, "first_name ILIKE "+next())
	}
	if f.LastName != nil {
		args = append(args, "%"+rest.RemoveAccents(*f.LastName)+"%")
		conditions = append(conditions, "last_name ILIKE "+next())
	}
	if f.Email != nil {
		args = append(args, "%"+*f.Email+"%")
		conditions = append(conditions, "email ILIKE "+next())
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// ------------------ Inicialización ------------------

func InitPostgres(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		date_of_birth TIMESTAMP,
		register_date TIMESTAMP NOT NULL,
		phone TEXT,
		picture TEXT,
		location JSONB
	)`)
	return err
}

// Verificación en tiempo de compilación.
var _ domain.UserRepository = (*UserRepoPostgres)(nil)
