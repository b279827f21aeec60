package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	// _ "github.com/mattn/go-sqlite3" // better performance but requires gcc
	_ "modernc.org/sqlite"

	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
	"github.com/davicafu/sociolab/internal/shared/rest"
	"github.com/davicafu/sociolab/internal/user/domain"
)

type UserRepoSQLite struct {
	db *sql.DB
}

func NewUserRepoSQLite(db *sql.DB) *UserRepoSQLite {
	return &UserRepoSQLite{db: db}
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

func marshalLocation(loc *domain.Location) (interface{}, error) {
	if loc == nil {
		return nil, nil
	}
	data, err := json.Marshal(loc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal location: %w", err)
	}
	return string(data), nil
}

// ------------------ Métodos ------------------

// Create inserta usuario y evento en transacción. El email es único.
func (r *UserRepoSQLite) Create(ctx context.Context, u *domain.User, evt sharedDomain.OutboxEvent) error {
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
		`SELECT COUNT(1) FROM users WHERE email = ?`, u.Email,
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
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		u.ID.String(), u.FirstName, u.LastName, u.Email, u.Title,
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
func (r *UserRepoSQLite) Update(ctx context.Context, u *domain.User, evt sharedDomain.OutboxEvent) error {
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
		`UPDATE users SET first_name=?, last_name=?, title=?, date_of_birth=?, phone=?, picture=?, location=? WHERE id=?`,
		u.FirstName, u.LastName, u.Title, u.DateOfBirth, u.Phone, u.Picture, locJSON, u.ID.String(),
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

// DeleteByID elimina usuario y crea evento Outbox en transacción. Los posts y
// comentarios del usuario se eliminan en cascada (FK ON DELETE CASCADE).
func (r *UserRepoSQLite) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id.String())
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
	var idStr string
	var dateOfBirth sql.NullTime
	var phone, picture, location sql.NullString

	if err := scan(&idStr, &u.FirstName, &u.LastName, &u.Email, &u.Title,
		&dateOfBirth, &u.RegisterDate, &phone, &picture, &location); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	u.ID = parsedID

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
	if location.Valid && location.String != "" {
		var loc domain.Location
		if err := json.Unmarshal([]byte(location.String), &loc); err != nil {
			return nil, fmt.Errorf("invalid location JSON in DB: %w", err)
		}
		u.Location = &loc
	}

	return &u, nil
}

// GetByID con manejo de errores en uuid.Parse
func (r *UserRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())

	u, err := scanUser(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// List aplica los filtros en SQL y devuelve la colección completa que los
// pasa; la búsqueda global, el orden y la paginación los hace el pipeline.
func (r *UserRepoSQLite) List(ctx context.Context, f domain.UserFilter) ([]*domain.User, error) {
	var args []interface{}
	var conditions []string

	// Nombre y apellido se comparan sin acentos: el valor del filtro se
	// normaliza aquí y la columna guarda texto ya plano en la práctica.
	if f.FirstName != nil {
		conditions = append(conditions, "first_name LIKE ?")
		args = append(args, "%"+rest.RemoveAccents(*f.FirstName)+"%")
	}
	if f.LastName != nil {
		conditions = append(conditions, "last_name LIKE ?")
		args = append(args, "%"+rest.RemoveAccents(*f.LastName)+"%")
	}
	if f.Email != nil {
		conditions = append(conditions, "email LIKE ?")
		args = append(args, "%"+*f.Email+"%")
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

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas del esquema si no existen.
func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            email TEXT UNIQUE NOT NULL,
            title TEXT NOT NULL,
            date_of_birth DATETIME,
            register_date DATETIME NOT NULL,
            phone TEXT,
            picture TEXT,
            location TEXT
        )
    `)
	return err
}

// Verificación en tiempo de compilación.
var _ domain.UserRepository = (*UserRepoSQLite)(nil)
