package application

import (
	"context"
	"strings"
	"sync"
	"testing"

	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
	"github.com/davicafu/sociolab/internal/user/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// ---------- Mocks en memoria ----------

type inMemoryUserRepo struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*domain.User
	Outbox []sharedDomain.OutboxEvent
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	copia := *u
	r.users[u.ID] = &copia
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copia := *u
	return &copia, nil
}

func (r *inMemoryUserRepo) Update(ctx context.Context, u *domain.User, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	copia := *u
	r.users[u.ID] = &copia
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *inMemoryUserRepo) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *inMemoryUserRepo) List(ctx context.Context, f domain.UserFilter) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if f.Email != nil && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(*f.Email)) {
			continue
		}
		copia := *u
		out = append(out, &copia)
	}
	return out, nil
}

type dummyCache struct{}

func (dummyCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}
func (dummyCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	return nil
}
func (dummyCache) Delete(ctx context.Context, key string) error { return nil }

// ---------- Tests ----------

func newTestService() (*UserService, *inMemoryUserRepo) {
	repo := newInMemoryUserRepo()
	return NewUserService(repo, dummyCache{}, zap.NewNop()), repo
}

func TestCreateUser(t *testing.T) {
	svc, repo := newTestService()

	u := &domain.User{FirstName: "Ana", LastName: "García", Email: "ana@example.com"}
	created, err := svc.CreateUser(context.Background(), u)
	assert.NoError(t, err)

	// El servicio asigna ID y fecha de registro
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.RegisterDate.IsZero())

	// Y deja el evento en la outbox dentro de la misma operación
	assert.Len(t, repo.Outbox, 1)
	assert.Equal(t, domain.UserCreated, repo.Outbox[0].EventType)
	assert.Equal(t, created.ID.String(), repo.Outbox[0].AggregateID)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateUser(context.Background(), &domain.User{Email: "dup@example.com"})
	assert.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), &domain.User{Email: "dup@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestGetUser_NotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateUser(t *testing.T) {
	svc, repo := newTestService()

	created, err := svc.CreateUser(context.Background(), &domain.User{Email: "upd@example.com", FirstName: "Luis"})
	assert.NoError(t, err)

	created.FirstName = "Luis Alberto"
	assert.NoError(t, svc.UpdateUser(context.Background(), created))

	stored, err := svc.GetUser(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Luis Alberto", stored.FirstName)
	assert.Equal(t, domain.UserUpdated, repo.Outbox[1].EventType)
}

func TestDeleteUser(t *testing.T) {
	svc, repo := newTestService()

	created, err := svc.CreateUser(context.Background(), &domain.User{Email: "del@example.com"})
	assert.NoError(t, err)

	assert.NoError(t, svc.DeleteUser(context.Background(), created.ID))
	_, err = svc.GetUser(context.Background(), created.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// El payload del evento de borrado lleva el id, decodificable como entidad
	evt := repo.Outbox[1]
	assert.Equal(t, domain.UserDeleted, evt.EventType)
	payload, ok := evt.Payload.(map[string]string)
	assert.True(t, ok)
	assert.Equal(t, created.ID.String(), payload["id"])

	// Borrar dos veces devuelve not found
	assert.ErrorIs(t, svc.DeleteUser(context.Background(), created.ID), domain.ErrUserNotFound)
}

func TestGetUser_CacheHit(t *testing.T) {
	repo := newInMemoryUserRepo()
	cached := &domain.User{ID: uuid.New(), Email: "cache@example.com"}
	cache := &stubCache{user: cached}
	svc := NewUserService(repo, cache, zap.NewNop())

	// El usuario no está en el repo: si la respuesta llega, vino de la cache
	u, err := svc.GetUser(context.Background(), cached.ID)
	assert.NoError(t, err)
	assert.Equal(t, cached.Email, u.Email)
}

type stubCache struct {
	user *domain.User
}

func (s *stubCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if u, ok := dest.(*domain.User); ok && s.user != nil {
		*u = *s.user
		return true, nil
	}
	return false, nil
}
func (s *stubCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	return nil
}
func (s *stubCache) Delete(ctx context.Context, key string) error { return nil }
