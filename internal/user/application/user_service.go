package application

import (
	"context"
	"time"

	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
	"github.com/davicafu/sociolab/internal/user/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService define los casos de uso relacionados con User.
type UserService struct {
	repo  domain.UserRepository
	cache domain.UserCache
	log   *zap.Logger
}

// NewUserService constructor
func NewUserService(repo domain.UserRepository, cache domain.UserCache, log *zap.Logger) *UserService {
	return &UserService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		select {
		case <-time.After(delay):
			// espera antes del siguiente intento
		case <-ctx.Done():
			return ctx.Err() // contexto cancelado
		}
	}
	return err
}

// CreateUser registra un usuario nuevo y deja el evento en la outbox.
func (s *UserService) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	u.ID = uuid.New()
	u.RegisterDate = time.Now().UTC()

	evt := sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "user",
		AggregateID:   u.ID.String(),
		EventType:     domain.UserCreated,
		Payload:       u,
		CreatedAt:     time.Now().UTC(),
		Processed:     false,
	}

	if err := s.repo.Create(ctx, u, evt); err != nil {
		return nil, err
	}

	if s.cache != nil {
		go func(u *domain.User) {
			ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = s.cache.Set(ctxCache, domain.CacheKeyByID(u.ID), u, 60)
		}(u)
	}

	return u, nil
}

// UpdateUser persiste los cambios de un usuario existente.
func (s *UserService) UpdateUser(ctx context.Context, u *domain.User) error {
	evt := sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "user",
		AggregateID:   u.ID.String(),
		EventType:     domain.UserUpdated,
		Payload:       u,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Update(ctx, u, evt); err != nil {
		return err
	}

	if s.cache != nil {
		go func() { _ = s.cache.Set(ctx, domain.CacheKeyByID(u.ID), u, 60) }()
	}

	return nil
}

// DeleteUser elimina un usuario por ID.
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	evt := sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "user",
		AggregateID:   id.String(),
		EventType:     domain.UserDeleted,
		Payload:       map[string]string{"id": id.String()},
		CreatedAt:     time.Now().UTC(),
		Processed:     false,
	}

	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		return err
	}

	if s.cache != nil {
		go func(uid uuid.UUID) { _ = s.cache.Delete(ctx, domain.CacheKeyByID(uid)) }(id)
	}

	return nil
}

// GetUser obtiene un usuario (primero intenta desde cache).
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	// 1. Intentar cache
	if s.cache != nil {
		var u domain.User
		if ok, _ := s.cache.Get(ctx, domain.CacheKeyByID(id), &u); ok {
			return &u, nil
		}
	}

	// 2. Ir al repo con reintentos
	var user *domain.User
	err := retry(ctx, 3, 100*time.Millisecond, func() error {
		var err error
		user, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	// 3. Actualizar cache en background sin bloquear la respuesta
	if s.cache != nil {
		go func(u *domain.User) {
			ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			if err := s.cache.Set(ctxCache, domain.CacheKeyByID(u.ID), u, 60); err != nil {
				s.log.Warn("⚠️ Cache update failed", zap.String("user_id", u.ID.String()), zap.Error(err))
			}
		}(user)
	}

	return user, nil
}

// ListUsers devuelve los usuarios que pasan los filtros del repositorio.
func (s *UserService) ListUsers(ctx context.Context, f domain.UserFilter) ([]*domain.User, error) {
	return s.repo.List(ctx, f)
}
