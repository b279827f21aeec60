package application

import (
	"context"
	"time"

	"github.com/davicafu/sociolab/internal/comment/domain"
	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommentService define los casos de uso relacionados con Comment.
type CommentService struct {
	repo  domain.CommentRepository
	cache domain.CommentCache
	log   *zap.Logger
}

// NewCommentService constructor
func NewCommentService(repo domain.CommentRepository, cache domain.CommentCache, log *zap.Logger) *CommentService {
	return &CommentService{
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

// CreateComment publica un comentario nuevo. El usuario y el post
// referenciados tienen que existir.
func (s *CommentService) CreateComment(ctx context.Context, c *domain.Comment) (*domain.Comment, error) {
	exists, err := s.repo.ParentsExist(ctx, c.OwnerID, c.PostID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrParentNotFound
	}

	c.ID = uuid.New()
	c.PublishDate = time.Now().UTC()

	evt := sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "comment",
		AggregateID:   c.ID.String(),
		EventType:     domain.CommentCreated,
		Payload:       c,
		CreatedAt:     time.Now().UTC(),
		Processed:     false,
	}

	if err := s.repo.Create(ctx, c, evt); err != nil {
		return nil, err
	}

	// El create no trae el resumen del autor; se relee con el JOIN.
	created, err := s.repo.GetByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		go func(c *domain.Comment) {
			ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = s.cache.Set(ctxCache, domain.CacheKeyByID(c.ID), c, 60)
		}(created)
	}

	return created, nil
}

// UpdateComment persiste los cambios de un comentario existente.
func (s *CommentService) UpdateComment(ctx context.Context, c *domain.Comment) error {
	evt := sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "comment",
		AggregateID:   c.ID.String(),
		EventType:     domain.CommentUpdated,
		Payload:       c,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Update(ctx, c, evt); err != nil {
		return err
	}

	if s.cache != nil {
		go func() { _ = s.cache.Set(ctx, domain.CacheKeyByID(c.ID), c, 60) }()
	}

	return nil
}

// DeleteComment elimina un comentario por ID.
func (s *CommentService) DeleteComment(ctx context.Context, id uuid.UUID) error {
	evt := sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "comment",
		AggregateID:   id.String(),
		EventType:     domain.CommentDeleted,
		Payload:       map[string]string{"id": id.String()},
		CreatedAt:     time.Now().UTC(),
		Processed:     false,
	}

	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		return err
	}

	if s.cache != nil {
		go func(cid uuid.UUID) { _ = s.cache.Delete(ctx, domain.CacheKeyByID(cid)) }(id)
	}

	return nil
}

// GetComment obtiene un comentario (primero intenta desde cache).
func (s *CommentService) GetComment(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	// 1. Intentar cache
	if s.cache != nil {
		var c domain.Comment
		if ok, _ := s.cache.Get(ctx, domain.CacheKeyByID(id), &c); ok {
			return &c, nil
		}
	}

	// 2. Ir al repo con reintentos
	var comment *domain.Comment
	err := retry(ctx, 3, 100*time.Millisecond, func() error {
		var err error
		comment, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	// 3. Actualizar cache en background sin bloquear la respuesta
	if s.cache != nil {
		go func(c *domain.Comment) {
			ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			if err := s.cache.Set(ctxCache, domain.CacheKeyByID(c.ID), c, 60); err != nil {
				s.log.Warn("⚠️ Cache update failed", zap.String("comment_id", c.ID.String()), zap.Error(err))
			}
		}(comment)
	}

	return comment, nil
}

// ListComments devuelve los comentarios que pasan los filtros del repositorio.
func (s *CommentService) ListComments(ctx context.Context, f domain.CommentFilter) ([]*domain.Comment, error) {
	return s.repo.List(ctx, f)
}

// OwnerExists comprueba que un usuario existe, para los endpoints anidados.
func (s *CommentService) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	return s.repo.OwnerExists(ctx, ownerID)
}

// PostExists comprueba que un post existe, para los endpoints anidados.
func (s *CommentService) PostExists(ctx context.Context, postID uuid.UUID) (bool, error) {
	return s.repo.PostExists(ctx, postID)
}
