package application

import (
	"context"
	"sort"
	"time"

	"github.com/davicafu/sociolab/internal/post/domain"
	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostService define los casos de uso relacionados con Post.
type PostService struct {
	repo  domain.PostRepository
	cache domain.PostCache
	log   *zap.Logger
}

// NewPostService constructor
func NewPostService(repo domain.PostRepository, cache domain.PostCache, log *zap.Logger) *PostService {
	return &PostService{
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

// CreatePost publica un post nuevo. El propietario tiene que existir.
func (s *PostService) CreatePost(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	exists, err := s.repo.OwnerExists(ctx, p.OwnerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrOwnerNotFound
	}

	p.ID = uuid.New()
	p.PublishDate = time.Now().UTC()
	if p.Tags == nil {
		p.Tags = []string{}
	}

	evt := sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "post",
		AggregateID:   p.ID.String(),
		EventType:     domain.PostCreated,
		Payload:       p,
		CreatedAt:     time.Now().UTC(),
		Processed:     false,
	}

	if err := s.repo.Create(ctx, p, evt); err != nil {
		return nil, err
	}

	// El create no trae el resumen del autor; se relee con el JOIN.
	created, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		go func(p *domain.Post) {
			ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = s.cache.Set(ctxCache, domain.CacheKeyByID(p.ID), p, 60)
		}(created)
	}

	return created, nil
}

// UpdatePost persiste los cambios de un post existente.
func (s *PostService) UpdatePost(ctx context.Context, p *domain.Post) error {
	evt := sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "post",
		AggregateID:   p.ID.String(),
		EventType:     domain.PostUpdated,
		Payload:       p,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Update(ctx, p, evt); err != nil {
		return err
	}

	if s.cache != nil {
		go func() { _ = s.cache.Set(ctx, domain.CacheKeyByID(p.ID), p, 60) }()
	}

	return nil
}

// DeletePost elimina un post por ID.
func (s *PostService) DeletePost(ctx context.Context, id uuid.UUID) error {
	evt := sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "post",
		AggregateID:   id.String(),
		EventType:     domain.PostDeleted,
		Payload:       map[string]string{"id": id.String()},
		CreatedAt:     time.Now().UTC(),
		Processed:     false,
	}

	if err := s.repo.DeleteByID(ctx, id, evt); err != nil {
		return err
	}

	if s.cache != nil {
		go func(pid uuid.UUID) { _ = s.cache.Delete(ctx, domain.CacheKeyByID(pid)) }(id)
	}

	return nil
}

// GetPost obtiene un post (primero intenta desde cache).
func (s *PostService) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	// 1. Intentar cache
	if s.cache != nil {
		var p domain.Post
		if ok, _ := s.cache.Get(ctx, domain.CacheKeyByID(id), &p); ok {
			return &p, nil
		}
	}

	// 2. Ir al repo con reintentos
	var post *domain.Post
	err := retry(ctx, 3, 100*time.Millisecond, func() error {
		var err error
		post, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	// 3. Actualizar cache en background sin bloquear la respuesta
	if s.cache != nil {
		go func(p *domain.Post) {
			ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			if err := s.cache.Set(ctxCache, domain.CacheKeyByID(p.ID), p, 60); err != nil {
				s.log.Warn("⚠️ Cache update failed", zap.String("post_id", p.ID.String()), zap.Error(err))
			}
		}(post)
	}

	return post, nil
}

// ListPosts devuelve los posts que pasan los filtros del repositorio.
func (s *PostService) ListPosts(ctx context.Context, f domain.PostFilter) ([]*domain.Post, error) {
	return s.repo.List(ctx, f)
}

// OwnerExists comprueba que un usuario existe, para los endpoints anidados.
func (s *PostService) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	return s.repo.OwnerExists(ctx, ownerID)
}

// ListTags devuelve el conjunto ordenado de tags únicos de todos los posts.
func (s *PostService) ListTags(ctx context.Context) ([]string, error) {
	posts, err := s.repo.List(ctx, domain.PostFilter{})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, p := range posts {
		for _, t := range p.Tags {
			seen[t] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}
