package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/davicafu/sociolab/internal/comment/application"
	"github.com/davicafu/sociolab/internal/comment/domain"
	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
)

// ---------- Mocks en memoria ----------

type inMemoryCommentRepo struct {
	mu       sync.Mutex
	comments map[uuid.UUID]*domain.Comment
	owners   map[uuid.UUID]domain.OwnerSummary
	posts    map[uuid.UUID]bool
	order    []uuid.UUID
}

func newInMemoryCommentRepo() *inMemoryCommentRepo {
	return &inMemoryCommentRepo{
		comments: make(map[uuid.UUID]*domain.Comment),
		owners:   make(map[uuid.UUID]domain.OwnerSummary),
		posts:    make(map[uuid.UUID]bool),
	}
}

func (r *inMemoryCommentRepo) addOwner(o domain.OwnerSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[o.ID] = o
}

func (r *inMemoryCommentRepo) addPost(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[id] = true
}

func (r *inMemoryCommentRepo) Create(ctx context.Context, c *domain.Comment, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copia := *c
	copia.Owner = r.owners[c.OwnerID]
	r.comments[c.ID] = &copia
	r.order = append(r.order, c.ID)
	return nil
}

func (r *inMemoryCommentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	copia := *c
	return &copia, nil
}

func (r *inMemoryCommentRepo) Update(ctx context.Context, c *domain.Comment, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[c.ID]; !ok {
		return domain.ErrCommentNotFound
	}
	copia := *c
	r.comments[c.ID] = &copia
	return nil
}

func (r *inMemoryCommentRepo) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return domain.ErrCommentNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r *inMemoryCommentRepo) List(ctx context.Context, f domain.CommentFilter) ([]*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Comment
	for _, id := range r.order {
		c, ok := r.comments[id]
		if !ok {
			continue
		}
		if f.OwnerID != nil && c.OwnerID.String() != *f.OwnerID {
			continue
		}
		if f.PostID != nil && c.PostID.String() != *f.PostID {
			continue
		}
		copia := *c
		out = append(out, &copia)
	}
	return out, nil
}

func (r *inMemoryCommentRepo) ParentsExist(ctx context.Context, ownerID, postID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, okOwner := r.owners[ownerID]
	return okOwner && r.posts[postID], nil
}

func (r *inMemoryCommentRepo) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.owners[ownerID]
	return ok, nil
}

func (r *inMemoryCommentRepo) PostExists(ctx context.Context, postID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.posts[postID], nil
}

type dummyCache struct{}

func (dummyCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}
func (dummyCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	return nil
}
func (dummyCache) Delete(ctx context.Context, key string) error { return nil }

// ---------- Setup ----------

func newTestRouter() (*gin.Engine, *inMemoryCommentRepo) {
	gin.SetMode(gin.TestMode)
	repo := newInMemoryCommentRepo()
	service := application.NewCommentService(repo, dummyCache{}, zap.NewNop())
	handler := NewCommentHandler(service)
	r := gin.New()
	RegisterCommentRoutes(r, handler)
	return r, repo
}

func seedComment(t *testing.T, repo *inMemoryCommentRepo, owner domain.OwnerSummary, postID uuid.UUID, message string) *domain.Comment {
	t.Helper()
	c := &domain.Comment{
		ID:          uuid.New(),
		Message:     message,
		OwnerID:     owner.ID,
		PostID:      postID,
		PublishDate: time.Date(2023, 4, 5, 14, 30, 0, 0, time.UTC),
	}
	assert.NoError(t, repo.Create(context.Background(), c, sharedDomain.OutboxEvent{}))
	return c
}

type listEnvelope struct {
	APIVersion string                   `json:"api_version"`
	Data       []map[string]interface{} `json:"data"`
	Total      int                      `json:"total"`
	Page       int                      `json:"page"`
	Limit      int                      `json:"limit"`
	Links      map[string]string        `json:"links"`
}

func doRequest(r *gin.Engine, method, path string, body *strings.Reader) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// ---------- Listado ----------

func TestListComments(t *testing.T) {
	r, repo := newTestRouter()
	owner := domain.OwnerSummary{ID: uuid.New(), FirstName: "Ana", LastName: "García", Title: "ms"}
	repo.addOwner(owner)
	postID := uuid.New()
	repo.addPost(postID)
	c := seedComment(t, repo, owner, postID, "buen post")

	rec := doRequest(r, http.MethodGet, "/api/v1/comments", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	var env listEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Total)
	assert.Equal(t, "buen post", env.Data[0]["message"])
	assert.Equal(t, postID.String(), env.Data[0]["post_id"])

	// En el listado principal los enlaces del item son un mapa con self
	links := env.Data[0]["links"].(map[string]interface{})
	assert.Equal(t, "/comments/"+c.ID.String(), links["self"])

	ownerJSON := env.Data[0]["owner"].(map[string]interface{})
	assert.Equal(t, owner.ID.String(), ownerJSON["id"])
}

func TestListUserComments(t *testing.T) {
	r, repo := newTestRouter()
	owner := domain.OwnerSummary{ID: uuid.New(), FirstName: "Ana"}
	otro := domain.OwnerSummary{ID: uuid.New(), FirstName: "Luis"}
	repo.addOwner(owner)
	repo.addOwner(otro)
	postID := uuid.New()
	repo.addPost(postID)
	c := seedComment(t, repo, owner, postID, "mio")
	seedComment(t, repo, otro, postID, "ajeno")

	rec := doRequest(r, http.MethodGet, "/api/v1/users/"+owner.ID.String()+"/comments", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var env listEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Total)
	assert.Equal(t, "mio", env.Data[0]["message"])

	// En los listados anidados los enlaces son una lista self/post
	links := env.Data[0]["links"].([]interface{})
	assert.Len(t, links, 2)
	self := links[0].(map[string]interface{})
	assert.Equal(t, "/api/v1/comments/"+c.ID.String(), self["href"])
}

func TestListUserComments_UnknownUser(t *testing.T) {
	r, _ := newTestRouter()

	rec := doRequest(r, http.MethodGet, "/api/v1/users/"+uuid.NewString()+"/comments", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "RESOURCE_NOT_FOUND: user not found")
}

func TestListPostComments(t *testing.T) {
	r, repo := newTestRouter()
	owner := domain.OwnerSummary{ID: uuid.New(), FirstName: "Ana"}
	repo.addOwner(owner)
	postA := uuid.New()
	postB := uuid.New()
	repo.addPost(postA)
	repo.addPost(postB)
	seedComment(t, repo, owner, postA, "del post A")
	seedComment(t, repo, owner, postB, "del post B")

	rec := doRequest(r, http.MethodGet, "/api/v1/posts/"+postA.String()+"/comments", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var env listEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Total)
	assert.Equal(t, "del post A", env.Data[0]["message"])

	// Enlaces self/owner en los comentarios de un post
	links := env.Data[0]["links"].([]interface{})
	owner2 := links[1].(map[string]interface{})
	assert.Equal(t, "owner", owner2["rel"])
}

func TestListPostComments_UnknownPost(t *testing.T) {
	r, _ := newTestRouter()

	rec := doRequest(r, http.MethodGet, "/api/v1/posts/"+uuid.NewString()+"/comments", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "RESOURCE_NOT_FOUND: post not found")
}

// ---------- Escritura ----------

func TestCreateComment(t *testing.T) {
	r, repo := newTestRouter()
	owner := domain.OwnerSummary{ID: uuid.New(), FirstName: "Ana"}
	repo.addOwner(owner)
	postID := uuid.New()
	repo.addPost(postID)

	body := `{"message":"hola","owner_id":"` + owner.ID.String() + `","post_id":"` + postID.String() + `"}`
	rec := doRequest(r, http.MethodPost, "/api/v1/comments", strings.NewReader(body))
	assert.Equal(t, http.StatusOK, rec.Code)

	var view map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.NotEmpty(t, view["id"])
	assert.Equal(t, "hola", view["message"])
}

func TestCreateComment_UnknownParents(t *testing.T) {
	r, repo := newTestRouter()
	owner := domain.OwnerSummary{ID: uuid.New(), FirstName: "Ana"}
	repo.addOwner(owner)

	// Usuario válido pero post inexistente
	body := `{"message":"hola","owner_id":"` + owner.ID.String() + `","post_id":"` + uuid.NewString() + `"}`
	rec := doRequest(r, http.MethodPost, "/api/v1/comments", strings.NewReader(body))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "RESOURCE_NOT_FOUND: user or post not found")
}

func TestUpdateComment_OwnerImmutable(t *testing.T) {
	r, repo := newTestRouter()
	owner := domain.OwnerSummary{ID: uuid.New(), FirstName: "Ana"}
	repo.addOwner(owner)
	postID := uuid.New()
	repo.addPost(postID)
	c := seedComment(t, repo, owner, postID, "texto")

	body := `{"message":"otro","owner_id":"` + uuid.NewString() + `","post_id":"` + postID.String() + `"}`
	rec := doRequest(r, http.MethodPut, "/api/v1/comments/"+c.ID.String(), strings.NewReader(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot change owner")
}

func TestUpdateComment(t *testing.T) {
	r, repo := newTestRouter()
	owner := domain.OwnerSummary{ID: uuid.New(), FirstName: "Ana"}
	repo.addOwner(owner)
	postID := uuid.New()
	repo.addPost(postID)
	c := seedComment(t, repo, owner, postID, "texto")

	body := `{"message":"texto editado","owner_id":"` + owner.ID.String() + `","post_id":"` + postID.String() + `"}`
	rec := doRequest(r, http.MethodPut, "/api/v1/comments/"+c.ID.String(), strings.NewReader(body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "texto editado")
}

func TestDeleteComment(t *testing.T) {
	r, repo := newTestRouter()
	owner := domain.OwnerSummary{ID: uuid.New(), FirstName: "Ana"}
	repo.addOwner(owner)
	postID := uuid.New()
	repo.addPost(postID)
	c := seedComment(t, repo, owner, postID, "texto")

	rec := doRequest(r, http.MethodDelete, "/api/v1/comments/"+c.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted_comment_id":"`+c.ID.String()+`"`)

	rec = doRequest(r, http.MethodGet, "/api/v1/comments/"+c.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "RESOURCE_NOT_FOUND: comment not found")
}
