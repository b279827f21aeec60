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

	"github.com/davicafu/sociolab/internal/post/application"
	"github.com/davicafu/sociolab/internal/post/domain"
	sharedDomain "github.com/davicafu/sociolab/internal/shared/domain"
)

// ---------- Mocks en memoria ----------

type inMemoryPostRepo struct {
	mu     sync.Mutex
	posts  map[uuid.UUID]*domain.Post
	owners map[uuid.UUID]domain.OwnerSummary
	order  []uuid.UUID
}

func newInMemoryPostRepo() *inMemoryPostRepo {
	return &inMemoryPostRepo{
		posts:  make(map[uuid.UUID]*domain.Post),
		owners: make(map[uuid.UUID]domain.OwnerSummary),
	}
}

func (r *inMemoryPostRepo) addOwner(o domain.OwnerSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[o.ID] = o
}

func (r *inMemoryPostRepo) Create(ctx context.Context, p *domain.Post, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copia := *p
	copia.Owner = r.owners[p.OwnerID]
	r.posts[p.ID] = &copia
	r.order = append(r.order, p.ID)
	return nil
}

func (r *inMemoryPostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	copia := *p
	return &copia, nil
}

func (r *inMemoryPostRepo) Update(ctx context.Context, p *domain.Post, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[p.ID]; !ok {
		return domain.ErrPostNotFound
	}
	copia := *p
	copia.Owner = r.owners[p.OwnerID]
	r.posts[p.ID] = &copia
	return nil
}

func (r *inMemoryPostRepo) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *inMemoryPostRepo) List(ctx context.Context, f domain.PostFilter) ([]*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Post
	for _, id := range r.order {
		p, ok := r.posts[id]
		if !ok {
			continue
		}
		if f.OwnerID != nil && p.OwnerID.String() != *f.OwnerID {
			continue
		}
		if f.Likes != nil && p.Likes != *f.Likes {
			continue
		}
		if !matchesTags(p.Tags, f.Tags) {
			continue
		}
		copia := *p
		out = append(out, &copia)
	}
	return out, nil
}

func matchesTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.ToLower(h) == strings.ToLower(w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *inMemoryPostRepo) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.owners[ownerID]
	return ok, nil
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

func newTestRouter() (*gin.Engine, *inMemoryPostRepo) {
	gin.SetMode(gin.TestMode)
	repo := newInMemoryPostRepo()
	service := application.NewPostService(repo, dummyCache{}, zap.NewNop())
	handler := NewPostHandler(service)
	r := gin.New()
	RegisterPostRoutes(r, handler)
	return r, repo
}

func seedOwner(repo *inMemoryPostRepo) domain.OwnerSummary {
	owner := domain.OwnerSummary{
		ID:        uuid.New(),
		FirstName: "Ana",
		LastName:  "García",
		Title:     "ms",
	}
	repo.addOwner(owner)
	return owner
}

func seedPost(t *testing.T, repo *inMemoryPostRepo, owner domain.OwnerSummary, text string, tags []string, published time.Time) *domain.Post {
	t.Helper()
	p := &domain.Post{
		ID:          uuid.New(),
		Text:        text,
		OwnerID:     owner.ID,
		PublishDate: published,
		Tags:        tags,
	}
	assert.NoError(t, repo.Create(context.Background(), p, sharedDomain.OutboxEvent{}))
	return p
}

type listEnvelope struct {
	APIVersion string                   `json:"api_version"`
	Data       []map[string]interface{} `json:"data"`
	Total      int                      `json:"total"`
	Page       int                      `json:"page"`
	Limit      int                      `json:"limit"`
	Links      map[string]string        `json:"links"`
}

func doRequest(r *gin.Engine, method, path string, body *strings.Reader, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// ---------- Listado ----------

func TestListPosts_DefaultSortNewestFirst(t *testing.T) {
	r, repo := newTestRouter()
	owner := seedOwner(repo)
	seedPost(t, repo, owner, "viejo", nil, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))
	seedPost(t, repo, owner, "nuevo", nil, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	rec := doRequest(r, http.MethodGet, "/api/v1/posts", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var env listEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 2, env.Total)
	assert.Equal(t, "nuevo", env.Data[0]["text"])
	assert.Equal(t, "viejo", env.Data[1]["text"])

	// En el listado principal los enlaces cuelgan del resumen del autor
	user := env.Data[0]["user"].(map[string]interface{})
	assert.Equal(t, owner.ID.String(), user["id"])
	assert.Len(t, user["links"].([]interface{}), 3)
	assert.NotContains(t, env.Data[0], "links")
}

func TestListPosts_FilterByTags(t *testing.T) {
	r, repo := newTestRouter()
	owner := seedOwner(repo)
	seedPost(t, repo, owner, "con golang", []string{"golang", "dev"}, time.Now())
	seedPost(t, repo, owner, "sin tags", nil, time.Now())

	rec := doRequest(r, http.MethodGet, "/api/v1/posts?tags=Golang,%20dev", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var env listEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Total)
	assert.Equal(t, "con golang", env.Data[0]["text"])
}

// ---------- Tags ----------

func TestListTags(t *testing.T) {
	r, repo := newTestRouter()
	owner := seedOwner(repo)
	seedPost(t, repo, owner, "a", []string{"golang", "dev"}, time.Now())
	seedPost(t, repo, owner, "b", []string{"dev", "web"}, time.Now())

	rec := doRequest(r, http.MethodGet, "/api/v1/tags", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var tags []map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tags))

	// Tags únicos y ordenados alfabéticamente
	assert.Len(t, tags, 3)
	assert.Equal(t, "dev", tags[0]["tag"])
	assert.Equal(t, "golang", tags[1]["tag"])
	assert.Equal(t, "web", tags[2]["tag"])

	links := tags[0]["links"].([]interface{})
	self := links[0].(map[string]interface{})
	assert.Equal(t, "/api/v1/tags/dev/posts", self["href"])
}

func TestListPostsByTag(t *testing.T) {
	r, repo := newTestRouter()
	owner := seedOwner(repo)
	seedPost(t, repo, owner, "de golang", []string{"golang"}, time.Now())
	seedPost(t, repo, owner, "de web", []string{"web"}, time.Now())

	rec := doRequest(r, http.MethodGet, "/api/v1/tags/golang/posts", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	var env listEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Total)
	assert.Equal(t, "de golang", env.Data[0]["text"])
	assert.Contains(t, env.Links["first"], "/api/v1/tags/golang/posts?page=1")

	// Los items anidados llevan enlaces self y owner a nivel del post
	links := env.Data[0]["links"].([]interface{})
	assert.Len(t, links, 2)
}

func TestListPostsByTag_UnknownTagIsEmptyPage(t *testing.T) {
	r, repo := newTestRouter()
	owner := seedOwner(repo)
	seedPost(t, repo, owner, "algo", []string{"golang"}, time.Now())

	rec := doRequest(r, http.MethodGet, "/api/v1/tags/inexistente/posts", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var env listEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 0, env.Total)
	assert.Empty(t, env.Data)
}

// ---------- Posts de un usuario ----------

func TestListUserPosts(t *testing.T) {
	r, repo := newTestRouter()
	owner := seedOwner(repo)
	otro := seedOwner(repo)
	seedPost(t, repo, owner, "mio", nil, time.Now())
	seedPost(t, repo, otro, "ajeno", nil, time.Now())

	rec := doRequest(r, http.MethodGet, "/api/v1/users/"+owner.ID.String()+"/posts", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var env listEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Total)
	assert.Equal(t, "mio", env.Data[0]["text"])
}

func TestListUserPosts_UnknownUser(t *testing.T) {
	r, _ := newTestRouter()

	rec := doRequest(r, http.MethodGet, "/api/v1/users/"+uuid.NewString()+"/posts", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "RESOURCE_NOT_FOUND: user not found")

	rec = doRequest(r, http.MethodGet, "/api/v1/users/not-a-uuid/posts", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ---------- Escritura ----------

func TestCreatePost(t *testing.T) {
	r, repo := newTestRouter()
	owner := seedOwner(repo)

	body := `{"text":"hola mundo","owner_id":"` + owner.ID.String() + `","tags":["golang"]}`
	rec := doRequest(r, http.MethodPost, "/api/v1/posts", strings.NewReader(body), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var view map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.NotEmpty(t, view["id"])
	assert.Equal(t, "hola mundo", view["text"])

	// El resumen del autor viene embebido desde la lectura posterior al insert
	user := view["user"].(map[string]interface{})
	assert.Equal(t, owner.ID.String(), user["id"])
	assert.Equal(t, "Ana", user["firstName"])
}

func TestCreatePost_UnknownOwner(t *testing.T) {
	r, _ := newTestRouter()

	body := `{"text":"hola","owner_id":"` + uuid.NewString() + `"}`
	rec := doRequest(r, http.MethodPost, "/api/v1/posts", strings.NewReader(body), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "RESOURCE_NOT_FOUND: owner not found")
}

func TestUpdatePost_OwnerImmutable(t *testing.T) {
	r, repo := newTestRouter()
	owner := seedOwner(repo)
	p := seedPost(t, repo, owner, "texto", nil, time.Now())

	body := `{"text":"texto","owner_id":"` + uuid.NewString() + `"}`
	rec := doRequest(r, http.MethodPut, "/api/v1/posts/"+p.ID.String(), strings.NewReader(body), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot change owner_id")
}

func TestUpdatePost_EmptyFieldsKeepValues(t *testing.T) {
	r, repo := newTestRouter()
	owner := seedOwner(repo)
	p := seedPost(t, repo, owner, "texto", []string{"golang"}, time.Now())
	p.Likes = 7
	assert.NoError(t, repo.Update(context.Background(), p, sharedDomain.OutboxEvent{}))

	// Sin likes ni tags en el cuerpo: se conservan los anteriores
	body := `{"text":"texto nuevo","owner_id":"` + owner.ID.String() + `"}`
	rec := doRequest(r, http.MethodPut, "/api/v1/posts/"+p.ID.String(), strings.NewReader(body), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var view map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "texto nuevo", view["text"])
	assert.Equal(t, float64(7), view["likes"])
	assert.Equal(t, []interface{}{"golang"}, view["tags"])
}

func TestDeletePost(t *testing.T) {
	r, repo := newTestRouter()
	owner := seedOwner(repo)
	p := seedPost(t, repo, owner, "texto", nil, time.Now())

	rec := doRequest(r, http.MethodDelete, "/api/v1/posts/"+p.ID.String(), nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted_post_id":"`+p.ID.String()+`"`)
}

func TestOptionsPosts(t *testing.T) {
	r, _ := newTestRouter()

	rec := doRequest(r, http.MethodOptions, "/api/v1/posts", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GET, POST, PUT, DELETE, HEAD, OPTIONS", rec.Header().Get("Allow"))
}
