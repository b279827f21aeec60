package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/sociolab/internal/post/application"
	"github.com/davicafu/sociolab/internal/post/domain"
	"github.com/davicafu/sociolab/internal/shared/rest"
	"github.com/davicafu/sociolab/pkg/utils"
)

// PostHandler encapsula los endpoints HTTP relacionados con Post
type PostHandler struct {
	service *application.PostService
	now     func() time.Time
}

// NewPostHandler crea un nuevo PostHandler
func NewPostHandler(service *application.PostService) *PostHandler {
	return &PostHandler{service: service, now: time.Now}
}

const isoDateTime = "2006-01-02T15:04:05"

// ---------------- Vistas ----------------

type ownerView struct {
	ID        string      `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Title     string      `json:"title"`
	Picture   *string     `json:"picture"`
	Links     []rest.Link `json:"links,omitempty"`
}

type postView struct {
	ID          string      `json:"id"`
	Text        string      `json:"text"`
	Image       *string     `json:"image"`
	Likes       int         `json:"likes"`
	Tags        []string    `json:"tags"`
	PublishDate *string     `json:"publishDate"`
	User        ownerView   `json:"user"`
	Links       []rest.Link `json:"links,omitempty"`
}

func localizedDate(t time.Time, locale string) *string {
	if t.IsZero() {
		return nil
	}
	s := rest.FormatDate(t, locale)
	return &s
}

func isoDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(isoDateTime)
	return &s
}

func newOwnerView(o domain.OwnerSummary) ownerView {
	return ownerView{
		ID:        o.ID.String(),
		FirstName: o.FirstName,
		LastName:  o.LastName,
		Title:     o.Title,
		Picture:   o.Picture,
	}
}

// postCollectionView es el item del listado principal: los enlaces de
// navegación cuelgan del resumen del autor.
func postCollectionView(p *domain.Post, locale string) postView {
	owner := newOwnerView(p.Owner)
	owner.Links = []rest.Link{
		{Rel: "self", Href: fmt.Sprintf("/api/v1/posts/%s", p.ID)},
		{Rel: "users", Href: fmt.Sprintf("/api/v1/users/%s/posts", p.Owner.ID)},
		{Rel: "comments", Href: fmt.Sprintf("/api/v1/posts/%s/comments", p.ID)},
	}
	return postView{
		ID:          p.ID.String(),
		Text:        p.Text,
		Image:       p.Image,
		Likes:       p.Likes,
		Tags:        p.Tags,
		PublishDate: localizedDate(p.PublishDate, locale),
		User:        owner,
	}
}

// postRelatedView es el item de los listados anidados (posts de un usuario,
// posts por tag): enlaces self/owner al nivel del post.
func postRelatedView(p *domain.Post, locale string) postView {
	return postView{
		ID:          p.ID.String(),
		Text:        p.Text,
		Image:       p.Image,
		Likes:       p.Likes,
		Tags:        p.Tags,
		PublishDate: localizedDate(p.PublishDate, locale),
		User:        newOwnerView(p.Owner),
		Links: []rest.Link{
			{Rel: "self", Href: fmt.Sprintf("/api/v1/posts/%s", p.ID)},
			{Rel: "owner", Href: fmt.Sprintf("/api/v1/users/%s", p.Owner.ID)},
		},
	}
}

func postDetailLinks(p *domain.Post) []rest.Link {
	return []rest.Link{
		{Rel: "self", Href: fmt.Sprintf("/api/v1/posts/%s", p.ID)},
		{Rel: "owner", Href: fmt.Sprintf("/api/v1/users/%s", p.Owner.ID)},
		{Rel: "comments", Href: fmt.Sprintf("/api/v1/posts/%s/comments", p.ID)},
	}
}

// ---------------- Cuerpos de petición ----------------

type postRequest struct {
	Text    string   `json:"text" binding:"required"`
	OwnerID string   `json:"owner_id" binding:"required"`
	Tags    []string `json:"tags"`
	Image   *string  `json:"image"`
	Link    *string  `json:"link"`
	Likes   int      `json:"likes"`
}

// ---------------- Handlers ----------------

// ListPosts endpoint GET /api/v1/posts con negociación de contenido,
// filtros, búsqueda sin acentos, orden estable, paginación y caché condicional.
func (h *PostHandler) ListPosts(c *gin.Context) {
	n := rest.NegotiateRequest(c)
	p := rest.ParseListParams(c, "publishDate", "desc")

	filter := postFilterFromQuery(c)

	posts, err := h.service.ListPosts(c.Request.Context(), filter)
	if err != nil {
		rest.ServeListError(c, err)
		return
	}

	col := domain.NewCollation()
	posts = col.Apply(posts, nil, p)

	// Last-Modified se calcula sobre la colección filtrada, antes de paginar.
	modTimes := make([]time.Time, 0, len(posts))
	for _, post := range posts {
		modTimes = append(modTimes, post.PublishDate)
	}

	pageItems, total := rest.Paginate(posts, p.Page, p.Limit)

	views := make([]postView, 0, len(pageItems))
	for _, post := range pageItems {
		views = append(views, postCollectionView(post, n.Locale))
	}

	payload := rest.ListResponse{
		APIVersion: "v1",
		Data:       views,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		Links:      rest.CollectionLinks("/api/v1/posts", p.Page, p.Limit, total),
	}

	if err := rest.ServeList(c, n, payload, modTimes, h.now); err != nil {
		rest.ServeListError(c, err)
	}
}

func postFilterFromQuery(c *gin.Context) domain.PostFilter {
	var filter domain.PostFilter
	if v := c.Query("owner_id"); v != "" {
		filter.OwnerID = &v
	}
	if v := c.Query("likes"); v != "" {
		if likes, err := strconv.Atoi(v); err == nil {
			filter.Likes = &likes
		}
	}
	if v := c.Query("publishDate"); v != "" {
		filter.PublishDate = &v
	}
	if v := c.Query("tags"); v != "" {
		filter.Tags = splitTags(v)
	}
	return filter
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// GetPost endpoint GET /api/v1/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendParamsNotValid(c, "post_id")
		return
	}

	post, err := h.service.GetPost(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			utils.SendNotFound(c, "post")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	view := postView{
		ID:          post.ID.String(),
		Text:        post.Text,
		Image:       post.Image,
		Likes:       post.Likes,
		Tags:        post.Tags,
		PublishDate: localizedDate(post.PublishDate, rest.LocaleEN),
		User:        newOwnerView(post.Owner),
		Links:       postDetailLinks(post),
	}
	utils.SendSuccess(c, http.StatusOK, view)
}

// CreatePost endpoint POST /api/v1/posts. El propietario tiene que existir.
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBodyNotValid(c, err.Error())
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		utils.SendParamsNotValid(c, "owner_id")
		return
	}

	post := &domain.Post{
		Text:    req.Text,
		OwnerID: ownerID,
		Image:   req.Image,
		Link:    req.Link,
		Likes:   req.Likes,
		Tags:    req.Tags,
	}

	created, err := h.service.CreatePost(c.Request.Context(), post)
	if err != nil {
		if errors.Is(err, domain.ErrOwnerNotFound) {
			utils.SendNotFound(c, "owner")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	view := postView{
		ID:          created.ID.String(),
		Text:        created.Text,
		Image:       created.Image,
		Likes:       created.Likes,
		Tags:        created.Tags,
		PublishDate: isoDate(created.PublishDate),
		User:        newOwnerView(created.Owner),
		Links:       postDetailLinks(created),
	}
	utils.SendSuccess(c, http.StatusOK, view)
}

// UpdatePost endpoint PUT /api/v1/posts/:id. El owner_id no se puede cambiar.
// Image, likes y tags vacíos conservan el valor anterior.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendParamsNotValid(c, "post_id")
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBodyNotValid(c, err.Error())
		return
	}

	post, err := h.service.GetPost(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			utils.SendNotFound(c, "post")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	if req.OwnerID != post.OwnerID.String() {
		utils.SendBadRequest(c, "Cannot change owner_id")
		return
	}

	post.Text = req.Text
	if req.Image != nil {
		post.Image = req.Image
	}
	if req.Likes != 0 {
		post.Likes = req.Likes
	}
	if req.Link != nil {
		post.Link = req.Link
	}
	if len(req.Tags) > 0 {
		post.Tags = req.Tags
	}

	if err := h.service.UpdatePost(c.Request.Context(), post); err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			utils.SendNotFound(c, "post")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	view := postView{
		ID:          post.ID.String(),
		Text:        post.Text,
		Image:       post.Image,
		Likes:       post.Likes,
		Tags:        post.Tags,
		PublishDate: isoDate(post.PublishDate),
		User:        newOwnerView(post.Owner),
		Links:       postDetailLinks(post),
	}
	utils.SendSuccess(c, http.StatusOK, view)
}

// DeletePost endpoint DELETE /api/v1/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendParamsNotValid(c, "post_id")
		return
	}

	if err := h.service.DeletePost(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			utils.SendNotFound(c, "post")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	utils.SendSuccess(c, http.StatusOK, gin.H{"deleted_post_id": id.String()})
}

// HeadPosts endpoint HEAD /api/v1/posts
func (h *PostHandler) HeadPosts(c *gin.Context) {
	c.Status(http.StatusOK)
}

// OptionsPosts endpoint OPTIONS /api/v1/posts
func (h *PostHandler) OptionsPosts(c *gin.Context) {
	c.Header("Allow", "GET, POST, PUT, DELETE, HEAD, OPTIONS")
	c.Status(http.StatusOK)
}

// ---------------- Tags ----------------

type tagView struct {
	Tag   string      `json:"tag"`
	Links []rest.Link `json:"links"`
}

// ListTags endpoint GET /api/v1/tags: tags únicos ordenados con el enlace
// para navegar a los posts de cada tag.
func (h *PostHandler) ListTags(c *gin.Context) {
	tags, err := h.service.ListTags(c.Request.Context())
	if err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}

	views := make([]tagView, 0, len(tags))
	for _, t := range tags {
		views = append(views, tagView{
			Tag: t,
			Links: []rest.Link{
				{Rel: "self", Href: fmt.Sprintf("/api/v1/tags/%s/posts", t)},
			},
		})
	}
	utils.SendSuccess(c, http.StatusOK, views)
}

// ListPostsByTag endpoint GET /api/v1/tags/:tag/posts. Un tag sin posts
// devuelve una página vacía con total 0.
func (h *PostHandler) ListPostsByTag(c *gin.Context) {
	tag := c.Param("tag")
	n := rest.NegotiateRequest(c)
	p := rest.ParseListParams(c, "publishDate", "desc")

	filter := domain.PostFilter{Tags: []string{tag}}
	posts, err := h.service.ListPosts(c.Request.Context(), filter)
	if err != nil {
		rest.ServeListError(c, err)
		return
	}

	col := domain.NewCollation()
	posts = col.Apply(posts, nil, p)

	modTimes := make([]time.Time, 0, len(posts))
	for _, post := range posts {
		modTimes = append(modTimes, post.PublishDate)
	}

	pageItems, total := rest.Paginate(posts, p.Page, p.Limit)

	views := make([]postView, 0, len(pageItems))
	for _, post := range pageItems {
		views = append(views, postRelatedView(post, n.Locale))
	}

	basePath := fmt.Sprintf("/api/v1/tags/%s/posts", tag)
	payload := rest.ListResponse{
		APIVersion: "v1",
		Data:       views,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		Links:      rest.CollectionLinks(basePath, p.Page, p.Limit, total),
	}

	if err := rest.ServeList(c, n, payload, modTimes, h.now); err != nil {
		rest.ServeListError(c, err)
	}
}

// ListUserPosts endpoint GET /api/v1/users/:id/posts. El usuario tiene que
// existir.
func (h *PostHandler) ListUserPosts(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendParamsNotValid(c, "user_id")
		return
	}

	exists, err := h.service.OwnerExists(c.Request.Context(), userID)
	if err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}
	if !exists {
		utils.SendNotFound(c, "user")
		return
	}

	n := rest.NegotiateRequest(c)
	p := rest.ParseListParams(c, "publishDate", "desc")

	ownerID := userID.String()
	posts, err := h.service.ListPosts(c.Request.Context(), domain.PostFilter{OwnerID: &ownerID})
	if err != nil {
		rest.ServeListError(c, err)
		return
	}

	col := domain.NewCollation()
	posts = col.Apply(posts, nil, p)

	modTimes := make([]time.Time, 0, len(posts))
	for _, post := range posts {
		modTimes = append(modTimes, post.PublishDate)
	}

	pageItems, total := rest.Paginate(posts, p.Page, p.Limit)

	views := make([]postView, 0, len(pageItems))
	for _, post := range pageItems {
		views = append(views, postRelatedView(post, n.Locale))
	}

	basePath := fmt.Sprintf("/api/v1/users/%s/posts", userID)
	payload := rest.ListResponse{
		APIVersion: "v1",
		Data:       views,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		Links:      rest.CollectionLinks(basePath, p.Page, p.Limit, total),
	}

	if err := rest.ServeList(c, n, payload, modTimes, h.now); err != nil {
		rest.ServeListError(c, err)
	}
}
