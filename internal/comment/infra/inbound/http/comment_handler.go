package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/sociolab/internal/comment/application"
	"github.com/davicafu/sociolab/internal/comment/domain"
	"github.com/davicafu/sociolab/internal/shared/rest"
	"github.com/davicafu/sociolab/pkg/utils"
)

// CommentHandler encapsula los endpoints HTTP relacionados con Comment
type CommentHandler struct {
	service *application.CommentService
	now     func() time.Time
}

// NewCommentHandler crea un nuevo CommentHandler
func NewCommentHandler(service *application.CommentService) *CommentHandler {
	return &CommentHandler{service: service, now: time.Now}
}

const isoDateTime = "2006-01-02T15:04:05"

// ---------------- Vistas ----------------

type ownerView struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Title     string  `json:"title"`
	Picture   *string `json:"picture"`
}

// commentView representa un comentario en las respuestas. La forma de los
// enlaces varía según el endpoint (mapa en el listado principal, lista en los
// anidados), de ahí el interface{}.
type commentView struct {
	ID          string      `json:"id"`
	Message     string      `json:"message"`
	PostID      string      `json:"post_id"`
	PublishDate *string     `json:"publishDate"`
	Owner       ownerView   `json:"owner"`
	Links       interface{} `json:"links,omitempty"`
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

func baseCommentView(c *domain.Comment) commentView {
	return commentView{
		ID:      c.ID.String(),
		Message: c.Message,
		PostID:  c.PostID.String(),
		Owner:   newOwnerView(c.Owner),
	}
}

// ---------------- Cuerpos de petición ----------------

type commentRequest struct {
	Message string `json:"message" binding:"required"`
	OwnerID string `json:"owner_id" binding:"required"`
	PostID  string `json:"post_id" binding:"required"`
}

// ---------------- Handlers ----------------

// ListComments endpoint GET /api/v1/comments con negociación de contenido,
// filtros, búsqueda sin acentos, orden estable, paginación y caché condicional.
func (h *CommentHandler) ListComments(c *gin.Context) {
	n := rest.NegotiateRequest(c)
	p := rest.ParseListParams(c, "publishDate", "desc")

	var filter domain.CommentFilter
	if v := c.Query("owner_id"); v != "" {
		filter.OwnerID = &v
	}
	if v := c.Query("post_id"); v != "" {
		filter.PostID = &v
	}
	if v := c.Query("publishDate"); v != "" {
		filter.PublishDate = &v
	}

	comments, err := h.service.ListComments(c.Request.Context(), filter)
	if err != nil {
		rest.ServeListError(c, err)
		return
	}

	col := domain.NewCollation()
	comments = col.Apply(comments, nil, p)

	// Last-Modified se calcula sobre la colección filtrada, antes de paginar.
	modTimes := make([]time.Time, 0, len(comments))
	for _, comment := range comments {
		modTimes = append(modTimes, comment.PublishDate)
	}

	pageItems, total := rest.Paginate(comments, p.Page, p.Limit)

	views := make([]commentView, 0, len(pageItems))
	for _, comment := range pageItems {
		view := baseCommentView(comment)
		view.PublishDate = localizedDate(comment.PublishDate, n.Locale)
		view.Links = rest.PageLinks{"self": fmt.Sprintf("/comments/%s", comment.ID)}
		views = append(views, view)
	}

	payload := rest.ListResponse{
		APIVersion: "v1",
		Data:       views,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		Links:      rest.CollectionLinks("/api/v1/comments", p.Page, p.Limit, total),
	}

	if err := rest.ServeList(c, n, payload, modTimes, h.now); err != nil {
		rest.ServeListError(c, err)
	}
}

// GetComment endpoint GET /api/v1/comments/:id
func (h *CommentHandler) GetComment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendParamsNotValid(c, "comment_id")
		return
	}

	comment, err := h.service.GetComment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCommentNotFound) {
			utils.SendNotFound(c, "comment")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	view := baseCommentView(comment)
	view.PublishDate = isoDate(comment.PublishDate)
	utils.SendSuccess(c, http.StatusOK, view)
}

// CreateComment endpoint POST /api/v1/comments. El usuario y el post tienen
// que existir.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBodyNotValid(c, err.Error())
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		utils.SendParamsNotValid(c, "owner_id")
		return
	}
	postID, err := uuid.Parse(req.PostID)
	if err != nil {
		utils.SendParamsNotValid(c, "post_id")
		return
	}

	comment := &domain.Comment{
		Message: req.Message,
		OwnerID: ownerID,
		PostID:  postID,
	}

	created, err := h.service.CreateComment(c.Request.Context(), comment)
	if err != nil {
		if errors.Is(err, domain.ErrParentNotFound) {
			utils.SendNotFound(c, "user or post")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	view := baseCommentView(created)
	view.PublishDate = isoDate(created.PublishDate)
	utils.SendSuccess(c, http.StatusOK, view)
}

// UpdateComment endpoint PUT /api/v1/comments/:id. El owner no se puede
// cambiar; solo se actualiza el mensaje.
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendParamsNotValid(c, "comment_id")
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBodyNotValid(c, err.Error())
		return
	}

	comment, err := h.service.GetComment(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCommentNotFound) {
			utils.SendNotFound(c, "comment")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	if req.OwnerID != comment.OwnerID.String() {
		utils.SendBadRequest(c, "Cannot change owner")
		return
	}

	comment.Message = req.Message

	if err := h.service.UpdateComment(c.Request.Context(), comment); err != nil {
		if errors.Is(err, domain.ErrCommentNotFound) {
			utils.SendNotFound(c, "comment")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	view := baseCommentView(comment)
	view.PublishDate = isoDate(comment.PublishDate)
	utils.SendSuccess(c, http.StatusOK, view)
}

// DeleteComment endpoint DELETE /api/v1/comments/:id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendParamsNotValid(c, "comment_id")
		return
	}

	if err := h.service.DeleteComment(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrCommentNotFound) {
			utils.SendNotFound(c, "comment")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	utils.SendSuccess(c, http.StatusOK, gin.H{"deleted_comment_id": id.String()})
}

// HeadComments endpoint HEAD /api/v1/comments
func (h *CommentHandler) HeadComments(c *gin.Context) {
	c.Status(http.StatusOK)
}

// OptionsComments endpoint OPTIONS /api/v1/comments
func (h *CommentHandler) OptionsComments(c *gin.Context) {
	c.Header("Allow", "GET, POST, PUT, DELETE, HEAD, OPTIONS")
	c.Status(http.StatusOK)
}

// ---------------- Listados anidados ----------------

// ListUserComments endpoint GET /api/v1/users/:id/comments. El usuario tiene
// que existir.
func (h *CommentHandler) ListUserComments(c *gin.Context) {
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

	ownerID := userID.String()
	basePath := fmt.Sprintf("/api/v1/users/%s/comments", userID)
	h.serveNestedComments(c, domain.CommentFilter{OwnerID: &ownerID}, basePath, func(comment *domain.Comment) []rest.Link {
		return []rest.Link{
			{Rel: "self", Href: fmt.Sprintf("/api/v1/comments/%s", comment.ID)},
			{Rel: "post", Href: fmt.Sprintf("/api/v1/posts/%s", comment.PostID)},
		}
	})
}

// ListPostComments endpoint GET /api/v1/posts/:id/comments. El post tiene que
// existir.
func (h *CommentHandler) ListPostComments(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendParamsNotValid(c, "post_id")
		return
	}

	exists, err := h.service.PostExists(c.Request.Context(), postID)
	if err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}
	if !exists {
		utils.SendNotFound(c, "post")
		return
	}

	pid := postID.String()
	basePath := fmt.Sprintf("/api/v1/posts/%s/comments", postID)
	h.serveNestedComments(c, domain.CommentFilter{PostID: &pid}, basePath, func(comment *domain.Comment) []rest.Link {
		return []rest.Link{
			{Rel: "self", Href: fmt.Sprintf("/api/v1/comments/%s", comment.ID)},
			{Rel: "owner", Href: fmt.Sprintf("/api/v1/users/%s", comment.OwnerID)},
		}
	})
}

func (h *CommentHandler) serveNestedComments(c *gin.Context, filter domain.CommentFilter, basePath string, links func(*domain.Comment) []rest.Link) {
	n := rest.NegotiateRequest(c)
	p := rest.ParseListParams(c, "publishDate", "desc")

	comments, err := h.service.ListComments(c.Request.Context(), filter)
	if err != nil {
		rest.ServeListError(c, err)
		return
	}

	col := domain.NewCollation()
	comments = col.Apply(comments, nil, p)

	modTimes := make([]time.Time, 0, len(comments))
	for _, comment := range comments {
		modTimes = append(modTimes, comment.PublishDate)
	}

	pageItems, total := rest.Paginate(comments, p.Page, p.Limit)

	views := make([]commentView, 0, len(pageItems))
	for _, comment := range pageItems {
		view := baseCommentView(comment)
		view.PublishDate = localizedDate(comment.PublishDate, n.Locale)
		view.Links = links(comment)
		views = append(views, view)
	}

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
