package http

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/sociolab/internal/shared/rest"
	"github.com/davicafu/sociolab/internal/user/application"
	"github.com/davicafu/sociolab/internal/user/domain"
	"github.com/davicafu/sociolab/pkg/utils"
)

// UserHandler encapsula los endpoints HTTP relacionados con User
type UserHandler struct {
	service *application.UserService
	now     func() time.Time
}

// NewUserHandler crea un nuevo UserHandler
func NewUserHandler(service *application.UserService) *UserHandler {
	return &UserHandler{service: service, now: time.Now}
}

// timezone con offset tipo +HH:MM o -HH:MM
var timezoneRe = regexp.MustCompile(`^(\+|-)([01]\d|2[0-3]):[0-5]\d$`)

const isoDateTime = "2006-01-02T15:04:05"

// ---------------- Vistas ----------------

type userView struct {
	ID           string           `json:"id"`
	FirstName    string           `json:"firstName"`
	LastName     string           `json:"lastName"`
	Email        string           `json:"email"`
	Title        string           `json:"title"`
	DateOfBirth  *string          `json:"dateOfBirth"`
	RegisterDate *string          `json:"registerDate"`
	Phone        *string          `json:"phone"`
	Picture      *string          `json:"picture"`
	Location     *domain.Location `json:"location"`
	Links        []rest.Link      `json:"links"`
}

func localizedDate(t time.Time, locale string) *string {
	if t.IsZero() {
		return nil
	}
	s := rest.FormatDate(t, locale)
	return &s
}

func optionalLocalizedDate(t *time.Time, locale string) *string {
	if t == nil {
		return nil
	}
	return localizedDate(*t, locale)
}

func isoDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(isoDateTime)
	return &s
}

func optionalISODate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return isoDate(*t)
}

func userCollectionView(u *domain.User, locale string) userView {
	return userView{
		ID:           u.ID.String(),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Title:        u.Title,
		DateOfBirth:  optionalLocalizedDate(u.DateOfBirth, locale),
		RegisterDate: localizedDate(u.RegisterDate, locale),
		Phone:        u.Phone,
		Picture:      u.Picture,
		Location:     u.Location,
		Links: []rest.Link{
			{Rel: "self", Href: fmt.Sprintf("/api/v1/users/%s", u.ID)},
			{Rel: "posts", Href: fmt.Sprintf("/api/v1/users/%s/posts", u.ID)},
		},
	}
}

func userDetailLinks(id uuid.UUID) []rest.Link {
	return []rest.Link{
		{Rel: "self", Href: fmt.Sprintf("/api/v1/users/%s", id)},
		{Rel: "posts", Href: fmt.Sprintf("/api/v1/users/%s/posts", id)},
		{Rel: "comments", Href: fmt.Sprintf("/api/v1/users/%s/comments", id)},
	}
}

// ---------------- Cuerpos de petición ----------------

type userRequest struct {
	FirstName   string           `json:"firstName" binding:"required"`
	LastName    string           `json:"lastName" binding:"required"`
	Email       string           `json:"email" binding:"required,email"`
	Title       string           `json:"title" binding:"required"`
	DateOfBirth *string          `json:"dateOfBirth"` // YYYY-MM-DD
	Phone       *string          `json:"phone"`
	Picture     *string          `json:"picture"`
	Location    *domain.Location `json:"location"`
}

func (r *userRequest) parse(c *gin.Context) (*time.Time, bool) {
	var dateOfBirth *time.Time
	if r.DateOfBirth != nil && *r.DateOfBirth != "" {
		t, err := time.Parse("2006-01-02", *r.DateOfBirth)
		if err != nil {
			utils.SendBodyNotValid(c, "invalid date format, expected YYYY-MM-DD")
			return nil, false
		}
		dateOfBirth = &t
	}
	if r.Location != nil && r.Location.Timezone != "" && !timezoneRe.MatchString(r.Location.Timezone) {
		utils.SendBodyNotValid(c, "timezone must be in format +HH:MM or -HH:MM")
		return nil, false
	}
	return dateOfBirth, true
}

// ---------------- Handlers ----------------

// ListUsers endpoint GET /api/v1/users con negociación de contenido,
// filtros, búsqueda sin acentos, orden estable, paginación y caché condicional.
func (h *UserHandler) ListUsers(c *gin.Context) {
	n := rest.NegotiateRequest(c)
	p := rest.ParseListParams(c, "firstName", "asc")

	var filter domain.UserFilter
	if v := c.Query("firstName"); v != "" {
		filter.FirstName = &v
	}
	if v := c.Query("lastName"); v != "" {
		filter.LastName = &v
	}
	if v := c.Query("email"); v != "" {
		filter.Email = &v
	}

	users, err := h.service.ListUsers(c.Request.Context(), filter)
	if err != nil {
		rest.ServeListError(c, err)
		return
	}

	col := domain.NewCollation()
	users = col.Apply(users, nil, p)

	// Last-Modified se calcula sobre la colección filtrada, antes de paginar.
	modTimes := make([]time.Time, 0, len(users))
	for _, u := range users {
		modTimes = append(modTimes, u.RegisterDate)
	}

	pageItems, total := rest.Paginate(users, p.Page, p.Limit)

	views := make([]userView, 0, len(pageItems))
	for _, u := range pageItems {
		views = append(views, userCollectionView(u, n.Locale))
	}

	payload := rest.ListResponse{
		APIVersion: "v1",
		Data:       views,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		Links:      rest.CollectionLinks("/api/v1/users", p.Page, p.Limit, total),
	}

	if err := rest.ServeList(c, n, payload, modTimes, h.now); err != nil {
		rest.ServeListError(c, err)
	}
}

// GetUser endpoint GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendParamsNotValid(c, "user_id")
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			utils.SendNotFound(c, "user")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	view := userCollectionView(user, rest.LocaleEN)
	view.Links = userDetailLinks(user.ID)
	utils.SendSuccess(c, http.StatusOK, view)
}

// CreateUser endpoint POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBodyNotValid(c, err.Error())
		return
	}

	dateOfBirth, ok := req.parse(c)
	if !ok {
		return
	}

	user := &domain.User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Title:       req.Title,
		DateOfBirth: dateOfBirth,
		Phone:       req.Phone,
		Picture:     req.Picture,
		Location:    req.Location,
	}

	created, err := h.service.CreateUser(c.Request.Context(), user)
	if err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			utils.SendBadRequest(c, "Email already exists")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	view := userCollectionView(created, rest.LocaleEN)
	view.DateOfBirth = optionalISODate(created.DateOfBirth)
	view.RegisterDate = isoDate(created.RegisterDate)
	view.Links = userDetailLinks(created.ID)
	utils.SendSuccess(c, http.StatusOK, view)
}

// UpdateUser endpoint PUT /api/v1/users/:id. El email no se puede cambiar.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendParamsNotValid(c, "user_id")
		return
	}

	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBodyNotValid(c, err.Error())
		return
	}

	dateOfBirth, ok := req.parse(c)
	if !ok {
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			utils.SendNotFound(c, "user")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	if user.Email != req.Email {
		utils.SendBadRequest(c, "Cannot update email")
		return
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Title = req.Title
	user.DateOfBirth = dateOfBirth
	user.Phone = req.Phone
	user.Picture = req.Picture
	user.Location = req.Location

	if err := h.service.UpdateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			utils.SendNotFound(c, "user")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	view := userCollectionView(user, rest.LocaleEN)
	view.DateOfBirth = optionalISODate(user.DateOfBirth)
	view.RegisterDate = isoDate(user.RegisterDate)
	view.Links = userDetailLinks(user.ID)
	utils.SendSuccess(c, http.StatusOK, view)
}

// DeleteUser endpoint DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendParamsNotValid(c, "user_id")
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			utils.SendNotFound(c, "user")
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	utils.SendSuccess(c, http.StatusOK, gin.H{"deleted_user_id": id.String()})
}

// HeadUsers endpoint HEAD /api/v1/users
func (h *UserHandler) HeadUsers(c *gin.Context) {
	c.Status(http.StatusOK)
}

// OptionsUsers endpoint OPTIONS /api/v1/users
func (h *UserHandler) OptionsUsers(c *gin.Context) {
	utils.SendSuccess(c, http.StatusOK, gin.H{
		"methods": []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
	})
}
