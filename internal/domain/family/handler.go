package family

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbook/medbook/internal/platform/api"
	"github.com/medbook/medbook/internal/platform/apperr"
	"github.com/medbook/medbook/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	members := g.Group("/family-members", auth.RequireUser())
	members.GET("", h.List)
	members.POST("", h.Create)
	members.GET("/:id", h.Get)
}

type createRequest struct {
	FullName     string `json:"fullName"`
	DateOfBirth  string `json:"dateOfBirth"`
	Gender       string `json:"gender"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	m := &Member{
		UserID:       auth.UserIDFromContext(c.Request().Context()),
		FullName:     req.FullName,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
		Relationship: req.Relationship,
		Phone:        req.Phone,
		Address:      req.Address,
	}
	if err := h.svc.Create(c.Request().Context(), m); err != nil {
		return err
	}
	return api.Created(c, m, "family member added")
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.ListByOwner(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Member{}
	}
	return api.OK(c, items)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid family member id")
	}
	ctx := c.Request().Context()
	m, err := h.svc.GetOwned(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return api.OK(c, m)
}
