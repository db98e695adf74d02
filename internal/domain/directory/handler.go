package directory

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbook/medbook/internal/platform/api"
	"github.com/medbook/medbook/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the read-only directory. Any authenticated caller
// may browse it.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/specialties", h.ListSpecialties)
	api.GET("/specialties/:id", h.GetSpecialty)
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)
}

func (h *Handler) ListSpecialties(c echo.Context) error {
	items, err := h.svc.ListSpecialties(c.Request().Context())
	if err != nil {
		return err
	}
	return api.OK(c, nonNil(items))
}

func (h *Handler) GetSpecialty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid specialty id")
	}
	sp, err := h.svc.GetSpecialty(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return api.OK(c, sp)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	var f DoctorFilter
	if v := c.QueryParam("specialtyId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperr.Validation("invalid specialtyId")
		}
		f.SpecialtyID = id
	}
	f.Title = c.QueryParam("title")
	f.Search = c.QueryParam("search")

	items, err := h.svc.ListDoctors(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return api.OK(c, nonNil(items))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid doctor id")
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return api.OK(c, d)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
