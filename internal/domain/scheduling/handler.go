package scheduling

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbook/medbook/internal/platform/api"
	"github.com/medbook/medbook/internal/platform/apperr"
	"github.com/medbook/medbook/internal/platform/auth"
	"github.com/medbook/medbook/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	// Any authenticated caller may look for open slots.
	g.GET("/appointments/available", h.ListAvailable)

	admin := g.Group("/appointments", auth.RequireRole(auth.RoleAdmin))
	admin.GET("", h.ListSlots)
	admin.GET("/:id", h.GetSlot)
	admin.POST("", h.CreateSlot)
	admin.PUT("/:id", h.UpdateSlot)
	admin.DELETE("/:id", h.DeleteSlot)
}

type createSlotRequest struct {
	DoctorID    string `json:"doctorId"`
	SpecialtyID string `json:"specialtyId"`
	Date        string `json:"date"`
	TimeSlot    string `json:"timeSlot"`
	Room        string `json:"room"`
	Building    string `json:"building"`
	MaxPatients int    `json:"maxPatients"`
}

func (h *Handler) CreateSlot(c echo.Context) error {
	var req createSlotRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	doctorID, err := optionalUUID(req.DoctorID, "doctorId")
	if err != nil {
		return err
	}
	specialtyID, err := optionalUUID(req.SpecialtyID, "specialtyId")
	if err != nil {
		return err
	}

	slot, err := h.svc.CreateSlot(c.Request().Context(), CreateSlotInput{
		DoctorID:    doctorID,
		SpecialtyID: specialtyID,
		Date:        req.Date,
		TimeSlot:    req.TimeSlot,
		Room:        req.Room,
		Building:    req.Building,
		MaxCapacity: req.MaxPatients,
	})
	if err != nil {
		return err
	}
	return api.Created(c, slot, "appointment slot created")
}

func (h *Handler) GetSlot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid appointment id")
	}
	slot, err := h.svc.GetSlot(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return api.OK(c, slot)
}

func (h *Handler) UpdateSlot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid appointment id")
	}
	var patch SlotPatch
	if err := c.Bind(&patch); err != nil {
		return apperr.Validation("invalid request body")
	}
	slot, err := h.svc.UpdateSlot(c.Request().Context(), id, patch)
	if err != nil {
		return err
	}
	return api.OK(c, slot)
}

func (h *Handler) DeleteSlot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid appointment id")
	}
	if err := h.svc.DeleteSlot(c.Request().Context(), id); err != nil {
		return err
	}
	return api.Message(c, "appointment slot deleted")
}

func (h *Handler) ListAvailable(c echo.Context) error {
	specialtyID, err := optionalUUID(c.QueryParam("specialtyId"), "specialtyId")
	if err != nil {
		return err
	}
	doctorID, err := optionalUUID(c.QueryParam("doctorId"), "doctorId")
	if err != nil {
		return err
	}
	items, err := h.svc.ListAvailable(c.Request().Context(), AvailabilityQuery{
		SpecialtyID: specialtyID,
		Date:        c.QueryParam("date"),
		DoctorID:    doctorID,
		DoctorTitle: c.QueryParam("title"),
	})
	if err != nil {
		return err
	}
	return api.OK(c, items)
}

func (h *Handler) ListSlots(c echo.Context) error {
	var f SlotFilter
	var err error
	if f.DoctorID, err = optionalUUID(c.QueryParam("doctorId"), "doctorId"); err != nil {
		return err
	}
	if f.SpecialtyID, err = optionalUUID(c.QueryParam("specialtyId"), "specialtyId"); err != nil {
		return err
	}
	f.Date = c.QueryParam("date")

	page, err := h.svc.ListSlots(c.Request().Context(), f, pagination.FromContext(c))
	if err != nil {
		return err
	}
	return api.OK(c, page)
}

// optionalUUID parses v, treating "" as uuid.Nil.
func optionalUUID(v, field string) (uuid.UUID, error) {
	if v == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s", field)
	}
	return id, nil
}
