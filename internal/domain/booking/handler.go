package booking

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbook/medbook/internal/domain/scheduling"
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
	bookings := g.Group("/bookings", auth.RequireUser())
	bookings.POST("", h.Create)
	bookings.GET("", h.ListMine)
	bookings.GET("/admin/all", h.ListAll, auth.RequireRole(auth.RoleAdmin))
	bookings.GET("/:id", h.Get)
	bookings.POST("/:id/cancel", h.Cancel)
	bookings.GET("/:id/queue", h.Queue)
}

type createRequest struct {
	AppointmentID string `json:"appointmentId"`
	DoctorID      string `json:"doctorId"`
	SpecialtyID   string `json:"specialtyId"`
	Date          string `json:"date"`
	TimeSlot      string `json:"timeSlot"`
	PatientID     string `json:"patientId"`
	Symptoms      string `json:"symptoms"`
	Fee           *int64 `json:"fee"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	in := CreateInput{
		Symptoms: req.Symptoms,
		Fee:      req.Fee,
		Slot:     scheduling.Coordinates{Date: req.Date, TimeSlot: req.TimeSlot},
	}
	var err error
	if in.SlotID, err = parseOptional(req.AppointmentID, "appointmentId"); err != nil {
		return err
	}
	if in.PatientID, err = parseOptional(req.PatientID, "patientId"); err != nil {
		return err
	}
	if in.Slot.DoctorID, err = parseOptional(req.DoctorID, "doctorId"); err != nil {
		return err
	}
	if in.Slot.SpecialtyID, err = parseOptional(req.SpecialtyID, "specialtyId"); err != nil {
		return err
	}

	ctx := c.Request().Context()
	in.RequesterID = auth.UserIDFromContext(ctx)
	b, err := h.svc.CreateBooking(ctx, in)
	if err != nil {
		return err
	}
	return api.Created(c, b, "booking confirmed")
}

func (h *Handler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.ListMine(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Booking{}
	}
	return api.OK(c, items)
}

func (h *Handler) ListAll(c echo.Context) error {
	page, err := h.svc.ListAll(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return err
	}
	return api.OK(c, page)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid booking id")
	}
	ctx := c.Request().Context()
	b, err := h.svc.GetBooking(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return api.OK(c, b)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid booking id")
	}
	ctx := c.Request().Context()
	b, err := h.svc.CancelBooking(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return api.OK(c, b)
}

func (h *Handler) Queue(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid booking id")
	}
	ctx := c.Request().Context()
	info, err := h.svc.GetQueueInfo(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return api.OK(c, info)
}

func parseOptional(v, field string) (uuid.UUID, error) {
	if v == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s", field)
	}
	return id, nil
}
