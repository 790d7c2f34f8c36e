package booking

import (
	"github.com/gin-gonic/gin"

	"github.com/campuswell/wellness-api/internal/middleware"
	"github.com/campuswell/wellness-api/internal/model"
	bookingService "github.com/campuswell/wellness-api/internal/service/booking"
	"github.com/campuswell/wellness-api/pkg/auth"
	apperrors "github.com/campuswell/wellness-api/pkg/errors"
	"github.com/campuswell/wellness-api/pkg/httputil"
)

type Handler struct {
	service *bookingService.Service
}

func NewHandler(service *bookingService.Service) *Handler {
	return &Handler{service: service}
}

func callerIdentity(c *gin.Context) bookingService.Identity {
	return bookingService.Identity{
		Email: c.GetString(middleware.ContextUserEmail),
		Admin: c.GetString(middleware.ContextUserRole) == auth.RoleAdmin,
	}
}

// CreateBooking books a slot for the caller with their intake answers
func (h *Handler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	b, err := h.service.Book(c.Request.Context(), callerIdentity(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, b)
}

// GetBooking returns one detail record (owner or admin)
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.service.Get(c.Request.Context(), callerIdentity(c), c.Param("date"), c.Param("time"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, b)
}

// ListBookings returns the caller's booking history
func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.service.History(c.Request.Context(), callerIdentity(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, bookings)
}

// CancelBooking releases the caller's booked slot
func (h *Handler) CancelBooking(c *gin.Context) {
	err := h.service.Cancel(c.Request.Context(), callerIdentity(c), c.Param("date"), c.Param("time"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, nil)
}

// UpdateStatus confirms or declines a booking (admin)
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req model.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	err := h.service.UpdateStatus(c.Request.Context(), c.Param("date"), c.Param("time"), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, nil)
}

// ListAllBookings returns every detail record (admin dashboard)
func (h *Handler) ListAllBookings(c *gin.Context) {
	bookings, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, bookings)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:date/:time", h.GetBooking)
		bookings.DELETE("/:date/:time", h.CancelBooking)
	}
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/appointments", h.ListAllBookings)
	rg.PATCH("/bookings/:date/:time/status", h.UpdateStatus)
}
