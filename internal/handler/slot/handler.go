package slot

import (
	"github.com/gin-gonic/gin"

	"github.com/campuswell/wellness-api/internal/model"
	slotService "github.com/campuswell/wellness-api/internal/service/slot"
	apperrors "github.com/campuswell/wellness-api/pkg/errors"
	"github.com/campuswell/wellness-api/pkg/httputil"
	"github.com/campuswell/wellness-api/pkg/validator"
)

type Handler struct {
	service  *slotService.Service
	validate *validator.Validator
}

func NewHandler(service *slotService.Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// GetCalendar returns the coarse availability signal per upcoming date
func (h *Handler) GetCalendar(c *gin.Context) {
	calendar, err := h.service.Calendar(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, calendar)
}

// GetSchedule returns every offered label of a date with its status
func (h *Handler) GetSchedule(c *gin.Context) {
	schedule, err := h.service.Schedule(c.Request.Context(), c.Param("date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, schedule)
}

// GetBookableSlots returns the labels still open to the requester
func (h *Handler) GetBookableSlots(c *gin.Context) {
	slots, err := h.service.BookableSlots(c.Request.Context(), c.Param("date"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

// AddSlots offers new time labels on a date (admin)
func (h *Handler) AddSlots(c *gin.Context) {
	var req model.AddSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	added, err := h.service.AddSlots(c.Request.Context(), c.Param("date"), req.Times)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, gin.H{"added": added})
}

// RemoveSlot withdraws an unbooked label from a date (admin)
func (h *Handler) RemoveSlot(c *gin.Context) {
	err := h.service.RemoveSlot(c.Request.Context(), c.Param("date"), c.Param("time"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, nil)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/calendar", h.GetCalendar)

	slots := rg.Group("/slots")
	{
		slots.GET("/:date", h.GetSchedule)
		slots.GET("/:date/bookable", h.GetBookableSlots)
	}
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	slots := rg.Group("/slots")
	{
		slots.POST("/:date", h.AddSlots)
		slots.DELETE("/:date/:time", h.RemoveSlot)
	}
}
