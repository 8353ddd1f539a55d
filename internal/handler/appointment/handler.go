package appointment

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-rbac/internal/handler"
	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/service/appointment"
	"github.com/jwalitptl/clinic-rbac/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects r to be behind authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", h.DeleteAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appt, err := h.service.Create(c.Request.Context(), p, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, appt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appts, err := h.service.List(c.Request.Context(), p, c.Query("status"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appts)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appt, err := h.service.Get(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	appt, err := h.service.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	p, err := handler.Principal(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	id, err := handler.ParseID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), p, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, "appointment deleted")
}
