package handler

import (
	"net/http"
	"strconv"

	"github.com/justicehub/platform/internal/middleware"
	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/internal/service"
)

// BookingHandler handles the user side of appointments and consultations.
type BookingHandler struct {
	appointments  *service.AppointmentService
	consultations *service.ConsultationService
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(appointments *service.AppointmentService, consultations *service.ConsultationService) *BookingHandler {
	return &BookingHandler{
		appointments:  appointments,
		consultations: consultations,
	}
}

// BookAppointment handles POST /api/v1/appointments
func (h *BookingHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.BookAppointmentRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.appointments.Book(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		writeServiceError(w, r, err, "failed to book appointment")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ListAppointments handles GET /api/v1/appointments
func (h *BookingHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, err := h.appointments.ListForUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch appointments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": out,
	})
}

// BookConsultation handles POST /api/v1/consultations
func (h *BookingHandler) BookConsultation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.BookConsultationRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.consultations.Book(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		writeServiceError(w, r, err, "failed to create consultation")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListConsultations handles GET /api/v1/consultations
func (h *BookingHandler) ListConsultations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var lawyerID uint
	if raw := q.Get("lawyerId"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 0)
		if err != nil || n == 0 {
			writeError(w, http.StatusBadRequest, "invalid lawyerId")
			return
		}
		lawyerID = uint(n)
	}

	out, err := h.consultations.List(ctx, middleware.GetUserID(ctx), lawyerID, q.Get("status"), false)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch consultations")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetConsultation handles GET /api/v1/consultations/{id}
func (h *BookingHandler) GetConsultation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid consultation ID")
		return
	}

	c, err := h.consultations.Get(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch consultation")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// PatchConsultation handles PATCH /api/v1/consultations/{id}
func (h *BookingHandler) PatchConsultation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid consultation ID")
		return
	}

	var req model.PatchConsultationRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.consultations.Update(ctx, middleware.GetUserID(ctx), id, &req)
	if err != nil {
		writeServiceError(w, r, err, "failed to update consultation")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CancelConsultation handles DELETE /api/v1/consultations/{id}
func (h *BookingHandler) CancelConsultation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid consultation ID")
		return
	}

	if _, err := h.consultations.Cancel(ctx, middleware.GetUserID(ctx), id); err != nil {
		writeServiceError(w, r, err, "failed to cancel consultation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
