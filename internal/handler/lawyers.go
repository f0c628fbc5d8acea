package handler

import (
	"net/http"
	"strings"

	"github.com/justicehub/platform/internal/middleware"
	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/internal/service"
)

// LawyerHandler handles the lawyer directory and lawyer-owned endpoints.
type LawyerHandler struct {
	lawyers       *service.LawyerService
	search        *service.SearchService
	assistant     *service.LawyerAssistant
	appointments  *service.AppointmentService
	consultations *service.ConsultationService
}

// NewLawyerHandler creates a new lawyer handler.
func NewLawyerHandler(
	lawyers *service.LawyerService,
	search *service.SearchService,
	assistant *service.LawyerAssistant,
	appointments *service.AppointmentService,
	consultations *service.ConsultationService,
) *LawyerHandler {
	return &LawyerHandler{
		lawyers:       lawyers,
		search:        search,
		assistant:     assistant,
		appointments:  appointments,
		consultations: consultations,
	}
}

// List handles GET /api/v1/lawyers
func (h *LawyerHandler) List(w http.ResponseWriter, r *http.Request) {
	lawyers, err := h.lawyers.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch lawyers")
		return
	}
	writeJSON(w, http.StatusOK, lawyers)
}

// Get handles GET /api/v1/lawyers/{id}
func (h *LawyerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lawyer ID")
		return
	}

	lawyer, err := h.lawyers.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch lawyer")
		return
	}
	writeJSON(w, http.StatusOK, lawyer)
}

// Search handles POST /api/v1/lawyers/search
func (h *LawyerHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req model.SearchLawyersRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lawyers, err := h.search.Search(r.Context(), req.Query)
	if err != nil {
		writeServiceError(w, r, err, "failed to process search query")
		return
	}
	writeJSON(w, http.StatusOK, lawyers)
}

// Consultations handles GET /api/v1/lawyers/{id}/consultations
func (h *LawyerHandler) Consultations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lawyer ID")
		return
	}

	out, err := h.consultations.List(ctx, middleware.GetUserID(ctx), id, r.URL.Query().Get("status"), true)
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch consultations")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Assistant handles POST /api/v1/lawyers/{id}/assistant
func (h *LawyerHandler) Assistant(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lawyer ID")
		return
	}

	var req model.AssistantRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.assistant.Reply(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, r, err, "failed to generate response")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Register handles POST /api/v1/lawyer/register
func (h *LawyerHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.RegisterLawyerRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lawyer, err := h.lawyers.Register(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		writeServiceError(w, r, err, "failed to register lawyer")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Lawyer registered successfully",
		"lawyer":  lawyer,
	})
}

// Dashboard handles GET /api/v1/lawyer
func (h *LawyerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := h.lawyers.Dashboard(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch lawyer data")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Upsert handles POST /api/v1/lawyer
func (h *LawyerHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.RegisterLawyerRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lawyer, created, err := h.lawyers.Upsert(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		writeServiceError(w, r, err, "failed to save lawyer profile")
		return
	}

	status, verb := http.StatusOK, "updated"
	if created {
		status, verb = http.StatusCreated, "created"
	}
	writeJSON(w, status, map[string]interface{}{
		"message": "Lawyer profile " + verb + " successfully",
		"lawyer":  lawyer,
	})
}

// Appointments handles GET /api/v1/lawyer/appointments
func (h *LawyerHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, err := h.appointments.ListForLawyer(ctx, middleware.GetUserID(ctx), strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch appointments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": out,
	})
}

// UpdateAppointment handles PUT /api/v1/lawyer/appointments
func (h *LawyerHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.UpdateAppointmentStatusRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.appointments.UpdateStatus(ctx, middleware.GetUserID(ctx), req.AppointmentID, req.Status)
	if err != nil {
		writeServiceError(w, r, err, "failed to update appointment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Appointment updated successfully",
		"appointment": a,
	})
}

// UpdateConsultation handles PUT /api/v1/lawyer/consultations
func (h *LawyerHandler) UpdateConsultation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.UpdateConsultationStatusRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.consultations.UpdateStatus(ctx, middleware.GetUserID(ctx), req.ConsultationID, req.Status)
	if err != nil {
		writeServiceError(w, r, err, "failed to update consultation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Consultation updated successfully",
		"consultation": c,
	})
}
