package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/nova-jack/novafusion/internal/ratelimit"
	"github.com/nova-jack/novafusion/internal/services"
	"github.com/nova-jack/novafusion/types"
)

const msgEnquiryNotFound = "Enquiry not found"

// EnquiryService is the part of services.EnquiryService the handlers use.
type EnquiryService interface {
	Submit(ctx context.Context, in services.EnquiryInput) (types.Enquiry, error)
	List(ctx context.Context, filter types.ListFilter) ([]types.Enquiry, types.Pagination, error)
	Get(ctx context.Context, id string) (types.Enquiry, error)
	UpdateStatus(ctx context.Context, id string, status types.EnquiryStatus) (types.Enquiry, error)
	Delete(ctx context.Context, id string) error
}

type EnquiryHandler struct {
	service EnquiryService
	limiter ratelimit.Limiter
}

func NewEnquiryHandler(service EnquiryService, limiter ratelimit.Limiter) *EnquiryHandler {
	return &EnquiryHandler{service: service, limiter: limiter}
}

// PublicEnquiryRouter registers the contact form endpoint.
func PublicEnquiryRouter(r chi.Router, h *EnquiryHandler) {
	r.Post("/", h.Submit)
}

// EnquiryRouter registers the admin management routes. The caller mounts
// it behind RequireAuth.
func EnquiryRouter(r chi.Router, h *EnquiryHandler) {
	r.Get("/", h.Get)
	r.Put("/", h.UpdateStatus)
	r.Patch("/", h.UpdateStatus)
	r.Delete("/", h.Delete)
}

// Submit stores a contact form enquiry. Every submission from an address
// counts against its limit, valid or not.
func (h *EnquiryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := zerolog.Ctx(ctx)
	ip := clientIP(r)

	limited, err := h.limiter.IsLimited(ctx, ip)
	if err != nil {
		log.Warn().Err(err).Msg("enquiry rate limit check failed")
	}
	if limited {
		writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}
	if err := h.limiter.RecordAttempt(ctx, ip); err != nil {
		log.Warn().Err(err).Msg("record enquiry attempt")
	}

	var in services.EnquiryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	enquiry, err := h.service.Submit(ctx, in)
	if err != nil {
		writeServiceError(w, r, err, msgEnquiryNotFound)
		return
	}
	log.Info().Str("enquiry_id", enquiry.ID).Str("source", enquiry.Source).Msg("enquiry received")
	writeSuccess(w, http.StatusCreated, map[string]any{"id": enquiry.ID}, "Your enquiry has been submitted successfully")
}

// Get returns one enquiry when id is given, otherwise a page.
func (h *EnquiryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		enquiry, err := h.service.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err, msgEnquiryNotFound)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"enquiry": enquiry}, "")
		return
	}

	items, page, err := h.service.List(r.Context(), listFilter(r))
	if err != nil {
		writeServiceError(w, r, err, msgEnquiryNotFound)
		return
	}
	if items == nil {
		items = []types.Enquiry{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{"enquiries": items, "pagination": page}, "")
}

type UpdateEnquiryRequest struct {
	ID     string              `json:"id"`
	Status types.EnquiryStatus `json:"status"`
}

func (h *EnquiryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateEnquiryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if req.ID == "" {
		req.ID = r.URL.Query().Get("id")
	}

	enquiry, err := h.service.UpdateStatus(r.Context(), req.ID, req.Status)
	if err != nil {
		writeServiceError(w, r, err, msgEnquiryNotFound)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"enquiry": enquiry}, "Enquiry updated successfully")
}

func (h *EnquiryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), targetID(w, r)); err != nil {
		writeServiceError(w, r, err, msgEnquiryNotFound)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "Enquiry deleted successfully")
}
