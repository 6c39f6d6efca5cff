package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"net/http"
	"strings"
	"time"

	"magnetix/ticket-service/internal/models"
	"magnetix/ticket-service/internal/storage"
	"magnetix/ticket-service/internal/store"
)

// PDFRenderer exports a ticket's visual layout as a single-page PDF.
type PDFRenderer interface {
	Render(ctx context.Context, ticket models.Ticket, cfg models.TicketConfig) ([]byte, error)
}

type Handler struct {
	store        store.TicketStore
	logos        storage.ObjectStorage
	pdf          PDFRenderer
	maxLogoBytes int64
}

type Options struct {
	MaxLogoBytes int64
}

const defaultMaxLogoBytes = 2 << 20

func NewHandler(st store.TicketStore, logos storage.ObjectStorage, pdf PDFRenderer, options Options) *Handler {
	maxLogo := options.MaxLogoBytes
	if maxLogo <= 0 {
		maxLogo = defaultMaxLogoBytes
	}
	return &Handler{
		store:        st,
		logos:        logos,
		pdf:          pdf,
		maxLogoBytes: maxLogo,
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.Handle("/metrics", expvar.Handler())
	mux.HandleFunc("/api/tickets", h.handleTickets)
	mux.HandleFunc("/api/tickets/stats", h.handleStats)
	mux.HandleFunc("/api/tickets/", h.handleTicketSub)
	mux.HandleFunc("/verify/", h.handleVerify)
	mux.HandleFunc("/api/config", h.handleConfig)
	mux.HandleFunc("/api/config/logo", h.handleLogo)
	mux.HandleFunc("/api/auth/sync", h.handleAuthSync)
	mux.HandleFunc("/api/auth/me", h.handleAuthMe)
	mux.HandleFunc("/api/auth/logout", h.handleAuthLogout)
	return h.withSession(mux)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type createTicketRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

func (h *Handler) handleTickets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreateTicket(w, r)
	case http.MethodGet:
		h.handleListTickets(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req createTicketRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)

	if req.CustomerName == "" || req.CustomerEmail == "" || req.CustomerPhone == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "customer_name, customer_email, and customer_phone are required")
		return
	}

	ticket, err := h.store.CreateTicket(r.Context(), store.CreateTicketInput{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, ticket)
}

func (h *Handler) handleListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.store.ListTickets(r.Context())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	stats, err := h.store.GetTicketStats(r.Context())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleTicketSub(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/tickets/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		h.handleGetTicket(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "pay":
		h.handlePayTicket(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "pdf":
		h.handleTicketPDF(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleGetTicket(w http.ResponseWriter, r *http.Request, ticketID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ticket, found, err := h.store.GetTicket(r.Context(), ticketID)
	if err != nil && !errors.Is(err, store.ErrTicketNotFound) {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "ticket_not_found", "ticket not found")
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// handleVerify serves the scannable-code landing lookup. It is public:
// viewing a ticket never requires the access password.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ticketID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/verify/"), "/")
	if ticketID == "" || strings.Contains(ticketID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.handleGetTicket(w, r, ticketID)
}

type payTicketRequest struct {
	AccessPassword string `json:"access_password"`
}

func (h *Handler) handlePayTicket(w http.ResponseWriter, r *http.Request, ticketID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req payTicketRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	req.AccessPassword = strings.TrimSpace(req.AccessPassword)
	if req.AccessPassword == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "access_password is required")
		return
	}

	// Attribution is best effort: an authenticated session sets paid_by,
	// its absence never blocks the confirmation.
	var userID *string
	if user, ok := userFromContext(r.Context()); ok {
		userID = &user.ID
	}

	ticket, err := h.store.MarkTicketPaid(r.Context(), store.MarkPaidInput{
		TicketID:       ticketID,
		UserID:         userID,
		AccessPassword: req.AccessPassword,
		PaidAt:         time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, ticket)
}

func (h *Handler) handleTicketPDF(w http.ResponseWriter, r *http.Request, ticketID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ticket, found, err := h.store.GetTicket(r.Context(), ticketID)
	if err != nil && !errors.Is(err, store.ErrTicketNotFound) {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "ticket_not_found", "ticket not found")
		return
	}

	cfg, err := h.store.GetConfig(r.Context())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	data, err := h.pdf.Render(r.Context(), ticket, cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export_failed", "ticket export failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="ticket-`+ticket.ID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, err := h.store.GetConfig(r.Context())
		if err != nil {
			status, code, msg := mapError(err)
			writeError(w, status, code, msg)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	case http.MethodPut:
		h.handleSaveConfig(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.TicketConfig
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	cfg.PrimaryColor = strings.TrimSpace(cfg.PrimaryColor)
	cfg.SecondaryColor = strings.TrimSpace(cfg.SecondaryColor)
	cfg.CompanyName = strings.TrimSpace(cfg.CompanyName)
	cfg.AccessPassword = strings.TrimSpace(cfg.AccessPassword)

	if cfg.PrimaryColor == "" || cfg.SecondaryColor == "" || cfg.CompanyName == "" || cfg.AccessPassword == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "primary_color, secondary_color, company_name, and access_password are required")
		return
	}

	saved, err := h.store.SaveConfig(r.Context(), cfg)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) handleLogo(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleUploadLogo(w, r)
	case http.MethodDelete:
		h.handleDeleteLogo(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	// Type and size are rejected here, before the storage client is
	// ever invoked.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxLogoBytes+512*1024)
	if err := r.ParseMultipartForm(h.maxLogoBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_logo", "logo upload too large or malformed")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "invalid_logo", "logo must be an image")
		return
	}
	if header.Size > h.maxLogoBytes {
		writeError(w, http.StatusBadRequest, "invalid_logo", "logo must be 2MB or smaller")
		return
	}

	url, err := h.logos.Upload(r.Context(), header.Filename, contentType, header.Size, file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "logo upload failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

type deleteLogoRequest struct {
	LogoURL string `json:"logo_url"`
}

func (h *Handler) handleDeleteLogo(w http.ResponseWriter, r *http.Request) {
	var req deleteLogoRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	req.LogoURL = strings.TrimSpace(req.LogoURL)
	if req.LogoURL == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "logo_url is required")
		return
	}

	if err := h.logos.Remove(r.Context(), req.LogoURL); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "logo removal failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type syncUserRequest struct {
	ExternalID string  `json:"external_id"`
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	ImageURL   *string `json:"image_url"`
}

type syncUserResponse struct {
	User    models.User    `json:"user"`
	Session models.Session `json:"session"`
}

func (h *Handler) handleAuthSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req syncUserRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	if req.ExternalID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "external_id is required")
		return
	}

	user, session, err := h.store.SyncUser(r.Context(), store.SyncUserInput{
		ExternalID: req.ExternalID,
		Username:   strings.TrimSpace(req.Username),
		Email:      strings.TrimSpace(req.Email),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, syncUserResponse{User: user, Session: session})
}

func (h *Handler) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid session")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
		return
	}
	if err := h.store.DeleteSession(r.Context(), sessionID); err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrTicketNotFound):
		return http.StatusNotFound, "ticket_not_found", "ticket not found"
	case errors.Is(err, store.ErrAlreadyPaid):
		return http.StatusConflict, "already_paid", "ticket already paid"
	case errors.Is(err, store.ErrUnauthorized):
		return http.StatusUnauthorized, "invalid_password", "Contraseña de acceso incorrecta"
	case errors.Is(err, store.ErrSessionNotFound):
		return http.StatusUnauthorized, "unauthorized", "invalid session"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
