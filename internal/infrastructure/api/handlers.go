package api

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/weirdqq-coder/troyyon/internal/application/services"
	"github.com/weirdqq-coder/troyyon/internal/application/session"
	"github.com/weirdqq-coder/troyyon/internal/application/usecases"
	"github.com/weirdqq-coder/troyyon/internal/domain"
	"github.com/weirdqq-coder/troyyon/internal/domain/entities"
	"github.com/weirdqq-coder/troyyon/internal/domain/repositories"
	"github.com/weirdqq-coder/troyyon/internal/domain/valueobjects"
)

// multipart framing on top of the file itself
const multipartOverhead = 1 << 20

type TryOnHandler struct {
	tryOnUseCase     *usecases.TryOnUseCase
	ingestUseCase    *usecases.IngestUseCase
	parameterService *services.ParameterService
	sessions         *SessionManager
	maxUploadBytes   int64
}

func NewTryOnHandler(
	tryOnUseCase *usecases.TryOnUseCase,
	ingestUseCase *usecases.IngestUseCase,
	parameterService *services.ParameterService,
	sessions *SessionManager,
	maxUploadBytes int64,
) *TryOnHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = usecases.DefaultMaxImageBytes
	}
	return &TryOnHandler{
		tryOnUseCase:     tryOnUseCase,
		ingestUseCase:    ingestUseCase,
		parameterService: parameterService,
		sessions:         sessions,
		maxUploadBytes:   maxUploadBytes,
	}
}

// NewRouter registers every route served by the try-on web app.
func NewRouter(h *TryOnHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", h.HandleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HandleHealth).Methods(http.MethodGet)
	r.HandleFunc("/tryon", h.HandleTryOn).Methods(http.MethodPost)
	r.HandleFunc("/ws", h.HandleWebSocket).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/state", h.HandleState).Methods(http.MethodGet)
	apiRouter.HandleFunc("/images/{role}", h.HandleSelectImage).Methods(http.MethodPost)
	apiRouter.HandleFunc("/images/{role}", h.HandleClearImage).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/generate", h.HandleGenerate).Methods(http.MethodPost)
	apiRouter.HandleFunc("/history/{id}", h.HandleHistory).Methods(http.MethodGet)
	return r
}

func (h *TryOnHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// HandleTryOn is the stateless one-shot endpoint: both images in one form,
// result in the response.
func (h *TryOnHandler) HandleTryOn(w http.ResponseWriter, r *http.Request) {
	limit := 2*h.maxUploadBytes + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		h.sendFormError(w, err)
		return
	}

	subject, err := h.ingestFormFile(r, "person_image")
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	garment, err := h.ingestFormFile(r, "garment_image")
	if err != nil {
		h.sendDomainError(w, err)
		return
	}

	output, err := h.tryOnUseCase.Execute(r.Context(), usecases.TryOnInput{
		Subject:    subject,
		Garment:    garment,
		Parameters: h.parameterService.ParseFromRequest(r),
	})
	if err != nil {
		log.Warn().Err(err).Msg("virtual try-on failed")
		h.sendDomainError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store, max-age=0")
	h.sendJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"requestId": output.RequestID,
		"image": map[string]string{
			"data":    output.Image.EncodedData(),
			"type":    output.Image.Format(),
			"dataUrl": output.Image.DisplayableForm(),
		},
		"text": output.Text,
	})
}

// ingestFormFile reads one multipart file. A missing field is a precondition
// failure; an unreadable file is an ingestion failure.
func (h *TryOnHandler) ingestFormFile(r *http.Request, field string) (*valueobjects.NormalizedImage, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, domain.NewPreconditionError()
	}
	defer file.Close()
	return h.ingestUseCase.Ingest(r.Context(), file, header.Header.Get("Content-Type"))
}

func (h *TryOnHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id := entities.TryOnRequestID(mux.Vars(r)["id"])
	record, err := h.tryOnUseCase.History(r.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		h.sendError(w, "no history for this request", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("request_id", string(id)).Msg("history lookup failed")
		h.sendError(w, "history is unavailable", http.StatusServiceUnavailable)
		return
	}
	h.sendJSON(w, http.StatusOK, record)
}

func (h *TryOnHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	controller := h.sessions.FromRequest(w, r)
	h.sendState(w, http.StatusOK, controller.State())
}

func (h *TryOnHandler) HandleSelectImage(w http.ResponseWriter, r *http.Request) {
	role, err := session.ParseRole(mux.Vars(r)["role"])
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	controller := h.sessions.FromRequest(w, r)

	limit := h.maxUploadBytes + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			// the failure still goes through the controller so LastError is set
			controller.SelectImage(r.Context(), role, failingReader{err: err}, "")
			h.sendState(w, http.StatusRequestEntityTooLarge, controller.State())
			return
		}
	}

	var (
		file      multipart.File
		mediaType string
	)
	if f, header, err := r.FormFile("file"); err == nil {
		defer f.Close()
		file, mediaType = f, header.Header.Get("Content-Type")
	}

	status := http.StatusOK
	// a nil file still goes through the controller so the failure lands in state
	if err := controller.SelectImage(r.Context(), role, file, mediaType); err != nil {
		status = http.StatusBadRequest
	}
	h.sendState(w, status, controller.State())
}

func (h *TryOnHandler) HandleClearImage(w http.ResponseWriter, r *http.Request) {
	role, err := session.ParseRole(mux.Vars(r)["role"])
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	controller := h.sessions.FromRequest(w, r)
	controller.ClearImage(role)
	h.sendState(w, http.StatusOK, controller.State())
}

// HandleGenerate starts a generation and returns immediately; the outcome
// reaches the page over the websocket or by polling /api/state.
func (h *TryOnHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	controller := h.sessions.FromRequest(w, r)

	_, err := controller.StartGenerate(r.Context())
	switch {
	case err == nil:
		h.sendState(w, http.StatusAccepted, controller.State())
	case errors.Is(err, session.ErrInFlight):
		h.sendState(w, http.StatusConflict, controller.State())
	default:
		h.sendState(w, http.StatusOK, controller.State())
	}
}

func (h *TryOnHandler) sendState(w http.ResponseWriter, status int, state session.State) {
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	h.sendJSON(w, status, state.View())
}

func (h *TryOnHandler) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (h *TryOnHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	h.sendJSON(w, statusCode, map[string]string{"error": message})
}

func (h *TryOnHandler) sendFormError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.sendError(w, "image is too large", http.StatusRequestEntityTooLarge)
		return
	}
	h.sendError(w, "invalid multipart form", http.StatusBadRequest)
}

func (h *TryOnHandler) sendDomainError(w http.ResponseWriter, err error) {
	h.sendError(w, domain.Message(err), statusForError(err))
}

func statusForError(err error) int {
	var de *domain.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Kind {
	case domain.KindIngestion, domain.KindPrecondition:
		return http.StatusBadRequest
	case domain.KindNoResult:
		return http.StatusUnprocessableEntity
	case domain.KindTransport:
		return http.StatusBadGateway
	case domain.KindRemote:
		if de.Message == domain.QuotaMessage {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// failingReader hands a request-level read failure to ingestion.
type failingReader struct {
	err error
}

func (f failingReader) Read([]byte) (int, error) {
	return 0, f.err
}
