package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yegors/complaint-desk/internal/complaints"
	"github.com/yegors/complaint-desk/internal/config"
	"github.com/yegors/complaint-desk/internal/report"
	"github.com/yegors/complaint-desk/internal/storage/sqlite"
	"github.com/yegors/complaint-desk/internal/templating"
	"github.com/yegors/complaint-desk/pkg/logger"
)

// Processor runs an upload through the complaint pipeline
type Processor interface {
	Process(ctx context.Context, upload complaints.Upload) (*complaints.Result, error)
}

// Dashboard builds the dashboard context
type Dashboard interface {
	GetDashboardContext(ctx context.Context) (*templating.DashboardContext, error)
}

// ComplaintLister lists stored complaints
type ComplaintLister interface {
	GetAllComplaints(ctx context.Context) ([]*sqlite.ComplaintRecord, error)
}

// Handler serves the dashboard page and the JSON API
type Handler struct {
	processor Processor
	dashboard Dashboard
	store     ComplaintLister
	renderer  *templating.Renderer
	upload    config.UploadConfig
	logger    *logger.Logger
}

// NewHandler creates a new handler
func NewHandler(processor Processor, dashboard Dashboard, store ComplaintLister, renderer *templating.Renderer, upload config.UploadConfig, logger *logger.Logger) *Handler {
	return &Handler{
		processor: processor,
		dashboard: dashboard,
		store:     store,
		renderer:  renderer,
		upload:    upload,
		logger:    logger.Named("api-handler"),
	}
}

// errorResponse is the JSON body of failed API calls
type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage,omitempty"`
}

func (h *Handler) requestLogger(r *http.Request) *logger.Logger {
	return h.logger.WithRequestID(middleware.GetReqID(r.Context()))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

// processFailureMessage is shown to clients when the pipeline fails; the
// cause is only logged
const processFailureMessage = "Failed to process complaint"

// outcome is the result of handling one upload
type outcome struct {
	result  *complaints.Result
	status  int
	message string
	stage   complaints.Stage
}

// process receives the upload and runs it through the pipeline. The stored
// audio is removed before returning.
func (h *Handler) process(w http.ResponseWriter, r *http.Request) outcome {
	log := h.requestLogger(r)

	upload, cleanup, err := h.receiveUpload(w, r)
	if err != nil {
		status, message := uploadStatus(err)
		log.WithError(err).Warn("Rejected upload", logger.Int("status", status))
		return outcome{status: status, message: message}
	}
	defer cleanup()

	result, err := h.processor.Process(r.Context(), upload)
	if err != nil {
		stage, _ := complaints.FailedStage(err)
		log.WithError(err).Error("Failed to process complaint", logger.String("stage", string(stage)))
		return outcome{
			status:  http.StatusInternalServerError,
			message: processFailureMessage,
			stage:   stage,
		}
	}

	return outcome{result: result, status: http.StatusCreated}
}

// GetDashboardPage renders the HTML dashboard
func (h *Handler) GetDashboardPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, nil, "")
}

// SubmitComplaintForm processes a form upload and renders the dashboard
// with the outcome
func (h *Handler) SubmitComplaintForm(w http.ResponseWriter, r *http.Request) {
	out := h.process(w, r)
	status := out.status
	if out.result != nil {
		status = http.StatusOK
	}
	h.renderPage(w, r, status, out.result, out.message)
}

// CreateComplaint processes a multipart upload and returns the result as JSON
func (h *Handler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	out := h.process(w, r)
	if out.result == nil {
		h.writeJSON(w, out.status, errorResponse{Error: out.message, Stage: string(out.stage)})
		return
	}
	h.writeJSON(w, http.StatusCreated, out.result)
}

// GetAllComplaints returns every stored complaint
func (h *Handler) GetAllComplaints(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.GetAllComplaints(r.Context())
	if err != nil {
		h.requestLogger(r).WithError(err).Error("Failed to list complaints")
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list complaints"})
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

// GetDashboard returns the dashboard context as JSON
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboard.GetDashboardContext(r.Context())
	if err != nil {
		h.requestLogger(r).WithError(err).Error("Failed to build dashboard")
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to build dashboard"})
		return
	}
	h.writeJSON(w, http.StatusOK, dashboard)
}

// ExportComplaints returns the dashboard as an XLSX workbook
func (h *Handler) ExportComplaints(w http.ResponseWriter, r *http.Request) {
	log := h.requestLogger(r)

	dashboard, err := h.dashboard.GetDashboardContext(r.Context())
	if err != nil {
		log.WithError(err).Error("Failed to build dashboard")
		http.Error(w, "failed to build export", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, dashboard); err != nil {
		log.WithError(err).Error("Failed to write workbook")
		http.Error(w, "failed to build export", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="complaints.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.WithError(err).Warn("Failed to send workbook")
	}
}

// GetHealth reports liveness
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// renderPage renders the dashboard with an optional result or error
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, result *complaints.Result, message string) {
	log := h.requestLogger(r)

	dashboard, err := h.dashboard.GetDashboardContext(r.Context())
	if err != nil {
		log.WithError(err).Error("Failed to build dashboard")
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	data := &templating.PageData{
		Dashboard: dashboard,
		Result:    result,
		Error:     message,
		Accept:    h.acceptList(),
	}
	if h.upload.MaxSizeMB > 0 {
		data.MaxSize = humanize.IBytes(uint64(h.maxUploadBytes()))
	}

	var buf bytes.Buffer
	if err := h.renderer.RenderDashboard(&buf, data); err != nil {
		log.WithError(err).Error("Failed to render dashboard")
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.WithError(err).Warn("Failed to send dashboard")
	}
}
