package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
	"github.com/lexicon-legal/lexicon/internal/core/ports"
)

// Router exposes the ingestion, search and case research operations over
// JSON/HTTP. Long-running pipeline runs execute synchronously; callers are
// expected to set generous client timeouts.
type Router struct {
	ingestor   ports.DocumentIngestor
	searcher   ports.DocumentSearcher
	researcher ports.CaseResearcher
	documents  ports.DocumentRepository
	briefs     ports.BriefRepository
	validate   *validator.Validate
	logger     *slog.Logger
}

func NewRouter(
	ingestor ports.DocumentIngestor,
	searcher ports.DocumentSearcher,
	researcher ports.CaseResearcher,
	documents ports.DocumentRepository,
	briefs ports.BriefRepository,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		ingestor:   ingestor,
		searcher:   searcher,
		researcher: researcher,
		documents:  documents,
		briefs:     briefs,
		validate:   validator.New(),
		logger:     logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/search", rt.searchCorpus)
	mux.HandleFunc("/v1/cases/research", rt.researchCase)
	mux.HandleFunc("/v1/briefs/", rt.getBriefByID)
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.Upload(r.Context(), fileHeader.Filename, file)
	if err != nil {
		rt.writeDomainError(w, r, "upload document", err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := rt.documents.GetByID(r.Context(), id)
	if err != nil {
		rt.writeDomainError(w, r, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type searchRequest struct {
	Query  string            `json:"query" validate:"required"`
	TopK   int               `json:"top_k" validate:"gte=0,lte=100"`
	Filter map[string]string `json:"filter"`
}

type searchResponse struct {
	Results []domain.SearchResult `json:"results"`
}

func (rt *Router) searchCorpus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := rt.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	results, err := rt.searcher.Search(r.Context(), req.Query, req.TopK, domain.SearchFilter{Equals: req.Filter})
	if err != nil {
		rt.writeDomainError(w, r, "search corpus", err)
		return
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

type caseResearchRequest struct {
	TargetExpert string `json:"target_expert" validate:"required"`
	Strategy     string `json:"strategy" validate:"required,oneof=challenge support"`
	MotionType   string `json:"motion_type"`
}

func (rt *Router) researchCase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req caseResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := rt.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	brief, err := rt.researcher.ProcessCase(r.Context(), domain.CaseRequest{
		TargetExpert: req.TargetExpert,
		Strategy:     domain.Strategy(req.Strategy),
		MotionType:   req.MotionType,
	})
	if err != nil {
		rt.writeDomainError(w, r, "case research", err)
		return
	}
	writeJSON(w, http.StatusOK, brief)
}

func (rt *Router) getBriefByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/briefs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "brief id is required")
		return
	}

	brief, err := rt.briefs.GetBriefByID(r.Context(), id)
	if err != nil {
		rt.writeDomainError(w, r, "get brief", err)
		return
	}
	writeJSON(w, http.StatusOK, brief)
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.logger.Error(op+" failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeError(w, status, publicErrorMessage(err, status))
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, v := range verrs {
			fields = append(fields, strings.ToLower(v.Field()))
		}
		return "invalid request fields: " + strings.Join(fields, ", ")
	}
	return "invalid request"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
