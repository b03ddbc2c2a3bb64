// internal/webhook/server.go
package webhook

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/user/prereview/internal/commands/importrequest"
	"github.com/user/prereview/internal/commands/receive"
	"github.com/user/prereview/internal/events"
	"github.com/user/prereview/internal/preprints"
	"github.com/user/prereview/internal/queries"
	"github.com/user/prereview/internal/types"
)

// Server is a lightweight HTTP handler for the inbox and the read API.
type Server struct {
	log     events.Log
	queries *queries.Service
	now     func() time.Time
	mux     *http.ServeMux
}

// NewServer creates a Server issuing commands against log. Passing the
// gateway here makes inbound requests trigger their reactions.
func NewServer(log events.Log) *Server {
	s := &Server{
		log:     log,
		queries: queries.NewService(log),
		now:     time.Now,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /inbox", s.handleInbox)
	s.mux.HandleFunc("POST /api/review-requests/import", s.handleImport)
	s.mux.HandleFunc("GET /api/review-requests/recent", s.handleRecent)
	s.mux.HandleFunc("GET /api/review-requests/needing-categorization", s.handleNeedingCategorization)
	s.mux.HandleFunc("GET /api/review-requests/{id}", s.handlePublished)
	s.mux.HandleFunc("GET /api/review-requests/{id}/received", s.handleReceived)
	s.mux.HandleFunc("GET /api/preprints/{server}/{rest...}", s.handleHasReviewRequest)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// notification is the JSON body for POST /inbox.
type notification struct {
	ID     string `json:"id"`
	Origin string `json:"origin"`
	Actor  struct {
		Name  string `json:"name"`
		ORCID string `json:"orcid"`
	} `json:"actor"`
	Object struct {
		DOI string `json:"doi"`
		URL string `json:"url"`
	} `json:"object"`
	ReceivedAt *time.Time `json:"received_at"`
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	var body notification
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	id, err := types.ParseReviewRequestID(body.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a UUID or urn:uuid")
		return
	}

	reference := body.Object.DOI
	if reference == "" {
		reference = body.Object.URL
	}
	if strings.TrimSpace(reference) == "" {
		writeError(w, http.StatusBadRequest, "object.doi or object.url is required")
		return
	}

	receivedAt := s.now().UTC()
	if body.ReceivedAt != nil {
		receivedAt = body.ReceivedAt.UTC()
	}

	err = receive.Execute(r.Context(), s.log, receive.Command{
		ReviewRequestID: id,
		ReceivedAt:      receivedAt,
		PreprintID:      preprints.ParseIndeterminate(reference),
		Requester:       requester(body.Actor.Name, body.Actor.ORCID),
		ReceivedFrom:    body.Origin,
	})
	if err != nil {
		s.writeCommandError(w, "inbox", id, err)
		return
	}

	slog.Info("review request received", "review_request_id", string(id), "origin", body.Origin)
	writeJSON(w, http.StatusAccepted, map[string]string{"id": string(id)})
}

// importRequest is the JSON body for POST /api/review-requests/import.
type importRequest struct {
	ID          string           `json:"id"`
	PublishedAt time.Time        `json:"published_at"`
	Preprint    types.PreprintID `json:"preprint"`
	Requester   *types.Requester `json:"requester"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var body importRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Preprint.Server == "" || body.Preprint.Value == "" {
		writeError(w, http.StatusBadRequest, "preprint.server and preprint.value are required")
		return
	}
	if body.PublishedAt.IsZero() {
		writeError(w, http.StatusBadRequest, "published_at is required")
		return
	}

	id := types.NewReviewRequestID()
	if body.ID != "" {
		parsed, err := types.ParseReviewRequestID(body.ID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "id must be a UUID")
			return
		}
		id = parsed
	}

	err := importrequest.Execute(r.Context(), s.log, importrequest.Command{
		ReviewRequestID: id,
		PublishedAt:     body.PublishedAt.UTC(),
		PreprintID:      body.Preprint,
		Requester:       body.Requester,
	})
	if err != nil {
		s.writeCommandError(w, "import", id, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": string(id)})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	recent, err := s.queries.GetFiveMostRecentReviewRequests(r.Context())
	if err != nil {
		s.writeQueryError(w, "recent", err)
		return
	}
	if recent == nil {
		recent = []queries.RecentReviewRequest{}
	}
	writeJSON(w, http.StatusOK, recent)
}

func (s *Server) handleNeedingCategorization(w http.ResponseWriter, r *http.Request) {
	ids, err := s.queries.FindReviewRequestsNeedingCategorization(r.Context())
	if err != nil {
		s.writeQueryError(w, "needing-categorization", err)
		return
	}
	if ids == nil {
		ids = []types.ReviewRequestID{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handlePublished(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	published, err := s.queries.GetPublishedReviewRequest(r.Context(), id)
	if err != nil {
		s.writeQueryError(w, "published", err)
		return
	}
	writeJSON(w, http.StatusOK, published)
}

func (s *Server) handleReceived(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	received, err := s.queries.GetReceivedReviewRequest(r.Context(), id)
	if err != nil {
		s.writeQueryError(w, "received", err)
		return
	}
	writeJSON(w, http.StatusOK, received)
}

// handleHasReviewRequest serves /api/preprints/{server}/{value}/has-review-request.
// DOI values contain slashes, so the value is everything up to the suffix.
func (s *Server) handleHasReviewRequest(w http.ResponseWriter, r *http.Request) {
	value, ok := strings.CutSuffix(r.PathValue("rest"), "/has-review-request")
	if !ok || value == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	preprint := types.PreprintID{Server: r.PathValue("server"), Value: value}

	has, err := s.queries.DoesAPreprintHaveAReviewRequest(r.Context(), preprint)
	if err != nil {
		s.writeQueryError(w, "has-review-request", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"has_review_request": has})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	tailer, ok := s.log.(events.Tailer)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "event listing not supported by this store")
		return
	}

	limit := 200
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	list, err := tailer.Tail(r.Context(), limit)
	if err != nil {
		slog.Error("tail events failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "unable to read events")
		return
	}
	if list == nil {
		list = []*types.Event{}
	}
	writeJSON(w, http.StatusOK, list)
}

func pathID(w http.ResponseWriter, r *http.Request) (types.ReviewRequestID, bool) {
	id, err := types.ParseReviewRequestID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, types.ErrUnknownReviewRequest.Error())
		return "", false
	}
	return id, true
}

func requester(name, orcid string) *types.Requester {
	if name == "" && orcid == "" {
		return nil
	}
	return &types.Requester{Name: name, ORCID: orcid}
}

func (s *Server) writeCommandError(w http.ResponseWriter, route string, id types.ReviewRequestID, err error) {
	var unable *types.UnableToHandleCommandError
	switch {
	case errors.As(err, &unable):
		slog.Error("command failed", "route", route, "review_request_id", string(id), "error", err)
		writeError(w, http.StatusServiceUnavailable, "unable to handle command")
	case types.IsBusinessError(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("command failed", "route", route, "review_request_id", string(id), "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) writeQueryError(w http.ResponseWriter, route string, err error) {
	var unable *types.UnableToQueryError
	switch {
	case errors.Is(err, types.ErrUnknownReviewRequest):
		writeError(w, http.StatusNotFound, err.Error())
	case types.IsBusinessError(err):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &unable):
		slog.Error("query failed", "route", route, "error", err)
		writeError(w, http.StatusServiceUnavailable, "unable to query")
	default:
		slog.Error("query failed", "route", route, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
