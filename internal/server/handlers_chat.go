package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nmoralez/batuchat/internal/database"
	"github.com/nmoralez/batuchat/internal/parser"
)

// maxUploadSize bounds a chat export upload. Multi-year group logs stay
// well under this.
const maxUploadSize = 50 << 20

type uploadResponse struct {
	Success  bool         `json:"success"`
	ExportID string       `json:"exportId"`
	Stats    parser.Stats `json:"stats"`
	Senders  []string     `json:"senders"`
}

type pagedMessages struct {
	Messages   []database.Message `json:"messages"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	TotalPages int                `json:"totalPages"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("chatfile")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		s.log.ErrorContext(r.Context(), "Failed to read upload", "error", err)
		s.respondError(w, r, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	result := parser.Parse(string(raw))
	if len(result.Messages) == 0 {
		s.respondError(w, r, http.StatusBadRequest, "No messages found. Make sure this is a WhatsApp export file.")
		return
	}

	export := &database.Export{
		ID:         uuid.NewString(),
		Filename:   header.Filename,
		UploadedAt: time.Now().UTC(),
	}
	if dr := result.Stats.DateRange; dr != nil {
		export.DateRangeStart = &dr.Start
		export.DateRangeEnd = &dr.End
	}

	if err := s.store.CreateExport(r.Context(), export, result.Messages); err != nil {
		s.log.ErrorContext(r.Context(), "Failed to save export", "filename", header.Filename, "error", err)
		s.respondError(w, r, http.StatusInternalServerError, "Failed to process chat export")
		return
	}

	s.respondJSON(w, r, http.StatusOK, uploadResponse{
		Success:  true,
		ExportID: export.ID,
		Stats:    result.Stats,
		Senders:  result.Senders,
	})
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	exports, err := s.store.ListExports(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to fetch exports")
		return
	}
	if exports == nil {
		exports = []database.Export{}
	}
	s.respondJSON(w, r, http.StatusOK, exports)
}

func (s *Server) handleDeleteExport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.store.DeleteExport(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.respondError(w, r, http.StatusNotFound, "Export not found")
			return
		}
		s.respondError(w, r, http.StatusInternalServerError, "Failed to delete export")
		return
	}
	s.respondJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := database.MessageFilter{
		Sender:    q.Get("sender"),
		Type:      q.Get("type"),
		Tag:       q.Get("tag"),
		Search:    q.Get("search"),
		Important: q.Get("important") == "true",
		Page:      queryInt(q.Get("page"), 1),
		Limit:     queryInt(q.Get("limit"), 50),
	}

	var badTime bool
	filter.From, badTime = queryTime(q.Get("from"))
	if badTime {
		s.respondError(w, r, http.StatusBadRequest, "Invalid 'from' timestamp")
		return
	}
	filter.To, badTime = queryTime(q.Get("to"))
	if badTime {
		s.respondError(w, r, http.StatusBadRequest, "Invalid 'to' timestamp")
		return
	}

	messages, total, err := s.store.QueryMessages(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	if messages == nil {
		messages = []database.Message{}
	}

	s.respondJSON(w, r, http.StatusOK, pagedMessages{
		Messages:   messages,
		Total:      total,
		Page:       filter.Page,
		TotalPages: totalPages(total, filter.Limit),
	})
}

func (s *Server) handleSenders(w http.ResponseWriter, r *http.Request) {
	senders, err := s.store.SenderSummaries(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to fetch senders")
		return
	}
	if senders == nil {
		senders = []database.SenderSummary{}
	}
	s.respondJSON(w, r, http.StatusOK, senders)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.DashboardStats(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	s.respondJSON(w, r, http.StatusOK, stats)
}

func (s *Server) handleFunStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.FunStats(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Failed to fetch fun stats")
		return
	}
	s.respondJSON(w, r, http.StatusOK, stats)
}

type pagedSearch struct {
	Messages   []database.SearchResult `json:"messages"`
	Total      int                     `json:"total"`
	Page       int                     `json:"page"`
	TotalPages int                     `json:"totalPages"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		s.respondError(w, r, http.StatusBadRequest, "Search query is required")
		return
	}

	page := queryInt(q.Get("page"), 1)
	limit := queryInt(q.Get("limit"), 20)

	results, total, err := s.store.SearchMessages(r.Context(), query, page, limit)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "Search failed")
		return
	}
	if results == nil {
		results = []database.SearchResult{}
	}

	s.respondJSON(w, r, http.StatusOK, pagedSearch{
		Messages:   results,
		Total:      total,
		Page:       page,
		TotalPages: totalPages(total, limit),
	})
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// queryTime parses a timestamp query parameter as RFC 3339 or a bare
// calendar date. The second return reports a malformed value.
func queryTime(raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, false
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
		return &t, false
	}
	return nil, true
}

func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
