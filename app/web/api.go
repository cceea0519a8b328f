package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/cue/app/daemon"
)

const defaultPendingLimit = 100

// APIStatusResponse is the JSON response for /api/v1/status
type APIStatusResponse struct {
	Queue     string       `json:"queue"`
	Pending   int          `json:"pending"`
	Consumer  daemon.Stats `json:"consumer"`
	Types     []string     `json:"types"`
	Host      *HostStats   `json:"host,omitempty"`
	Uptime    string       `json:"uptime"`
	Timestamp time.Time    `json:"timestamp"`
}

// APIHistoryResponse is the JSON response for /api/v1/history, newest message first
type APIHistoryResponse struct {
	Queue    string   `json:"queue"`
	Messages []string `json:"messages"`
}

// APIPendingMessage is a pending message in /api/v1/pending response
type APIPendingMessage struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// handleStatus returns queue length and consumer counters
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	pending, err := s.Queue.Len(r.Context())
	if err != nil {
		log.Printf("[WARN] can't get queue length, %v", err)
		s.writeJSONError(w, http.StatusServiceUnavailable, "failed to get queue length")
		return
	}

	resp := APIStatusResponse{
		Queue:     s.Queue.Queue(),
		Pending:   pending,
		Consumer:  s.Stats.Stats(),
		Types:     s.TypeIDs,
		Uptime:    time.Since(s.started).Truncate(time.Second).String(),
		Timestamp: time.Now(),
	}
	if resp.Types == nil {
		resp.Types = []string{}
	}
	if host, err := s.Host(r.Context()); err == nil {
		resp.Host = &host
	} else {
		log.Printf("[WARN] can't get host stats, %v", err)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleHistory returns executed messages kept for undo
func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	hist := s.Queue.History()
	msgs := make([]string, 0, len(hist))
	for i := len(hist) - 1; i >= 0; i-- {
		msgs = append(msgs, hist[i])
	}
	s.writeJSON(w, http.StatusOK, APIHistoryResponse{Queue: s.Queue.Queue(), Messages: msgs})
}

// handlePending lists pending messages, limit set by "limit" query param
func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	if s.Peeker == nil {
		s.writeJSONError(w, http.StatusNotImplemented, "pending messages listing not supported")
		return
	}

	limit := defaultPendingLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	recs, err := s.Peeker.Peek(r.Context(), s.Queue.Queue(), limit)
	if err != nil {
		log.Printf("[WARN] can't list pending messages, %v", err)
		s.writeJSONError(w, http.StatusServiceUnavailable, "failed to list pending messages")
		return
	}

	resp := make([]APIPendingMessage, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, APIPendingMessage{ID: rec.ID, Message: rec.Message, CreatedAt: time.Unix(0, rec.CreatedAt)})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleFlush drops all pending messages
func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if err := s.Queue.Flush(r.Context()); err != nil {
		log.Printf("[WARN] can't flush queue, %v", err)
		s.writeJSONError(w, http.StatusServiceUnavailable, "failed to flush queue")
		return
	}
	log.Printf("[INFO] queue %s flushed by %s", s.Queue.Queue(), r.RemoteAddr)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "queue": s.Queue.Queue()})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[WARN] failed to encode JSON error response: %v", err)
	}
}
