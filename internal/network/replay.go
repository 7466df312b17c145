package network

import (
	"net/http"
	"strconv"

	"github.com/MRamiBalles/furcoin-clicker/internal/events"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/logger"
)

// ReplayHandler serves the progression journal.
type ReplayHandler struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(el *events.EventLog, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		eventLog: el,
		logger:   log,
	}
}

// ReplayResponse is the API response for the journal.
type ReplayResponse struct {
	LastSeq     uint64             `json:"last_seq"`
	TotalEvents int                `json:"total_events"`
	FilteredBy  string             `json:"filtered_by,omitempty"`
	Events      []events.GameEvent `json:"events"`
}

// HandleReplay returns journal events.
// GET /api/events?since=N&type=LEVEL_UP
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if s := r.URL.Query().Get("since"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}
	eventType := r.URL.Query().Get("type")

	filtered := make([]events.GameEvent, 0)
	for _, e := range rh.eventLog.Since(since) {
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		filtered = append(filtered, e)
	}

	writeJSON(w, http.StatusOK, ReplayResponse{
		LastSeq:     rh.eventLog.LastSeq(),
		TotalEvents: len(filtered),
		FilteredBy:  eventType,
		Events:      filtered,
	})
}
