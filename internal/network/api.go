package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/MRamiBalles/furcoin-clicker/internal/engine"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/logger"
	"github.com/MRamiBalles/furcoin-clicker/internal/platform/metrics"
)

// API serves the JSON endpoints.
type API struct {
	engine  *engine.Engine
	hub     *Hub
	replay  *ReplayHandler
	logger  *logger.Logger
	metrics *metrics.Collector
}

// NewAPI creates the HTTP API around an engine and its hub.
func NewAPI(eng *engine.Engine, hub *Hub, log *logger.Logger, m *metrics.Collector) *API {
	return &API{
		engine:  eng,
		hub:     hub,
		replay:  NewReplayHandler(eng.EventLog(), log),
		logger:  log,
		metrics: m,
	}
}

// Router builds the route table.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.Use(a.logMiddleware)

	r.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/metrics", a.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/metrics/prometheus", a.metrics.PrometheusHandler()).Methods(http.MethodGet)
	r.HandleFunc("/ws", a.hub.ServeWS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", a.handleState).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", a.handleLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/catalog", a.handleCatalog).Methods(http.MethodGet)
	api.HandleFunc("/events", a.replay.HandleReplay).Methods(http.MethodGet)

	api.HandleFunc("/register", a.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/tap", a.handleTap).Methods(http.MethodPost)
	api.HandleFunc("/upgrades/{id}/buy", a.handleBuyUpgrade).Methods(http.MethodPost)
	api.HandleFunc("/skins/{id}/buy", a.handleBuySkin).Methods(http.MethodPost)
	api.HandleFunc("/skins/{id}/equip", a.handleEquipSkin).Methods(http.MethodPost)
	api.HandleFunc("/reset", a.handleReset).Methods(http.MethodPost)

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": a.hub.ClientCount(),
	})
}

func (a *API) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.View())
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Entries    []engine.Entry `json:"entries"`
		PlayerRank int            `json:"player_rank,omitempty"`
	}{Entries: a.engine.Leaderboard()}
	resp.PlayerRank, _ = a.engine.PlayerRank()
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Catalog())
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	a.respond(w, a.engine.RegisterUser(req.Username))
}

func (a *API) handleTap(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Cost float64 `json:"cost"`
	}{Cost: 1}
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	a.respond(w, a.engine.Tap(req.Cost))
}

func (a *API) handleBuyUpgrade(w http.ResponseWriter, r *http.Request) {
	a.respond(w, a.engine.BuyUpgrade(mux.Vars(r)["id"]))
}

func (a *API) handleBuySkin(w http.ResponseWriter, r *http.Request) {
	a.respond(w, a.engine.BuySkin(mux.Vars(r)["id"]))
}

func (a *API) handleEquipSkin(w http.ResponseWriter, r *http.Request) {
	a.respond(w, a.engine.EquipSkin(mux.Vars(r)["id"]))
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	a.engine.Reset()
	a.respond(w, nil)
}

// respond writes the new view on success or maps a validation error to 4xx.
func (a *API) respond(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "state": a.engine.View()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrUnknownUpgrade), errors.Is(err, engine.ErrUnknownSkin):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidUsername), errors.Is(err, engine.ErrInvalidTapCost):
		return http.StatusBadRequest
	case engine.IsValidationError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"ok": false, "error": message})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if r.URL.Path != "/ws" {
			a.logger.Infof("%s %s (%v)", r.Method, r.URL.Path, time.Since(start).Round(time.Microsecond))
		}
	})
}
