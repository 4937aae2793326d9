package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"datepick/internal/calendar"
	"datepick/internal/config"
	appLog "datepick/internal/log"
	"datepick/internal/picker"
)

// Server exposes one picker controller over HTTP/JSON. The controller is
// not safe for concurrent use, so every handler holds mu.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux

	mu sync.Mutex
	pc *picker.Controller
}

// NewServer constructs a new Server around pc.
func NewServer(cfg *config.Config, pc *picker.Controller) *Server {
	s := &Server{
		cfg: cfg,
		mux: http.NewServeMux(),
		pc:  pc,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled")
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="datepick", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("POST /api/month/next", s.mutate(func(pc *picker.Controller) bool {
		pc.NextMonth()
		return true
	}))
	s.mux.HandleFunc("POST /api/month/prev", s.mutate(func(pc *picker.Controller) bool {
		pc.PrevMonth()
		return true
	}))
	s.mux.HandleFunc("POST /api/today", s.mutate((*picker.Controller).SelectToday))
	s.mux.HandleFunc("POST /api/now", s.mutate((*picker.Controller).SelectNow))
	s.mux.HandleFunc("POST /api/clear", s.mutate(func(pc *picker.Controller) bool {
		pc.Clear()
		return true
	}))
	s.mux.HandleFunc("POST /api/select", s.handleSelect)
	s.mux.HandleFunc("POST /api/time/{field}/{dir}", s.handleTimeStep)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := snapshot(s.pc)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

// mutate wraps an operation that may be unavailable; false maps to 409.
func (s *Server) mutate(op func(*picker.Controller) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		ok := op(s.pc)
		resp := snapshot(s.pc)
		s.mu.Unlock()

		if !ok {
			appLog.Debug("picker operation unavailable", "path", r.URL.Path)
			writeError(w, http.StatusConflict, "operation unavailable")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleSelect applies a day click.
//
// POST /api/select?date=2024-02-14
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing date")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	day, err := time.ParseInLocation("2006-01-02", raw, s.pc.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	s.pc.Select(day)
	writeJSON(w, http.StatusOK, snapshot(s.pc))
}

// handleTimeStep steps one time field.
//
// POST /api/time/{hours|minutes|suffix}/{next|prev}
func (s *Server) handleTimeStep(w http.ResponseWriter, r *http.Request) {
	field, err := picker.ParseField(r.PathValue("field"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var op func(*picker.Controller) bool
	switch r.PathValue("dir") {
	case "next":
		op = func(pc *picker.Controller) bool { return pc.Next(field) }
	case "prev":
		op = func(pc *picker.Controller) bool { return pc.Prev(field) }
	default:
		writeError(w, http.StatusNotFound, "direction must be next or prev")
		return
	}
	s.mutate(op)(w, r)
}

// stateResponse is the JSON shape for every picker endpoint.
type stateResponse struct {
	Current      time.Time   `json:"current"`
	Selected     *time.Time  `json:"selected"`
	Title        string      `json:"title"`
	Headers      []string    `json:"headers"`
	Weeks        [][]cellDTO `json:"weeks"`
	Fields       []fieldDTO  `json:"fields"`
	CanSelectNow bool        `json:"can_select_now"`
	CanToday     bool        `json:"can_select_today"`
	Timezone     string      `json:"timezone"`
}

type cellDTO struct {
	Date    string   `json:"date"`
	Day     int      `json:"day"`
	Today   bool     `json:"today,omitempty"`
	Weekend bool     `json:"weekend,omitempty"`
	InMonth bool     `json:"in_month"`
	InRange bool     `json:"in_range"`
	Active  bool     `json:"active,omitempty"`
	Marks   []string `json:"marks,omitempty"`
}

type fieldDTO struct {
	Name       string `json:"name"`
	Text       string `json:"text"`
	NextLocked bool   `json:"next_locked"`
	PrevLocked bool   `json:"prev_locked"`
}

func snapshot(pc *picker.Controller) stateResponse {
	sel, hasSel := pc.Selected()
	resp := stateResponse{
		Current:      pc.Current(),
		Title:        pc.Title(),
		Headers:      pc.Headers(),
		CanSelectNow: pc.CanSelectNow(),
		CanToday:     pc.CanSelectToday(),
		Timezone:     pc.Location().String(),
	}
	if hasSel {
		resp.Selected = &sel
	}

	grid := pc.Month()
	resp.Weeks = make([][]cellDTO, 0, len(grid.Weeks))
	for _, week := range grid.Weeks {
		row := make([]cellDTO, 0, calendar.DaysInWeek)
		for _, c := range week {
			row = append(row, cellDTO{
				Date:    c.Date.Format("2006-01-02"),
				Day:     c.Date.Day(),
				Today:   c.Today,
				Weekend: c.Weekend,
				InMonth: c.InMonth,
				InRange: c.InRange,
				Active:  hasSel && calendar.SameDay(sel, c.Date),
				Marks:   c.Marks,
			})
		}
		resp.Weeks = append(resp.Weeks, row)
	}

	for _, f := range pc.Fields() {
		resp.Fields = append(resp.Fields, fieldDTO{
			Name:       f.String(),
			Text:       pc.Text(f),
			NextLocked: pc.WouldExceedMax(f),
			PrevLocked: pc.WouldViolateMin(f),
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
