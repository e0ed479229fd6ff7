package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/audio"
	"timed-quiz-service/internal/domain"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	SampleRate    int
	DefaultVolume int
	Logger        *slog.Logger
}

// NewRouter mounts the websocket endpoint, cue downloads, session snapshots and health checks.
func NewRouter(service *app.SessionService, opts RouterOptions) *mux.Router {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 22050
	}

	ws := NewWSHandler(service, opts.Logger)
	cues := &cueHandler{sampleRate: opts.SampleRate, defaultVolume: audio.ClampVolume(opts.DefaultVolume)}
	sessions := &sessionHandler{service: service}

	r := mux.NewRouter()
	r.Use(requestLogger(opts.Logger))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS)
	r.Handle("/cues/{cue}.wav", cues).Methods(http.MethodGet)
	r.Handle("/sessions/{quizId}/{userId}", sessions).Methods(http.MethodGet)
	return r
}

func requestLogger(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

// cueHandler serves synthesised cues as WAV files so browser clients can play them.
type cueHandler struct {
	sampleRate    int
	defaultVolume int
}

func (h *cueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cue, err := audio.ParseCue(mux.Vars(r)["cue"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	volume := h.defaultVolume
	if raw := r.URL.Query().Get("volume"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid volume", http.StatusBadRequest)
			return
		}
		volume = audio.ClampVolume(v)
	}

	clip, err := audio.Synthesize(cue, volume, h.sampleRate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// The WAV encoder seeks back to patch chunk sizes, so render into a scratch file.
	f, err := os.CreateTemp("", "cue-*.wav")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer os.Remove(f.Name())
	defer f.Close()
	if err := audio.EncodeWAV(f, clip); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, string(cue)+".wav", time.Time{}, f)
}

type sessionHandler struct {
	service *app.SessionService
}

func (h *sessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	session, err := h.service.Get(vars["quizId"], vars["userId"])
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(session.Snapshot())
}
