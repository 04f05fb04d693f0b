package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"meshmon/internal/model"
	"meshmon/internal/snapshot"
)

// modelNotLoadedMsg is the exact error body dashboards key on.
const modelNotLoadedMsg = "Model not loaded on this node"

// TopologyResponse is the /api/v1/topology body.
type TopologyResponse struct {
	Timestamp float64                `json:"timestamp"`
	Neighbors []model.NeighborRecord `json:"neighbors"`
}

// PredictionsResponse is the /api/v1/predictions body.
type PredictionsResponse struct {
	Timestamp   float64            `json:"timestamp"`
	Predictions []model.Prediction `json:"predictions"`
}

// Server exposes the latest pipeline snapshot over HTTP. It only ever reads
// the snapshot store; the originators table is never touched on the request
// path.
type Server struct {
	listen      string
	snapshots   *snapshot.Store
	modelLoaded bool
	log         zerolog.Logger
}

// NewServer constructs the read API server. modelLoaded selects whether
// /api/v1/predictions serves scores or the fixed model-unavailable error.
func NewServer(listen string, snapshots *snapshot.Store, modelLoaded bool, log zerolog.Logger) *Server {
	return &Server{listen: listen, snapshots: snapshots, modelLoaded: modelLoaded, log: log}
}

// Routes returns the HTTP handler for the read API.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/topology", s.handleTopology)
	mux.HandleFunc("/api/v1/predictions", s.handlePredictions)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// ListenAndServe runs the HTTP server until it fails. A bind failure is
// fatal to the process, unlike anything inside the monitor loop.
func (s *Server) ListenAndServe() error {
	server := &http.Server{
		Addr:              s.listen,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.log.Info().Str("listen", s.listen).Msg("read api listening")
	return server.ListenAndServe()
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	topo, ok := s.snapshots.Neighbors()
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "no topology snapshot yet")
		return
	}

	neighbors := topo.Neighbors
	if neighbors == nil {
		neighbors = []model.NeighborRecord{}
	}
	writeJSON(w, http.StatusOK, TopologyResponse{
		Timestamp: unixSeconds(topo.Timestamp),
		Neighbors: neighbors,
	})
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if !s.modelLoaded {
		writeJSONError(w, http.StatusInternalServerError, modelNotLoadedMsg)
		return
	}

	preds, ok := s.snapshots.Predictions()
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "no predictions snapshot yet")
		return
	}

	items := preds.Predictions
	if items == nil {
		items = []model.Prediction{}
	}
	writeJSON(w, http.StatusOK, PredictionsResponse{
		Timestamp:   unixSeconds(preds.Timestamp),
		Predictions: items,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
