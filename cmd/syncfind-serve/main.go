// Command syncfind-serve runs the sync finder as a small WebSocket service:
// a client opens a connection, sends a search request (keys, mode, and a
// base64 WAV payload), and receives back the JSON KeyResult list. Every
// connection gets a request id for log correlation, and pipeline metrics
// are exposed over /metrics for scraping.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwbudde/syncfinder/internal/audioio"
	"github.com/cwbudde/syncfinder/internal/telemetry"
	"github.com/cwbudde/syncfinder/syncfinder"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// searchRequest is the JSON message a client sends over the WebSocket
// connection to request one search.
type searchRequest struct {
	Keys    []string `json:"keys"`
	Mode    string   `json:"mode"`
	WavB64  string   `json:"wav_base64"`
	Workers int      `json:"workers,omitempty"`
}

type searchResponse struct {
	RequestID string                  `json:"request_id"`
	Error     string                  `json:"error,omitempty"`
	Results   []syncfinder.KeyResult  `json:"results,omitempty"`
}

type server struct {
	params   *syncfinder.Params
	analyzer syncfinder.FFTAnalyzer
	metrics  *telemetry.Metrics
	logger   *log.Logger
}

func main() {
	addr := flag.String("addr", ":8089", "Listen address")
	flag.Parse()

	logger := log.New(os.Stderr)
	logger.SetReportTimestamp(true)

	reg := prometheus.NewRegistry()
	metrics := telemetry.New(reg)

	srv := &server{
		params:   syncfinder.NewDefaultParams(),
		analyzer: audioio.NewDefaultFFTAnalyzer(),
		metrics:  metrics,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", srv.handleSearch)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	logger.Info("syncfind-serve listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Fatal("server exited", "err", err)
	}
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	logger := s.logger.With("request_id", requestID)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	for {
		var req searchRequest
		if err := conn.ReadJSON(&req); err != nil {
			logger.Debug("connection closed", "err", err)
			return
		}

		resp := s.runSearch(r.Context(), requestID, &req, logger)
		if err := conn.WriteJSON(resp); err != nil {
			logger.Error("write response failed", "err", err)
			return
		}
	}
}

func (s *server) runSearch(ctx context.Context, requestID string, req *searchRequest, logger *log.Logger) *searchResponse {
	keys, err := decodeKeys(req.Keys)
	if err != nil {
		return &searchResponse{RequestID: requestID, Error: err.Error()}
	}

	mode, err := decodeMode(req.Mode)
	if err != nil {
		return &searchResponse{RequestID: requestID, Error: err.Error()}
	}

	raw, err := base64.StdEncoding.DecodeString(req.WavB64)
	if err != nil {
		return &searchResponse{RequestID: requestID, Error: "invalid wav_base64: " + err.Error()}
	}

	wav, _, err := audioio.DecodeWAV(bytes.NewReader(raw))
	if err != nil {
		return &searchResponse{RequestID: requestID, Error: err.Error()}
	}

	finder := syncfinder.NewFinder(s.params, s.analyzer, logger, s.metrics)
	finder.Workers = req.Workers

	searchCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	results, err := finder.Search(searchCtx, keys, wav, mode)
	if err != nil {
		return &searchResponse{RequestID: requestID, Error: err.Error()}
	}
	return &searchResponse{RequestID: requestID, Results: results}
}

func decodeKeys(hexKeys []string) ([]syncfinder.Key, error) {
	keys := make([]syncfinder.Key, 0, len(hexKeys))
	for _, h := range hexKeys {
		b, err := hex.DecodeString(h)
		if err != nil {
			return nil, err
		}
		keys = append(keys, syncfinder.NewKey(b))
	}
	return keys, nil
}

func decodeMode(s string) (syncfinder.Mode, error) {
	switch s {
	case "", "clip":
		return syncfinder.ModeClip, nil
	case "block":
		return syncfinder.ModeBlock, nil
	default:
		return 0, errors.New("unknown mode " + s)
	}
}
