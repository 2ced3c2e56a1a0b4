// Package server serves the pipeline stages over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"goji.io"
	"goji.io/pat"

	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/pipeline"
	"go.viam.com/blockpointing/sensor"
)

// RequestIDHeader carries the id a request is logged under.
const RequestIDHeader = "X-Request-Id"

// maxDocumentBytes bounds how much of a request body is read.
const maxDocumentBytes = 32 << 20

// Server exposes every stage as POST /api/<stage name> and the whole chain as
// POST /api/Pipeline.
type Server struct {
	sensors     *sensor.Context
	stages      []pipeline.Stage
	coordinator *pipeline.Coordinator
	logger      logging.Logger

	mu         sync.Mutex
	httpServer *http.Server
}

// New returns a server for the given stages. The coordinator may be nil, leaving out the
// pipeline route. The server takes ownership of sensors and closes it on Close.
func New(sensors *sensor.Context, coordinator *pipeline.Coordinator, logger logging.Logger, stages ...pipeline.Stage) *Server {
	return &Server{sensors: sensors, stages: stages, coordinator: coordinator, logger: logger}
}

// Handler returns the CORS wrapped mux serving every route.
func (s *Server) Handler() http.Handler {
	mux := goji.NewMux()
	for _, stage := range s.stages {
		mux.HandleFunc(pat.Post("/api/"+stage.Name()), s.stageHandler(stage))
	}
	if s.coordinator != nil {
		mux.HandleFunc(pat.Post("/api/Pipeline"), s.pipelineHandler)
	}
	return cors.AllowAll().Handler(mux)
}

// Serve serves on listener until ctx is done or Close is called.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	serveDone := make(chan struct{})
	defer close(serveDone)
	utils.PanicCapturingGo(func() {
		select {
		case <-ctx.Done():
		case <-serveDone:
			return
		}
		if err := httpServer.Shutdown(context.Background()); err != nil {
			s.logger.Errorw("error shutting down", "error", err)
		}
	})

	s.logger.Infow("serving", "address", listener.Addr().String(), "stages", len(s.stages))
	err := httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops the HTTP server, if serving, and closes the sensor.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()

	var err error
	if httpServer != nil {
		err = httpServer.Shutdown(ctx)
	}
	return multierr.Combine(err, s.sensors.Close(ctx))
}

func (s *Server) stageHandler(stage pipeline.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger, done := s.startRequest(w, r, stage.Name())
		defer done()

		doc, err := readDocument(r)
		if err != nil {
			s.writeError(w, logger, err)
			return
		}
		ann, err := stage.Process(r.Context(), doc)
		if err != nil {
			s.writeError(w, logger, err)
			return
		}
		s.writeJSON(w, logger, http.StatusOK, ann)
	}
}

func (s *Server) pipelineHandler(w http.ResponseWriter, r *http.Request) {
	logger, done := s.startRequest(w, r, "Pipeline")
	defer done()

	doc, err := readDocument(r)
	if err != nil {
		s.writeError(w, logger, err)
		return
	}
	doc, _, err = s.coordinator.Run(r.Context(), doc)
	if err != nil {
		s.writeError(w, logger, err)
		return
	}
	s.writeJSON(w, logger, http.StatusOK, doc)
}

// startRequest tags the request with an id and returns a logger carrying it.
func (s *Server) startRequest(w http.ResponseWriter, r *http.Request, route string) (logging.Logger, func()) {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)
	logger := s.logger.Sublogger(route)
	start := time.Now()
	logger.Debugw("request", "request_id", id, "remote", r.RemoteAddr)
	return logger, func() {
		logger.Debugw("request done", "request_id", id, "elapsed", time.Since(start))
	}
}

// readDocument parses the request body. An empty body is an empty document.
func readDocument(r *http.Request) (*pipeline.Document, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes))
	if err != nil {
		return nil, errors.Wrap(pipeline.ErrMalformedDocument, err.Error())
	}
	if len(data) == 0 {
		return pipeline.NewDocument(), nil
	}
	return pipeline.ParseDocument(data)
}

// StatusCode maps a stage error to the status it is reported with.
func StatusCode(err error) int {
	switch {
	case sensor.IsTimeout(err):
		return http.StatusGatewayTimeout
	case errors.Is(err, pipeline.ErrMalformedDocument), errors.Is(err, pipeline.ErrMissingAnnotation):
		return http.StatusBadRequest
	case errors.Is(err, sensor.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, logger logging.Logger, err error) {
	code := StatusCode(err)
	logger.Warnw("request failed", "status", code, "error", err, "request_id", w.Header().Get(RequestIDHeader))
	s.writeJSON(w, logger, code, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, logger logging.Logger, code int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Errorw("cannot encode response", "error", err)
		code = http.StatusInternalServerError
		data = []byte(`{"error":"cannot encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logger.Debugw("cannot write response", "error", err)
	}
}
