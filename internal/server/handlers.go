package server

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/sozercan/insight-gateway/apimodels"
	"github.com/sozercan/insight-gateway/internal/auth"
	apperrors "github.com/sozercan/insight-gateway/internal/errors"
)

const maxRequestBodyBytes = 1 << 20

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apimodels.MessageResponse{Message: "Hello World"})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, apimodels.ErrorResponse{Error: apperrors.MsgNotAuthorized})
		return
	}

	writeJSON(w, http.StatusOK, apimodels.UserResponse{
		Message: "This is a protected route",
		User:    identity,
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.IdentityFromContext(r.Context()); !ok {
		writeJSON(w, http.StatusUnauthorized, apimodels.ErrorResponse{Error: apperrors.MsgNotAuthorized})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	var req apimodels.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("invalid generate request", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusBadRequest, apimodels.ErrorResponse{Error: apperrors.MsgInvalidRequest})
		return
	}
	defer r.Body.Close()

	s.logger.Debug("received generate request", map[string]interface{}{
		"product":     req.Product,
		"segment":     req.Segment,
		"focus_areas": req.FocusAreas,
	})

	result := s.generator.Generate(r.Context(), req)

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		writeInternalError(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"` + apperrors.MsgInternalError + `"}`))
}
