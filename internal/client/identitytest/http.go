package identitytest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/playerhub/internal/client/models"
	"github.com/dmitrijs2005/playerhub/internal/common"
)

// Handler serves the HTTP form of the identity contract.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var creds models.LoginCredentials
		if !decode(w, r, &creds) {
			return
		}
		resp, err := s.login(r.Context(), httpMeta(r), creds)
		reply(w, resp, err)
	})

	mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		var details models.RegistrationDetails
		if !decode(w, r, &details) {
			return
		}
		resp, err := s.register(r.Context(), httpMeta(r), details)
		reply(w, resp, err)
	})

	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		id, err := s.me(r.Context(), httpMeta(r))
		reply(w, map[string]any{"identity": id}, err)
	})

	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		err := s.logout(r.Context(), httpMeta(r))
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ok, err := s.health(r.Context(), httpMeta(r))
		reply(w, map[string]bool{"ok": ok}, err)
	})

	return mux
}

func httpMeta(r *http.Request) callMeta {
	return callMeta{
		authorization: r.Header.Get(common.AuthorizationHeaderName),
		requestID:     r.Header.Get(common.RequestIDHeaderName),
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed request body"})
		return false
	}
	return true
}

func reply(w http.ResponseWriter, v any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"message": err.Error()})
		return
	}
	e := asError(err)
	body := map[string]any{"message": e.Message}
	if len(e.Fields) > 0 {
		body["errors"] = e.Fields
	}
	writeJSON(w, e.Status, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
