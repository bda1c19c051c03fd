package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/vaultwatch/internal/common"
	"github.com/gorilla/mux"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type secretRequest struct {
	Label       string `json:"label"`
	AccountName string `json:"account_name"`
	Password    string `json:"password"`
}

type passwordBody struct {
	Password string `json:"password"`
}

type checkResponse struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"user_id": user.ID, "username": user.UserName})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}

	tokens, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

func (s *HTTPServer) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}

	tokens, err := s.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenExpired) {
			writeError(w, http.StatusUnauthorized, "refresh token expired")
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

func (s *HTTPServer) createSecret(w http.ResponseWriter, r *http.Request) {
	var req secretRequest
	if !decode(w, r, &req) {
		return
	}

	meta, err := s.vault.Create(r.Context(), userIDFrom(r.Context()), req.Label, req.AccountName, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, meta)
}

func (s *HTTPServer) listSecrets(w http.ResponseWriter, r *http.Request) {
	items, err := s.vault.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) revealSecret(w http.ResponseWriter, r *http.Request) {
	plaintext, err := s.vault.Reveal(r.Context(), userIDFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, passwordBody{Password: plaintext})
}

func (s *HTTPServer) updateSecret(w http.ResponseWriter, r *http.Request) {
	var req secretRequest
	if !decode(w, r, &req) {
		return
	}

	meta, err := s.vault.Update(r.Context(), userIDFrom(r.Context()), mux.Vars(r)["id"], req.Label, req.AccountName, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *HTTPServer) deleteSecret(w http.ResponseWriter, r *http.Request) {
	if err := s.vault.Delete(r.Context(), userIDFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) checkBreach(w http.ResponseWriter, r *http.Request) {
	var req passwordBody
	if !decode(w, r, &req) {
		return
	}

	res, err := s.vault.Check(r.Context(), req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{Status: res.Status.String(), Count: res.Count})
}

// fail maps service errors to status codes with flat messages.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrCorruptRecord), errors.Is(err, common.ErrAuthenticationFailed):
		writeError(w, http.StatusInternalServerError, "stored secret cannot be decrypted")
	default:
		s.logger.Error(r.Context(), "request failed", "request_id", requestIDFrom(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
