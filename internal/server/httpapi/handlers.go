package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pixvault/internal/common"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resendRequest struct {
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/verify-register", s.handleVerify)
		r.Post("/resend-code", s.handleResend)
		r.Post("/login", s.handleLogin)
		r.Post("/", s.handleCreateUser)
		r.With(s.authMiddleware).Get("/me", s.handleMe)
	})

	r.Route("/images", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/upload", s.handleUpload)
		r.Get("/", s.handleListActive)
		r.Get("/trash", s.handleListDeleted)
		r.Get("/signed-url", s.handleSignedURL)
		r.Delete("/{id}", s.handleSoftDelete)
		r.Post("/{id}/restore", s.handleRestore)
	})

	return r
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}

	view, err := s.registrations.Begin(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !s.decode(w, r, &req) {
		return
	}

	view, err := s.registrations.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleResend(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.registrations.Resend(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "new verification code sent"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	token, err := s.registrations.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !s.decode(w, r, &req) {
		return
	}

	view, err := s.registrations.CreateUser(r.Context(), req.Username, req.Email, req.Password, req.IsAdmin)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	view, err := s.registrations.GetUser(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

const maxUploadBytes = 32 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	view, err := s.images.Upload(r.Context(), userID, header.Filename, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleListActive(w http.ResponseWriter, r *http.Request) {
	views, err := s.images.ListActive(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleListDeleted(w http.ResponseWriter, r *http.Request) {
	views, err := s.images.ListDeleted(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleSoftDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.images.SoftDelete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := s.images.Restore(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "image restored"})
}

func (s *Server) handleSignedURL(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("file_name")
	if key == "" {
		http.Error(w, "missing file_name", http.StatusBadRequest)
		return
	}

	url, err := s.images.SignedURL(r.Context(), key, s.signedURLTTL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps workflow errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, common.ErrorConflict):
		http.Error(w, "email already registered", http.StatusConflict)
	case errors.Is(err, common.ErrorCodeInvalidOrExpired):
		http.Error(w, "verification code invalid or expired", http.StatusBadRequest)
	case errors.Is(err, common.ErrorRegistrationExpired):
		http.Error(w, "verification code expired, register again", http.StatusBadRequest)
	case errors.Is(err, common.ErrorInvalidState):
		http.Error(w, "image is not deleted", http.StatusBadRequest)
	case errors.Is(err, common.ErrorUnauthorized):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
