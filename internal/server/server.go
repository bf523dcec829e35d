package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"docchat/internal/account"
	"docchat/internal/config"
)

// Answerer is the question-answering entry point behind POST /chat/query.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// AccountService is the signup/login entry point behind POST /signup and
// POST /login.
type AccountService interface {
	Signup(ctx context.Context, username, email, password string) error
	Login(ctx context.Context, username, password string) (string, error)
}

// New assembles the HTTP surface: routes plus the middleware chain.
func New(synth Answerer, accounts AccountService, cfg *config.ServerConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /chat/query", handleQuery(synth))
	mux.HandleFunc("POST /signup", handleSignup(accounts))
	mux.HandleFunc("POST /login", handleLogin(accounts))

	return Chain(mux,
		Recover(),
		RequestLogger(),
		CORS(cfg.CORSOrigin),
		RateLimit(cfg.RateLimit, cfg.RateBurst),
	)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// QueryRequest is the JSON body for POST /chat/query.
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse is the JSON response for POST /chat/query.
type QueryResponse struct {
	Answer string `json:"answer"`
}

func handleQuery(synth Answerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Question == "" {
			writeError(w, http.StatusBadRequest, "question is required")
			return
		}

		answer, err := synth.Answer(r.Context(), req.Question)
		if err != nil {
			log.Error().Err(err).Msg("query failed")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, QueryResponse{Answer: answer})
	}
}

// SignupRequest is the JSON body for POST /signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func handleSignup(accounts AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Username == "" || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username, email and password are required")
			return
		}

		err := accounts.Signup(r.Context(), req.Username, req.Email, req.Password)
		if errors.Is(err, account.ErrAccountExists) {
			writeError(w, http.StatusBadRequest, "Account already exists")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("signup failed")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"msg": "User created successfully"})
	}
}

// LoginRequest is the JSON body for POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the JSON response for POST /login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

func handleLogin(accounts AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		token, err := accounts.Login(r.Context(), req.Username, req.Password)
		if errors.Is(err, account.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "Username or password is incorrect")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("login failed")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeJSON(w, http.StatusOK, LoginResponse{AccessToken: token, Username: req.Username})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("writing response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
