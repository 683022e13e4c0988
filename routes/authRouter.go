package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/postboard/apiv1/logging"
	"github.com/postboard/apiv1/models"
	"github.com/postboard/apiv1/services"
	"github.com/postboard/apiv1/utils"
)

type AuthResponse struct {
	Result *models.User `json:"result"`
	Token  string       `json:"token"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type SigninAttempt struct {
	Email    string `json:"email" validate:"required,max=320"`
	Password string `json:"password" validate:"required"`
}

type SignupAttempt struct {
	Email     string `json:"email" validate:"required,email,max=320"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"required,max=64"`
	LastName  string `json:"lastName" validate:"required,max=64"`
}

type GoogleProfile struct {
	Email string `json:"email" validate:"required,email,max=320"`
	Name  string `json:"name" validate:"required,max=128"`
}

type GoogleLoginAttempt struct {
	Result GoogleProfile `json:"result"`
	Token  string        `json:"token"`
}

type authHandler struct {
	auth   *services.AuthService
	logger logging.Logger
}

func AuthRouter(s *mux.Router, h *authHandler) {
	s.HandleFunc("/signin", h.Signin).Methods(http.MethodPost)
	s.HandleFunc("/signup", h.Signup).Methods(http.MethodPost)
	s.HandleFunc("/googlelogin", h.GoogleLogin).Methods(http.MethodPost)
}

func (h *authHandler) Signin(w http.ResponseWriter, r *http.Request) {
	attempt, err := DecodeValidBody[SigninAttempt](w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, err, errorMessages{utils.ErrInvalidInput: utils.MISSING_CREDENTIALS})
		return
	}

	user, token, err := h.auth.Signin(r.Context(), attempt.Email, attempt.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, errorMessages{utils.ErrInvalidInput: utils.MISSING_CREDENTIALS})
		return
	}
	utils.WriteJSON(w, http.StatusOK, AuthResponse{Result: user, Token: token})
}

func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	attempt, err := DecodeValidBody[SignupAttempt](w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, err, nil)
		return
	}

	user, token, err := h.auth.Signup(r.Context(), services.SignupInput{
		Email:     attempt.Email,
		Password:  attempt.Password,
		FirstName: attempt.FirstName,
		LastName:  attempt.LastName,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, nil)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, AuthResponse{Result: user, Token: token})
}

func (h *authHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	attempt, err := DecodeValidBody[GoogleLoginAttempt](w, r)
	if err != nil {
		writeServiceError(w, r, h.logger, err, nil)
		return
	}

	token, err := h.auth.GoogleLogin(r.Context(), services.GoogleProfile{
		Email: attempt.Result.Email,
		Name:  attempt.Result.Name,
	}, attempt.Token)
	if err != nil {
		writeServiceError(w, r, h.logger, err, nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, TokenResponse{Token: token})
}
