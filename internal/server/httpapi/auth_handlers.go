package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/habits/internal/common"
	"github.com/dmitrijs2005/habits/internal/server/models"
	"github.com/dmitrijs2005/habits/internal/server/services"
)

type registerRequest struct {
	Email     string  `json:"email" validate:"required,email,max=255"`
	Username  string  `json:"username" validate:"required,max=50"`
	Password  string  `json:"password" validate:"required,max=255,bcryptlen"`
	FirstName *string `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,max=50"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
	Token   string       `json:"token"`
}

func (a *api) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !a.decodeAndValidate(w, r, &req, false) {
		return
	}

	user, token, err := a.users.Register(r.Context(), services.RegisterInput{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			writeError(w, http.StatusConflict, "User with this email or username already exists")
			return
		}
		a.internalError(w, r, err, "Failed to create user")
		return
	}

	a.log.Info(r.Context(), "user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{Message: "User created successfully", User: user, Token: token})
}

func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.decodeAndValidate(w, r, &req, false) {
		return
	}

	user, token, err := a.users.Login(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials!")
			return
		}
		a.internalError(w, r, err, "Failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Message: "Login successful", User: user, Token: token})
}
