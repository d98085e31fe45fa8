package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"food-dash/internal/auth-service/core/domain/dto"
	"food-dash/internal/auth-service/core/myerrors"
	"food-dash/internal/auth-service/core/ports"
	"food-dash/internal/mylogger"
)

type AuthHandler struct {
	authService ports.IAuthService
	mylog       mylogger.Logger
}

func NewAuthHandler(authService ports.IAuthService, mylog mylogger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		mylog:       mylog,
	}
}

func (ah *AuthHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.RegisterRequestDto

		mylog := ah.mylog.Action("Register")

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			mylog.Error("Failed to parse registration request", err)
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		res, err := ah.authService.Register(ctx, req)
		if err != nil {
			switch {
			case errors.Is(err, myerrors.ErrEmailRegistered), errors.Is(err, myerrors.ErrUsernameTaken):
				jsonError(w, http.StatusConflict, err)
			case errors.Is(err, myerrors.ErrValidation):
				jsonError(w, http.StatusBadRequest, err)
			default:
				jsonError(w, http.StatusInternalServerError, err)
			}
			return
		}

		jsonResponse(w, http.StatusCreated, res)
		mylog.Info("Successfully registered!")
	}
}

func (ah *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.LoginRequestDto

		mylog := ah.mylog.Action("Login")

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			mylog.Error("Failed to parse login request", err)
			jsonError(w, http.StatusBadRequest, errors.New("failed to parse JSON"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		res, err := ah.authService.Login(ctx, req)
		if err != nil {
			switch {
			case errors.Is(err, myerrors.ErrUnknownEmail), errors.Is(err, myerrors.ErrWrongPassword):
				jsonError(w, http.StatusUnauthorized, err)
			case errors.Is(err, myerrors.ErrValidation):
				jsonError(w, http.StatusBadRequest, err)
			default:
				jsonError(w, http.StatusInternalServerError, err)
			}
			return
		}

		jsonResponse(w, http.StatusOK, res)
		mylog.Info("Successfully login!")
	}
}
