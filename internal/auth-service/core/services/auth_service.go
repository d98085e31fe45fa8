package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"food-dash/internal/auth-service/core/domain/dto"
	"food-dash/internal/auth-service/core/domain/model"
	"food-dash/internal/auth-service/core/myerrors"
	"food-dash/internal/auth-service/core/ports"
	"food-dash/internal/config"
	"food-dash/internal/mylogger"

	"github.com/golang-jwt/jwt"
)

const tokenTTL = time.Hour * 24 * 7

type AuthService struct {
	ctx      context.Context
	cfg      *config.Config
	authRepo ports.IAuthRepo
	mylog    mylogger.Logger
}

func NewAuthService(
	ctx context.Context,
	cfg *config.Config,
	authRepo ports.IAuthRepo,
	mylog mylogger.Logger,
) ports.IAuthService {
	return &AuthService{
		ctx:      ctx,
		cfg:      cfg,
		authRepo: authRepo,
		mylog:    mylog,
	}
}

func (as *AuthService) Register(ctx context.Context, req dto.RegisterRequestDto) (dto.AuthResponseDto, error) {
	mylog := as.mylog.Action("Register")

	if err := validateRegistration(req); err != nil {
		return dto.AuthResponseDto{}, err
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		return dto.AuthResponseDto{}, fmt.Errorf("failed to hash password: %v", err)
	}
	user := model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         req.Role,
	}

	id, err := as.authRepo.Create(ctx, user, req.Driver, req.Cafe)
	if err != nil {
		if errors.Is(err, myerrors.ErrUsernameTaken) || errors.Is(err, myerrors.ErrEmailRegistered) {
			mylog.Warn("Failed to register, identity already taken")
			return dto.AuthResponseDto{}, err
		}
		mylog.Error("Failed to save user in db", err)
		return dto.AuthResponseDto{}, fmt.Errorf("cannot save user in db: %w", err)
	}

	accessToken, err := as.issueToken(id, req.Email, req.Role)
	if err != nil {
		mylog.Error("error to create jwt token", err)
		return dto.AuthResponseDto{}, err
	}

	mylog.Info("User registered successfully")
	return dto.AuthResponseDto{
		UserId:      id,
		Role:        req.Role,
		AccessToken: accessToken,
	}, nil
}

func (as *AuthService) Login(ctx context.Context, req dto.LoginRequestDto) (dto.AuthResponseDto, error) {
	mylog := as.mylog.Action("Login")

	if err := validateLogin(req.Email, req.Password); err != nil {
		return dto.AuthResponseDto{}, err
	}

	user, err := as.authRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, myerrors.ErrUnknownEmail) {
			mylog.Warn("Failed to login, unknown email")
			return dto.AuthResponseDto{}, err
		}
		mylog.Error("Failed to fetch user from db", err)
		return dto.AuthResponseDto{}, fmt.Errorf("cannot fetch user from db: %w", err)
	}

	if !checkPassword(user.PasswordHash, req.Password) {
		mylog.Debug("Failed to login, wrong password")
		return dto.AuthResponseDto{}, myerrors.ErrWrongPassword
	}

	accessToken, err := as.issueToken(user.UserId, user.Email, user.Role)
	if err != nil {
		mylog.Error("error to create jwt token", err)
		return dto.AuthResponseDto{}, err
	}

	mylog.Info("User login successfully")
	return dto.AuthResponseDto{
		UserId:      user.UserId,
		Role:        user.Role,
		AccessToken: accessToken,
	}, nil
}

func (as *AuthService) issueToken(userId, email, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId,
		"email":   email,
		"role":    role,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString([]byte(as.cfg.App.JwtSecret))
}
