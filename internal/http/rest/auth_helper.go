package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/ayilmaz/meetspot/internal/model"
	"github.com/ayilmaz/meetspot/util"
	"github.com/ayilmaz/meetspot/util/values"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

type TokenClaims struct {
	UserID string `json:"sub"`
	Type   string `json:"typ"`
	Exp    int64  `json:"exp"`
}

// Simplified token creation
func (api *API) createToken(id string) (string, time.Time, error) {
	expTime, err := time.ParseDuration(api.Config.JwtExpires)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().Add(expTime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": id,
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
		"typ": "access",
	})

	tokenString, err := token.SignedString([]byte(api.Config.JwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func (api *API) createRefreshToken(id string) (string, time.Time, error) {
	expTime, err := time.ParseDuration(api.Config.RefreshExpiry)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().Add(expTime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": id,
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
		"typ": "refresh",
	})

	tokenString, err := token.SignedString([]byte(api.Config.RefreshSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func (api *API) verifyToken(tokenString string, isRefresh bool) (*TokenClaims, error) {
	secret := api.Config.JwtSecret
	if isRefresh {
		secret = api.Config.RefreshSecret
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if ve, ok := err.(*jwt.ValidationError); ok {
		if ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, fmt.Errorf("token expired")
		}
	}

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}

	tokenType, _ := claims["typ"].(string)
	if (isRefresh && tokenType != "refresh") || (!isRefresh && tokenType != "access") {
		return nil, fmt.Errorf("invalid token type")
	}

	userID, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid user id")
	}

	return &TokenClaims{
		UserID: userID,
		Type:   tokenType,
		Exp:    int64(claims["exp"].(float64)),
	}, nil
}

// VerifyAccessToken is the hub's auth hook: token string in, user id out.
func (api *API) VerifyAccessToken(tokenString string) (uuid.UUID, error) {
	claims, err := api.verifyToken(tokenString, false)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(claims.UserID)
}

// GoogleSignInHelper verifies a Google ID token, creates the user on first
// authentication and issues this service's own token pair.
func (api *API) GoogleSignInHelper(ctx context.Context, idToken string) (model.AuthResponse, string, string, error) {
	identity, err := api.Deps.Identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		return model.AuthResponse{}, values.NotAuthorised, "Authorization error", err
	}
	if !util.IsEmail(identity.Email) {
		return model.AuthResponse{}, values.NotAuthorised, "Authorization error", fmt.Errorf("token email %q is invalid", identity.Email)
	}

	user, err := api.UserRepo.UpsertByEmail(ctx, identity.Email, identity.Name, identity.Picture)
	if err != nil {
		return model.AuthResponse{}, values.Error, "Error creating user", err
	}

	access, accessExp, err := api.createToken(user.ID.String())
	if err != nil {
		return model.AuthResponse{}, values.Error, "Error issuing token", err
	}
	refresh, refreshExp, err := api.createRefreshToken(user.ID.String())
	if err != nil {
		return model.AuthResponse{}, values.Error, "Error issuing token", err
	}

	return model.AuthResponse{
		User:             user,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, values.Success, "Signed in", nil
}

// RefreshHelper exchanges a valid refresh token for a new pair.
func (api *API) RefreshHelper(ctx context.Context, refreshToken string) (model.AuthResponse, string, string, error) {
	claims, err := api.verifyToken(refreshToken, true)
	if err != nil {
		return model.AuthResponse{}, values.NotAuthorised, "Invalid refresh token", err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return model.AuthResponse{}, values.NotAuthorised, "Invalid refresh token", err
	}

	user, err := api.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return model.AuthResponse{}, values.NotAuthorised, "User not found", err
	}

	access, accessExp, err := api.createToken(user.ID.String())
	if err != nil {
		return model.AuthResponse{}, values.Error, "Error issuing token", err
	}
	refresh, refreshExp, err := api.createRefreshToken(user.ID.String())
	if err != nil {
		return model.AuthResponse{}, values.Error, "Error issuing token", err
	}

	return model.AuthResponse{
		User:             user,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, values.Success, "Token refreshed", nil
}
