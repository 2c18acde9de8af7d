package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"myson/internal/domain/admins"

	"github.com/golang-jwt/jwt/v5"
)

type CreateTokenPayload struct {
	Username string `json:"username" validate:"required,min=3,max=72"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type RefreshTokenPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// createTokenHandler godoc
//
//	@Summary		Admin login
//	@Description	Verifies admin credentials and issues an access/refresh token pair.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateTokenPayload	true	"Admin credentials"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Router			/authentication/token [post]
func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	admin, err := app.store.Admins.GetByUsername(r.Context(), payload.Username)
	if err != nil {
		switch {
		case errors.Is(err, admins.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := admin.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(admin.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Admins.SaveRefreshToken(r.Context(), admin.ID, refreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"admin_id":      strconv.FormatInt(admin.ID, 10),
	})
}

// refreshTokenHandler godoc
//
//	@Summary		Refresh tokens
//	@Description	Rotates the token pair for a valid refresh token.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RefreshTokenPayload	true	"Refresh token"
//	@Success		200		{object}	map[string]string
//	@Failure		401		{object}	error
//	@Router			/authentication/refresh [post]
func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RefreshTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	token, err := app.authenticator.ValidateRefreshToken(payload.RefreshToken)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	claims, _ := token.Claims.(jwt.MapClaims)
	adminID, err := strconv.ParseInt(fmt.Sprintf("%.f", claims["sub"]), 10, 64)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	admin, err := app.store.Admins.GetByID(r.Context(), adminID)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	// the presented token must be the one issued last
	if admin.RefreshToken != "" && admin.RefreshToken != payload.RefreshToken {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("refresh token superseded"))
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(admin.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Admins.SaveRefreshToken(r.Context(), admin.ID, refreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}
