package rest

import (
	"log"
	"net/http"

	"github.com/ayilmaz/meetspot/internal/model"
	"github.com/ayilmaz/meetspot/util"
	"github.com/ayilmaz/meetspot/util/tracing"
	"github.com/ayilmaz/meetspot/util/values"
	"github.com/go-chi/chi/v5"
)

const maxAvatarSize = 5 << 20 // 5 MiB

func (api *API) UserRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodPost, "/auth", Handler(api.GoogleSignInHandler))
	mux.Method(http.MethodPost, "/refresh", Handler(api.RefreshTokenHandler))

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)

		r.Method(http.MethodGet, "/profile", Handler(api.GetProfileHandler))
		r.Method(http.MethodPut, "/profile", Handler(api.UpdateProfileHandler))
		r.Method(http.MethodPost, "/fcm-token", Handler(api.UpdateFCMTokenHandler))
		r.Method(http.MethodPut, "/avatar", Handler(api.UpdateAvatarHandler))
		r.Method(http.MethodDelete, "/avatar", Handler(api.DeleteAvatarHandler))
	})

	return mux
}

func (api *API) GoogleSignInHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.GoogleAuthRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if req.Token == "" {
		return respondWithError(nil, "token is required", values.BadRequestBody, &tc)
	}

	auth, status, message, err := api.GoogleSignInHelper(r.Context(), req.Token)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       auth,
	}
}

func (api *API) RefreshTokenHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.RefreshRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	auth, status, message, err := api.RefreshHelper(r.Context(), req.RefreshToken)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       auth,
	}
}

func (api *API) GetProfileHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	user, err := api.UserRepo.GetByID(r.Context(), userID)
	if err != nil {
		if err == model.ErrUserNotFound {
			return respondWithError(err, "User not found", values.NotFound, &tc)
		}
		return respondWithError(err, "Error fetching profile", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Profile returned",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       user,
	}
}

func (api *API) UpdateProfileHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	var req model.UpdateProfileRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	user, err := api.UserRepo.UpdateProfile(r.Context(), userID, req.Name, req.Bio)
	if err != nil {
		if err == model.ErrUserNotFound {
			return respondWithError(err, "User not found", values.NotFound, &tc)
		}
		return respondWithError(err, "Error updating profile", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Profile updated",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       user,
	}
}

func (api *API) UpdateFCMTokenHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	var req model.UpdateFCMTokenRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if req.FCMToken == "" {
		return respondWithError(nil, "FCM token is required", values.BadRequestBody, &tc)
	}

	if err := api.UserRepo.UpdateFCMToken(r.Context(), userID, req.FCMToken); err != nil {
		return respondWithError(err, "Error updating FCM token", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "FCM token updated",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

func (api *API) UpdateAvatarHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		return respondWithError(err, "File not uploaded", values.BadRequestBody, &tc)
	}

	file, _, err := r.FormFile("avatar")
	if err != nil {
		return respondWithError(err, "File not uploaded", values.BadRequestBody, &tc)
	}
	defer file.Close()

	avatarURL, err := api.Deps.Cloudinary.UploadAvatar(r.Context(), file, userID.String())
	if err != nil {
		return respondWithError(err, "Error updating avatar", values.Error, &tc)
	}

	if err := api.UserRepo.UpdateAvatar(r.Context(), userID, avatarURL); err != nil {
		return respondWithError(err, "Error updating avatar", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Avatar updated",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       map[string]string{"avatar": avatarURL},
	}
}

// hasCustomAvatar reports whether the user uploaded an avatar of their own.
func hasCustomAvatar(avatarURL string) bool {
	return avatarURL != "" && avatarURL != defaultAvatarURL
}

func (api *API) DeleteAvatarHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	user, err := api.UserRepo.GetByID(r.Context(), userID)
	if err != nil {
		if err == model.ErrUserNotFound {
			return respondWithError(err, "User not found", values.NotFound, &tc)
		}
		return respondWithError(err, "Error deleting avatar", values.Error, &tc)
	}

	if !hasCustomAvatar(user.AvatarURL) {
		return respondWithError(nil, "Cannot delete default avatar", values.BadRequestBody, &tc)
	}

	// Asset removal is best-effort; the profile reset proceeds either way.
	if err := api.Deps.Cloudinary.DeleteAvatar(r.Context(), userID.String()); err != nil {
		log.Printf("[%s] error deleting avatar asset for user %s: %v", tc.RequestID, userID, err)
	}

	if err := api.UserRepo.UpdateAvatar(r.Context(), userID, defaultAvatarURL); err != nil {
		return respondWithError(err, "Error deleting avatar", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Avatar deleted",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       map[string]string{"avatar": defaultAvatarURL},
	}
}
