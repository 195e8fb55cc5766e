package rest

import (
	"net/http"
	"strconv"

	"github.com/ayilmaz/meetspot/internal/model"
	"github.com/ayilmaz/meetspot/util"
	"github.com/ayilmaz/meetspot/util/tracing"
	"github.com/ayilmaz/meetspot/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (api *API) MeetingRoutes() chi.Router {
	mux := chi.NewRouter()

	// Discovery and single-meeting reads are public.
	mux.Method(http.MethodGet, "/", Handler(api.NearbyMeetingsHandler))
	mux.Method(http.MethodGet, "/{meetingID}", Handler(api.GetMeetingByIDHandler))

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)

		r.Method(http.MethodPost, "/", Handler(api.CreateMeetingHandler))
		r.Method(http.MethodGet, "/past", Handler(api.PastMeetingsHandler))
		r.Method(http.MethodGet, "/current", Handler(api.CurrentMeetingsHandler))
		r.Method(http.MethodPost, "/{meetingID}/join", Handler(api.JoinMeetingHandler))
		r.Method(http.MethodPost, "/{meetingID}/leave", Handler(api.LeaveMeetingHandler))
		r.Method(http.MethodPost, "/{meetingID}/kick", Handler(api.KickAttendeeHandler))
		r.Method(http.MethodPost, "/{meetingID}/transfer-admin", Handler(api.TransferAdminHandler))
		r.Method(http.MethodPost, "/{meetingID}/cancel", Handler(api.CancelMeetingHandler))
		r.Method(http.MethodGet, "/{meetingID}/messages", Handler(api.MeetingMessagesHandler))
	})

	return mux
}

func (api *API) CreateMeetingHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.CreateMeetingRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	meeting, err := api.Meetings.Create(r.Context(), userID, req)
	if err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Meeting created",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
		Data:       meeting,
	}
}

func (api *API) JoinMeetingHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	meetingID, userID, resp := api.meetingAndUserIDs(r, &tc)
	if resp != nil {
		return resp
	}

	meeting, err := api.Meetings.Join(r.Context(), meetingID, userID)
	if err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "You joined the meeting!",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       meeting,
	}
}

func (api *API) LeaveMeetingHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	meetingID, userID, resp := api.meetingAndUserIDs(r, &tc)
	if resp != nil {
		return resp
	}

	if err := api.Meetings.Leave(r.Context(), meetingID, userID); err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "You left the meeting",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

func (api *API) KickAttendeeHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	meetingID, userID, resp := api.meetingAndUserIDs(r, &tc)
	if resp != nil {
		return resp
	}

	var req model.KickRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	targetID, err := util.StringToUUID(req.UserIDToKick)
	if err != nil {
		return respondWithError(err, "invalid user id to kick", values.BadRequestBody, &tc)
	}

	meeting, err := api.Meetings.Kick(r.Context(), meetingID, userID, targetID)
	if err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "User kicked",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       meeting,
	}
}

func (api *API) TransferAdminHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	meetingID, userID, resp := api.meetingAndUserIDs(r, &tc)
	if resp != nil {
		return resp
	}

	var req model.TransferAdminRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	newAdminID, err := util.StringToUUID(req.NewAdminID)
	if err != nil {
		return respondWithError(err, "invalid new admin id", values.BadRequestBody, &tc)
	}

	if err := api.Meetings.TransferAdmin(r.Context(), meetingID, userID, newAdminID); err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Admin rights transferred",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

func (api *API) CancelMeetingHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	meetingID, userID, resp := api.meetingAndUserIDs(r, &tc)
	if resp != nil {
		return resp
	}

	if err := api.Meetings.Cancel(r.Context(), meetingID, userID); err != nil {
		return respondWithServiceError(err, &tc)
	}

	return &ServerResponse{
		Message:    "Meeting cancelled",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}

func (api *API) PastMeetingsHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := api.MeetingRepo.Past(r.Context(), userID, page, limit)
	if err != nil {
		return respondWithError(err, "Error fetching past meetings", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Past meetings returned",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       result,
	}
}

func (api *API) CurrentMeetingsHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	meetings, err := api.MeetingRepo.Current(r.Context(), userID)
	if err != nil {
		return respondWithError(err, "Error fetching current meetings", values.Error, &tc)
	}
	if meetings == nil {
		meetings = []model.Meeting{}
	}

	return &ServerResponse{
		Message:    "Current meetings returned",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       meetings,
	}
}

func (api *API) GetMeetingByIDHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	meetingID, err := util.StringToUUID(chi.URLParam(r, "meetingID"))
	if err != nil {
		return respondWithError(err, "invalid meeting id", values.BadRequestBody, &tc)
	}

	meeting, err := api.MeetingRepo.GetByID(r.Context(), meetingID)
	if err != nil {
		if err == model.ErrMeetingNotFound {
			return respondWithError(err, "Meeting not found", values.NotFound, &tc)
		}
		return respondWithError(err, "Error fetching the meeting", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Meeting returned",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       meeting,
	}
}

func (api *API) NearbyMeetingsHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	query := r.URL.Query()
	latitude, latErr := strconv.ParseFloat(query.Get("latitude"), 64)
	longitude, lonErr := strconv.ParseFloat(query.Get("longitude"), 64)
	if latErr != nil || lonErr != nil {
		return respondWithError(latErr, "latitude and longitude are required", values.BadRequestBody, &tc)
	}

	radius := api.Config.DefaultRadiusMeters
	if raw := query.Get("radius"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			radius = parsed
		}
	}

	meetings, err := api.MeetingRepo.Nearby(r.Context(), model.NearbyMeetingsParams{
		Latitude:  latitude,
		Longitude: longitude,
		Radius:    radius,
	})
	if err != nil {
		return respondWithError(err, "Error fetching meetings", values.Error, &tc)
	}
	if meetings == nil {
		meetings = []model.Meeting{}
	}

	return &ServerResponse{
		Message:    "Meetings returned",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       meetings,
	}
}

// meetingAndUserIDs pulls the meeting id from the route and the caller id
// from the auth context.
func (api *API) meetingAndUserIDs(r *http.Request, tc *tracing.Context) (uuid.UUID, uuid.UUID, *ServerResponse) {
	meetingID, err := util.StringToUUID(chi.URLParam(r, "meetingID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, respondWithError(err, "invalid meeting id", values.BadRequestBody, tc)
	}

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return uuid.Nil, uuid.Nil, respondWithError(err, "unable to get user ID from context", values.NotAuthorised, tc)
	}

	return meetingID, userID, nil
}
