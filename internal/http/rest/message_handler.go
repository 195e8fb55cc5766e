package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ayilmaz/meetspot/util"
	"github.com/ayilmaz/meetspot/util/tracing"
	"github.com/ayilmaz/meetspot/util/values"
)

// MeetingMessagesHandler returns a cursor page of the meeting's chat history,
// newest first. The lastMessageDate query parameter is the createdAt of the
// oldest message in the previous page; only strictly older messages return.
func (api *API) MeetingMessagesHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	meetingID, userID, resp := api.meetingAndUserIDs(r, &tc)
	if resp != nil {
		return resp
	}

	// Chat history is meeting-scoped, like the room itself.
	if err := api.Chat.CanJoinRoom(r.Context(), meetingID, userID); err != nil {
		return respondWithServiceError(err, &tc)
	}

	query := r.URL.Query()

	var before *time.Time
	if raw := query.Get("lastMessageDate"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return respondWithError(err, "invalid lastMessageDate", values.BadRequestBody, &tc)
		}
		before = &parsed
	}

	limit, _ := strconv.Atoi(query.Get("limit"))

	page, err := api.Chat.History(r.Context(), meetingID, before, limit)
	if err != nil {
		return respondWithError(err, "Error fetching messages", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Messages returned",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       page,
	}
}
