package rest

import (
	"context"
	"math"

	"github.com/ayilmaz/meetspot/internal/db"
	"github.com/ayilmaz/meetspot/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// MeetingRepo is the Postgres-backed meeting store. Locations live in a
// geography(Point,4326) column; attendees in a meeting_attendees join table
// with the admin mirrored as a role row.
type MeetingRepo struct {
	DB *db.DB
}

const meetingColumns = `
        id, title, description, date,
        ST_X(location::geometry) AS longitude,
        ST_Y(location::geometry) AS latitude,
        admin_id, is_finished, created_at, updated_at`

func scanMeeting(row pgx.Row, meeting *model.Meeting) error {
	return row.Scan(
		&meeting.ID, &meeting.Title, &meeting.Description, &meeting.Date,
		&meeting.Longitude, &meeting.Latitude,
		&meeting.AdminID, &meeting.IsFinished, &meeting.CreatedAt, &meeting.UpdatedAt,
	)
}

func (r *MeetingRepo) Create(ctx context.Context, meeting model.Meeting) (model.Meeting, error) {
	meeting.ID = uuid.New()

	err := r.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            INSERT INTO meetings (id, title, description, date, location, admin_id)
            VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326)::geography, $7)
        `, meeting.ID, meeting.Title, meeting.Description, meeting.Date,
			meeting.Longitude, meeting.Latitude, meeting.AdminID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
            INSERT INTO meeting_attendees (meeting_id, user_id, role)
            VALUES ($1, $2, 'admin')
        `, meeting.ID, meeting.AdminID)
		return err
	})
	if err != nil {
		return model.Meeting{}, err
	}

	return r.GetByID(ctx, meeting.ID)
}

func (r *MeetingRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Meeting, error) {
	query := `SELECT` + meetingColumns + ` FROM meetings WHERE id = $1`

	var meeting model.Meeting
	err := scanMeeting(r.DB.Pool().QueryRow(ctx, query, id), &meeting)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Meeting{}, model.ErrMeetingNotFound
	}
	if err != nil {
		return model.Meeting{}, err
	}

	if err := r.populateAttendees(ctx, []*model.Meeting{&meeting}); err != nil {
		return model.Meeting{}, err
	}
	return meeting, nil
}

func (r *MeetingRepo) AddAttendee(ctx context.Context, meetingID, userID uuid.UUID) error {
	return r.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            INSERT INTO meeting_attendees (meeting_id, user_id, role)
            VALUES ($1, $2, 'member')
            ON CONFLICT (meeting_id, user_id) DO NOTHING
        `, meetingID, userID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE meetings SET updated_at = NOW() WHERE id = $1`, meetingID)
		return err
	})
}

func (r *MeetingRepo) RemoveAttendee(ctx context.Context, meetingID, userID uuid.UUID) error {
	return r.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            DELETE FROM meeting_attendees WHERE meeting_id = $1 AND user_id = $2
        `, meetingID, userID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE meetings SET updated_at = NOW() WHERE id = $1`, meetingID)
		return err
	})
}

func (r *MeetingRepo) UpdateAdmin(ctx context.Context, meetingID, newAdminID uuid.UUID) error {
	return r.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            UPDATE meetings SET admin_id = $2, updated_at = NOW() WHERE id = $1
        `, meetingID, newAdminID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
            UPDATE meeting_attendees SET role = 'member' WHERE meeting_id = $1 AND role = 'admin'
        `, meetingID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
            UPDATE meeting_attendees SET role = 'admin' WHERE meeting_id = $1 AND user_id = $2
        `, meetingID, newAdminID)
		return err
	})
}

// Delete removes the meeting outright. Attendee and message rows cascade.
func (r *MeetingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.DB.Pool().Exec(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	return err
}

// Nearby returns open meetings within the radius, closest first.
func (r *MeetingRepo) Nearby(ctx context.Context, params model.NearbyMeetingsParams) ([]model.Meeting, error) {
	query := `
        SELECT` + meetingColumns + `,
            ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
        FROM meetings
        WHERE is_finished = FALSE
        AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
        ORDER BY distance
    `

	rows, err := r.DB.Pool().Query(ctx, query, params.Longitude, params.Latitude, params.Radius)
	if err != nil {
		return nil, errors.Wrap(err, "querying nearby meetings")
	}
	defer rows.Close()

	var meetings []model.Meeting
	for rows.Next() {
		var meeting model.Meeting
		var distance float64
		err := rows.Scan(
			&meeting.ID, &meeting.Title, &meeting.Description, &meeting.Date,
			&meeting.Longitude, &meeting.Latitude,
			&meeting.AdminID, &meeting.IsFinished, &meeting.CreatedAt, &meeting.UpdatedAt,
			&distance,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scanning meeting")
		}
		meeting.Distance = &distance
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.populateAttendeesSlice(ctx, meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// Past returns meetings the user attended whose date has passed, newest
// first, with offset pagination.
func (r *MeetingRepo) Past(ctx context.Context, userID uuid.UUID, page, limit int) (model.PastMeetingsPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	var total int
	err := r.DB.Pool().QueryRow(ctx, `
        SELECT COUNT(*)
        FROM meetings m
        JOIN meeting_attendees ma ON ma.meeting_id = m.id
        WHERE ma.user_id = $1 AND m.date < NOW()
    `, userID).Scan(&total)
	if err != nil {
		return model.PastMeetingsPage{}, err
	}

	query := `
        SELECT` + meetingColumns + `
        FROM meetings m
        JOIN meeting_attendees ma ON ma.meeting_id = m.id
        WHERE ma.user_id = $1 AND m.date < NOW()
        ORDER BY m.date DESC
        LIMIT $2 OFFSET $3
    `
	meetings, err := r.queryMeetings(ctx, query, userID, limit, (page-1)*limit)
	if err != nil {
		return model.PastMeetingsPage{}, err
	}

	return model.PastMeetingsPage{
		TotalMeetings: total,
		TotalPages:    int(math.Ceil(float64(total) / float64(limit))),
		CurrentPage:   page,
		Meetings:      meetings,
	}, nil
}

// Current returns the user's open meetings sorted by date ascending.
func (r *MeetingRepo) Current(ctx context.Context, userID uuid.UUID) ([]model.Meeting, error) {
	query := `
        SELECT` + meetingColumns + `
        FROM meetings m
        JOIN meeting_attendees ma ON ma.meeting_id = m.id
        WHERE ma.user_id = $1 AND m.is_finished = FALSE
        ORDER BY m.date ASC
    `
	return r.queryMeetings(ctx, query, userID)
}

// UnfinishedMeetings feeds the finisher sweep; only id and date matter.
func (r *MeetingRepo) UnfinishedMeetings(ctx context.Context) ([]model.Meeting, error) {
	rows, err := r.DB.Pool().Query(ctx, `
        SELECT id, date FROM meetings WHERE is_finished = FALSE
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []model.Meeting
	for rows.Next() {
		var meeting model.Meeting
		if err := rows.Scan(&meeting.ID, &meeting.Date); err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	return meetings, rows.Err()
}

func (r *MeetingRepo) MarkFinished(ctx context.Context, ids []uuid.UUID) (int64, error) {
	tag, err := r.DB.Pool().Exec(ctx, `
        UPDATE meetings SET is_finished = TRUE, updated_at = NOW()
        WHERE id = ANY($1) AND is_finished = FALSE
    `, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MeetingRepo) queryMeetings(ctx context.Context, query string, args ...interface{}) ([]model.Meeting, error) {
	rows, err := r.DB.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []model.Meeting
	for rows.Next() {
		var meeting model.Meeting
		if err := scanMeeting(rows, &meeting); err != nil {
			return nil, errors.Wrap(err, "scanning meeting")
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.populateAttendeesSlice(ctx, meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

func (r *MeetingRepo) populateAttendeesSlice(ctx context.Context, meetings []model.Meeting) error {
	refs := make([]*model.Meeting, len(meetings))
	for i := range meetings {
		refs[i] = &meetings[i]
	}
	return r.populateAttendees(ctx, refs)
}

// populateAttendees loads attendee summaries for the given meetings in one
// query and fills the Attendees and Admin fields.
func (r *MeetingRepo) populateAttendees(ctx context.Context, meetings []*model.Meeting) error {
	if len(meetings) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(meetings))
	byID := make(map[uuid.UUID]*model.Meeting, len(meetings))
	for _, meeting := range meetings {
		ids = append(ids, meeting.ID)
		byID[meeting.ID] = meeting
		meeting.Attendees = []model.UserSummary{}
	}

	rows, err := r.DB.Pool().Query(ctx, `
        SELECT ma.meeting_id, u.id, u.name, u.email, u.avatar_url, u.bio
        FROM meeting_attendees ma
        JOIN users u ON u.id = ma.user_id
        WHERE ma.meeting_id = ANY($1)
        ORDER BY ma.joined_at
    `, ids)
	if err != nil {
		return errors.Wrap(err, "querying attendees")
	}
	defer rows.Close()

	for rows.Next() {
		var meetingID uuid.UUID
		var attendee model.UserSummary
		err := rows.Scan(&meetingID, &attendee.ID, &attendee.Name, &attendee.Email, &attendee.AvatarURL, &attendee.Bio)
		if err != nil {
			return errors.Wrap(err, "scanning attendee")
		}
		meeting := byID[meetingID]
		meeting.Attendees = append(meeting.Attendees, attendee)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, meeting := range meetings {
		for i := range meeting.Attendees {
			if meeting.Attendees[i].ID == meeting.AdminID {
				meeting.Admin = &meeting.Attendees[i]
				break
			}
		}
	}
	return nil
}
