package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/labstack/echo/v4"

	"github.com/kumarDivyanshu/summarizer/internal/core/meeting"
	"github.com/kumarDivyanshu/summarizer/internal/core/service"
	"github.com/kumarDivyanshu/summarizer/internal/database"
)

type MeetingsHandler struct {
	coordinator *service.Coordinator
	store       *database.Store
}

func NewMeetingsHandler(coordinator *service.Coordinator, store *database.Store) *MeetingsHandler {
	return &MeetingsHandler{coordinator: coordinator, store: store}
}

// Shared types

type MeetingBody struct {
	MeetingID int32     `json:"meeting_id" doc:"Meeting ID"`
	Title     string    `json:"title" doc:"Meeting title"`
	Status    string    `json:"status" doc:"Job status (UPLOADED, PROCESSING, COMPLETED, FAILED)"`
	CreatedAt time.Time `json:"created_at" doc:"Upload time"`
}

func newMeetingBody(m database.Meeting) MeetingBody {
	return MeetingBody{
		MeetingID: m.MeetingID,
		Title:     m.Title,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
	}
}

type ListMeetingsInput struct {
	UserID int32 `query:"user_id" minimum:"1" doc:"Owner user ID"`
}

type MeetingIDInput struct {
	ID int32 `path:"id" doc:"Meeting ID"`
}

type GetMeetingInput struct {
	ID     int32 `path:"id" doc:"Meeting ID"`
	UserID int32 `query:"user_id" doc:"Scope the lookup to this owner"`
}

type ActionItemBody struct {
	Description string `json:"description" doc:"What must be done"`
	AssignedTo  string `json:"assigned_to,omitempty" doc:"Person responsible"`
	DueDate     string `json:"due_date,omitempty" doc:"ISO due date"`
	Status      string `json:"status" doc:"PENDING or COMPLETED"`
}

type MeetingDetailBody struct {
	MeetingBody
	Transcript   string           `json:"transcript,omitempty" doc:"Full transcript"`
	Summary      string           `json:"summary,omitempty" doc:"Meeting summary"`
	KeyDecisions string           `json:"key_decisions,omitempty" doc:"Decisions made"`
	ActionItems  []ActionItemBody `json:"action_items" doc:"Extracted action items"`
}

type StatusBody struct {
	MeetingID int32  `json:"meeting_id" doc:"Meeting ID"`
	Status    string `json:"status" doc:"Job status"`
}

// Handlers

func (h *MeetingsHandler) List(ctx context.Context, input *ListMeetingsInput) (*DataOutput[[]MeetingBody], error) {
	meetings, err := h.store.ListMeetingsByUser(ctx, input.UserID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list meetings")
	}
	out := make([]MeetingBody, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, newMeetingBody(m))
	}
	return OK(out), nil
}

// Get returns the meeting with whatever pipeline results exist so far. A
// FAILED meeting may still carry a transcript from before the failure.
func (h *MeetingsHandler) Get(ctx context.Context, input *GetMeetingInput) (*DataOutput[MeetingDetailBody], error) {
	var m database.Meeting
	var err error
	if input.UserID > 0 {
		m, err = h.store.GetMeetingForUser(ctx, input.ID, input.UserID)
	} else {
		m, err = h.store.GetMeeting(ctx, input.ID)
	}
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, huma.Error404NotFound("meeting not found")
		}
		return nil, huma.Error500InternalServerError("failed to load meeting")
	}

	detail := MeetingDetailBody{MeetingBody: newMeetingBody(m), ActionItems: []ActionItemBody{}}

	if t, err := h.store.GetTranscript(ctx, m.MeetingID); err == nil {
		detail.Transcript = t.TranscriptText
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, huma.Error500InternalServerError("failed to load transcript")
	}

	if s, err := h.store.GetSummary(ctx, m.MeetingID); err == nil {
		detail.Summary = s.SummaryText
		detail.KeyDecisions = s.KeyDecisions.String
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, huma.Error500InternalServerError("failed to load summary")
	}

	items, err := h.store.ListActionItems(ctx, m.MeetingID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load action items")
	}
	for _, it := range items {
		body := ActionItemBody{
			Description: it.Description,
			AssignedTo:  it.AssignedTo.String,
			Status:      string(it.Status),
		}
		if it.DueDate.Valid {
			body.DueDate = it.DueDate.Time.Format("2006-01-02")
		}
		detail.ActionItems = append(detail.ActionItems, body)
	}

	return OK(detail), nil
}

// Status is the cheap polling endpoint: just the lifecycle fields, no
// transcript or summary payload.
func (h *MeetingsHandler) Status(ctx context.Context, input *MeetingIDInput) (*DataOutput[MeetingBody], error) {
	m, err := h.store.GetMeeting(ctx, input.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, huma.Error404NotFound("meeting not found")
		}
		return nil, huma.Error500InternalServerError("failed to load meeting")
	}
	return OK(newMeetingBody(m)), nil
}

func (h *MeetingsHandler) Reprocess(ctx context.Context, input *MeetingIDInput) (*DataOutput[StatusBody], error) {
	err := h.coordinator.Reprocess(ctx, input.ID)
	switch {
	case err == nil:
		return OK(StatusBody{MeetingID: input.ID, Status: string(database.StatusProcessing)}), nil
	case errors.Is(err, database.ErrNotFound):
		return nil, huma.Error404NotFound("meeting not found")
	case errors.Is(err, meeting.ErrJobBusy):
		return nil, huma.Error409Conflict("meeting is already being processed")
	case errors.Is(err, service.ErrNoAudioStored):
		return nil, huma.Error422UnprocessableEntity("meeting has no stored audio")
	default:
		return nil, huma.Error500InternalServerError("failed to reprocess meeting")
	}
}

// Upload is a plain Echo handler because the request is multipart form data.
// Fields: file (required), title, user_id (required).
func (h *MeetingsHandler) Upload(c echo.Context) error {
	userID, err := parseUserID(c.FormValue("user_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "valid user_id form field required"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "file form field required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "unreadable upload"})
	}
	defer f.Close()

	m, err := h.coordinator.Submit(c.Request().Context(), userID, c.FormValue("title"), f, fh.Filename)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": "failed to accept upload"})
	}

	// An inline run already finished; only a queued job is merely accepted.
	code := http.StatusAccepted
	if m.Status == database.StatusCompleted {
		code = http.StatusOK
	}
	return c.JSON(code, map[string]any{
		"success": true,
		"data":    StatusBody{MeetingID: m.MeetingID, Status: string(m.Status)},
	})
}
