package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/topi314/chapter-events/internal/tsync"
	"github.com/topi314/chapter-events/internal/xquery"
	"github.com/topi314/chapter-events/server/database"
)

type chapterResponse struct {
	ID             int                   `json:"id"`
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	InterestCount  int                   `json:"interest_count"`
	UpcomingEvents []chapterEventSummary `json:"upcoming_events"`
}

type chapterEventSummary struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	InviteOnly bool      `json:"invite_only"`
	StartAt    time.Time `json:"start_at"`
}

func (h *handler) GetChapter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chapterID, ok := xquery.PathInt(r.PathValue("chapter_id"))
	if !ok {
		writeError(ctx, w, http.StatusBadRequest, "Invalid chapter ID")
		return
	}

	var (
		chapter       *database.Chapter
		events        []database.Event
		interestCount int
	)
	eg, egCtx := tsync.ErrorGroupWithContext(ctx)
	eg.Go("chapter", func() error {
		var err error
		chapter, err = h.DB.GetChapter(egCtx, chapterID)
		return err
	})
	eg.Go("events", func() error {
		var err error
		events, err = h.DB.GetUpcomingEventsByChapter(egCtx, chapterID, time.Now())
		return err
	})
	eg.Go("interests", func() error {
		var err error
		interestCount, err = h.DB.GetChapterInterestCount(egCtx, chapterID)
		return err
	})
	if err := eg.Wait(); err != nil {
		if errors.Is(err, database.ErrChapterNotFound) {
			writeError(ctx, w, http.StatusNotFound, "Chapter not found")
			return
		}
		slog.ErrorContext(ctx, "Failed to load chapter", slog.Int("chapter_id", chapterID), slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}

	upcoming := make([]chapterEventSummary, 0, len(events))
	for _, event := range events {
		upcoming = append(upcoming, chapterEventSummary{
			ID:         event.ID,
			Name:       event.Name,
			InviteOnly: event.InviteOnly,
			StartAt:    event.StartAt,
		})
	}

	writeJSON(ctx, w, http.StatusOK, chapterResponse{
		ID:             chapter.ID,
		Name:           chapter.Name,
		Description:    chapter.Description,
		InterestCount:  interestCount,
		UpcomingEvents: upcoming,
	})
}

type createChapterRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *handler) CreateChapter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rq createChapterRequest
	if err := decodeJSON(w, r, &rq); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	name := strings.TrimSpace(rq.Name)
	if name == "" {
		writeError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	chapter, err := h.DB.InsertChapter(ctx, name, rq.Description)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to create chapter", slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, "Failed to create chapter")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, chapterResponse{
		ID:             chapter.ID,
		Name:           chapter.Name,
		Description:    chapter.Description,
		UpcomingEvents: []chapterEventSummary{},
	})
}
