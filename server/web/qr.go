package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"

	"github.com/topi314/chapter-events/internal/xio"
	"github.com/topi314/chapter-events/internal/xquery"
	"github.com/topi314/chapter-events/server/database"
)

// eventPageURL is the page people land on after scanning the QR code.
func eventPageURL(publicURL string, eventID int) string {
	return strings.TrimSuffix(publicURL, "/") + "/events/" + strconv.Itoa(eventID)
}

func writeQRCode(w io.Writer, content string) error {
	qr, err := qrcode.New(content)
	if err != nil {
		return fmt.Errorf("failed to create qrcode: %w", err)
	}

	qrW := standard.NewWithWriter(xio.NopCloser(w),
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(10),
	)
	if err = qr.Save(qrW); err != nil {
		return fmt.Errorf("failed to save qrcode: %w", err)
	}
	return nil
}

// EventQRCode renders a QR code pointing to the public event page.
func (h *handler) EventQRCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, ok := xquery.PathInt(r.PathValue("event_id"))
	if !ok {
		writeError(ctx, w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	if _, err := h.DB.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, database.ErrEventNotFound) {
			writeError(ctx, w, http.StatusNotFound, "Event not found")
			return
		}
		slog.ErrorContext(ctx, "Failed to get event", slog.Int("event_id", eventID), slog.Any("err", err))
		writeError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if err := writeQRCode(w, eventPageURL(h.Cfg.Server.PublicURL, eventID)); err != nil {
		slog.ErrorContext(ctx, "Failed to write qrcode", slog.Int("event_id", eventID), slog.Any("err", err))
	}
}
