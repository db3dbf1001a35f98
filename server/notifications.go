package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"

	"github.com/topi314/chapter-events/server/database"
)

// SendNotification posts content to the configured Discord webhook. It is a
// no-op when notifications are disabled.
func (s *Server) SendNotification(ctx context.Context, content string) {
	if s.webhook == nil {
		return
	}

	if _, err := s.webhook.CreateContent(content, rest.WithCtx(ctx)); err != nil {
		slog.ErrorContext(ctx, "Failed to send notification", slog.Any("err", err))
	}
}

func (s *Server) notifyRSVPChange(ctx context.Context, userID string, change database.RSVPChange, join bool) {
	content, ok := rsvpChangeMessage(userID, change, join)
	if !ok {
		return
	}
	go s.SendNotification(context.WithoutCancel(ctx), content)
}

// rsvpChangeMessage returns the message for the event owner, if the change
// needs their attention.
func rsvpChangeMessage(userID string, change database.RSVPChange, join bool) (string, bool) {
	if !change.Changed {
		return "", false
	}

	startAt := discord.NewTimestamp(discord.TimestampStyleShortDateTime, change.Event.StartAt).String()
	switch {
	case join && change.OnWaitlist && change.Event.InviteOnly:
		return fmt.Sprintf("<@%s> <@%s> requested to join **%s** (%s)", change.Event.OwnerID, userID, change.Event.Name, startAt), true
	case join && change.OnWaitlist:
		return fmt.Sprintf("<@%s> **%s** (%s) is full, <@%s> joined the waitlist", change.Event.OwnerID, change.Event.Name, startAt, userID), true
	case !join && change.PromotedUserID != "":
		return fmt.Sprintf("<@%s> moved up from the waitlist of **%s** (%s)", change.PromotedUserID, change.Event.Name, startAt), true
	}
	return "", false
}

func rsvpConfirmedMessage(userID string, event database.Event) string {
	return fmt.Sprintf("<@%s> your request to join **%s** (%s) was confirmed", userID, event.Name, discord.NewTimestamp(discord.TimestampStyleShortDateTime, event.StartAt).String())
}

// NotifyRSVPConfirmed tells the user their request has been accepted.
func (s *Server) NotifyRSVPConfirmed(ctx context.Context, userID string, event database.Event) {
	go s.SendNotification(context.WithoutCancel(ctx), rsvpConfirmedMessage(userID, event))
}
