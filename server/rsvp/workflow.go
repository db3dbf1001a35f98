package rsvp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrActionNotOffered    = errors.New("action not offered in current state")
	ErrToggleInFlight      = errors.New("rsvp toggle already in flight")
	ErrLoginPending        = errors.New("login pending")
	ErrConfirmationPending = errors.New("confirmation pending")
)

var (
	notificationJoined   = Notification{Message: "You successfully RSVPed to this event", Kind: KindSuccess}
	notificationCanceled = Notification{Message: "You canceled your RSVP 👋", Kind: KindCanceled}
	notificationFailed   = Notification{Message: "Something went wrong", Kind: KindError}
)

// Store is the remote system holding events and their RSVPs.
type Store interface {
	GetEvent(ctx context.Context, eventID int) (*Event, error)
	RSVPToEvent(ctx context.Context, eventID int, userID string, join bool) error
	RegisterChapterInterest(ctx context.Context, eventID int, userID string) error
}

// Authenticator runs the login flow for an anonymous viewer. It returns
// ErrLoginPending while the flow has not completed yet.
type Authenticator interface {
	Authenticate(ctx context.Context) (*Viewer, error)
}

// Confirmer asks the viewer to confirm the action. It returns
// ErrConfirmationPending when the answer is not known yet.
type Confirmer interface {
	Confirm(ctx context.Context, prompt Prompt) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification)
}

type AuthenticatorFunc func(ctx context.Context) (*Viewer, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context) (*Viewer, error) {
	return f(ctx)
}

type ConfirmerFunc func(ctx context.Context, prompt Prompt) (bool, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, prompt Prompt) (bool, error) {
	return f(ctx, prompt)
}

type NotifierFunc func(ctx context.Context, notification Notification)

func (f NotifierFunc) Notify(ctx context.Context, notification Notification) {
	f(ctx, notification)
}

// Interaction holds the collaborators scoped to a single toggle.
type Interaction struct {
	Auth    Authenticator
	Confirm Confirmer
	Notify  Notifier
}

type Result struct {
	Outcome Outcome
	Viewer  *Viewer
	// Event is the refetched event after a successful mutation. It is nil
	// when no mutation happened or the refetch failed.
	Event *Event
	State State
	// Err is the primary mutation error for OutcomeFailed.
	Err error
	// InterestErr is the chapter interest error. It never changes Outcome.
	InterestErr error
}

func PromptFor(join bool) Prompt {
	if join {
		return Prompt{Title: "You want to join this?", Join: true}
	}
	return Prompt{Title: "Are you sure you want to cancel your RSVP", Join: false}
}

func NewWorkflow(store Store) *Workflow {
	return &Workflow{
		store:    store,
		inFlight: make(map[string]struct{}),
	}
}

type Workflow struct {
	store Store

	inFlight   map[string]struct{}
	inFlightMu sync.Mutex
}

// Toggle joins (join = true) or leaves the event on behalf of viewer.
// A nil viewer or one without an ID sends the interaction through the login
// flow first.
func (w *Workflow) Toggle(ctx context.Context, in Interaction, viewer *Viewer, event Event, join bool) (Result, error) {
	loggedIn := false
	if viewerID(viewer) == "" {
		v, err := in.Auth.Authenticate(ctx)
		if err != nil {
			if errors.Is(err, ErrLoginPending) {
				return Result{Outcome: OutcomeLoginRequired, State: StateNone}, nil
			}
			return Result{}, fmt.Errorf("failed to authenticate viewer: %w", err)
		}
		if v == nil || v.ID == "" {
			return Result{Outcome: OutcomeLoginRequired, State: StateNone}, nil
		}
		viewer = v
		loggedIn = true
	}

	state := Resolve(event.RSVPs, viewer.ID)
	if OffersJoin(state) != join {
		if loggedIn {
			return Result{Outcome: OutcomeNoChange, Viewer: viewer, State: state}, nil
		}
		return Result{Viewer: viewer, State: state}, ErrActionNotOffered
	}

	key := fmt.Sprintf("%d:%s", event.ID, viewer.ID)
	if !w.acquire(key) {
		return Result{Viewer: viewer, State: state}, ErrToggleInFlight
	}
	defer w.release(key)

	ok, err := in.Confirm.Confirm(ctx, PromptFor(join))
	if err != nil {
		return Result{Viewer: viewer, State: state}, fmt.Errorf("failed to confirm rsvp: %w", err)
	}
	if !ok {
		return Result{Outcome: OutcomeDeclined, Viewer: viewer, State: state}, nil
	}

	if err = w.store.RSVPToEvent(ctx, event.ID, viewer.ID, join); err != nil {
		slog.ErrorContext(ctx, "Failed to update rsvp",
			slog.Int("event_id", event.ID),
			slog.String("user_id", viewer.ID),
			slog.Bool("join", join),
			slog.Any("err", err),
		)
		in.Notify.Notify(ctx, notificationFailed)
		return Result{Outcome: OutcomeFailed, Viewer: viewer, State: state, Err: err}, nil
	}

	result := Result{
		Outcome: OutcomeLeft,
		Viewer:  viewer,
		State:   state,
	}
	if join {
		result.Outcome = OutcomeJoined
	}

	if refreshed, err := w.store.GetEvent(ctx, event.ID); err != nil {
		slog.WarnContext(ctx, "Failed to refetch event after rsvp", slog.Int("event_id", event.ID), slog.Any("err", err))
	} else {
		result.Event = refreshed
		result.State = Resolve(refreshed.RSVPs, viewer.ID)
	}

	if !join {
		in.Notify.Notify(ctx, notificationCanceled)
		return result, nil
	}
	in.Notify.Notify(ctx, notificationJoined)

	if err = w.store.RegisterChapterInterest(ctx, event.ID, viewer.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to register chapter interest",
			slog.Int("event_id", event.ID),
			slog.Int("chapter_id", event.ChapterID),
			slog.String("user_id", viewer.ID),
			slog.Any("err", err),
		)
		in.Notify.Notify(ctx, notificationFailed)
		result.InterestErr = err
	}

	return result, nil
}

func (w *Workflow) acquire(key string) bool {
	w.inFlightMu.Lock()
	defer w.inFlightMu.Unlock()

	if _, ok := w.inFlight[key]; ok {
		return false
	}
	w.inFlight[key] = struct{}{}
	return true
}

func (w *Workflow) release(key string) {
	w.inFlightMu.Lock()
	defer w.inFlightMu.Unlock()

	delete(w.inFlight, key)
}
