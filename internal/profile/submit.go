package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Daltraxx/life-rpg-sub000/internal/game"
)

var (
	ErrInvalid      = errors.New("profile is invalid")
	ErrDuplicate    = errors.New("profile already exists")
	ErrUnauthorized = errors.New("not authorized to create profile")
	ErrTagTaken     = errors.New("tag is already taken")
	ErrFailed       = errors.New("profile creation failed")
)

// Error codes a Persister attaches to its failures.
const (
	CodeUniqueViolation = "unique_violation"
	CodeUnauthorized    = "unauthorized"
	CodeTagTaken        = "tag_taken"
)

// CodedError is a persistence failure carrying an opaque classification code.
type CodedError interface {
	error
	ErrorCode() string
}

// Persister stores a profile atomically: either every row is written or none.
// A non-empty tag is registered for the user in the same write.
type Persister interface {
	CreateProfile(ctx context.Context, userID, tag string, rows Rows) error
}

// SubmitError is the structured failure returned by Submit. Kind is one of
// ErrInvalid, ErrDuplicate, ErrTagTaken, ErrUnauthorized or ErrFailed.
type SubmitError struct {
	Kind        error
	Message     string
	FieldErrors game.FieldErrors
	Err         error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *SubmitError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Classify maps a persistence error onto one of the submission error kinds.
func Classify(err error) error {
	var coded CodedError
	if errors.As(err, &coded) {
		switch coded.ErrorCode() {
		case CodeUniqueViolation:
			return ErrDuplicate
		case CodeUnauthorized:
			return ErrUnauthorized
		case CodeTagTaken:
			return ErrTagTaken
		}
	}
	return ErrFailed
}

type Submitter struct {
	persister Persister
	logger    *slog.Logger
}

func NewSubmitter(p Persister, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{persister: p, logger: logger}
}

// Submit validates the tag and the graph, then hands them to the persister in
// one call. An empty tag keeps the user's current one. It never retries.
func (s *Submitter) Submit(ctx context.Context, userID, tag string, attrs []game.Attribute, quests []game.Quest) (Rows, error) {
	if strings.TrimSpace(userID) == "" {
		return Rows{}, &SubmitError{Kind: ErrUnauthorized, Message: "You must be signed in to create a profile."}
	}

	fe := game.FieldErrors{}
	if strings.TrimSpace(tag) != "" {
		n, err := game.CheckName("tag", tag, game.MaxTagLen)
		if err != nil {
			fe.AddError("tag", err)
		}
		tag = n
	}
	rows, err := Assemble(attrs, quests)
	if err != nil {
		var graphErrs game.FieldErrors
		errors.As(err, &graphErrs)
		for k, v := range graphErrs {
			fe.Add(k, v)
		}
	}
	if len(fe) > 0 {
		return Rows{}, &SubmitError{Kind: ErrInvalid, Message: "Please fix the highlighted fields.", FieldErrors: fe}
	}

	if err := s.persister.CreateProfile(ctx, userID, tag, rows); err != nil {
		kind := Classify(err)
		s.logger.Warn("profile submission failed", "user", userID, "kind", kind.Error(), "error", err)
		se := &SubmitError{Kind: kind, Message: messageFor(kind), Err: err}
		if kind == ErrTagTaken {
			se.FieldErrors = game.FieldErrors{"tag": "that tag is already taken"}
		}
		return Rows{}, se
	}
	s.logger.Info("profile created", "user", userID, "attributes", len(rows.Attributes), "quests", len(rows.Quests))
	return rows, nil
}

func messageFor(kind error) string {
	switch kind {
	case ErrDuplicate:
		return "A profile already exists for this account."
	case ErrUnauthorized:
		return "You are not allowed to create this profile."
	case ErrTagTaken:
		return "That tag is already taken, please choose another."
	}
	return "Could not create the profile, please try again."
}
