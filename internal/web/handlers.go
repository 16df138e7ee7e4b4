package web

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Daltraxx/life-rpg-sub000/internal/availability"
	"github.com/Daltraxx/life-rpg-sub000/internal/game"
	"github.com/Daltraxx/life-rpg-sub000/internal/profile"
	"github.com/Daltraxx/life-rpg-sub000/internal/session"
)

// Directory is the user-facing side of the persistence layer.
type Directory interface {
	NameExists(ctx context.Context, candidate string) (bool, error)
	EnsureUser(ctx context.Context, id, tag string) error
	LoadProfile(ctx context.Context, userID string) (profile.Rows, bool, error)
}

type Server struct {
	Store     session.Store[*SetupSession]
	Directory Directory
	Submitter *profile.Submitter
	Seed      *game.Seed
	Tmpl      *template.Template
	Logger    *slog.Logger

	// NameDelay debounces tag availability checks.
	NameDelay time.Duration
	// UserHeader is the request header carrying the signed-in user id.
	UserHeader string

	names singleflight.Group
}

const cookieName = "liferpg_sid"

// SetupSession is one visitor's in-progress account setup.
type SetupSession struct {
	Setup   *game.Setup
	Tag     string
	Errors  game.FieldErrors
	checker *availability.Checker
}

// Close releases the session's background name checks.
func (ss *SetupSession) Close() {
	if ss.checker != nil {
		ss.checker.Close()
	}
}

// badRequest marks malformed input that no form we render would send.
type badRequest string

func (e badRequest) Error() string { return string(e) }

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /setup", s.handleSetup)

	mux.HandleFunc("POST /setup/attributes", s.form(addAttribute))
	mux.HandleFunc("POST /setup/attributes/delete", s.form(deleteAttribute))
	mux.HandleFunc("POST /setup/attributes/move", s.form(moveAttribute))

	mux.HandleFunc("POST /setup/draft/name", s.form(setDraftName))
	mux.HandleFunc("POST /setup/draft/experience", s.form(setDraftExperience))
	mux.HandleFunc("POST /setup/draft/current", s.form(setCurrentAttribute))
	mux.HandleFunc("POST /setup/draft/strength", s.form(setCurrentStrength))
	mux.HandleFunc("POST /setup/draft/attributes", s.form(addAffectedAttribute))
	mux.HandleFunc("POST /setup/draft/attributes/delete", s.form(removeAffectedAttribute))
	mux.HandleFunc("POST /setup/draft/reset", s.form(resetDraft))

	mux.HandleFunc("POST /setup/quests", s.form(commitQuest))
	mux.HandleFunc("POST /setup/quests/delete", s.form(deleteQuest))
	mux.HandleFunc("POST /setup/quests/move", s.form(moveQuest))
	mux.HandleFunc("POST /setup/quests/experience", s.form(adjustQuestExperience))

	mux.HandleFunc("POST /setup/tag", s.handleTagCheck)
	mux.HandleFunc("GET /setup/tag", s.handleTagStatus)
	mux.HandleFunc("POST /setup/submit", s.handleSubmit)
	mux.HandleFunc("GET /setup/sheet.pdf", s.handleSetupSheet)

	mux.HandleFunc("GET /profile", s.handleProfile)
	mux.HandleFunc("GET /profile/sheet.pdf", s.handleProfileSheet)
	return mux
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/setup", http.StatusFound)
}

// GET /setup
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	w.Header().Set("Cache-Control", "no-store")

	id, err := s.sessionFor(w, r)
	if err != nil {
		s.fail(w, "failed to start setup", err)
		return
	}
	var vm SetupViewModel
	err = s.Store.Update(ctx, id, func(ss *SetupSession) error {
		vm = newSetupView(ss)
		// Errors are shown once, after the redirect that produced them.
		ss.Errors = nil
		return nil
	})
	if err != nil {
		s.fail(w, "failed to load setup", err)
		return
	}
	if err := s.Tmpl.ExecuteTemplate(w, "layout.html", map[string]any{"Setup": vm}); err != nil {
		s.logger().Error("render setup", "error", err)
	}
}

// form adapts a session mutation to a POST handler. htmx requests get the
// re-rendered setup fragment; plain form posts are redirected back to /setup.
func (s *Server) form(fn func(ss *SetupSession, form url.Values) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		id, err := s.sessionFor(w, r)
		if err != nil {
			s.fail(w, "failed to start setup", err)
			return
		}

		var vm SetupViewModel
		err = s.Store.Update(ctx, id, func(ss *SetupSession) error {
			ss.Errors = nil
			if err := fn(ss, r.PostForm); err != nil {
				return err
			}
			vm = newSetupView(ss)
			return nil
		})
		var bad badRequest
		switch {
		case errors.As(err, &bad):
			http.Error(w, bad.Error(), http.StatusBadRequest)
			return
		case err != nil:
			s.fail(w, "failed to save setup", err)
			return
		}

		if !isHTMX(r) {
			http.Redirect(w, r, "/setup", http.StatusSeeOther)
			return
		}
		if err := s.Tmpl.ExecuteTemplate(w, "setup.html", vm); err != nil {
			s.logger().Error("render setup fragment", "error", err)
		}
	}
}

// sessionFor returns the caller's session id, creating the session (and the
// cookie) when it is missing or has expired.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (string, error) {
	ctx := r.Context()
	if id := s.sessionID(r); id != "" {
		if _, ok, err := s.Store.Get(ctx, id); err != nil {
			return "", err
		} else if ok {
			return id, nil
		}
	}

	setup, err := game.NewSetup(s.Seed, s.logger())
	if err != nil {
		return "", err
	}
	id := s.Store.NewID()
	if err := s.Store.Put(ctx, id, &SetupSession{Setup: setup}); err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

func (s *Server) sessionID(r *http.Request) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// userID is the signed-in user, or "" for an anonymous visitor.
func (s *Server) userID(r *http.Request) string {
	if s.UserHeader == "" {
		return ""
	}
	return r.Header.Get(s.UserHeader)
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	s.logger().Error(msg, "error", err)
	http.Error(w, msg, http.StatusInternalServerError)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
