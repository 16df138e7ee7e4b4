package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Daltraxx/life-rpg-sub000/internal/availability"
	"github.com/Daltraxx/life-rpg-sub000/internal/game"
	"github.com/Daltraxx/life-rpg-sub000/internal/profile"
)

// nameChecker returns the session's availability checker, creating it on
// first use. Identical lookups are shared across sessions.
func (s *Server) nameChecker(ss *SetupSession) *availability.Checker {
	if ss.checker == nil {
		ss.checker = availability.NewChecker(s.Directory.NameExists, availability.Options{
			Delay:  s.NameDelay,
			Group:  &s.names,
			Logger: s.logger(),
		})
	}
	return ss.checker
}

// POST /setup/tag
func (s *Server) handleTagCheck(w http.ResponseWriter, r *http.Request) {
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
	tag := strings.TrimSpace(r.PostForm.Get("tag"))
	if len([]rune(tag)) > game.MaxTagLen {
		tag = string([]rune(tag)[:game.MaxTagLen])
	}

	var vm TagViewModel
	err = s.Store.Update(ctx, id, func(ss *SetupSession) error {
		ss.Tag = tag
		c := s.nameChecker(ss)
		c.Check(tag)
		vm = newTagView(tag, c.Latest())
		return nil
	})
	if err != nil {
		s.fail(w, "failed to check tag", err)
		return
	}
	if !isHTMX(r) {
		http.Redirect(w, r, "/setup", http.StatusSeeOther)
		return
	}
	if err := s.Tmpl.ExecuteTemplate(w, "tag.html", vm); err != nil {
		s.logger().Error("render tag status", "error", err)
	}
}

// GET /setup/tag polls the latest availability result.
func (s *Server) handleTagStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := s.sessionID(r)
	vm := TagViewModel{Status: availability.StatusIdle}
	if id != "" {
		_ = s.Store.Update(ctx, id, func(ss *SetupSession) error {
			vm = tagViewFor(ss)
			return nil
		})
	}
	w.Header().Set("Cache-Control", "no-store")
	if err := s.Tmpl.ExecuteTemplate(w, "tag.html", vm); err != nil {
		s.logger().Error("render tag status", "error", err)
	}
}

// POST /setup/submit persists the profile for the signed-in user.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
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

	var (
		attrs  []game.Attribute
		quests []game.Quest
		tag    string
	)
	err = s.Store.Update(ctx, id, func(ss *SetupSession) error {
		if r.PostForm.Has("tag") {
			ss.Tag = strings.TrimSpace(r.PostForm.Get("tag"))
		}
		tag = ss.Tag
		attrs, quests = ss.Setup.Snapshot()
		return nil
	})
	if err != nil {
		s.fail(w, "failed to load setup", err)
		return
	}

	// Persist outside the session lock.
	userID := s.userID(r)
	errs := s.persist(r, userID, tag, attrs, quests)
	if errs == nil {
		if isHTMX(r) {
			w.Header().Set("HX-Redirect", "/profile")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	var vm SetupViewModel
	err = s.Store.Update(ctx, id, func(ss *SetupSession) error {
		ss.Errors = errs
		vm = newSetupView(ss)
		return nil
	})
	if err != nil {
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

// persist submits the profile together with the user's tag. It returns the
// errors to show on the page, or nil on success. Nothing about the user
// changes unless the whole submission succeeds.
func (s *Server) persist(r *http.Request, userID, tag string, attrs []game.Attribute, quests []game.Quest) game.FieldErrors {
	ctx := r.Context()
	fe := game.FieldErrors{}
	if userID != "" {
		// Creates the user row on first visit; an existing tag is left alone.
		if err := s.Directory.EnsureUser(ctx, userID, ""); err != nil {
			s.logger().Error("register user", "user", userID, "error", err)
			fe.Add("submit", "could not save your profile, please try again")
			return fe
		}
	}

	_, err := s.Submitter.Submit(ctx, userID, tag, attrs, quests)
	if err == nil {
		return nil
	}
	var se *profile.SubmitError
	if !errors.As(err, &se) {
		fe.Add("submit", err.Error())
		return fe
	}
	for k, v := range se.FieldErrors {
		fe.Add(k, v)
	}
	fe.Add("submit", se.Message)
	return fe
}

// GET /profile shows the stored profile of the signed-in user.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	attrs, quests, ok := s.storedProfile(w, r)
	if !ok {
		return
	}
	vm := ProfileViewModel{Attributes: attrs, Quests: quests}
	for _, q := range quests {
		vm.PointsUsed += q.ExperiencePointValue
	}
	if err := s.Tmpl.ExecuteTemplate(w, "layout.html", map[string]any{"Profile": vm}); err != nil {
		s.logger().Error("render profile", "error", err)
	}
}

// storedProfile loads the caller's saved profile, redirecting to /setup when
// there is none. ok is false when a response has already been written.
func (s *Server) storedProfile(w http.ResponseWriter, r *http.Request) ([]game.Attribute, []game.Quest, bool) {
	userID := s.userID(r)
	if userID == "" {
		http.Error(w, "sign in to view your profile", http.StatusUnauthorized)
		return nil, nil, false
	}
	rows, found, err := s.Directory.LoadProfile(r.Context(), userID)
	if err != nil {
		s.fail(w, "failed to load profile", err)
		return nil, nil, false
	}
	if !found {
		http.Redirect(w, r, "/setup", http.StatusFound)
		return nil, nil, false
	}
	attrs, quests, err := rows.Graph()
	if err != nil {
		s.fail(w, "stored profile is corrupt", err)
		return nil, nil, false
	}
	return attrs, quests, true
}
