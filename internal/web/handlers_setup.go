package web

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/Daltraxx/life-rpg-sub000/internal/game"
)

// Form mutations behind the /setup/... POST routes. Each runs with exclusive
// access to the session. Rejections meant for the user land in ss.Errors;
// a returned error is reserved for malformed requests.

func addAttribute(ss *SetupSession, form url.Values) error {
	if err := ss.Setup.AddAttribute(form.Get("name")); err != nil {
		ss.fieldError("attribute", err)
	}
	return nil
}

func deleteAttribute(ss *SetupSession, form url.Values) error {
	name := form.Get("name")
	if !ss.Setup.DeleteAttribute(name) && game.IsSentinel(name) {
		ss.addError("attribute", game.SentinelAttribute+" cannot be removed")
	}
	return nil
}

func moveAttribute(ss *SetupSession, form url.Values) error {
	dir, err := direction(form)
	if err != nil {
		return err
	}
	ss.Setup.MoveAttribute(form.Get("name"), dir)
	return nil
}

func setDraftName(ss *SetupSession, form url.Values) error {
	ss.Setup.SetDraftName(form.Get("name"))
	return nil
}

// setDraftExperience takes either an exact value or a one-point step.
func setDraftExperience(ss *SetupSession, form url.Values) error {
	if form.Has("dir") {
		dir, err := direction(form)
		if err != nil {
			return err
		}
		ss.Setup.AdjustDraftExperience(dir)
		return nil
	}
	return ss.applyDraftExperience(form)
}

func setCurrentAttribute(ss *SetupSession, form url.Values) error {
	ss.Setup.SetCurrentAttribute(form.Get("attribute"))
	return nil
}

func setCurrentStrength(ss *SetupSession, form url.Values) error {
	st, err := game.ParseStrength(form.Get("strength"))
	if err != nil {
		return badRequest(err.Error())
	}
	ss.Setup.SetCurrentStrength(st)
	return nil
}

// addAffectedAttribute attaches the current attribute. The picker form may
// carry the attribute and strength along so a single post is enough.
func addAffectedAttribute(ss *SetupSession, form url.Values) error {
	if form.Has("attribute") {
		ss.Setup.SetCurrentAttribute(form.Get("attribute"))
	}
	if form.Has("strength") {
		if err := setCurrentStrength(ss, form); err != nil {
			return err
		}
	}
	ss.Setup.AddAffectedAttribute()
	return nil
}

func removeAffectedAttribute(ss *SetupSession, form url.Values) error {
	ss.Setup.RemoveAffectedAttribute(form.Get("name"))
	return nil
}

func resetDraft(ss *SetupSession, _ url.Values) error {
	ss.Setup.ResetDraft()
	return nil
}

// commitQuest adds the drafted quest. Name and experience may be posted with
// the commit itself.
func commitQuest(ss *SetupSession, form url.Values) error {
	if form.Has("name") {
		ss.Setup.SetDraftName(form.Get("name"))
	}
	if form.Has("experience") {
		if err := ss.applyDraftExperience(form); err != nil || len(ss.Errors) > 0 {
			return err
		}
	}
	if _, err := ss.Setup.CommitQuest(); err != nil {
		var fe game.FieldErrors
		if errors.As(err, &fe) {
			ss.Errors = fe
			return nil
		}
		ss.fieldError("quest", err)
	}
	return nil
}

func deleteQuest(ss *SetupSession, form url.Values) error {
	a, err := questAction(game.DeleteQuest(form.Get("name")), form)
	if err != nil {
		return err
	}
	ss.Setup.DispatchQuest(a)
	return nil
}

func moveQuest(ss *SetupSession, form url.Values) error {
	dir, err := direction(form)
	if err != nil {
		return err
	}
	a, err := questAction(game.ChangeQuestOrder(form.Get("name"), dir), form)
	if err != nil {
		return err
	}
	ss.Setup.DispatchQuest(a)
	return nil
}

func adjustQuestExperience(ss *SetupSession, form url.Values) error {
	dir, err := direction(form)
	if err != nil {
		return err
	}
	a, err := questAction(game.ChangeQuestExperience(form.Get("name"), dir), form)
	if err != nil {
		return err
	}
	ss.Setup.DispatchQuest(a)
	return nil
}

// questAction attaches the order the page was rendered with, if posted.
func questAction(a game.Action, form url.Values) (game.Action, error) {
	raw := strings.TrimSpace(form.Get("order"))
	if raw == "" {
		return a, nil
	}
	order, err := strconv.Atoi(raw)
	if err != nil {
		return a, badRequest("order must be a number")
	}
	return a.WithOrderHint(order), nil
}

func direction(form url.Values) (game.Direction, error) {
	dir := game.Direction(form.Get("dir"))
	if !dir.IsValid() {
		return "", badRequest("dir must be up or down")
	}
	return dir, nil
}

func (ss *SetupSession) applyDraftExperience(form url.Values) error {
	raw := strings.TrimSpace(form.Get("experience"))
	if raw == "" {
		ss.Setup.SetDraftExperience(0)
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		ss.addError("experiencePointValue", "experience must be a whole number")
		return nil
	}
	ss.Setup.SetDraftExperience(v)
	return nil
}

func (ss *SetupSession) addError(field, msg string) {
	if ss.Errors == nil {
		ss.Errors = game.FieldErrors{}
	}
	ss.Errors.Add(field, msg)
}

func (ss *SetupSession) fieldError(field string, err error) {
	if ss.Errors == nil {
		ss.Errors = game.FieldErrors{}
	}
	ss.Errors.AddError(field, err)
}
