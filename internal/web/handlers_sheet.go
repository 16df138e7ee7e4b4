package web

import (
	"net/http"

	"github.com/Daltraxx/life-rpg-sub000/internal/game"
	"github.com/Daltraxx/life-rpg-sub000/internal/sheet"
)

// GET /setup/sheet.pdf renders the setup in progress.
func (s *Server) handleSetupSheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := s.sessionID(r)
	if id == "" {
		http.Redirect(w, r, "/setup", http.StatusFound)
		return
	}
	var (
		attrs  []game.Attribute
		quests []game.Quest
		tag    string
	)
	err := s.Store.Update(ctx, id, func(ss *SetupSession) error {
		attrs, quests = ss.Setup.Snapshot()
		tag = ss.Tag
		return nil
	})
	if err != nil {
		http.Redirect(w, r, "/setup", http.StatusFound)
		return
	}
	s.writeSheet(w, attrs, quests, tag)
}

// GET /profile/sheet.pdf renders the stored profile.
func (s *Server) handleProfileSheet(w http.ResponseWriter, r *http.Request) {
	attrs, quests, ok := s.storedProfile(w, r)
	if !ok {
		return
	}
	s.writeSheet(w, attrs, quests, "")
}

func (s *Server) writeSheet(w http.ResponseWriter, attrs []game.Attribute, quests []game.Quest, title string) {
	pdf, err := sheet.Generate(attrs, quests, title)
	if err != nil {
		s.fail(w, "failed to render sheet", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="character-sheet.pdf"`)
	if _, err := w.Write(pdf); err != nil {
		s.logger().Warn("write sheet", "error", err)
	}
}
