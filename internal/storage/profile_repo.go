package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Daltraxx/life-rpg-sub000/internal/game"
	"github.com/Daltraxx/life-rpg-sub000/internal/profile"
)

// Store persists users and their profiles.
type Store struct {
	db *sql.DB
}

func (s *Store) Close() error { return s.db.Close() }

// Error is a storage failure tagged with a profile error code.
type Error struct {
	Code string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) ErrorCode() string { return e.Code }

// wrap attaches a code to err when SQLite reports a uniqueness conflict.
func wrap(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &Error{Code: profile.CodeUniqueViolation, Op: op, Err: err}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnique(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == profile.CodeUniqueViolation
}

// EnsureUser registers a user id. An empty tag leaves the user's current tag
// alone; a tag taken by another user is a unique violation.
func (s *Store) EnsureUser(ctx context.Context, id, tag string) error {
	name, key := tagArgs(tag)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, tag, tag_key) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tag = COALESCE(excluded.tag, users.tag),
			tag_key = COALESCE(excluded.tag_key, users.tag_key)
	`, id, name, key)
	if err != nil {
		return wrap("user upsert", err)
	}
	return nil
}

// tagArgs returns the display tag and its lookup key, both NULL for an empty
// tag. The key uses the same folding as the availability cache, so lookups
// and the uniqueness constraint agree on every script.
func tagArgs(tag string) (name, key any) {
	n := game.NormalizeName(tag)
	if n == "" {
		return nil, nil
	}
	return n, game.FoldName(n)
}

// NameExists reports whether a user already holds candidate as their tag.
// Comparison ignores case.
func (s *Store) NameExists(ctx context.Context, candidate string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE tag_key = ?`, game.FoldName(candidate)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("tag lookup: %w", err)
	}
	return n > 0, nil
}

// CreateProfile writes every row of a profile, and the user's tag when one is
// given, in one transaction. An unknown user is unauthorized and a user who
// already has a profile is a duplicate. A tag held by someone else is taken.
func (s *Store) CreateProfile(ctx context.Context, userID, tag string, rows profile.Rows) error {
	return WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var createdAt sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT profile_created_at FROM users WHERE id = ?`, userID).Scan(&createdAt)
		if errors.Is(err, sql.ErrNoRows) {
			return &Error{Code: profile.CodeUnauthorized, Op: "create profile"}
		}
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		if createdAt.Valid {
			return &Error{Code: profile.CodeUniqueViolation, Op: "create profile"}
		}

		for _, a := range rows.Attributes {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO attributes (user_id, name, position) VALUES (?, ?, ?)`,
				userID, a.Name, a.Position); err != nil {
				return wrap("insert attribute", err)
			}
		}
		for _, q := range rows.Quests {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO quests (user_id, name, experience_share, position) VALUES (?, ?, ?, ?)`,
				userID, q.Name, q.ExperienceShare, q.Position); err != nil {
				return wrap("insert quest", err)
			}
		}
		for _, l := range rows.QuestAttributes {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO quest_attributes (user_id, quest_name, attribute_name, attribute_power) VALUES (?, ?, ?, ?)`,
				userID, l.QuestName, l.AttributeName, l.AttributePower); err != nil {
				return wrap("insert quest attribute", err)
			}
		}

		if name, key := tagArgs(tag); name != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET tag = ?, tag_key = ? WHERE id = ?`, name, key, userID); err != nil {
				if isUnique(wrap("set tag", err)) {
					return &Error{Code: profile.CodeTagTaken, Op: "set tag", Err: err}
				}
				return fmt.Errorf("set tag: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET profile_created_at = CURRENT_TIMESTAMP WHERE id = ?`, userID); err != nil {
			return fmt.Errorf("mark profile created: %w", err)
		}
		return nil
	})
}

// LoadProfile reads a stored profile back. ok is false when the user has none.
func (s *Store) LoadProfile(ctx context.Context, userID string) (rows profile.Rows, ok bool, err error) {
	var createdAt sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT profile_created_at FROM users WHERE id = ?`, userID).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Rows{}, false, nil
	}
	if err != nil {
		return profile.Rows{}, false, fmt.Errorf("load profile: %w", err)
	}
	if !createdAt.Valid {
		return profile.Rows{}, false, nil
	}

	if rows.Attributes, err = queryAttributes(ctx, s.db, userID); err != nil {
		return profile.Rows{}, false, err
	}
	if rows.Quests, err = queryQuests(ctx, s.db, userID); err != nil {
		return profile.Rows{}, false, err
	}
	if rows.QuestAttributes, err = queryQuestAttributes(ctx, s.db, userID); err != nil {
		return profile.Rows{}, false, err
	}
	return rows, true, nil
}

func queryAttributes(ctx context.Context, db *sql.DB, userID string) ([]profile.AttributeRow, error) {
	rs, err := db.QueryContext(ctx, `SELECT name, position FROM attributes WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("attributes list: %w", err)
	}
	defer rs.Close()

	var out []profile.AttributeRow
	for rs.Next() {
		var r profile.AttributeRow
		if err := rs.Scan(&r.Name, &r.Position); err != nil {
			return nil, fmt.Errorf("attributes scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rs.Err()
}

func queryQuests(ctx context.Context, db *sql.DB, userID string) ([]profile.QuestRow, error) {
	rs, err := db.QueryContext(ctx, `SELECT name, experience_share, position FROM quests WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("quests list: %w", err)
	}
	defer rs.Close()

	var out []profile.QuestRow
	for rs.Next() {
		var r profile.QuestRow
		if err := rs.Scan(&r.Name, &r.ExperienceShare, &r.Position); err != nil {
			return nil, fmt.Errorf("quests scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rs.Err()
}

// queryQuestAttributes keeps each quest's links in insertion order.
func queryQuestAttributes(ctx context.Context, db *sql.DB, userID string) ([]profile.QuestAttributeRow, error) {
	rs, err := db.QueryContext(ctx, `
		SELECT qa.quest_name, qa.attribute_name, qa.attribute_power
		FROM quest_attributes qa
		JOIN quests q ON q.user_id = qa.user_id AND q.name = qa.quest_name
		WHERE qa.user_id = ?
		ORDER BY q.position, qa.rowid
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("quest attributes list: %w", err)
	}
	defer rs.Close()

	var out []profile.QuestAttributeRow
	for rs.Next() {
		var r profile.QuestAttributeRow
		if err := rs.Scan(&r.QuestName, &r.AttributeName, &r.AttributePower); err != nil {
			return nil, fmt.Errorf("quest attributes scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rs.Err()
}
