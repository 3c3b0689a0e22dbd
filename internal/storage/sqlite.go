package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/kalambet/folio/internal/profile"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding profiles, projects and work entries.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "folio.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection: pragmas below are per-connection and an in-memory
	// database exists only on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []struct{ stmt, what string }{
		{"PRAGMA busy_timeout = 5000", "setting busy timeout"},
		{"PRAGMA journal_mode=WAL", "setting journal mode"},
		{"PRAGMA foreign_keys = ON", "enabling foreign keys"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p.what, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Profiles ---

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// ListProfiles returns every profile with its projects and work entries, in
// creation order. The three reads share one transaction so the result is a
// consistent snapshot.
func (s *Store) ListProfiles() ([]profile.Profile, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}
	defer tx.Rollback()

	return loadProfiles(tx, "", nil)
}

func (s *Store) GetProfile(id string) (profile.Profile, error) {
	return s.getOne("WHERE id = ?", id)
}

func (s *Store) GetProfileByEmail(email string) (profile.Profile, error) {
	return s.getOne("WHERE email = ?", email)
}

func (s *Store) getOne(where string, arg any) (profile.Profile, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return profile.Profile{}, fmt.Errorf("beginning read transaction: %w", err)
	}
	defer tx.Rollback()

	profiles, err := loadProfiles(tx, where, []any{arg})
	if err != nil {
		return profile.Profile{}, err
	}
	if len(profiles) == 0 {
		return profile.Profile{}, ErrNotFound
	}
	return profiles[0], nil
}

// CreateProfile inserts p together with its projects and work entries.
func (s *Store) CreateProfile(p profile.Profile) error {
	skills, links, err := encodeProfileFields(p)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning create transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO profiles (id, name, email, education, skills, links, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Email, p.Education, skills, links,
		p.CreatedAt.UTC().Format(time.RFC3339), p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return translateErr(err)
	}

	if err := insertChildren(tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateProfile replaces the profile's scalar fields and swaps its projects
// and work entries for the ones in p. CreatedAt is left untouched.
func (s *Store) UpdateProfile(p profile.Profile) error {
	skills, links, err := encodeProfileFields(p)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning update transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE profiles SET name = ?, email = ?, education = ?, skills = ?, links = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Email, p.Education, skills, links, p.UpdatedAt.UTC().Format(time.RFC3339), p.ID,
	)
	if err != nil {
		return translateErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	if err := deleteChildren(tx, p.ID); err != nil {
		return err
	}
	if err := insertChildren(tx, p); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteProfile removes the profile and everything it owns.
func (s *Store) DeleteProfile(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteChildren(tx, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func encodeProfileFields(p profile.Profile) (skills, links string, err error) {
	sk := p.Skills
	if sk == nil {
		sk = []string{}
	}
	if skills, err = encodeJSON(sk); err != nil {
		return "", "", fmt.Errorf("encoding skills: %w", err)
	}
	lk := p.Links
	if lk == nil {
		lk = map[string]string{}
	}
	if links, err = encodeJSON(lk); err != nil {
		return "", "", fmt.Errorf("encoding links: %w", err)
	}
	return skills, links, nil
}

func insertChildren(tx *sql.Tx, p profile.Profile) error {
	for i, pr := range p.Projects {
		ls := pr.Links
		if ls == nil {
			ls = []string{}
		}
		links, err := encodeJSON(ls)
		if err != nil {
			return fmt.Errorf("encoding project links: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO projects (id, profile_id, position, title, description, links)
			VALUES (?, ?, ?, ?, ?, ?)`,
			pr.ID, p.ID, i, pr.Title, pr.Description, links,
		); err != nil {
			return fmt.Errorf("inserting project %d: %w", i, err)
		}
	}
	for i, w := range p.Work {
		if _, err := tx.Exec(`
			INSERT INTO work (id, profile_id, position, company, role, duration, description)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			w.ID, p.ID, i, w.Company, w.Role, w.Duration, w.Description,
		); err != nil {
			return fmt.Errorf("inserting work entry %d: %w", i, err)
		}
	}
	return nil
}

func deleteChildren(tx *sql.Tx, profileID string) error {
	if _, err := tx.Exec(`DELETE FROM projects WHERE profile_id = ?`, profileID); err != nil {
		return fmt.Errorf("deleting projects: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM work WHERE profile_id = ?`, profileID); err != nil {
		return fmt.Errorf("deleting work entries: %w", err)
	}
	return nil
}

// loadProfiles reads the profiles selected by where (a WHERE clause over the
// profiles table, or "") and attaches their children.
func loadProfiles(q queryer, where string, args []any) ([]profile.Profile, error) {
	rows, err := q.Query(`
		SELECT id, name, email, education, skills, links, created_at, updated_at
		FROM profiles `+where+` ORDER BY created_at ASC, rowid ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []profile.Profile{}
	byID := make(map[string]int)
	for rows.Next() {
		var p profile.Profile
		var skills, links, createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Education, &skills, &links, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if p.Skills, err = decodeStrings("skills", skills); err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.ID, err)
		}
		if p.Links, err = decodeLinks(links); err != nil {
			return nil, fmt.Errorf("profile %s: %w", p.ID, err)
		}
		if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		p.Projects = []profile.Project{}
		p.Work = []profile.WorkEntry{}
		byID[p.ID] = len(profiles)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(profiles) == 0 {
		return profiles, nil
	}

	// Children are selected through the same filter so one query per table
	// covers every loaded profile.
	owners := `SELECT id FROM profiles ` + where

	prows, err := q.Query(`
		SELECT id, profile_id, title, description, links
		FROM projects WHERE profile_id IN (`+owners+`) ORDER BY profile_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		var pr profile.Project
		var links string
		if err := prows.Scan(&pr.ID, &pr.ProfileID, &pr.Title, &pr.Description, &links); err != nil {
			return nil, err
		}
		if pr.Links, err = decodeStrings("project links", links); err != nil {
			return nil, fmt.Errorf("project %s: %w", pr.ID, err)
		}
		if i, ok := byID[pr.ProfileID]; ok {
			profiles[i].Projects = append(profiles[i].Projects, pr)
		}
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}
	prows.Close()

	wrows, err := q.Query(`
		SELECT id, profile_id, company, role, duration, description
		FROM work WHERE profile_id IN (`+owners+`) ORDER BY profile_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("loading work entries: %w", err)
	}
	defer wrows.Close()
	for wrows.Next() {
		var w profile.WorkEntry
		if err := wrows.Scan(&w.ID, &w.ProfileID, &w.Company, &w.Role, &w.Duration, &w.Description); err != nil {
			return nil, err
		}
		if i, ok := byID[w.ProfileID]; ok {
			profiles[i].Work = append(profiles[i].Work, w)
		}
	}
	return profiles, wrows.Err()
}

// translateErr maps driver constraint failures onto package errors.
func translateErr(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "profiles.email") {
		return ErrDuplicateEmail
	}
	return err
}
