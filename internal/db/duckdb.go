package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jcdickinson/scaladex/internal/index"
	_ "github.com/marcboeker/go-duckdb"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Child tables carry no REFERENCES clauses: DuckDB rejects deleting a parent
// and its children in the same transaction, which ReplaceIndex relies on.
func (db *DB) initSchema() error {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_source_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_package_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_object_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_member_id START 1;`,

		`CREATE TABLE IF NOT EXISTS sources (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			location TEXT NOT NULL,
			content_hash TEXT,
			imported_at TIMESTAMP,
			last_used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS packages (
			id INTEGER PRIMARY KEY,
			source_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_packages_source ON packages (source_id)`,

		`CREATE TABLE IF NOT EXISTS objects (
			id INTEGER PRIMARY KEY,
			package_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			short_description TEXT NOT NULL,
			object_path TEXT,
			class_path TEXT,
			trait_path TEXT,
			kind TEXT NOT NULL,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_objects_package ON objects (package_id)`,
		`CREATE INDEX IF NOT EXISTS idx_objects_name ON objects (name)`,

		`CREATE TABLE IF NOT EXISTS members (
			id INTEGER PRIMARY KEY,
			object_id INTEGER NOT NULL,
			section TEXT NOT NULL,
			label TEXT NOT NULL,
			tail TEXT NOT NULL,
			member TEXT NOT NULL,
			link TEXT NOT NULL,
			kind TEXT NOT NULL,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_members_object ON members (object_id)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Source operations ---

// Source is a named index.js location that has been imported at least once.
type Source struct {
	ID          int
	Name        string
	Location    string
	ContentHash string
	ImportedAt  *time.Time
	LastUsedAt  time.Time
}

const sourceColumns = `id, name, location, COALESCE(content_hash, ''), imported_at, last_used_at`

func scanSource(row interface{ Scan(...any) error }) (*Source, error) {
	var s Source
	if err := row.Scan(&s.ID, &s.Name, &s.Location, &s.ContentHash, &s.ImportedAt, &s.LastUsedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertSource returns the source with the given name, creating it or updating
// its location as needed.
func (db *DB) UpsertSource(name, location string) (*Source, error) {
	s, err := db.GetSource(name)
	if err != nil {
		return nil, fmt.Errorf("checking source: %w", err)
	}
	if s != nil {
		if s.Location != location {
			if _, err := db.conn.Exec(`UPDATE sources SET location = ? WHERE id = ?`, location, s.ID); err != nil {
				return nil, fmt.Errorf("updating source location: %w", err)
			}
			s.Location = location
		}
		return s, nil
	}

	var id int
	err = db.conn.QueryRow(
		`INSERT INTO sources (id, name, location) VALUES (nextval('seq_source_id'), ?, ?) RETURNING id`,
		name, location,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("inserting source: %w", err)
	}
	return &Source{ID: id, Name: name, Location: location, LastUsedAt: time.Now()}, nil
}

// GetSource returns the named source, or nil if it has never been imported.
func (db *DB) GetSource(name string) (*Source, error) {
	s, err := scanSource(db.conn.QueryRow(`SELECT `+sourceColumns+` FROM sources WHERE name = ?`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) ListSources() ([]Source, error) {
	rows, err := db.conn.Query(`SELECT ` + sourceColumns + ` FROM sources ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *s)
	}
	return sources, rows.Err()
}

func (db *DB) TouchSource(sourceID int) error {
	_, err := db.conn.Exec(`UPDATE sources SET last_used_at = CURRENT_TIMESTAMP WHERE id = ?`, sourceID)
	return err
}

// DeleteSource removes a source and everything stored for it.
func (db *DB) DeleteSource(sourceID int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteIndex(tx, sourceID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM sources WHERE id = ?`, sourceID); err != nil {
		return fmt.Errorf("deleting source: %w", err)
	}
	return tx.Commit()
}

// --- Index operations ---

func deleteIndex(tx *sql.Tx, sourceID int) error {
	queries := []string{
		`DELETE FROM members WHERE object_id IN (
			SELECT o.id FROM objects o JOIN packages p ON p.id = o.package_id WHERE p.source_id = ?)`,
		`DELETE FROM objects WHERE package_id IN (SELECT id FROM packages WHERE source_id = ?)`,
		`DELETE FROM packages WHERE source_id = ?`,
	}
	for _, q := range queries {
		if _, err := tx.Exec(q, sourceID); err != nil {
			return fmt.Errorf("clearing index: %w", err)
		}
	}
	return nil
}

// ReplaceIndex swaps the stored index of a source for idx and records the
// content hash of the bytes it was parsed from. Readers see either the old
// index or the new one.
func (db *DB) ReplaceIndex(sourceID int, contentHash string, idx *index.PackageIndex) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteIndex(tx, sourceID); err != nil {
		return err
	}

	memberStmt, err := tx.Prepare(
		`INSERT INTO members (id, object_id, section, label, tail, member, link, kind, position)
		 VALUES (nextval('seq_member_id'), ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing member insert: %w", err)
	}
	defer memberStmt.Close()

	for pi, pkg := range idx.Packages() {
		var pkgID int
		err := tx.QueryRow(
			`INSERT INTO packages (id, source_id, name, position) VALUES (nextval('seq_package_id'), ?, ?, ?) RETURNING id`,
			sourceID, pkg.Name, pi,
		).Scan(&pkgID)
		if err != nil {
			return fmt.Errorf("inserting package %s: %w", pkg.Name, err)
		}

		for oi := range pkg.Objects {
			o := &pkg.Objects[oi]
			paths := map[string]sql.NullString{}
			for _, s := range o.Sections() {
				paths[s.Name] = sql.NullString{String: s.Page, Valid: true}
			}

			var objID int
			err := tx.QueryRow(
				`INSERT INTO objects (id, package_id, name, short_description, object_path, class_path, trait_path, kind, position)
				 VALUES (nextval('seq_object_id'), ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
				pkgID, o.Name, o.ShortDescription, paths["object"], paths["class"], paths["trait"], o.Kind, oi,
			).Scan(&objID)
			if err != nil {
				return fmt.Errorf("inserting object %s: %w", o.Name, err)
			}

			for _, s := range o.Sections() {
				for mi, m := range s.Members {
					if _, err := memberStmt.Exec(objID, s.Name, m.Label, m.Tail, m.Member, m.Link, m.Kind, mi); err != nil {
						return fmt.Errorf("inserting member %s: %w", m.Member, err)
					}
				}
			}
		}
	}

	if _, err := tx.Exec(
		`UPDATE sources SET content_hash = ?, imported_at = CURRENT_TIMESTAMP WHERE id = ?`,
		contentHash, sourceID,
	); err != nil {
		return fmt.Errorf("marking source imported: %w", err)
	}

	return tx.Commit()
}

// LoadIndex rebuilds the stored index of a source in its original order.
func (db *DB) LoadIndex(sourceID int) (*index.PackageIndex, error) {
	type objectRow struct {
		pkgID int
		entry index.ObjectEntry
	}

	rows, err := db.conn.Query(
		`SELECT id, name FROM packages WHERE source_id = ? ORDER BY position`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	var pkgIDs []int
	pkgNames := map[int]string{}
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return nil, err
		}
		pkgIDs = append(pkgIDs, id)
		pkgNames[id] = name
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.conn.Query(
		`SELECT o.id, o.package_id, o.name, o.short_description, o.object_path, o.class_path, o.trait_path, o.kind
		 FROM objects o JOIN packages p ON p.id = o.package_id
		 WHERE p.source_id = ?
		 ORDER BY o.package_id, o.position`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading objects: %w", err)
	}
	var objIDs []int
	objects := map[int]*objectRow{}
	for rows.Next() {
		var id int
		var r objectRow
		var objPath, classPath, traitPath sql.NullString
		if err := rows.Scan(&id, &r.pkgID, &r.entry.Name, &r.entry.ShortDescription, &objPath, &classPath, &traitPath, &r.entry.Kind); err != nil {
			rows.Close()
			return nil, err
		}
		// A present section always gets a non-nil member slice so it
		// survives even when its page is empty.
		if objPath.Valid {
			r.entry.Object, r.entry.MembersObject = objPath.String, []index.MemberEntry{}
		}
		if classPath.Valid {
			r.entry.Class, r.entry.MembersClass = classPath.String, []index.MemberEntry{}
		}
		if traitPath.Valid {
			r.entry.Trait, r.entry.MembersTrait = traitPath.String, []index.MemberEntry{}
		}
		objIDs = append(objIDs, id)
		objects[id] = &r
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = db.conn.Query(
		`SELECT m.object_id, m.section, m.label, m.tail, m.member, m.link, m.kind
		 FROM members m
		 JOIN objects o ON o.id = m.object_id
		 JOIN packages p ON p.id = o.package_id
		 WHERE p.source_id = ?
		 ORDER BY m.object_id, m.section, m.position`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("loading members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var objID int
		var section string
		var m index.MemberEntry
		if err := rows.Scan(&objID, &section, &m.Label, &m.Tail, &m.Member, &m.Link, &m.Kind); err != nil {
			return nil, err
		}
		r, ok := objects[objID]
		if !ok {
			continue
		}
		switch section {
		case "object":
			r.entry.MembersObject = append(r.entry.MembersObject, m)
		case "class":
			r.entry.MembersClass = append(r.entry.MembersClass, m)
		case "trait":
			r.entry.MembersTrait = append(r.entry.MembersTrait, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byPkg := map[int][]index.ObjectEntry{}
	for _, id := range objIDs {
		r := objects[id]
		byPkg[r.pkgID] = append(byPkg[r.pkgID], r.entry)
	}

	idx := index.New()
	for _, id := range pkgIDs {
		objs := byPkg[id]
		if objs == nil {
			objs = []index.ObjectEntry{}
		}
		idx.Add(pkgNames[id], objs)
	}
	return idx, nil
}

// Stats counts what is stored for a source.
type Stats struct {
	Packages int
	Objects  int
	Members  int
}

func (db *DB) CountMembers(sourceID int) (Stats, error) {
	var s Stats
	err := db.conn.QueryRow(
		`SELECT
			(SELECT COUNT(*) FROM packages WHERE source_id = ?),
			(SELECT COUNT(*) FROM objects o JOIN packages p ON p.id = o.package_id WHERE p.source_id = ?),
			(SELECT COUNT(*) FROM members m JOIN objects o ON o.id = m.object_id
			   JOIN packages p ON p.id = o.package_id WHERE p.source_id = ?)`,
		sourceID, sourceID, sourceID,
	).Scan(&s.Packages, &s.Objects, &s.Members)
	return s, err
}
