// Package testutil provides shared test helpers for setting up vaults
// and seeded Things logbook databases.
package testutil

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/loggbok/internal/models"
	"github.com/starford/loggbok/internal/vault"
)

// TestVault creates a temporary vault directory with a vault.Provider.
func TestVault(t *testing.T) (string, vault.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := vault.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// logbookSchema is the subset of the Things 3 schema the queries touch.
const logbookSchema = `
CREATE TABLE TMTask (
	uuid     TEXT PRIMARY KEY,
	title    TEXT NOT NULL DEFAULT '',
	notes    TEXT,
	area     TEXT,
	status   INTEGER NOT NULL DEFAULT 0,
	stopDate REAL,
	trashed  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE TMArea (
	uuid  TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT ''
);

CREATE TABLE TMTag (
	uuid  TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT ''
);

CREATE TABLE TMTaskTag (
	tasks TEXT NOT NULL,
	tags  TEXT NOT NULL
);

CREATE TABLE TMChecklistItem (
	uuid    TEXT PRIMARY KEY,
	title   TEXT NOT NULL DEFAULT '',
	task    TEXT NOT NULL,
	status  INTEGER NOT NULL DEFAULT 0,
	"index" INTEGER NOT NULL DEFAULT 0
);
`

// Logbook is a temporary Things-schema database that tests can seed.
type Logbook struct {
	t    *testing.T
	conn *sql.DB

	// Path of the database file, for things.Open.
	Path string

	areas map[string]string // title → uuid
	tags  map[string]string
}

// NewLogbook creates an empty temporary logbook database.
func NewLogbook(t *testing.T) *Logbook {
	t.Helper()
	f, err := os.CreateTemp("", "loggbok-test-*.sqlite3")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	conn, err := sql.Open("sqlite3", f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	if _, err := conn.Exec(logbookSchema); err != nil {
		t.Fatalf("create logbook schema: %v", err)
	}

	return &Logbook{
		t:     t,
		conn:  conn,
		Path:  f.Name(),
		areas: make(map[string]string),
		tags:  make(map[string]string),
	}
}

// AddTask inserts a task with its area, tags, and checklist items.
// When the task has no UUID one is generated and returned. Status is
// derived from the model: cancelled → 2, stopped → 3, otherwise open.
func (l *Logbook) AddTask(task models.Task) string {
	l.t.Helper()

	id := task.UUID
	if id == "" {
		id = uuid.NewString()
	}

	status := 0
	switch {
	case task.Cancelled:
		status = 2
	case task.StopDate > 0:
		status = 3
	}

	var stop any
	if task.StopDate > 0 {
		stop = float64(task.StopDate)
	}
	var area any
	if task.Area != "" {
		area = l.areaID(task.Area)
	}

	_, err := l.conn.Exec(
		`INSERT INTO TMTask (uuid, title, notes, area, status, stopDate) VALUES (?, ?, ?, ?, ?, ?)`,
		id, task.Title, task.Notes, area, status, stop)
	if err != nil {
		l.t.Fatalf("insert task: %v", err)
	}

	for _, tag := range task.Tags {
		if _, err := l.conn.Exec(`INSERT INTO TMTaskTag (tasks, tags) VALUES (?, ?)`, id, l.tagID(tag)); err != nil {
			l.t.Fatalf("insert task tag: %v", err)
		}
	}

	for i, st := range task.Subtasks {
		stStatus := 0
		if st.Completed {
			stStatus = 3
		}
		_, err := l.conn.Exec(
			`INSERT INTO TMChecklistItem (uuid, title, task, status, "index") VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), st.Title, id, stStatus, i)
		if err != nil {
			l.t.Fatalf("insert checklist item: %v", err)
		}
	}

	return id
}

// Trash marks a task as trashed so queries must skip it.
func (l *Logbook) Trash(taskUUID string) {
	l.t.Helper()
	if _, err := l.conn.Exec(`UPDATE TMTask SET trashed = 1 WHERE uuid = ?`, taskUUID); err != nil {
		l.t.Fatalf("trash task: %v", err)
	}
}

func (l *Logbook) areaID(title string) string {
	if id, ok := l.areas[title]; ok {
		return id
	}
	id := uuid.NewString()
	if _, err := l.conn.Exec(`INSERT INTO TMArea (uuid, title) VALUES (?, ?)`, id, title); err != nil {
		l.t.Fatalf("insert area: %v", err)
	}
	l.areas[title] = id
	return id
}

func (l *Logbook) tagID(title string) string {
	if id, ok := l.tags[title]; ok {
		return id
	}
	id := uuid.NewString()
	if _, err := l.conn.Exec(`INSERT INTO TMTag (uuid, title) VALUES (?, ?)`, id, title); err != nil {
		l.t.Fatalf("insert tag: %v", err)
	}
	l.tags[title] = id
	return id
}
