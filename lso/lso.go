// Package lso stores local shared objects, the per-movie key/value
// records scripts create with SharedObject.getLocal. Records live in a
// SQLite database, one row per (root, name), with CBOR-encoded data.
package lso

import (
	"database/sql"
	"io"
	"strings"
	"sync"
	"time"

	goccy "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/kestrel/vm"
)

var log = commonlog.GetLogger("kestrel.lso")

var (
	// ErrNotFound is returned for a record that was never flushed.
	ErrNotFound = errors.New("shared object not found")
	// ErrInvalidName is returned for names getLocal refuses.
	ErrInvalidName = errors.New("invalid shared object name")
)

// invalidNameChars may not appear in a shared object name.
const invalidNameChars = "~%&\\;:\"',<>?# "

// ValidName reports whether name is acceptable to GetLocal.
func ValidName(name string) bool {
	return name != "" && !strings.ContainsAny(name, invalidNameChars)
}

type key struct {
	root, name string
}

// Entry describes a stored record.
type Entry struct {
	Root     string    `json:"root"`
	Name     string    `json:"name"`
	Size     int       `json:"size"`
	Modified time.Time `json:"modified"`
}

// Library is a shared object database plus the objects handed out from
// it in this session.
type Library struct {
	db   *sql.DB
	path string

	mu      sync.Mutex
	objects map[key]*SharedObject
}

// Open opens or creates the database at path.
func Open(path string) (*Library, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "setting busy timeout")
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS shared_objects (
		root TEXT NOT NULL,
		name TEXT NOT NULL,
		data BLOB NOT NULL,
		modified INTEGER NOT NULL,
		PRIMARY KEY (root, name)
	)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating table")
	}

	return &Library{db: db, path: path, objects: make(map[key]*SharedObject)}, nil
}

// Path returns the database path.
func (l *Library) Path() string { return l.path }

// GetLocal returns the shared object name under root, loading any
// stored data into a fresh data object the first time it is asked for.
// Later calls return the same SharedObject.
func (l *Library) GetLocal(v *vm.VM, name, root string) (*SharedObject, error) {
	if !ValidName(name) {
		return nil, errors.Wrapf(ErrInvalidName, "%q", name)
	}
	k := key{root: root, name: name}

	l.mu.Lock()
	defer l.mu.Unlock()
	if so, ok := l.objects[k]; ok && so.vm == v {
		return so, nil
	}

	so := &SharedObject{lib: l, vm: v, key: k, data: v.NewObject()}
	stored, err := l.load(k)
	switch {
	case err == nil:
		FromPlain(so.data, stored)
	case errors.Is(err, ErrNotFound):
	default:
		return nil, err
	}
	l.objects[k] = so
	log.Debugf("opened shared object %s%s", root, name)
	return so, nil
}

func (l *Library) load(k key) (map[string]any, error) {
	var data []byte
	err := l.db.QueryRow("SELECT data FROM shared_objects WHERE root = ? AND name = ?", k.root, k.name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "querying %s%s", k.root, k.name)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s%s", k.root, k.name)
	}
	return m, nil
}

func (l *Library) store(k key, data []byte) error {
	_, err := l.db.Exec(
		"INSERT OR REPLACE INTO shared_objects (root, name, data, modified) VALUES (?, ?, ?, ?)",
		k.root, k.name, data, time.Now().UnixMilli(),
	)
	if err != nil {
		return errors.Wrapf(err, "saving %s%s", k.root, k.name)
	}
	return nil
}

// Load returns the stored data of a record as plain values.
func (l *Library) Load(name, root string) (map[string]any, error) {
	return l.load(key{root: root, name: name})
}

// Delete removes a record and forgets any object handed out for it.
func (l *Library) Delete(name, root string) error {
	k := key{root: root, name: name}
	l.mu.Lock()
	delete(l.objects, k)
	l.mu.Unlock()
	if _, err := l.db.Exec("DELETE FROM shared_objects WHERE root = ? AND name = ?", root, name); err != nil {
		return errors.Wrapf(err, "deleting %s%s", root, name)
	}
	return nil
}

// List returns every stored record, ordered by root and name.
func (l *Library) List() ([]Entry, error) {
	rows, err := l.db.Query("SELECT root, name, length(data), modified FROM shared_objects ORDER BY root, name")
	if err != nil {
		return nil, errors.Wrap(err, "listing shared objects")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var modified int64
		if err := rows.Scan(&e.Root, &e.Name, &e.Size, &modified); err != nil {
			return nil, errors.Wrap(err, "scanning shared object")
		}
		e.Modified = time.UnixMilli(modified).UTC()
		entries = append(entries, e)
	}
	return entries, errors.Wrap(rows.Err(), "listing shared objects")
}

// ExportJSON writes a record as indented JSON. An empty name exports
// every record, keyed by root followed by name.
func (l *Library) ExportJSON(w io.Writer, name, root string) error {
	var out any
	if name != "" {
		m, err := l.Load(name, root)
		if err != nil {
			return err
		}
		out = m
	} else {
		entries, err := l.List()
		if err != nil {
			return err
		}
		all := make(map[string]any, len(entries))
		for _, e := range entries {
			m, err := l.Load(e.Name, e.Root)
			if err != nil {
				return err
			}
			all[e.Root+e.Name] = m
		}
		out = all
	}

	data, err := goccy.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding JSON")
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Flush writes every object handed out in this session.
func (l *Library) Flush() error {
	l.mu.Lock()
	objects := make([]*SharedObject, 0, len(l.objects))
	for _, so := range l.objects {
		objects = append(objects, so)
	}
	l.mu.Unlock()

	var first error
	for _, so := range objects {
		if err := so.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close flushes and closes the database.
func (l *Library) Close() error {
	err := l.Flush()
	if cerr := l.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// MarkReachableResources keeps the data objects alive across
// collections.
func (l *Library) MarkReachableResources(c *vm.Collector) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, so := range l.objects {
		c.Mark(so.data)
	}
}

// SharedObject is one record and the script object holding its data.
type SharedObject struct {
	lib  *Library
	vm   *vm.VM
	key  key
	data *vm.Object
}

func (so *SharedObject) Name() string { return so.key.name }
func (so *SharedObject) Root() string { return so.key.root }

// Data returns the script object whose members are persisted.
func (so *SharedObject) Data() *vm.Object { return so.data }

// Flush stores the current data.
func (so *SharedObject) Flush() error {
	data, err := Encode(so.data)
	if err != nil {
		return errors.Wrapf(err, "encoding %s%s", so.key.root, so.key.name)
	}
	return so.lib.store(so.key, data)
}

// Size returns the encoded size of the data in bytes.
func (so *SharedObject) Size() (int, error) {
	data, err := Encode(so.data)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// Clear removes every member of the data object and the stored record.
func (so *SharedObject) Clear() error {
	for _, name := range so.data.EnumerateNames() {
		so.data.Delete(so.vm.URI(name))
	}
	_, err := so.lib.db.Exec("DELETE FROM shared_objects WHERE root = ? AND name = ?", so.key.root, so.key.name)
	if err != nil {
		return errors.Wrapf(err, "clearing %s%s", so.key.root, so.key.name)
	}
	return nil
}
