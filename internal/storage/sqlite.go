package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matsen/treeofscience/internal/citation"
	"github.com/matsen/treeofscience/internal/dedupe"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a query id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Status reports whether a query id has a stored snapshot.
type Status string

const (
	StatusReady    Status = "ready"
	StatusNotReady Status = "not_ready"
)

// SnapshotInfo describes a stored snapshot without its vertices and edges.
type SnapshotInfo struct {
	QueryID   string         `json:"query_id"`
	Source    string         `json:"source"`
	CreatedAt time.Time      `json:"created_at"`
	Vertices  int            `json:"vertices"`
	Edges     int            `json:"edges"`
	Stats     citation.Stats `json:"stats"`
}

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			query_id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL,
			stats_json TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS vertices (
			query_id TEXT NOT NULL,
			id INTEGER NOT NULL,
			label TEXT NOT NULL,
			in_degree INTEGER NOT NULL,
			out_degree INTEGER NOT NULL,
			betweenness REAL NOT NULL,
			PRIMARY KEY (query_id, id)
		);

		CREATE TABLE IF NOT EXISTS edges (
			query_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			from_id INTEGER NOT NULL,
			to_id INTEGER NOT NULL,
			betweenness REAL NOT NULL,
			PRIMARY KEY (query_id, seq)
		);

		CREATE TABLE IF NOT EXISTS duplicates (
			query_id TEXT NOT NULL,
			duplicate TEXT NOT NULL,
			canonical TEXT NOT NULL,
			PRIMARY KEY (query_id, duplicate)
		);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveSnapshot stores g under queryID, replacing any earlier snapshot.
func (d *DB) SaveSnapshot(queryID, source string, g *citation.Graph) error {
	statsJSON, err := json.Marshal(g.Stats())
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"vertices", "edges", "duplicates", "snapshots"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE query_id = ?`, queryID); err != nil {
			return fmt.Errorf("clearing %s of %s: %w", table, queryID, err)
		}
	}
	if _, err := tx.Exec(`
		INSERT INTO snapshots (query_id, source, created_at, stats_json)
		VALUES (?, ?, ?, ?)
	`, queryID, source, time.Now().UTC().Format(time.RFC3339), string(statsJSON)); err != nil {
		return fmt.Errorf("inserting snapshot %s: %w", queryID, err)
	}

	vertexStmt, err := tx.Prepare(`
		INSERT INTO vertices (query_id, id, label, in_degree, out_degree, betweenness)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing vertex insert: %w", err)
	}
	defer vertexStmt.Close()
	for _, v := range g.Vertices() {
		if _, err := vertexStmt.Exec(queryID, v.ID, v.Label, v.InDegree, v.OutDegree, v.Betweenness); err != nil {
			return fmt.Errorf("inserting vertex %d: %w", v.ID, err)
		}
	}

	edgeStmt, err := tx.Prepare(`
		INSERT INTO edges (query_id, seq, from_id, to_id, betweenness)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()
	for i, e := range g.Edges() {
		if _, err := edgeStmt.Exec(queryID, i, e.From, e.To, e.Betweenness); err != nil {
			return fmt.Errorf("inserting edge %d -> %d: %w", e.From, e.To, err)
		}
	}

	dupStmt, err := tx.Prepare(`
		INSERT INTO duplicates (query_id, duplicate, canonical) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing duplicate insert: %w", err)
	}
	defer dupStmt.Close()
	for dup, canonical := range g.Duplicates() {
		if _, err := dupStmt.Exec(queryID, dup, canonical); err != nil {
			return fmt.Errorf("inserting duplicate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot %s: %w", queryID, err)
	}
	return nil
}

// Status reports whether a snapshot exists for queryID.
func (d *DB) Status(queryID string) (Status, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM snapshots WHERE query_id = ?`, queryID).Scan(&n); err != nil {
		return "", fmt.Errorf("checking snapshot %s: %w", queryID, err)
	}
	if n == 0 {
		return StatusNotReady, nil
	}
	return StatusReady, nil
}

// LoadSnapshot rebuilds the graph stored under queryID.
func (d *DB) LoadSnapshot(queryID string) (*citation.Graph, error) {
	var statsJSON string
	err := d.db.QueryRow(`SELECT stats_json FROM snapshots WHERE query_id = ?`, queryID).Scan(&statsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, queryID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", queryID, err)
	}
	var stats citation.Stats
	if err := json.Unmarshal([]byte(statsJSON), &stats); err != nil {
		return nil, fmt.Errorf("parsing stats of %s: %w", queryID, err)
	}

	rows, err := d.db.Query(`
		SELECT id, label, in_degree, out_degree, betweenness
		FROM vertices WHERE query_id = ? ORDER BY id
	`, queryID)
	if err != nil {
		return nil, fmt.Errorf("querying vertices: %w", err)
	}
	var vertices []citation.Vertex
	for rows.Next() {
		var v citation.Vertex
		if err := rows.Scan(&v.ID, &v.Label, &v.InDegree, &v.OutDegree, &v.Betweenness); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning vertex: %w", err)
		}
		vertices = append(vertices, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading vertices: %w", err)
	}

	rows, err = d.db.Query(`
		SELECT from_id, to_id, betweenness
		FROM edges WHERE query_id = ? ORDER BY seq
	`, queryID)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()
	var edges []citation.Edge
	for rows.Next() {
		var e citation.Edge
		if err := rows.Scan(&e.From, &e.To, &e.Betweenness); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading edges: %w", err)
	}

	dups, err := d.Duplicates(queryID)
	if err != nil {
		return nil, err
	}
	g, err := citation.Restore(vertices, edges, dups)
	if err != nil {
		return nil, err
	}
	return g.WithStats(stats), nil
}

// ListSnapshots returns every stored snapshot, newest first.
func (d *DB) ListSnapshots() ([]SnapshotInfo, error) {
	rows, err := d.db.Query(`
		SELECT s.query_id, s.source, s.created_at, s.stats_json,
			(SELECT COUNT(*) FROM vertices v WHERE v.query_id = s.query_id),
			(SELECT COUNT(*) FROM edges e WHERE e.query_id = s.query_id)
		FROM snapshots s
		ORDER BY s.created_at DESC, s.query_id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		var createdAt, statsJSON string
		if err := rows.Scan(&info.QueryID, &info.Source, &createdAt, &statsJSON, &info.Vertices, &info.Edges); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at of %s: %w", info.QueryID, err)
		}
		if err := json.Unmarshal([]byte(statsJSON), &info.Stats); err != nil {
			return nil, fmt.Errorf("parsing stats of %s: %w", info.QueryID, err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Duplicates returns the duplicate map stored with queryID.
func (d *DB) Duplicates(queryID string) (dedupe.Map, error) {
	rows, err := d.db.Query(`SELECT duplicate, canonical FROM duplicates WHERE query_id = ?`, queryID)
	if err != nil {
		return nil, fmt.Errorf("querying duplicates: %w", err)
	}
	defer rows.Close()

	dups := make(dedupe.Map)
	for rows.Next() {
		var dup, canonical string
		if err := rows.Scan(&dup, &canonical); err != nil {
			return nil, fmt.Errorf("scanning duplicate: %w", err)
		}
		dups[dup] = canonical
	}
	return dups, rows.Err()
}
