// Package sqlite persists network edges, pathways and gene clusters into a
// single SQLite database for downstream querying.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gemecrap/gemecrap/pkg/genome"
	"github.com/gemecrap/gemecrap/pkg/network"
	_ "github.com/mattn/go-sqlite3"
)

// Date format for RunInfoTable (ISO 8601)
const runDateFormat = "2006-01-02 15:04:05"

// Writer handles writing run results to a SQLite database file
type Writer struct {
	db          *sql.DB
	outputPath  string
	edgeStmt    *sql.Stmt
	pathStmt    *sql.Stmt
	clusterStmt *sql.Stmt
	clusterID   int
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		clusterID:  1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS EdgeTable (
		EdgeId INTEGER PRIMARY KEY AUTOINCREMENT,
		Source TEXT NOT NULL,
		Target TEXT NOT NULL,
		Reaction TEXT NOT NULL,
		Delta DOUBLE
	);

	CREATE TABLE IF NOT EXISTS PathTable (
		PathId INTEGER NOT NULL,
		Step INTEGER NOT NULL,
		Source TEXT NOT NULL,
		Target TEXT NOT NULL,
		Reactions TEXT NOT NULL,
		Delta DOUBLE
	);

	CREATE TABLE IF NOT EXISTS ClusterTable (
		ClusterId INTEGER PRIMARY KEY,
		Contig TEXT NOT NULL,
		Genes TEXT NOT NULL,
		Ordinals TEXT,
		KOs TEXT,
		Reactions TEXT,
		Expressed TEXT
	);

	CREATE TABLE IF NOT EXISTS RunInfoTable (
		CreationDate TEXT,
		Tool TEXT,
		Version TEXT,
		Settings TEXT
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.edgeStmt, err = w.db.Prepare(`
		INSERT INTO EdgeTable (Source, Target, Reaction, Delta)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge statement: %w", err)
	}

	w.pathStmt, err = w.db.Prepare(`
		INSERT INTO PathTable (PathId, Step, Source, Target, Reactions, Delta)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare path statement: %w", err)
	}

	w.clusterStmt, err = w.db.Prepare(`
		INSERT INTO ClusterTable (ClusterId, Contig, Genes, Ordinals, KOs, Reactions, Expressed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cluster statement: %w", err)
	}

	return nil
}

// WriteNetwork writes every edge of the network
func (w *Writer) WriteNetwork(net *network.Network) error {
	for _, e := range net.Edges {
		if _, err := w.edgeStmt.Exec(e.Source, e.Target, e.Reaction, e.Delta); err != nil {
			return fmt.Errorf("failed to insert edge %s->%s: %w", e.Source, e.Target, err)
		}
	}
	return nil
}

// WritePath writes one pathway under the given id
func (w *Writer) WritePath(id int, path network.Pathway) error {
	for s, step := range path {
		_, err := w.pathStmt.Exec(id, s+1, step.Source, step.Target, strings.Join(step.Reactions, ","), step.Delta)
		if err != nil {
			return fmt.Errorf("failed to insert path %d step %d: %w", id, s+1, err)
		}
	}
	return nil
}

// WriteCluster writes a single gene cluster
func (w *Writer) WriteCluster(c genome.Cluster) error {
	ordinals := make([]string, len(c.Ordinals))
	for i, o := range c.Ordinals {
		ordinals[i] = fmt.Sprintf("%d", o)
	}

	_, err := w.clusterStmt.Exec(
		w.clusterID,
		c.Contig,
		strings.Join(c.Genes, ","),
		strings.Join(ordinals, ","),
		strings.Join(c.KOs, ","),
		strings.Join(c.Reactions, ","),
		strings.Join(c.Expressed, ","),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cluster on %s: %w", c.Contig, err)
	}

	w.clusterID++
	return nil
}

// Finalize writes the run info table and closes the database
func (w *Writer) Finalize(tool, version, settings string) error {
	_, err := w.db.Exec(`
		INSERT INTO RunInfoTable (CreationDate, Tool, Version, Settings)
		VALUES (?, ?, ?, ?)
	`, time.Now().Format(runDateFormat), tool, version, settings)
	if err != nil {
		return fmt.Errorf("failed to insert run info: %w", err)
	}

	return w.Close()
}

// Close closes the prepared statements and the database connection
func (w *Writer) Close() error {
	if w.edgeStmt != nil {
		w.edgeStmt.Close()
	}
	if w.pathStmt != nil {
		w.pathStmt.Close()
	}
	if w.clusterStmt != nil {
		w.clusterStmt.Close()
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
