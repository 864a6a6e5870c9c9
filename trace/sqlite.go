package trace

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// TableName is the table SQLiteRecorder writes accesses into.
const TableName = "access"

// SQLiteRecorder stores accesses in a SQLite database. Accesses are batched
// and inserted in a single transaction per flush.
type SQLiteRecorder struct {
	db   *sql.DB
	path string

	accesses  []Access
	batchSize int
	closed    bool
}

// NewSQLiteRecorder creates a database file holding an empty access table.
// An empty path picks a unique name in the working directory. The file must
// not exist.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if path == "" {
		path = "cachesim_trace_" + xid.New().String() + ".sqlite3"
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}

	r, err := NewSQLiteRecorderWithDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	r.path = path

	return r, nil
}

// NewSQLiteRecorderWithDB records into an already opened database.
func NewSQLiteRecorderWithDB(db *sql.DB) (*SQLiteRecorder, error) {
	r := &SQLiteRecorder{
		db:        db,
		batchSize: 10000,
	}

	if err := r.createTable(); err != nil {
		return nil, err
	}

	atexit.Register(func() { _ = r.Close() })

	return r, nil
}

func (r *SQLiteRecorder) createTable() error {
	fields := strings.Join(structs.Names(Access{}), ", \n\t")
	query := `CREATE TABLE IF NOT EXISTS ` + TableName +
		` (` + "\n\t" + fields + "\n" + `);`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", TableName, err)
	}

	return nil
}

// Path returns the database file, or an empty string for a supplied DB.
func (r *SQLiteRecorder) Path() string {
	return r.path
}

// Record buffers an access and flushes once the batch is full.
func (r *SQLiteRecorder) Record(access Access) error {
	if r.closed {
		return os.ErrClosed
	}

	r.accesses = append(r.accesses, access)
	if len(r.accesses) >= r.batchSize {
		return r.Flush()
	}

	return nil
}

// Flush inserts the buffered accesses.
func (r *SQLiteRecorder) Flush() error {
	if r.closed || len(r.accesses) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin trace transaction: %w", err)
	}

	placeholders := structs.Names(Access{})
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmt, err := tx.Prepare("INSERT INTO " + TableName +
		" VALUES (" + strings.Join(placeholders, ", ") + ")")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare trace insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range r.accesses {
		if _, err := stmt.Exec(structs.Values(a)...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert access %d: %w", a.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trace transaction: %w", err)
	}

	r.accesses = nil

	return nil
}

// Close flushes and closes the database. Closing twice is a no-op.
func (r *SQLiteRecorder) Close() error {
	if r.closed {
		return nil
	}

	flushErr := r.Flush()
	r.closed = true

	if err := r.db.Close(); err != nil {
		return err
	}

	return flushErr
}
