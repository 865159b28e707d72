// Package journal persists one row per completed operation into a local
// sqlite database so runs can be audited after the fact. Journal writes are
// best-effort: a journaling failure is logged but never fails the transfer
// that produced it.
package journal

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cleverdata/haul/internal/transfer"
)

var dbInstance *sql.DB

// Entry is one journaled operation as read back from the database.
type Entry struct {
	ID             int64
	Name           string
	Source         string
	Destination    string
	OpType         string
	Success        bool
	HashVerified   bool
	FilesProcessed int
	TotalBytes     int64
	Error          string
	StartedAt      time.Time
	FinishedAt     time.Time
}

func Init(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	var err error
	dbInstance, err = sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database at %s: %w", dbPath, err)
	}

	// Create Table
	schema := `
	CREATE TABLE IF NOT EXISTS operation_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		source TEXT,
		destination TEXT,
		op_type TEXT,
		success INTEGER,
		hash_verified INTEGER,
		files_processed INTEGER,
		total_bytes INTEGER,
		error TEXT,
		started_at DATETIME,
		finished_at DATETIME
	);
	`
	if _, err := dbInstance.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

func Record(res transfer.OperationResult) {
	if dbInstance == nil {
		return
	}
	_, err := dbInstance.Exec(`
		INSERT INTO operation_log
			(name, source, destination, op_type, success, hash_verified,
			 files_processed, total_bytes, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, res.OperationName, res.Source, res.Destination, string(res.Type),
		res.Success, res.HashVerified, res.FilesProcessed, res.TotalSize,
		res.ErrorMessage, res.StartTime, res.EndTime)

	if err != nil {
		log.Printf("Journal Write Error: %v", err)
	}
}

// RecordAll journals every result of a run.
func RecordAll(results []transfer.OperationResult) {
	for _, r := range results {
		Record(r)
	}
}

// Recent returns the latest entries, newest first.
func Recent(limit int) []Entry {
	if dbInstance == nil {
		return nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := dbInstance.Query(`
		SELECT id, name, source, destination, op_type, success, hash_verified,
		       files_processed, total_bytes, error, started_at, finished_at
		FROM operation_log ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		log.Printf("Journal Read Error: %v", err)
		return nil
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Source, &e.Destination, &e.OpType,
			&e.Success, &e.HashVerified, &e.FilesProcessed, &e.TotalBytes,
			&e.Error, &e.StartedAt, &e.FinishedAt); err != nil {
			log.Printf("Journal Read Error: %v", err)
			return entries
		}
		entries = append(entries, e)
	}
	return entries
}

// ResetHistory deletes journaled entries: those matching the named
// operation, or everything when name is empty.
func ResetHistory(name string) {
	if dbInstance == nil {
		return
	}
	var err error
	if name != "" {
		_, err = dbInstance.Exec("DELETE FROM operation_log WHERE name = ?", name)
	} else {
		_, err = dbInstance.Exec("DELETE FROM operation_log")
	}

	if err != nil {
		log.Printf("Failed to reset history: %v", err)
	} else {
		log.Println("History reset successfully.")
	}
}
