package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/yegors/complaint-desk/pkg/logger"

	_ "modernc.org/sqlite"
)

// Open opens the SQLite database at path. A single connection is kept so
// writers never contend for the file lock.
func Open(path string) (*sql.DB, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// ComplaintStorage handles storage of complaint records
type ComplaintStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewComplaintStorage creates a new SQLite complaint storage
func NewComplaintStorage(db *sql.DB, logger *logger.Logger) *ComplaintStorage {
	return &ComplaintStorage{
		db:     db,
		logger: logger.Named("sqlite-complaints"),
	}
}

// InitDB creates the complaints table if it does not exist. Calling it
// repeatedly leaves existing rows untouched.
func (s *ComplaintStorage) InitDB(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS complaints_db (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			complaint TEXT,
			category TEXT,
			location TEXT,
			urgency TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create complaints table: %w", err)
	}

	s.logger.Debug("Complaints table ready")
	return nil
}

// StoreComplaint inserts a complaint and returns its assigned ID
func (s *ComplaintStorage) StoreComplaint(ctx context.Context, record *ComplaintRecord) (int64, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	location := sql.NullString{String: record.Location, Valid: record.HasLocation}

	result, err := conn.ExecContext(ctx,
		`INSERT INTO complaints_db (complaint, category, location, urgency)
		VALUES (?, ?, ?, ?)`,
		record.Complaint,
		record.Category,
		location,
		record.Urgency,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert complaint: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	record.ID = id

	s.logger.Info("Stored complaint",
		logger.Int64("id", id),
		logger.String("category", record.Category),
		logger.String("urgency", record.Urgency))

	return id, nil
}

// GetAllComplaints returns every complaint in insertion order
func (s *ComplaintStorage) GetAllComplaints(ctx context.Context) ([]*ComplaintRecord, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx,
		`SELECT id, complaint, category, location, urgency
		FROM complaints_db
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", err)
	}
	defer rows.Close()

	return scanComplaintRows(rows)
}

// CountBy returns the number of complaints per distinct value of field.
// Only FieldCategory and FieldUrgency are accepted.
func (s *ComplaintStorage) CountBy(ctx context.Context, field string) ([]CountRow, error) {
	switch field {
	case FieldCategory, FieldUrgency:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	// field is whitelisted above
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(
		`SELECT COALESCE(%[1]s, ''), COUNT(*) FROM complaints_db GROUP BY %[1]s ORDER BY COUNT(*) DESC, %[1]s ASC`,
		field))
	if err != nil {
		return nil, fmt.Errorf("failed to count complaints by %s: %w", field, err)
	}
	defer rows.Close()

	var counts []CountRow
	for rows.Next() {
		var row CountRow
		if err := rows.Scan(&row.Value, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts = append(counts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}

	return counts, nil
}

// scanComplaintRows scans database rows into ComplaintRecord structs
func scanComplaintRows(rows *sql.Rows) ([]*ComplaintRecord, error) {
	records := []*ComplaintRecord{}
	for rows.Next() {
		var record ComplaintRecord
		var complaint, category, location, urgency sql.NullString

		if err := rows.Scan(&record.ID, &complaint, &category, &location, &urgency); err != nil {
			return nil, fmt.Errorf("failed to scan complaint row: %w", err)
		}

		record.Complaint = complaint.String
		record.Category = category.String
		record.Location = location.String
		record.HasLocation = location.Valid
		record.Urgency = urgency.String

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaint rows: %w", err)
	}

	return records, nil
}
