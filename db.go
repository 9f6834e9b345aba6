package main

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"issuetriage/internal/classify"
	"issuetriage/internal/domain"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS issues (
		number     INTEGER PRIMARY KEY,
		title      TEXT NOT NULL DEFAULT '',
		body       TEXT NOT NULL DEFAULT '',
		state      TEXT NOT NULL DEFAULT 'open',
		labels     TEXT NOT NULL DEFAULT '',
		created_at DATETIME,
		closed_at  DATETIME,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_issues_state ON issues(state);
	CREATE INDEX IF NOT EXISTS idx_issues_created_at ON issues(created_at);

	CREATE TABLE IF NOT EXISTS classification_history (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		issue_number        INTEGER NOT NULL,
		category            TEXT NOT NULL,
		confidence          REAL NOT NULL,
		priority            TEXT NOT NULL DEFAULT '',
		priority_confidence REAL NOT NULL DEFAULT 0,
		config_version      TEXT NOT NULL DEFAULT '',
		classified_at       DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ch_issue ON classification_history(issue_number);
	CREATE INDEX IF NOT EXISTS idx_ch_date ON classification_history(classified_at);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// UpsertIssues inserts or refreshes the fetched issue snapshots, keyed by
// issue number.
func UpsertIssues(db *sql.DB, issues []domain.Issue) (int, error) {
	if len(issues) == 0 {
		return 0, nil
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO issues (number, title, body, state, labels, created_at, closed_at, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(number) DO UPDATE SET
		   title = excluded.title, body = excluded.body, state = excluded.state,
		   labels = excluded.labels, closed_at = excluded.closed_at,
		   fetched_at = CURRENT_TIMESTAMP`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	stored := 0
	for _, issue := range issues {
		var closedAt any
		if !issue.ClosedAt.IsZero() {
			closedAt = issue.ClosedAt
		}
		var createdAt any
		if !issue.CreatedAt.IsZero() {
			createdAt = issue.CreatedAt
		}
		_, err := stmt.Exec(
			issue.Number, issue.Title, issue.Body, issue.State,
			strings.Join(issue.LabelNames(), ","), createdAt, closedAt,
		)
		if err != nil {
			return stored, err
		}
		stored++
	}

	return stored, tx.Commit()
}

// InsertClassifications appends one history row per classification result.
func InsertClassifications(db *sql.DB, results []classify.Classification) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO classification_history
		 (issue_number, category, confidence, priority, priority_confidence, config_version)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.Exec(
			r.IssueNumber, string(r.PrimaryCategory), r.PrimaryConfidence,
			string(r.Priority), r.PriorityConfidence, r.ConfigVersion,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// --- Classification Stats ---

type ClassificationStats struct {
	TotalClassifications int
	AvgConfidence        float64
	BucketBelow50        int
	Bucket50to70         int
	Bucket70to90         int
	Bucket90Plus         int
}

func GetClassificationStats(db *sql.DB, since time.Time) (ClassificationStats, error) {
	var s ClassificationStats
	err := db.QueryRow(
		`SELECT COUNT(*), COALESCE(AVG(confidence), 0),
		        COALESCE(SUM(CASE WHEN confidence < 0.50 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN confidence >= 0.50 AND confidence < 0.70 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN confidence >= 0.70 AND confidence < 0.90 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN confidence >= 0.90 THEN 1 ELSE 0 END), 0)
		 FROM classification_history WHERE classified_at >= ?`,
		since,
	).Scan(&s.TotalClassifications, &s.AvgConfidence,
		&s.BucketBelow50, &s.Bucket50to70, &s.Bucket70to90, &s.Bucket90Plus)
	return s, err
}

type CategoryCount struct {
	Category string
	Count    int
}

func GetCategoryCountsSince(db *sql.DB, since time.Time) ([]CategoryCount, error) {
	rows, err := db.Query(
		`SELECT category, COUNT(*) as cnt
		 FROM classification_history
		 WHERE classified_at >= ?
		 GROUP BY category
		 ORDER BY cnt DESC, category`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type WeeklyTrend struct {
	WeekStart       string
	Classifications int
	AvgConfidence   float64
}

func GetWeeklyClassificationTrend(db *sql.DB, since time.Time) ([]WeeklyTrend, error) {
	rows, err := db.Query(
		`SELECT
		    strftime('%Y-%m-%d', classified_at, 'weekday 0', '-6 days') as week_start,
		    COUNT(*) as classifications,
		    COALESCE(AVG(confidence), 0) as avg_confidence
		 FROM classification_history
		 WHERE classified_at >= ?
		 GROUP BY week_start
		 ORDER BY week_start DESC`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trends []WeeklyTrend
	for rows.Next() {
		var t WeeklyTrend
		if err := rows.Scan(&t.WeekStart, &t.Classifications, &t.AvgConfidence); err != nil {
			return nil, err
		}
		trends = append(trends, t)
	}
	return trends, rows.Err()
}

// GetStoredIssues loads every issue snapshot, most recent first.
func GetStoredIssues(db *sql.DB) ([]domain.Issue, error) {
	rows, err := db.Query(
		`SELECT number, title, body, state, labels, created_at, closed_at
		 FROM issues ORDER BY created_at DESC, number DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		var labels string
		var createdAt, closedAt sql.NullTime
		if err := rows.Scan(&issue.Number, &issue.Title, &issue.Body, &issue.State, &labels, &createdAt, &closedAt); err != nil {
			return nil, err
		}
		if createdAt.Valid {
			issue.CreatedAt = createdAt.Time
		}
		if closedAt.Valid {
			issue.ClosedAt = closedAt.Time
		}
		for _, name := range strings.Split(labels, ",") {
			if name != "" {
				issue.Labels = append(issue.Labels, domain.Label{Name: name})
			}
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}
