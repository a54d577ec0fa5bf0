package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/net/publicsuffix"
)

var ErrNotFound = errors.New("analysis not found")

// AnalysisRecord is a stored analysis result.
type AnalysisRecord struct {
	ID        string         `json:"id"`
	Site      string         `json:"site"`
	CreatedAt time.Time      `json:"createdAt"`
	Result    AnalysisResult `json:"result"`
}

// Store keeps a history of analysis results in SQLite.
type Store struct {
	db *sql.DB
}

func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	analysisTable := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		site TEXT,
		url TEXT,
		page_size_mb REAL,
		result TEXT,
		created_at DATETIME
	);
	`
	siteIndex := `CREATE INDEX IF NOT EXISTS idx_analyses_site ON analyses (site, created_at);`

	if _, err := db.Exec(analysisTable); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(siteIndex); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// siteOf returns the registrable domain of a page URL, or its host when none applies.
func siteOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if net.ParseIP(host) != nil {
		return host
	}
	base, _ := publicsuffix.EffectiveTLDPlusOne(host)
	if base == "" {
		base = host
	}
	return base
}

// SaveResult stores a result and returns the new record.
func (s *Store) SaveResult(result AnalysisResult) (*AnalysisRecord, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	rec := &AnalysisRecord{
		ID:        uuid.New().String(),
		Site:      siteOf(result.URL),
		CreatedAt: time.Now().UTC(),
		Result:    result,
	}
	_, err = s.db.Exec(`INSERT INTO analyses (id, site, url, page_size_mb, result, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Site, result.URL, result.PageSizeMB, string(resultJSON), rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetResult fetches one record by id.
func (s *Store) GetResult(id string) (*AnalysisRecord, error) {
	var (
		rec        AnalysisRecord
		resultJSON string
	)
	err := s.db.QueryRow(`SELECT id, site, result, created_at FROM analyses WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Site, &resultJSON, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListResults returns up to limit records, newest first. An empty site lists every site.
func (s *Store) ListResults(site string, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, site, result, created_at FROM analyses`
	args := []any{}
	if site != "" {
		query += ` WHERE site = ?`
		args = append(args, strings.ToLower(site))
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]AnalysisRecord, 0)
	for rows.Next() {
		var (
			rec        AnalysisRecord
			resultJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.Site, &resultJSON, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
