// ABOUTME: SQLite-backed bookkeeping for projects and generated artifacts.
// ABOUTME: Stores storyboards, publishing kits, localized bundles, and image assets keyed by project; not part of the generation core.

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/2389-research/storyforge/pipeline"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Project is one generation project: the inputs a user iterates on.
type Project struct {
	ID        string
	Title     string
	Logline   string
	Format    string
	CreatedAt string
	UpdatedAt string
}

// Asset is one persisted generated image.
type Asset struct {
	ID        string
	ProjectID string
	SlotID    string
	Prompt    string
	MIMEType  string
	Data      []byte
	CreatedAt string
}

// Store is the SQLite-backed project and artifact index.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			project_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			logline TEXT NOT NULL,
			format TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS storyboards (
			project_id TEXT PRIMARY KEY,
			scenes TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(project_id)
		);

		CREATE TABLE IF NOT EXISTS publishing_kits (
			project_id TEXT PRIMARY KEY,
			kit TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(project_id)
		);

		CREATE TABLE IF NOT EXISTS localized_assets (
			project_id TEXT NOT NULL,
			locale TEXT NOT NULL,
			bundle TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (project_id, locale),
			FOREIGN KEY (project_id) REFERENCES projects(project_id)
		);

		CREATE TABLE IF NOT EXISTS assets (
			asset_id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			slot_id TEXT NOT NULL,
			prompt TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			data BLOB NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(project_id)
		);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateProject inserts a new project and returns it with a fresh ULID.
func (s *Store) CreateProject(title, logline, format string) (*Project, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	p := &Project{
		ID:        ulid.Make().String(),
		Title:     title,
		Logline:   logline,
		Format:    format,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.Exec(
		"INSERT INTO projects (project_id, title, logline, format, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.Title, p.Logline, p.Format, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// GetProject fetches one project by id.
func (s *Store) GetProject(id string) (*Project, error) {
	var p Project
	err := s.db.QueryRow(
		"SELECT project_id, title, logline, format, created_at, updated_at FROM projects WHERE project_id = ?", id,
	).Scan(&p.ID, &p.Title, &p.Logline, &p.Format, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects, newest first.
func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(
		"SELECT project_id, title, logline, format, created_at, updated_at FROM projects ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Logline, &p.Format, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// SaveStoryboard upserts the scene list for a project as JSON.
func (s *Store) SaveStoryboard(projectID string, scenes []pipeline.Scene) error {
	data, err := json.Marshal(scenes)
	if err != nil {
		return fmt.Errorf("encode storyboard: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(
		`INSERT INTO storyboards (project_id, scenes, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(project_id) DO UPDATE SET scenes = excluded.scenes, updated_at = excluded.updated_at`,
		projectID, string(data), now,
	)
	if err != nil {
		return fmt.Errorf("upsert storyboard: %w", err)
	}
	return nil
}

// GetStoryboard fetches the scene list for a project.
func (s *Store) GetStoryboard(projectID string) ([]pipeline.Scene, error) {
	var data string
	err := s.db.QueryRow("SELECT scenes FROM storyboards WHERE project_id = ?", projectID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select storyboard: %w", err)
	}
	var scenes []pipeline.Scene
	if err := json.Unmarshal([]byte(data), &scenes); err != nil {
		return nil, fmt.Errorf("decode storyboard: %w", err)
	}
	return scenes, nil
}

// SavePublishingKit upserts the publishing kit for a project as JSON.
func (s *Store) SavePublishingKit(projectID string, kit *pipeline.PublishingKit) error {
	data, err := json.Marshal(kit)
	if err != nil {
		return fmt.Errorf("encode publishing kit: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(
		`INSERT INTO publishing_kits (project_id, kit, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(project_id) DO UPDATE SET kit = excluded.kit, updated_at = excluded.updated_at`,
		projectID, string(data), now,
	)
	if err != nil {
		return fmt.Errorf("upsert publishing kit: %w", err)
	}
	return nil
}

// GetPublishingKit fetches the publishing kit for a project.
func (s *Store) GetPublishingKit(projectID string) (*pipeline.PublishingKit, error) {
	var data string
	err := s.db.QueryRow("SELECT kit FROM publishing_kits WHERE project_id = ?", projectID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select publishing kit: %w", err)
	}
	var kit pipeline.PublishingKit
	if err := json.Unmarshal([]byte(data), &kit); err != nil {
		return nil, fmt.Errorf("decode publishing kit: %w", err)
	}
	return &kit, nil
}

// SaveLocalizedAssets upserts the localized bundle for a project and locale.
func (s *Store) SaveLocalizedAssets(projectID string, bundle *pipeline.LocalizedAssets) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encode localized bundle: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(
		`INSERT INTO localized_assets (project_id, locale, bundle, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(project_id, locale) DO UPDATE SET bundle = excluded.bundle, updated_at = excluded.updated_at`,
		projectID, bundle.Locale, string(data), now,
	)
	if err != nil {
		return fmt.Errorf("upsert localized bundle: %w", err)
	}
	return nil
}

// GetLocalizedAssets fetches the bundle for a project and locale.
func (s *Store) GetLocalizedAssets(projectID, locale string) (*pipeline.LocalizedAssets, error) {
	var data string
	err := s.db.QueryRow(
		"SELECT bundle FROM localized_assets WHERE project_id = ? AND locale = ?", projectID, locale,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select localized bundle: %w", err)
	}
	var bundle pipeline.LocalizedAssets
	if err := json.Unmarshal([]byte(data), &bundle); err != nil {
		return nil, fmt.Errorf("decode localized bundle: %w", err)
	}
	return &bundle, nil
}

// DeleteLocalizedAssets removes the persisted bundle for a project and locale.
func (s *Store) DeleteLocalizedAssets(projectID, locale string) error {
	_, err := s.db.Exec("DELETE FROM localized_assets WHERE project_id = ? AND locale = ?", projectID, locale)
	if err != nil {
		return fmt.Errorf("delete localized bundle: %w", err)
	}
	return nil
}

// SaveAsset persists one generated image.
func (s *Store) SaveAsset(projectID, slotID, prompt, mimeType string, data []byte) (*Asset, error) {
	a := &Asset{
		ID:        ulid.Make().String(),
		ProjectID: projectID,
		SlotID:    slotID,
		Prompt:    prompt,
		MIMEType:  mimeType,
		Data:      data,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_, err := s.db.Exec(
		"INSERT INTO assets (asset_id, project_id, slot_id, prompt, mime_type, data, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		a.ID, a.ProjectID, a.SlotID, a.Prompt, a.MIMEType, a.Data, a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert asset: %w", err)
	}
	return a, nil
}

// GetAsset fetches one asset by id, including its bytes.
func (s *Store) GetAsset(id string) (*Asset, error) {
	var a Asset
	err := s.db.QueryRow(
		"SELECT asset_id, project_id, slot_id, prompt, mime_type, data, created_at FROM assets WHERE asset_id = ?", id,
	).Scan(&a.ID, &a.ProjectID, &a.SlotID, &a.Prompt, &a.MIMEType, &a.Data, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select asset: %w", err)
	}
	return &a, nil
}

// ListAssets returns the assets of a project without their bytes, oldest first.
func (s *Store) ListAssets(projectID string) ([]Asset, error) {
	rows, err := s.db.Query(
		"SELECT asset_id, project_id, slot_id, prompt, mime_type, created_at FROM assets WHERE project_id = ? ORDER BY created_at ASC",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.SlotID, &a.Prompt, &a.MIMEType, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// DeleteAsset removes one asset.
func (s *Store) DeleteAsset(id string) error {
	_, err := s.db.Exec("DELETE FROM assets WHERE asset_id = ?", id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}
