// Package repository persists profiles, postings and application history in
// SQLite. The rest of the codebase only sees domain models; database/sql
// never leaks past this package.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hirestorm/matchd/internal/domain/insight"
	"github.com/hirestorm/matchd/internal/domain/match"
	"github.com/hirestorm/matchd/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                TEXT PRIMARY KEY,
	email             TEXT NOT NULL DEFAULT '',
	full_name         TEXT NOT NULL DEFAULT '',
	skills            TEXT NOT NULL DEFAULT '[]',
	experience_level  TEXT NOT NULL DEFAULT 'entry',
	interests         TEXT NOT NULL DEFAULT '',
	career_goals      TEXT NOT NULL DEFAULT '',
	education         TEXT NOT NULL DEFAULT '[]',
	rejection_history TEXT NOT NULL DEFAULT '[]',
	updated_at        TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS postings (
	id                 TEXT PRIMARY KEY,
	kind               TEXT NOT NULL,
	title              TEXT NOT NULL,
	company            TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	location           TEXT NOT NULL DEFAULT '',
	work_mode          TEXT NOT NULL DEFAULT '',
	required_skills    TEXT NOT NULL DEFAULT '[]',
	experience         TEXT NOT NULL DEFAULT 'entry',
	salary_min         REAL NOT NULL DEFAULT 0,
	salary_max         REAL NOT NULL DEFAULT 0,
	url                TEXT NOT NULL DEFAULT '',
	source             TEXT NOT NULL DEFAULT '',
	category           TEXT NOT NULL DEFAULT '',
	active             INTEGER NOT NULL DEFAULT 1,
	posted_at          TIMESTAMP NOT NULL,
	duration_months    INTEGER NOT NULL DEFAULT 0,
	education_required TEXT NOT NULL DEFAULT '',
	year_of_study      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_postings_kind_active ON postings(kind, active, posted_at);
CREATE INDEX IF NOT EXISTS idx_postings_identity ON postings(title, company);

CREATE TABLE IF NOT EXISTS applications (
	id                    TEXT PRIMARY KEY,
	user_id               TEXT NOT NULL,
	posting_id            TEXT NOT NULL,
	kind                  TEXT NOT NULL,
	status                TEXT NOT NULL,
	match_score           REAL NOT NULL DEFAULT 0,
	rejection_probability REAL NOT NULL DEFAULT 0,
	created_at            TIMESTAMP NOT NULL,
	updated_at            TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applications_user ON applications(user_id, created_at);

CREATE TABLE IF NOT EXISTS rejections (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	application_id TEXT NOT NULL,
	reason         TEXT NOT NULL,
	skill_gaps     TEXT NOT NULL DEFAULT '[]',
	created_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rejections_user ON rejections(user_id, created_at);

CREATE TABLE IF NOT EXISTS resumes (
	user_id    TEXT PRIMARY KEY,
	text       TEXT NOT NULL,
	skills     TEXT NOT NULL DEFAULT '[]',
	education  TEXT NOT NULL DEFAULT '[]',
	updated_at TIMESTAMP NOT NULL
);
`

// SQLite is the profile and posting store.
type SQLite struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// modernc sqlite is a single-writer engine; one connection avoids
	// SQLITE_BUSY churn under concurrent workers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateUser inserts a user profile.
func (s *SQLite) CreateUser(ctx context.Context, u *model.User) error {
	u.UpdatedAt = now(u.UpdatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, skills, experience_level, interests, career_goals, education, rejection_history, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FullName, toJSON(u.Skills), string(u.ExperienceLevel),
		u.Interests, u.CareerGoals, toJSON(u.Education), toJSON(u.RejectionHistory), u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user %s: %w", u.ID, err)
	}
	return nil
}

// GetUser loads a user profile by id.
func (s *SQLite) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, skills, experience_level, interests, career_goals, education, rejection_history, updated_at
		FROM users WHERE id = ?`, id)

	var u model.User
	var skills, education, history, level string
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &skills, &level,
		&u.Interests, &u.CareerGoals, &education, &history, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	u.ExperienceLevel = model.ExperienceLevel(level)
	u.Skills = fromJSON(skills)
	u.Education = fromJSON(education)
	u.RejectionHistory = fromJSON(history)
	return &u, nil
}

// ListUsers returns all user profiles, oldest first.
func (s *SQLite) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, full_name, skills, experience_level, interests, career_goals, education, rejection_history, updated_at
		FROM users ORDER BY updated_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var skills, education, history, level string
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &skills, &level,
			&u.Interests, &u.CareerGoals, &education, &history, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.ExperienceLevel = model.ExperienceLevel(level)
		u.Skills = fromJSON(skills)
		u.Education = fromJSON(education)
		u.RejectionHistory = fromJSON(history)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUser replaces a user profile.
func (s *SQLite) UpdateUser(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET email = ?, full_name = ?, skills = ?, experience_level = ?, interests = ?,
			career_goals = ?, education = ?, rejection_history = ?, updated_at = ?
		WHERE id = ?`,
		u.Email, u.FullName, toJSON(u.Skills), string(u.ExperienceLevel), u.Interests,
		u.CareerGoals, toJSON(u.Education), toJSON(u.RejectionHistory), u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	return affected(res, u.ID)
}

// DeleteUser removes a user profile.
func (s *SQLite) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return affected(res, id)
}

// CreatePosting inserts a posting.
func (s *SQLite) CreatePosting(ctx context.Context, p *model.Posting) error {
	p.PostedAt = now(p.PostedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO postings (id, kind, title, company, description, location, work_mode, required_skills,
			experience, salary_min, salary_max, url, source, category, active, posted_at,
			duration_months, education_required, year_of_study)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Kind), p.Title, p.Company, p.Description, p.Location, p.WorkMode,
		toJSON(p.RequiredSkills), string(p.Experience), p.SalaryMin, p.SalaryMax, p.URL,
		p.Source, p.Category, p.Active, p.PostedAt, p.DurationMonths, p.EducationRequired, p.YearOfStudy)
	if err != nil {
		return fmt.Errorf("create posting %s: %w", p.ID, err)
	}
	return nil
}

// GetPosting loads a posting by id.
func (s *SQLite) GetPosting(ctx context.Context, id string) (*model.Posting, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, title, company, description, location, work_mode, required_skills,
			experience, salary_min, salary_max, url, source, category, active, posted_at,
			duration_months, education_required, year_of_study
		FROM postings WHERE id = ?`, id)

	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("posting %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get posting %s: %w", id, err)
	}
	return p, nil
}

// UpdatePosting replaces a posting.
func (s *SQLite) UpdatePosting(ctx context.Context, p *model.Posting) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE postings SET kind = ?, title = ?, company = ?, description = ?, location = ?, work_mode = ?,
			required_skills = ?, experience = ?, salary_min = ?, salary_max = ?, url = ?, source = ?,
			category = ?, active = ?, duration_months = ?, education_required = ?, year_of_study = ?
		WHERE id = ?`,
		string(p.Kind), p.Title, p.Company, p.Description, p.Location, p.WorkMode,
		toJSON(p.RequiredSkills), string(p.Experience), p.SalaryMin, p.SalaryMax, p.URL,
		p.Source, p.Category, p.Active, p.DurationMonths, p.EducationRequired, p.YearOfStudy, p.ID)
	if err != nil {
		return fmt.Errorf("update posting %s: %w", p.ID, err)
	}
	return affected(res, p.ID)
}

// DeletePosting removes a posting.
func (s *SQLite) DeletePosting(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM postings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete posting %s: %w", id, err)
	}
	return affected(res, id)
}

// ListPostings returns active postings of a kind, newest first, up to limit.
func (s *SQLite) ListPostings(ctx context.Context, kind model.EntityKind, limit int) ([]model.Posting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, title, company, description, location, work_mode, required_skills,
			experience, salary_min, salary_max, url, source, category, active, posted_at,
			duration_months, education_required, year_of_study
		FROM postings WHERE kind = ? AND active = 1
		ORDER BY posted_at DESC LIMIT ?`, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	defer rows.Close()

	var out []model.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("list postings: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// PostingExists reports whether a posting with this title and company is
// already stored. Backstop behind the in-memory deduper, which loses state
// across restarts.
func (s *SQLite) PostingExists(ctx context.Context, title, company string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM postings WHERE lower(title) = lower(?) AND lower(company) = lower(?)`,
		title, company).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("posting exists: %w", err)
	}
	return n > 0, nil
}

// CreateApplication records an application.
func (s *SQLite) CreateApplication(ctx context.Context, a *model.Application) error {
	a.CreatedAt = now(a.CreatedAt)
	a.UpdatedAt = a.CreatedAt
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (id, user_id, posting_id, kind, status, match_score, rejection_probability, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.PostingID, string(a.Kind), a.Status, a.MatchScore, a.RejectionProbability, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create application %s: %w", a.ID, err)
	}
	return nil
}

// GetApplication loads an application by id.
func (s *SQLite) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, posting_id, kind, status, match_score, rejection_probability, created_at, updated_at
		FROM applications WHERE id = ?`, id)

	var a model.Application
	var kind string
	err := row.Scan(&a.ID, &a.UserID, &a.PostingID, &kind, &a.Status,
		&a.MatchScore, &a.RejectionProbability, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get application %s: %w", id, err)
	}
	a.Kind = model.EntityKind(kind)
	return &a, nil
}

// UpdateApplicationStatus transitions an application's status.
func (s *SQLite) UpdateApplicationStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE applications SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update application %s: %w", id, err)
	}
	return affected(res, id)
}

// ListApplications returns a user's applications in chronological order.
func (s *SQLite) ListApplications(ctx context.Context, userID string) ([]model.Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, posting_id, kind, status, match_score, rejection_probability, created_at, updated_at
		FROM applications WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []model.Application
	for rows.Next() {
		var a model.Application
		var kind string
		if err := rows.Scan(&a.ID, &a.UserID, &a.PostingID, &kind, &a.Status,
			&a.MatchScore, &a.RejectionProbability, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list applications: %w", err)
		}
		a.Kind = model.EntityKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateRejection records a rejection.
func (s *SQLite) CreateRejection(ctx context.Context, r *model.Rejection) error {
	r.CreatedAt = now(r.CreatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rejections (id, user_id, application_id, reason, skill_gaps, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.ApplicationID, r.Reason, toJSON(r.SkillGaps), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("create rejection %s: %w", r.ID, err)
	}
	return nil
}

// ListRejections returns a user's rejections in chronological order.
func (s *SQLite) ListRejections(ctx context.Context, userID string) ([]model.Rejection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, application_id, reason, skill_gaps, created_at
		FROM rejections WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list rejections: %w", err)
	}
	defer rows.Close()

	var out []model.Rejection
	for rows.Next() {
		var r model.Rejection
		var gaps string
		if err := rows.Scan(&r.ID, &r.UserID, &r.ApplicationID, &r.Reason, &gaps, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("list rejections: %w", err)
		}
		r.SkillGaps = fromJSON(gaps)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveResume inserts or replaces a user's resume.
func (s *SQLite) SaveResume(ctx context.Context, r *model.Resume) error {
	r.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resumes (user_id, text, skills, education, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET text = excluded.text, skills = excluded.skills,
			education = excluded.education, updated_at = excluded.updated_at`,
		r.UserID, r.Text, toJSON(r.Skills), toJSON(r.Education), r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save resume for %s: %w", r.UserID, err)
	}
	return nil
}

// GetResume loads a user's resume.
func (s *SQLite) GetResume(ctx context.Context, userID string) (*model.Resume, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, text, skills, education, updated_at FROM resumes WHERE user_id = ?`, userID)

	var r model.Resume
	var skills, education string
	err := row.Scan(&r.UserID, &r.Text, &skills, &education, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resume for %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get resume for %s: %w", userID, err)
	}
	r.Skills = fromJSON(skills)
	r.Education = fromJSON(education)
	return &r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPosting(row scanner) (*model.Posting, error) {
	var p model.Posting
	var kind, level, skills string
	err := row.Scan(&p.ID, &kind, &p.Title, &p.Company, &p.Description, &p.Location, &p.WorkMode,
		&skills, &level, &p.SalaryMin, &p.SalaryMax, &p.URL, &p.Source, &p.Category, &p.Active,
		&p.PostedAt, &p.DurationMonths, &p.EducationRequired, &p.YearOfStudy)
	if err != nil {
		return nil, err
	}
	p.Kind = model.EntityKind(kind)
	p.Experience = model.ExperienceLevel(level)
	p.RequiredSkills = fromJSON(skills)
	return &p, nil
}

func affected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func now(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func toJSON(xs []string) string {
	if len(xs) == 0 {
		return "[]"
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func fromJSON(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var xs []string
	if err := json.Unmarshal([]byte(s), &xs); err != nil {
		return nil
	}
	return xs
}

// Compile-time checks that the store satisfies its consumers' contracts.
var (
	_ match.Store   = (*SQLite)(nil)
	_ insight.Store = (*SQLite)(nil)
)
