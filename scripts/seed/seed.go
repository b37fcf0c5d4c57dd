package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"gopkg.in/yaml.v3"

	"github.com/obra-dashboard/obra/internal/auth"
)

// Seed is the YAML document loaded by the seeder.
type Seed struct {
	Admin      AdminSeed      `yaml:"admin"`
	Categories []CategorySeed `yaml:"categories"`
	Stages     []StageSeed    `yaml:"stages"`
}

type AdminSeed struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type CategorySeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type StageSeed struct {
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	PlannedStart string         `yaml:"planned_start"`
	PlannedEnd   string         `yaml:"planned_end"`
	SubStages    []SubStageSeed `yaml:"sub_stages"`
}

type SubStageSeed struct {
	Name  string   `yaml:"name"`
	Tasks []string `yaml:"tasks"`
}

type seedStats struct {
	Users      int
	Categories int
	Stages     int
	SubStages  int
	Tasks      int
}

const dateLayout = "2006-01-02"

func loadSeed(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	return parseSeed(raw)
}

func parseSeed(raw []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("decode yaml: %w", err)
	}
	if err := seed.validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

func (s Seed) validate() error {
	var errs []error
	if strings.TrimSpace(s.Admin.Email) == "" {
		errs = append(errs, errors.New("admin.email is required"))
	}
	if len(s.Admin.Password) < 8 {
		errs = append(errs, errors.New("admin.password must have at least 8 characters"))
	}
	seen := make(map[string]bool, len(s.Categories))
	for i, c := range s.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("categories[%d]: name is required", i))
			continue
		}
		if seen[strings.ToLower(name)] {
			errs = append(errs, fmt.Errorf("categories[%d]: duplicate %q", i, name))
		}
		seen[strings.ToLower(name)] = true
	}
	for i, st := range s.Stages {
		if strings.TrimSpace(st.Name) == "" {
			errs = append(errs, fmt.Errorf("stages[%d]: name is required", i))
		}
		start, err := optionalDate(st.PlannedStart)
		if err != nil {
			errs = append(errs, fmt.Errorf("stages[%d].planned_start: %w", i, err))
		}
		end, err := optionalDate(st.PlannedEnd)
		if err != nil {
			errs = append(errs, fmt.Errorf("stages[%d].planned_end: %w", i, err))
		}
		if start != nil && end != nil && end.Before(*start) {
			errs = append(errs, fmt.Errorf("stages[%d]: planned_end before planned_start", i))
		}
		for j, sub := range st.SubStages {
			if strings.TrimSpace(sub.Name) == "" {
				errs = append(errs, fmt.Errorf("stages[%d].sub_stages[%d]: name is required", i, j))
			}
		}
	}
	return errors.Join(errs...)
}

func optionalDate(v string) (*time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// apply inserts the rows missing from the database. Existing rows are
// matched by name and left untouched.
func apply(ctx context.Context, tx pgx.Tx, seed Seed) (seedStats, error) {
	var stats seedStats

	hash, err := auth.HashPassword(seed.Admin.Password)
	if err != nil {
		return stats, err
	}
	tag, err := tx.Exec(ctx, `
		INSERT INTO users (name, email, password_hash, role, is_active)
		VALUES ($1, LOWER($2), $3, 'admin', TRUE)
		ON CONFLICT (email) DO NOTHING`, seed.Admin.Name, seed.Admin.Email, hash)
	if err != nil {
		return stats, fmt.Errorf("admin: %w", err)
	}
	stats.Users += int(tag.RowsAffected())

	for _, c := range seed.Categories {
		tag, err := tx.Exec(ctx, `
			INSERT INTO categories (name, description)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING`, strings.TrimSpace(c.Name), c.Description)
		if err != nil {
			return stats, fmt.Errorf("category %q: %w", c.Name, err)
		}
		stats.Categories += int(tag.RowsAffected())
	}

	for pos, st := range seed.Stages {
		start, _ := optionalDate(st.PlannedStart)
		end, _ := optionalDate(st.PlannedEnd)
		stageID, created, err := ensure(ctx, tx,
			`SELECT id FROM stages WHERE name = $1`, []any{st.Name},
			`INSERT INTO stages (name, description, position, planned_start, planned_end)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`, []any{st.Name, st.Description, pos + 1, start, end})
		if err != nil {
			return stats, fmt.Errorf("stage %q: %w", st.Name, err)
		}
		if created {
			stats.Stages++
		}
		for subPos, sub := range st.SubStages {
			subID, created, err := ensure(ctx, tx,
				`SELECT id FROM sub_stages WHERE stage_id = $1 AND name = $2`, []any{stageID, sub.Name},
				`INSERT INTO sub_stages (stage_id, name, position) VALUES ($1, $2, $3) RETURNING id`,
				[]any{stageID, sub.Name, subPos + 1})
			if err != nil {
				return stats, fmt.Errorf("sub-stage %q: %w", sub.Name, err)
			}
			if created {
				stats.SubStages++
			}
			for _, title := range sub.Tasks {
				_, created, err := ensure(ctx, tx,
					`SELECT id FROM tasks WHERE sub_stage_id = $1 AND title = $2`, []any{subID, title},
					`INSERT INTO tasks (sub_stage_id, title) VALUES ($1, $2) RETURNING id`, []any{subID, title})
				if err != nil {
					return stats, fmt.Errorf("task %q: %w", title, err)
				}
				if created {
					stats.Tasks++
				}
			}
		}
	}
	return stats, nil
}

// ensure returns the id found by lookup, inserting the row when missing.
func ensure(ctx context.Context, tx pgx.Tx, lookup string, lookupArgs []any, insert string, insertArgs []any) (int64, bool, error) {
	var id int64
	err := tx.QueryRow(ctx, lookup, lookupArgs...).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}
	if err := tx.QueryRow(ctx, insert, insertArgs...).Scan(&id); err != nil {
		return 0, false, err
	}
	return id, true, nil
}
