package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ledgerline/lockbox-lens/internal/common"
	"github.com/ledgerline/lockbox-lens/internal/model"
)

// SaveRule inserts or updates a matching rule in the catalog.
func (s *SQLiteStorage) SaveRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rule == nil {
		return fmt.Errorf("rule cannot be nil")
	}
	if err := validateString(rule.ID, "rule.ID"); err != nil {
		return err
	}

	limitationsJSON := ""
	if len(rule.Limitations) > 0 {
		b, err := json.Marshal(rule.Limitations)
		if err != nil {
			return fmt.Errorf("failed to marshal limitations: %w", err)
		}
		limitationsJSON = string(b)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO rules (
			id, name, description, match_logic, confidence,
			matched_count, limitations
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rule.ID, rule.Name, rule.Description, rule.MatchLogic,
		string(rule.Confidence), rule.MatchedCount, limitationsJSON)
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}
	return nil
}

// GetRules returns the full rule catalog ordered by name.
func (s *SQLiteStorage) GetRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, match_logic, confidence,
		       matched_count, limitations
		FROM rules ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}
	return rules, rows.Err()
}

// GetRuleByID returns a single rule. Callers displaying rule
// references should skip entries that come back ErrNotFound rather
// than treating them as failures.
func (s *SQLiteStorage) GetRuleByID(ctx context.Context, id string) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, match_logic, confidence,
		       matched_count, limitations
		FROM rules WHERE id = ?
	`, id)

	r, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load rule %s: %w", id, err)
	}
	return r, nil
}

// IncrementRuleMatchCount bumps a rule's matched counter.
func (s *SQLiteStorage) IncrementRuleMatchCount(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE rules SET matched_count = matched_count + 1 WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to increment match count: %w", err)
	}
	return nil
}

func scanRule(row rowScanner) (*model.Rule, error) {
	var r model.Rule
	var confidence string
	var limitationsJSON sql.NullString

	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.MatchLogic,
		&confidence, &r.MatchedCount, &limitationsJSON)
	if err != nil {
		return nil, err
	}

	r.Confidence = model.ConfidenceTier(confidence)
	if limitationsJSON.Valid && limitationsJSON.String != "" {
		if err := json.Unmarshal([]byte(limitationsJSON.String), &r.Limitations); err != nil {
			return nil, fmt.Errorf("invalid limitations on rule %s: %w", r.ID, err)
		}
	}
	return &r, nil
}
