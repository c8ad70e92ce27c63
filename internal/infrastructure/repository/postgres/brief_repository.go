package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lexicon-legal/lexicon/internal/core/domain"
)

type BriefRepository struct {
	db *sql.DB
}

func NewBriefRepository(db *sql.DB) *BriefRepository {
	return &BriefRepository{db: db}
}

func (r *BriefRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082302)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS case_briefs (
	id TEXT PRIMARY KEY,
	target_expert TEXT NOT NULL,
	strategy TEXT NOT NULL,
	motion_type TEXT NOT NULL,
	final_brief TEXT NOT NULL,
	analysis JSONB NOT NULL DEFAULT '{}'::jsonb,
	research JSONB NOT NULL DEFAULT '{}'::jsonb,
	recommendations TEXT,
	generated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_case_briefs_target_expert ON case_briefs(target_expert);
CREATE INDEX IF NOT EXISTS idx_case_briefs_generated_at ON case_briefs(generated_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *BriefRepository) SaveBrief(ctx context.Context, brief *domain.CaseBrief) error {
	analysisJSON, err := json.Marshal(brief.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	researchJSON, err := json.Marshal(brief.Research)
	if err != nil {
		return fmt.Errorf("marshal research: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO case_briefs (
	id, target_expert, strategy, motion_type, final_brief, analysis, research, recommendations, generated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		brief.ID, brief.TargetExpert, string(brief.Strategy), brief.MotionType,
		brief.FinalBrief, analysisJSON, researchJSON, brief.Recommendations, brief.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("insert case brief: %w", err)
	}
	return nil
}

func (r *BriefRepository) GetBriefByID(ctx context.Context, id string) (*domain.CaseBrief, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, target_expert, strategy, motion_type, final_brief, analysis, research, recommendations, generated_at
FROM case_briefs
WHERE id = $1
`, id)

	var brief domain.CaseBrief
	var strategy string
	var analysisRaw, researchRaw []byte

	err := row.Scan(
		&brief.ID, &brief.TargetExpert, &strategy, &brief.MotionType,
		&brief.FinalBrief, &analysisRaw, &researchRaw, &brief.Recommendations, &brief.GeneratedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrBriefNotFound, "get case brief", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan case brief: %w", err)
	}

	if err := json.Unmarshal(analysisRaw, &brief.Analysis); err != nil {
		return nil, fmt.Errorf("unmarshal analysis: %w", err)
	}
	if err := json.Unmarshal(researchRaw, &brief.Research); err != nil {
		return nil, fmt.Errorf("unmarshal research: %w", err)
	}
	brief.Strategy = domain.Strategy(strategy)
	return &brief, nil
}
