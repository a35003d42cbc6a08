package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/infra"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/sqlinline"
)

type promptRow struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Text      string    `db:"prompt_text"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type slotRow struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Text     string `db:"prompt_text"`
	Position int    `db:"position"`
}

// PromptRepository implements domain.PromptRepository on sqlite.
type PromptRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewPromptRepository(db *sqlx.DB, logger zerolog.Logger) *PromptRepository {
	return &PromptRepository{db: db, logger: logger}
}

func (r *PromptRepository) GetByID(ctx context.Context, id int64) (*domain.Prompt, error) {
	run := newRunner(r.db, r.logger)
	var row promptRow
	if err := run.get(ctx, &row, sqlinline.QLiteSelectPromptByID, id); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrPromptNotFound
		}
		return nil, fmt.Errorf("select prompt: %w", err)
	}
	var slots []slotRow
	if err := run.selectAll(ctx, &slots, sqlinline.QLiteListPromptSlots, id); err != nil {
		return nil, fmt.Errorf("select prompt slots: %w", err)
	}

	prompt := &domain.Prompt{
		ID:        row.ID,
		Title:     row.Title,
		Text:      row.Text,
		Active:    row.Active,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	for _, s := range slots {
		prompt.Slots = append(prompt.Slots, domain.PromptSlot{ID: s.ID, Name: s.Name, Text: s.Text, Position: s.Position})
	}
	return prompt, nil
}

// Create inserts the prompt and its slots in one transaction.
func (r *PromptRepository) Create(ctx context.Context, prompt *domain.Prompt) error {
	if prompt.CreatedAt.IsZero() {
		prompt.CreatedAt = time.Now()
	}
	prompt.CreatedAt = prompt.CreatedAt.UTC()
	prompt.UpdatedAt = prompt.CreatedAt

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	run := runner{q: tx, logger: r.logger}
	id, err := run.insert(ctx, sqlinline.QLiteInsertPrompt, prompt.Title, prompt.Text, prompt.Active, prompt.CreatedAt, prompt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert prompt: %w", err)
	}
	for i := range prompt.Slots {
		slot := &prompt.Slots[i]
		slotID, err := run.insert(ctx, sqlinline.QLiteInsertPromptSlot, id, slot.Name, slot.Text, slot.Position)
		if err != nil {
			return fmt.Errorf("insert prompt slot %q: %w", slot.Name, err)
		}
		slot.ID = slotID
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	prompt.ID = id
	return nil
}

var _ domain.PromptRepository = (*PromptRepository)(nil)
