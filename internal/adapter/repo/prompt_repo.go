package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/infra"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/sqlinline"
)

// PromptRepositoryPG implements domain.PromptRepository on PostgreSQL.
type PromptRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewPromptRepository(sql infra.SQLExecutor) *PromptRepositoryPG {
	return &PromptRepositoryPG{sql: sql}
}

// GetByID loads a prompt with its slots ordered by position.
func (r *PromptRepositoryPG) GetByID(ctx context.Context, id int64) (*domain.Prompt, error) {
	var p domain.Prompt
	err := r.sql.QueryRow(ctx, sqlinline.QSelectPromptByID, id).
		Scan(&p.ID, &p.Title, &p.Text, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrPromptNotFound
		}
		return nil, fmt.Errorf("select prompt: %w", err)
	}

	rows, err := r.sql.Query(ctx, sqlinline.QListPromptSlots, id)
	if err != nil {
		return nil, fmt.Errorf("select prompt slots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var slot domain.PromptSlot
		if err := rows.Scan(&slot.ID, &slot.Name, &slot.Text, &slot.Position); err != nil {
			return nil, err
		}
		p.Slots = append(p.Slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts the prompt and its slots in one transaction when the
// executor supports it.
func (r *PromptRepositoryPG) Create(ctx context.Context, prompt *domain.Prompt) error {
	if prompt.CreatedAt.IsZero() {
		prompt.CreatedAt = time.Now().UTC()
	}
	prompt.UpdatedAt = prompt.CreatedAt

	write := func(exec infra.SQLExecutor) error {
		if err := exec.QueryRow(ctx, sqlinline.QInsertPrompt, prompt.Title, prompt.Text, prompt.Active, prompt.CreatedAt).Scan(&prompt.ID); err != nil {
			return fmt.Errorf("insert prompt: %w", err)
		}
		for i := range prompt.Slots {
			slot := &prompt.Slots[i]
			if err := exec.QueryRow(ctx, sqlinline.QInsertPromptSlot, prompt.ID, slot.Name, slot.Text, slot.Position).Scan(&slot.ID); err != nil {
				return fmt.Errorf("insert prompt slot %q: %w", slot.Name, err)
			}
		}
		return nil
	}

	if tx, ok := r.sql.(infra.TxRunner); ok {
		return tx.InTx(ctx, write)
	}
	return write(r.sql)
}

var _ domain.PromptRepository = (*PromptRepositoryPG)(nil)
