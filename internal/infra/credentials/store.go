package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/infra"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/sqlinline"
)

const (
	ProviderOpenAI = "openai"
)

// Store reads and writes provider API keys kept in integration_tokens.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) OpenAIAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderOpenAI)
}

// Token returns the stored token for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetOpenAIAPIKey(ctx context.Context, key string, model string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("openai api key is required")
	}
	var props map[string]any
	if model = strings.TrimSpace(model); model != "" {
		props = map[string]any{"model": model}
	}
	return s.upsert(ctx, ProviderOpenAI, key, props)
}

// ResolveOpenAIKey prefers a key from the environment and falls back to the stored one.
func ResolveOpenAIKey(ctx context.Context, envKey string, store *Store) (string, error) {
	if key := strings.TrimSpace(envKey); key != "" {
		return key, nil
	}
	if store == nil {
		return "", nil
	}
	return store.OpenAIAPIKey(ctx)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
