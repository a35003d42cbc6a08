package image

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/providers/openai"
)

const remoteProvider = "openai"

type imageEditor interface {
	EditImage(ctx context.Context, req openai.EditRequest) ([][]byte, error)
	Model() string
}

// RemoteProviderStrategy sends the source image and composed instruction to
// the OpenAI image edit API. It never retries.
type RemoteProviderStrategy struct {
	client  imageEditor
	prompts domain.PromptLookup
	logger  zerolog.Logger
}

func NewRemoteProviderStrategy(client imageEditor, prompts domain.PromptLookup, logger zerolog.Logger) *RemoteProviderStrategy {
	return &RemoteProviderStrategy{
		client:  client,
		prompts: prompts,
		logger:  logger.With().Str("strategy", "remote").Logger(),
	}
}

func (s *RemoteProviderStrategy) Name() string {
	return "remote"
}

func (s *RemoteProviderStrategy) GenerateImages(ctx context.Context, image []byte, req GenerationRequest) ([][]byte, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	prompt, err := s.prompts.GetByID(ctx, req.PromptID)
	if err != nil {
		return nil, err
	}
	if !prompt.Active {
		return nil, domain.ErrPromptInactive
	}
	instruction := ComposeInstruction(*prompt)
	if instruction == "" {
		return nil, fmt.Errorf("%w: prompt %d has no text", domain.ErrInvalidRequest, prompt.ID)
	}

	images, err := s.client.EditImage(ctx, openai.EditRequest{
		Image:      image,
		ImageName:  "original.png",
		ImageMIME:  domain.CanonicalContentType,
		Prompt:     instruction,
		N:          req.N,
		Size:       req.Size,
		Quality:    req.Quality,
		Background: req.Background,
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("prompt_id", prompt.ID).Str("model", s.client.Model()).Msg("image edit failed")
		return nil, &domain.GenerationError{Provider: remoteProvider, Err: err}
	}
	if len(images) == 0 {
		return nil, &domain.GenerationError{Provider: remoteProvider, Err: errors.New("no images returned")}
	}
	if len(images) != req.N {
		s.logger.Warn().Int("requested", req.N).Int("received", len(images)).Msg("provider returned a different image count")
	}
	return images, nil
}

func (s *RemoteProviderStrategy) TestPrompt(ctx context.Context, image []byte, req PromptTestRequest) ([]byte, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	images, err := s.client.EditImage(ctx, openai.EditRequest{
		Image:      image,
		ImageName:  "original.png",
		ImageMIME:  domain.CanonicalContentType,
		Prompt:     req.Prompt,
		N:          1,
		Size:       req.Size,
		Quality:    req.Quality,
		Background: req.Background,
	})
	if err != nil {
		return nil, &domain.GenerationError{Provider: remoteProvider, Err: err}
	}
	if len(images) == 0 {
		return nil, &domain.GenerationError{Provider: remoteProvider, Err: errors.New("no images returned")}
	}
	return images[0], nil
}

var _ Strategy = (*RemoteProviderStrategy)(nil)
