// Package generation runs the upload, rate limit, generate and store sequence
// for a single user request.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/imagestore"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/metrics"
	providerimage "github.com/bitstorm-tech/app.voenix.shop-sub002/internal/providers/image"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/upload"
)

type Validator interface {
	Validate(f upload.File) error
}

type RateLimiter interface {
	CheckAndAdmit(ctx context.Context, userID int64) error
}

type UserImageStore interface {
	StoreUploaded(ctx context.Context, file upload.File, userID int64) (*domain.UploadedImage, []byte, error)
	StoreGenerated(ctx context.Context, data []byte, parent *domain.UploadedImage, promptID int64, index int) (*domain.GeneratedImage, error)
}

type PromptTestStore interface {
	StorePromptTestResult(ctx context.Context, data []byte) (*imagestore.StoredImage, error)
}

// Result lists the generated images in the order the strategy produced them.
type Result struct {
	ImageURLs         []string `json:"imageUrls"`
	GeneratedImageIDs []int64  `json:"generatedImageIds"`
}

// PromptTestResult is the stored output of an admin prompt test.
type PromptTestResult struct {
	ImageURL string `json:"imageUrl"`
	Filename string `json:"filename"`
	Prompt   string `json:"prompt"`
}

type Deps struct {
	Validator   Validator
	Limiter     RateLimiter
	Prompts     domain.PromptLookup
	Images      UserImageStore
	TestResults PromptTestStore
	Codec       imagestore.Canonicalizer
	Strategy    providerimage.Strategy
	Metrics     *metrics.Recorder
	Logger      zerolog.Logger
}

// Orchestrator is safe for concurrent use; it holds no per-request state.
type Orchestrator struct {
	validator   Validator
	limiter     RateLimiter
	prompts     domain.PromptLookup
	images      UserImageStore
	testResults PromptTestStore
	codec       imagestore.Canonicalizer
	strategy    providerimage.Strategy
	metrics     *metrics.Recorder
	logger      zerolog.Logger
	now         func() time.Time
}

func New(d Deps) *Orchestrator {
	return &Orchestrator{
		validator:   d.Validator,
		limiter:     d.Limiter,
		prompts:     d.Prompts,
		images:      d.Images,
		testResults: d.TestResults,
		codec:       d.Codec,
		strategy:    d.Strategy,
		metrics:     d.Metrics,
		logger:      d.Logger.With().Str("component", "generation").Logger(),
		now:         time.Now,
	}
}

// StrategyName reports the strategy selected at startup.
func (o *Orchestrator) StrategyName() string {
	return o.strategy.Name()
}

// GenerateForUser stores the upload and the images generated from it. Steps
// run in order and stop at the first failure. Nothing written by an earlier
// step is removed when a later one fails.
func (o *Orchestrator) GenerateForUser(ctx context.Context, file upload.File, req providerimage.GenerationRequest, userID int64) (*Result, error) {
	log := o.logger.With().Int64("user_id", userID).Int64("prompt_id", req.PromptID).Logger()

	if err := o.validator.Validate(file); err != nil {
		o.metrics.Upload(metrics.ResultRejected)
		o.metrics.Generation(metrics.ResultRejected)
		return nil, err
	}
	req, err := req.Normalize()
	if err != nil {
		o.metrics.Generation(metrics.ResultRejected)
		return nil, err
	}

	if err := o.limiter.CheckAndAdmit(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrRateLimitExceeded) {
			o.metrics.Generation(metrics.ResultRateLimited)
		} else {
			o.metrics.Generation(metrics.ResultFailed)
		}
		return nil, err
	}

	prompt, err := o.prompts.GetByID(ctx, req.PromptID)
	if err != nil {
		o.metrics.Generation(metrics.ResultRejected)
		return nil, err
	}
	if !prompt.Active {
		o.metrics.Generation(metrics.ResultRejected)
		return nil, fmt.Errorf("%w: prompt %d", domain.ErrPromptInactive, prompt.ID)
	}

	original, canonical, err := o.images.StoreUploaded(ctx, file, userID)
	if err != nil {
		o.metrics.Upload(metrics.ResultFailed)
		o.metrics.Generation(metrics.ResultFailed)
		return nil, err
	}
	o.metrics.Upload(metrics.ResultSuccess)

	started := o.now()
	outputs, err := o.strategy.GenerateImages(ctx, canonical, req)
	o.metrics.ObserveGeneration(o.strategy.Name(), o.now().Sub(started))
	if err != nil {
		o.metrics.Generation(metrics.ResultFailed)
		log.Warn().Err(err).Str("uuid", original.UUID.String()).Msg("generation failed; original kept")
		if !errors.Is(err, domain.ErrGenerationFailed) && !errors.Is(err, domain.ErrInvalidRequest) &&
			!errors.Is(err, domain.ErrPromptNotFound) && !errors.Is(err, domain.ErrPromptInactive) {
			err = &domain.GenerationError{Provider: o.strategy.Name(), Err: err}
		}
		return nil, err
	}
	if len(outputs) == 0 {
		o.metrics.Generation(metrics.ResultFailed)
		return nil, &domain.GenerationError{Provider: o.strategy.Name(), Err: errors.New("no images returned")}
	}

	result := &Result{
		ImageURLs:         make([]string, 0, len(outputs)),
		GeneratedImageIDs: make([]int64, 0, len(outputs)),
	}
	for i, data := range outputs {
		gen, err := o.images.StoreGenerated(ctx, data, original, prompt.ID, i+1)
		if err != nil {
			o.metrics.GeneratedImages(len(result.GeneratedImageIDs))
			o.metrics.Generation(metrics.ResultFailed)
			log.Error().Err(err).Int("index", i+1).Int("stored", len(result.GeneratedImageIDs)).Msg("storing generated image failed")
			return nil, err
		}
		result.ImageURLs = append(result.ImageURLs, domain.UserImageURL(gen.Filename))
		result.GeneratedImageIDs = append(result.GeneratedImageIDs, gen.ID)
	}

	o.metrics.GeneratedImages(len(result.GeneratedImageIDs))
	o.metrics.Generation(metrics.ResultSuccess)
	log.Info().Str("uuid", original.UUID.String()).Int("count", len(outputs)).Str("strategy", o.strategy.Name()).Msg("images generated")
	return result, nil
}

// TestPrompt runs raw prompt text once against the uploaded image and stores
// the result for admin review. No UploadedImage or GeneratedImage is recorded.
func (o *Orchestrator) TestPrompt(ctx context.Context, file upload.File, req providerimage.PromptTestRequest) (*PromptTestResult, error) {
	if err := o.validator.Validate(file); err != nil {
		return nil, err
	}
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	canonical, err := o.codec.ToCanonical(file.Data)
	if err != nil {
		return nil, err
	}

	started := o.now()
	data, err := o.strategy.TestPrompt(ctx, canonical, req)
	o.metrics.ObserveGeneration(o.strategy.Name(), o.now().Sub(started))
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationFailed) && !errors.Is(err, domain.ErrInvalidRequest) {
			err = &domain.GenerationError{Provider: o.strategy.Name(), Err: err}
		}
		return nil, err
	}

	stored, err := o.testResults.StorePromptTestResult(ctx, data)
	if err != nil {
		return nil, err
	}
	o.logger.Info().Str("filename", stored.Filename).Str("strategy", o.strategy.Name()).Msg("prompt test stored")
	return &PromptTestResult{ImageURL: stored.URL, Filename: stored.Filename, Prompt: req.Prompt}, nil
}
