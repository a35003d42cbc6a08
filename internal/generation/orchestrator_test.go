package generation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/adapter/repo/sqlite"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/imagecodec"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/imagestore"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/infra"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/metrics"
	providerimage "github.com/bitstorm-tech/app.voenix.shop-sub002/internal/providers/image"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/ratelimit"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/storage"
	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/upload"
)

// countingStrategy wraps the deterministic strategy and can fail on demand.
type countingStrategy struct {
	*providerimage.DeterministicTestStrategy
	calls atomic.Int32
	err   error
}

func (s *countingStrategy) GenerateImages(ctx context.Context, img []byte, req providerimage.GenerationRequest) ([][]byte, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.DeterministicTestStrategy.GenerateImages(ctx, img, req)
}

// failingStore fails StoreGenerated from the failAt-th call on.
type failingStore struct {
	*imagestore.UserImageStore
	calls  int
	failAt int
}

func (s *failingStore) StoreGenerated(ctx context.Context, data []byte, parent *domain.UploadedImage, promptID int64, index int) (*domain.GeneratedImage, error) {
	s.calls++
	if s.failAt > 0 && s.calls >= s.failAt {
		return nil, domain.NewStorageError("write generated", errors.New("disk full"))
	}
	return s.UserImageStore.StoreGenerated(ctx, data, parent, promptID, index)
}

type fixture struct {
	root     string
	db       *sqlx.DB
	images   *sqlite.ImageRepository
	prompts  *sqlite.PromptRepository
	store    *imagestore.UserImageStore
	strategy *countingStrategy
	deps     Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := infra.OpenSQLX(ctx, infra.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, infra.Migrate(ctx, db, infra.DriverSQLite, zerolog.Nop()))

	paths, err := storage.NewResolver(t.TempDir())
	require.NoError(t, err)
	files, err := storage.NewFileStore(paths.Root())
	require.NoError(t, err)

	images := sqlite.NewImageRepository(db, zerolog.Nop())
	prompts := sqlite.NewPromptRepository(db, zerolog.Nop())
	validator := upload.NewValidator(infra.DefaultMaxUploadBytes, infra.DefaultAllowedContentTypes)
	codec := imagecodec.New()
	store := imagestore.NewUserImageStore(paths, files, images, validator, codec, zerolog.Nop())
	public := imagestore.NewPublicImageStore(paths, files, validator, codec, nil, zerolog.Nop())
	strategy := &countingStrategy{DeterministicTestStrategy: providerimage.NewDeterministicTestStrategy()}

	f := &fixture{
		root:     paths.Root(),
		db:       db,
		images:   images,
		prompts:  prompts,
		store:    store,
		strategy: strategy,
	}
	f.deps = Deps{
		Validator:   validator,
		Limiter:     ratelimit.New(images, ratelimit.DefaultLimit, ratelimit.DefaultWindow, zerolog.Nop()),
		Prompts:     prompts,
		Images:      store,
		TestResults: public,
		Codec:       codec,
		Strategy:    strategy,
		Metrics:     metrics.New(),
		Logger:      zerolog.Nop(),
	}
	return f
}

func (f *fixture) seedPrompt(t *testing.T, active bool) *domain.Prompt {
	t.Helper()
	p := &domain.Prompt{
		Title:  "Watercolor",
		Text:   "a watercolor painting of {subject}",
		Active: active,
		Slots:  []domain.PromptSlot{{Name: "scene", Text: "mountain landscape", Position: 1}},
	}
	require.NoError(t, f.prompts.Create(context.Background(), p))
	return p
}

func (f *fixture) userFiles(t *testing.T, userID int64) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(f.root, "private", "images", fmt.Sprint(userID)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func photo(t *testing.T) upload.File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: 90, B: uint8(y * 10), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return upload.File{Filename: "portrait.jpg", ContentType: "image/jpeg", Size: int64(buf.Len()), Data: buf.Bytes()}
}

func TestGenerateForUserStoresOriginalAndGeneratedImagesInOrder(t *testing.T) {
	f := newFixture(t)
	prompt := f.seedPrompt(t, true)
	o := New(f.deps)
	ctx := context.Background()

	res, err := o.GenerateForUser(ctx, photo(t), providerimage.GenerationRequest{PromptID: prompt.ID, N: 2}, 42)
	require.NoError(t, err)

	uploads, err := f.images.ListUploadedByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	parent := uploads[0]

	generated, err := f.images.ListGeneratedByUpload(ctx, parent.ID, 42)
	require.NoError(t, err)
	require.Len(t, generated, 2)
	require.Equal(t, domain.GeneratedFilename(parent.UUID, 1), generated[0].Filename)
	require.Equal(t, domain.GeneratedFilename(parent.UUID, 2), generated[1].Filename)
	require.Equal(t, prompt.ID, generated[0].PromptID)

	require.Equal(t, []string{
		"/api/user/images/" + parent.UUID.String() + "_generated_1.png",
		"/api/user/images/" + parent.UUID.String() + "_generated_2.png",
	}, res.ImageURLs)
	require.Equal(t, []int64{generated[0].ID, generated[1].ID}, res.GeneratedImageIDs)
	require.ElementsMatch(t, []string{
		parent.StoredFilename,
		generated[0].Filename,
		generated[1].Filename,
	}, f.userFiles(t, 42))
}

func TestGenerateForUserRejectsAtRateLimitWithoutCallingStrategy(t *testing.T) {
	f := newFixture(t)
	prompt := f.seedPrompt(t, true)
	o := New(f.deps)
	ctx := context.Background()
	req := providerimage.GenerationRequest{PromptID: prompt.ID}

	for i := 0; i < ratelimit.DefaultLimit; i++ {
		_, err := o.GenerateForUser(ctx, photo(t), req, 42)
		require.NoError(t, err, "request %d", i+1)
	}
	require.Equal(t, int32(ratelimit.DefaultLimit), f.strategy.calls.Load())

	_, err := o.GenerateForUser(ctx, photo(t), req, 42)
	require.ErrorIs(t, err, domain.ErrRateLimitExceeded)
	var rle *domain.RateLimitError
	require.ErrorAs(t, err, &rle)
	require.Equal(t, ratelimit.DefaultLimit, rle.Limit)
	require.Equal(t, int32(ratelimit.DefaultLimit), f.strategy.calls.Load())

	uploads, err := f.images.ListUploadedByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, uploads, ratelimit.DefaultLimit)

	// Other users are unaffected.
	_, err = o.GenerateForUser(ctx, photo(t), req, 43)
	require.NoError(t, err)
}

func TestGenerateForUserRejectsInvalidUploadsBeforeWriting(t *testing.T) {
	tests := []struct {
		name string
		file func(t *testing.T) upload.File
		want error
	}{
		{
			name: "too large",
			file: func(t *testing.T) upload.File {
				f := photo(t)
				f.Size = 15 * 1024 * 1024
				return f
			},
			want: domain.ErrTooLarge,
		},
		{
			name: "gif",
			file: func(t *testing.T) upload.File {
				return upload.File{Filename: "anim.gif", ContentType: "image/gif", Size: 6, Data: []byte("GIF89a")}
			},
			want: domain.ErrUnsupportedType,
		},
		{
			name: "gif declared as png",
			file: func(t *testing.T) upload.File {
				img := image.NewPaletted(image.Rect(0, 0, 16, 16), color.Palette{color.Black, color.White})
				var buf bytes.Buffer
				require.NoError(t, gif.Encode(&buf, img, nil))
				return upload.File{Filename: "photo.png", ContentType: "image/png", Size: int64(buf.Len()), Data: buf.Bytes()}
			},
			want: domain.ErrUnsupportedType,
		},
		{
			name: "empty",
			file: func(t *testing.T) upload.File {
				return upload.File{Filename: "empty.png", ContentType: "image/png"}
			},
			want: domain.ErrEmptyFile,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			prompt := f.seedPrompt(t, true)
			o := New(f.deps)

			_, err := o.GenerateForUser(context.Background(), tc.file(t), providerimage.GenerationRequest{PromptID: prompt.ID}, 42)
			require.ErrorIs(t, err, tc.want)
			require.ErrorIs(t, err, domain.ErrInvalidUpload)
			require.Empty(t, f.userFiles(t, 42))
			require.Zero(t, f.strategy.calls.Load())
		})
	}
}

func TestGenerateForUserPromptErrors(t *testing.T) {
	f := newFixture(t)
	inactive := f.seedPrompt(t, false)
	o := New(f.deps)
	ctx := context.Background()

	_, err := o.GenerateForUser(ctx, photo(t), providerimage.GenerationRequest{PromptID: 999}, 42)
	require.ErrorIs(t, err, domain.ErrPromptNotFound)

	_, err = o.GenerateForUser(ctx, photo(t), providerimage.GenerationRequest{PromptID: inactive.ID}, 42)
	require.ErrorIs(t, err, domain.ErrPromptInactive)

	require.Empty(t, f.userFiles(t, 42))
	require.Zero(t, f.strategy.calls.Load())
}

func TestGenerateForUserRejectsInvalidOptions(t *testing.T) {
	f := newFixture(t)
	prompt := f.seedPrompt(t, true)
	o := New(f.deps)

	_, err := o.GenerateForUser(context.Background(), photo(t), providerimage.GenerationRequest{PromptID: prompt.ID, N: 11}, 42)
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	_, err = o.GenerateForUser(context.Background(), photo(t), providerimage.GenerationRequest{PromptID: prompt.ID, Size: "640x480"}, 42)
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	require.Empty(t, f.userFiles(t, 42))
}

func TestGenerateForUserKeepsOriginalWhenStrategyFails(t *testing.T) {
	f := newFixture(t)
	prompt := f.seedPrompt(t, true)
	f.strategy.err = &domain.GenerationError{Provider: "openai", Err: errors.New("upstream 500")}
	o := New(f.deps)
	ctx := context.Background()

	_, err := o.GenerateForUser(ctx, photo(t), providerimage.GenerationRequest{PromptID: prompt.ID}, 42)
	require.ErrorIs(t, err, domain.ErrGenerationFailed)

	uploads, err := f.images.ListUploadedByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	require.Equal(t, []string{uploads[0].StoredFilename}, f.userFiles(t, 42))
}

func TestGenerateForUserWrapsUntypedStrategyErrors(t *testing.T) {
	f := newFixture(t)
	prompt := f.seedPrompt(t, true)
	f.strategy.err = errors.New("connection reset")
	o := New(f.deps)

	_, err := o.GenerateForUser(context.Background(), photo(t), providerimage.GenerationRequest{PromptID: prompt.ID}, 42)
	require.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestGenerateForUserDoesNotRollBackPartialBatch(t *testing.T) {
	f := newFixture(t)
	prompt := f.seedPrompt(t, true)
	f.deps.Images = &failingStore{UserImageStore: f.store, failAt: 2}
	o := New(f.deps)
	ctx := context.Background()

	_, err := o.GenerateForUser(ctx, photo(t), providerimage.GenerationRequest{PromptID: prompt.ID, N: 3}, 42)
	require.ErrorIs(t, err, domain.ErrStorageIO)

	uploads, err := f.images.ListUploadedByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	generated, err := f.images.ListGeneratedByUpload(ctx, uploads[0].ID, 42)
	require.NoError(t, err)
	require.Len(t, generated, 1)
	require.Equal(t, 1, generated[0].GenerationIndex)
	require.Len(t, f.userFiles(t, 42), 2)
}

func TestTestPromptStoresResultInGeneratedCategory(t *testing.T) {
	f := newFixture(t)
	o := New(f.deps)

	res, err := o.TestPrompt(context.Background(), photo(t), providerimage.PromptTestRequest{Prompt: "  pencil sketch  ", Quality: "high"})
	require.NoError(t, err)
	require.Equal(t, "pencil sketch", res.Prompt)
	require.Equal(t, "/api/admin/images/"+res.Filename, res.ImageURL)

	onDisk, err := os.ReadFile(filepath.Join(f.root, "private", "images", "0_generated", res.Filename))
	require.NoError(t, err)
	require.Equal(t, f.strategy.Canned(), onDisk)
}

func TestTestPromptRejectsBlankPrompt(t *testing.T) {
	f := newFixture(t)
	o := New(f.deps)

	_, err := o.TestPrompt(context.Background(), photo(t), providerimage.PromptTestRequest{Prompt: "   "})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}
