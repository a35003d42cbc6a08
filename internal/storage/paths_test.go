package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewResolverCreatesEveryCategoryDirectory(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(root)
	require.NoError(t, err)

	for _, c := range lookupOrder {
		dir, err := r.PhysicalPath(c)
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err, "category %s", c)
		require.True(t, info.IsDir())
	}
}

func TestNewResolverFailsWhenRootIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewResolver(file)
	require.Error(t, err)
}

func TestResolverMappings(t *testing.T) {
	r, err := NewResolver(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		category Category
		url      string
		public   bool
	}{
		{CategoryPublic, "/images", true},
		{CategoryPrivate, "/api/user/images", false},
		{CategoryPromptExample, "/images/prompt-example-images", true},
		{CategorySlotExample, "/images/prompt-slot-variant-example-images", true},
		{CategoryVariantExample, "/images/articles/mugs/variant-example-images", true},
		{CategoryGenerated, "/api/admin/images", false},
		{CategoryUploaded, "/api/admin/images", false},
	}
	for _, tc := range tests {
		t.Run(string(tc.category), func(t *testing.T) {
			url, err := r.URLPath(tc.category)
			require.NoError(t, err)
			require.Equal(t, tc.url, url)
			require.Equal(t, tc.public, r.IsPubliclyAccessible(tc.category))
		})
	}

	_, err = r.URLPath(Category("bogus"))
	require.ErrorIs(t, err, ErrUnknownCategory)
	_, err = ParseCategory("bogus")
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestFindCategoryForFilename(t *testing.T) {
	r, err := NewResolver(t.TempDir())
	require.NoError(t, err)

	p, err := r.PhysicalFilePath(CategorySlotExample, "slot.webp")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	c, ok := r.FindCategoryForFilename("slot.webp")
	require.True(t, ok)
	require.Equal(t, CategorySlotExample, c)

	_, ok = r.FindCategoryForFilename("missing.webp")
	require.False(t, ok)

	_, ok = r.FindCategoryForFilename("../slot.webp")
	require.False(t, ok)
}

func TestUserDirAndKey(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(root)
	require.NoError(t, err)

	abs, _ := filepath.Abs(root)
	require.Equal(t, filepath.Join(abs, "private", "images", "42"), r.UserDir(42))
	require.Equal(t, "private/images/42/a_original.png", r.UserKey(42, "a_original.png"))
}
