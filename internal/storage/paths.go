package storage

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
)

// Category is a logical image bucket with a fixed directory and URL prefix.
type Category string

const (
	CategoryPublic         Category = "public"
	CategoryPrivate        Category = "private"
	CategoryPromptExample  Category = "prompt-example"
	CategorySlotExample    Category = "slot-example"
	CategoryVariantExample Category = "variant-example"
	CategoryGenerated      Category = "generated"
	CategoryUploaded       Category = "uploaded"
)

var ErrUnknownCategory = errors.New("storage: unknown image category")

type categoryLayout struct {
	dir    string
	url    string
	public bool
}

// layout maps each category to a directory relative to the storage root.
var layout = map[Category]categoryLayout{
	CategoryPublic:         {dir: "public/images", url: "/images", public: true},
	CategoryPrivate:        {dir: "private/images", url: "/api/user/images"},
	CategoryPromptExample:  {dir: "public/images/prompt-example-images", url: "/images/prompt-example-images", public: true},
	CategorySlotExample:    {dir: "public/images/prompt-slot-variant-example-images", url: "/images/prompt-slot-variant-example-images", public: true},
	CategoryVariantExample: {dir: "public/images/articles/mugs/variant-example-images", url: "/images/articles/mugs/variant-example-images", public: true},
	CategoryGenerated:      {dir: "private/images/0_generated", url: "/api/admin/images"},
	CategoryUploaded:       {dir: "private/images/0_uploaded", url: "/api/admin/images"},
}

// lookupOrder is the order FindCategoryForFilename checks directories in.
var lookupOrder = []Category{
	CategoryPromptExample,
	CategorySlotExample,
	CategoryVariantExample,
	CategoryPublic,
	CategoryGenerated,
	CategoryUploaded,
	CategoryPrivate,
}

// ParseCategory validates a category name received from a caller.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := layout[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Resolver maps categories to physical directories and URL prefixes. It knows
// nothing about ownership.
type Resolver struct {
	root string
}

// NewResolver creates every category directory under root. Any failure is
// returned so the caller can refuse to start.
func NewResolver(root string) (*Resolver, error) {
	if root == "" {
		return nil, errors.New("storage: root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	for _, c := range lookupOrder {
		dir := filepath.Join(abs, filepath.FromSlash(layout[c].dir))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create %s directory: %w", c, err)
		}
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute storage root.
func (r *Resolver) Root() string {
	return r.root
}

func (r *Resolver) PhysicalPath(c Category) (string, error) {
	l, ok := layout[c]
	if !ok {
		return "", ErrUnknownCategory
	}
	return filepath.Join(r.root, filepath.FromSlash(l.dir)), nil
}

func (r *Resolver) PhysicalFilePath(c Category, filename string) (string, error) {
	dir, err := r.PhysicalPath(c)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filename), nil
}

// Key returns the slash-separated key of filename in c, relative to the root.
func (r *Resolver) Key(c Category, filename string) (string, error) {
	l, ok := layout[c]
	if !ok {
		return "", ErrUnknownCategory
	}
	return path.Join(l.dir, filename), nil
}

func (r *Resolver) URLPath(c Category) (string, error) {
	l, ok := layout[c]
	if !ok {
		return "", ErrUnknownCategory
	}
	return l.url, nil
}

// URL returns the URL under which filename in c is served.
func (r *Resolver) URL(c Category, filename string) (string, error) {
	prefix, err := r.URLPath(c)
	if err != nil {
		return "", err
	}
	return prefix + "/" + filename, nil
}

func (r *Resolver) IsPubliclyAccessible(c Category) bool {
	return layout[c].public
}

// FindCategoryForFilename checks the category directories in a fixed order
// and returns the first one holding filename.
func (r *Resolver) FindCategoryForFilename(filename string) (Category, bool) {
	if filename == "" || filepath.Base(filename) != filename {
		return "", false
	}
	for _, c := range lookupOrder {
		p, _ := r.PhysicalFilePath(c, filename)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return c, true
		}
	}
	return "", false
}

// UserDir is the private directory holding all images of one user.
func (r *Resolver) UserDir(userID int64) string {
	return filepath.Join(r.root, filepath.FromSlash(layout[CategoryPrivate].dir), strconv.FormatInt(userID, 10))
}

// UserKey is the storage key of a user's private image.
func (r *Resolver) UserKey(userID int64, filename string) string {
	return path.Join(layout[CategoryPrivate].dir, strconv.FormatInt(userID, 10), filename)
}
