package services

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-library-circulation/internal/domain"
	"github.com/tbourn/go-library-circulation/internal/repo"
)

// TitleResolver resolves a title id to the catalog entry that is snapshotted
// into loans and requests. The circulation core only reads through it.
type TitleResolver interface {
	GetTitle(ctx context.Context, id string) (*domain.Title, error)
}

// Catalog is the default TitleResolver, backed by the titles table.
type Catalog struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// NameMaxLen caps stored title names by rune length.
	NameMaxLen int
}

// NewCatalog returns a Catalog with default limits.
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{DB: db, NameMaxLen: 255}
}

// GetTitle returns the title or ErrTitleNotFound.
func (s *Catalog) GetTitle(ctx context.Context, id string) (*domain.Title, error) {
	ctx, span := otel.Tracer("services/Catalog").Start(ctx, "GetTitle",
		trace.WithAttributes(attribute.String("title.id", id)),
	)
	defer span.End()

	t, err := repo.GetTitle(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}
	return t, nil
}

// CreateTitle adds a catalog entry. Whitespace in the name is collapsed.
func (s *Catalog) CreateTitle(ctx context.Context, name, coverURL string) (*domain.Title, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, ErrEmptyTitleName
	}
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		name = string([]rune(name)[:s.NameMaxLen])
	}
	return repo.CreateTitle(ctx, s.DB, name, strings.TrimSpace(coverURL))
}

// ListTitles returns a page of titles ordered by name, plus the total count.
func (s *Catalog) ListTitles(ctx context.Context, page, pageSize int) ([]domain.Title, int64, error) {
	offset, limit := pageWindow(page, pageSize)
	total, err := repo.CountTitles(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Title{}, 0, nil
	}
	items, err := repo.ListTitlesPage(ctx, s.DB, offset, limit)
	return items, total, err
}

func normalizeName(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// pageWindow converts 1-based page/pageSize into offset/limit, defaulting
// bad input to the first page of 20.
func pageWindow(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return (page - 1) * pageSize, pageSize
}
