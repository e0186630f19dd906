package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/landingkit/internal/db"
	"github.com/landingkit/internal/registry"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrLandingPageNotFound = errors.New("landing page not found")
	ErrSlugConflict        = errors.New("a landing page with this slug already exists")
	ErrMissingFields       = errors.New("missing required fields: slug, title, data")
	ErrTitleRequired       = errors.New("title is required")
	ErrInvalidDocument     = registry.ErrInvalidDocument
)

// CreateLandingPageInput 创建落地页所需字段。
type CreateLandingPageInput struct {
	Slug        string
	Title       string
	Data        json.RawMessage
	CheckoutURL *string
}

// UpdateLandingPageInput carries a partial update; nil fields are left untouched.
type UpdateLandingPageInput struct {
	Slug        *string
	Title       *string
	Data        json.RawMessage
	CheckoutURL *string
}

// LandingPageService handles landing page persistence.
type LandingPageService struct {
	db       *gorm.DB
	registry *registry.Registry
}

// NewLandingPageService creates a LandingPageService. The registry validates page documents.
func NewLandingPageService(gdb *gorm.DB, reg *registry.Registry) *LandingPageService {
	return &LandingPageService{db: gdb, registry: reg}
}

// Registry exposes the component registry the service validates against.
func (s *LandingPageService) Registry() *registry.Registry {
	return s.registry
}

// List returns every page, most recently updated first.
func (s *LandingPageService) List(ctx context.Context) ([]db.LandingPage, error) {
	var pages []db.LandingPage
	if err := s.db.WithContext(ctx).
		Order("updated_at DESC").
		Order("id ASC").
		Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// GetBySlug fetches a single page.
func (s *LandingPageService) GetBySlug(ctx context.Context, slug string) (*db.LandingPage, error) {
	var page db.LandingPage
	if err := s.db.WithContext(ctx).Where("slug = ?", strings.TrimSpace(slug)).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLandingPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// Create validates and stores a new page.
func (s *LandingPageService) Create(ctx context.Context, input CreateLandingPageInput) (*db.LandingPage, error) {
	title := strings.TrimSpace(input.Title)
	if strings.TrimSpace(input.Slug) == "" || title == "" || isEmptyJSON(input.Data) {
		return nil, ErrMissingFields
	}

	slug, err := normalizeSlug(input.Slug)
	if err != nil {
		return nil, err
	}

	data, err := s.prepareDocument(input.Data)
	if err != nil {
		return nil, err
	}

	page := db.LandingPage{
		Slug:        slug,
		Title:       title,
		Data:        data,
		CheckoutURL: cleanCheckoutURL(input.CheckoutURL),
	}
	if err := s.db.WithContext(ctx).Create(&page).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrSlugConflict
		}
		return nil, err
	}

	return &page, nil
}

// Update applies a partial update to the page identified by slug. Data replaces the stored
// document wholesale; there is no merge and the last write wins.
func (s *LandingPageService) Update(ctx context.Context, slug string, input UpdateLandingPageInput) (*db.LandingPage, error) {
	page, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if input.Slug != nil {
		renamed, err := normalizeSlug(*input.Slug)
		if err != nil {
			return nil, err
		}
		page.Slug = renamed
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		page.Title = title
	}

	if input.Data != nil {
		if isEmptyJSON(input.Data) {
			return nil, fmt.Errorf("%w: data must not be empty", ErrInvalidDocument)
		}
		data, err := s.prepareDocument(input.Data)
		if err != nil {
			return nil, err
		}
		page.Data = data
	}

	if input.CheckoutURL != nil {
		page.CheckoutURL = cleanCheckoutURL(input.CheckoutURL)
	}

	if err := s.db.WithContext(ctx).Save(page).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrSlugConflict
		}
		return nil, err
	}

	return page, nil
}

// Delete removes the page permanently.
func (s *LandingPageService) Delete(ctx context.Context, slug string) error {
	result := s.db.WithContext(ctx).Where("slug = ?", strings.TrimSpace(slug)).Delete(&db.LandingPage{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLandingPageNotFound
	}
	return nil
}

// Document decodes a stored page's data for rendering. Missing props are filled from
// registry defaults so pages saved before a component gained a field still render.
func (s *LandingPageService) Document(page *db.LandingPage) (registry.Document, error) {
	doc, err := registry.ParseDocument(page.Data)
	if err != nil {
		return registry.Document{}, err
	}
	if s.registry == nil {
		return doc, nil
	}
	return s.registry.Normalize(doc), nil
}

func (s *LandingPageService) prepareDocument(raw json.RawMessage) (datatypes.JSON, error) {
	doc, err := registry.ParseDocument(raw)
	if err != nil {
		return nil, err
	}
	if s.registry != nil {
		if err := s.registry.Validate(doc); err != nil {
			return nil, err
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return datatypes.JSON(compact.Bytes()), nil
}

func normalizeSlug(value string) (string, error) {
	slug := FormatSlug(value)
	if err := ValidateSlug(slug); err != nil {
		return "", err
	}
	return slug, nil
}

func cleanCheckoutURL(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
