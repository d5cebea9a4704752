package application

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/dmehra2102/storefront/internal/store"
	"github.com/dmehra2102/storefront/pkg/apperr"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

var ErrNoProducts = apperr.New(apperr.KindValidation, "products_required", "Products data is required")

type Service struct {
	log    *slog.Logger
	store  store.Store
	images ImageStore
	now    func() time.Time
	newID  func() uuid.UUID
}

func NewService(log *slog.Logger, st store.Store, images ImageStore) *Service {
	return &Service{
		log:    log.With("component", "catalog"),
		store:  st,
		images: images,
		now:    time.Now,
		newID:  uuid.New,
	}
}

// ListProducts pages through the catalog. Out-of-range page and limit
// fall back to defaults; limit is capped.
func (s *Service) ListProducts(ctx context.Context, page, limit int) ([]domain.Product, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	var products []domain.Product
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		products, err = tx.Products().List(ctx, (page-1)*limit, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// InsertProducts adds products on behalf of an admin. images[i], when
// present, becomes the image of products[i]. Images are uploaded before the
// transaction and removed again if anything fails.
func (s *Service) InsertProducts(ctx context.Context, actor identity.Principal, inputs []domain.NewProductInput, images []*Image) ([]domain.Product, error) {
	if !actor.IsAdmin() {
		return nil, identity.ErrNotAdmin
	}
	if len(inputs) == 0 {
		return nil, ErrNoProducts
	}
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("product at index %d: %w", i, err)
		}
	}

	now := s.now()
	media := make([]*domain.Media, len(inputs))
	var uploaded []string
	for i := range inputs {
		if i >= len(images) || images[i] == nil {
			continue
		}
		m, err := s.upload(ctx, actor.UserID, images[i], now)
		if err != nil {
			s.cleanup(uploaded)
			return nil, apperr.Wrap(apperr.KindInternal, "image_upload", err)
		}
		uploaded = append(uploaded, m.PublicID)
		media[i] = m
	}

	products := make([]domain.Product, 0, len(inputs))
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for i, in := range inputs {
			var urls []string
			if m := media[i]; m != nil {
				if err := tx.Media().Insert(ctx, *m); err != nil {
					return err
				}
				urls = []string{m.URL}
			}
			p, err := domain.NewProduct(s.newID(), in, urls, now)
			if err != nil {
				return fmt.Errorf("product at index %d: %w", i, err)
			}
			if err := tx.Products().Insert(ctx, p); err != nil {
				return err
			}
			products = append(products, p)
		}
		return nil
	})
	if err != nil {
		s.cleanup(uploaded)
		return nil, err
	}
	s.log.Info("products inserted", "count", len(products), "images", len(uploaded), "actor", actor.UserID)
	return products, nil
}

func (s *Service) upload(ctx context.Context, actor uuid.UUID, img *Image, now time.Time) (*domain.Media, error) {
	id := s.newID()
	key := "products/" + id.String() + strings.ToLower(path.Ext(img.Filename))
	url, err := s.images.Upload(ctx, key, img.ContentType, img.Body)
	if err != nil {
		return nil, err
	}
	return &domain.Media{ID: id, URL: url, PublicID: key, UploadedBy: actor, CreatedAt: now.UTC()}, nil
}

// cleanup is best effort; orphaned objects are only logged.
func (s *Service) cleanup(keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := s.images.Delete(ctx, key); err != nil {
			s.log.Warn("orphaned product image", "key", key, "err", err)
		}
	}
}
