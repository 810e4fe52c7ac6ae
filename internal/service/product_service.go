package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/audit"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/cache"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/internal/repository"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/storage"
)

// ProductOptions tunes caching and downloads.
type ProductOptions struct {
	CacheTTL       time.Duration
	DownloadURLTTL time.Duration
}

// productServiceImpl implements ProductService interface.
type productServiceImpl struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	orders   repository.OrderRepository
	cache    cache.ProductCache // nil disables caching
	storage  storage.Storage    // nil disables release files
	notifier ProductNotifier
	opts     ProductOptions
	loads    singleflight.Group
}

// NewProductService creates a new product service.
func NewProductService(
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
	orders repository.OrderRepository,
	productCache cache.ProductCache,
	store storage.Storage,
	notifier ProductNotifier,
	opts ProductOptions,
) ProductService {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.DownloadURLTTL <= 0 {
		opts.DownloadURLTTL = 15 * time.Minute
	}
	return &productServiceImpl{
		products: products,
		reviews:  reviews,
		orders:   orders,
		cache:    productCache,
		storage:  store,
		notifier: notifier,
		opts:     opts,
	}
}

// CreateProduct inserts a listing and broadcasts it with the seller name joined.
func (s *productServiceImpl) CreateProduct(ctx context.Context, sellerID int64, req *domain.CreateProductRequest) (*domain.Product, error) {
	l := log.Ctx(ctx)

	product := &domain.Product{
		SellerID:      sellerID,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Price:         req.Price,
		Category:      strings.TrimSpace(req.Category),
		Version:       req.Version,
		Screenshots:   []string(req.Screenshots),
		ContactNumber: req.ContactNumber,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	created, err := s.products.GetByID(ctx, product.ID)
	if err != nil {
		l.Error().Err(err).Int64(log.FieldProductID, product.ID).Msg("failed to reload created product")
		return nil, err
	}

	audit.Record(ctx, audit.ActionCreateProduct, sellerID).Target(created.ID).Msg("product created")

	if s.notifier != nil {
		if err := s.notifier.NotifyNewProduct(ctx, created); err != nil {
			l.Warn().Err(err).Int64(log.FieldProductID, created.ID).Msg("failed to announce new product")
		}
	}

	return created, nil
}

// GetProduct returns a product with its reviews, read through the cache.
func (s *productServiceImpl) GetProduct(ctx context.Context, productID int64) (*domain.ProductDetail, error) {
	l := log.Ctx(ctx)

	var key string
	if s.cache != nil {
		key = s.cache.BuildKeyByID(productID)
		detail, err := s.cache.Get(ctx, key)
		if err == nil {
			return detail, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn().Err(err).Str("key", key).Msg("product cache read failed")
		}
	}

	// Concurrent misses for one product share a single load.
	v, err, _ := s.loads.Do(strconv.FormatInt(productID, 10), func() (any, error) {
		detail, err := s.loadDetail(ctx, productID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, detail, s.opts.CacheTTL); err != nil {
				l.Warn().Err(err).Str("key", key).Msg("product cache write failed")
			}
		}
		return detail, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ProductDetail), nil
}

func (s *productServiceImpl) loadDetail(ctx context.Context, productID int64) (*domain.ProductDetail, error) {
	var (
		product *domain.Product
		reviews []domain.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.products.GetByID(gctx, productID)
		product = p
		return err
	})
	g.Go(func() error {
		r, err := s.reviews.ListByProduct(gctx, productID)
		reviews = r
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &domain.ProductDetail{Product: *product, Reviews: reviews}, nil
}

// ListProducts lists active products, newest first.
func (s *productServiceImpl) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.products.List(ctx, filter)
}

// RecordView counts a product page view. Cached details catch up on expiry.
func (s *productServiceImpl) RecordView(ctx context.Context, productID int64) error {
	return mapProductErr(s.products.IncrementViews(ctx, productID))
}

// RecordClick counts a click through to the seller.
func (s *productServiceImpl) RecordClick(ctx context.Context, productID int64) error {
	return mapProductErr(s.products.IncrementClicks(ctx, productID))
}

// CreateReview stores a review and drops the cached detail page.
func (s *productServiceImpl) CreateReview(ctx context.Context, userID, productID int64, req *domain.CreateReviewRequest) (*domain.Review, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, mapProductErr(err)
	}

	review := &domain.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	s.invalidate(ctx, productID)
	audit.Record(ctx, audit.ActionReview, userID).Target(productID).Msg("review created")
	return review, nil
}

// UploadRelease stores the release artifact for a seller's product.
func (s *productServiceImpl) UploadRelease(ctx context.Context, sellerID, productID int64, filename string, r io.Reader, size int64, contentType string) (*domain.Product, error) {
	ctx = log.WithProduct(ctx, productID)
	l := log.Ctx(ctx)

	if s.storage == nil {
		return nil, fmt.Errorf("release storage is not configured")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, mapProductErr(err)
	}
	if product.SellerID != sellerID {
		return nil, ErrNotProductOwner
	}

	key := releaseKey(productID, filename)
	if err := s.storage.Write(ctx, key, r, size, contentType); err != nil {
		l.Error().Err(err).Str(log.FieldStorageKey, key).Msg("failed to store release")
		return nil, err
	}

	if err := s.products.UpdateFileURL(ctx, productID, key); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			l.Warn().Err(delErr).Str(log.FieldStorageKey, key).Msg("failed to remove orphaned release")
		}
		return nil, mapProductErr(err)
	}

	if product.FileURL != "" && product.FileURL != key {
		if err := s.storage.Delete(ctx, product.FileURL); err != nil {
			l.Warn().Err(err).Str(log.FieldStorageKey, product.FileURL).Msg("failed to remove previous release")
		}
	}

	s.invalidate(ctx, productID)
	audit.Record(ctx, audit.ActionUploadRelease, sellerID).Target(productID).Msg("release uploaded")

	product.FileURL = key
	return product, nil
}

// Download resolves the release artifact for an owner or a buyer.
func (s *productServiceImpl) Download(ctx context.Context, userID, productID int64) (*domain.Download, error) {
	if s.storage == nil {
		return nil, ErrNoRelease
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, mapProductErr(err)
	}
	if product.FileURL == "" {
		return nil, ErrNoRelease
	}

	if product.SellerID != userID {
		ok, err := s.orders.HasPurchased(ctx, userID, productID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotPurchased
		}
	}

	audit.Record(ctx, audit.ActionDownload, userID).Target(productID).Msg("release downloaded")

	dl := &domain.Download{Filename: releaseFilename(product.FileURL)}

	url, err := s.storage.GetURL(ctx, product.FileURL, s.opts.DownloadURLTTL)
	if err == nil {
		dl.URL = url
		return dl, nil
	}
	if !errors.Is(err, storage.ErrURLNotSupported) {
		return nil, err
	}

	body, err := s.storage.Read(ctx, product.FileURL)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoRelease
		}
		return nil, err
	}
	dl.Body = body
	dl.ContentType = "application/octet-stream"
	return dl, nil
}

// SellerStats merges catalogue and sales totals, queried concurrently.
func (s *productServiceImpl) SellerStats(ctx context.Context, sellerID int64) (*domain.SellerStats, error) {
	var catalogue, sales *domain.SellerStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := s.products.CatalogueStats(gctx, sellerID)
		catalogue = st
		return err
	})
	g.Go(func() error {
		st, err := s.orders.SalesStats(gctx, sellerID)
		sales = st
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.SellerStats{
		TotalProducts: catalogue.TotalProducts,
		TotalSales:    sales.TotalSales,
		TotalRevenue:  sales.TotalRevenue,
		TotalViews:    catalogue.TotalViews,
		TotalClicks:   catalogue.TotalClicks,
	}, nil
}

func (s *productServiceImpl) invalidate(ctx context.Context, productID int64) {
	if s.cache == nil {
		return
	}
	key := s.cache.BuildKeyByID(productID)
	if err := s.cache.Delete(ctx, key); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("key", key).Msg("product cache invalidation failed")
	}
}

func mapProductErr(err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return ErrProductNotFound
	}
	return err
}

// releaseKey builds "products/<id>/<uuid>-<name>".
func releaseKey(productID int64, filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == "/" || strings.Trim(name, "._") == "" {
		name = "release.bin"
	}
	return fmt.Sprintf("products/%d/%s-%s", productID, uuid.New().String(), name)
}

// releaseFilename strips the directory and uuid prefix from a release key.
func releaseFilename(key string) string {
	base := path.Base(key)
	if len(base) > 37 && base[36] == '-' {
		if _, err := uuid.Parse(base[:36]); err == nil {
			return base[37:]
		}
	}
	return base
}
