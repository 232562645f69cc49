package catalog

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/postgres"
)

// Service serves catalog reads through the cache.
type Service struct {
	repository Repository
	db         postgres.DBTX
	cache      Cache
	tracer     trace.Tracer
	log        *zap.Logger
}

func NewService(repository Repository, db postgres.DBTX, cache Cache, tracer trace.Tracer, log *zap.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{
		repository: repository,
		db:         db,
		cache:      cache,
		tracer:     tracer,
		log:        log,
	}
}

func (s *Service) ListProducts(ctx context.Context, f Filter) ([]Product, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.list_products")
	defer span.End()

	f = f.Normalize()
	if products, ok := s.cache.GetList(ctx, f); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return products, nil
	}

	products, err := s.repository.List(ctx, s.db, f)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.cache.SetList(ctx, f, products)
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.get_product")
	defer span.End()
	span.SetAttributes(attribute.Int64("product_id", id))

	if p, ok := s.cache.GetProduct(ctx, id); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return p, nil
	}

	p, err := s.repository.Get(ctx, s.db, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.cache.SetProduct(ctx, p)
	return p, nil
}

// InvalidateProduct drops cached reads of id after its stock changed. A
// failure only leaves stale data until the TTL expires, so it is logged.
func (s *Service) InvalidateProduct(ctx context.Context, id int64) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("Failed to invalidate catalog cache", zap.Int64("product_id", id), zap.Error(err))
	}
}
