package directory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/medbook/internal/platform/cache"
)

// CachedDirectory is a read-through cache in front of a Repository. The
// directory is owned elsewhere and changes rarely, so entries simply
// expire after ttl. Cache errors are logged and the store is used.
type CachedDirectory struct {
	next   Repository
	cache  cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedDirectory(next Repository, c cache.Cache, ttl time.Duration, logger zerolog.Logger) *CachedDirectory {
	return &CachedDirectory{next: next, cache: c, ttl: ttl, logger: logger}
}

func (d *CachedDirectory) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return readThrough(ctx, d, "doctor:"+id.String(), func() (*Doctor, error) {
		return d.next.GetDoctor(ctx, id)
	})
}

func (d *CachedDirectory) ListDoctors(ctx context.Context, f DoctorFilter) ([]*Doctor, error) {
	if f.Search != "" {
		return d.next.ListDoctors(ctx, f)
	}
	key := "doctors:" + f.SpecialtyID.String() + ":" + f.Title
	return readThrough(ctx, d, key, func() ([]*Doctor, error) {
		return d.next.ListDoctors(ctx, f)
	})
}

func (d *CachedDirectory) GetSpecialty(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	return readThrough(ctx, d, "specialty:"+id.String(), func() (*Specialty, error) {
		return d.next.GetSpecialty(ctx, id)
	})
}

func (d *CachedDirectory) ListSpecialties(ctx context.Context) ([]*Specialty, error) {
	return readThrough(ctx, d, "specialties", func() ([]*Specialty, error) {
		return d.next.ListSpecialties(ctx)
	})
}

// readThrough never caches errors, so a missing doctor is re-checked on
// every call.
func readThrough[T any](ctx context.Context, d *CachedDirectory, key string, load func() (T, error)) (T, error) {
	var cached T
	err := cache.GetJSON(ctx, d.cache, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		d.logger.Warn().Err(err).Str("key", key).Msg("directory cache read failed")
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if err := cache.SetJSON(ctx, d.cache, key, v, d.ttl); err != nil {
		d.logger.Warn().Err(err).Str("key", key).Msg("directory cache write failed")
	}
	return v, nil
}
