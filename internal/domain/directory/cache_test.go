package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medbook/medbook/internal/platform/cache"
	"github.com/medbook/medbook/internal/platform/db"
)

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("redis down")
}
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis down")
}
func (brokenCache) Delete(context.Context, string) error { return nil }

func TestCachedDirectory_GetDoctorHitsStoreOnce(t *testing.T) {
	repo := newMockRepo()
	sp := repo.addSpecialty("Cardiology")
	d := repo.addDoctor("Dr. Cached", "TS", sp.ID)
	cd := NewCachedDirectory(repo, cache.NewLRU(16, time.Minute), time.Minute, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := cd.GetDoctor(ctx, d.ID)
		if err != nil {
			t.Fatalf("GetDoctor: %v", err)
		}
		if got.FullName != "Dr. Cached" || got.SpecialtyID != sp.ID {
			t.Errorf("unexpected doctor %+v", got)
		}
	}
	if repo.callCount() != 1 {
		t.Errorf("expected 1 store call, got %d", repo.callCount())
	}
}

func TestCachedDirectory_DoesNotCacheMisses(t *testing.T) {
	repo := newMockRepo()
	cd := NewCachedDirectory(repo, cache.NewLRU(16, time.Minute), time.Minute, zerolog.Nop())
	id := uuid.New()

	for i := 0; i < 2; i++ {
		if _, err := cd.GetDoctor(context.Background(), id); !errors.Is(err, db.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if repo.callCount() != 2 {
		t.Errorf("expected misses to reach the store each time, got %d calls", repo.callCount())
	}
}

func TestCachedDirectory_ListKeysByFilter(t *testing.T) {
	repo := newMockRepo()
	sp := repo.addSpecialty("Cardiology")
	repo.addDoctor("Dr. A", "TS", sp.ID)
	repo.addDoctor("Dr. B", "BS", sp.ID)
	cd := NewCachedDirectory(repo, cache.NewLRU(16, time.Minute), time.Minute, zerolog.Nop())
	ctx := context.Background()

	all, _ := cd.ListDoctors(ctx, DoctorFilter{SpecialtyID: sp.ID})
	ts, _ := cd.ListDoctors(ctx, DoctorFilter{SpecialtyID: sp.ID, Title: "TS"})
	if len(all) != 2 || len(ts) != 1 {
		t.Fatalf("expected 2 and 1 doctors, got %d and %d", len(all), len(ts))
	}

	_, _ = cd.ListDoctors(ctx, DoctorFilter{SpecialtyID: sp.ID})
	if repo.callCount() != 2 {
		t.Errorf("expected repeated list to be cached, got %d store calls", repo.callCount())
	}

	_, _ = cd.ListDoctors(ctx, DoctorFilter{Search: "dr"})
	_, _ = cd.ListDoctors(ctx, DoctorFilter{Search: "dr"})
	if repo.callCount() != 4 {
		t.Errorf("expected search to bypass cache, got %d store calls", repo.callCount())
	}
}

func TestCachedDirectory_FallsBackWhenCacheFails(t *testing.T) {
	repo := newMockRepo()
	sp := repo.addSpecialty("Dermatology")
	cd := NewCachedDirectory(repo, brokenCache{}, time.Minute, zerolog.Nop())

	got, err := cd.GetSpecialty(context.Background(), sp.ID)
	if err != nil {
		t.Fatalf("expected store fallback, got %v", err)
	}
	if got.Name != "Dermatology" {
		t.Errorf("unexpected specialty %+v", got)
	}

	list, err := cd.ListSpecialties(context.Background())
	if err != nil || len(list) != 1 {
		t.Errorf("expected 1 specialty, got %d (%v)", len(list), err)
	}
}
