package repo

import (
	"context"
	"testing"

	"github.com/tbourn/go-library-circulation/internal/domain"
)

func TestSeedDemo_OnlyOnEmptyCatalog(t *testing.T) {
	db := newCirculationDB(t)
	ctx := context.Background()

	seeded, err := SeedDemo(ctx, db)
	if err != nil || !seeded {
		t.Fatalf("first SeedDemo = %v, %v; want true, nil", seeded, err)
	}
	titles, err := CountTitles(ctx, db)
	if err != nil || titles != int64(len(demoStock)) {
		t.Fatalf("titles = %d, %v; want %d", titles, err, len(demoStock))
	}

	var copies int64
	if err := db.Model(&domain.Copy{}).Where("status = ?", domain.CopyAvailable).Count(&copies).Error; err != nil {
		t.Fatalf("count copies: %v", err)
	}
	want := 0
	for _, s := range demoStock {
		want += len(s.Conditions)
	}
	if copies != int64(want) {
		t.Fatalf("available copies = %d; want %d", copies, want)
	}

	seeded, err = SeedDemo(ctx, db)
	if err != nil || seeded {
		t.Fatalf("second SeedDemo = %v, %v; want false, nil", seeded, err)
	}
}
