package repo

import (
	"context"

	"gorm.io/gorm"
)

// demoStock lists the catalog loaded by SeedDemo: title name to the
// conditions of its copies.
var demoStock = []struct {
	Name       string
	Conditions []string
}{
	{"The Pragmatic Programmer", []string{"New", "Good"}},
	{"Structure and Interpretation of Computer Programs", []string{"Worn"}},
	{"The Go Programming Language", []string{"New", "New", "Good"}},
}

// SeedDemo loads a small demo catalog when the titles table is empty. It is
// a no-op on a populated database and reports whether anything was written.
func SeedDemo(ctx context.Context, db *gorm.DB) (bool, error) {
	n, err := CountTitles(ctx, db)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range demoStock {
			t, err := CreateTitle(ctx, tx, s.Name, "")
			if err != nil {
				return err
			}
			for _, cond := range s.Conditions {
				if _, err := CreateCopy(ctx, tx, t.ID, cond); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return err == nil, err
}
