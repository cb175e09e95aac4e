// internal/seed/seed.go
package seed

import (
	"context"
	"fmt"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/config"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/logging"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/service"
	"github.com/sirupsen/logrus"
)

var log = logging.Component("Seed")

// SuperAdminStore upserts a SuperAdmin by email.
type SuperAdminStore interface {
	EnsureSuperAdmin(ctx context.Context, user *repository.User) (inserted bool, err error)
}

// EnsureSuperAdmins creates or promotes every configured SuperAdmin. Existing
// accounts keep their id and are given the SuperAdmin role and a new password.
func EnsureSuperAdmins(ctx context.Context, store SuperAdminStore, seeds []config.SuperAdminSeed) (int, error) {
	if len(seeds) == 0 {
		log.Info("[Seed] No SuperAdmin accounts configured, skipping...")
		return 0, nil
	}

	created := 0
	for _, s := range seeds {
		email := service.NormalizeEmail(s.Email)
		if err := service.ValidateName(s.Name); err != nil {
			return created, fmt.Errorf("superadmin %s: %w", email, err)
		}
		hashed, err := service.HashPassword(s.Password)
		if err != nil {
			return created, fmt.Errorf("superadmin %s: %w", email, err)
		}

		user := &repository.User{Name: s.Name, Email: email, Password: hashed}
		inserted, err := store.EnsureSuperAdmin(ctx, user)
		if err != nil {
			return created, fmt.Errorf("superadmin %s: %w", email, err)
		}

		entry := log.WithFields(logrus.Fields{"email": email, "user_id": user.ID})
		if inserted {
			created++
			entry.Info("[Seed] 🌱 SuperAdmin created")
		} else {
			entry.Info("[Seed] ✅ SuperAdmin updated")
		}
	}
	return created, nil
}
