package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Phoomss/ChaiCharoen-Catering/internal/models"
)

// PackageService is the catalog surface: customers browse packages, admins
// maintain them. The booking core consumes the same repo read-only.
type PackageService struct {
	packageRepo models.PackageRepo
}

func NewPackageService(packageRepo models.PackageRepo) *PackageService {
	return &PackageService{
		packageRepo: packageRepo,
	}
}

func (ps *PackageService) GetPackage(ctx context.Context, id primitive.ObjectID) (*models.MenuPackage, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: invalid package ID", models.ErrInvalidArgument)
	}
	return ps.packageRepo.GetPackageByID(ctx, id)
}

func (ps *PackageService) ListPackages(ctx context.Context) ([]*models.MenuPackage, error) {
	return ps.packageRepo.ListPackages(ctx)
}

func (ps *PackageService) CreatePackage(ctx context.Context, pkg *models.MenuPackage) (*models.MenuPackage, error) {
	if err := models.Validate.Struct(pkg); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidArgument, err)
	}
	return ps.packageRepo.CreatePackage(ctx, pkg)
}

// PackageUpdate carries the catalog fields an admin may change. Nil fields
// are left untouched; nothing outside this set ever reaches the store.
type PackageUpdate struct {
	Name           *string
	Price          *models.Money
	Menus          *[]string
	MaxSelect      *int
	ExtraMenuPrice *models.Money
}

func (ps *PackageService) UpdatePackage(ctx context.Context, id primitive.ObjectID, upd PackageUpdate) (*models.MenuPackage, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: invalid package ID", models.ErrInvalidArgument)
	}

	update := map[string]interface{}{}
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, fmt.Errorf("%w: package name cannot be empty", models.ErrInvalidArgument)
		}
		update["name"] = *upd.Name
	}
	if upd.Price != nil {
		if !upd.Price.IsPositive() {
			return nil, fmt.Errorf("%w: package price must be positive", models.ErrInvalidArgument)
		}
		update["price"] = *upd.Price
	}
	if upd.Menus != nil {
		update["menus"] = *upd.Menus
	}
	if upd.MaxSelect != nil {
		if *upd.MaxSelect < 0 {
			return nil, fmt.Errorf("%w: max_select must not be negative", models.ErrInvalidArgument)
		}
		update["max_select"] = *upd.MaxSelect
	}
	if upd.ExtraMenuPrice != nil {
		if upd.ExtraMenuPrice.IsNegative() {
			return nil, fmt.Errorf("%w: extra menu price must not be negative", models.ErrInvalidArgument)
		}
		update["extra_menu_price"] = *upd.ExtraMenuPrice
	}
	if len(update) == 0 {
		return nil, fmt.Errorf("%w: update payload cannot be empty", models.ErrInvalidArgument)
	}

	// Snapshot fields inside existing bookings are untouched by catalog
	// edits; only future bookings see the new values.
	return ps.packageRepo.UpdatePackage(ctx, id, update)
}

func (ps *PackageService) DeletePackage(ctx context.Context, id primitive.ObjectID) error {
	if id.IsZero() {
		return fmt.Errorf("%w: invalid package ID", models.ErrInvalidArgument)
	}
	return ps.packageRepo.DeletePackage(ctx, id)
}
