package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CateringDbName = "chaicharoen"
	PackageColName = "menu_packages"
)

// MenuPackage is a banquet set sold per table, e.g. the 1800, 2000 or 3500
// baht sets. MaxSelect is how many menu items a customer picks for free;
// every item beyond that costs ExtraMenuPrice per table.
type MenuPackage struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name" validate:"required"`
	Price          Money              `bson:"price" json:"price"`
	Menus          []string           `bson:"menus" json:"menus"`
	MaxSelect      int                `bson:"max_select" json:"max_select"`
	ExtraMenuPrice Money              `bson:"extra_menu_price" json:"extra_menu_price"`
	CreatedAt      time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt      time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

func (p *MenuPackage) BeforeCreate() error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.MaxSelect == 0 {
		p.MaxSelect = 8
	}
	if p.ExtraMenuPrice.IsZero() {
		p.ExtraMenuPrice = MoneyFromBaht(200)
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("%w: package price must be positive", ErrInvalidArgument)
	}
	if p.MaxSelect < 0 {
		return fmt.Errorf("%w: max_select must not be negative", ErrInvalidArgument)
	}
	return nil
}

// Snapshot freezes the package fields a booking needs at creation time.
func (p *MenuPackage) Snapshot() PackageSnapshot {
	return PackageSnapshot{
		PackageID:      p.ID,
		Name:           p.Name,
		PricePerTable:  p.Price,
		MaxSelect:      p.MaxSelect,
		ExtraMenuPrice: p.ExtraMenuPrice,
	}
}

// PackageRepo is the read/write catalog boundary. The booking core only
// ever calls GetPackageByID; the rest serves the admin catalog surface.
type PackageRepo interface {
	GetPackageByID(ctx context.Context, id primitive.ObjectID) (*MenuPackage, error)
	GetPackageByPrice(ctx context.Context, price Money) (*MenuPackage, error)
	ListPackages(ctx context.Context) ([]*MenuPackage, error)
	CreatePackage(ctx context.Context, pkg *MenuPackage) (*MenuPackage, error)
	UpdatePackage(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*MenuPackage, error)
	DeletePackage(ctx context.Context, id primitive.ObjectID) error
}

func (mdb *MongodbRepo) GetPackageByID(ctx context.Context, id primitive.ObjectID) (*MenuPackage, error) {
	col, err := mdb.GetCollection(ctx, CateringDbName, PackageColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var pkg MenuPackage
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&pkg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: menu package %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error finding menu package: %v", err)
	}
	return &pkg, nil
}

func (mdb *MongodbRepo) GetPackageByPrice(ctx context.Context, price Money) (*MenuPackage, error) {
	col, err := mdb.GetCollection(ctx, CateringDbName, PackageColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var pkg MenuPackage
	err = col.FindOne(ctx, bson.M{"price": price}).Decode(&pkg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: menu package priced %s", ErrNotFound, price)
	}
	if err != nil {
		return nil, fmt.Errorf("error finding menu package by price: %v", err)
	}
	return &pkg, nil
}

func (mdb *MongodbRepo) ListPackages(ctx context.Context) ([]*MenuPackage, error) {
	col, err := mdb.GetCollection(ctx, CateringDbName, PackageColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	cursor, err := col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing menu packages: %v", err)
	}
	defer cursor.Close(ctx)

	var packages []*MenuPackage
	for cursor.Next(ctx) {
		var pkg MenuPackage
		if err := cursor.Decode(&pkg); err != nil {
			return nil, fmt.Errorf("error decoding menu package: %v", err)
		}
		packages = append(packages, &pkg)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}
	return packages, nil
}

func (mdb *MongodbRepo) CreatePackage(ctx context.Context, pkg *MenuPackage) (*MenuPackage, error) {
	if err := pkg.BeforeCreate(); err != nil {
		return nil, err
	}
	col, err := mdb.GetCollection(ctx, CateringDbName, PackageColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	now := time.Now()
	pkg.CreatedAt = now
	pkg.UpdatedAt = now

	if _, err := col.InsertOne(ctx, pkg); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: a package with price %s already exists", ErrInvalidArgument, pkg.Price)
		}
		return nil, fmt.Errorf("error inserting menu package: %v", err)
	}
	return pkg, nil
}

func (mdb *MongodbRepo) UpdatePackage(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*MenuPackage, error) {
	col, err := mdb.GetCollection(ctx, CateringDbName, PackageColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	update["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var pkg MenuPackage
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": update}, opts).Decode(&pkg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: menu package %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error updating menu package: %v", err)
	}
	return &pkg, nil
}

func (mdb *MongodbRepo) DeletePackage(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, CateringDbName, PackageColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting menu package: %v", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: menu package %s", ErrNotFound, id.Hex())
	}
	return nil
}
