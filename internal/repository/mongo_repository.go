package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/domain"
)

type mongoRepository struct {
	favorites *mongo.Collection
	profiles  *mongo.Collection
}

type favoriteRow struct {
	UserID    string    `bson:"user_id"`
	ProductID int64     `bson:"product_id"`
	AddedAt   time.Time `bson:"added_at"`
}

func NewMongoRepository(db *mongo.Database) *mongoRepository {
	return &mongoRepository{
		favorites: db.Collection("favoritos"),
		profiles:  db.Collection("perfiles"),
	}
}

func (m *mongoRepository) GetFavorites(ctx context.Context, userID string) ([]int64, error) {
	filter := bson.M{"user_id": userID}
	cursor, err := m.favorites.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []int64
	for cursor.Next(ctx) {
		var row favoriteRow
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode favorite: %w", err)
		}
		ids = append(ids, row.ProductID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}
	return ids, nil
}

func (m *mongoRepository) AddFavorite(ctx context.Context, userID string, productID int64) error {
	filter := bson.M{"user_id": userID, "product_id": productID}
	update := bson.M{
		"$setOnInsert": favoriteRow{UserID: userID, ProductID: productID, AddedAt: time.Now()},
	}
	opts := options.Update().SetUpsert(true)

	// Upsert keeps the operation idempotent against retries.
	if _, err := m.favorites.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (m *mongoRepository) RemoveFavorite(ctx context.Context, userID string, productID int64) error {
	filter := bson.M{"user_id": userID, "product_id": productID}
	if _, err := m.favorites.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func (m *mongoRepository) ClearFavorites(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID}
	if _, err := m.favorites.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}
	return nil
}

func (m *mongoRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile

	filter := bson.M{"user_id": userID}
	err := m.profiles.FindOne(ctx, filter).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	favoriteIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := m.favorites.Indexes().CreateMany(ctx, favoriteIndexes); err != nil {
		return fmt.Errorf("failed to create favorite indexes: %w", err)
	}

	profileIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := m.profiles.Indexes().CreateMany(ctx, profileIndexes); err != nil {
		return fmt.Errorf("failed to create profile indexes: %w", err)
	}
	return nil
}
