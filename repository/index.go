package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func SetupIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clipsCollection := db.Collection("clips")
	tagsCollection := db.Collection("tags")
	sessionsCollection := db.Collection("sessions")

	clipIndexes := []mongo.IndexModel{
		// Pagination/sync ordering key
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "server_updated_at", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().
				SetName("owner_sync_order"),
		},
		// Browsing filters
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "is_deleted", Value: 1},
				{Key: "is_favorite", Value: 1},
			},
			Options: options.Index().
				SetName("owner_list_filters"),
		},
		// Tag filter, case-insensitive
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "tags", Value: 1},
			},
			Options: options.Index().
				SetName("owner_tags").
				SetCollation(&options.Collation{Locale: "en", Strength: 2}),
		},
	}

	tagIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "normalized_key", Value: 1},
			},
			Options: options.Index().
				SetName("owner_tag_key").
				SetUnique(true),
		},
	}

	sessionIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().
				SetName("session_id_index").
				SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "is_active", Value: 1},
			},
			Options: options.Index().
				SetName("owner_active_sessions"),
		},
		// Expired sessions age out on their own
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("session_expiry").
				SetExpireAfterSeconds(0),
		},
	}

	if _, err := clipsCollection.Indexes().CreateMany(ctx, clipIndexes); err != nil {
		return fmt.Errorf("failed to create clip indexes: %w", err)
	}
	if _, err := tagsCollection.Indexes().CreateMany(ctx, tagIndexes); err != nil {
		return fmt.Errorf("failed to create tag indexes: %w", err)
	}
	if _, err := sessionsCollection.Indexes().CreateMany(ctx, sessionIndexes); err != nil {
		return fmt.Errorf("failed to create session indexes: %w", err)
	}

	log.Println("MongoDB indexes created")
	return nil
}
