package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"main/middleware"
	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrTagNotFound = errors.New("tag not found")

type TagsRepo struct {
	MongoCollection *mongo.Collection
}

func GetTagsRepo(client *mongo.Client, dbName string) *TagsRepo {
	return &TagsRepo{
		MongoCollection: client.Database(dbName).Collection("tags"),
	}
}

// UpsertTag reuses an existing row for the normalized key (undeleting it
// if needed) or creates one keeping the display casing from first use.
func (r *TagsRepo) UpsertTag(ctx context.Context, ownerID, displayName string) (*model.Tag, error) {
	timer := middleware.TrackDBOperation("upsert", "tags")
	defer timer.ObserveDuration()

	now := time.Now().UTC()
	key := model.NormalizeTag(displayName)

	filter := bson.M{"owner_id": ownerID, "normalized_key": key}
	update := bson.M{
		"$set": bson.M{"is_deleted": false, "updated_at": now},
		"$setOnInsert": bson.M{
			"_id":            utils.GenerateID(),
			"owner_id":       ownerID,
			"display_name":   strings.TrimSpace(displayName),
			"normalized_key": key,
			"created_at":     now,
		},
	}

	var tag model.Tag
	err := r.MongoCollection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)).
		Decode(&tag)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *TagsRepo) ListTags(ctx context.Context, ownerID string, includeDeleted bool) ([]*model.Tag, error) {
	timer := middleware.TrackDBOperation("find", "tags")
	defer timer.ObserveDuration()

	filter := bson.M{"owner_id": ownerID}
	if !includeDeleted {
		filter["is_deleted"] = false
	}

	cursor, err := r.MongoCollection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "normalized_key", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tags []*model.Tag
	if err = cursor.All(ctx, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *TagsRepo) GetTag(ctx context.Context, ownerID, tagID string) (*model.Tag, error) {
	timer := middleware.TrackDBOperation("find", "tags")
	defer timer.ObserveDuration()

	var tag model.Tag
	err := r.MongoCollection.FindOne(ctx, bson.M{"_id": tagID, "owner_id": ownerID}).Decode(&tag)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// MarkTagDeleted soft-deletes the row; it persists for reuse and keeps
// its display casing.
func (r *TagsRepo) MarkTagDeleted(ctx context.Context, ownerID, tagID string) error {
	timer := middleware.TrackDBOperation("update", "tags")
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.UpdateOne(ctx,
		bson.M{"_id": tagID, "owner_id": ownerID},
		bson.M{"$set": bson.M{"is_deleted": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrTagNotFound
	}
	return nil
}

// MarkKeyDeletedIfUnreferenced soft-deletes the row for a normalized key.
// Callers check the reference count first; this just flips the flag.
func (r *TagsRepo) MarkKeyDeleted(ctx context.Context, ownerID, normalizedKey string) error {
	timer := middleware.TrackDBOperation("update", "tags")
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.UpdateOne(ctx,
		bson.M{"owner_id": ownerID, "normalized_key": normalizedKey},
		bson.M{"$set": bson.M{"is_deleted": true, "updated_at": time.Now().UTC()}})
	return err
}
