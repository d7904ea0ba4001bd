package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"main/middleware"
	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrClipNotFound = errors.New("clip not found")
	ErrClipExists   = errors.New("clip already exists")
)

// ClipListOptions filters a browsing or sync-pull query. Both orders run
// over the same (server_updated_at, _id) total order: descending for
// browsing, ascending for pull.
type ClipListOptions struct {
	OwnerID        string
	Query          string
	Tag            string
	Kind           string
	Favorite       *bool
	Cursor         *utils.Cursor
	Limit          int
	Ascending      bool
	IncludeDeleted bool
}

type ClipsRepo struct {
	MongoCollection *mongo.Collection
}

func GetClipsRepo(client *mongo.Client, dbName string) *ClipsRepo {
	return &ClipsRepo{
		MongoCollection: client.Database(dbName).Collection("clips"),
	}
}

// GetClip returns the current record, or (nil, nil) when absent so the
// merge engine can treat absence as a creation.
func (r *ClipsRepo) GetClip(ctx context.Context, ownerID, clipID string) (*model.Clip, error) {
	timer := middleware.TrackDBOperation("find", "clips")
	defer timer.ObserveDuration()

	var clip model.Clip
	err := r.MongoCollection.FindOne(ctx,
		bson.M{"_id": clipID, "owner_id": ownerID}).Decode(&clip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &clip, nil
}

// InsertClip creates the record; ErrClipExists signals a concurrent
// creation lost the race and the caller should retry on the update path.
func (r *ClipsRepo) InsertClip(ctx context.Context, clip *model.Clip) error {
	timer := middleware.TrackDBOperation("insert", "clips")
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.InsertOne(ctx, clip)
	if mongo.IsDuplicateKeyError(err) {
		return ErrClipExists
	}
	return err
}

// ReplaceClipIf is the compare-and-swap of the merge engine's accept
// path: the replacement only lands while the stored client_updated_at is
// still at or below maxClientTime AND server_updated_at is still exactly
// what the caller observed when it read the record. Pinning the server
// time keeps server_updated_at non-decreasing even between two accepted
// writes with equal client timestamps: a writer on a stale read fails
// the swap and goes around the merge loop instead of committing a sync
// ordering key computed off its old snapshot. A false return means a
// concurrent write got there first.
func (r *ClipsRepo) ReplaceClipIf(ctx context.Context, clip *model.Clip, maxClientTime, observedServerTime time.Time) (bool, error) {
	timer := middleware.TrackDBOperation("replace", "clips")
	defer timer.ObserveDuration()

	filter := bson.M{
		"_id":               clip.ID,
		"owner_id":          clip.OwnerID,
		"client_updated_at": bson.M{"$lte": primitive.NewDateTimeFromTime(maxClientTime)},
		"server_updated_at": primitive.NewDateTimeFromTime(observedServerTime),
	}
	result, err := r.MongoCollection.ReplaceOne(ctx, filter, clip)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// ListClips pages through the owner's records in (server_updated_at, _id)
// order resuming from the cursor.
func (r *ClipsRepo) ListClips(ctx context.Context, opts ClipListOptions) ([]*model.Clip, error) {
	timer := middleware.TrackDBOperation("find", "clips")
	defer timer.ObserveDuration()

	conds := bson.A{bson.M{"owner_id": opts.OwnerID}}
	if !opts.IncludeDeleted {
		conds = append(conds, bson.M{"is_deleted": false})
	}
	if opts.Favorite != nil {
		conds = append(conds, bson.M{"is_favorite": *opts.Favorite})
	}
	if opts.Tag != "" {
		conds = append(conds, bson.M{"tags": opts.Tag})
	}
	if opts.Kind != "" {
		conds = append(conds, bson.M{"kind": opts.Kind})
	}
	if opts.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(opts.Query), Options: "i"}
		conds = append(conds, bson.M{"$or": bson.A{
			bson.M{"summary": pattern},
			bson.M{"content": pattern},
		}})
	}

	order := -1
	cmp := "$lt"
	if opts.Ascending {
		order = 1
		cmp = "$gt"
	}
	if opts.Cursor != nil {
		at := primitive.NewDateTimeFromTime(opts.Cursor.ServerUpdatedAt)
		conds = append(conds, bson.M{"$or": bson.A{
			bson.M{"server_updated_at": bson.M{cmp: at}},
			bson.M{"server_updated_at": at, "_id": bson.M{cmp: opts.Cursor.ID}},
		}})
	}
	filter := bson.M{"$and": conds}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "server_updated_at", Value: order}, {Key: "_id", Value: order}}).
		SetCollation(&options.Collation{Locale: "en", Strength: 2})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := r.MongoCollection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var clips []*model.Clip
	if err = cursor.All(ctx, &clips); err != nil {
		return nil, err
	}
	return clips, nil
}

// CountClipsWithTag reports how many live records still reference a tag,
// matched case-insensitively.
func (r *ClipsRepo) CountClipsWithTag(ctx context.Context, ownerID, tagName string) (int64, error) {
	timer := middleware.TrackDBOperation("count", "clips")
	defer timer.ObserveDuration()

	return r.MongoCollection.CountDocuments(ctx,
		bson.M{"owner_id": ownerID, "is_deleted": false, "tags": tagName},
		options.Count().SetCollation(&options.Collation{Locale: "en", Strength: 2}))
}
