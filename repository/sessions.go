package repository

import (
	"context"
	"fmt"
	"time"

	"main/middleware"
	"main/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionsRepo struct {
	MongoCollection *mongo.Collection
}

func GetSessionsRepo(client *mongo.Client, dbName string) *SessionsRepo {
	return &SessionsRepo{
		MongoCollection: client.Database(dbName).Collection("sessions"),
	}
}

func (r *SessionsRepo) CreateSession(ctx context.Context, session *model.DeviceSession) error {
	timer := middleware.TrackDBOperation("insert", "sessions")
	defer timer.ObserveDuration()

	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if session.SessionID == "" || session.OwnerID == "" || session.DeviceID == "" {
		middleware.TrackError("database")
		return fmt.Errorf("invalid session data: missing required fields")
	}

	_, err := r.MongoCollection.InsertOne(ctx, session)
	if err != nil {
		middleware.TrackError("database")
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionsRepo) GetActiveSessions(ctx context.Context, ownerID string) ([]*model.DeviceSession, error) {
	timer := middleware.TrackDBOperation("find", "sessions")
	defer timer.ObserveDuration()

	cursor, err := r.MongoCollection.Find(ctx,
		bson.M{
			"owner_id":   ownerID,
			"is_active":  true,
			"expires_at": bson.M{"$gt": time.Now().UTC()},
		},
		options.Find().SetSort(bson.D{{Key: "last_activity_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.DeviceSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// TouchSession bumps last activity; stale sessions age out via expires_at.
func (r *SessionsRepo) TouchSession(ctx context.Context, sessionID string) error {
	timer := middleware.TrackDBOperation("update", "sessions")
	defer timer.ObserveDuration()

	_, err := r.MongoCollection.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"last_activity_at": time.Now().UTC()}})
	return err
}

func (r *SessionsRepo) EndSession(ctx context.Context, ownerID, sessionID string) error {
	timer := middleware.TrackDBOperation("update", "sessions")
	defer timer.ObserveDuration()

	result, err := r.MongoCollection.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "owner_id": ownerID},
		bson.M{"$set": bson.M{"is_active": false}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
