package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection name of the ledger trail
const Collection = "ledger_events"

// MongoRecorder stores events in a MongoDB collection
type MongoRecorder struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// Connect opens a MongoDB client and returns a recorder on database db
func Connect(ctx context.Context, uri, db string) (*mongo.Client, *MongoRecorder, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return client, NewMongoRecorder(client.Database(db).Collection(Collection)), nil
}

// NewMongoRecorder wraps an existing collection
func NewMongoRecorder(coll *mongo.Collection) *MongoRecorder {
	return &MongoRecorder{coll: coll, timeout: 5 * time.Second}
}

func (r *MongoRecorder) Record(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	// The trail outlives the request that produced it
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, e); err != nil {
		logrus.WithFields(logrus.Fields{
			"kind":      e.Kind,
			"user_id":   e.UserID,
			"entity_id": e.EntityID,
			"error":     err.Error(),
		}).Error("Failed to record audit event")
	}
}

func (r *MongoRecorder) Recent(ctx context.Context, userID *uint, limit int64) ([]Event, error) {
	filter := bson.M{}
	if userID != nil {
		filter["user_id"] = *userID
	}
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
