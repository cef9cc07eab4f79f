package feedback

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/BaSui01/faqflow/types"
)

// MongoStore is a Hook that archives feedback documents for offline
// analysis. The raw payload is stored alongside the parsed fields so the
// learning pipeline can always recover exactly what the user sent.
type MongoStore struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoStore connects to the given URI and uses db.collection for
// storage.
func NewMongoStore(uri, db, collection string, logger *zap.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "mongo connect failed").WithCause(err)
	}
	return &MongoStore{
		collection: client.Database(db).Collection(collection),
		logger:     logger.With(zap.String("component", "feedback_store")),
	}, nil
}

// NewMongoStoreWithCollection wraps an existing collection, mainly for
// tests.
func NewMongoStoreWithCollection(collection *mongo.Collection, logger *zap.Logger) *MongoStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoStore{
		collection: collection,
		logger:     logger.With(zap.String("component", "feedback_store")),
	}
}

func (s *MongoStore) Forward(ctx context.Context, payload []byte) error {
	var fb types.Feedback
	if err := json.Unmarshal(payload, &fb); err != nil {
		return types.NewError(types.ErrInvalidQuery, "feedback payload is not valid JSON").WithCause(err)
	}

	doc := bson.M{
		"query_id":    fb.QueryID,
		"helpful":     fb.Helpful,
		"raw":         payload,
		"received_at": time.Now().UTC(),
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return types.NewError(types.ErrInternal, "feedback insert failed").
			WithRetryable(true).WithCause(err)
	}
	return nil
}
