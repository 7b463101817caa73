package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nexusintel/nexus/internal/types"
)

// MongoStore archives record sets in a MongoDB collection, one
// document per product with the originating query attached. Unlike the
// file cache it never expires entries, so it accumulates a history of
// scrapes for offline analysis.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(uri, database, collection string, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_store"),
	}, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

func (s *MongoStore) Archive(query string, records []types.ProductRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]any, len(records))
	for i, rec := range records {
		doc := map[string]any{
			"query":      query,
			"query_key":  types.QueryKey(query),
			"title":      rec.Title,
			"price":      rec.Price,
			"rating":     rec.Rating,
			"url":        rec.URL,
			"platform":   rec.Platform,
			"scraped_at": rec.ScrapedAt,
		}
		if in := rec.Insight; in != nil {
			doc["ai_insight"] = map[string]any{
				"category":         in.Category,
				"target_audience":  in.TargetAudience,
				"implied_features": in.ImpliedFeatures,
				"value_prop":       in.ValueProp,
			}
		}
		docs[i] = doc
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return &types.StorageError{Backend: "mongodb", Err: err}
	}

	s.count += len(records)
	s.logger.Debug("records archived", "count", len(records), "total", s.count)
	return nil
}

func (s *MongoStore) Close() error {
	s.logger.Info("mongodb store closing", "total_records", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
