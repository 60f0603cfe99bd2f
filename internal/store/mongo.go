package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fibersift/fibersift/internal/catalog"
)

// Mongo is the production Catalog backend.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
	now        func() time.Time
}

// NewMongo connects to MongoDB and returns a catalog over the given
// collection. The connection is verified with a ping before use.
func NewMongo(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &StoreError{Op: "connect", Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, &StoreError{Op: "ping", Err: err}
	}

	return &Mongo{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_catalog"),
		now:        time.Now,
	}, nil
}

// UpsertBatch writes each product with an update-or-insert keyed by URL.
// created_at lives only in $setOnInsert, so re-ingesting a product never
// rewrites its first-seen timestamp.
func (m *Mongo) UpsertBatch(ctx context.Context, products []catalog.Product) error {
	now := m.now().UTC()

	for _, p := range products {
		if p.URL == "" {
			m.logger.Warn("skipping product without url", "name", p.Name)
			continue
		}

		update := bson.M{
			"$set":         productDoc(p, now),
			"$setOnInsert": bson.M{"created_at": now},
		}
		opts := options.Update().SetUpsert(true)
		if _, err := m.collection.UpdateOne(ctx, bson.M{"url": p.URL}, update, opts); err != nil {
			return &StoreError{Op: "upsert", Err: fmt.Errorf("product %s: %w", p.URL, err)}
		}
	}

	m.logger.Debug("batch upserted", "count", len(products))
	return nil
}

// productDoc builds the $set document with every field spelled out, so a
// rescrape replaces the stored record wholesale: a field the new scrape
// could not extract must clear the stale value, not keep it. created_at is
// deliberately absent; it lives only in $setOnInsert.
func productDoc(p catalog.Product, now time.Time) bson.M {
	return bson.M{
		"url":                 p.URL,
		"product_id":          p.ProductID,
		"name":                p.Name,
		"brand":               p.Brand,
		"price":               p.Price,
		"currency":            p.Currency,
		"image":               p.Image,
		"images":              p.Images,
		"sizes_available":     p.SizesAvailable,
		"color":               p.Color,
		"category":            p.Category,
		"gender":              p.Gender,
		"composition_raw":     p.CompositionRaw,
		"composition_parsed":  p.CompositionParsed,
		"cotton_percentage":   p.CottonPercentage,
		"is_cotton_qualified": p.IsCottonQualified,
		"is_curated":          p.IsCurated,
		"updated_at":          now,
	}
}

// Query runs the filter server-side sorted by price, then applies the
// shared renormalization pass.
func (m *Mongo) Query(ctx context.Context, f Filter) ([]catalog.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "price", Value: 1}})
	cursor, err := m.collection.Find(ctx, buildMongoFilter(f), opts)
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}
	defer cursor.Close(ctx)

	var products []catalog.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, &StoreError{Op: "decode", Err: err}
	}
	return finalize(products, f), nil
}

// ListCategories returns the distinct stored categories, normalized and
// deduplicated.
func (m *Mongo) ListCategories(ctx context.Context) ([]string, error) {
	values, err := m.collection.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, &StoreError{Op: "distinct", Err: err}
	}

	raw := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			raw = append(raw, s)
		}
	}
	return normalizeCategories(raw), nil
}

func (m *Mongo) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
