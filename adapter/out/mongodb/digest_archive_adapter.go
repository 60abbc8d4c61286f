package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mailagent/core/domain"
	"mailagent/pkg/apperr"
)

const collectionDigests = "daily_digests"

// DigestArchiveAdapter implements out.DigestArchive using MongoDB. Each
// generated summary overwrites the previous one for its date, so the
// archive always holds the most recent view per day.
type DigestArchiveAdapter struct {
	collection *mongo.Collection
}

func NewDigestArchiveAdapter(db *mongo.Database) *DigestArchiveAdapter {
	return &DigestArchiveAdapter{collection: db.Collection(collectionDigests)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *DigestArchiveAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "generated_at", Value: -1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// digestDocument represents the MongoDB document structure.
type digestDocument struct {
	Date        string               `bson:"date"`
	GeneratedAt time.Time            `bson:"generated_at"`
	Summary     *domain.DailySummary `bson:"summary"`
}

func (a *DigestArchiveAdapter) Put(ctx context.Context, summary *domain.DailySummary) error {
	doc := digestDocument{
		Date:        summary.Date,
		GeneratedAt: summary.GeneratedAt,
		Summary:     summary,
	}

	opts := options.Replace().SetUpsert(true)
	_, err := a.collection.ReplaceOne(ctx, bson.M{"date": summary.Date}, doc, opts)
	return err
}

func (a *DigestArchiveAdapter) Get(ctx context.Context, date string) (*domain.DailySummary, error) {
	var doc digestDocument
	err := a.collection.FindOne(ctx, bson.M{"date": date}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("archived digest")
		}
		return nil, apperr.DatabaseError("load archived digest", err)
	}
	return doc.Summary, nil
}
