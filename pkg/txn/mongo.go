package txn

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Inserter is the part of a MongoDB collection the journal needs.
// *mongo.Collection satisfies it.
type Inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// MongoConfig configures [NewMongoJournal].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoJournal appends deltas to a MongoDB collection, one document per
// delta keyed by the transaction ID.
type MongoJournal struct {
	coll   Inserter
	client *mongo.Client
}

// NewMongoJournal connects to MongoDB and verifies the connection.
func NewMongoJournal(ctx context.Context, cfg MongoConfig) (*MongoJournal, error) {
	if cfg.Database == "" {
		cfg.Database = "regionsync"
	}
	if cfg.Collection == "" {
		cfg.Collection = "deltas"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoJournal{coll: client.Database(cfg.Database).Collection(cfg.Collection), client: client}, nil
}

// NewMongoJournalFor wraps an existing collection. Close does nothing for
// such a journal.
func NewMongoJournalFor(coll Inserter) *MongoJournal {
	return &MongoJournal{coll: coll}
}

func (j *MongoJournal) Append(ctx context.Context, d Delta) error {
	if _, err := j.coll.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert delta %s: %w", d.ID, err)
	}
	return nil
}

// Close disconnects the client opened by [NewMongoJournal].
func (j *MongoJournal) Close(ctx context.Context) error {
	if j.client == nil {
		return nil
	}
	return j.client.Disconnect(ctx)
}

var _ Journal = (*MongoJournal)(nil)
