package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "book_positions"

type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoEntry struct {
	ID      string `bson:"_id"`
	Variant string `bson:"variant"`
	Depth   int    `bson:"depth"`
	Board   string `bson:"board"`
	Entry   `bson:",inline"`
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctxConnect, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctxConnect, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctxConnect, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(mongoCollection),
	}, nil
}

func (m *MongoStore) Lookup(ctx context.Context, key Key) (Entry, bool, error) {
	var doc mongoEntry
	err := m.collection.FindOne(ctx, bson.M{"_id": key.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return doc.Entry, true, nil
}

func (m *MongoStore) Save(ctx context.Context, key Key, entry Entry) error {
	update := bson.M{
		"$set": bson.M{
			"variant":  key.Variant,
			"depth":    key.Depth,
			"board":    key.Board,
			"position": entry.Position,
			"value":    entry.Value,
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": key.String()}, update, opts)
	return err
}

func (m *MongoStore) Close(ctx context.Context) error {
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}
