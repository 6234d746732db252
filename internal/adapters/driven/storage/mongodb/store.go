// Package mongodb provides MongoDB implementations of the metadata store ports.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Default connection values.
const (
	DefaultURI      = "mongodb://localhost:27017"
	DefaultDatabase = "bkp"

	documentsCollection = "documents"
	eventsCollection    = "events"
)

// Store holds one client shared by the document and usage stores.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to uri, verifies the connection and ensures indexes.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		uri = DefaultURI
	}
	if database == "" {
		database = DefaultDatabase
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(documentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "uploaded_at", Value: -1}}},
		{Keys: bson.D{{Key: "ext", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create document indexes: %w", err)
	}

	_, err = s.db.Collection(eventsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "type", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create event indexes: %w", err)
	}
	return nil
}

// DocumentStore returns a DocumentStore backed by the documents collection.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{coll: s.db.Collection(documentsCollection)}
}

// UsageStore returns a UsageStore backed by the events collection.
func (s *Store) UsageStore() driven.UsageStore {
	return &usageStore{coll: s.db.Collection(eventsCollection)}
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// documentRecord is the stored shape of a document.
type documentRecord struct {
	ID          string    `bson:"_id"`
	Filename    string    `bson:"filename"`
	Ext         string    `bson:"ext"`
	ContentType string    `bson:"content_type"`
	Size        int64     `bson:"size"`
	StoragePath string    `bson:"storage_path"`
	UploadedAt  time.Time `bson:"uploaded_at"`
	ChunkCount  int       `bson:"chunk_count"`
}

func toRecord(d *domain.Document) documentRecord {
	return documentRecord{
		ID:          d.ID,
		Filename:    d.Filename,
		Ext:         d.Ext,
		ContentType: d.ContentType,
		Size:        d.Size,
		StoragePath: d.StoragePath,
		UploadedAt:  d.UploadedAt.UTC(),
		ChunkCount:  d.ChunkCount,
	}
}

func (r documentRecord) toDomain() domain.Document {
	return domain.Document{
		ID:          r.ID,
		Filename:    r.Filename,
		Ext:         r.Ext,
		ContentType: r.ContentType,
		Size:        r.Size,
		StoragePath: r.StoragePath,
		UploadedAt:  r.UploadedAt.UTC(),
		ChunkCount:  r.ChunkCount,
	}
}

// documentStore implements driven.DocumentStore.
type documentStore struct {
	coll *mongo.Collection
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, toRecord(doc),
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var rec documentRecord
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	doc := rec.toDomain()
	return &doc, nil
}

// DeleteDocument removes a document.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDocuments returns one page of matching documents, newest first.
func (s *documentStore) ListDocuments(ctx context.Context, query domain.DocumentQuery) ([]domain.Document, int, error) {
	query = query.Normalise()
	filter := documentFilter(query)

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting documents: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "uploaded_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(query.Offset())).
		SetLimit(int64(query.Size))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("querying documents: %w", err)
	}
	var records []documentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, fmt.Errorf("decoding documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, r.toDomain())
	}
	return docs, int(total), nil
}

// documentFilter builds the query filter. Search is a literal, case-insensitive match.
func documentFilter(q domain.DocumentQuery) bson.D {
	filter := bson.D{}
	if q.Search != "" {
		filter = append(filter, bson.E{Key: "filename", Value: bson.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}})
	}
	if q.Ext != "" {
		filter = append(filter, bson.E{Key: "ext", Value: q.Ext})
	}
	if q.DateFrom != nil || q.DateTo != nil {
		rng := bson.D{}
		if q.DateFrom != nil {
			rng = append(rng, bson.E{Key: "$gte", Value: q.DateFrom.UTC()})
		}
		if q.DateTo != nil {
			rng = append(rng, bson.E{Key: "$lte", Value: q.DateTo.UTC()})
		}
		filter = append(filter, bson.E{Key: "uploaded_at", Value: rng})
	}
	return filter
}
