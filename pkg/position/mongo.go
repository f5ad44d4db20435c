package position

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/pipeview/pkg/cache"
	"github.com/matzehuels/pipeview/pkg/errors"
	"github.com/matzehuels/pipeview/pkg/observability"
)

// Defaults for MongoConfig.
const (
	DefaultMongoDatabase   = "pipeview"
	DefaultMongoCollection = "positions"
)

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI        string
	Database   string // Defaults to DefaultMongoDatabase
	Collection string // Defaults to DefaultMongoCollection
}

// MongoStore keeps each position map in one document keyed by layout name.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type positionDoc struct {
	Name      string            `bson:"_id"`
	Positions map[string]string `bson:"positions"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = DefaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultMongoCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "configure mongo client")
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		return cache.Retryable(client.Ping(ctx, nil))
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongo")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Load reads the document for name.
func (s *MongoStore) Load(ctx context.Context, name string) (m Map, err error) {
	start := time.Now()
	defer func() { observability.Store().OnLoad(ctx, "mongo", name, len(m), time.Since(start), err) }()

	if err := checkName(name); err != nil {
		return nil, err
	}
	var doc positionDoc
	err = s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return Map{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read positions %s", name)
	}
	if doc.Positions == nil {
		return Map{}, nil
	}
	return Map(doc.Positions), nil
}

// Save upserts the document for name.
func (s *MongoStore) Save(ctx context.Context, name string, m Map) (err error) {
	start := time.Now()
	defer func() { observability.Store().OnSave(ctx, "mongo", name, len(m), time.Since(start), err) }()

	if err := checkName(name); err != nil {
		return err
	}
	if m == nil {
		m = Map{}
	}
	doc := positionDoc{Name: name, Positions: m, UpdatedAt: time.Now().UTC()}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write positions %s", name)
	}
	return nil
}

// Delete removes the document for name.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete positions %s", name)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// String describes the store for log output.
func (s *MongoStore) String() string {
	return "mongo:" + s.coll.Database().Name() + "." + s.coll.Name()
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
