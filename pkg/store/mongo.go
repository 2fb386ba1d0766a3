package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/matzehuels/mangalayout/pkg/cache"
	"github.com/matzehuels/mangalayout/pkg/errors"
	pageio "github.com/matzehuels/mangalayout/pkg/io"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// PagesCollection is the collection page documents live in.
const PagesCollection = "pages"

// MongoStore keeps one document per page with the name as _id. The
// database is taken from the URL path, defaulting to the store prefix.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *log.Logger
}

// pageDoc is the stored document. Record holds the JSON page record so the
// document round-trips exactly; the other fields are for querying.
type pageDoc struct {
	Name      string    `bson:"_id"`
	NumPanels int       `bson:"num_panels"`
	PageType  string    `bson:"page_type"`
	Record    string    `bson:"record"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore connects to rawURL and pings the primary, retrying
// transient network failures.
func NewMongoStore(ctx context.Context, rawURL, prefix string, logger *log.Logger) (*MongoStore, error) {
	if logger == nil {
		logger = log.Default()
	}
	cs, err := connstring.ParseAndValidate(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "mongodb url")
	}
	db := cs.Database
	if db == "" {
		db = prefix
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(rawURL))
	if err != nil {
		return nil, storeErr(err, "connect to mongodb")
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		return mongoRetryable(client.Ping(ctx, readpref.Primary()))
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, storeErr(err, "ping mongodb")
	}
	logger.Debug("connected to mongodb", "database", db)
	return &MongoStore{
		client: client,
		coll:   client.Database(db).Collection(PagesCollection),
		logger: logger,
	}, nil
}

func (s *MongoStore) Put(ctx context.Context, pg *panel.Page) (err error) {
	start := time.Now()
	name := pg.Name()
	var data []byte
	defer func() { reportPut(ctx, "mongo", name, len(data), start, err) }()

	if err := validName(name); err != nil {
		return err
	}
	if data, err = pageio.Marshal(pg); err != nil {
		return err
	}
	doc := pageDoc{
		Name:      name,
		NumPanels: pg.NumPanels,
		PageType:  string(pg.Type),
		Record:    string(data),
		UpdatedAt: time.Now().UTC(),
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
		return mongoRetryable(err)
	})
	if err != nil {
		return storeErr(err, "put page %s", name)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, name string) (pg *panel.Page, err error) {
	start := time.Now()
	defer func() { reportGet(ctx, "mongo", name, start, err) }()

	if err := validName(name); err != nil {
		return nil, err
	}
	var doc pageDoc
	err = cache.RetryWithBackoff(ctx, func() error {
		return mongoRetryable(s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc))
	})
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, storeErr(err, "get page %s", name)
	}
	return pageio.Unmarshal([]byte(doc.Record))
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeErr(err, "list pages")
	}
	var docs []struct {
		Name string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr(err, "list pages")
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return names, nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return storeErr(err, "delete page %s", name)
	}
	return nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func mongoRetryable(err error) error {
	if err != nil && (mongo.IsNetworkError(err) || mongo.IsTimeout(err)) {
		return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	return err
}

var _ Store = (*MongoStore)(nil)
