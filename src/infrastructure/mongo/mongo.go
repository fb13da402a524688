package mongo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

var (
	clientInstance *mongo.Client
	clientOnce     sync.Once
	clientErr      error
)

func GetMongoClient(cfg *config.Config) (*mongo.Client, error) {
	clientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDBConnectionString))
		if err != nil {
			clientErr = fmt.Errorf("failed to connect to MongoDB: %w", err)
			return
		}
		clientInstance = client
	})
	return clientInstance, clientErr
}

func GetDatabase(cfg *config.Config, client *mongo.Client) *mongo.Database {
	return client.Database(cfg.MongoDBDatabaseName)
}

// Transactor runs a function inside a multi-document transaction. The context
// handed to fn is a session context; repositories must pass it to every
// collection call so their writes join the transaction. Requires a replica set.
type Transactor struct {
	client *mongo.Client
}

func NewTransactor(client *mongo.Client) *Transactor {
	return &Transactor{client: client}
}

func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	// WithTransaction retries the callback on TransientTransactionError, which
	// covers write conflicts on the same product document.
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	return err
}
