package db

import (
	"context"
	"time"

	"github.com/bombsimon/logrusr/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// ClientOptions builds the driver options for uri. Driver command logging is
// routed through logger and only enabled at debug level.
func ClientOptions(uri string, logger *logrus.Logger) *options.ClientOptions {
	opts := options.Client().ApplyURI(uri)
	if logger == nil || !logger.IsLevelEnabled(logrus.DebugLevel) {
		return opts
	}

	loggerOpts := options.Logger().
		SetSink(logrusr.New(logger).GetSink()).
		SetMaxDocumentLength(256).
		SetComponentLevel(options.LogComponentCommand, options.LogLevelDebug)
	return opts.SetLoggerOptions(loggerOpts)
}

// Connect opens a client and pings the primary so an unreachable endpoint
// surfaces here rather than on the first query. On a failed ping the client
// is returned alongside the error so the caller can still disconnect it.
func Connect(ctx context.Context, uri string, logger *logrus.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, ClientOptions(uri, logger))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return client, err
	}
	return client, nil
}

func GetCollection(client *mongo.Client, dbName, collName string) *mongo.Collection {
	return client.Database(dbName).Collection(collName)
}
