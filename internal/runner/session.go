package runner

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"plp-bookstore/configs"
	"plp-bookstore/internal/db"
	"plp-bookstore/internal/queries"
	"plp-bookstore/internal/utils"
)

// Execute connects to cfg.MongoURI, runs the full sequence against the books
// collection and disconnects on every exit path, including a failed connect.
func Execute(ctx context.Context, cfg configs.Config, out io.Writer, logger *logrus.Logger) (err error) {
	client, err := db.Connect(ctx, cfg.MongoURI, logger)
	if client != nil {
		defer func() {
			if dErr := client.Disconnect(context.Background()); dErr != nil {
				err = errors.Join(err, fmt.Errorf("disconnect: %w", dErr))
			}
			fmt.Fprintln(out, "Connection closed")
		}()
	}
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	fmt.Fprintln(out, "Connected to MongoDB server")

	books := queries.NewBookStore(db.GetCollection(client, configs.DBName, configs.BooksCollection), cfg.RequireMatch)
	r := New(books, out, logger)
	if cfg.AuditLog {
		r.Audit = &utils.Logger{
			Collection:  db.GetCollection(client, configs.DBName, configs.AuditLogsCollection),
			PerformedBy: "runner",
		}
	}
	return r.Run(ctx)
}
