package utils

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"plp-bookstore/internal/auth"
	"plp-bookstore/internal/models"
)

// Logger writes audit entries for mutations into a collection. A Logger
// with a nil Collection discards every entry. The authenticated user on ctx,
// if any, is recorded instead of PerformedBy.
type Logger struct {
	Collection  *mongo.Collection
	PerformedBy string
}

func (l *Logger) Enabled() bool {
	return l != nil && l.Collection != nil
}

func (l *Logger) Log(ctx context.Context, entity, action string, data any) error {
	if !l.Enabled() {
		return nil
	}
	performedBy := l.PerformedBy
	if id, ok := auth.UserIDFromContext(ctx); ok {
		performedBy = id
	}
	log := models.AuditLog{
		Timestamp:   time.Now().UTC(),
		Entity:      entity,
		Action:      action,
		PerformedBy: performedBy,
		Data:        data,
	}
	_, err := l.Collection.InsertOne(ctx, log)
	return err
}
