package persistence

import (
	"context"
	"time"

	"foodcollab/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NewMongoDb connects to the optional document store used for raw webhook archival.
func NewMongoDb(host, port, user, password string) (*mongo.Client, error) {
	uri := "mongodb://" + host + ":" + port
	if user != "" {
		uri = "mongodb://" + user + ":" + password + "@" + host + ":" + port
	}
	return mongo.Connect(options.Client().ApplyURI(uri))
}

// WebhookEventArchive keeps the raw provider payloads for reconciliation.
// The Mongo client may be nil; archival is then skipped.
type WebhookEventArchive struct {
	mongoDb *mongo.Client
}

func NewWebhookEventArchive(mongoDb *mongo.Client) *WebhookEventArchive {
	return &WebhookEventArchive{mongoDb: mongoDb}
}

func (a *WebhookEventArchive) Store(ctx context.Context, body []byte) {
	if a.mongoDb == nil {
		return
	}
	collection := a.mongoDb.Database("foodcollab").Collection("webhook_events")
	doc := map[string]interface{}{
		"payload":     string(body),
		"received_at": time.Now().UTC(),
	}
	if _, err := collection.InsertOne(ctx, doc); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while archiving webhook event")
	}
}
