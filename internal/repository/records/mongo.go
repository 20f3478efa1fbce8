package records

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	domain "github.com/oshokin/accirescue/internal/domain/alert"
)

// Collection names shared with the operator console.
const (
	CollectionResponses      = "responses"
	CollectionHospitals      = "hospitals"
	CollectionPoliceStations = "police_stations"
)

// responderDocument is how the console stores hospitals and police stations.
type responderDocument struct {
	Name    string  `bson:"name"`
	Phone   string  `bson:"phone"`
	Lat     float64 `bson:"lat"`
	Long    float64 `bson:"long"`
	Address string  `bson:"address,omitempty"`
}

// toResponder converts a stored document into a domain responder.
func (d *responderDocument) toResponder(role domain.Role) domain.Responder {
	return domain.Responder{
		ID:    d.Name,
		Role:  role,
		Phone: d.Phone,
		Location: domain.Location{
			Latitude:  d.Lat,
			Longitude: d.Long,
		},
	}
}

// MongoRepository keeps the notification log and responder directory in MongoDB.
type MongoRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo dials MongoDB and verifies the connection.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoRepository{
		client: client,
		db:     client.Database(database),
	}, nil
}

// Close disconnects from MongoDB.
func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// Append inserts the record into the responses collection.
func (r *MongoRepository) Append(ctx context.Context, record *domain.NotificationRecord) error {
	if record == nil {
		return errRecordRequired
	}

	if _, err := r.db.Collection(CollectionResponses).InsertOne(ctx, record); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	return nil
}

// List returns the records of one alert ordered by creation time. Empty alertID returns all records.
// ErrNotFound is returned when no record matches.
func (r *MongoRepository) List(ctx context.Context, alertID string) ([]*domain.NotificationRecord, error) {
	filter := bson.M{}
	if alertID != "" {
		filter["alert_id"] = alertID
	}

	cursor, err := r.db.Collection(CollectionResponses).Find(
		ctx,
		filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}

	var out []*domain.NotificationRecord
	if err = cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	if len(out) == 0 {
		return nil, ErrNotFound
	}

	return out, nil
}

// Responders reads hospitals and police stations registered in the console.
func (r *MongoRepository) Responders(ctx context.Context) ([]domain.Responder, error) {
	sources := []struct {
		collection string
		role       domain.Role
	}{
		{CollectionHospitals, domain.RoleHospital},
		{CollectionPoliceStations, domain.RolePolice},
	}

	var out []domain.Responder

	for _, src := range sources {
		cursor, err := r.db.Collection(src.collection).Find(ctx, bson.M{})
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", src.collection, err)
		}

		var docs []responderDocument
		if err = cursor.All(ctx, &docs); err != nil {
			return nil, fmt.Errorf("decode %s: %w", src.collection, err)
		}

		for i := range docs {
			if docs[i].Name == "" {
				continue
			}

			out = append(out, docs[i].toResponder(src.role))
		}
	}

	return out, nil
}

// IsNotFound reports whether err means no record matched.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, mongo.ErrNoDocuments)
}
