package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	schedule "github.com/hariom-ql2/schedspec"
)

// Config holds the configuration for the MongoDB schedule store.
type Config struct {
	// Collection is the MongoDB collection where schedules are stored.
	// Required.
	Collection *mongo.Collection

	// Field names for record properties (optional, have defaults)
	NextRunField   string // default: "next_run"
	CreatedAtField string // default: "created_at"

	// Condition is an optional additional filter applied to List and Due.
	// Example: bson.M{"owner": "reports"} to only see one tenant's schedules.
	Condition bson.M

	// Logger receives debug events for writes. Default: zerolog.Nop().
	Logger *zerolog.Logger
}

// Store implements schedule.Store for MongoDB.
//
// Documents keep the wire shape so other services can read them directly:
//
//	{ "_id": "...", "schedule_type": "weekly",
//	  "schedule_data": { "day_of_week": [1,3], "time": "09:00", "timezone": "Asia/Kolkata" },
//	  "next_run": ISODate(...), "created_at": ISODate(...) }
type Store struct {
	collection     *mongo.Collection
	nextRunField   string
	createdAtField string
	condition      bson.M
	log            zerolog.Logger
}

// NewStore creates a new MongoDB schedule store with the given configuration.
func NewStore(config Config) (*Store, error) {
	if config.Collection == nil {
		return nil, errors.New("collection is required")
	}

	// Set defaults
	if config.NextRunField == "" {
		config.NextRunField = "next_run"
	}
	if config.CreatedAtField == "" {
		config.CreatedAtField = "created_at"
	}
	log := zerolog.Nop()
	if config.Logger != nil {
		log = *config.Logger
	}

	return &Store{
		collection:     config.Collection,
		nextRunField:   config.NextRunField,
		createdAtField: config.CreatedAtField,
		condition:      config.Condition,
		log:            log.With().Str("store", "mongodb").Logger(),
	}, nil
}

// EnsureIndexes creates the sparse next_run index Due relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: s.nextRunField, Value: 1}},
		Options: options.Index().SetSparse(true),
	})
	return errors.Wrap(err, "create next_run index")
}

// Insert adds a new record.
func (s *Store) Insert(ctx context.Context, rec *schedule.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	doc, err := s.recordToBSON(rec)
	if err != nil {
		return err
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return errors.Wrapf(err, "insert schedule %s", rec.ID)
	}
	s.log.Debug().Str("id", rec.ID).Str("type", string(rec.Spec.Kind())).Msg("schedule inserted")
	return nil
}

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*schedule.Record, error) {
	var doc bson.M
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.Wrapf(schedule.ErrNotFound, "schedule %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find schedule %s", id)
	}
	return s.bsonToRecord(doc)
}

// List returns all records ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*schedule.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: s.createdAtField, Value: 1}})
	return s.find(ctx, s.filter(), opts)
}

// Due returns records whose next run is at or before at.
func (s *Store) Due(ctx context.Context, at time.Time) ([]*schedule.Record, error) {
	filter := s.filter(
		bson.M{s.nextRunField: bson.M{"$exists": true, "$ne": nil}},
		bson.M{s.nextRunField: bson.M{"$not": bson.M{"$gt": at}}},
	)
	opts := options.Find().SetSort(bson.D{{Key: s.nextRunField, Value: 1}})
	return s.find(ctx, filter, opts)
}

// Update modifies a record's fields.
func (s *Store) Update(ctx context.Context, id string, u schedule.RecordUpdate) error {
	// Build update document
	updateDoc := bson.M{}

	if u.NextRun != nil {
		// NextRun is a pointer to pointer
		// - if the inner pointer is nil, set field to null
		// - otherwise, set field to the time value
		if *u.NextRun == nil {
			updateDoc[s.nextRunField] = nil
		} else {
			updateDoc[s.nextRunField] = (**u.NextRun).UTC()
		}
	}

	if len(updateDoc) == 0 {
		// Nothing to update
		return nil
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updateDoc})
	if err != nil {
		return errors.Wrapf(err, "update schedule %s", id)
	}
	if result.MatchedCount == 0 {
		return errors.Wrapf(schedule.ErrNotFound, "schedule %s", id)
	}
	s.log.Debug().Str("id", id).Msg("schedule updated")
	return nil
}

// Remove deletes a record from the store.
func (s *Store) Remove(ctx context.Context, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "delete schedule %s", id)
	}
	if result.DeletedCount == 0 {
		return errors.Wrapf(schedule.ErrNotFound, "schedule %s", id)
	}
	s.log.Debug().Str("id", id).Msg("schedule removed")
	return nil
}

// filter combines the configured condition with extra clauses.
func (s *Store) filter(clauses ...bson.M) bson.M {
	if s.condition != nil {
		clauses = append(clauses, s.condition)
	}
	if len(clauses) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": clauses}
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*schedule.Record, error) {
	cur, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find schedules")
	}
	defer cur.Close(ctx)

	var records []*schedule.Record
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode schedule document")
		}
		rec, err := s.bsonToRecord(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, errors.Wrap(cur.Err(), "iterate schedules")
}

// recordToBSON converts a record to its document form. schedule_data goes
// through the wire encoder so its single/array shape matches every other
// consumer.
func (s *Store) recordToBSON(rec *schedule.Record) (bson.M, error) {
	env, err := schedule.Encode(rec.Spec)
	if err != nil {
		return nil, err
	}
	var data bson.M
	if err := bson.UnmarshalExtJSON(env.ScheduleData, false, &data); err != nil {
		return nil, errors.Wrap(err, "convert schedule_data to bson")
	}

	doc := bson.M{
		"_id":            rec.ID,
		"schedule_type":  string(env.ScheduleType),
		"schedule_data":  data,
		s.nextRunField:   nil,
		s.createdAtField: rec.CreatedAt.UTC(),
	}
	if rec.NextRun != nil {
		doc[s.nextRunField] = rec.NextRun.UTC()
	}
	return doc, nil
}

// bsonToRecord converts a BSON document to a Record.
func (s *Store) bsonToRecord(doc bson.M) (*schedule.Record, error) {
	rec := &schedule.Record{}

	// Extract _id
	if id, ok := doc["_id"].(string); ok {
		rec.ID = id
	}

	kind, _ := doc["schedule_type"].(string)
	data, err := bson.MarshalExtJSON(doc["schedule_data"], false, false)
	if err != nil {
		return nil, errors.Wrapf(err, "schedule %s: convert schedule_data to json", rec.ID)
	}
	spec, err := schedule.Envelope{ScheduleType: schedule.Kind(kind), ScheduleData: data}.Decode()
	if err != nil {
		return nil, errors.Wrapf(err, "schedule %s", rec.ID)
	}
	rec.Spec = spec

	// Extract next_run
	if t, ok := toTime(doc[s.nextRunField]); ok {
		rec.NextRun = &t
	}

	// Extract created_at
	if t, ok := toTime(doc[s.createdAtField]); ok {
		rec.CreatedAt = t
	}

	return rec, nil
}

func toTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC(), true
	case time.Time:
		return t.UTC(), true
	default:
		return time.Time{}, false
	}
}
