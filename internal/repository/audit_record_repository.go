package repository

import (
	"audit-service/internal/models"
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type IAuditRecordRepository interface {
	CreateRecord(ctx context.Context, record *models.AuditRecord) error
	FindRecords(ctx context.Context, criteria models.RecordCriteria) ([]*models.AuditRecord, error)
	GetRecordByID(ctx context.Context, id string) (*models.AuditRecord, error)
	UpdateRecordFields(ctx context.Context, id string, patch models.RecordPatch) (*models.AuditRecord, error)
	DeleteRecord(ctx context.Context, id string) error
}

type AuditRecordRepository struct {
	coll *mongo.Collection
}

func NewAuditRecordRepository(coll *mongo.Collection) IAuditRecordRepository {
	return &AuditRecordRepository{
		coll: coll,
	}
}

// newestFirst orders by creation time, with _id breaking ties so repeated listings agree.
var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (r *AuditRecordRepository) CreateRecord(ctx context.Context, record *models.AuditRecord) error {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert audit record: %w: %w", models.ErrStorage, err)
	}
	return nil
}

func (r *AuditRecordRepository) FindRecords(ctx context.Context, criteria models.RecordCriteria) ([]*models.AuditRecord, error) {
	cursor, err := r.coll.Find(ctx, BuildRecordFilter(criteria), options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w: %w", models.ErrStorage, err)
	}
	defer cursor.Close(ctx)

	records := make([]*models.AuditRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode audit records: %w: %w", models.ErrStorage, err)
	}
	return records, nil
}

func (r *AuditRecordRepository) GetRecordByID(ctx context.Context, id string) (*models.AuditRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}

	var record models.AuditRecord
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("report %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get audit record: %w: %w", models.ErrStorage, err)
	}
	return &record, nil
}

func (r *AuditRecordRepository) UpdateRecordFields(ctx context.Context, id string, patch models.RecordPatch) (*models.AuditRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var record models.AuditRecord
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": BuildPatchUpdate(patch)}, opts).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("report %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update audit record: %w: %w", models.ErrStorage, err)
	}
	return &record, nil
}

func (r *AuditRecordRepository) DeleteRecord(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete audit record: %w: %w", models.ErrStorage, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// BuildRecordFilter translates criteria into a Mongo filter. Name matches are
// case-insensitive literal substrings; user input never acts as a pattern.
func BuildRecordFilter(criteria models.RecordCriteria) bson.M {
	filter := bson.M{}
	if criteria.State != "" {
		filter["state"] = criteria.State
	}
	if criteria.InspectorName != "" {
		filter["inspectorName"] = literalContains(criteria.InspectorName)
	}
	if criteria.UtilityName != "" {
		filter["utilityName"] = literalContains(criteria.UtilityName)
	}
	if criteria.AuthorID != "" {
		filter["authorId"] = criteria.AuthorID
	}
	if criteria.CriticalOnly {
		filter["conditionKey"] = models.CriticalConditionKey
	}
	return filter
}

// BuildPatchUpdate returns the $set document for a patch. Only conditionKey and actionRequired are writable.
func BuildPatchUpdate(patch models.RecordPatch) bson.M {
	set := bson.M{}
	if patch.ConditionKey != nil {
		set["conditionKey"] = *patch.ConditionKey
	}
	if patch.ActionRequired != nil {
		set["actionRequired"] = *patch.ActionRequired
	}
	return set
}

func literalContains(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}
