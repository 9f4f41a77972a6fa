package repository

import (
	"audit-service/internal/models"
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildRecordFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, BuildRecordFilter(models.RecordCriteria{}))
}

func TestBuildRecordFilter_AllFields(t *testing.T) {
	filter := BuildRecordFilter(models.RecordCriteria{
		State:         "IMO STATE",
		InspectorName: "dike",
		UtilityName:   "Generator",
		AuthorID:      "acc-9",
		CriticalOnly:  true,
	})

	assert.Equal(t, "IMO STATE", filter["state"])
	assert.Equal(t, primitive.Regex{Pattern: "dike", Options: "i"}, filter["inspectorName"])
	assert.Equal(t, primitive.Regex{Pattern: "Generator", Options: "i"}, filter["utilityName"])
	assert.Equal(t, "acc-9", filter["authorId"])
	assert.Equal(t, 1, filter["conditionKey"])
}

func TestBuildRecordFilter_EscapesPatternSyntax(t *testing.T) {
	filter := BuildRecordFilter(models.RecordCriteria{UtilityName: "A/C (Unit.2)*"})

	re, ok := filter["utilityName"].(primitive.Regex)
	require.True(t, ok)
	compiled := regexp.MustCompile("(?i)" + re.Pattern)
	assert.True(t, compiled.MatchString("Block B a/c (unit.2)* north"))
	assert.False(t, compiled.MatchString("A/C (Unit22)"))
}

func TestBuildPatchUpdate(t *testing.T) {
	level := 2
	assert.Equal(t, bson.M{"conditionKey": 2}, BuildPatchUpdate(models.RecordPatch{ConditionKey: &level}))

	resolved := BuildPatchUpdate(models.ResolvedPatch())
	assert.Len(t, resolved, 2)
	assert.Equal(t, models.ResolvedActionText, resolved["actionRequired"])
}

func TestAuditRecordRepository_InvalidIDIsNotFound(t *testing.T) {
	repo := NewAuditRecordRepository(nil)
	ctx := context.Background()

	_, err := repo.GetRecordByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.UpdateRecordFields(ctx, "zzz", models.ResolvedPatch())
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.ErrorIs(t, repo.DeleteRecord(ctx, ""), models.ErrNotFound)
}
