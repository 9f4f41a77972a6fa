package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CriticalConditionKey = 1
	MaxConditionKey      = 5
	ResolvedConditionKey = 3
	ResolvedActionText   = "RESOLVED: Utility Officer Notified & Fixed"
)

var UtilityCategories = []string{"Electrical", "Water", "HVAC", "IT/Network", "Waste Management", "General"}

var conditionLabels = map[int]string{
	1: "Critical Failure",
	2: "Major Issues",
	3: "Minor Defects",
	4: "Functional",
	5: "Excellent",
}

func IsUtilityCategory(category string) bool {
	for _, c := range UtilityCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ConditionLabel renders a condition level the way reports print it, e.g. "Level 1 - Critical Failure".
func ConditionLabel(level int) string {
	if label, ok := conditionLabels[level]; ok {
		return fmt.Sprintf("Level %d - %s", level, label)
	}
	return fmt.Sprintf("Level %d", level)
}

type AuditRecord struct {
	ID                  primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	AuthorID            string             `json:"authorId" bson:"authorId"`
	State               string             `json:"state" bson:"state"`
	BuildingZone        string             `json:"buildingZone" bson:"buildingZone"`
	ReportDate          string             `json:"reportDate" bson:"reportDate"`
	ReportTime          string             `json:"reportTime" bson:"reportTime"`
	InspectorName       string             `json:"inspectorName" bson:"inspectorName"`
	UtilityLocationType string             `json:"utilityLocationType" bson:"utilityLocationType"`
	UtilityName         string             `json:"utilityName" bson:"utilityName"`
	UtilityCode         string             `json:"utilityCode" bson:"utilityCode"`
	ConditionKey        int                `json:"conditionKey" bson:"conditionKey"`
	LastInspectionDate  string             `json:"lastInspectionDate,omitempty" bson:"lastInspectionDate,omitempty"`
	LastMaintenanceDue  string             `json:"lastMaintenanceDue,omitempty" bson:"lastMaintenanceDue,omitempty"`
	NextMaintenanceDue  string             `json:"nextMaintenanceDue,omitempty" bson:"nextMaintenanceDue,omitempty"`
	ActionRequired      string             `json:"actionRequired" bson:"actionRequired"`
	FaultDetails        string             `json:"faultDetails" bson:"faultDetails"`
	UtilityCategory     string             `json:"utilityCategory" bson:"utilityCategory"`
	ReadyToSubmit       string             `json:"readyToSubmit" bson:"readyToSubmit"`
	BroadcastToAll      bool               `json:"broadcastToAll" bson:"broadcastToAll"`
	ImageURL            string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	CreatedAt           time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (r *AuditRecord) IsCritical() bool {
	return r.ConditionKey == CriticalConditionKey
}

// RecordCriteria selects records from the store. Empty fields do not constrain.
type RecordCriteria struct {
	State         string
	InspectorName string
	UtilityName   string
	AuthorID      string
	CriticalOnly  bool
}

// RecordPatch carries the only two fields an audit record may change after creation.
type RecordPatch struct {
	ConditionKey   *int    `json:"conditionKey,omitempty" validate:"omitempty,min=1,max=5"`
	ActionRequired *string `json:"actionRequired,omitempty" validate:"omitempty,min=1"`
}

func (p RecordPatch) IsEmpty() bool {
	return p.ConditionKey == nil && p.ActionRequired == nil
}

// ResolvedPatch is the patch applied by the supervisor resolve action.
func ResolvedPatch() RecordPatch {
	level := ResolvedConditionKey
	action := ResolvedActionText
	return RecordPatch{ConditionKey: &level, ActionRequired: &action}
}
