package models

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
	Role     Role   `json:"role" validate:"omitempty,oneof=officer admin"`
	State    string `json:"state" validate:"required"`
}

type LoginResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    SessionUser `json:"user"`
}

type SessionUser struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	State    string `json:"state"`
}

// SubmitRecordRequest is the report body posted by an officer.
type SubmitRecordRequest struct {
	State               string `json:"state" validate:"required,monitored_state"`
	BuildingZone        string `json:"buildingZone" validate:"required"`
	ReportDate          string `json:"reportDate" validate:"required"`
	ReportTime          string `json:"reportTime" validate:"required"`
	InspectorName       string `json:"inspectorName" validate:"required"`
	UtilityLocationType string `json:"utilityLocationType" validate:"omitempty,oneof=Indoor Outdoor"`
	UtilityName         string `json:"utilityName" validate:"required"`
	UtilityCode         string `json:"utilityCode"`
	ConditionKey        int    `json:"conditionKey" validate:"required,min=1,max=5"`
	LastInspectionDate  string `json:"lastInspectionDate"`
	LastMaintenanceDue  string `json:"lastMaintenanceDue"`
	NextMaintenanceDue  string `json:"nextMaintenanceDue"`
	ActionRequired      string `json:"actionRequired" validate:"required"`
	FaultDetails        string `json:"faultDetails" validate:"required"`
	UtilityCategory     string `json:"utilityCategory" validate:"required,utility_category"`
	ReadyToSubmit       string `json:"readyToSubmit" validate:"omitempty,oneof=Yes No"`
	BroadcastToAll      bool   `json:"broadcastToAll"`
	ImageURL            string `json:"imageUrl" validate:"omitempty,url"`
}

type FilterQuery struct {
	State         string `form:"state"`
	InspectorName string `form:"inspectorName"`
	UtilityName   string `form:"utilityName"`
}
