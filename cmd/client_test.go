package main

import (
	"audit-service/internal/handlers"
	"audit-service/internal/models"
	"audit-service/internal/repository"
	"audit-service/internal/services"
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cliStaff = []models.RegisterRequest{
	{Username: "pere", Password: "dir99", Role: models.RoleAdmin, State: models.RegionHQ},
	{Username: "Favour", Password: "abia2026", Role: models.RoleOfficer, State: "ABIA"},
}

// startAPI serves the real router over in-memory stores and points the CLI at it.
func startAPI(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator := services.NewValidator()
	jwtSvc := services.NewJWTService("cli-test-secret", time.Hour)
	accountSvc := services.NewAccountService(repository.NewMemoryAccountRepository(), nil, jwtSvc, validator, nil)
	auditSvc := services.NewAuditService(repository.NewMemoryAuditRecordRepository(), nil, validator, nil)
	_, err := services.SeedAccounts(context.Background(), accountSvc, cliStaff, nil)
	require.NoError(t, err)

	server := httptest.NewServer(handlers.NewRouter(handlers.RouterDeps{
		AccountService: accountSvc,
		AuditService:   auditSvc,
		JWTService:     jwtSvc,
		Validator:      validator,
	}))
	t.Cleanup(server.Close)

	t.Setenv("AUDIT_API_URL", server.URL)
	t.Setenv("AUDIT_SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("LOG_LEVEL", "error")
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return out.String(), err
}

var submittedID = regexp.MustCompile(`\(id ([0-9a-f]{24})\)`)

func submitReport(t *testing.T, body string) string {
	t.Helper()
	out, err := runCLI(t, body, "submit")
	require.NoError(t, err)
	m := submittedID.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	return m[1]
}

const (
	pumpReport = `{"buildingZone":"Block C","reportDate":"2026-05-01","reportTime":"09:15","utilityName":"Borehole Pump",
"conditionKey":1,"actionRequired":"Replace pressure switch","faultDetails":"Pump cycles","utilityCategory":"Water"}`
	tankReport = `{"buildingZone":"Roof","reportDate":"2026-05-02","reportTime":"11:00","utilityName":"Water Tank",
"conditionKey":4,"actionRequired":"Clean inlet","faultDetails":"Sediment","utilityCategory":"Water"}`
)

func TestCLI_OfficerFiltersOwnReports(t *testing.T) {
	startAPI(t)

	_, err := runCLI(t, "", "login", "-u", "Favour", "-p", "abia2026")
	require.NoError(t, err)
	submitReport(t, pumpReport)
	submitReport(t, tankReport)

	out, err := runCLI(t, "", "mine", "--level", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Borehole Pump")
	assert.NotContains(t, out, "Water Tank")

	out, err = runCLI(t, "", "mine", "--search", "roof")
	require.NoError(t, err)
	assert.Contains(t, out, "Water Tank")
	assert.NotContains(t, out, "Borehole Pump")

	out, err = runCLI(t, "", "mine", "--level", "4", "--search", "block")
	require.NoError(t, err)
	assert.Contains(t, out, "No reports found")

	_, err = runCLI(t, "", "mine", "--level", "9")
	assert.Error(t, err)
}

func TestCLI_ReportCommands(t *testing.T) {
	startAPI(t)

	_, err := runCLI(t, "", "login", "-u", "Favour", "-p", "abia2026")
	require.NoError(t, err)
	pumpID := submitReport(t, pumpReport)
	submitReport(t, tankReport)

	out, err := runCLI(t, "", "report", "show", pumpID)
	require.NoError(t, err)
	assert.Contains(t, out, "Fault Details:")
	assert.Contains(t, out, "Level 1 - Critical Failure")

	_, err = runCLI(t, "", "report", "update", pumpID, "--level", "2")
	require.Error(t, err, "officers cannot edit reports")

	_, err = runCLI(t, "", "login", "-u", "pere", "-p", "dir99")
	require.NoError(t, err)

	out, err = runCLI(t, "", "report", "update", pumpID, "--action", "Switch ordered")
	require.NoError(t, err)
	assert.Contains(t, out, "Level 1 - Critical Failure, Switch ordered")

	out, err = runCLI(t, "", "report", "find", "--critical")
	require.NoError(t, err)
	assert.Contains(t, out, "Borehole Pump")
	assert.NotContains(t, out, "Water Tank")

	out, err = runCLI(t, "", "report", "find", "--utility", "tank", "--state", "ABIA")
	require.NoError(t, err)
	assert.Contains(t, out, "Water Tank")
	assert.NotContains(t, out, "Borehole Pump")
}

func TestBuildPatch(t *testing.T) {
	newCmd := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{}
		cmd.Flags().Int("level", 0, "")
		cmd.Flags().String("action", "", "")
		require.NoError(t, cmd.Flags().Parse(args))
		return cmd
	}

	_, err := buildPatch(newCmd(), 0, "")
	assert.Error(t, err)

	patch, err := buildPatch(newCmd("--level", "2"), 2, "")
	require.NoError(t, err)
	require.NotNil(t, patch.ConditionKey)
	assert.Equal(t, 2, *patch.ConditionKey)
	assert.Nil(t, patch.ActionRequired)

	patch, err = buildPatch(newCmd("--action", "Fixed"), 0, "Fixed")
	require.NoError(t, err)
	assert.Nil(t, patch.ConditionKey)
	assert.Equal(t, "Fixed", *patch.ActionRequired)
}
