package main

import (
	"audit-service/internal/client"
	"audit-service/internal/export"
	"audit-service/internal/models"
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) apiClient() *client.Client {
	return client.New(a.cfg.ClientCfg.APIURL, a.cfg.ClientCfg.Timeout, client.NewSessionStore(a.cfg.ClientCfg.SessionFile), a.log)
}

func loginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return errors.New("--username is required")
			}
			if password == "" {
				var err error
				if password, err = promptLine(cmd, "Password: "); err != nil {
					return err
				}
			}

			session, err := a.apiClient().Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s, %s)\n", session.Username, session.Role, session.State)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.apiClient().Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func registerCmd(a *app) *cobra.Command {
	var req models.RegisterRequest
	var role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a staff account (supervisors only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Role = models.Role(role)
			if req.Password == "" {
				var err error
				if req.Password, err = promptLine(cmd, "New account password: "); err != nil {
					return err
				}
			}
			user, err := a.apiClient().Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s, %s)\n", user.Username, user.Role, user.State)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "New account username")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "New account password (prompted when omitted)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleOfficer), "officer or admin")
	cmd.Flags().StringVar(&req.State, "state", "", "Assigned state (HQ for admins)")
	return cmd
}

func submitCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an audit report from a JSON file",
		Long: `Submit reads a JSON report (same field names as the API) and posts it.
State and inspector default to the logged-in officer. A report with
"readyToSubmit": "No" is kept as a draft and nothing is sent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := a.apiClient()
			session, err := api.Session()
			if err != nil {
				return err
			}

			var input io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				input = f
			}

			form := client.NewSubmissionForm(api, *session)
			var decodeErr error
			if err := form.Edit(func(fields *models.SubmitRecordRequest) {
				decodeErr = json.NewDecoder(input).Decode(fields)
			}); err != nil {
				return err
			}
			if decodeErr != nil {
				return fmt.Errorf("invalid report file: %w", decodeErr)
			}

			result, err := form.Submit(cmd.Context())
			if err != nil {
				return err
			}
			if result.Outcome == client.OutcomeCancelled {
				fmt.Fprintln(cmd.OutOrStdout(), "Report not ready to submit; nothing was sent")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Infrastructure audit logged successfully (id %s)\n", result.Record.ID.Hex())
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Report JSON file, - for stdin")
	return cmd
}

type exportFlags struct {
	format string
	out    string
	title  string
}

func (e *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&e.format, "export", "", "Export the listed reports as pdf or csv")
	cmd.Flags().StringVarP(&e.out, "out", "o", "", "Export destination (defaults to a dated file name)")
	cmd.Flags().StringVar(&e.title, "title", "", "Export title")
}

func (e *exportFlags) write(cmd *cobra.Command, records []*models.AuditRecord, variant export.Variant, header export.Header) error {
	if e.format == "" {
		return nil
	}
	header.Title = e.title
	doc, err := export.Build(records, variant, header)
	if err != nil {
		return err
	}

	format := strings.ToLower(e.format)
	if format != "pdf" && format != "csv" {
		return fmt.Errorf("unsupported export format %q", e.format)
	}
	out := e.out
	if out == "" {
		out = fmt.Sprintf("Audit_Report_%s.%s", header.GeneratedAt.Format("2006-01-02"), format)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if format == "pdf" {
		err = export.WritePDF(f, doc, export.DefaultRowsPerPage)
	} else {
		err = export.WriteCSV(f, doc)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d reports to %s\n", len(records), out)
	return nil
}

func reviewCmd(a *app) *cobra.Command {
	var (
		filter    client.ReviewFilter
		resolveID string
		deleteID  string
		exp       exportFlags
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Supervisor dashboard: list, filter, resolve, delete and export reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			api := a.apiClient()
			session, err := api.Session()
			if err != nil {
				return err
			}
			if !session.IsAdmin() {
				return errors.New("review is only available to supervisors")
			}

			board := client.NewReviewBoard(api)
			if err := board.Load(ctx); err != nil {
				return err
			}
			board.SetFilter(filter)

			if resolveID != "" {
				if _, err := board.Resolve(ctx, resolveID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Resolved %s\n", resolveID)
			}
			if deleteID != "" {
				if err := board.Delete(ctx, deleteID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", deleteID)
			}

			counts := board.Counts()
			for _, state := range models.MonitoredStates {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %d assets\n", state, counts[state])
			}
			fmt.Fprintln(cmd.OutOrStdout())

			view := board.View()
			printRecords(cmd.OutOrStdout(), view, true)
			return exp.write(cmd, view, export.VariantSupervisor, export.Header{GeneratedAt: time.Now()})
		},
	}
	cmd.Flags().StringVar(&filter.Region, "state", client.AllRegions, "Only show this state (ALL for every state)")
	cmd.Flags().BoolVar(&filter.CriticalOnly, "critical", false, "Only show critical failures")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Search utility or inspector name")
	cmd.Flags().StringVar(&resolveID, "resolve", "", "Mark the report with this id as resolved")
	cmd.Flags().StringVar(&deleteID, "delete", "", "Delete the report with this id")
	exp.register(cmd)
	return cmd
}

func mineCmd(a *app) *cobra.Command {
	var (
		filter client.ReportFilter
		exp    exportFlags
	)

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "List the reports you submitted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter.Level < 0 || filter.Level > models.MaxConditionKey {
				return fmt.Errorf("--level must be between 1 and %d", models.MaxConditionKey)
			}
			api := a.apiClient()
			session, err := api.Session()
			if err != nil {
				return err
			}
			records, err := api.Mine(cmd.Context())
			if err != nil {
				return err
			}
			records = filter.Apply(records)

			printRecords(cmd.OutOrStdout(), records, false)
			return exp.write(cmd, records, export.VariantOfficer, export.Header{
				Inspector:   session.Username,
				CommandUnit: session.State,
				GeneratedAt: time.Now(),
			})
		},
	}
	cmd.Flags().IntVar(&filter.Level, "level", 0, "Only show reports at this condition level (1-5)")
	cmd.Flags().StringVar(&filter.Search, "search", "", "Search utility name or building zone")
	exp.register(cmd)
	return cmd
}

func reportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Look up, search and correct individual reports",
	}
	cmd.AddCommand(reportShowCmd(a), reportFindCmd(a), reportUpdateCmd(a))
	return cmd
}

func reportShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print every field of one report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := a.apiClient().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRecordDetail(cmd.OutOrStdout(), record)
			return nil
		},
	}
}

func reportFindCmd(a *app) *cobra.Command {
	var (
		query    models.FilterQuery
		critical bool
		exp      exportFlags
	)

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Search reports on the server by state, inspector or utility",
		Long: `Find runs the search on the server. Officers only ever see their own state.
With --critical the other criteria are ignored and only critical failures are listed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := a.apiClient()
			var (
				records []*models.AuditRecord
				err     error
			)
			if critical {
				records, err = api.Critical(cmd.Context())
			} else {
				records, err = api.Filter(cmd.Context(), query)
			}
			if err != nil {
				return err
			}

			printRecords(cmd.OutOrStdout(), records, true)
			return exp.write(cmd, records, export.VariantSupervisor, export.Header{GeneratedAt: time.Now()})
		},
	}
	cmd.Flags().StringVar(&query.State, "state", "", "Exact state")
	cmd.Flags().StringVar(&query.InspectorName, "inspector", "", "Inspector name contains")
	cmd.Flags().StringVar(&query.UtilityName, "utility", "", "Utility name contains")
	cmd.Flags().BoolVar(&critical, "critical", false, "Only critical failures")
	exp.register(cmd)
	return cmd
}

func reportUpdateCmd(a *app) *cobra.Command {
	var (
		level  int
		action string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the condition level or required action of a report (supervisors only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := buildPatch(cmd, level, action)
			if err != nil {
				return err
			}
			record, err := a.apiClient().Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s, %s\n", record.ID.Hex(), models.ConditionLabel(record.ConditionKey), record.ActionRequired)
			return nil
		},
	}
	cmd.Flags().IntVar(&level, "level", 0, "New condition level (1-5)")
	cmd.Flags().StringVar(&action, "action", "", "New required action")
	return cmd
}

// buildPatch includes only the flags the user actually set.
func buildPatch(cmd *cobra.Command, level int, action string) (models.RecordPatch, error) {
	var patch models.RecordPatch
	if cmd.Flags().Changed("level") {
		patch.ConditionKey = &level
	}
	if cmd.Flags().Changed("action") {
		patch.ActionRequired = &action
	}
	if patch.IsEmpty() {
		return patch, errors.New("nothing to update: set --level and/or --action")
	}
	return patch, nil
}

func printRecordDetail(w io.Writer, r *models.AuditRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", label, value)
		}
	}
	row("ID", r.ID.Hex())
	row("State", r.State)
	row("Building/Zone", r.BuildingZone)
	row("Date", strings.TrimSpace(r.ReportDate+" "+r.ReportTime))
	row("Inspector", r.InspectorName)
	row("Utility", r.UtilityName)
	row("Category", r.UtilityCategory)
	row("Location", r.UtilityLocationType)
	row("Code", r.UtilityCode)
	row("Condition", models.ConditionLabel(r.ConditionKey))
	row("Action Required", r.ActionRequired)
	row("Fault Details", r.FaultDetails)
	row("Last Inspection", r.LastInspectionDate)
	row("Next Maintenance", r.NextMaintenanceDue)
	row("Image", r.ImageURL)
	row("Broadcast", fmt.Sprintf("%t", r.BroadcastToAll))
	row("Created", r.CreatedAt.Format("2006-01-02 15:04"))
	_ = tw.Flush()
}

func printRecords(w io.Writer, records []*models.AuditRecord, withState bool) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No reports found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if withState {
		fmt.Fprintln(tw, "ID\tDATE\tSTATE\tUTILITY\tCONDITION\tINSPECTOR")
	} else {
		fmt.Fprintln(tw, "ID\tDATE\tUTILITY\tZONE\tCONDITION\tACTION")
	}
	for _, r := range records {
		date := r.ReportDate
		if date == "" {
			date = r.CreatedAt.Format("2006-01-02")
		}
		if withState {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID.Hex(), date, r.State, r.UtilityName, models.ConditionLabel(r.ConditionKey), r.InspectorName)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID.Hex(), date, r.UtilityName, r.BuildingZone, models.ConditionLabel(r.ConditionKey), r.ActionRequired)
		}
	}
	_ = tw.Flush()
}

func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
