package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"adwords-report/definition"
	"adwords-report/session"
)

var definitionFlags struct {
	name       string
	reportType string
	fields     []string
	predicates []string
	start      string
	end        string
	compare    string
	rangeType  string
	format     string
}

var addDefinitionCmd = &cobra.Command{
	Use:   "add-definition",
	Short: "Create a report definition and print its id",
	Long: "Create a report definition. With --start/--end the definition covers that period;\n" +
		"--compare prev_day|prev_week|prev_month|prev_year adds a second definition for the\n" +
		"comparison period in the same call.",
	Args: cobra.NoArgs,
	RunE: runAddDefinition,
}

func init() {
	f := addDefinitionCmd.Flags()
	f.StringVar(&definitionFlags.name, "name", "", "report name (required)")
	f.StringVar(&definitionFlags.reportType, "type", "", "report type, e.g. KEYWORDS_PERFORMANCE_REPORT (required)")
	f.StringSliceVar(&definitionFlags.fields, "fields", nil, "selector fields, comma separated (required)")
	f.StringArrayVar(&definitionFlags.predicates, "predicate", nil, "FIELD:OPERATOR:value[|value...], repeatable")
	f.StringVar(&definitionFlags.start, "start", "", "first day, YYYY-MM-DD")
	f.StringVar(&definitionFlags.end, "end", "", "last day, YYYY-MM-DD")
	f.StringVar(&definitionFlags.compare, "compare", "", "prev_day, prev_week, prev_month or prev_year")
	f.StringVar(&definitionFlags.rangeType, "date-range-type", "", "predefined range such as LAST_7_DAYS (instead of --start/--end)")
	f.StringVar(&definitionFlags.format, "download-format", "XML", "download format of the definition")

	_ = addDefinitionCmd.MarkFlagRequired("name")
	_ = addDefinitionCmd.MarkFlagRequired("type")
	_ = addDefinitionCmd.MarkFlagRequired("fields")
}

func runAddDefinition(cmd *cobra.Command, _ []string) error {
	defs, err := buildDefinitions()
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	inv, err := s.Invoker(session.DefinitionService)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, s)
	defer cancel()

	created, err := definition.Add(ctx, inv, defs...)
	if err != nil {
		return err
	}
	for _, c := range created {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.ID, c.Name)
	}
	return nil
}

func buildDefinitions() ([]definition.Definition, error) {
	preds := make([]definition.Predicate, 0, len(definitionFlags.predicates))
	for _, p := range definitionFlags.predicates {
		pred, err := parsePredicate(p)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	base := definition.Definition{
		Name:           definitionFlags.name,
		ReportType:     definitionFlags.reportType,
		DateRangeType:  definitionFlags.rangeType,
		DownloadFormat: strings.ToUpper(definitionFlags.format),
		Fields:         definitionFlags.fields,
		Predicates:     preds,
	}
	if definitionFlags.start == "" && definitionFlags.end == "" {
		if definitionFlags.compare != "" {
			return nil, fmt.Errorf("--compare needs --start and --end")
		}
		return []definition.Definition{base}, nil
	}

	period, cmp, err := definition.ComputeDateRanges(definitionFlags.start, definitionFlags.end, definitionFlags.compare)
	if err != nil {
		return nil, err
	}
	base.DateRange = &period
	defs := []definition.Definition{base}
	if cmp != nil {
		prev := base
		prev.Name = base.Name + " (" + definitionFlags.compare + ")"
		prev.DateRange = cmp
		defs = append(defs, prev)
	}
	return defs, nil
}

// parsePredicate reads FIELD:OPERATOR:v1|v2.
func parsePredicate(s string) (definition.Predicate, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return definition.Predicate{}, fmt.Errorf("bad predicate %q, want FIELD:OPERATOR:value[|value...]", s)
	}
	return definition.Predicate{
		Field:    parts[0],
		Operator: strings.ToUpper(parts[1]),
		Values:   strings.Split(parts[2], "|"),
	}, nil
}
