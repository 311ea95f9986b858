// Package definition creates report definitions through the
// ReportDefinitionService. The ids it returns feed the definition-based
// report download.
package definition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"adwords-report/naming"
	"adwords-report/report"
	"adwords-report/soap"
)

// Predicate restricts a selector field, e.g. AdGroupId EQUALS 123.
type Predicate struct {
	Field    string
	Operator string
	Values   []string
}

// Definition is a report definition to create.
type Definition struct {
	Name           string
	ReportType     string // e.g. KEYWORDS_PERFORMANCE_REPORT
	DateRangeType  string // CUSTOM_DATE when DateRange is set and this is empty
	DownloadFormat string // XML unless set
	Fields         []string
	Predicates     []Predicate
	DateRange      *DateRange
}

// Created is a report definition accepted by the service.
type Created struct {
	ID   string
	Name string
}

// Invoker sends an ordered request. *soap.Invoker implements it.
type Invoker interface {
	InvokeFields(ctx context.Context, operation string, request any) (report.Payload, error)
}

// Validate checks the fields the service requires.
func (d Definition) Validate() error {
	var errs []error
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if d.ReportType == "" {
		errs = append(errs, errors.New("report type is required"))
	}
	if len(d.Fields) == 0 {
		errs = append(errs, errors.New("at least one field is required"))
	}
	if d.DateRangeType == "CUSTOM_DATE" && d.DateRange == nil {
		errs = append(errs, errors.New("CUSTOM_DATE needs a date range"))
	}
	for i, p := range d.Predicates {
		if p.Field == "" || p.Operator == "" || len(p.Values) == 0 {
			errs = append(errs, fmt.Errorf("predicate %d is incomplete", i))
		}
	}
	return errors.Join(errs...)
}

// Operand returns the report definition in schema order.
func (d Definition) Operand() soap.Fields {
	selector := soap.Fields{{Name: "fields", Value: d.Fields}}
	if len(d.Predicates) > 0 {
		preds := make([]any, len(d.Predicates))
		for i, p := range d.Predicates {
			preds[i] = soap.Fields{
				{Name: "field", Value: p.Field},
				{Name: "operator", Value: p.Operator},
				{Name: "values", Value: p.Values},
			}
		}
		selector = append(selector, soap.Field{Name: "predicates", Value: preds})
	}
	rangeType := d.DateRangeType
	if d.DateRange != nil {
		selector = append(selector, soap.Field{Name: "dateRange", Value: soap.Fields{
			{Name: "min", Value: d.DateRange.Min},
			{Name: "max", Value: d.DateRange.Max},
		}})
		if rangeType == "" {
			rangeType = "CUSTOM_DATE"
		}
	}
	format := d.DownloadFormat
	if format == "" {
		format = "XML"
	}
	operand := soap.Fields{
		{Name: "selector", Value: selector},
		{Name: "reportName", Value: d.Name},
		{Name: "reportType", Value: d.ReportType},
	}
	if rangeType != "" {
		operand = append(operand, soap.Field{Name: "dateRangeType", Value: rangeType})
	}
	return append(operand, soap.Field{Name: "downloadFormat", Value: format})
}

// Add creates defs in a single mutate call. Field errors of the resulting
// fault name the failing definition through FieldError.OperationIndex.
func Add(ctx context.Context, inv Invoker, defs ...Definition) ([]Created, error) {
	if len(defs) == 0 {
		return nil, errors.New("definition: nothing to add")
	}
	ops := make([]any, len(defs))
	for i, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("definition %d (%s): %w", i, d.Name, err)
		}
		ops[i] = soap.Fields{
			{Name: "operator", Value: "ADD"},
			{Name: "operand", Value: d.Operand()},
		}
	}

	resp, err := inv.InvokeFields(ctx, "mutate", soap.Fields{{Name: "operations", Value: ops}})
	if err != nil {
		return nil, err
	}
	var out []Created
	for _, v := range soap.List(resp["rval"]) {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Created{ID: lookup(m, "id"), Name: lookup(m, "reportName")})
	}
	if len(out) != len(defs) {
		return out, &report.ProtocolError{Op: "mutate", Detail: fmt.Sprintf("expected %d report definitions, got %d", len(defs), len(out))}
	}
	return out, nil
}

// lookup reads a response field whatever naming style the invoker uses.
func lookup(m map[string]any, camel string) string {
	for _, k := range []string{camel, naming.ToSnake(camel)} {
		if s, ok := m[k].(string); ok {
			return s
		}
	}
	return ""
}
