// Package seed loads tool inventories into a backend store.
package seed

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"toolroom/internal/devserver/store"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatText Format = "text"
)

func NewFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatCSV, FormatText:
		return f, nil
	default:
		return "", custom_error.NewValidationError("format", fmt.Sprintf("unknown format %q, use csv or text", value))
	}
}

// Parse reads tools from r in the given format.
func Parse(r io.Reader, format Format) ([]models.Tool, error) {
	if format == FormatText {
		return ParseText(r)
	}
	return ParseCSV(r)
}

// csvColumns maps accepted header names to the tool field they fill.
var csvColumns = map[string]func(t *models.Tool, v string) error{
	"tool_name":           func(t *models.Tool, v string) error { t.ToolName = v; return nil },
	"name":                func(t *models.Tool, v string) error { t.ToolName = v; return nil },
	"quantity":            setQuantity,
	"location":            func(t *models.Tool, v string) error { t.Location = v; return nil },
	"category":            func(t *models.Tool, v string) error { t.Category = v; return nil },
	"identification_code": func(t *models.Tool, v string) error { t.IdentificationCode = v; return nil },
	"gauge":               func(t *models.Tool, v string) error { t.Gauge = v; return nil },
	"make":                func(t *models.Tool, v string) error { t.Make = v; return nil },
	"range_mm":            func(t *models.Tool, v string) error { t.RangeMM = v; return nil },
	"description":         func(t *models.Tool, v string) error { t.Description = v; return nil },
	"remarks":             func(t *models.Tool, v string) error { t.Description = v; return nil },
}

func setQuantity(t *models.Tool, v string) error {
	if v == "" {
		return nil
	}
	qty, err := strconv.Atoi(v)
	if err != nil || qty < 0 {
		return fmt.Errorf("quantity %q is not a non-negative number", v)
	}
	t.Quantity = qty
	return nil
}

// ParseCSV reads a CSV file whose first row names the columns. Unknown
// columns are ignored, a tool name column is required.
func ParseCSV(r io.Reader) ([]models.Tool, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, custom_error.NewValidationError("file", "no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	setters := make([]func(*models.Tool, string) error, len(header))
	hasName := false
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		setters[i] = csvColumns[key]
		hasName = hasName || key == "tool_name" || key == "name"
	}
	if !hasName {
		return nil, custom_error.NewValidationError("file", "header has no tool_name column")
	}

	var tools []models.Tool
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		var tool models.Tool
		for i, value := range record {
			if i >= len(setters) || setters[i] == nil {
				continue
			}
			if err := setters[i](&tool, strings.TrimSpace(value)); err != nil {
				return nil, custom_error.NewValidationError("file", fmt.Sprintf("line %d: %s", line, err))
			}
		}
		if tool.ToolName == "" {
			return nil, custom_error.NewValidationError("file", fmt.Sprintf("line %d: tool name is empty", line))
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

var (
	textSeparator = regexp.MustCompile(`\t| {2,}`)
	nonDigits     = regexp.MustCompile(`[^0-9]`)
)

// ParseText reads a pasted inventory table, one tool per line with columns
// separated by tabs or runs of spaces:
//
//	Sl no, Item Description, Range in mm, Identification Code, Make, Quantity, Location, Gauge, Remarks
//
// Lines with fewer than three columns or without a numeric serial are
// skipped, which drops headers and notes. Quantities keep their digits only.
func ParseText(r io.Reader) ([]models.Tool, error) {
	var tools []models.Tool
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var cols []string
		for _, part := range textSeparator.Split(scanner.Text(), -1) {
			if part = strings.TrimSpace(part); part != "" {
				cols = append(cols, part)
			}
		}
		if len(cols) < 3 || !isSerial(cols[0]) {
			continue
		}

		col := func(i int) string {
			if i < len(cols) {
				return cols[i]
			}
			return ""
		}
		qty, _ := strconv.Atoi(nonDigits.ReplaceAllString(col(5), ""))
		tools = append(tools, models.Tool{
			ToolName:           col(1),
			RangeMM:            col(2),
			IdentificationCode: col(3),
			Make:               col(4),
			Quantity:           qty,
			Location:           col(6),
			Gauge:              col(7),
			Description:        col(8),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read inventory text: %w", err)
	}
	return tools, nil
}

func isSerial(s string) bool {
	s = strings.TrimSuffix(s, ".")
	_, err := strconv.Atoi(s)
	return err == nil
}

// Samples is a small inventory for trying the backend out.
func Samples() []models.Tool {
	return []models.Tool{
		{ToolName: "Vernier Caliper", Make: "Mitutoyo", RangeMM: "150", Location: "A1", Quantity: 10},
		{ToolName: "Micrometer", Make: "Starrett", RangeMM: "25", Location: "B2", Quantity: 5},
		{ToolName: "Dial Gauge", Make: "Baker", RangeMM: "10", Location: "C3", Quantity: 8},
		{ToolName: "Height Gauge", Make: "Mitutoyo", RangeMM: "300", Location: "D4", Quantity: 3},
	}
}

type Result struct {
	Created []models.Tool
	Skipped []string
}

// Import creates every tool whose name is not in the inventory yet. Names
// compare case-insensitively, repeats within tools are skipped as well.
func Import(ctx context.Context, st store.Store, tools []models.Tool, log *zap.Logger) (Result, error) {
	existing, err := st.ListTools(ctx, false)
	if err != nil {
		return Result{}, err
	}
	known := make(map[string]struct{}, len(existing)+len(tools))
	for _, t := range existing {
		known[strings.ToLower(t.ToolName)] = struct{}{}
	}

	var res Result
	for _, tool := range tools {
		key := strings.ToLower(tool.ToolName)
		if _, ok := known[key]; ok {
			log.Info("tool already in inventory, skipped", zap.String("tool_name", tool.ToolName))
			res.Skipped = append(res.Skipped, tool.ToolName)
			continue
		}
		tool.ID = 0
		if err := st.CreateTool(ctx, &tool); err != nil {
			return res, fmt.Errorf("import %q: %w", tool.ToolName, err)
		}
		known[key] = struct{}{}
		log.Debug("tool imported", zap.Int("tool_id", tool.ID), zap.String("tool_name", tool.ToolName))
		res.Created = append(res.Created, tool)
	}
	return res, nil
}
