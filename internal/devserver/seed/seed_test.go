package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"toolroom/internal/devserver/store"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/models"
)

func TestParseCSV(t *testing.T) {
	input := "Tool_Name,quantity,location,range_mm,Remarks,unused\n" +
		"Vernier Caliper,10,A1,150,calibrated,x\n" +
		"\"Gauge, bore\",,B2,,,\n"

	tools, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, models.Tool{ToolName: "Vernier Caliper", Quantity: 10, Location: "A1", RangeMM: "150", Description: "calibrated"}, tools[0])
	assert.Equal(t, "Gauge, bore", tools[1].ToolName)
	assert.Zero(t, tools[1].Quantity)
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"empty file", "", "no header row"},
		{"no name column", "quantity,location\n1,A\n", "no tool_name column"},
		{"bad quantity", "name,quantity\nDrill,many\n", "line 2: quantity"},
		{"negative quantity", "name,quantity\nDrill,-1\n", "line 2: quantity"},
		{"empty name", "name,quantity\nDrill,1\n,2\n", "line 3: tool name is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, custom_error.IsValidation(err), err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseText(t *testing.T) {
	input := strings.Join([]string{
		"Sl no\tItem Description\tRange in mm\tIdentification Code\tMake\tQuantity\tLocation\tGauge\tRemarks",
		"",
		"1\tOutside Micrometer\t0-25\tOM-01\tMitutoyo\t4 nos\tRack A\tM6\tnew",
		"2.   Dial Gauge   0-10   DG-7",
		"note: two columns",
	}, "\n")

	tools, err := ParseText(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, models.Tool{
		ToolName: "Outside Micrometer", RangeMM: "0-25", IdentificationCode: "OM-01", Make: "Mitutoyo",
		Quantity: 4, Location: "Rack A", Gauge: "M6", Description: "new",
	}, tools[0])
	assert.Equal(t, "Dial Gauge", tools[1].ToolName)
	assert.Equal(t, "DG-7", tools[1].IdentificationCode)
	assert.Zero(t, tools[1].Quantity)
}

func TestNewFormat(t *testing.T) {
	f, err := NewFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = NewFormat("xlsx")
	assert.True(t, custom_error.IsValidation(err))
}

func TestImportSkipsKnownNames(t *testing.T) {
	st := store.NewMemory(nil)
	ctx := context.Background()
	require.NoError(t, st.CreateTool(ctx, &models.Tool{ToolName: "Micrometer", Quantity: 1}))

	res, err := Import(ctx, st, append(Samples(), models.Tool{ToolName: "vernier caliper"}), zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, res.Created, 3)
	assert.Equal(t, []string{"Micrometer", "vernier caliper"}, res.Skipped)

	list, err := st.ListTools(ctx, false)
	require.NoError(t, err)
	assert.Len(t, list, 4)
	assert.NotZero(t, res.Created[0].ID)
}
