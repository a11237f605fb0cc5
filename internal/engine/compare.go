package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// ComparisonScenario defines a named table and settings pair to compare.
type ComparisonScenario struct {
	Name     string
	Table    model.LoadFactorTable
	Settings model.Settings
}

// ComparisonResult holds the pipeline result and summary figures for a
// single scenario.
type ComparisonResult struct {
	Scenario     ComparisonScenario
	Result       model.Result
	RoomCount    int
	UnknownCount int
	TotalLoad    float64
}

// CompareScenarios runs the same entity stream through each scenario and
// returns the results in scenario order.
func CompareScenarios(scenarios []ComparisonScenario, entities []model.DrawingEntity, logger *zap.Logger) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		proc := NewProcessor(scenario.Table, scenario.Settings, logger)
		result := proc.ProcessEntities(entities)

		unknown := 0
		for _, r := range result.Rooms {
			if r.Name == UnknownRoomName {
				unknown++
			}
		}

		results = append(results, ComparisonResult{
			Scenario:     scenario,
			Result:       result,
			RoomCount:    len(result.Rooms),
			UnknownCount: unknown,
			TotalLoad:    result.TotalLoad,
		})
	}

	return results
}

// BuildDefaultScenarios generates what-if alternatives around the current
// table and settings.
func BuildDefaultScenarios(table model.LoadFactorTable, base model.Settings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{Name: "Current Settings", Table: table, Settings: base},
	}

	// Built-in factors, when a custom table is loaded
	builtin := model.DefaultLoadFactorTable()
	if !sameTable(table, builtin) {
		scenarios = append(scenarios, ComparisonScenario{Name: "Built-in Factors", Table: builtin, Settings: base})
	}

	// Toggle line chaining
	chain := base
	chain.ChainLines = !base.ChainLines
	name := "Chain Loose Lines"
	if base.ChainLines {
		name = "Polylines Only"
	}
	scenarios = append(scenarios, ComparisonScenario{Name: name, Table: table, Settings: chain})

	// Ignore small rooms such as cupboards and shafts
	if base.MinRoomArea < 4 {
		strict := base
		strict.MinRoomArea = 4
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Min Room Area %.0f m²", strict.MinRoomArea),
			Table:    table,
			Settings: strict,
		})
	}

	return scenarios
}

func sameTable(a, b model.LoadFactorTable) bool {
	ea, eb := a.Entries(), b.Entries()
	if len(ea) != len(eb) {
		return false
	}
	for code, f := range ea {
		if g, ok := eb[code]; !ok || g != f {
			return false
		}
	}
	return true
}
