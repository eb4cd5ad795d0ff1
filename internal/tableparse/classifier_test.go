package tableparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggi-susanto/fund-perfromance-analysis/internal/models"
)

func callTable() models.RawTable {
	return models.RawTable{
		Header: []string{"Call Date", "Call Type", "Amount", "Description"},
		Rows: [][]string{
			{"2024-01-15", "Regular Capital Call", "$1,000,000.00", "Q1 drawdown"},
			{"2024-03-20", "Regular Capital Call", "$2,500,000.00", "Q1 follow-on funding"},
		},
	}
}

func TestClassify(t *testing.T) {
	t.Run("capital call table", func(t *testing.T) {
		c := Classify(callTable())
		assert.Equal(t, KindCapitalCall, c.Kind)
	})

	t.Run("distribution table", func(t *testing.T) {
		c := Classify(models.RawTable{
			Header: []string{"Date", "Distribution Type", "Amount"},
			Rows: [][]string{
				{"2024-06-30", "Return of Capital", "$750,000.00"},
			},
		})
		assert.Equal(t, KindDistribution, c.Kind)
	})

	t.Run("adjustment outranks capital call vocabulary", func(t *testing.T) {
		// "capital call" appears in the rows, but adjustment language must
		// win: adjustment keywords carry double weight.
		c := Classify(models.RawTable{
			Header: []string{"Date", "Adjustment Type", "Amount"},
			Rows: [][]string{
				{"2024-02-01", "Rebalance of capital call", "($50,000.00)"},
			},
		})
		assert.Equal(t, KindAdjustment, c.Kind)
		assert.Greater(t, c.Scores[KindAdjustment], c.Scores[KindCapitalCall])
	})

	t.Run("type column in first data row drives classification", func(t *testing.T) {
		// Header alone is neutral; the leading Type cell decides.
		c := Classify(models.RawTable{
			Header: []string{"Date", "Type", "Amount"},
			Rows: [][]string{
				{"2024-06-30", "Annual Distribution", "$100,000.00"},
			},
		})
		assert.Equal(t, KindDistribution, c.Kind)
	})

	t.Run("no matching vocabulary yields Unknown not error", func(t *testing.T) {
		c := Classify(models.RawTable{
			Header: []string{"Employee", "Office", "Extension"},
			Rows: [][]string{
				{"J. Smith", "NYC", "x1234"},
			},
		})
		assert.Equal(t, KindUnknown, c.Kind)
	})

	t.Run("idempotent", func(t *testing.T) {
		table := callTable()
		first := Classify(table)
		for i := 0; i < 3; i++ {
			again := Classify(table)
			assert.Equal(t, first.Kind, again.Kind)
			assert.Equal(t, first.Columns, again.Columns)
			assert.Equal(t, first.Scores, again.Scores)
		}
	})
}

func TestMapColumns(t *testing.T) {
	t.Run("canonical headers", func(t *testing.T) {
		m := MapColumns([]string{"Call Date", "Type", "Amount", "Description"})
		assert.Equal(t, 0, m.Date)
		assert.Equal(t, 1, m.Type)
		assert.Equal(t, 2, m.Amount)
		assert.Equal(t, 3, m.Description)
	})

	t.Run("date and call date both map to date", func(t *testing.T) {
		require.Equal(t, 0, MapColumns([]string{"Date"}).Date)
		require.Equal(t, 0, MapColumns([]string{"Call Date"}).Date)
	})

	t.Run("recallable and category columns", func(t *testing.T) {
		m := MapColumns([]string{"Date", "Amount", "Recallable", "Category"})
		assert.Equal(t, 2, m.Recallable)
		assert.Equal(t, 3, m.Category)
	})

	t.Run("unmapped fields are -1", func(t *testing.T) {
		m := MapColumns([]string{"Foo", "Bar"})
		assert.Equal(t, -1, m.Date)
		assert.Equal(t, -1, m.Amount)
	})
}
