package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  Kind
	}{
		{"definition outranks a bare metric mention", "What does DPI mean?", Definition},
		{"explicit calculation verb", "Calculate the DPI for this fund", Calculation},
		{"how much is a calculation", "How much has been drawn down so far?", Calculation},
		{"calculation plus definition is mixed", "Calculate DPI and explain what it means", Mixed},
		{"calculation plus retrieval is mixed", "What is the DPI and list the distributions?", Mixed},
		{"listing transactions is retrieval", "List the capital calls from the latest report", Retrieval},
		{"date range phrasing is retrieval", "What happened in 2024?", Retrieval},
		{"quarter phrasing is retrieval", "Summarize Q3 activity", Retrieval},
		{"no vocabulary hit defaults to retrieval", "Tell me about the fund", Retrieval},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.query))
		})
	}
}

func TestKindPaths(t *testing.T) {
	t.Run("needs metrics", func(t *testing.T) {
		assert.True(t, Calculation.NeedsMetrics())
		assert.True(t, Mixed.NeedsMetrics())
		assert.False(t, Definition.NeedsMetrics())
		assert.False(t, Retrieval.NeedsMetrics())
	})

	t.Run("needs retrieval", func(t *testing.T) {
		assert.True(t, Retrieval.NeedsRetrieval())
		assert.True(t, Definition.NeedsRetrieval())
		assert.True(t, Mixed.NeedsRetrieval())
		assert.False(t, Calculation.NeedsRetrieval())
	})
}
