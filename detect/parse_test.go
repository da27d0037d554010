package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDelimited(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		sep      rune
		skip     int
		wantCols []string
		wantRows [][]string
		skipped  int
	}{
		{
			name:     "pipe with skipped preamble",
			text:     "Report\nGenerated 2024\nA|B\n1|2\n",
			sep:      '|',
			skip:     2,
			wantCols: []string{"A", "B"},
			wantRows: [][]string{{"1", "2"}},
		},
		{
			name:     "short rows padded",
			text:     "A\tB\tC\n1\n",
			sep:      '\t',
			wantCols: []string{"A", "B", "C"},
			wantRows: [][]string{{"1", "", ""}},
		},
		{
			name:     "wide rows skipped",
			text:     "A\tB\n1\t2\t3\n4\t5\n",
			sep:      '\t',
			wantCols: []string{"A", "B"},
			wantRows: [][]string{{"4", "5"}},
			skipped:  1,
		},
		{
			name:     "stray quotes tolerated",
			text:     "Item|Desc\n1|Tube 12\" long\n",
			sep:      '|',
			wantCols: []string{"Item", "Desc"},
			wantRows: [][]string{{"1", "Tube 12\" long"}},
		},
		{
			name:     "crlf line endings",
			text:     "A|B\r\n1|2\r\n",
			sep:      '|',
			wantCols: []string{"A", "B"},
			wantRows: [][]string{{"1", "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseDelimited(tt.text, tt.sep, tt.skip)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCols, res.Columns)
			assert.Equal(t, tt.wantRows, res.Rows)
			assert.Equal(t, tt.skipped, res.Skipped)
		})
	}
}

func TestParseDelimitedNoHeader(t *testing.T) {
	_, err := ParseDelimited("", '|', 0)
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = ParseDelimited("a\nb\n", '|', 5)
	assert.ErrorIs(t, err, ErrNoHeader)
}
