package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rows []string

func (r rows) Table() Data {
	data := Data{Headers: []string{"CODE"}}
	for _, v := range r {
		data.Rows = append(data.Rows, []string{v})
	}
	return data
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		format Format
		data   any
		want   []string
	}{
		{FormatJSON, map[string]int{"written": 2}, []string{`"written": 2`}},
		{FormatYAML, map[string][]string{"codes": {"07", "12"}}, []string{"codes:", "07", "12"}},
		{FormatTable, rows{"07", "12"}, []string{"CODE", "07", "12"}},
		{FormatTable, Data{Headers: []string{"NAME"}, Rows: [][]string{{"Mazowieckie"}}}, []string{"NAME", "Mazowieckie"}},
		{FormatTable, map[string]int{"written": 2}, []string{`"written": 2`}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewFormatter(tt.format).Format(&buf, tt.data))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)

	assert.Equal(t, FormatYAML, DetectFormat("yaml"))
}
