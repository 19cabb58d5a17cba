package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "bare array",
			raw:  `[{"a":1}]`,
			want: `[{"a":1}]`,
		},
		{
			name: "fenced array",
			raw:  "```json\n[{\"a\":1}]\n```",
			want: `[{"a":1}]`,
		},
		{
			name: "prose before and after",
			raw:  "Here are the findings:\n[1, 2, 3]\nLet me know!",
			want: `[1, 2, 3]`,
		},
		{
			name: "brackets inside strings ignored",
			raw:  `[{"evidence": "see [sic] the text ]"}]`,
			want: `[{"evidence": "see [sic] the text ]"}]`,
		},
		{
			name: "empty array",
			raw:  "[]",
			want: "[]",
		},
		{
			name:    "no array",
			raw:     "I found nothing to report.",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			raw:     `[{"a":1}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONArray(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeArrayFindings(t *testing.T) {
	raw := "Sure, here you go:\n```json\n" + `[
  {
    "location": "intro paragraph",
    "anchor_text": "the the result",
    "line_start": 3,
    "line_end": 3,
    "severity": "minor",
    "evidence": "duplicated word",
    "impact": "reads as a typo",
    "suggested_options": ["drop one 'the'"],
    "ambiguous": false
  }
]` + "\n```"

	findings, err := decodeArray[RawFinding](raw)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "the the result", findings[0].AnchorText)
	assert.Equal(t, "minor", findings[0].Severity)
	require.NotNil(t, findings[0].LineStart)
	assert.Equal(t, 3, *findings[0].LineStart)
}

func TestDecodeObjectReEvaluation(t *testing.T) {
	raw := `{"still_valid": false}`
	re, err := decodeObject[ReEvaluation](raw)
	require.NoError(t, err)
	assert.False(t, re.StillValid)
}

func TestDecodeObjectMalformed(t *testing.T) {
	_, err := decodeObject[ReEvaluation](`{"still_valid": `)
	assert.Error(t, err)
}
