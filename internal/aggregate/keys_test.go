package aggregate

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citruscircuits/grosbeak/internal/registry"
)

func TestExtractKey(t *testing.T) {
	t.Parallel()

	reg := registry.Default()

	tests := []struct {
		name     string
		docType  registry.DocumentType
		record   Record
		wantKey  []string
		wantBody Record
	}{
		{
			name:     "team by number",
			docType:  registry.TypeTeam,
			record:   Record{"team_number": 254, "opr": 10.5},
			wantKey:  []string{"254"},
			wantBody: Record{"opr": 10.5},
		},
		{
			name:     "tim keeps key order",
			docType:  registry.TypeTIM,
			record:   Record{"team_number": "1678", "match_number": json.Number("12"), "auto_pieces": 3},
			wantKey:  []string{"12", "1678"},
			wantBody: Record{"auto_pieces": 3},
		},
		{
			name:     "aim red alliance",
			docType:  registry.TypeAIM,
			record:   Record{"match_number": 3, registry.AllianceColorField: true, "score": 120},
			wantKey:  []string{"3", "red"},
			wantBody: Record{"score": 120},
		},
		{
			name:     "aim blue alliance",
			docType:  registry.TypeAIM,
			record:   Record{"match_number": 3, registry.AllianceColorField: false},
			wantKey:  []string{"3", "blue"},
			wantBody: Record{},
		},
		{
			name:     "whole float renders without fraction",
			docType:  registry.TypeAlliance,
			record:   Record{"alliance_num": 4.0, "picks": []any{"254", "1678"}},
			wantKey:  []string{"4"},
			wantBody: Record{"picks": []any{"254", "1678"}},
		},
		{
			name:     "auto paths",
			docType:  registry.TypeAutoPaths,
			record:   Record{"team_number": 971, "path_number": 2, "_id": "abc"},
			wantKey:  []string{"971", "2"},
			wantBody: Record{"_id": "abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			key, body, err := ExtractKey(reg, tt.docType, tt.record)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestExtractKey_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	record := Record{"team_number": 254, "opr": 1}
	_, body, err := ExtractKey(registry.Default(), registry.TypeTeam, record)
	require.NoError(t, err)

	assert.Contains(t, record, "team_number")
	assert.NotContains(t, body, "team_number")
}

func TestExtractKey_MissingField(t *testing.T) {
	t.Parallel()

	record := Record{"_id": "65a1", "match_number": 7}
	_, _, err := ExtractKey(registry.Default(), registry.TypeTIM, record)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingKeyField))

	var missing *MissingKeyFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, registry.TypeTIM, missing.Type)
	assert.Equal(t, "team_number", missing.Field)
	assert.Equal(t, "65a1", missing.RecordID)
	assert.Contains(t, err.Error(), `missing key field "team_number"`)
}

func TestExtractKey_UnknownType(t *testing.T) {
	t.Parallel()

	_, _, err := ExtractKey(registry.Default(), registry.DocumentType("notes"), Record{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingKeyField))
}

func TestRenderKeyComponent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value any
		want  string
	}{
		{value: "frc254", want: "frc254"},
		{value: 254, want: "254"},
		{value: int64(-3), want: "-3"},
		{value: uint8(7), want: "7"},
		{value: 254.0, want: "254"},
		{value: 2.5, want: "2.5"},
		{value: float32(1.5), want: "1.5"},
		{value: json.Number("1678"), want: "1678"},
		{value: true, want: "true"},
		{value: nil, want: "null"},
		{value: []any{1, 2}, want: "[1,2]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RenderKeyComponent(tt.value), "value %#v", tt.value)
	}
}

func TestAllianceColor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "red", allianceColor(true))
	assert.Equal(t, "blue", allianceColor(false))
	assert.Equal(t, "red", allianceColor(1))
	assert.Equal(t, "blue", allianceColor(0))
	assert.Equal(t, "blue", allianceColor(json.Number("0")))
	assert.Equal(t, "blue", allianceColor(nil))
	assert.Equal(t, "red", allianceColor("yes"))
}
