package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	reg := Default()

	descs := reg.Descriptors()
	require.Len(t, descs, 13)
	assert.Equal(t, "raw_obj_pit", descs[0].Collection)
	assert.Equal(t, "subj_tim", descs[len(descs)-1].Collection)

	docType, ok := reg.TypeOf("obj_tim")
	require.True(t, ok)
	assert.Equal(t, TypeTIM, docType)

	_, ok = reg.TypeOf("notes")
	assert.False(t, ok)
	_, ok = reg.TypeOf("tba_team")
	assert.True(t, ok)

	assert.Equal(t, []string{"match_number", AllianceColorField}, reg.KeyFieldsOf(TypeAIM))
	assert.Equal(t, []string{"team_number", "path_number"}, reg.KeyFieldsOf(TypeAutoPaths))
	assert.Nil(t, reg.KeyFieldsOf(DocumentType("unknown")))

	assert.Equal(t, DocumentTypes(), reg.Types())
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	t.Parallel()

	reg := Default()

	fields := reg.KeyFieldsOf(TypeTIM)
	fields[0] = "mutated"
	assert.Equal(t, "match_number", reg.KeyFieldsOf(TypeTIM)[0])

	descs := reg.Descriptors()
	descs[0].Collection = "mutated"
	assert.Equal(t, "raw_obj_pit", reg.Descriptors()[0].Collection)
}

func TestNew(t *testing.T) {
	t.Parallel()

	keys := map[DocumentType][]string{TypeTeam: {"team_number"}}

	tests := []struct {
		name        string
		descriptors []Descriptor
		keyFields   map[DocumentType][]string
		wantErr     string
	}{
		{
			name:        "valid",
			descriptors: []Descriptor{{Collection: "obj_team", Type: TypeTeam}},
			keyFields:   keys,
		},
		{
			name:        "unknown type",
			descriptors: []Descriptor{{Collection: "obj_tim", Type: TypeTIM}},
			keyFields:   keys,
			wantErr:     "unknown document type",
		},
		{
			name: "duplicate collection",
			descriptors: []Descriptor{
				{Collection: "obj_team", Type: TypeTeam},
				{Collection: "obj_team", Type: TypeTeam},
			},
			keyFields: keys,
			wantErr:   "duplicate collection",
		},
		{
			name:        "empty collection name",
			descriptors: []Descriptor{{Type: TypeTeam}},
			keyFields:   keys,
			wantErr:     "collection name is required",
		},
		{
			name:        "empty key table",
			descriptors: nil,
			keyFields:   map[DocumentType][]string{TypeTeam: {}},
			wantErr:     "has no key fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reg, err := New(tt.descriptors, tt.keyFields)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, reg)
		})
	}
}

func TestIsStaticFileType(t *testing.T) {
	t.Parallel()

	assert.True(t, IsStaticFileType(StaticFileMatchSchedule))
	assert.True(t, IsStaticFileType(StaticFileTeamList))
	assert.False(t, IsStaticFileType("credentials"))
}
