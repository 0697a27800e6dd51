package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAndValidateURLParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		paramValue string
		wantValue  string
		wantErrMsg string
	}{
		{name: "plain", paramValue: "obj_team", wantValue: "obj_team"},
		{name: "dashes", paramValue: "2024cave-practice", wantValue: "2024cave-practice"},
		{name: "encoded slash", paramValue: "obj%2Fteam", wantValue: "obj/team"},
		{name: "encoded space only", paramValue: "%20", wantErrMsg: "collectionName cannot be empty"},
		{name: "space in middle", paramValue: "obj%20team", wantErrMsg: "collectionName cannot contain whitespace"},
		{name: "tab at end", paramValue: "obj_team%09", wantErrMsg: "collectionName cannot contain whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			router := chi.NewRouter()
			router.Get("/{collectionName}", func(_ http.ResponseWriter, r *http.Request) {
				called = true
				value, err := GetAndValidateURLParam(r, "collectionName")
				if tt.wantErrMsg != "" {
					require.Error(t, err)
					assert.Equal(t, tt.wantErrMsg, err.Error())
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.wantValue, value)
			})

			req, err := http.NewRequest(http.MethodGet, "/"+tt.paramValue, nil)
			require.NoError(t, err)
			router.ServeHTTP(httptest.NewRecorder(), req)
			assert.True(t, called)
		})
	}

	t.Run("invalid encoding", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("eventKey", "2024%ZZ")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		_, err := GetAndValidateURLParam(req, "eventKey")
		require.Error(t, err)
		assert.Equal(t, "invalid URL encoding in eventKey", err.Error())
	})
}

func TestParseBoolQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		def     bool
		want    bool
		wantErr bool
	}{
		{raw: "", def: false, want: false},
		{raw: "", def: true, want: true},
		{raw: "true", want: true},
		{raw: "TRUE", want: true},
		{raw: "1", want: true},
		{raw: "false", def: true, want: false},
		{raw: "0", def: true, want: false},
		{raw: "maybe", wantErr: true},
		{raw: "2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			query := url.Values{}
			if tt.raw != "" {
				query.Set("use_strings", tt.raw)
			}
			got, err := ParseBoolQuery(query, "use_strings", tt.def)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "use_strings")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryList(t *testing.T) {
	t.Parallel()

	query, err := url.ParseQuery("itsd=a&itsd=b&itsd=&itsd=a&itsc=obj_tim")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, QueryList(query, "itsd"))
	assert.Equal(t, []string{"obj_tim"}, QueryList(query, "itsc"))
	assert.Empty(t, QueryList(query, "ignored_collections"))
}
