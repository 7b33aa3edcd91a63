package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/mlagent/internal/registry/domain"
)

var testInfo = domain.ComposeAppInfo("app1", "rpk", "2")

func TestMap_Model(t *testing.T) {
	rec := map[string]any{
		"name":        "m1",
		"model":       "/opt/usr/globalapps/app1/res/global/rpk/m1.tflite",
		"description": "face detector",
		"activate":    "true",
		"clear":       "TRUE",
	}

	entry, err := Map(KindModel, rec, testInfo)
	require.NoError(t, err)
	require.Equal(t, ModelEntry{
		Name:          "m1",
		Path:          "/opt/usr/globalapps/app1/res/global/rpk/m1.tflite",
		Description:   "face detector",
		AppInfo:       testInfo,
		Active:        true,
		ClearPrevious: true,
	}, entry)
	require.Equal(t, KindModel, entry.Kind())
	require.Equal(t, "m1", entry.Key())
}

func TestMap_Model_Defaults(t *testing.T) {
	entry, err := Map(KindModel, map[string]any{"name": "m1", "model": "/p"}, testInfo)
	require.NoError(t, err)
	m := entry.(ModelEntry)
	require.Empty(t, m.Description)
	require.False(t, m.Active)
	require.False(t, m.ClearPrevious)
}

func TestMap_OptionalWrongTypeReadsEmpty(t *testing.T) {
	rec := map[string]any{"name": "r", "path": "/p", "description": json.Number("3")}
	entry, err := Map(KindResource, rec, testInfo)
	require.NoError(t, err)
	require.Empty(t, entry.(ResourceEntry).Description)
}

func TestMap_Pipeline(t *testing.T) {
	rec := map[string]any{"name": "p1", "description": `{"graph": "a ! b"}`, "clear": "true"}
	entry, err := Map(KindPipeline, rec, testInfo)
	require.NoError(t, err)
	require.Equal(t, PipelineEntry{Name: "p1", Description: `{"graph": "a ! b"}`}, entry)
}

func TestMap_Resource(t *testing.T) {
	rec := map[string]any{"name": "labels", "path": "/p/labels.txt", "clear": "True"}
	entry, err := Map(KindResource, rec, testInfo)
	require.NoError(t, err)
	require.Equal(t, ResourceEntry{
		Name:          "labels",
		Path:          "/p/labels.txt",
		AppInfo:       testInfo,
		ClearPrevious: true,
	}, entry)
}

func TestMap_Truthiness(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{value: "true", want: true},
		{value: "TrUe", want: true},
		{value: true, want: false},
		{value: "yes", want: false},
		{value: "1", want: false},
		{value: " true", want: false},
		{value: nil, want: false},
		{value: json.Number("1"), want: false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.value), func(t *testing.T) {
			rec := map[string]any{"name": "m", "model": "/p", "activate": tt.value}
			entry, err := Map(KindModel, rec, testInfo)
			require.NoError(t, err)
			require.Equal(t, tt.want, entry.(ModelEntry).Active)
		})
	}
}

func TestMap_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		kind   Kind
		rec    Record
		field  string
		reason string
	}{
		{name: "model missing path", kind: KindModel, rec: map[string]any{"name": "m"}, field: "model", reason: "is missing"},
		{name: "model missing name", kind: KindModel, rec: map[string]any{"model": "/p"}, field: "name", reason: "is missing"},
		{name: "model empty name", kind: KindModel, rec: map[string]any{"name": "", "model": "/p"}, field: "name", reason: "must not be empty"},
		{name: "model numeric name", kind: KindModel, rec: map[string]any{"name": json.Number("1"), "model": "/p"}, field: "name", reason: "must be a string"},
		{name: "pipeline missing description", kind: KindPipeline, rec: map[string]any{"name": "p"}, field: "description", reason: "is missing"},
		{name: "resource missing path", kind: KindResource, rec: map[string]any{"name": "r"}, field: "path", reason: "is missing"},
		{name: "not an object", kind: KindResource, rec: json.Number("7"), reason: "not an object"},
		{name: "array record", kind: KindModel, rec: []any{}, reason: "not an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Map(tt.kind, tt.rec, testInfo)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tt.kind, ve.Kind)
			require.Equal(t, tt.field, ve.Field)
			require.Contains(t, ve.Reason, tt.reason)
		})
	}
}

func TestMap_PipelineAllowsEmptyDescription(t *testing.T) {
	_, err := Map(KindPipeline, map[string]any{"name": "p", "description": ""}, testInfo)
	require.NoError(t, err)
}

func TestMap_EmptyPathsAreAccepted(t *testing.T) {
	entry, err := Map(KindModel, map[string]any{"name": "m", "model": ""}, testInfo)
	require.NoError(t, err)
	require.Empty(t, entry.(ModelEntry).Path)

	entry, err = Map(KindResource, map[string]any{"name": "r", "path": ""}, testInfo)
	require.NoError(t, err)
	require.Empty(t, entry.(ResourceEntry).Path)
}

func TestMap_UnknownKind(t *testing.T) {
	_, err := Map(Kind("plugin"), map[string]any{}, testInfo)
	require.Error(t, err)
	var ve *ValidationError
	require.False(t, errors.As(err, &ve), "unknown kinds are not record errors")
}

// TestMap_ActivateOnlyForCaseInsensitiveTrue checks truthiness over arbitrary strings.
func TestMap_ActivateOnlyForCaseInsensitiveTrue(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.OneOf(
			rapid.String(),
			rapid.SampledFrom([]string{"true", "TRUE", "True", "tRuE", "false", "truth"}),
		).Draw(rt, "activate")

		entry, err := Map(KindModel, map[string]any{"name": "m", "model": "/p", "activate": s}, testInfo)
		if err != nil {
			rt.Fatalf("Map: %v", err)
		}
		want := strings.ToLower(s) == "true"
		if got := entry.(ModelEntry).Active; got != want {
			rt.Fatalf("activate %q: got %v, want %v", s, got, want)
		}
	})
}

// TestParseAndMap_SkipsOnlyMalformed checks that an array of N records with M
// malformed ones yields exactly N-M entries.
func TestParseAndMap_SkipsOnlyMalformed(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		valid := rapid.SliceOf(rapid.Bool()).Draw(rt, "valid")

		var b strings.Builder
		b.WriteString("[")
		want := 0
		for i, ok := range valid {
			if i > 0 {
				b.WriteString(",")
			}
			if ok {
				want++
				fmt.Fprintf(&b, `{"name": "r%d", "path": "/p/%d"}`, i, i)
			} else {
				fmt.Fprintf(&b, `{"name": "r%d"}`, i)
			}
		}
		b.WriteString("]")

		records, err := decode([]byte(b.String()))
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		got := 0
		for _, rec := range records {
			if _, err := Map(KindResource, rec, testInfo); err == nil {
				got++
			}
		}
		if got != want {
			rt.Fatalf("mapped %d entries, want %d", got, want)
		}
	})
}
