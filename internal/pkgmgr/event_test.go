package pkgmgr

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"id":"e1","category":"RPK","package_id":"app1","kind":"Install","phase":"COMPLETED","progress":100}`))
	require.NoError(t, err)
	require.Equal(t, LifecycleEvent{
		ID:        "e1",
		Category:  "RPK",
		PackageID: "app1",
		Kind:      KindInstall,
		Phase:     PhaseCompleted,
		Progress:  100,
	}, ev)
}

func TestDecodeEvent_Defaults(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"package_id":"app1","kind":"reinstall"}`))
	require.NoError(t, err)
	require.Equal(t, KindUnknown, ev.Kind)
	require.Equal(t, PhaseUnknown, ev.Phase)
	_, err = uuid.Parse(ev.ID)
	require.NoError(t, err, "a missing id is generated")
}

func TestDecodeEvent_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{name: "no package", data: `{"kind":"install"}`, want: ErrMissingPackageID},
		{name: "progress too high", data: `{"package_id":"a","progress":101}`, want: ErrInvalidProgress},
		{name: "negative progress", data: `{"package_id":"a","progress":-1}`, want: ErrInvalidProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(tt.data))
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := DecodeEvent([]byte(`{not json`))
	require.Error(t, err)
}

func TestLifecycleEvent_EncodeDecode(t *testing.T) {
	ev := NewEvent("rpk", "app1", KindUninstall, PhaseStarted)
	ev.Progress = 10
	ev.Error = "E_IO"

	data, err := ev.Encode()
	require.NoError(t, err)
	require.Contains(t, string(data), `"kind":"uninstall"`)
	require.Contains(t, string(data), `"phase":"started"`)

	back, err := DecodeEvent(data)
	require.NoError(t, err)
	require.Equal(t, ev, back)
}

func TestEventKind_IsValid(t *testing.T) {
	require.True(t, KindResourceCopy.IsValid())
	require.False(t, EventKind("move").IsValid())
	require.True(t, PhaseProcessing.IsValid())
	require.False(t, EventPhase("").IsValid())
}
