package appmanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlGetAndHead(t *testing.T) {
	manifest := NewManifest(4)
	require.NoError(t, manifest.Insert(&Application{Name: "System"}))
	require.NoError(t, manifest.Insert(&Application{Name: "Simple"}))

	sup, cancel := newTestSupervisor(t, manifest)
	defer cancel()
	ctl := NewControl(manifest, sup)

	got, err := ctl.Get("Simple")
	require.NoError(t, err)
	assert.Equal(t, "Simple", got.Name)

	assert.Equal(t, "System", ctl.Head().Name)
}

func TestControlCurrentSlotIDDefaultsToInternal(t *testing.T) {
	manifest := NewManifest(4)
	sup, cancel := newTestSupervisor(t, manifest)
	defer cancel()
	ctl := NewControl(manifest, sup)

	assert.Equal(t, InternalAppSlotID, ctl.CurrentSlotID())
}

func TestControlStartQuitsOutgoingThenStartsNext(t *testing.T) {
	manifest := NewManifest(4)
	aStarted := make(chan struct{})
	aQuit := make(chan struct{})
	require.NoError(t, manifest.Insert(&Application{
		Name:       "A",
		IsInternal: true,
		EntryPoint: func(ctx context.Context, appCtx *AppContext) {
			close(aStarted)
			appCtx.Router.RunEventLoop(ctx, appCtx)
			close(aQuit)
		},
	}))
	bStarted := make(chan struct{})
	require.NoError(t, manifest.Insert(&Application{
		Name:       "B",
		IsInternal: true,
		EntryPoint: func(ctx context.Context, appCtx *AppContext) {
			close(bStarted)
			<-ctx.Done()
		},
	}))

	sup, cancel := newTestSupervisor(t, manifest)
	defer cancel()
	ctl := NewControl(manifest, sup)

	require.NoError(t, ctl.Start("A"))
	<-aStarted

	require.NoError(t, ctl.Start("B"))

	select {
	case <-aQuit:
	case <-time.After(time.Second):
		t.Fatal("A's event loop never unwound after Start(\"B\")")
	}
	select {
	case <-bStarted:
	case <-time.After(time.Second):
		t.Fatal("B never started")
	}
}
