package forms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegistryReturnsSameInstancePerOwnerAndForm(t *testing.T) {
	reg := NewRegistry()
	transport := &recordingTransport{}

	a := reg.Instance("session-a", ContactSchema, transport)
	require.Same(t, a, reg.Instance("session-a", ContactSchema, transport))
	require.NotSame(t, a, reg.Instance("session-b", ContactSchema, transport))
	require.NotSame(t, a, reg.Instance("session-a", QuoteSchema, transport))
	require.Equal(t, 3, reg.Len())
}

func TestRegistrySweepsExpiredIdleInstances(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reg := NewRegistry(WithTTL(time.Minute), WithClock(func() time.Time { return now }))
	transport := &recordingTransport{}

	first := reg.Instance("session-a", ContactSchema, transport)
	now = now.Add(2 * time.Minute)
	second := reg.Instance("session-b", ContactSchema, transport)

	require.Equal(t, 1, reg.Len())
	require.NotSame(t, first, reg.Instance("session-a", ContactSchema, transport))
	require.Same(t, second, reg.Instance("session-b", ContactSchema, transport))
}

func TestRegistryKeepsInFlightInstances(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reg := NewRegistry(WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	started := make(chan struct{})
	release := make(chan struct{})
	transport := TransportFunc(func(context.Context, *Schema, Submission) error {
		close(started)
		<-release
		return nil
	})

	inst := reg.Instance("session-a", ContactSchema, transport)
	done := make(chan error, 1)
	go func() { done <- inst.Submit(context.Background(), validContact()) }()
	<-started

	now = now.Add(time.Hour)
	require.Same(t, inst, reg.Instance("session-a", ContactSchema, transport))

	close(release)
	require.NoError(t, <-done)
}

func TestRegistryAppliesInstanceOptions(t *testing.T) {
	log := &transitionLog{}
	reg := NewRegistry(WithInstanceOptions(WithObserver(log)))
	inst := reg.Instance("s", ContactSchema, &recordingTransport{})

	require.NoError(t, inst.Submit(context.Background(), validContact()))
	require.Len(t, log.edges, 3)
}
