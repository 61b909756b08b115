package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRevalidationServiceBroadcastsToMatchingScopes(t *testing.T) {
	svc := NewRevalidationService(nil, nil, "", testLogger())

	all, cleanupAll := svc.Subscribe(ScopeAll)
	defer cleanupAll()
	student, cleanupStudent := svc.Subscribe("applications:student:7")
	defer cleanupStudent()

	svc.Invalidate(context.Background(), "applications:student:7", "applications:staff")

	event := <-student
	require.Equal(t, "applications:student:7", event.Scope)
	require.False(t, event.EmittedAt.IsZero())

	first := <-all
	second := <-all
	require.ElementsMatch(t, []string{"applications:student:7", "applications:staff"}, []string{first.Scope, second.Scope})

	select {
	case extra := <-student:
		t.Fatalf("unexpected event for scope %s", extra.Scope)
	default:
	}
}

func TestRevalidationServiceUnsubscribeClosesChannel(t *testing.T) {
	svc := NewRevalidationService(nil, nil, "", testLogger())

	stream, cleanup := svc.Subscribe("dashboard:staff")
	cleanup()

	_, open := <-stream
	require.False(t, open)
}

func TestRevalidationServiceIgnoresBlankScopes(t *testing.T) {
	svc := NewRevalidationService(nil, nil, "", testLogger())

	stream, cleanup := svc.Subscribe(ScopeAll)
	defer cleanup()

	svc.Invalidate(context.Background(), "", "   ")

	select {
	case event := <-stream:
		t.Fatalf("unexpected event for scope %q", event.Scope)
	default:
	}
}

func TestRevalidationServiceDropsCachedView(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	require.NoError(t, server.Set("dashboard:staff", `{"stale":true}`))

	svc := NewRevalidationService(client, nil, "siakad", testLogger())
	svc.Invalidate(context.Background(), "dashboard:staff")

	require.False(t, server.Exists("dashboard:staff"), "stale cached view must be deleted")
}

func TestRevalidationServiceFansOutAcrossNodes(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	clientA := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer clientA.Close()
	clientB := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer clientB.Close()

	publisher := NewRevalidationService(clientA, nil, "siakad", testLogger())
	consumer := NewRevalidationService(clientB, nil, "siakad", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, cleanup := consumer.Subscribe(ScopeAll)
	defer cleanup()
	consumer.Start(ctx)

	// The consumer subscription is established asynchronously, so publish
	// until an event makes it across.
	require.Eventually(t, func() bool {
		publisher.Invalidate(context.Background(), "applications:staff")
		select {
		case event := <-stream:
			return event.Scope == "applications:staff"
		default:
			return false
		}
	}, 3*time.Second, 50*time.Millisecond)
}

func TestScopeKind(t *testing.T) {
	require.Equal(t, "applications", scopeKind("applications:student:7"))
	require.Equal(t, "dashboard", scopeKind("dashboard:staff"))
	require.Equal(t, "*", scopeKind("*"))
}
