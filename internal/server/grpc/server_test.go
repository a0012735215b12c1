package grpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/logging"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type nopLogger struct{}

func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type fakeTracker struct {
	mu      sync.Mutex
	view    tracker.View
	syncErr error
	syncs   int
}

func (f *fakeTracker) View() tracker.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

func (f *fakeTracker) Sync(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs++
	return f.syncErr
}

func startServer(t *testing.T, tr Tracker, apiToken string) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	srv := NewGRPCServer("bufnet", nopLogger{}, tr, apiToken)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return conn
}

func testView() tracker.View {
	return tracker.View{
		Snapshot: models.Snapshot{
			Trucks: []models.Truck{{ID: "10", Plate: "ABC-1234", SiteID: "P1"}},
			Users:  []models.User{{ID: "30", Login: "ana", Password: "pw"}},
		},
		Session: &models.User{ID: "30", Login: "ana", AccessLevel: models.AccessOperator},
		Version: 3,
	}
}

func TestSnapshot(t *testing.T) {
	conn := startServer(t, &fakeTracker{view: testView()}, "")

	out, err := NewTrackerClient(conn).Snapshot(context.Background())
	require.NoError(t, err)

	m := out.AsMap()
	assert.Equal(t, "idle", m["state"])
	assert.Equal(t, 3.0, m["version"])
	session := m["session"].(map[string]any)
	assert.Equal(t, "ana", session["login"])

	snap := m["snapshot"].(map[string]any)
	trucks := snap["trucks"].([]any)
	require.Len(t, trucks, 1)
	assert.Equal(t, "ABC-1234", trucks[0].(map[string]any)["plate"])
	users := snap["users"].([]any)
	assert.NotContains(t, users[0].(map[string]any), "password")
}

func TestSync(t *testing.T) {
	ft := &fakeTracker{view: testView()}
	conn := startServer(t, ft, "")

	out, err := NewTrackerClient(conn).Sync(context.Background())
	require.NoError(t, err)
	counts := out.AsMap()["counts"].(map[string]any)
	assert.Equal(t, 1.0, counts["trucks"])
	assert.Equal(t, 1, ft.syncs)
}

func TestSync_ErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"auth", &tracker.SyncError{Stage: tracker.StageToken, Err: assert.AnError}, codes.Unauthenticated},
		{"fetch", &tracker.SyncError{Stage: tracker.StageFetch, Collection: models.KindLoad, Err: assert.AnError}, codes.Unavailable},
		{"other", assert.AnError, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := startServer(t, &fakeTracker{syncErr: tt.err}, "")
			_, err := NewTrackerClient(conn).Sync(context.Background())
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestSync_RequiresAPIToken(t *testing.T) {
	ft := &fakeTracker{}
	conn := startServer(t, ft, "s3cret")
	client := NewTrackerClient(conn)

	_, err := client.Sync(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bad := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer nope")
	_, err = client.Sync(bad)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	good := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer s3cret")
	_, err = client.Sync(good)
	require.NoError(t, err)
	assert.Equal(t, 1, ft.syncs)

	_, err = client.Snapshot(context.Background())
	assert.NoError(t, err, "reads stay open")
}

func TestHealth(t *testing.T) {
	conn := startServer(t, &fakeTracker{}, "")

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", nopLogger{}, &fakeTracker{}, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", nopLogger{}, &fakeTracker{}, "")
	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}
