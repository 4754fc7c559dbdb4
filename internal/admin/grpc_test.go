package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestGRPCConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GRPCConfig
		wantErr bool
	}{
		{"valid", GRPCConfig{Address: "127.0.0.1:50051", MaxRecvMsgSize: 1, MaxSendMsgSize: 1}, false},
		{"empty address", GRPCConfig{MaxRecvMsgSize: 1, MaxSendMsgSize: 1}, true},
		{"no port", GRPCConfig{Address: "127.0.0.1", MaxRecvMsgSize: 1, MaxSendMsgSize: 1}, true},
		{"zero recv size", GRPCConfig{Address: "127.0.0.1:0", MaxSendMsgSize: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGRPCServerHealthLifecycle(t *testing.T) {
	srv, err := NewGRPCServer(&GRPCConfig{
		Address:        "127.0.0.1:0",
		MaxRecvMsgSize: 4 * 1024 * 1024,
		MaxSendMsgSize: 4 * 1024 * 1024,
	})
	require.NoError(t, err)
	require.NoError(t, srv.StartAsync())
	defer srv.Stop()
	assert.True(t, srv.IsRunning())
	assert.Error(t, srv.StartAsync(), "double start rejected")

	conn, err := grpc.NewClient(srv.Address(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status, "not ready until startup completes")

	srv.MarkReady()
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	srv.MarkNotReady()
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	srv.Stop()
	assert.False(t, srv.IsRunning())
}
