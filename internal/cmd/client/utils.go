package client

import (
	"context"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	transports "github.com/CHESTERFIELD/simple-chat/internal/cmd/client/transports"
)

// grpcAddrFromEnv returns the gRPC server address from CHAT_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("CHAT_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:50051"
}

// dialGRPCContext creates a client for the chat gRPC endpoint with insecure
// transport for local/dev. The connection is established lazily on first use.
func dialGRPCContext(_ context.Context) (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func getTransport() transports.ChatTransport {
	// Only gRPC for now; the HTTP gateway could back an alternative.
	return transports.NewGrpcTransport(dialGRPCContext)
}

func formatCreated(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}
