package updater

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/release-channels/internal/logger"
)

// Metadata keys carrying the caller identity.
const (
	actorHostnameKey = "x-actor-hostname"
	actorUsernameKey = "x-actor-username"
)

// Actor identifies who issued a command.
type Actor struct {
	// Hostname is the machine name where the command was issued.
	Hostname string
	// Username is the system user who issued the command.
	Username string
}

// String renders the actor as user@host.
func (a Actor) String() string {
	if a.Hostname == "" && a.Username == "" {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

// WithActor attaches the actor to outgoing call metadata.
func WithActor(ctx context.Context, a Actor) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		actorHostnameKey, a.Hostname,
		actorUsernameKey, a.Username,
	)
}

// ActorFromContext reads the actor from incoming call metadata.
func ActorFromContext(ctx context.Context) Actor {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return Actor{}
	}

	first := func(key string) string {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}

		return ""
	}

	return Actor{
		Hostname: first(actorHostnameKey),
		Username: first(actorUsernameKey),
	}
}

// LoggingInterceptor names the request logger after the method and actor and
// logs the outcome of every call.
func LoggingInterceptor(base context.Context) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = logger.ToContext(ctx, logger.FromContext(base))
		ctx = logger.WithKV(ctx, "method", info.FullMethod, "actor", ActorFromContext(ctx).String())

		started := time.Now()

		resp, err := handler(ctx, req)
		if err != nil {
			logger.WarnKV(ctx, "Command failed", "code", status.Code(err).String(), "error", err)
			return resp, err
		}

		logger.DebugKV(ctx, "Command completed", "duration", time.Since(started).String())

		return resp, nil
	}
}
