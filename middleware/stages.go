package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/walletkit/logger"
	"github.com/kbukum/walletkit/observability"
)

// Logging returns an untyped pass-through provider that logs both sides of
// each call to capability. Values are logged by type only; calls inside a
// span carry its trace id.
func Logging(log *logger.Logger, capability string) Factory[any, any] {
	return func() Stage[any, any] {
		return func(next Func[any, any]) Func[any, any] {
			return func(ctx context.Context, in any) (any, error) {
				l := log.WithContext(ctx)
				l.Debug("capability call", map[string]interface{}{
					logger.FieldCapability: capability,
					"input_type":           fmt.Sprintf("%T", in),
				})
				start := time.Now()
				out, err := next(ctx, in)
				fields := logger.DurationFields(capability, time.Since(start))
				fields[logger.FieldCapability] = capability
				if err != nil {
					fields[logger.FieldStatus] = observability.StatusError
					l.WithError(err).Error("capability call failed", fields)
				} else {
					fields[logger.FieldStatus] = observability.StatusOK
					fields["result_type"] = fmt.Sprintf("%T", out)
					l.Debug("capability call ok", fields)
				}
				return out, err
			}
		}
	}
}

// Tracing returns an untyped pass-through provider that wraps each call to
// capability in a span named "{service}.{capability}".
func Tracing(service, capability string) Factory[any, any] {
	spanName := service + "." + capability
	return func() Stage[any, any] {
		return func(next Func[any, any]) Func[any, any] {
			return func(ctx context.Context, in any) (any, error) {
				ctx, span := observability.StartSpan(ctx, spanName)
				defer span.End()

				observability.SetSpanAttribute(ctx, observability.AttrServiceName, service)
				observability.SetSpanAttribute(ctx, observability.AttrCapability, capability)

				out, err := next(ctx, in)
				status := observability.StatusOK
				if err != nil {
					status = observability.StatusError
					observability.SetSpanError(ctx, err)
				}
				observability.SetSpanAttribute(ctx, observability.AttrStatus, status)
				return out, err
			}
		}
	}
}

// Metrics returns an untyped pass-through provider that records call count,
// duration and errors for capability.
func Metrics(metrics *observability.Metrics, capability string) Factory[any, any] {
	return func() Stage[any, any] {
		return func(next Func[any, any]) Func[any, any] {
			return func(ctx context.Context, in any) (any, error) {
				start := time.Now()
				out, err := next(ctx, in)
				status := observability.StatusOK
				if err != nil {
					status = observability.StatusError
					metrics.RecordError(ctx, capability, errorKind(err))
				}
				metrics.RecordCall(ctx, capability, status, time.Since(start))
				return out, err
			}
		}
	}
}

func errorKind(err error) string {
	var typeErr *ProviderTypeError
	switch {
	case errors.Is(err, ErrMissingProvider):
		return "missing_provider"
	case errors.As(err, &typeErr):
		return "provider_type"
	default:
		return "provider"
	}
}
