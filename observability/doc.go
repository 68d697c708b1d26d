// Package observability provides OpenTelemetry tracing and metrics for
// wallet capabilities.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("walletctl"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "walletctl.Keystore")
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("walletctl"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("walletctl"))
//	metrics.RecordCall(ctx, "Keystore", observability.StatusOK, duration)
package observability
