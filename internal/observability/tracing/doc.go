// Package tracing provides the OpenTelemetry tracer shared by the
// orchestrator: one span per run, nested with one span per gatherer branch.
//
//	ctx, span := tracing.GetTracer().Start(ctx, "orchestrator.run")
//	defer span.End()
package tracing
