package timetable

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("services/timetable")
