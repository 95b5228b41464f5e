package telemetry

import (
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	attrDBSystem    = "db.system"
	attrDBTable     = "db.sql.table"
	attrDBOperation = "db.operation"
	attrDBStatement = "db.statement"
	attrDBRows      = "db.rows_affected"

	spanInstanceKey = "telemetry:span"
	statementLimit  = 500
)

func dbSystem(dialector string) string {
	if dialector == "postgres" {
		return "postgresql"
	}
	return dialector
}

// GORMTracingPlugin traces every statement with the global tracer provider
func GORMTracingPlugin() gorm.Plugin {
	return GORMTracingPluginWith(otel.GetTracerProvider())
}

// GORMTracingPluginWith traces statements with tp
func GORMTracingPluginWith(tp trace.TracerProvider) gorm.Plugin {
	return &tracingPlugin{tracer: tp.Tracer("carecircle/gorm")}
}

type tracingPlugin struct {
	tracer trace.Tracer
	system string
}

func (p *tracingPlugin) Name() string {
	return "telemetry:tracing"
}

func (p *tracingPlugin) Initialize(db *gorm.DB) error {
	p.system = dbSystem(db.Dialector.Name())
	cb := db.Callback()

	return errors.Join(
		cb.Create().Before("gorm:create").Register("telemetry:create_start", p.start("INSERT")),
		cb.Create().After("gorm:create").Register("telemetry:create_end", p.end),
		cb.Query().Before("gorm:query").Register("telemetry:query_start", p.start("SELECT")),
		cb.Query().After("gorm:query").Register("telemetry:query_end", p.end),
		cb.Update().Before("gorm:update").Register("telemetry:update_start", p.start("UPDATE")),
		cb.Update().After("gorm:update").Register("telemetry:update_end", p.end),
		cb.Delete().Before("gorm:delete").Register("telemetry:delete_start", p.start("DELETE")),
		cb.Delete().After("gorm:delete").Register("telemetry:delete_end", p.end),
		cb.Raw().Before("gorm:raw").Register("telemetry:raw_start", p.start("EXEC")),
		cb.Raw().After("gorm:raw").Register("telemetry:raw_end", p.end),
	)
}

// start opens a span named "<operation> <table>" under the statement context
func (p *tracingPlugin) start(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}

		name := operation
		attrs := []attribute.KeyValue{
			attribute.String(attrDBSystem, p.system),
			attribute.String(attrDBOperation, operation),
		}
		if table := db.Statement.Table; table != "" {
			name += " " + table
			attrs = append(attrs, attribute.String(attrDBTable, table))
		}

		_, span := p.tracer.Start(ctx, name,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attrs...),
		)
		db.InstanceSet(spanInstanceKey, span)
	}
}

func (p *tracingPlugin) end(db *gorm.DB) {
	value, ok := db.InstanceGet(spanInstanceKey)
	if !ok {
		return
	}
	span, ok := value.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	// the SQL keeps placeholders; bound values never reach the span
	if sql := db.Statement.SQL.String(); sql != "" {
		if len(sql) > statementLimit {
			sql = sql[:statementLimit] + "..."
		}
		span.SetAttributes(attribute.String(attrDBStatement, strings.TrimSpace(sql)))
	}
	span.SetAttributes(attribute.Int64(attrDBRows, db.RowsAffected))

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
}
