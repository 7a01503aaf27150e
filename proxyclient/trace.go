package proxyclient

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// HeaderTraceparent 把调用方的 span 传给代理，便于在代理日志中按 trace 关联两轮请求。
const HeaderTraceparent = "Traceparent"

func injectTraceparent(ctx context.Context, req *http.Request) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	req.Header.Set(HeaderTraceparent, fmt.Sprintf("00-%s-%s-%s", sc.TraceID(), sc.SpanID(), sc.TraceFlags()))
}
