package httpcontext

import (
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/kanban/pkg/logger"
)

func TestAttachPropagatesRequestMetadata(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("X-Request-ID", "req-42")
	ctx.Request.Header.Set(HeaderUserID, " u1 ")
	ctx.Request.Header.SetUserAgent("kanban-test")

	stdCtx, cancel := NewAdapter(time.Second).Attach(ctx)
	defer cancel()

	if got := appLogger.RequestID(stdCtx); got != "req-42" {
		t.Fatalf("request id = %q", got)
	}
	if got := string(ctx.Response.Header.Peek("X-Request-ID")); got != "req-42" {
		t.Fatalf("response header = %q", got)
	}
	if got := UserIDFromContext(stdCtx); got != "u1" {
		t.Fatalf("user id = %q", got)
	}
	if got, _ := stdCtx.Value(KeyUserAgent).(string); got != "kanban-test" {
		t.Fatalf("user agent = %q", got)
	}
	if _, ok := stdCtx.Deadline(); !ok {
		t.Fatal("expected a deadline")
	}
}

func TestAttachGeneratesRequestID(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	stdCtx, cancel := NewAdapter(0).Attach(ctx)
	defer cancel()
	if appLogger.RequestID(stdCtx) == "" {
		t.Fatal("expected a generated request id")
	}
	if UserIDFromContext(stdCtx) != "" || UserID(nil) != "" {
		t.Fatal("expected no user")
	}
}
