package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestNew_JSONByDefault(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Out: &buf})
	l.Debug().Msg("hidden")
	l.Info().Str("source", "ovita").Msg("done")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("Info 级别下 Debug 不应输出，实际 %d 行：%s", len(lines), buf.String())
	}
	var m map[string]any
	if err := json.Unmarshal(lines[0], &m); err != nil {
		t.Fatalf("期望 JSON 行：%v", err)
	}
	if m["source"] != "ovita" || m["message"] != "done" || m["level"] != "info" {
		t.Fatalf("字段错误：%v", m)
	}
}

func TestNew_DebugConsole(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Debug: true, Out: &buf})
	l.Debug().Msg("visible")
	if !bytes.Contains(buf.Bytes(), []byte("visible")) {
		t.Fatalf("Debug 模式应输出 debug 日志：%q", buf.String())
	}
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Fatalf("Debug 模式应为控制台格式，而不是 JSON：%q", buf.String())
	}
}

func TestFrom_ContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Out: &buf})
	ctx := l.WithContext(context.Background())
	From(ctx).Info().Msg("ctx")
	if !bytes.Contains(buf.Bytes(), []byte(`"message":"ctx"`)) {
		t.Fatalf("ctx 上的 logger 应写入同一输出：%q", buf.String())
	}

	// 未挂载 logger 的 ctx 返回禁用 logger，调用不应 panic。
	From(context.Background()).Info().Msg("dropped")
}
