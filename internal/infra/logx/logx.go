package logx

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options 控制日志输出格式与级别。
type Options struct {
	// Debug=true：Debug 级别 + 带 caller 的人类可读输出。
	Debug bool
	// Console=true：强制使用 ConsoleWriter（例如 stderr 是 TTY）。
	Console bool
	// Out 为空时写 os.Stderr。
	Out io.Writer
}

// New 构造根 logger：开发模式输出彩色控制台格式，其余情况输出 JSON 行。
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	if opts.Debug || opts.Console {
		w := zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
		ctx := zerolog.New(w).Level(level).With().Timestamp()
		if opts.Debug {
			ctx = ctx.Caller()
		}
		return ctx.Logger()
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// From 取出 ctx 上的 logger；没有时返回禁用的 logger（不会写任何东西）。
func From(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
