package logbridge_test

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/openfroyo/chassis/pkg/logbridge"
)

func ExampleBridge_Log() {
	logger := zerolog.New(os.Stdout)
	bridge := logbridge.New(logger, logbridge.WithWalker(logbridge.NewWalker("/app", logbridge.DefaultMaxDepth)))

	frames := logbridge.FrameList{
		{Source: "<builtin>"},
		{Source: "@/app/scripts/pool.star", Line: 7},
	}
	bridge.Log(frames, logbridge.SeverityWarning, "pool exhausted")
	// Output:
	// {"level":"warn","severity":"warning","source":"scripts/pool.star","line":7,"attribution_fallback":false,"message":"(scripts/pool.star:7) pool exhausted"}
}
