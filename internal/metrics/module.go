package metrics

import "go.uber.org/fx"

// Module provides the workflow metrics recorder.
var Module = fx.Options(
	fx.Provide(NewRecorder),
)
