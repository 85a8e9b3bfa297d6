package syncer

import (
	"time"

	"ovpnsync/internal/types"
)

// Outcome is the result of one cycle. On failure Stage is the stage that
// failed and Err carries the tagged error.
type Outcome struct {
	Stage     types.Stage
	Address   string
	Recorded  string
	Changed   bool
	Published bool
	Target    string
	Err       error
	Started   time.Time
	Finished  time.Time
}

// Kind returns the error kind of the cycle, KindNone on success
func (o Outcome) Kind() types.ErrorKind {
	return types.KindOf(o.Err)
}

// OK reports whether the cycle completed
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Duration is the wall time of the cycle
func (o Outcome) Duration() time.Duration {
	return o.Finished.Sub(o.Started)
}

// stageKind is the kind assigned to untagged errors of a stage
func stageKind(stage types.Stage) types.ErrorKind {
	switch stage {
	case types.StageResolving:
		return types.KindResolution
	case types.StageReconciling:
		return types.KindConfigParsing
	case types.StagePublishing:
		return types.KindPublish
	}
	return types.KindUnknown
}
