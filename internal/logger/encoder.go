package logger

import (
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// blockEncoder indents continuation lines of multi-line messages so they
// line up under the message column after the timestamp.
type blockEncoder struct {
	zapcore.Encoder
	indent string
}

func newBlockEncoder(enc zapcore.Encoder, width int) zapcore.Encoder {
	return &blockEncoder{Encoder: enc, indent: strings.Repeat(" ", width)}
}

func (e *blockEncoder) Clone() zapcore.Encoder {
	return &blockEncoder{Encoder: e.Encoder.Clone(), indent: e.indent}
}

func (e *blockEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if strings.Contains(ent.Message, "\n") {
		ent.Message = strings.ReplaceAll(ent.Message, "\n", "\n"+e.indent)
	}
	return e.Encoder.EncodeEntry(ent, fields)
}
