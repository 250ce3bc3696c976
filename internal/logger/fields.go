package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldSession is the structured log field key for the interview session id.
	FieldSession = "session_id"
	// FieldTrack is the structured log field key for the interview track.
	FieldTrack = "track"
	// FieldQuestion is the structured log field key for the 1-based question index.
	FieldQuestion = "question_index"
	FieldStage    = "stage"
	FieldLevel    = "level"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns standard zap fields that describe the AI provider and model.
// Empty values are ignored to keep log entries compact when information is missing.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the common AI fields to the provided logger.
// If the logger is nil, a no-op logger is created to avoid panics.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	fields := CommonFields(provider, model)
	return WithFields(logger, fields...)
}

// SessionFields returns the fields identifying an interview session.
func SessionFields(sessionID, track string) []zap.Field {
	return StringFields(
		StringField{Key: FieldSession, Value: sessionID},
		StringField{Key: FieldTrack, Value: track},
	)
}

// TurnFields describes where in the interview a log entry was written. Nil stage or level
// values are omitted.
func TurnFields(index int, stage, level fmt.Stringer) []zap.Field {
	fields := []zap.Field{zap.Int(FieldQuestion, index)}
	if stage != nil {
		fields = append(fields, zap.Stringer(FieldStage, stage))
	}
	if level != nil {
		fields = append(fields, zap.Stringer(FieldLevel, level))
	}
	return fields
}
