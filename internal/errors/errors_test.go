package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())

	err = Newf("formatted %s", "error")
	assert.NotNil(t, err)
	assert.Equal(t, "formatted error", err.Error())

	var appErr *ApplicationError
	assert.True(t, As(err, &appErr))
	assert.Equal(t, Unknown, appErr.Kind())
}

func TestWrapping(t *testing.T) {
	origErr := New("original error")
	wrappedErr := Wrap(origErr, "wrapped")
	assert.Equal(t, "wrapped: original error", wrappedErr.Error())
	assert.Equal(t, origErr, Unwrap(wrappedErr))

	wrappedFormatted := Wrapf(origErr, "formatted %s", "wrapper")
	assert.Equal(t, "formatted wrapper: original error", wrappedFormatted.Error())

	assert.Nil(t, Wrap(nil, "wrapper"))
	assert.Nil(t, Wrapf(nil, "formatted %s", "wrapper"))

	deepWrapped := Wrap(wrappedErr, "deeper")
	assert.Equal(t, "deeper: wrapped: original error", deepWrapped.Error())
	assert.True(t, Is(deepWrapped, origErr))
}

func TestExtractionError(t *testing.T) {
	cause := fmt.Errorf("zip: not a valid zip file")
	err := NewExtractionError("/books/a.epub", Malformed, cause)

	assert.Equal(t, "extraction failed (malformed): /books/a.epub: zip: not a valid zip file", err.Error())
	assert.Equal(t, "/books/a.epub", err.Path())
	assert.Equal(t, Malformed, err.Reason())
	assert.Equal(t, ExtractionFailed, err.Kind())
	assert.Equal(t, cause, Unwrap(err))

	assert.True(t, IsExtraction(err))
	assert.False(t, IsMove(err))
	assert.False(t, IsTokenization(err))
}

func TestFileErrorsSurviveWrapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		is     func(error) bool
		reason Reason
		kind   ErrorKind
	}{
		{"extraction", NewExtractionError("a.epub", Empty, nil), IsExtraction, Empty, ExtractionFailed},
		{"tokenization", NewTokenizationError("a.epub", errors.New("boom")), IsTokenization, TokenizerFailure, TokenizationFailed},
		{"move", NewMoveError("a.epub", SourceMissing, nil), IsMove, SourceMissing, MoveFailed},
		{"report", NewReportWriteError("r.csv", Unwritable, nil), IsReportWrite, Unwritable, ReportWriteFailed},
		{"config", NewConfigError("source directory does not exist", "/nope", SourceInvalid, nil), IsConfiguration, SourceInvalid, InvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("processing: %w", tt.err)
			assert.True(t, tt.is(wrapped))
			assert.Equal(t, tt.reason, ReasonOf(wrapped))
			assert.Equal(t, tt.kind, KindOf(wrapped))
		})
	}
}

func TestReasonOfPlainError(t *testing.T) {
	assert.Equal(t, Reason(""), ReasonOf(errors.New("plain")))
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("threshold must be >= 0", "threshold", ThresholdInvalid, nil)
	assert.Equal(t, "threshold must be >= 0: threshold", err.Error())
	assert.Equal(t, "threshold", err.Param())
	assert.Equal(t, ThresholdInvalid, err.Reason())

	assert.Equal(t, "invalid configuration", ErrInvalidConfig.Error())
	assert.True(t, IsConfiguration(ErrInvalidConfig))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "ConfigurationError", InvalidConfig.String())
	assert.Equal(t, "ExtractionError", ExtractionFailed.String())
	assert.Equal(t, "TokenizationError", TokenizationFailed.String())
	assert.Equal(t, "MoveError", MoveFailed.String())
	assert.Equal(t, "ReportWriteError", ReportWriteFailed.String())
	assert.Equal(t, "Error", Unknown.String())
}
