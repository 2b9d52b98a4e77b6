package kiosk

import (
	"errors"
	"fmt"

	"github.com/evcraddock/visitlog/internal/report"
	"github.com/evcraddock/visitlog/internal/visit"
)

// Level classifies a Notice.
type Level string

const (
	LevelNone    Level = ""
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Code says why an operation did not complete.
type Code string

const (
	CodeNone     Code = ""
	CodeInvalid  Code = "invalid"
	CodeNotFound Code = "not_found"
	CodeStore    Code = "store"
)

// Notice is the caller-visible outcome of an operation. A zero Notice
// means nothing needs to be shown.
type Notice struct {
	Level   Level  `json:"level,omitempty"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Failed reports whether the operation did not complete.
func (n Notice) Failed() bool {
	return n.Level == LevelWarn || n.Level == LevelError
}

func success(format string, args ...any) Notice {
	return Notice{Level: LevelSuccess, Message: fmt.Sprintf(format, args...)}
}

func warn(code Code, format string, args ...any) Notice {
	return Notice{Level: LevelWarn, Code: code, Message: fmt.Sprintf(format, args...)}
}

// noticeFor maps an error to a notice. Input problems are warnings;
// anything else is an error.
func noticeFor(err error) Notice {
	var ve *visit.ValidationError
	var re *report.InvalidRangeError
	var pe *visit.PersistenceError

	switch {
	case errors.As(err, &ve):
		return Notice{Level: LevelWarn, Code: CodeInvalid, Message: ve.Message}
	case errors.As(err, &re):
		return warn(CodeInvalid, "Invalid date range: %s.", re.Reason)
	case errors.Is(err, visit.ErrNotFound):
		return warn(CodeNotFound, "Record not found.")
	case errors.As(err, &pe):
		return Notice{Level: LevelError, Code: CodeStore, Message: "Saving failed: " + pe.Error()}
	default:
		return Notice{Level: LevelError, Code: CodeStore, Message: err.Error()}
	}
}
