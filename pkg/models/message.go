package models

import (
	"fmt"
	"strings"
)

// Severity classifies a Message.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityAction Severity = "action"
	SeverityError  Severity = "error"
)

// Message is the structured output of guards and validations.
type Message struct {
	Severity Severity `json:"severity"`
	Key      string   `json:"key"`
	Text     string   `json:"text"`
}

// Messages is an ordered list of findings.
type Messages []Message

// Errorf builds an Error-severity message.
func Errorf(key, format string, args ...any) Message {
	return Message{Severity: SeverityError, Key: key, Text: fmt.Sprintf(format, args...)}
}

// Infof builds an Info-severity message.
func Infof(key, format string, args ...any) Message {
	return Message{Severity: SeverityInfo, Key: key, Text: fmt.Sprintf(format, args...)}
}

// Actionf builds an Action-severity message.
func Actionf(key, format string, args ...any) Message {
	return Message{Severity: SeverityAction, Key: key, Text: fmt.Sprintf(format, args...)}
}

// HasErrors reports whether any message has Error severity.
func (m Messages) HasErrors() bool {
	for _, msg := range m {
		if msg.Severity == SeverityError {
			return true
		}
	}

	return false
}

// Errors returns only the Error-severity messages.
func (m Messages) Errors() Messages {
	var out Messages

	for _, msg := range m {
		if msg.Severity == SeverityError {
			out = append(out, msg)
		}
	}

	return out
}

func (m Messages) String() string {
	parts := make([]string, 0, len(m))
	for _, msg := range m {
		parts = append(parts, fmt.Sprintf("%s: %s", msg.Key, msg.Text))
	}

	return strings.Join(parts, "; ")
}
