package services

import (
	"context"
	"errors"
	"fmt"
)

// Notifier delivers a message to a recipient address
type Notifier interface {
	Send(ctx context.Context, recipient, message string) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, recipient, message string) error

// Send implements Notifier
func (f NotifierFunc) Send(ctx context.Context, recipient, message string) error {
	return f(ctx, recipient, message)
}

// NotifyKind classifies a delivery failure
type NotifyKind int

const (
	// KindUnknown is anything not otherwise classified, retried by default
	KindUnknown NotifyKind = iota
	// KindTransient is a failure of a single attempt: network, auth, throttling, server errors
	KindTransient
	// KindConfiguration means the notifier cannot work as configured, e.g. missing credentials
	KindConfiguration
)

func (k NotifyKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Retryable reports whether another attempt could succeed without operator action
func (k NotifyKind) Retryable() bool {
	return k != KindConfiguration
}

// NotifyError is the error returned by notifiers
type NotifyError struct {
	Kind NotifyKind
	Err  error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("%s notify error: %v", e.Kind, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// ConfigurationError marks err as a notifier configuration problem
func ConfigurationError(err error) error {
	return &NotifyError{Kind: KindConfiguration, Err: err}
}

// TransientError marks err as a failure of one delivery attempt
func TransientError(err error) error {
	return &NotifyError{Kind: KindTransient, Err: err}
}

// ClassifyNotifyError returns the kind carried by err, KindUnknown if it has none
func ClassifyNotifyError(err error) NotifyKind {
	var nErr *NotifyError
	if errors.As(err, &nErr) {
		return nErr.Kind
	}
	return KindUnknown
}
