package identity

import (
	"context"
)

// LogReconciliationSink records orphaned accounts through the logger. It is
// the default operational answer when no queue or ticketing integration is
// wired in: the orphan is loud in the logs and carries everything an
// operator needs to resolve it by hand.
type LogReconciliationSink struct {
	logger Logger
}

var _ ReconciliationSink = (*LogReconciliationSink)(nil)

// NewLogReconciliationSink creates a sink writing through the given logger
func NewLogReconciliationSink(logger Logger) *LogReconciliationSink {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogReconciliationSink{logger: logger}
}

// RecordOrphan implements ReconciliationSink
func (s *LogReconciliationSink) RecordOrphan(_ context.Context, account *Account, cause error) {
	if account == nil {
		return
	}

	s.logger.Error(
		"%s: account %s (%s) has no profile and could not be deleted: %v",
		TextCodeUnresolvedOrphan, account.ID, account.Email, cause,
	)
}
