package pkg

const (
	HeaderTraceId string = "X-Trace-Id"
)

const (
	TraceId string = "trace_id"
)

// AccountEventType identifies a lifecycle event emitted after a successful mutation.
type AccountEventType string

const (
	AccountCreated AccountEventType = "account.created"
	AccountUpdated AccountEventType = "account.updated"
	AccountDeleted AccountEventType = "account.deleted"
)
