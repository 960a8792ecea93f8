package log

import (
	"budgetbook/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldTxID       = "tx_id"
	FieldTxType     = "tx_type"
	FieldCategory   = "category"
	FieldAmount     = "amount"
)

// Component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentNotify    = "notify"
	ComponentRateLimit = "rate_limit"
)

// Operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpPersist  = "persist"
	OpRecur    = "materialize"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Fields builds key/value pairs for slog.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithComponent(component string) Fields {
	f[FieldComponent] = component
	return f
}

func (f Fields) WithClientIP(ip string) Fields {
	f[FieldClientIP] = ip
	return f
}

func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

func (f Fields) WithTransaction(tx core.Transaction) Fields {
	f[FieldTxID] = tx.ID
	f[FieldTxType] = string(tx.Type)
	f[FieldCategory] = tx.Category
	f[FieldAmount] = tx.Amount.String()
	return f
}

func (f Fields) WithHTTPRequest(method, path, query, userAgent string) Fields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f Fields) WithHTTPResponse(statusCode int, durationMs int64) Fields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog's alternating key/value form.
func (f Fields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
