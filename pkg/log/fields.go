package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldConnID   = "conn_id"
	FieldUsername = "username"

	// Chat
	FieldRoom      = "room"
	FieldEvent     = "event"
	FieldMessageID = "message_id"
	FieldPeer      = "peer"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
