package log

// Field names shared by every log line. Keep user_id and role in sync with
// the keys pkg/middleware stores on the gin context.
const (
	FieldService = "service"
	FieldVersion = "version"

	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldRoute     = "route"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldBytes     = "bytes"
	FieldClientIP  = "client_ip"

	FieldUserID = "user_id"
	FieldRole   = "role"

	FieldProductID  = "product_id"
	FieldStorageKey = "storage_key"
	FieldChannel    = "channel"

	FieldConnID     = "conn_id"
	FieldPeerID     = "peer_id"
	FieldFrameType  = "frame_type"
	FieldRecipients = "recipients"

	// FieldLogType separates audit entries from operational ones.
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
