package domain

import "time"

// AuditEventType is the kind of record written to the audit sink
type AuditEventType string

const (
	AuditRequestReceived AuditEventType = "request_received"
	AuditProcessingStep  AuditEventType = "processing_step"
	AuditError           AuditEventType = "error"
	AuditResponse        AuditEventType = "response"
)

// AuditEvent is one structured audit record, keyed by the request correlation id
type AuditEvent struct {
	RequestID    string                 `json:"request_id"`
	Type         AuditEventType         `json:"type"`
	Provider     Provider               `json:"provider"`
	Step         IngestState            `json:"step,omitempty"`
	Message      string                 `json:"message,omitempty"`
	StatusCode   int                    `json:"status_code,omitempty"`
	ProcessingMs int64                  `json:"processing_ms"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// SecretPrefix returns the first characters of a secret for audit records.
// Full secret values are never written anywhere.
func SecretPrefix(secret string) string {
	const visible = 4
	if secret == "" {
		return ""
	}
	if len(secret) <= visible {
		return "…"
	}
	return secret[:visible] + "…"
}

// AuthAttempt describes how a request was authenticated, for the audit log
type AuthAttempt struct {
	Mode              string   `json:"mode"`
	ChannelsChecked   []string `json:"channels_checked"`
	Channel           string   `json:"channel,omitempty"`
	CandidatesChecked int      `json:"candidates_checked"`
	SecretPrefix      string   `json:"secret_prefix,omitempty"`
	Discriminator     string   `json:"discriminator,omitempty"`
	IntegrationID     string   `json:"integration_id,omitempty"`
}

// Metadata flattens the attempt into audit metadata
func (a *AuthAttempt) Metadata() map[string]interface{} {
	if a == nil {
		return nil
	}
	return map[string]interface{}{
		"mode":              a.Mode,
		"channelsChecked":   a.ChannelsChecked,
		"channel":           a.Channel,
		"candidatesChecked": a.CandidatesChecked,
		"secretPrefix":      a.SecretPrefix,
		"discriminator":     a.Discriminator,
		"integrationId":     a.IntegrationID,
	}
}
