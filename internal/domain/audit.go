package domain

// TransferRecord is a single persisted audit row for an extracted transfer
// request. Records are append-only and never read back by the bot itself.
type TransferRecord struct {
	PK             string
	SK             string
	ID             string
	ConversationID string
	UserID         string
	Amount         string
	Token          string
	Recipient      string
	TTL            int64
}

// VoiceNote is a persisted record of a processed voice message.
type VoiceNote struct {
	PK             string
	SK             string
	ID             string
	ConversationID string
	UserID         string
	FileID         string
	DurationSec    int
	Transcript     string
	TTL            int64
}
