package port

import "context"

// DeclarationEmail carries a finished declaration to a mailbox.
type DeclarationEmail struct {
	To          string
	UserID      int64
	FileName    string
	DownloadURL string
	Rows        int
}

// EmailSender defines the contract for sending declaration copies.
type EmailSender interface {
	SendDeclaration(ctx context.Context, msg DeclarationEmail) error
}
