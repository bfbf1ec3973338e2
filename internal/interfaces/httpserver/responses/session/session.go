// Package sessionres contains HTTP response DTOs for session endpoints.
package sessionres

import (
	"fmt"
	"time"

	domainsession "jan-server/services/whatsapp-api/internal/domain/session"
)

// SessionSummary is one entry of the session list.
type SessionSummary struct {
	PhoneNumber string    `json:"phone_number" example:"5511999999999"`
	Status      string    `json:"status" example:"ready"`
	Ready       bool      `json:"ready"`
	HasQR       bool      `json:"has_qr"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListSessionsResponse lists registered sessions.
type ListSessionsResponse struct {
	Object string           `json:"object" example:"list"`
	Count  int              `json:"count"`
	Data   []SessionSummary `json:"data"`
}

// StatusResponse describes one phone number's session.
type StatusResponse struct {
	Object      string                  `json:"object" example:"whatsapp.session"`
	PhoneNumber string                  `json:"phone_number"`
	Status      string                  `json:"status" example:"waiting_qr"`
	Ready       bool                    `json:"ready"`
	HasQR       bool                    `json:"has_qr"`
	HasClient   bool                    `json:"has_client"`
	Identity    *domainsession.Identity `json:"identity,omitempty"`
}

// InitializeResponse is returned once a session has been started.
type InitializeResponse struct {
	PhoneNumber string `json:"phone_number"`
	Status      string `json:"status"`
	Ready       bool   `json:"ready"`
	QRURL       string `json:"qr_url"`
	Message     string `json:"message"`
}

// RestoreResponse summarizes a restore run.
type RestoreResponse struct {
	Restored int      `json:"restored"`
	Failed   int      `json:"failed"`
	Removed  int      `json:"removed"`
	Errors   []string `json:"errors"`
	Message  string   `json:"message"`
}

// QRResponse carries the pending QR payload.
type QRResponse struct {
	PhoneNumber string `json:"phone_number"`
	HasQR       bool   `json:"has_qr"`
	Ready       bool   `json:"ready"`
	QR          string `json:"qr,omitempty"`
	QRImage     string `json:"qr_image,omitempty"`
	Message     string `json:"message,omitempty"`
}

// SendMessageResponse describes a delivered message.
type SendMessageResponse struct {
	Object    string    `json:"object" example:"whatsapp.message"`
	MessageID string    `json:"message_id,omitempty"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageResponse acknowledges logout.
type MessageResponse struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
}

// DeleteSessionResponse acknowledges a local removal.
type DeleteSessionResponse struct {
	PhoneNumber string `json:"phone_number"`
	Object      string `json:"object" example:"whatsapp.session.deleted"`
	Deleted     bool   `json:"deleted"`
}

// NewListSessionsResponse builds the list response.
func NewListSessionsResponse(summaries []domainsession.Summary) *ListSessionsResponse {
	data := make([]SessionSummary, len(summaries))
	for i, s := range summaries {
		data[i] = SessionSummary{
			PhoneNumber: s.Identifier.String(),
			Status:      string(s.State),
			Ready:       s.Ready,
			HasQR:       s.HasQR,
			CreatedAt:   s.CreatedAt,
		}
	}
	return &ListSessionsResponse{Object: "list", Count: len(data), Data: data}
}

// NewStatusResponse builds the status response.
func NewStatusResponse(view *domainsession.StatusView) *StatusResponse {
	return &StatusResponse{
		Object:      "whatsapp.session",
		PhoneNumber: view.Identifier.String(),
		Status:      string(view.State),
		Ready:       view.Ready,
		HasQR:       view.HasQR,
		HasClient:   view.HasClient,
		Identity:    view.Identity,
	}
}

// NewInitializeResponse builds the initialize response from the post-start status.
func NewInitializeResponse(view *domainsession.StatusView, qrURL string) *InitializeResponse {
	message := "session initialized; scan the QR code to link the device"
	if view.Ready {
		message = "session restored and ready"
	}
	return &InitializeResponse{
		PhoneNumber: view.Identifier.String(),
		Status:      string(view.State),
		Ready:       view.Ready,
		QRURL:       qrURL,
		Message:     message,
	}
}

// NewRestoreResponse builds the restore summary.
func NewRestoreResponse(result *domainsession.RestoreResult) *RestoreResponse {
	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	return &RestoreResponse{
		Restored: result.SuccessCount,
		Failed:   result.FailedCount,
		Removed:  result.RemovedCount,
		Errors:   errs,
		Message: fmt.Sprintf("restore finished: %d restored, %d failed, %d removed from remote storage",
			result.SuccessCount, result.FailedCount, result.RemovedCount),
	}
}

// NewSendMessageResponse builds the send response.
func NewSendMessageResponse(result *domainsession.SendResult) *SendMessageResponse {
	return &SendMessageResponse{
		Object:    "whatsapp.message",
		MessageID: result.MessageID,
		From:      result.From,
		To:        result.To,
		Message:   result.Body,
		Timestamp: result.Timestamp,
	}
}

// NewDeleteSessionResponse builds the delete acknowledgement.
func NewDeleteSessionResponse(phone string, deleted bool) *DeleteSessionResponse {
	return &DeleteSessionResponse{PhoneNumber: phone, Object: "whatsapp.session.deleted", Deleted: deleted}
}
