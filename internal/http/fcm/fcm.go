package fcm

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/oauth2/google"
	fcm "google.golang.org/api/fcm/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// Client sends push notifications through the FCM HTTP v1 API.
type Client struct {
	svc     *fcm.Service
	project string
}

// NewClient builds an FCM client from a service account credentials file.
func NewClient(ctx context.Context, credentialsFile, projectID string) (*Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("fcm project id is empty")
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading fcm credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, messagingScope)
	if err != nil {
		return nil, fmt.Errorf("parsing fcm credentials: %w", err)
	}

	svc, err := fcm.NewService(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("creating fcm service: %w", err)
	}

	return &Client{svc: svc, project: projectID}, nil
}

// Send delivers one notification to a device token. High priority with the
// default sound on both mobile platforms.
func (c *Client) Send(ctx context.Context, token, title, body string) error {
	message := &fcm.Message{
		Token: token,
		Notification: &fcm.Notification{
			Title: title,
			Body:  body,
		},
		Android: &fcm.AndroidConfig{
			Priority: "high",
			Notification: &fcm.AndroidNotification{
				Sound: "default",
			},
		},
		Apns: &fcm.ApnsConfig{
			Payload: googleapi.RawMessage(`{"aps":{"sound":"default"}}`),
		},
	}

	parent := "projects/" + c.project
	_, err := c.svc.Projects.Messages.Send(parent, &fcm.SendMessageRequest{Message: message}).Context(ctx).Do()
	if err != nil {
		log.Printf("fcm send failed for token %.8s...: %v", token, err)
		return err
	}
	return nil
}
