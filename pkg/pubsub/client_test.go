package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/campground-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	tests := []struct {
		project string
		name    string
		want    string
	}{
		{project: "camp-prod", name: "campground-domain-events", want: "projects/camp-prod/topics/campground-domain-events"},
		{project: "camp-prod", name: " projects/other/topics/events ", want: "projects/other/topics/events"},
		{project: "", name: "events", want: ""},
		{project: "camp-prod", name: "  ", want: ""},
	}
	for _, tc := range tests {
		if got := topicResourceName(tc.project, tc.name); got != tc.want {
			t.Fatalf("topicResourceName(%q, %q) = %q, want %q", tc.project, tc.name, got, tc.want)
		}
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{DomainTopic: "events"}, nil)
	if err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("events") != nil {
		t.Fatalf("expected nil publisher from nil client")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error from nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
}

func TestNewClientRequiresTopic(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{ProjectID: "camp-prod"}, config.PubSubConfig{DomainTopic: " "}, nil)
	if err != errNoTopic {
		t.Fatalf("expected topic error, got %v", err)
	}
}
