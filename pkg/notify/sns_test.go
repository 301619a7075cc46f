package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSNSSinkPublishSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	sink := &snsPublisher{
		id:       "topic",
		topicARN: "arn:aws:sns:::tenants",
		client:   client,
		log:      noopLogger{},
	}

	evt := NewEvent(EventTenantRevoked, "billing", "User:sa-1")
	if err := sink.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::tenants" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["event_type"]
	if !ok || attr.StringValue == nil || aws.ToString(attr.StringValue) != EventTenantRevoked {
		t.Fatalf("event_type attribute missing or wrong: %#v", attr)
	}
	if client.input.Message == nil || !strings.Contains(aws.ToString(client.input.Message), `"project":"billing"`) {
		t.Fatalf("Message missing project: %s", aws.ToString(client.input.Message))
	}
}

func TestSNSSinkPublishError(t *testing.T) {
	client := &fakeSNSClient{err: errors.New("boom")}
	sink := &snsPublisher{
		id:       "topic",
		topicARN: "arn:aws:sns:::tenants",
		client:   client,
		log:      noopLogger{},
	}

	if err := sink.Publish(context.Background(), Event{Type: EventTenantRevoked}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}
