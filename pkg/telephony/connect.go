package telephony

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/connect"
	connecttypes "github.com/aws/aws-sdk-go-v2/service/connect/types"
	"github.com/sirupsen/logrus"

	"github.com/Rmx21/knowledgeKeeper/pkg/config"
	"github.com/Rmx21/knowledgeKeeper/pkg/constants"
	"github.com/Rmx21/knowledgeKeeper/pkg/metrics"
)

// connectAPI is the subset of the Amazon Connect client the gateway needs.
// *connect.Client satisfies it; tests inject a fake.
type connectAPI interface {
	StartOutboundVoiceContact(ctx context.Context, params *connect.StartOutboundVoiceContactInput, optFns ...func(*connect.Options)) (*connect.StartOutboundVoiceContactOutput, error)
	UpdateContactAttributes(ctx context.Context, params *connect.UpdateContactAttributesInput, optFns ...func(*connect.Options)) (*connect.UpdateContactAttributesOutput, error)
	GetContactAttributes(ctx context.Context, params *connect.GetContactAttributesInput, optFns ...func(*connect.Options)) (*connect.GetContactAttributesOutput, error)
	DescribeContact(ctx context.Context, params *connect.DescribeContactInput, optFns ...func(*connect.Options)) (*connect.DescribeContactOutput, error)
	StopContact(ctx context.Context, params *connect.StopContactInput, optFns ...func(*connect.Options)) (*connect.StopContactOutput, error)
	ListInstanceStorageConfigs(ctx context.Context, params *connect.ListInstanceStorageConfigsInput, optFns ...func(*connect.Options)) (*connect.ListInstanceStorageConfigsOutput, error)
}

// ConnectGateway implements Gateway against Amazon Connect
type ConnectGateway struct {
	client  connectAPI
	config  *config.Config
	logger  *logrus.Logger
	metrics *metrics.Metrics

	now func() time.Time
}

func NewConnectGateway(client connectAPI, cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics) *ConnectGateway {
	return &ConnectGateway{
		client:  client,
		config:  cfg,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// PlaceCall starts an outbound voice contact with the initial attribute set
// the contact flow expects. The opening prompt lands in NovaPrompt so the
// flow speaks it as soon as the call connects.
func (g *ConnectGateway) PlaceCall(ctx context.Context, phoneNumber, interviewContext, openingPrompt string) (string, error) {
	start := g.now()
	defer func() {
		g.metrics.PlatformCallDuration.WithLabelValues("place_call").Observe(time.Since(start).Seconds())
	}()

	last4 := phoneNumber
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	callID := fmt.Sprintf("nova_connect_%s_%s", start.Format("20060102_150405"), last4)

	attributes := map[string]string{
		constants.PromptAttribute:    openingPrompt,
		constants.ContextAttribute:   interviewContext,
		constants.SessionIDAttribute: callID,
		constants.QuestionCountAttr:  "0",
		constants.InterviewStepAttr:  "0",
	}

	resp, err := g.client.StartOutboundVoiceContact(ctx, &connect.StartOutboundVoiceContactInput{
		DestinationPhoneNumber: aws.String(phoneNumber),
		ContactFlowId:          aws.String(g.config.ContactFlowID),
		InstanceId:             aws.String(g.config.ConnectInstanceID),
		SourcePhoneNumber:      aws.String(g.config.SourcePhoneNumber),
		Attributes:             attributes,
	})
	if err != nil {
		g.metrics.CallsPlaced.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to start outbound contact: %w", err)
	}

	contactID := aws.ToString(resp.ContactId)
	g.metrics.CallsPlaced.WithLabelValues("ok").Inc()
	g.logger.WithFields(logrus.Fields{
		"contact_id":   contactID,
		"call_id":      callID,
		"phone_number": phoneNumber,
	}).Info("Outbound call placed")

	return contactID, nil
}

// ReadAttributes returns the current contact attribute map. Failures are
// reported as an empty map; the delivery loop treats that as "no ack yet".
func (g *ConnectGateway) ReadAttributes(ctx context.Context, contactID string) map[string]string {
	start := g.now()
	defer func() {
		g.metrics.PlatformCallDuration.WithLabelValues("read_attributes").Observe(time.Since(start).Seconds())
	}()

	resp, err := g.client.GetContactAttributes(ctx, &connect.GetContactAttributesInput{
		InitialContactId: aws.String(contactID),
		InstanceId:       aws.String(g.config.ConnectInstanceID),
	})
	if err != nil {
		g.logger.WithError(err).WithField("contact_id", contactID).Debug("Failed to read contact attributes")
		return map[string]string{}
	}
	if resp.Attributes == nil {
		return map[string]string{}
	}
	return resp.Attributes
}

func (g *ConnectGateway) WriteAttribute(ctx context.Context, contactID, key, value string) bool {
	start := g.now()
	defer func() {
		g.metrics.PlatformCallDuration.WithLabelValues("write_attribute").Observe(time.Since(start).Seconds())
	}()

	_, err := g.client.UpdateContactAttributes(ctx, &connect.UpdateContactAttributesInput{
		InitialContactId: aws.String(contactID),
		InstanceId:       aws.String(g.config.ConnectInstanceID),
		Attributes:       map[string]string{key: value},
	})
	if err != nil {
		g.logger.WithError(err).WithFields(logrus.Fields{
			"contact_id": contactID,
			"key":        key,
		}).Warn("Failed to update contact attribute")
		return false
	}
	return true
}

// QueryStatus derives activeness from the disconnect timestamp. A describe
// failure reports active so a flaky lookup never strands a live interview.
func (g *ConnectGateway) QueryStatus(ctx context.Context, contactID string) ContactStatus {
	start := g.now()
	defer func() {
		g.metrics.PlatformCallDuration.WithLabelValues("query_status").Observe(time.Since(start).Seconds())
	}()

	resp, err := g.client.DescribeContact(ctx, &connect.DescribeContactInput{
		ContactId:  aws.String(contactID),
		InstanceId: aws.String(g.config.ConnectInstanceID),
	})
	if err != nil {
		g.logger.WithError(err).WithField("contact_id", contactID).Warn("Failed to describe contact")
		return ContactStatus{Active: true, State: "UNKNOWN"}
	}

	if resp.Contact != nil && resp.Contact.DisconnectTimestamp != nil {
		ts := *resp.Contact.DisconnectTimestamp
		return ContactStatus{Active: false, State: "DISCONNECTED", DisconnectedAt: &ts}
	}
	return ContactStatus{Active: true, State: "CONNECTED"}
}

func (g *ConnectGateway) Terminate(ctx context.Context, contactID string) bool {
	start := g.now()
	defer func() {
		g.metrics.PlatformCallDuration.WithLabelValues("terminate").Observe(time.Since(start).Seconds())
	}()

	_, err := g.client.StopContact(ctx, &connect.StopContactInput{
		ContactId:  aws.String(contactID),
		InstanceId: aws.String(g.config.ConnectInstanceID),
	})
	if err != nil {
		g.logger.WithError(err).WithField("contact_id", contactID).Warn("Failed to stop contact")
		return false
	}
	g.logger.WithField("contact_id", contactID).Info("Contact stopped")
	return true
}

// RecordingLocation looks up the S3 destination Connect writes call
// recordings to.
func (g *ConnectGateway) RecordingLocation(ctx context.Context) (string, string, error) {
	resp, err := g.client.ListInstanceStorageConfigs(ctx, &connect.ListInstanceStorageConfigsInput{
		InstanceId:   aws.String(g.config.ConnectInstanceID),
		ResourceType: connecttypes.InstanceStorageResourceTypeCallRecordings,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to list instance storage configs: %w", err)
	}

	for _, cfg := range resp.StorageConfigs {
		if cfg.StorageType != connecttypes.StorageTypeS3 || cfg.S3Config == nil {
			continue
		}
		bucket := aws.ToString(cfg.S3Config.BucketName)
		if bucket != "" {
			return bucket, aws.ToString(cfg.S3Config.BucketPrefix), nil
		}
	}
	return "", "", fmt.Errorf("no S3 storage config found for call recordings")
}
