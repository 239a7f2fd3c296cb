// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchevents"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchevents/types"
	hashextract "github.com/hashicorp/go-hashextract"
)

// DetailType is the detail type of published events.
const DetailType = "Hash Extraction Finished"

// PutEventsAPI is the part of the CloudWatch Events client used by [NewEventsHook].
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *cloudwatchevents.PutEventsInput, optFns ...func(*cloudwatchevents.Options)) (*cloudwatchevents.PutEventsOutput, error)
}

// NewEventsClient creates a CloudWatch Events client from the default AWS configuration
// chain. An empty region keeps the region of the environment.
func NewEventsClient(ctx context.Context, region string) (*cloudwatchevents.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot load aws config: %w", err)
	}
	return cloudwatchevents.NewFromConfig(cfg), nil
}

// PublishEvent sends td as a single event with the given source to bus.
func PublishEvent(ctx context.Context, client PutEventsAPI, bus, source string, td *hashextract.TelemetryData) error {
	entry := types.PutEventsRequestEntry{
		Detail:     aws.String(td.String()),
		DetailType: aws.String(DetailType),
		Source:     aws.String(source),
		Time:       aws.Time(time.Now()),
	}
	if bus != "" {
		entry.EventBusName = aws.String(bus)
	}

	out, err := client.PutEvents(ctx, &cloudwatchevents.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{entry},
	})
	if err != nil {
		return fmt.Errorf("cannot put event: %w", err)
	}
	for _, e := range out.Entries {
		if e.ErrorCode != nil {
			return fmt.Errorf("event rejected: %s: %s", aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
		}
	}
	return nil
}

// NewEventsHook returns a [hashextract.TelemetryHook] that publishes the telemetry data of a
// finished walk. Publishing failures are logged, they do not change the outcome of the walk.
func NewEventsHook(client PutEventsAPI, bus, source string, logger *slog.Logger) hashextract.TelemetryHook {
	return func(ctx context.Context, td *hashextract.TelemetryData) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := PublishEvent(ctx, client, bus, source, td); err != nil {
			logger.Warn("cannot publish telemetry", "bus", bus, "error", err)
			return
		}
		logger.Debug("published telemetry", "bus", bus)
	}
}
