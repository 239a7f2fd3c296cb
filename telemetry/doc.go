// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package telemetry publishes the [hashextract.TelemetryData] of finished walks.
//
// [NewEventsHook] sends one event per walk to an Amazon EventBridge (CloudWatch Events) bus.
package telemetry
