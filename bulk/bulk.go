// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package bulk encodes metric samples and deployment events into the
// newline delimited action/document stream accepted by the _bulk API.
package bulk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xmidt-org/elk/model"
)

var ErrValidation = errors.New("sample is missing required fields")

// Index prefixes of the data families written by this project.
const (
	MetricsPrefix    = "cw"
	DeploymentPrefix = "deployment"

	deploymentType = "deployment"
)

const (
	indexDateLayout = "2006.01.02"

	// TimestampLayout is the layout of document timestamps.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// Path is where bulk streams are posted.
const Path = "/_bulk"

type directive struct {
	Index target `json:"index"`
}

type target struct {
	Index string `json:"_index"`
	Type  string `json:"_type"`
}

// IndexName returns the daily partition name for prefix at t, i.e. cw-2024.07.20.
func IndexName(prefix string, t time.Time) string {
	return prefix + "-" + t.UTC().Format(indexDateLayout)
}

// Encode writes one index directive and one document per sample. A sample
// goes to the partition of its own Timestamp, samples without one to the
// partition of now. The empty string is returned for no samples.
func Encode(samples []model.MetricSample, prefix string, now time.Time) (string, error) {
	var buf bytes.Buffer
	for i, s := range samples {
		at := now
		if !s.Timestamp.IsZero() {
			at = s.Timestamp
		}
		doc, err := document(s, at.UTC().Format(TimestampLayout))
		if err != nil {
			return "", fmt.Errorf("sample %d: %w", i, err)
		}
		if err := writePair(&buf, target{Index: IndexName(prefix, at), Type: s.MetricName}, doc); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// document builds a fresh document for s containing the timestamp, the
// resource id, the unit, the resource attributes and the metric value. Every
// field must be distinct.
func document(s model.MetricSample, timestamp string) (map[string]interface{}, error) {
	field := s.Namespace.ResourceField()
	switch {
	case field == "":
		return nil, fmt.Errorf("%w: unsupported namespace %q", ErrValidation, s.Namespace)
	case s.ResourceID == "":
		return nil, fmt.Errorf("%w: resource id", ErrValidation)
	case s.MetricName == "":
		return nil, fmt.Errorf("%w: metric name", ErrValidation)
	case s.Unit == "":
		return nil, fmt.Errorf("%w: unit", ErrValidation)
	}
	doc := map[string]interface{}{
		"timestamp": timestamp,
		field:       s.ResourceID,
		"unit":      s.Unit,
	}
	for k, v := range s.Attributes {
		if _, taken := doc[k]; taken {
			return nil, fmt.Errorf("%w: attribute %q is a reserved field", ErrValidation, k)
		}
		doc[k] = v
	}
	if _, taken := doc[s.MetricName]; taken {
		return nil, fmt.Errorf("%w: metric name %q is a reserved field", ErrValidation, s.MetricName)
	}
	doc[s.MetricName] = s.Value
	return doc, nil
}

// EncodeDeployment encodes a single deployment event into the deployment
// partition of now.
func EncodeDeployment(e model.DeploymentEvent, now time.Time) (string, error) {
	if e.Application == "" || e.Environment == "" {
		return "", fmt.Errorf("%w: application and environment are required", ErrValidation)
	}
	timestamp := e.Timestamp
	if timestamp == "" {
		timestamp = now.UTC().Format(TimestampLayout)
	}
	var buf bytes.Buffer
	err := writePair(&buf, target{Index: IndexName(DeploymentPrefix, now), Type: deploymentType}, map[string]interface{}{
		"timestamp":   timestamp,
		"Application": e.Application,
		"Environment": e.Environment,
		"deployment":  1,
	})
	return buf.String(), err
}

func writePair(buf *bytes.Buffer, t target, doc interface{}) error {
	action, err := json.Marshal(directive{Index: t})
	if err != nil {
		return err
	}
	source, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	buf.Write(action)
	buf.WriteByte('\n')
	buf.Write(source)
	buf.WriteByte('\n')
	return nil
}
