// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"encoding/json"
	"fmt"
)

const policyVersion = "2012-10-17"

type policyDocument struct {
	Version   string      `json:"Version"`
	Statement []statement `json:"Statement"`
}

type statement struct {
	Effect    string                       `json:"Effect"`
	Principal map[string]string            `json:"Principal,omitempty"`
	Action    interface{}                  `json:"Action"`
	Resource  string                       `json:"Resource,omitempty"`
	Condition map[string]map[string]string `json:"Condition,omitempty"`
}

// RoleName is the name of the role the functions run as.
func RoleName(project string) string {
	return project + "_processing_lambda_role"
}

// PolicyName is the name of the policy attached to the function role.
func PolicyName(project string) string {
	return project + "_processing_lambda_policy"
}

// FunctionName is the name shared by a unit's function and schedule rule.
func FunctionName(project, unit string) string {
	return project + "_" + unit
}

func IngestAPIName(project string) string {
	return project + "_deployment_metrics_apigateway"
}

// DomainResource is the ARN pattern covering every path of a domain.
func DomainResource(region, account, domain string) string {
	return fmt.Sprintf("arn:aws:es:%s:%s:domain/%s/*", region, account, domain)
}

// AccessPolicy lets the function role and the operator's CIDR block use
// the domain.
func AccessPolicy(resource, roleARN, cidr string) (string, error) {
	return render(policyDocument{
		Version: policyVersion,
		Statement: []statement{
			{
				Effect:    "Allow",
				Principal: map[string]string{"AWS": roleARN},
				Action:    "es:*",
				Resource:  resource,
			},
			{
				Effect:    "Allow",
				Principal: map[string]string{"AWS": "*"},
				Action:    "es:*",
				Resource:  resource,
				Condition: map[string]map[string]string{
					"IpAddress": {"aws:SourceIp": cidr},
				},
			},
		},
	})
}

// FunctionPolicy is what the scheduled functions may do.
func FunctionPolicy() (string, error) {
	return render(policyDocument{
		Version: policyVersion,
		Statement: []statement{
			{
				Effect: "Allow",
				Action: []string{
					"ec2:DescribeInstances",
					"ec2:DescribeVolumes",
					"rds:DescribeDBInstances",
					"sts:AssumeRole",
					"cloudwatch:GetMetricStatistics",
					"es:*",
					"s3:GetObject",
				},
				Resource: "*",
			},
			{
				Effect: "Allow",
				Action: []string{
					"logs:CreateLogGroup",
					"logs:CreateLogStream",
					"logs:PutLogEvents",
				},
				Resource: "arn:aws:logs:*:*:*",
			},
		},
	})
}

// TrustPolicy lets the function service assume the role.
func TrustPolicy() (string, error) {
	return render(policyDocument{
		Version: policyVersion,
		Statement: []statement{
			{
				Effect:    "Allow",
				Principal: map[string]string{"Service": "lambda.amazonaws.com"},
				Action:    "sts:AssumeRole",
			},
		},
	})
}

func render(doc policyDocument) (string, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
