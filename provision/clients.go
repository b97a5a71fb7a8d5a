// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	es "github.com/aws/aws-sdk-go-v2/service/elasticsearchservice"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/xmidt-org/elk/artifact"
)

// DomainAPI captures the search service methods of interest.
type DomainAPI interface {
	CreateElasticsearchDomain(context.Context, *es.CreateElasticsearchDomainInput, ...func(*es.Options)) (*es.CreateElasticsearchDomainOutput, error)
	DescribeElasticsearchDomain(context.Context, *es.DescribeElasticsearchDomainInput, ...func(*es.Options)) (*es.DescribeElasticsearchDomainOutput, error)
	UpdateElasticsearchDomainConfig(context.Context, *es.UpdateElasticsearchDomainConfigInput, ...func(*es.Options)) (*es.UpdateElasticsearchDomainConfigOutput, error)
	DeleteElasticsearchDomain(context.Context, *es.DeleteElasticsearchDomainInput, ...func(*es.Options)) (*es.DeleteElasticsearchDomainOutput, error)
}

// IdentityAPI captures the IAM methods of interest.
type IdentityAPI interface {
	CreatePolicy(context.Context, *iam.CreatePolicyInput, ...func(*iam.Options)) (*iam.CreatePolicyOutput, error)
	CreateRole(context.Context, *iam.CreateRoleInput, ...func(*iam.Options)) (*iam.CreateRoleOutput, error)
	GetRole(context.Context, *iam.GetRoleInput, ...func(*iam.Options)) (*iam.GetRoleOutput, error)
	AttachRolePolicy(context.Context, *iam.AttachRolePolicyInput, ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error)
	ListPolicies(context.Context, *iam.ListPoliciesInput, ...func(*iam.Options)) (*iam.ListPoliciesOutput, error)
	DetachRolePolicy(context.Context, *iam.DetachRolePolicyInput, ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error)
	DeleteRole(context.Context, *iam.DeleteRoleInput, ...func(*iam.Options)) (*iam.DeleteRoleOutput, error)
	DeletePolicy(context.Context, *iam.DeletePolicyInput, ...func(*iam.Options)) (*iam.DeletePolicyOutput, error)
}

// FunctionAPI captures the Lambda methods of interest.
type FunctionAPI interface {
	CreateFunction(context.Context, *lambda.CreateFunctionInput, ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error)
	UpdateFunctionCode(context.Context, *lambda.UpdateFunctionCodeInput, ...func(*lambda.Options)) (*lambda.UpdateFunctionCodeOutput, error)
	AddPermission(context.Context, *lambda.AddPermissionInput, ...func(*lambda.Options)) (*lambda.AddPermissionOutput, error)
	DeleteFunction(context.Context, *lambda.DeleteFunctionInput, ...func(*lambda.Options)) (*lambda.DeleteFunctionOutput, error)
}

// ScheduleAPI captures the EventBridge methods of interest.
type ScheduleAPI interface {
	PutRule(context.Context, *eventbridge.PutRuleInput, ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error)
	PutTargets(context.Context, *eventbridge.PutTargetsInput, ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error)
	RemoveTargets(context.Context, *eventbridge.RemoveTargetsInput, ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error)
	DeleteRule(context.Context, *eventbridge.DeleteRuleInput, ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error)
}

// AccountAPI captures the STS methods of interest.
type AccountAPI interface {
	GetCallerIdentity(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// GatewayAPI captures the API Gateway methods of interest.
type GatewayAPI interface {
	CreateRestApi(context.Context, *apigateway.CreateRestApiInput, ...func(*apigateway.Options)) (*apigateway.CreateRestApiOutput, error)
	GetRestApis(context.Context, *apigateway.GetRestApisInput, ...func(*apigateway.Options)) (*apigateway.GetRestApisOutput, error)
	GetResources(context.Context, *apigateway.GetResourcesInput, ...func(*apigateway.Options)) (*apigateway.GetResourcesOutput, error)
	PutMethod(context.Context, *apigateway.PutMethodInput, ...func(*apigateway.Options)) (*apigateway.PutMethodOutput, error)
	PutIntegration(context.Context, *apigateway.PutIntegrationInput, ...func(*apigateway.Options)) (*apigateway.PutIntegrationOutput, error)
	PutMethodResponse(context.Context, *apigateway.PutMethodResponseInput, ...func(*apigateway.Options)) (*apigateway.PutMethodResponseOutput, error)
	PutIntegrationResponse(context.Context, *apigateway.PutIntegrationResponseInput, ...func(*apigateway.Options)) (*apigateway.PutIntegrationResponseOutput, error)
	CreateDeployment(context.Context, *apigateway.CreateDeploymentInput, ...func(*apigateway.Options)) (*apigateway.CreateDeploymentOutput, error)
	DeleteRestApi(context.Context, *apigateway.DeleteRestApiInput, ...func(*apigateway.Options)) (*apigateway.DeleteRestApiOutput, error)
}

// Sender sends a signed request to the domain endpoint.
type Sender interface {
	Do(ctx context.Context, host, method, path string, body []byte) ([]byte, error)
}

// Uploader stores deployment packages.
type Uploader interface {
	Upload(ctx context.Context, name string, archive []byte) (artifact.Location, error)
}

// Clients are the cloud collaborators of a Provisioner.
type Clients struct {
	Domains   DomainAPI
	Identity  IdentityAPI
	Functions FunctionAPI
	Schedules ScheduleAPI
	Account   AccountAPI
	Search    Sender

	// Gateway is only needed when an ingest unit is configured.
	// (Optional).
	Gateway GatewayAPI

	// Artifacts receives the deployment packages, which functions are then
	// created from. Packages are sent inline when nil.
	// (Optional).
	Artifacts Uploader
}

func (c Clients) validate(ingest bool) error {
	if c.Domains == nil || c.Identity == nil || c.Functions == nil ||
		c.Schedules == nil || c.Account == nil || c.Search == nil {
		return ErrMissingClient
	}
	if ingest && c.Gateway == nil {
		return ErrMissingClient
	}
	return nil
}
