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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/xmidt-org/elk/artifact"
)

type mockDomains struct {
	mock.Mock
}

func (m *mockDomains) CreateElasticsearchDomain(ctx context.Context, in *es.CreateElasticsearchDomainInput, _ ...func(*es.Options)) (*es.CreateElasticsearchDomainOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*es.CreateElasticsearchDomainOutput)
	return out, args.Error(1)
}

func (m *mockDomains) DescribeElasticsearchDomain(ctx context.Context, in *es.DescribeElasticsearchDomainInput, _ ...func(*es.Options)) (*es.DescribeElasticsearchDomainOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*es.DescribeElasticsearchDomainOutput)
	return out, args.Error(1)
}

func (m *mockDomains) UpdateElasticsearchDomainConfig(ctx context.Context, in *es.UpdateElasticsearchDomainConfigInput, _ ...func(*es.Options)) (*es.UpdateElasticsearchDomainConfigOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*es.UpdateElasticsearchDomainConfigOutput)
	return out, args.Error(1)
}

func (m *mockDomains) DeleteElasticsearchDomain(ctx context.Context, in *es.DeleteElasticsearchDomainInput, _ ...func(*es.Options)) (*es.DeleteElasticsearchDomainOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*es.DeleteElasticsearchDomainOutput)
	return out, args.Error(1)
}

type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) CreatePolicy(ctx context.Context, in *iam.CreatePolicyInput, _ ...func(*iam.Options)) (*iam.CreatePolicyOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*iam.CreatePolicyOutput)
	return out, args.Error(1)
}

func (m *mockIdentity) CreateRole(ctx context.Context, in *iam.CreateRoleInput, _ ...func(*iam.Options)) (*iam.CreateRoleOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*iam.CreateRoleOutput)
	return out, args.Error(1)
}

func (m *mockIdentity) GetRole(ctx context.Context, in *iam.GetRoleInput, _ ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*iam.GetRoleOutput)
	return out, args.Error(1)
}

func (m *mockIdentity) AttachRolePolicy(ctx context.Context, in *iam.AttachRolePolicyInput, _ ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*iam.AttachRolePolicyOutput)
	return out, args.Error(1)
}

func (m *mockIdentity) ListPolicies(ctx context.Context, in *iam.ListPoliciesInput, _ ...func(*iam.Options)) (*iam.ListPoliciesOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*iam.ListPoliciesOutput)
	return out, args.Error(1)
}

func (m *mockIdentity) DetachRolePolicy(ctx context.Context, in *iam.DetachRolePolicyInput, _ ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*iam.DetachRolePolicyOutput)
	return out, args.Error(1)
}

func (m *mockIdentity) DeleteRole(ctx context.Context, in *iam.DeleteRoleInput, _ ...func(*iam.Options)) (*iam.DeleteRoleOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*iam.DeleteRoleOutput)
	return out, args.Error(1)
}

func (m *mockIdentity) DeletePolicy(ctx context.Context, in *iam.DeletePolicyInput, _ ...func(*iam.Options)) (*iam.DeletePolicyOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*iam.DeletePolicyOutput)
	return out, args.Error(1)
}

type mockFunctions struct {
	mock.Mock
}

func (m *mockFunctions) CreateFunction(ctx context.Context, in *lambda.CreateFunctionInput, _ ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*lambda.CreateFunctionOutput)
	return out, args.Error(1)
}

func (m *mockFunctions) UpdateFunctionCode(ctx context.Context, in *lambda.UpdateFunctionCodeInput, _ ...func(*lambda.Options)) (*lambda.UpdateFunctionCodeOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*lambda.UpdateFunctionCodeOutput)
	return out, args.Error(1)
}

func (m *mockFunctions) AddPermission(ctx context.Context, in *lambda.AddPermissionInput, _ ...func(*lambda.Options)) (*lambda.AddPermissionOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*lambda.AddPermissionOutput)
	return out, args.Error(1)
}

func (m *mockFunctions) DeleteFunction(ctx context.Context, in *lambda.DeleteFunctionInput, _ ...func(*lambda.Options)) (*lambda.DeleteFunctionOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*lambda.DeleteFunctionOutput)
	return out, args.Error(1)
}

type mockSchedules struct {
	mock.Mock
}

func (m *mockSchedules) PutRule(ctx context.Context, in *eventbridge.PutRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*eventbridge.PutRuleOutput)
	return out, args.Error(1)
}

func (m *mockSchedules) PutTargets(ctx context.Context, in *eventbridge.PutTargetsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*eventbridge.PutTargetsOutput)
	return out, args.Error(1)
}

func (m *mockSchedules) RemoveTargets(ctx context.Context, in *eventbridge.RemoveTargetsInput, _ ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*eventbridge.RemoveTargetsOutput)
	return out, args.Error(1)
}

func (m *mockSchedules) DeleteRule(ctx context.Context, in *eventbridge.DeleteRuleInput, _ ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*eventbridge.DeleteRuleOutput)
	return out, args.Error(1)
}

type mockAccount struct {
	mock.Mock
}

func (m *mockAccount) GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sts.GetCallerIdentityOutput)
	return out, args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateRestApi(ctx context.Context, in *apigateway.CreateRestApiInput, _ ...func(*apigateway.Options)) (*apigateway.CreateRestApiOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*apigateway.CreateRestApiOutput)
	return out, args.Error(1)
}

func (m *mockGateway) GetRestApis(ctx context.Context, in *apigateway.GetRestApisInput, _ ...func(*apigateway.Options)) (*apigateway.GetRestApisOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*apigateway.GetRestApisOutput)
	return out, args.Error(1)
}

func (m *mockGateway) GetResources(ctx context.Context, in *apigateway.GetResourcesInput, _ ...func(*apigateway.Options)) (*apigateway.GetResourcesOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*apigateway.GetResourcesOutput)
	return out, args.Error(1)
}

func (m *mockGateway) PutMethod(ctx context.Context, in *apigateway.PutMethodInput, _ ...func(*apigateway.Options)) (*apigateway.PutMethodOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*apigateway.PutMethodOutput)
	return out, args.Error(1)
}

func (m *mockGateway) PutIntegration(ctx context.Context, in *apigateway.PutIntegrationInput, _ ...func(*apigateway.Options)) (*apigateway.PutIntegrationOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*apigateway.PutIntegrationOutput)
	return out, args.Error(1)
}

func (m *mockGateway) PutMethodResponse(ctx context.Context, in *apigateway.PutMethodResponseInput, _ ...func(*apigateway.Options)) (*apigateway.PutMethodResponseOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*apigateway.PutMethodResponseOutput)
	return out, args.Error(1)
}

func (m *mockGateway) PutIntegrationResponse(ctx context.Context, in *apigateway.PutIntegrationResponseInput, _ ...func(*apigateway.Options)) (*apigateway.PutIntegrationResponseOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*apigateway.PutIntegrationResponseOutput)
	return out, args.Error(1)
}

func (m *mockGateway) CreateDeployment(ctx context.Context, in *apigateway.CreateDeploymentInput, _ ...func(*apigateway.Options)) (*apigateway.CreateDeploymentOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*apigateway.CreateDeploymentOutput)
	return out, args.Error(1)
}

func (m *mockGateway) DeleteRestApi(ctx context.Context, in *apigateway.DeleteRestApiInput, _ ...func(*apigateway.Options)) (*apigateway.DeleteRestApiOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*apigateway.DeleteRestApiOutput)
	return out, args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Do(ctx context.Context, host, method, path string, body []byte) ([]byte, error) {
	args := m.Called(ctx, host, method, path)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, name string, archive []byte) (artifact.Location, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(artifact.Location), args.Error(1)
}

func newTestMeasures() *Measures {
	return &Measures{
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testPollsCounter",
			Help: "testPollsCounter",
		}, []string{StepLabel, StateLabel}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testRetriesCounter",
			Help: "testRetriesCounter",
		}, []string{StepLabel}),
		Functions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testFunctionsCounter",
			Help: "testFunctionsCounter",
		}, []string{OutcomeLabel}),
		Deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testDeletionsCounter",
			Help: "testDeletionsCounter",
		}, []string{ResourceLabel, OutcomeLabel}),
		Dashboards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testDashboardsCounter",
			Help: "testDashboardsCounter",
		}, []string{OutcomeLabel}),
	}
}
