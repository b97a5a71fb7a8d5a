// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	agtypes "github.com/aws/aws-sdk-go-v2/service/apigateway/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"go.uber.org/zap"
)

const (
	gatewayPrincipal   = "apigateway.amazonaws.com"
	gatewayStatementID = "apigateway-deployment-metrics"
	jsonContentType    = "application/json"
	okStatus           = "200"
)

// ingestTemplate maps a posted deployment event onto the function input,
// injecting the domain endpoint.
const ingestTemplate = `{
	"timestamp": $input.json('timestamp'),
	"Application": $input.json('Application'),
	"Environment": $input.json('Environment'),
	"endpoint": "%s"
}`

// IngestURL is the invoke URL of a deployed ingest API.
func IngestURL(apiID, region, stage string) string {
	return fmt.Sprintf("https://%s.execute-api.%s.amazonaws.com/%s", apiID, region, stage)
}

func functionInvocationURI(region, functionARN string) string {
	return fmt.Sprintf("arn:aws:apigateway:%s:lambda:path/2015-03-31/functions/%s/invocations", region, functionARN)
}

// createIngestAPI exposes the function behind a POST endpoint and returns
// the invoke URL. An API already carrying the project's name is reused and
// redeployed.
func (p *Provisioner) createIngestAPI(ctx context.Context, endpoint, functionARN string) (string, error) {
	var (
		gw     = p.clients.Gateway
		name   = IngestAPIName(p.config.Name)
		logger = p.logger.With(zap.String("api", name))
	)

	var apiID *string
	existing, err := p.findIngestAPI(ctx)
	switch {
	case err == nil:
		logger.Info("deployment ingest api already exists, reusing it")
		apiID = aws.String(existing)
	case IsNotFound(err):
		logger.Info("creating deployment ingest api")
		api, err := gw.CreateRestApi(ctx, &apigateway.CreateRestApiInput{
			Name:        aws.String(name),
			Description: aws.String(fmt.Sprintf("deployment events for search domain %s", p.config.Name)),
		})
		if err != nil {
			return "", err
		}
		apiID = api.Id
	default:
		return "", err
	}

	resources, err := gw.GetResources(ctx, &apigateway.GetResourcesInput{RestApiId: apiID})
	if err != nil {
		return "", err
	}
	var rootID *string
	for _, r := range resources.Items {
		if aws.ToString(r.Path) == "/" {
			rootID = r.Id
		}
	}
	if rootID == nil {
		return "", fmt.Errorf(errWrappedFmt, errNoRootResource, name)
	}

	method := aws.String(http.MethodPost)
	if _, err = gw.PutMethod(ctx, &apigateway.PutMethodInput{
		RestApiId:         apiID,
		ResourceId:        rootID,
		HttpMethod:        method,
		AuthorizationType: aws.String("NONE"),
	}); err != nil && !isAlreadyExists(err) {
		return "", err
	}

	if _, err = gw.PutIntegration(ctx, &apigateway.PutIntegrationInput{
		RestApiId:             apiID,
		ResourceId:            rootID,
		HttpMethod:            method,
		Type:                  agtypes.IntegrationTypeAws,
		IntegrationHttpMethod: method,
		Uri:                   aws.String(functionInvocationURI(p.config.Region, functionARN)),
		RequestTemplates:      map[string]string{jsonContentType: fmt.Sprintf(ingestTemplate, endpoint)},
	}); err != nil {
		return "", err
	}

	if _, err = gw.PutMethodResponse(ctx, &apigateway.PutMethodResponseInput{
		RestApiId:      apiID,
		ResourceId:     rootID,
		HttpMethod:     method,
		StatusCode:     aws.String(okStatus),
		ResponseModels: map[string]string{jsonContentType: "Empty"},
	}); err != nil && !isAlreadyExists(err) {
		return "", err
	}

	if _, err = gw.PutIntegrationResponse(ctx, &apigateway.PutIntegrationResponseInput{
		RestApiId:         apiID,
		ResourceId:        rootID,
		HttpMethod:        method,
		StatusCode:        aws.String(okStatus),
		ResponseTemplates: map[string]string{jsonContentType: ""},
	}); err != nil {
		return "", err
	}

	if _, err = gw.CreateDeployment(ctx, &apigateway.CreateDeploymentInput{
		RestApiId: apiID,
		StageName: aws.String(p.config.IngestStage),
	}); err != nil {
		return "", err
	}

	_, err = p.clients.Functions.AddPermission(ctx, &lambda.AddPermissionInput{
		FunctionName: aws.String(functionARN),
		StatementId:  aws.String(gatewayStatementID),
		Action:       aws.String(invokeFunctionGrant),
		Principal:    aws.String(gatewayPrincipal),
	})
	if err != nil && !isAlreadyExists(err) {
		return "", err
	}

	url := IngestURL(aws.ToString(apiID), p.config.Region, p.config.IngestStage)
	logger.Info("deployment ingest api is ready", zap.String("url", url),
		zap.String("example", fmt.Sprintf(`curl -H "Content-Type: application/json" -X POST -d '{"timestamp": "2016-10-26T02:56:47.158Z", "Application": "APPNAME", "Environment": "ENV"}' %s`, url)))
	return url, nil
}

// findIngestAPI returns the id of the project's ingest API.
func (p *Provisioner) findIngestAPI(ctx context.Context) (string, error) {
	name := IngestAPIName(p.config.Name)
	pages := apigateway.NewGetRestApisPaginator(p.clients.Gateway, &apigateway.GetRestApisInput{})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return "", err
		}
		for _, api := range page.Items {
			if aws.ToString(api.Name) == name {
				return aws.ToString(api.Id), nil
			}
		}
	}
	return "", fmt.Errorf("%w: api %s", ErrNotFound, name)
}

func (p *Provisioner) deleteIngestAPI(ctx context.Context, t *teardown) {
	name := IngestAPIName(p.config.Name)
	id, err := p.findIngestAPI(ctx)
	if err != nil {
		t.record("ingest_api", name, err)
		return
	}
	_, err = p.clients.Gateway.DeleteRestApi(ctx, &apigateway.DeleteRestApiInput{RestApiId: aws.String(id)})
	t.record("ingest_api", name, err)
}
