// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"emperror.dev/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	// DefaultIndexPattern is the pattern dashboards open by default.
	DefaultIndexPattern = "cw-*"

	kibanaIndex    = "/.kibana-4"
	kibanaConfig   = kibanaIndex + "/config/4.1.2"
	timeFieldName  = "timestamp"
	templatesRoute = "/_template/"
)

// Template is an index template document. Name is the template's index
// pattern, i.e. cw-*.
type Template struct {
	Name string
	Body []byte
}

// LoadTemplates reads every JSON index template in dir, sorted by name.
func LoadTemplates(dir string) ([]Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var templates []Template
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		body, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var doc struct {
			Template string `json:"template"`
		}
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("%w: template %s: %w", ErrInvalidConfig, e.Name(), err)
		}
		if doc.Template == "" {
			return nil, fmt.Errorf("%w: template %s has no template pattern", ErrInvalidConfig, e.Name())
		}
		templates = append(templates, Template{Name: doc.Template, Body: body})
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}

type indexPattern struct {
	Title         string `json:"title"`
	TimeFieldName string `json:"timeFieldName"`
}

// configureDashboards installs the index templates and their index
// patterns, then selects the default pattern. Failures are logged and
// combined but never stop the remaining requests.
func (p *Provisioner) configureDashboards(ctx context.Context, endpoint string) error {
	var errs []error
	send := func(method, path string, body []byte) error {
		_, err := p.clients.Search.Do(ctx, endpoint, method, path, body)
		outcome := SuccessOutcome
		if err != nil {
			outcome = FailureOutcome
		}
		p.measures.Dashboards.With(prometheus.Labels{OutcomeLabel: outcome}).Inc()
		return err
	}

	for _, t := range p.config.Templates {
		logger := p.logger.With(zap.String("template", t.Name))

		logger.Info("deleting unformatted events that arrived before the template")
		if err := send(http.MethodDelete, "/"+t.Name, nil); err != nil {
			logger.Debug("nothing to delete", zap.Error(err))
		}

		logger.Info("creating index template")
		if err := send(http.MethodPut, templatesRoute+t.Name, t.Body); err != nil {
			logger.Warn("failed creating index template", zap.Error(err))
			errs = append(errs, errors.WithDetails(err, "template", t.Name))
			continue
		}

		pattern, err := json.Marshal(indexPattern{Title: t.Name, TimeFieldName: timeFieldName})
		if err != nil {
			return err
		}
		logger.Info("creating index pattern")
		if err := send(http.MethodPut, kibanaIndex+"/index-pattern/"+t.Name, pattern); err != nil {
			logger.Warn("failed creating index pattern", zap.Error(err))
			errs = append(errs, errors.WithDetails(err, "pattern", t.Name))
		}
	}

	body, err := json.Marshal(map[string]string{"defaultIndex": DefaultIndexPattern})
	if err != nil {
		return err
	}
	p.logger.Info("designating the default index pattern", zap.String("pattern", DefaultIndexPattern))
	if err := send(http.MethodPut, kibanaConfig, body); err != nil {
		p.logger.Warn("failed designating the default index pattern", zap.Error(err))
		errs = append(errs, err)
	}
	return errors.Combine(errs...)
}
