// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package unit loads the deployable function units of a project: one
// directory per unit holding a lambda_config.json and the function code.
package unit

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"github.com/xmidt-org/elk/model"
)

// ConfigFile is the name of the definition file inside a unit directory.
const ConfigFile = "lambda_config.json"

var (
	ErrInvalidDefinition = errors.New("invalid unit definition")
	ErrNoCode            = errors.New("unit has no code files")
)

var validate = validator.New()

// Definition describes one scheduled function.
type Definition struct {
	// Name is the unit directory name. Provisioned resources are named
	// {project}_{Name}.
	Name string `validate:"required"`

	Runtime     string `validate:"required"`
	Handler     string `validate:"required"`
	Description string
	Timeout     int32 `validate:"gte=0,lte=900"`
	MemorySize  int32 `validate:"gte=0,lte=10240"`

	// Schedule is an EventBridge schedule expression, i.e. rate(5 minutes).
	// Units without a schedule are only invoked on demand.
	Schedule string

	// Input is the scheduled payload template.
	Input map[string]interface{}

	// Files are the code files zipped into the deployment package.
	Files []string `validate:"min=1"`
}

type rawDefinition struct {
	Runtime     string                 `json:"runtime"`
	Handler     string                 `json:"handler"`
	Description string                 `json:"description"`
	Timeout     interface{}            `json:"timeout"`
	MemorySize  interface{}            `json:"memory_size"`
	Schedule    string                 `json:"schedule"`
	Input       map[string]interface{} `json:"cloudwatch_rule"`
}

// Load reads every unit directory under root, sorted by name.
func Load(root string) ([]Definition, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var defs []Definition
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		d, err := LoadDefinition(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// LoadDefinition reads the unit held in dir.
func LoadDefinition(dir string) (Definition, error) {
	name := filepath.Base(dir)
	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, name, err)
	}

	var raw rawDefinition
	if err := json.Unmarshal(data, &raw); err != nil {
		return Definition{}, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, name, err)
	}

	timeout, err := cast.ToInt32E(raw.Timeout)
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %s: timeout: %w", ErrInvalidDefinition, name, err)
	}
	memory, err := cast.ToInt32E(raw.MemorySize)
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %s: memory_size: %w", ErrInvalidDefinition, name, err)
	}

	files, err := codeFiles(dir)
	if err != nil {
		return Definition{}, err
	}
	if len(files) == 0 {
		return Definition{}, fmt.Errorf("%w: %s", ErrNoCode, name)
	}

	d := Definition{
		Name:        name,
		Runtime:     raw.Runtime,
		Handler:     raw.Handler,
		Description: raw.Description,
		Timeout:     timeout,
		MemorySize:  memory,
		Schedule:    raw.Schedule,
		Input:       raw.Input,
		Files:       files,
	}
	if err := validate.Struct(d); err != nil {
		return Definition{}, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, name, err)
	}
	return d, nil
}

func codeFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == ConfigFile {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// Scheduled is true when the unit runs on a schedule.
func (d Definition) Scheduled() bool {
	return d.Schedule != ""
}

// Substitute returns a copy of the input template where the endpoint,
// region and domain name keys are replaced, but only when the template
// already carries them.
func (d Definition) Substitute(endpoint, region, domain string) map[string]interface{} {
	out := make(map[string]interface{}, len(d.Input))
	for k, v := range d.Input {
		out[k] = v
	}
	replace := map[string]string{
		model.EndpointKey:   endpoint,
		model.RegionKey:     region,
		model.DomainNameKey: domain,
	}
	for k, v := range replace {
		if _, ok := out[k]; ok {
			out[k] = v
		}
	}
	return out
}

// InputJSON renders the substituted template as the scheduled target input.
func (d Definition) InputJSON(endpoint, region, domain string) (string, error) {
	b, err := json.Marshal(d.Substitute(endpoint, region, domain))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Zip packages the unit's code files at the archive root. Files keep
// their mode so bootstrap binaries stay executable.
func (d Definition) Zip() ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, path := range d.Files {
		if err := addFile(w, path); err != nil {
			w.Close()
			return nil, fmt.Errorf("zipping %s: %w", d.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addFile(w *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	dst, err := w.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, f)
	return err
}
