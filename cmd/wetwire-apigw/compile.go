package main

import (
	"fmt"

	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-apigw-go"
	"github.com/lex00/wetwire-apigw-go/internal/differ"
	"github.com/lex00/wetwire-apigw-go/internal/event"
	"github.com/lex00/wetwire-apigw-go/internal/sqs"
	"github.com/lex00/wetwire-apigw-go/internal/template"
)

// compiled is the outcome of compiling one config file.
type compiled struct {
	config   event.Config
	registry template.Registry
	// base is the host template, nil when none was given.
	base *wetwire.Template
}

// template renders the registry into the host template, keeping its
// non-Resources sections.
func (c *compiled) template() *wetwire.Template {
	return c.registry.Into(c.base)
}

// compileFile loads the config at configPath and compiles its events. When
// basePath is set, the resources of that template seed the registry and
// compiled methods overwrite entries with the same logical id. Its other
// sections are carried into the rendered template.
func compileFile(configPath, basePath string, logger *zap.Logger) (*compiled, error) {
	cfg, err := event.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", zap.String("config", configPath), zap.Error(err))
		return nil, err
	}
	normalized := cfg.Normalize()

	registry := template.Registry{}
	var base *wetwire.Template
	if basePath != "" {
		base, err = differ.LoadTemplate(basePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load base template %s: %w", basePath, err)
		}
		registry = template.Registry(base.Resources).Clone()
		logger.Debug("loaded base template", zap.String("base", basePath), zap.Int("resources", len(registry)))
	}

	reg, err := sqs.Compile(normalized.Events, normalized.RestAPILogicalID, normalized.Resources, registry)
	if err != nil {
		logger.Error("compile failed", zap.String("config", configPath), zap.Error(err))
		return nil, err
	}

	logger.Info("compiled proxies",
		zap.String("config", configPath),
		zap.Int("events", len(normalized.Events)),
		zap.Int("resources", len(reg)),
	)

	return &compiled{config: normalized, registry: reg, base: base}, nil
}

// renderTemplate serializes tmpl in the given format.
func renderTemplate(tmpl *wetwire.Template, format string) ([]byte, error) {
	switch format {
	case "json":
		return template.ToJSON(tmpl)
	case "yaml":
		return template.ToYAML(tmpl)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
