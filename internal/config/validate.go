package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/fv/internal/decode"
	"github.com/rileyhilliard/fv/internal/errors"
	"github.com/rileyhilliard/fv/internal/publish"
	"github.com/rileyhilliard/fv/internal/render"
	"github.com/rileyhilliard/fv/internal/util"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but fv only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest fv release")
	}

	checks := []struct {
		section string
		fn      func() error
	}{
		{"broker", func() error { return validateBroker(cfg.Broker) }},
		{"feed", func() error { return validateFeed(cfg.Feed) }},
		{"buffer", func() error { return validateBuffer(cfg.Buffer) }},
		{"render", func() error { return validateRender(cfg.Render) }},
		{"stats", func() error { return validateStats(cfg.Stats) }},
		{"serve", func() error { return validateServe(cfg.Serve) }},
		{"publish", func() error { return validatePublish(cfg.Publish) }},
		{"output", func() error { return validateOutput(cfg.Output) }},
	}
	for _, c := range checks {
		if err := c.fn(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
				fmt.Sprintf("Check the '%s' section in your %s.", c.section, ConfigFileName))
		}
	}
	return nil
}

func validateBroker(b BrokerConfig) error {
	if strings.TrimSpace(b.Host) == "" {
		return fmt.Errorf("broker.host is empty - where should fv connect?")
	}
	if b.Port < 1 || b.Port > 65535 {
		return fmt.Errorf("broker.port %d is out of range (1-65535)", b.Port)
	}
	if b.ConnectTimeout < 0 {
		return fmt.Errorf("broker.connect_timeout can't be negative")
	}
	if b.MaxReconnectInterval < 0 {
		return fmt.Errorf("broker.max_reconnect_interval can't be negative")
	}
	return nil
}

func validateFeed(f FeedConfig) error {
	if f.Topic == "" {
		return fmt.Errorf("feed.topic is empty - which topic should fv subscribe to?")
	}
	if strings.ContainsRune(f.Topic, 0) {
		return fmt.Errorf("feed.topic contains a NUL character")
	}
	if _, err := decode.Lookup(f.Decoder, f.Key); err != nil {
		return fmt.Errorf("feed.decoder: %v", err)
	}
	return nil
}

func validateBuffer(b BufferConfig) error {
	if b.Max < 0 {
		return fmt.Errorf("buffer.max can't be negative - use 0 to keep every sample")
	}
	return nil
}

func validateRender(r RenderConfig) error {
	if r.Interval <= 0 {
		return fmt.Errorf("render.interval must be positive, got %v", r.Interval)
	}
	if _, err := render.ParseMode(r.Mode); err != nil {
		return fmt.Errorf("render.mode: %v", err)
	}
	return nil
}

func validateStats(s StatsConfig) error {
	if s.Window < 0 {
		return fmt.Errorf("stats.window can't be negative - use 0 to summarize every sample")
	}
	return nil
}

func validateServe(s ServeConfig) error {
	if s.Addr == "" {
		return fmt.Errorf("serve.addr is empty - try ':2999'")
	}
	return nil
}

func validatePublish(p PublishConfig) error {
	valid := false
	for _, k := range publish.Kinds() {
		if p.Generator == k {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("publish.generator '%s' isn't valid - use one of %s", p.Generator, util.JoinOrNone(publish.Kinds()))
	}
	if p.Interval <= 0 {
		return fmt.Errorf("publish.interval must be positive, got %v", p.Interval)
	}
	return nil
}

// validateOutput checks output configuration.
func validateOutput(out OutputConfig) error {
	validColors := map[string]bool{"auto": true, "always": true, "never": true, "": true}
	if !validColors[out.Color] {
		return fmt.Errorf("output.color '%s' isn't valid - use 'auto', 'always', or 'never'", out.Color)
	}
	return nil
}
