package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Dataset.Root, err = expandPath(strings.TrimSpace(c.Dataset.Root)); err != nil {
		return fmt.Errorf("dataset.root: %w", err)
	}
	if c.Catalog.Path, err = expandPath(strings.TrimSpace(c.Catalog.Path)); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	if c.Hooks.Dir, err = expandPath(strings.TrimSpace(c.Hooks.Dir)); err != nil {
		return fmt.Errorf("hooks.dir: %w", err)
	}
	for i, hook := range c.Hooks.OnComplete {
		hook = strings.TrimSpace(hook)
		if strings.HasPrefix(hook, "~") {
			if hook, err = expandPath(hook); err != nil {
				return fmt.Errorf("hooks.on_complete: %w", err)
			}
		}
		c.Hooks.OnComplete[i] = hook
	}

	c.Dataset.Mode = strings.ToLower(strings.TrimSpace(c.Dataset.Mode))
	if c.Dataset.Mode == "" {
		c.Dataset.Mode = "overwrite"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Server.Listen = strings.TrimSpace(c.Server.Listen)
	if c.Hooks.TimeoutMs == 0 {
		c.Hooks.TimeoutMs = defaultHookTimeoutMs
	}
	return nil
}

// Normalize expands paths and fills empty fields after flags were applied.
func (c *Config) Normalize() error {
	return c.normalize()
}
