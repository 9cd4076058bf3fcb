package server

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"item-manager/internal/config"
	"item-manager/internal/dispatch"
	"item-manager/internal/table"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Table      table.Table
	Dispatcher *dispatch.Dispatcher
}

// NewContainer creates the logger, opens the configured table and wires
// the dispatcher to it
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return NewContainerWithLogger(ctx, cfg, logger)
}

// NewContainerWithLogger is NewContainer with a caller-supplied logger
func NewContainerWithLogger(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	tbl, err := table.NewFactory(logger).Create(ctx, TableConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"mode":        config.GetDeploymentMode(),
		"backend":     cfg.Table.Backend,
		"table":       cfg.Table.Name,
	}).Info("Container initialized")

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Table:      tbl,
		Dispatcher: dispatch.New(tbl, logger),
	}, nil
}

// TableConfig maps the application configuration onto the table factory's
func TableConfig(cfg *config.Config) *table.Config {
	return &table.Config{
		Backend:      cfg.Table.Backend,
		Name:         cfg.Table.Name,
		PartitionKey: cfg.Table.PartitionKey,
		SortKey:      cfg.Table.SortKey,
		Path:         cfg.Table.Path,
		Region:       cfg.Table.Region,
		Endpoint:     cfg.Table.Endpoint,
	}
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.Table != nil {
		if err := c.Table.Close(); err != nil {
			return fmt.Errorf("failed to close table: %w", err)
		}
	}
	return nil
}
