/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"context"
	"fmt"

	"github.com/jswork01-cmyk/trainning1/internal/container"
	"github.com/jswork01-cmyk/trainning1/internal/seed"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations to create or update database schema.
This command will:
- Create all required tables if they don't exist
- Update table schemas if needed
- Optionally seed employees, trainees and jobs from a YAML file

The command uses the database configuration from the config file or environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 连接数据库并迁移
		log.WithFields(logrus.Fields{
			"driver": cfg.Database.Driver,
			"path":   cfg.Database.Path,
			"host":   cfg.Database.Host,
		}).Info("running database migrations")
		ctr, err := container.NewContainer(cfg, log)
		if err != nil {
			return err
		}
		defer ctr.Close()

		// 3. 导入初始名册
		seedPath, _ := cmd.Flags().GetString("seed")
		if seedPath == "" {
			log.Info("database migrations completed")
			return nil
		}
		f, err := seed.Load(seedPath)
		if err != nil {
			return err
		}
		result, err := seed.Apply(context.Background(), ctr.RosterService(), f)
		if err != nil {
			return fmt.Errorf("failed to seed roster: %w", err)
		}
		log.WithFields(logrus.Fields{
			"employees": result.Employees,
			"trainees":  result.Trainees,
			"jobs":      result.Jobs,
		}).Info("database migrations and seed completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().String("seed", "", "YAML file with employees, trainees and jobs to insert")
}
