/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"context"
	"fmt"

	"github.com/jswork01-cmyk/trainning1/internal/container"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize with the shared spreadsheet once",
	Long: `Run a one-shot synchronization with the shared spreadsheet:
- Deliver pending export and approval operations
- Refresh the data, approvals and program tabs
- Import remote logs that are missing locally
- Optionally refresh the trainee and employee rosters`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctr, err := container.NewContainer(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		fields := logrus.Fields{}

		// 1. 处理积压的同步操作
		drained, err := ctr.Dispatcher().Drain(ctx)
		if err != nil {
			return fmt.Errorf("failed to drain outbox: %w", err)
		}
		fields["delivered"] = drained

		// 2. 读取远程表格
		syncService := ctr.SyncService()
		refresh, err := syncService.Refresh(ctx)
		if err != nil {
			return err
		}
		fields["rows"] = refresh.Rows
		for tab, warning := range refresh.Warnings {
			log.WithField("tab", tab).Warn(warning)
		}

		// 3. 导入远程日志
		imported, err := syncService.Import(ctx)
		if err != nil {
			return err
		}
		fields["imported"] = imported

		// 4. 名册
		if roster, _ := cmd.Flags().GetBool("roster"); roster {
			if fields["trainees"], err = syncService.SyncTrainees(ctx); err != nil {
				return err
			}
			if fields["employees"], err = syncService.SyncEmployees(ctx); err != nil {
				return err
			}
		}

		log.WithFields(fields).Info("sync completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("roster", false, "Also replace trainees and employees from the spreadsheet")
}
