/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"os"

	"github.com/jswork01-cmyk/trainning1/internal/config"
	"github.com/jswork01-cmyk/trainning1/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "training-log",
	Short: "Vocational training log server",
	Long: `Training Log is a REST API server for a sheltered workshop's daily
vocational training logs. It records trainee evaluations, runs the
three-step approval chain and keeps a shared spreadsheet in sync.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: search in current directory, ./config, or $HOME/.training-log)")
}

// GetRootCmd 返回根命令（用于测试）
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig 加载配置并初始化默认日志记录器
func loadConfig(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.NewFromConfig(&cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	logger.Set(log)
	return cfg, log, nil
}
