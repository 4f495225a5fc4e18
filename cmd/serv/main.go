package main

import (
	"log"

	"github.com/dushixiang/tdi/internal"
	"github.com/spf13/cobra"
)

var (
	envFile  string
	maxTicks int
)

var rootCmd = &cobra.Command{
	Use:   "tdi",
	Short: "TDI - 纸面交易机器人与只读仪表盘",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		return internal.Run(internal.RunOptions{
			EnvFile:  envFile,
			MaxTicks: maxTicks,
		})
	},
}

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "只启动仪表盘，不启动交易循环",
	RunE: func(cmd *cobra.Command, args []string) error {
		return internal.Run(internal.RunOptions{
			EnvFile: envFile,
			WebOnly: true,
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "应用数据库表结构后退出",
	RunE: func(cmd *cobra.Command, args []string) error {
		return internal.Migrate(envFile)
	},
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "拉取K线执行一次确定性回测",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := cmd.Flags().GetInt("atr-period")
		if err != nil {
			return err
		}
		return internal.Backtest(envFile, period)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", "", ".env 文件路径，默认读取当前目录")
	rootCmd.Flags().IntVar(&maxTicks, "max-ticks", 0, "最多执行的 tick 数，0 表示不限")
	backtestCmd.Flags().Int("atr-period", 14, "ATR 计算周期")

	rootCmd.AddCommand(webCmd, migrateCmd, backtestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
