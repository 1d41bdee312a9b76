// polytrade 是 Polymarket CLOB 的命令行交易工具。
//
// 子命令：
//
//	search     按关键词搜索市场
//	positions  查看持仓
//	order-book 查看订单簿
//	trade      查看市场成交记录
//	midpoint   查看中间价
//	order      下单（限价/市价）
//	resubmit   重放日志中未完成的订单
//	status     查看可用资金
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/betcli/gotrade/pkg/config"
	"github.com/betcli/gotrade/pkg/logger"
)

const usageText = `用法: polytrade <command> [flags]

命令:
  search <query>        按关键词搜索市场
  positions             查看持仓（-user 指定地址）
  order-book            查看订单簿（-token）
  trade                 查看市场成交记录（-token）
  midpoint              查看中间价（-token）
  order                 下单（-token -side -amount [-price]）
  resubmit              重放日志中未完成的订单
  status                查看可用资金

通用 flag:
  -config <path>        YAML 配置文件路径（默认 config.yaml）
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	// Ctrl-C 中断所有在途请求
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	command := os.Args[1]
	args := os.Args[2:]

	if err := run(ctx, command, args); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "配置文件路径")

	var (
		userFlag   = fs.String("user", "", "用户地址（仅 positions）")
		tokenFlag  = fs.String("token", "", "token ID")
		sideFlag   = fs.String("side", "", "buy 或 sell（仅 order）")
		amountFlag = fs.String("amount", "", "数量（仅 order）")
		priceFlag  = fs.String("price", "", "限价，省略时按市价 FOK 下单（仅 order）")
	)

	// search 的查询词是位置参数，其余命令全部走 flag
	var positional []string
	for len(args) > 0 && (len(args[0]) == 0 || args[0][0] != '-') {
		positional = append(positional, args[0])
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// CLI 输出走 stdout，日志走 stderr 与文件
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		Quiet:      true,
	}); err != nil {
		return err
	}

	a := &app{cfg: cfg, log: logrus.WithField("component", "polytrade")}

	switch command {
	case "search":
		if len(positional) == 0 {
			return fmt.Errorf("search 需要查询关键词")
		}
		return a.runSearch(ctx, positional[0])
	case "positions":
		return a.runPositions(ctx, *userFlag)
	case "order-book":
		return a.runOrderBook(ctx, *tokenFlag)
	case "trade":
		return a.runTrades(ctx, *tokenFlag)
	case "midpoint":
		return a.runMidpoint(ctx, *tokenFlag)
	case "order":
		return a.runOrder(ctx, orderArgs{
			TokenID: *tokenFlag,
			Side:    *sideFlag,
			Amount:  *amountFlag,
			Price:   *priceFlag,
		})
	case "resubmit":
		return a.runResubmit(ctx)
	case "status":
		return a.runStatus(ctx)
	case "help", "-h", "--help":
		fmt.Print(usageText)
		return nil
	default:
		fmt.Fprint(os.Stderr, usageText)
		return fmt.Errorf("未知命令: %s", command)
	}
}

type app struct {
	cfg *config.Config
	log *logrus.Entry
}
