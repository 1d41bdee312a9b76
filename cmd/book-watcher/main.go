// book-watcher 通过 WebSocket 实时监控一个或多个 token 的订单簿。
//
// 用法:
//
//	book-watcher -tokens <tokenID>[,<tokenID>...]
//	book-watcher -slug bitcoin-up-or-down-aug-30
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/betcli/gotrade/clob/client"
	"github.com/betcli/gotrade/clob/stream"
	"github.com/betcli/gotrade/pkg/config"
	"github.com/betcli/gotrade/pkg/logger"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "配置文件路径")
		tokensFlag = flag.String("tokens", "", "逗号分隔的 token ID 列表")
		slugFlag   = flag.String("slug", "", "市场 slug，自动解析出全部 token")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, OutputFile: cfg.Log.File}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	tokenIDs, err := resolveTokens(cfg, *tokensFlag, *slugFlag)
	if err != nil {
		logrus.Fatalf("解析 token 失败: %v", err)
	}

	s := stream.New()
	if err := s.Start(); err != nil {
		logrus.Fatalf("连接市场频道失败: %v", err)
	}
	defer s.Stop()

	if err := s.Subscribe(tokenIDs...); err != nil {
		logrus.Fatalf("订阅失败: %v", err)
	}
	fmt.Printf("已订阅 %d 个 token，等待行情...\n", len(tokenIDs))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigCh:
			fmt.Println("\n退出。")
			return
		case err := <-s.Errors():
			logrus.WithError(err).Warn("市场流错误")
		case ev := <-s.Events():
			printEvent(ev)
		}
	}
}

// resolveTokens 将 -tokens 或 -slug 解析为 token ID 列表
func resolveTokens(cfg *config.Config, tokens, slug string) ([]string, error) {
	if tokens != "" {
		var ids []string
		for _, id := range strings.Split(tokens, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("-tokens 为空")
		}
		return ids, nil
	}

	if slug == "" {
		return nil, fmt.Errorf("需要 -tokens 或 -slug")
	}

	gamma := client.NewGammaClient(cfg.API.GammaHost)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT)
	defer cancel()

	market, err := gamma.FetchMarketBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal([]byte(market.ClobTokenIDs), &ids); err != nil || len(ids) == 0 {
		return nil, fmt.Errorf("市场 %s 没有可用的 token ID", slug)
	}
	return ids, nil
}

func printEvent(ev stream.Event) {
	switch e := ev.(type) {
	case stream.BookEvent:
		bid, hasBid := e.Book.BestBid()
		ask, hasAsk := e.Book.BestAsk()
		line := fmt.Sprintf("[%s] %s book", e.Timestamp.Format("15:04:05"), shortToken(e.TokenID))
		if hasBid {
			line += fmt.Sprintf("  bid %s x %s", bid.Price, bid.Size)
		}
		if hasAsk {
			line += fmt.Sprintf("  ask %s x %s", ask.Price, ask.Size)
		}
		if mid, err := e.Book.Midpoint(); err == nil {
			line += fmt.Sprintf("  mid %s", mid)
		}
		fmt.Println(line)
	case stream.LastTradeEvent:
		fmt.Printf("[%s] %s trade %s %s @ %s\n",
			e.Timestamp.Format("15:04:05"), shortToken(e.TokenID), e.Side, e.Size, e.Price)
	case stream.TickSizeChangeEvent:
		fmt.Printf("[%s] %s tick %s -> %s\n",
			e.Timestamp.Format("15:04:05"), shortToken(e.TokenID), e.OldTickSize, e.NewTickSize)
	case stream.PriceChangeEvent:
		for _, ch := range e.Changes {
			fmt.Printf("[%s] %s %s %s x %s\n",
				e.Timestamp.Format("15:04:05"), shortToken(e.TokenID), ch.Side, ch.Price, ch.Size)
		}
	}
}

// shortToken 截断长 token ID，保持输出紧凑
func shortToken(id string) string {
	if len(id) <= 10 {
		return id
	}
	return id[:6] + "…" + id[len(id)-4:]
}
