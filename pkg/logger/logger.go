// Package logger 初始化全局日志系统。
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日志配置
type Config struct {
	Level      string // 日志级别: debug, info, warn, error
	OutputFile string // 日志文件路径（可选，为空则只输出到控制台）
	MaxSize    int    // 日志文件最大大小（MB）
	MaxBackups int    // 保留的旧日志文件数量
	MaxAge     int    // 保留旧日志文件的天数
	Compress   bool   // 是否压缩旧日志文件
	Quiet      bool   // 控制台只输出 warn 及以上（CLI 输出走 stdout，日志走 stderr）
}

// Init 初始化日志系统。
// 配置同时作用于全局 logrus，各包用 logrus.WithField 取到的
// logger 都会写入同一输出。
func Init(config Config) error {
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if config.Quiet && level > logrus.WarnLevel {
		level = logrus.WarnLevel
	}

	var writers []io.Writer
	// CLI 的结构化输出占用 stdout，日志走 stderr
	writers = append(writers, os.Stderr)

	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0o755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		})
	}

	logrus.SetOutput(io.MultiWriter(writers...))
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "06-01-02 15:04:05",
	})

	return nil
}
