// Package journal 用 sqlite 记录已组装订单的提交历史。
//
// 意图 ID 是幂等键：同一意图落库一次，提交前先查日志，
// 传输重试时取回落库的原始字节而不是重新组装签名。
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/betcli/gotrade/clob/types"
)

// Status 订单在日志中的状态
type Status string

const (
	StatusAssembled Status = "assembled"
	StatusSubmitted Status = "submitted"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// Entry 日志条目
type Entry struct {
	IntentID   string
	TokenID    string
	OrderType  types.OrderType
	Order      types.SignedOrder
	Status     Status
	OrderID    string
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Journal 订单日志
type Journal struct {
	db *sql.DB
}

// Open 打开（或创建）订单日志
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite：单连接更稳定
	db.SetMaxIdleConns(1)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) migrate() error {
	_, err := j.db.Exec(`
CREATE TABLE IF NOT EXISTS orders (
  intent_id   TEXT PRIMARY KEY,
  token_id    TEXT NOT NULL,
  order_type  TEXT NOT NULL,
  order_json  TEXT NOT NULL,
  status      TEXT NOT NULL,
  order_id    TEXT NOT NULL DEFAULT '',
  last_error  TEXT NOT NULL DEFAULT '',
  created_at  TEXT NOT NULL,
  updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
`)
	if err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	return nil
}

// Close 关闭日志
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record 落库一个新组装的订单。意图 ID 冲突说明重复组装，报错。
func (j *Journal) Record(ctx context.Context, assembled *types.AssembledOrder) error {
	orderJSON, err := json.Marshal(assembled.Order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	now := time.Now().Format(time.RFC3339Nano)
	_, err = j.db.ExecContext(ctx, `
INSERT INTO orders (intent_id, token_id, order_type, order_json, status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?)
`, assembled.IntentID, assembled.TokenID, string(assembled.OrderType), string(orderJSON), string(StatusAssembled), now, now)
	if err != nil {
		return fmt.Errorf("record order: %w", err)
	}
	return nil
}

// Get 按意图 ID 取回条目；不存在时返回 (nil, nil)
func (j *Journal) Get(ctx context.Context, intentID string) (*Entry, error) {
	row := j.db.QueryRowContext(ctx, `
SELECT intent_id, token_id, order_type, order_json, status, order_id, last_error, created_at, updated_at
FROM orders WHERE intent_id=?
`, intentID)

	var e Entry
	var orderJSON, orderType, status, createdAt, updatedAt string
	if err := row.Scan(&e.IntentID, &e.TokenID, &orderType, &orderJSON, &status, &e.OrderID, &e.LastError, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := json.Unmarshal([]byte(orderJSON), &e.Order); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	e.OrderType = types.OrderType(orderType)
	e.Status = Status(status)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &e, nil
}

// MarkSubmitted 记录提交成功与交易所订单 ID
func (j *Journal) MarkSubmitted(ctx context.Context, intentID, orderID string) error {
	return j.setStatus(ctx, intentID, StatusSubmitted, orderID, "")
}

// MarkRejected 记录交易所拒绝
func (j *Journal) MarkRejected(ctx context.Context, intentID, reason string) error {
	return j.setStatus(ctx, intentID, StatusRejected, "", reason)
}

// MarkFailed 记录重试耗尽后的传输失败
func (j *Journal) MarkFailed(ctx context.Context, intentID, reason string) error {
	return j.setStatus(ctx, intentID, StatusFailed, "", reason)
}

func (j *Journal) setStatus(ctx context.Context, intentID string, status Status, orderID, lastError string) error {
	res, err := j.db.ExecContext(ctx, `
UPDATE orders SET status=?, order_id=?, last_error=?, updated_at=? WHERE intent_id=?
`, string(status), orderID, lastError, time.Now().Format(time.RFC3339Nano), intentID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update order status: intent %s not recorded", intentID)
	}
	return nil
}

// Pending 返回已组装但尚未得到终态的条目
func (j *Journal) Pending(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT intent_id, token_id, order_type, order_json, status, order_id, last_error, created_at, updated_at
FROM orders WHERE status IN (?, ?) ORDER BY created_at
`, string(StatusAssembled), string(StatusFailed))
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var orderJSON, orderType, status, createdAt, updatedAt string
		if err := rows.Scan(&e.IntentID, &e.TokenID, &orderType, &orderJSON, &status, &e.OrderID, &e.LastError, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(orderJSON), &e.Order); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		e.OrderType = types.OrderType(orderType)
		e.Status = Status(status)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
