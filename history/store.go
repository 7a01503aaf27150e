// Package history 把每次探测的结果持久化到 SQLite，便于对比代理在不同版本间的行为。
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/LubyRuffy/rtprobe/collect"
	"github.com/LubyRuffy/rtprobe/roundtrip"
)

const (
	ScenarioRoundTrip    = "roundtrip"
	ScenarioSimple       = "simple"
	ScenarioConversation = "conversation"
	ScenarioToolCalls    = "tools"

	// StateCompleted 标记成功结束的单轮场景。
	StateCompleted = "completed"

	previewLimit = 200
)

// Run 是一次探测的摘要记录。
type Run struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	Scenario       string    `gorm:"index;size:32" json:"scenario"`
	Model          string    `json:"model"`
	ProxyURL       string    `json:"proxy_url"`
	State          string    `gorm:"index;size:32" json:"state"`
	Error          string    `json:"error,omitempty"`
	Turn1RequestID string    `json:"turn1_request_id,omitempty"`
	Turn2RequestID string    `json:"turn2_request_id,omitempty"`
	ToolCalls      int       `json:"tool_calls"`
	Matched        string    `json:"matched,omitempty"`
	TextPreview    string    `json:"text_preview,omitempty"`
	// Counts 是第一轮事件计数的 JSON。
	Counts     string `json:"counts,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func (Run) TableName() string { return "probe_runs" }

// Failed 报告该次探测是否失败。
func (r Run) Failed() bool {
	return r.State == string(roundtrip.StateFailed)
}

type Store struct {
	db *gorm.DB
}

// Open 打开（必要时创建）path 处的数据库；path 为 ":memory:" 时使用内存库。
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Save(ctx context.Context, run *Run) error {
	if run == nil {
		return fmt.Errorf("run is nil")
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Recent 按时间倒序返回最多 limit 条记录；failedOnly 只返回失败的探测。
func (s *Store) Recent(ctx context.Context, limit int, failedOnly bool) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	q := s.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if failedOnly {
		q = q.Where("state = ?", string(roundtrip.StateFailed))
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return runs, nil
}

// FromRoundTrip 从一次往返结果生成记录。
func FromRoundTrip(model, proxyURL string, res *roundtrip.Result, elapsed time.Duration) *Run {
	run := &Run{
		Scenario:   ScenarioRoundTrip,
		Model:      model,
		ProxyURL:   proxyURL,
		DurationMS: elapsed.Milliseconds(),
	}
	if res == nil {
		return run
	}
	run.State = string(res.State)
	run.ToolCalls = len(res.Calls)
	run.Matched = res.Matched
	if res.Err != nil {
		run.Error = res.Err.Error()
	}
	if res.Turn1 != nil {
		run.Turn1RequestID = res.Turn1.RequestID
		run.Counts = encodeCounts(res.Turn1.Counts)
		run.TextPreview = collect.Preview(res.Turn1.Text, previewLimit)
	}
	if res.Turn2 != nil {
		run.Turn2RequestID = res.Turn2.RequestID
		run.TextPreview = collect.Preview(res.Turn2.Text, previewLimit)
	}
	return run
}

// FromTurn 从单轮场景的结果生成记录；err 非空时记为失败。
func FromTurn(scenario, model, proxyURL string, turn *roundtrip.TurnResult, err error, elapsed time.Duration) *Run {
	run := &Run{
		Scenario:   scenario,
		Model:      model,
		ProxyURL:   proxyURL,
		State:      StateCompleted,
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		run.State = string(roundtrip.StateFailed)
		run.Error = err.Error()
	}
	if turn != nil {
		run.Turn1RequestID = turn.RequestID
		run.ToolCalls = len(turn.Finalized())
		run.Counts = encodeCounts(turn.Counts)
		run.TextPreview = collect.Preview(turn.Text, previewLimit)
	}
	return run
}

func encodeCounts(c collect.Counters) string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(data)
}
