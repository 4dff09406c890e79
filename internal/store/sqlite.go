// 包 store 提供内容索引的 SQLite 快照：
// - 构建时把记录写入 records 表，便于外部工具查询
// - 也可作为记录源回读（日期以 RFC3339 字符串保存）
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"go-content-pipeline/internal/dates"
	"go-content-pipeline/internal/model"
)

// SQLite 封装 *sql.DB，基于 modernc.org/sqlite（纯 Go 实现）。
type SQLite struct {
	db *sql.DB
}

// OpenSQLite 打开数据库并执行自动迁移。
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS records (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            path TEXT UNIQUE NOT NULL,
            kind TEXT NOT NULL,
            title TEXT,
            date TEXT,
            draft INTEGER NOT NULL DEFAULT 0,
            body TEXT,
            params TEXT,
            indexed_at TIMESTAMP
        );`)
	if err != nil {
		return fmt.Errorf("exec migrate: %w", err)
	}
	return nil
}

// Reset 清空 records 表（不删除数据库文件）。
func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	return nil
}

const upsertRecord = `INSERT INTO records(path, kind, title, date, draft, body, params, indexed_at)
        VALUES(?,?,?,?,?,?,?,?)
        ON CONFLICT(path) DO UPDATE SET kind=excluded.kind, title=excluded.title, date=excluded.date,
            draft=excluded.draft, body=excluded.body, params=excluded.params, indexed_at=excluded.indexed_at`

// UpsertRecord 插入或更新记录（path 唯一约束）。
func (s *SQLite) UpsertRecord(ctx context.Context, r model.Record) error {
	return upsert(ctx, s.db, r)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, r model.Record) error {
	if r.Path == "" {
		return errors.New("record.path required")
	}
	var params any
	if len(r.Params) > 0 {
		b, err := json.Marshal(r.Params)
		if err != nil {
			return fmt.Errorf("encode params %s: %w", r.Path, err)
		}
		params = string(b)
	}
	_, err := db.ExecContext(ctx, upsertRecord,
		r.Path, string(r.Kind), r.Title, storedDate(r.Date), r.Draft, r.Body, params, time.Now())
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", r.Path, err)
	}
	return nil
}

// storedDate 可解析的日期存为 RFC3339（保留时刻以维持同日排序），
// 不可解析的字符串原样保存，其余为 NULL。
func storedDate(v any) any {
	if t, ok := dates.Parse(v); ok {
		return t.Format(time.RFC3339Nano)
	}
	if s, ok := v.(string); ok {
		return s
	}
	return nil
}

// ReplaceAll 在一个事务内用新记录集替换快照，保持记录源的原始顺序。
func (s *SQLite) ReplaceAll(ctx context.Context, records []model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	for _, r := range records {
		if err := upsert(ctx, tx, r); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRecords 按写入顺序返回全部记录。
func (s *SQLite) ListRecords(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, kind, COALESCE(title,''), date, draft, COALESCE(body,''), params FROM records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()
	var out []model.Record
	for rows.Next() {
		var (
			r      model.Record
			kind   string
			date   sql.NullString
			params sql.NullString
		)
		if err := rows.Scan(&r.Path, &kind, &r.Title, &date, &r.Draft, &r.Body, &params); err != nil {
			return nil, fmt.Errorf("scan records: %w", err)
		}
		r.Kind = model.Kind(kind)
		if date.Valid {
			r.Date = date.String
		}
		if params.Valid && params.String != "" {
			if err := json.Unmarshal([]byte(params.String), &r.Params); err != nil {
				return nil, fmt.Errorf("decode params %s: %w", r.Path, err)
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// Stats 统计记录总数、各类型数量与草稿数。
func (s *SQLite) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	err := s.db.QueryRowContext(ctx, `SELECT
            COUNT(1),
            COALESCE(SUM(kind = 'post'), 0),
            COALESCE(SUM(kind = 'guide'), 0),
            COALESCE(SUM(draft), 0)
        FROM records`).Scan(&st.RecordsTotal, &st.PostsTotal, &st.GuidesTotal, &st.DraftsTotal)
	if err != nil {
		return st, fmt.Errorf("count records: %w", err)
	}
	st.UpdatedAt = time.Now()
	return st, nil
}
