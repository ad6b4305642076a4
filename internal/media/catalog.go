package media

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	KindUpload   = "upload"
	KindDownload = "download"
)

// Entry is one stored media file.
type Entry struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	FileName   string    `json:"fileName"`
	StoredName string    `json:"storedName"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created"`
}

// Catalog records uploaded and downloaded files.
type Catalog interface {
	Record(ctx context.Context, e Entry) (int64, error)
	List(ctx context.Context, kind string, limit, offset int) ([]Entry, error)
}

// SQLCatalog is a Catalog over database/sql.
type SQLCatalog struct {
	db       *sql.DB
	postgres bool
}

// NewSQLCatalog wraps db. driver is the database/sql driver name ("pgx" or "sqlite").
func NewSQLCatalog(db *sql.DB, driver string) (*SQLCatalog, error) {
	switch driver {
	case "pgx":
		return &SQLCatalog{db: db, postgres: true}, nil
	case "sqlite":
		return &SQLCatalog{db: db}, nil
	}
	return nil, fmt.Errorf("catalog: unsupported driver %q", driver)
}

func (c *SQLCatalog) EnsureSchema(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if c.postgres {
		id = "BIGSERIAL PRIMARY KEY"
	}
	_, err := c.db.ExecContext(ctx, `
	  CREATE TABLE IF NOT EXISTS media_files (
	    id           `+id+`,
	    kind         TEXT   NOT NULL,
	    file_name    TEXT   NOT NULL,
	    stored_name  TEXT   NOT NULL,
	    size         BIGINT NOT NULL DEFAULT 0,
	    created_unix BIGINT NOT NULL
	  )`)
	return err
}

func (c *SQLCatalog) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	const ins = `INSERT INTO media_files (kind, file_name, stored_name, size, created_unix)
	             VALUES (?, ?, ?, ?, ?)`
	args := []any{e.Kind, e.FileName, e.StoredName, e.Size, e.CreatedAt.UnixMilli()}

	if c.postgres {
		var id int64
		err := c.db.QueryRowContext(ctx, c.rebind(ins)+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := c.db.ExecContext(ctx, ins, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (c *SQLCatalog) List(ctx context.Context, kind string, limit, offset int) ([]Entry, error) {
	if limit == 0 {
		limit = 50
	}
	var (
		rows *sql.Rows
		err  error
	)
	base := `SELECT id, kind, file_name, stored_name, size, created_unix FROM media_files`
	order := ` ORDER BY created_unix DESC, id DESC LIMIT ? OFFSET ?`
	switch kind {
	case KindUpload, KindDownload:
		rows, err = c.db.QueryContext(ctx, c.rebind(base+` WHERE kind = ?`+order), kind, limit, offset)
	default:
		rows, err = c.db.QueryContext(ctx, c.rebind(base+order), limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e  Entry
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.FileName, &e.StoredName, &e.Size, &ms); err != nil {
			return nil, err
		}
		e.CreatedAt = time.UnixMilli(ms).UTC()
		list = append(list, e)
	}
	return list, rows.Err()
}

// rebind turns ? placeholders into $n for Postgres.
func (c *SQLCatalog) rebind(q string) string {
	if !c.postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
