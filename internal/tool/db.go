package tool

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // register the pure-Go sqlite driver

	"github.com/mrz1836/foundry/internal/constants"
	"github.com/mrz1836/foundry/internal/domain"
	foundryerrors "github.com/mrz1836/foundry/internal/errors"
)

const maxQueryRows = 200

// openProjectDB opens a SQLite file inside the project workspace.
func (e *Executor) openProjectDB(projectID, rel string) (*sql.DB, string, error) {
	if rel == "" {
		rel = constants.AppDBFileName
	}
	path, err := e.layout.Resolve(projectID, rel)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, "", err
	}
	return db, rel, nil
}

// dbQuery runs a single read-only statement and renders rows as
// tab-separated text with a header line.
func (e *Executor) dbQuery(ctx context.Context, projectID string, args map[string]string) outcome {
	query := strings.TrimSpace(args["sql"])
	if !strings.HasPrefix(strings.ToUpper(query), "SELECT") {
		return failure(fmt.Errorf("only SELECT is allowed: %w", foundryerrors.ErrReadOnlyQuery))
	}
	db, _, err := e.openProjectDB(projectID, args["path"])
	if err != nil {
		return failure(err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return outcome{kind: domain.ToolErrorIO, err: err}
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return outcome{kind: domain.ToolErrorIO, err: err}
	}
	var b strings.Builder
	b.WriteString(strings.Join(cols, "\t"))

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	n := 0
	for rows.Next() {
		if n == maxQueryRows {
			b.WriteString("\n...[more rows]")
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return outcome{kind: domain.ToolErrorIO, err: err}
		}
		cells := make([]string, len(values))
		for i, v := range values {
			switch tv := v.(type) {
			case nil:
				cells[i] = "NULL"
			case []byte:
				cells[i] = string(tv)
			default:
				cells[i] = fmt.Sprint(tv)
			}
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(cells, "\t"))
		n++
	}
	if err := rows.Err(); err != nil {
		return outcome{kind: domain.ToolErrorIO, err: err}
	}
	return outcome{output: b.String()}
}

// dbApply executes a SQL script against the project database. The script
// comes from the sql argument or from the workspace file named by script.
func (e *Executor) dbApply(ctx context.Context, projectID string, args map[string]string) outcome {
	script := args["sql"]
	if script == "" && args["script"] != "" {
		res := e.read(projectID, map[string]string{"path": args["script"]})
		if res.err != nil {
			return res
		}
		script = res.output
	}
	if strings.TrimSpace(script) == "" {
		return outcome{kind: domain.ToolErrorBadArgs, err: fmt.Errorf("empty script: %w", foundryerrors.ErrBadToolArgs)}
	}

	db, rel, err := e.openProjectDB(projectID, args["path"])
	if err != nil {
		return failure(err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, script); err != nil {
		return outcome{kind: domain.ToolErrorIO, err: fmt.Errorf("apply to %s: %w", rel, err)}
	}
	return outcome{output: fmt.Sprintf("applied %d bytes of SQL to %s", len(script), rel)}
}
