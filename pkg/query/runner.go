package query

import (
	"context"
	"strings"
	"time"

	"github.com/eventlight-labs/eventql/pkg/datastore"
)

// Run executes one complete query run: a fresh namespace is seeded with the
// run name and time window, every statement of script executes in textual
// order, and the final RETURN binding is the result. Any failure aborts the
// run immediately.
func Run(ctx context.Context, name, script string, start, end time.Time, ds datastore.Datastore, reg *Registry) (Value, error) {
	ns := NewNamespace(name, start, end)
	if err := Exec(ctx, script, ns, ds, reg); err != nil {
		return nil, err
	}
	return ns.Return()
}

// Exec runs every statement of script against ns. Statements are separated
// by ';'; statements that are empty after trimming are skipped, which
// tolerates trailing semicolons and blank lines.
func Exec(ctx context.Context, script string, ns Namespace, ds datastore.Datastore, reg *Registry) error {
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		parsed, err := ParseStatement(stmt)
		if err != nil {
			return err
		}
		if err := ExecStatement(ctx, parsed, ds, ns, reg); err != nil {
			return err
		}
	}
	return nil
}
