package db

import (
	"database/sql"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver registered by this package. It is
// go-sqlite3 with an update hook installed on every connection.
const DriverName = "sqlite3_clearance"

// factTables are the tables whose changes can move a request's status.
var factTables = map[string]bool{
	"clearance_lines":          true,
	"accountability_records":   true,
	"accountability_summaries": true,
	"inspection_schedules":     true,
	"equipment":                true,
	"personnel":                true,
}

var (
	listenersMu sync.RWMutex
	listeners   = map[int]func(table string){}
	nextID      int
)

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			conn.RegisterUpdateHook(func(op int, _ string, table string, _ int64) {
				if isFactChange(op, table) {
					notify(table)
				}
			})
			return nil
		},
	})
}

// isFactChange reports whether a row change should trigger reconciliation.
// Status writes on clearance_requests are the engine's own output and only
// new requests are interesting there.
func isFactChange(op int, table string) bool {
	if table == "clearance_requests" {
		return op == sqlite3.SQLITE_INSERT
	}
	return factTables[table]
}

// OnChange registers fn to be called whenever a fact table changes through a
// connection opened by this process. fn runs inside SQLite's update hook: it
// must not touch the database and must not block.
// The returned function unregisters fn.
func OnChange(fn func(table string)) (unsubscribe func()) {
	listenersMu.Lock()
	id := nextID
	nextID++
	listeners[id] = fn
	listenersMu.Unlock()

	return func() {
		listenersMu.Lock()
		delete(listeners, id)
		listenersMu.Unlock()
	}
}

func notify(table string) {
	listenersMu.RLock()
	defer listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(table)
	}
}
