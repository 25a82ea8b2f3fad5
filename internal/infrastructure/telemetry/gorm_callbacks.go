package telemetry

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// SQL verbs reported for each gorm callback chain. Row and Raw chains
// detect the verb from the statement text.
const (
	opInsert = "INSERT"
	opSelect = "SELECT"
	opUpdate = "UPDATE"
	opDelete = "DELETE"
	opRaw    = ""
)

// registerAround stamps each statement with its start time under key and
// runs after(verb) once the statement has executed. Both hooks are ordered
// inside otelgorm's before/after pair when that plugin is installed, so the
// statement span is still current when after runs. Hook names are prefixed
// with name so several plugins can share one *gorm.DB.
func registerAround(db *gorm.DB, name, key string, after func(verb string) func(*gorm.DB)) error {
	stamp := func(tx *gorm.DB) { tx.InstanceSet(key, time.Now()) }
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").After("otel:before:create").Register(name+":before_create", stamp),
		cb.Create().After("gorm:create").Before("otel:after:create").Register(name+":after_create", after(opInsert)),

		cb.Query().Before("gorm:query").After("otel:before:select").Register(name+":before_query", stamp),
		cb.Query().After("gorm:query").Before("otel:after:select").Register(name+":after_query", after(opSelect)),

		cb.Update().Before("gorm:update").After("otel:before:update").Register(name+":before_update", stamp),
		cb.Update().After("gorm:update").Before("otel:after:update").Register(name+":after_update", after(opUpdate)),

		cb.Delete().Before("gorm:delete").After("otel:before:delete").Register(name+":before_delete", stamp),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register(name+":after_delete", after(opDelete)),

		cb.Row().Before("gorm:row").After("otel:before:row").Register(name+":before_row", stamp),
		cb.Row().After("gorm:row").Before("otel:after:row").Register(name+":after_row", after(opRaw)),

		cb.Raw().Before("gorm:raw").After("otel:before:raw").Register(name+":before_raw", stamp),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register(name+":after_raw", after(opRaw)),
	)
}

// elapsedSince returns the time since registerAround stamped tx under key.
func elapsedSince(tx *gorm.DB, key string) (time.Duration, bool) {
	v, ok := tx.InstanceGet(key)
	if !ok {
		return 0, false
	}
	start, ok := v.(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}
