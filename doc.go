/*
Package tablecache provides a data access layer whose caching strategy can be
switched while the program runs. A Proxy implements table.Table for a single
table and forwards every call to the strategy its runtime configuration
selects:

	none   every operation goes to storage (NoCacheTable)
	eager  the whole table is mirrored in memory (EagerTable)
	lazy   read results are cached on demand in ristretto or redis (LazyTable)

Any strategy can additionally be wrapped in a DebugTable which logs every call.

Usage:

	import (
		"github.com/prashanthpai/tablecache"
		"github.com/prashanthpai/tablecache/events"
		"github.com/prashanthpai/tablecache/settings"
		"github.com/prashanthpai/tablecache/sqlstore"
	)

	func main() {
		...
		db, err := sqlstore.Open(sqlstore.DialectPostgres, dsn, nil)
		store, err := sqlstore.New(&sqlstore.Config{DB: db, Dialect: sqlstore.DialectPostgres})

		// settings.yaml is reloaded on every change
		bus := events.NewBus()
		src, err := settings.NewFile("settings.yaml", bus, logger)
		go src.Run(stop)

		users, err := tablecache.NewProxy(&tablecache.Config{
			Storage:  store,
			Table:    "users",
			Settings: src,
			Events:   bus,
		})
		err = users.Initialize(ctx)
		...
		u, err := users.GetOneByPrimaryKey(ctx, table.Record{"id": 1})
	}

with settings.yaml:

	database_optimizations:
	  caching_strategy: lazy
	database_table_optimizations:
	  users:
	    caching_strategy: eager
	    debug: true

Whenever events.EnvironmentUpdated is published the Proxy resolves its
configuration again and, if the strategy changed or debug was turned on,
builds and initializes a new strategy and destroys the old one. Calls made
while the swap is in progress wait for the new strategy.
*/
package tablecache
