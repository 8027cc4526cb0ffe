package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/rentbook/config"
	"github.com/xraph/rentbook/store"
	"github.com/xraph/rentbook/store/file"
	"github.com/xraph/rentbook/store/memory"
	"github.com/xraph/rentbook/store/mongo"
	"github.com/xraph/rentbook/store/postgres"
	"github.com/xraph/rentbook/store/redis"
	"github.com/xraph/rentbook/store/sqlite"
)

// openStore builds the backend named by cfg.Store.Driver.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	sc := cfg.Store
	switch strings.ToLower(sc.Driver) {
	case "memory":
		return memory.New(), nil
	case "file":
		return file.New(sc.Path), nil
	case "sqlite":
		return sqlite.Open(sc.Path)
	case "postgres":
		return postgres.Connect(ctx, sc.DSN)
	case "mongo":
		return mongo.Connect(ctx, sc.DSN, sc.Database, mongo.WithDocumentID(sc.Prefix))
	case "redis":
		prefix := sc.Prefix
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		return redis.Connect(ctx, sc.DSN, prefix)
	}
	return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
}
