package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ppiankov/crosscheck/internal/cache"
	"github.com/ppiankov/crosscheck/internal/model"
)

// OpenCached loads a source through a snapshot cache. File sources are
// keyed by path, size and modification time so an edited file is reloaded;
// database sources rely on the TTL.
func OpenCached(ctx context.Context, source string, c cache.Cache, ttl time.Duration) (*Table, error) {
	if c == nil {
		return Open(ctx, source)
	}

	key, err := snapshotKey(source)
	if err != nil {
		return nil, err
	}

	if data, ok := c.Get(key); ok {
		var entries []model.AuthorityAgency
		if err := json.Unmarshal(data, &entries); err == nil {
			return NewTable(entries), nil
		}
		_ = c.Delete(key)
	}

	table, err := Open(ctx, source)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(table.List(""))
	if err != nil {
		return nil, fmt.Errorf("marshal lookup snapshot: %w", err)
	}
	if err := c.Set(key, data, ttl); err != nil {
		return nil, fmt.Errorf("store lookup snapshot: %w", err)
	}
	return table, nil
}

func snapshotKey(source string) (string, error) {
	scheme, target, err := ParseSource(source)
	if err != nil {
		return "", err
	}
	if scheme == "postgres" {
		return cache.Key("lookup", scheme, target), nil
	}

	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("failed to stat lookup source: %w", err)
	}
	return cache.Key("lookup", scheme, target,
		strconv.FormatInt(info.Size(), 10),
		strconv.FormatInt(info.ModTime().UnixNano(), 10)), nil
}
