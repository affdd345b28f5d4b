// Package source reads the guild list and the supplementary player list.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/okian/guildsnap/internal/domain/dedupe"
	"github.com/okian/guildsnap/internal/domain/model"
	"github.com/okian/guildsnap/pkg/logger"
	"github.com/okian/guildsnap/pkg/metrics"
)

const (
	sourceGuilds  = "guilds"
	sourcePlayers = "players"
)

// Loader turns input files into guild identifiers and player keys.
type Loader struct {
	region string
	strict bool
	log    logger.Logger
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{region: "eu", log: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Guilds reads one guild token per line. Blank lines and # comments are
// skipped; invalid and duplicate tokens are skipped with a warning. Order
// follows the file.
func (l *Loader) Guilds(ctx context.Context, path string) ([]model.GuildIdentifier, error) {
	var out []model.GuildIdentifier
	seen := dedupe.NewInMemoryDeduper()

	err := l.readLines(ctx, sourceGuilds, path, func(n int, line string) {
		id, err := model.ParseGuildIdentifier(line, l.region)
		if err != nil {
			metrics.RecordInputSkipped(sourceGuilds, "invalid")
			l.log.Warn(ctx, "skipping invalid guild line", logger.Int("line", n), logger.Error(err))
			return
		}
		if seen.SeenAndRecord(ctx, id.Key()) {
			metrics.RecordInputSkipped(sourceGuilds, "duplicate")
			l.log.Warn(ctx, "skipping duplicate guild", logger.Int("line", n), logger.String("guild", id.String()))
			return
		}
		out = append(out, id)
	})
	if err != nil {
		return nil, err
	}

	metrics.UpdateGuildsLoaded(len(out))
	l.log.Info(ctx, "guild list loaded", logger.String("path", path), logger.Int("guilds", len(out)))
	return out, nil
}

// Players reads "name realm" lines; the realm is everything after the first
// field and may contain spaces. An empty path yields no players.
func (l *Loader) Players(ctx context.Context, path string) ([]model.PlayerKey, error) {
	if path == "" {
		return nil, nil
	}

	var out []model.PlayerKey
	err := l.readLines(ctx, sourcePlayers, path, func(n int, line string) {
		key, ok := parsePlayerLine(line)
		if !ok {
			metrics.RecordInputSkipped(sourcePlayers, "invalid")
			l.log.Warn(ctx, "skipping player line without realm", logger.Int("line", n))
			return
		}
		out = append(out, key)
	})
	if err != nil {
		return nil, err
	}

	l.log.Info(ctx, "player list loaded", logger.String("path", path), logger.Int("players", len(out)))
	return out, nil
}

func parsePlayerLine(line string) (model.PlayerKey, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return model.PlayerKey{}, false
	}
	name := fields[0]
	realm := strings.TrimSpace(strings.TrimPrefix(line, name))
	return model.PlayerKey{Realm: realm, Name: name}, true
}

// readLines calls fn for every non-blank, non-comment line. A file that cannot
// be opened or read yields no lines unless the loader is strict.
func (l *Loader) readLines(ctx context.Context, kind, path string, fn func(n int, line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return l.unreadable(ctx, kind, path, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return l.unreadable(ctx, kind, path, err)
	}

	for i, raw := range lines {
		line := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fn(i+1, line)
	}
	return nil
}

func (l *Loader) unreadable(ctx context.Context, kind, path string, err error) error {
	if l.strict {
		return fmt.Errorf("%w: %s %q: %v", ErrUnreadableInput, kind, path, err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		l.log.Warn(ctx, "input file missing, continuing with an empty list", logger.String("input", kind), logger.String("path", path))
	} else {
		l.log.Warn(ctx, "input file unreadable, continuing with an empty list", logger.String("input", kind), logger.String("path", path), logger.Error(err))
	}
	return nil
}
