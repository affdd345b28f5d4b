package snapshot

import (
	"fmt"
	"os"
	"sync"

	"github.com/okian/guildsnap/internal/domain/model"
	"github.com/okian/guildsnap/pkg/metrics"
)

// SideLog records players the remote side does not know. The file is
// truncated when opened, so it only covers the current run.
type SideLog struct {
	mu      sync.Mutex
	f       *os.File
	entries int
}

// OpenSideLog truncates or creates path.
func OpenSideLog(path string) (*SideLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenSideLog, path, err)
	}
	return &SideLog{f: f}, nil
}

// UnknownCharacter appends one line for key.
func (s *SideLog) UnknownCharacter(key model.PlayerKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	metrics.RecordUnknownCharacter()
	if _, err := fmt.Fprintf(s.f, "character not found: realm=%s name=%s\n", key.Realm, key.Name); err != nil {
		return fmt.Errorf("append side log: %w", err)
	}
	s.entries++
	return nil
}

// Entries returns the number of lines written this run.
func (s *SideLog) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries
}

// Close flushes and closes the file.
func (s *SideLog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
