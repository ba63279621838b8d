// Package records manages the resolver's local DNS overrides: hostname to
// IPv4 mappings rendered into an include file and activated by a reload.
package records

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/haukened/ub-admin/internal/console/common/log"
	"github.com/haukened/ub-admin/internal/console/domain"
	"github.com/haukened/ub-admin/internal/console/repos/docstore"
)

const docKeyRecords = "records"

var (
	ErrDuplicate = errors.New("hostname already exists")
	ErrBadIndex  = errors.New("invalid index")
)

// Reloader tells the resolver to pick up a rewritten include file.
type Reloader interface {
	Reload(ctx context.Context) (string, bool)
}

// Service owns the record list and its rendered artifact.
type Service struct {
	docs     docstore.Store
	reloader Reloader
	path     string
	logger   log.Logger
}

func New(docs docstore.Store, reloader Reloader, path string, logger log.Logger) *Service {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Service{docs: docs, reloader: reloader, path: path, logger: logger}
}

// List returns all records in insertion order.
func (s *Service) List() ([]domain.LocalRecord, error) {
	var out []domain.LocalRecord
	if _, err := docstore.GetJSON(s.docs, docKeyRecords, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.LocalRecord{}
	}
	return out, nil
}

// Add validates, stores, and activates a new record. The hostname is the
// unique key; re-adding one is a conflict, not an update.
func (s *Service) Add(ctx context.Context, hostname, ip string) (domain.LocalRecord, error) {
	rec, err := domain.NewLocalRecord(hostname, ip)
	if err != nil {
		return domain.LocalRecord{}, err
	}
	list, err := s.List()
	if err != nil {
		return domain.LocalRecord{}, err
	}
	for _, existing := range list {
		if existing.Hostname == rec.Hostname {
			return domain.LocalRecord{}, ErrDuplicate
		}
	}
	list = append(list, rec)
	if err := s.commit(ctx, list); err != nil {
		return domain.LocalRecord{}, err
	}
	return rec, nil
}

// Remove deletes the record at index and activates the change.
func (s *Service) Remove(ctx context.Context, index int) (domain.LocalRecord, error) {
	list, err := s.List()
	if err != nil {
		return domain.LocalRecord{}, err
	}
	if index < 0 || index >= len(list) {
		return domain.LocalRecord{}, ErrBadIndex
	}
	removed := list[index]
	list = append(list[:index], list[index+1:]...)
	if err := s.commit(ctx, list); err != nil {
		return domain.LocalRecord{}, err
	}
	return removed, nil
}

// Regenerate rewrites the include file from stored state without touching
// the resolver, for startup when the filesystem may be fresh.
func (s *Service) Regenerate() error {
	list, err := s.List()
	if err != nil {
		return err
	}
	return s.write(list)
}

// commit persists the list, rewrites the artifact, and reloads. A failed
// reload is logged but does not undo the change; the next reload picks it
// up.
func (s *Service) commit(ctx context.Context, list []domain.LocalRecord) error {
	if err := docstore.PutJSON(s.docs, docKeyRecords, list); err != nil {
		return err
	}
	if err := s.write(list); err != nil {
		return err
	}
	if out, ok := s.reloader.Reload(ctx); !ok {
		s.logger.Warn(map[string]any{"output": out}, "reload failed after local record change")
	}
	return nil
}

// write renders one redirect zone per record. The zone swallows the whole
// name so subdomains resolve to the same address.
func (s *Service) write(list []domain.LocalRecord) error {
	var b strings.Builder
	for _, rec := range list {
		fmt.Fprintf(&b, "local-zone: %q redirect\n", rec.Hostname+".")
		fmt.Fprintf(&b, "local-data: \"%s. A %s\"\n", rec.Hostname, rec.IP)
	}
	return os.WriteFile(s.path, []byte(b.String()), 0o644)
}
