// Package store persists kinetics families as human-readable text files.
//
// Each family owns a directory under the store root:
//
//	<root>/<family>/groups.txt    template, recipe, group entries, tree
//	<root>/<family>/rules.txt     rate rules
//	<root>/<family>/<name>.txt    depositories (training set and friends)
//
// The format is line-oriented and deterministic: saving a freshly loaded
// family reproduces the file byte for byte, and Load(Save(f)) returns a
// family equal to the original up to node indices.
package store

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/turtacn/ReactKin/internal/domain/family"
	"github.com/turtacn/ReactKin/internal/domain/rules"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// Store reads and writes family databases rooted at one directory.
type Store struct {
	root string
	log  logging.Logger
}

// Option configures a store.
type Option func(*Store)

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l.Named("store") }
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{root: dir, log: logging.NewNopLogger()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Root returns the store's base directory.
func (s *Store) Root() string { return s.root }

func (s *Store) familyDir(label string) string {
	return filepath.Join(s.root, label)
}

func (s *Store) groupsPath(label string) string {
	return filepath.Join(s.familyDir(label), "groups.txt")
}

func (s *Store) rulesPath(label string) string {
	return filepath.Join(s.familyDir(label), "rules.txt")
}

func (s *Store) depositoryPath(label, name string) string {
	return filepath.Join(s.familyDir(label), name+".txt")
}

// ListFamilies returns the labels of every family directory under the root,
// sorted.
func (s *Store) ListFamilies() ([]string, error) {
	dirents, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIOError, "reading store root")
	}
	var out []string
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		if _, err := os.Stat(s.groupsPath(d.Name())); err == nil {
			out = append(out, d.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// SaveFamily writes the family's groups file, creating the directory as
// needed.
func (s *Store) SaveFamily(f *family.KineticsFamily) error {
	if err := os.MkdirAll(s.familyDir(f.Label), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrCodeIOError, "creating family directory")
	}
	text, err := formatGroups(f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.groupsPath(f.Label), []byte(text), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeIOError, "writing groups file")
	}
	s.log.Info("saved family groups",
		logging.String("family", f.Label),
		logging.Int("entries", f.Groups.Len()))
	return nil
}

// LoadFamily reads a family back from its groups file.  Non-own-reverse
// families with a product template get their product groups and reverse
// template regenerated, so loaded families are immediately usable.
func (s *Store) LoadFamily(label string, opts ...family.Option) (*family.KineticsFamily, error) {
	data, err := os.ReadFile(s.groupsPath(label))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeFamilyNotFound, "no groups file for "+label)
		}
		return nil, errors.Wrap(err, errors.ErrCodeIOError, "reading groups file")
	}
	f, err := parseGroups(label, string(data), opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFamilyLoadFailed, "parsing family "+label)
	}
	if !f.OwnReverse && len(f.ForwardTemplate.Products) > 0 {
		if err := f.GenerateProductTemplate(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFamilyLoadFailed,
				"building product template for "+label)
		}
	}
	s.log.Info("loaded family",
		logging.String("family", label),
		logging.Int("entries", f.Groups.Len()))
	return f, nil
}

// SaveRules writes a family's rule table.
func (s *Store) SaveRules(t *rules.Table) error {
	if err := os.MkdirAll(s.familyDir(t.Family()), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrCodeIOError, "creating family directory")
	}
	text := formatRules(t)
	if err := os.WriteFile(s.rulesPath(t.Family()), []byte(text), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeIOError, "writing rules file")
	}
	s.log.Info("saved rules",
		logging.String("family", t.Family()),
		logging.Int("rules", t.Len()))
	return nil
}

// LoadRules reads a family's rule table.  A missing file yields an empty
// table.
func (s *Store) LoadRules(label string) (*rules.Table, error) {
	data, err := os.ReadFile(s.rulesPath(label))
	if err != nil {
		if os.IsNotExist(err) {
			return rules.NewTable(label), nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeIOError, "reading rules file")
	}
	t, err := parseRules(label, string(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFamilyLoadFailed, "parsing rules for "+label)
	}
	return t, nil
}

// SaveDepository writes one depository file for the family.
func (s *Store) SaveDepository(label string, d *rules.Depository) error {
	if err := os.MkdirAll(s.familyDir(label), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrCodeIOError, "creating family directory")
	}
	text := formatDepository(d)
	path := s.depositoryPath(label, d.Label)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeIOError, "writing depository file")
	}
	s.log.Info("saved depository",
		logging.String("family", label),
		logging.String("depository", d.Label),
		logging.Int("entries", d.Len()))
	return nil
}

// LoadDepository reads one depository.  A missing file yields an empty
// depository.
func (s *Store) LoadDepository(label, name string) (*rules.Depository, error) {
	data, err := os.ReadFile(s.depositoryPath(label, name))
	if err != nil {
		if os.IsNotExist(err) {
			return rules.NewDepository(name), nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeIOError, "reading depository file")
	}
	d, err := parseDepository(label, name, string(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFamilyLoadFailed,
			"parsing depository "+name+" for "+label)
	}
	return d, nil
}
