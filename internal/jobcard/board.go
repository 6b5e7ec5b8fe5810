package jobcard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aistudio/studio"
)

var (
	ErrNotFound  = errors.New("jobcard: card not found")
	ErrAmbiguous = errors.New("jobcard: ambiguous card id")
	ErrInvalidID = errors.New("jobcard: invalid card id")
)

const cardExt = ".json"

// FileError reports a card file that could not be read.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("jobcard: %s: %v", e.Path, e.Err) }
func (e *FileError) Unwrap() error { return e.Err }

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Status Status
	Role   string
	Tag    string
}

func (f Filter) match(c Card) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Role != "" && !strings.EqualFold(c.Role, f.Role) {
		return false
	}
	if f.Tag != "" && !c.HasTag(f.Tag) {
		return false
	}
	return true
}

// Board is a job-card folder tree.
type Board struct {
	root  string
	roles []string
	now   func() time.Time
}

// Option configures a Board.
type Option func(*Board)

// WithClock sets the time source for Created and Updated.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// NewBoard opens the board at root. roles restricts Card.Role; nil allows
// any role.
func NewBoard(root string, roles []string, opts ...Option) *Board {
	b := &Board{root: root, roles: slices.Clone(roles), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Root returns the board folder.
func (b *Board) Root() string { return b.root }

// Roles returns the allowed roles.
func (b *Board) Roles() []string { return slices.Clone(b.roles) }

// Init creates the status folders. Existing folders and cards are kept.
func (b *Board) Init() error {
	for _, s := range statuses {
		if err := os.MkdirAll(b.dir(s), 0o755); err != nil {
			return fmt.Errorf("jobcard: init: %w", err)
		}
	}
	return nil
}

func (b *Board) dir(s Status) string { return filepath.Join(b.root, string(s)) }

func (b *Board) path(s Status, id string) string {
	return filepath.Join(b.dir(s), id+cardExt)
}

// Create validates c, assigns an ID and timestamps, and writes it. Status
// defaults to inbox and Priority to normal.
func (b *Board) Create(c Card) (Card, error) {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return Card{}, fmt.Errorf("%w: empty title", ErrInvalidCard)
	}
	if err := CheckRole(c.Role, b.roles); err != nil {
		return Card{}, err
	}
	if c.Status == "" {
		c.Status = StatusInbox
	}
	if !c.Status.Valid() {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidStatus, c.Status)
	}
	if c.Priority == "" {
		c.Priority = PriorityNormal
	}
	if c.Priority.Rank() < 0 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidPriority, c.Priority)
	}

	c.ID = uuid.NewString()
	now := b.now().UTC()
	c.Created, c.Updated = now, now

	if err := os.MkdirAll(b.dir(c.Status), 0o755); err != nil {
		return Card{}, fmt.Errorf("jobcard: %w", err)
	}
	if err := writeCard(b.path(c.Status, c.ID), c); err != nil {
		return Card{}, err
	}
	studio.Logger().Info("jobcard: created", "id", c.ID, "role", c.Role, "status", c.Status)
	return c, nil
}

// Get returns the card whose ID is id or starts with it.
func (b *Board) Get(id string) (Card, error) {
	c, _, err := b.find(id)
	return c, err
}

// List returns matching cards sorted by priority (highest first), then by
// creation time. Unreadable card files are returned as *FileError values
// next to the good cards; only a failure to read the folders themselves
// is an error.
func (b *Board) List(f Filter) ([]Card, []error, error) {
	var (
		cards    []Card
		problems []error
	)
	for _, s := range statuses {
		if f.Status != "" && f.Status != s {
			continue
		}
		entries, err := os.ReadDir(b.dir(s))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, nil, fmt.Errorf("jobcard: list %s: %w", s, err)
		}
		for _, e := range entries {
			if !isCardFile(e) {
				continue
			}
			path := filepath.Join(b.dir(s), e.Name())
			c, err := readCard(path, s)
			if err != nil {
				problems = append(problems, err)
				continue
			}
			if f.match(c) {
				cards = append(cards, c)
			}
		}
	}
	SortCards(cards)
	return cards, problems, nil
}

// SortCards orders by priority (highest first), creation time, then ID.
func SortCards(cards []Card) {
	slices.SortStableFunc(cards, func(a, b Card) int {
		if d := b.Priority.Rank() - a.Priority.Rank(); d != 0 {
			return d
		}
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Move sets the card status and moves its file into the matching folder.
// Moving to the current status changes nothing.
func (b *Board) Move(id string, to Status) (Card, error) {
	if !to.Valid() {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	c, from, err := b.find(id)
	if err != nil {
		return Card{}, err
	}
	if c.Status == to {
		return c, nil
	}

	prev := c.Status
	c.Status = to
	c.Updated = b.now().UTC()
	if err := writeCard(from, c); err != nil {
		return Card{}, err
	}
	if err := os.MkdirAll(b.dir(to), 0o755); err != nil {
		return Card{}, fmt.Errorf("jobcard: %w", err)
	}
	if err := os.Rename(from, filepath.Join(b.dir(to), filepath.Base(from))); err != nil {
		return Card{}, fmt.Errorf("jobcard: move %s: %w", c.ShortID(), err)
	}
	studio.Logger().Info("jobcard: moved", "id", c.ID, "from", prev, "to", to)
	return c, nil
}

// Update applies edit to a card and saves it in place. ID, Status and
// Created cannot be changed this way.
func (b *Board) Update(id string, edit func(*Card)) (Card, error) {
	c, path, err := b.find(id)
	if err != nil {
		return Card{}, err
	}
	orig := c
	edit(&c)
	c.ID, c.Status, c.Created = orig.ID, orig.Status, orig.Created
	if strings.TrimSpace(c.Title) == "" {
		return Card{}, fmt.Errorf("%w: empty title", ErrInvalidCard)
	}
	if err := CheckRole(c.Role, b.roles); err != nil {
		return Card{}, err
	}
	if c.Priority.Rank() < 0 {
		return Card{}, fmt.Errorf("%w: %q", ErrInvalidPriority, c.Priority)
	}
	c.Updated = b.now().UTC()
	if err := writeCard(path, c); err != nil {
		return Card{}, err
	}
	return c, nil
}

// Delete removes a card.
func (b *Board) Delete(id string) error {
	c, path, err := b.find(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("jobcard: delete %s: %w", c.ShortID(), err)
	}
	studio.Logger().Info("jobcard: deleted", "id", c.ID)
	return nil
}

// find resolves a full ID or a unique prefix to a card and its file.
func (b *Board) find(id string) (Card, string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Card{}, "", fmt.Errorf("%w: empty id", ErrNotFound)
	}
	if err := checkID(id); err != nil {
		return Card{}, "", err
	}
	var matches []string
	var folders []Status
	for _, s := range statuses {
		exact := b.path(s, id)
		if _, err := os.Stat(exact); err == nil {
			matches, folders = []string{exact}, []Status{s}
			break
		}
		entries, err := os.ReadDir(b.dir(s))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if isCardFile(e) && strings.HasPrefix(e.Name(), id) {
				matches = append(matches, filepath.Join(b.dir(s), e.Name()))
				folders = append(folders, s)
			}
		}
	}
	switch len(matches) {
	case 0:
		return Card{}, "", fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
	default:
		return Card{}, "", fmt.Errorf("%w: %s matches %d cards", ErrAmbiguous, id, len(matches))
	}
	c, err := readCard(matches[0], folders[0])
	if err != nil {
		return Card{}, "", err
	}
	return c, matches[0], nil
}

// checkID rejects ids that could name a file outside a status folder.
func checkID(id string) error {
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") || filepath.IsAbs(id) || filepath.VolumeName(id) != "" {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func isCardFile(e fs.DirEntry) bool {
	return !e.IsDir() && !strings.HasPrefix(e.Name(), ".") && filepath.Ext(e.Name()) == cardExt
}

// readCard decodes a card. The folder overrides the stored status.
func readCard(path string, folder Status) (Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Card{}, &FileError{Path: path, Err: err}
	}
	var c Card
	if err := json.Unmarshal(data, &c); err != nil {
		return Card{}, &FileError{Path: path, Err: err}
	}
	if c.ID == "" {
		c.ID = strings.TrimSuffix(filepath.Base(path), cardExt)
	}
	if err := checkID(c.ID); err != nil {
		return Card{}, &FileError{Path: path, Err: err}
	}
	if c.Status != folder {
		studio.Logger().Debug("jobcard: status follows folder", "id", c.ID, "stored", c.Status, "folder", folder)
		c.Status = folder
	}
	return c, nil
}

// writeCard writes c to path through a temp file and rename, so readers
// never see a partial card.
func writeCard(path string, c Card) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("jobcard: encode: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".card-*.tmp")
	if err != nil {
		return fmt.Errorf("jobcard: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("jobcard: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("jobcard: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jobcard: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("jobcard: rename: %w", err)
	}
	return nil
}
