package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lahorneada/storefront/internal/storage"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Line is one orderable unit in the cart. Two lines are the same line when
// they share (ProductID, SizeID, DesignID); DesignID zero means no design
// was chosen and still participates in the identity.
type Line struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	SizeID      int64   `json:"sizeId"`
	SizeName    string  `json:"sizeName"`
	Weight      string  `json:"weight,omitempty"`
	DesignID    int64   `json:"designId,omitempty"`
	DesignName  string  `json:"designName,omitempty"`
	Image       string  `json:"image,omitempty"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    int     `json:"quantity"`
}

func (l Line) sameKey(productID, sizeID, designID int64) bool {
	return l.ProductID == productID && l.SizeID == sizeID && l.DesignID == designID
}

// snapshot is the persisted shape of the full cart state.
type snapshot struct {
	Items      []Line    `json:"items"`
	CapturedAt time.Time `json:"capturedAt"`
}

// Store owns the in-progress order lines. Every mutation synchronously
// persists the full cart under storage.KeyCart; initialization restores a
// prior snapshot and falls back to an empty cart when the stored blob is
// absent or malformed.
type Store struct {
	mu        sync.Mutex
	snapshots storage.Snapshots
	lines     []Line
	nowFunc   func() time.Time
}

// NewStore restores the cart from the snapshot store. A corrupt or missing
// snapshot is not an error — the cart simply starts empty.
func NewStore(ctx context.Context, snapshots storage.Snapshots) *Store {
	s := &Store{snapshots: snapshots, nowFunc: time.Now}

	data, err := snapshots.Load(ctx, storage.KeyCart)
	if err != nil {
		slog.WarnContext(ctx, "cart: snapshot load failed, starting empty", "error", err)
		return s
	}
	if len(data) == 0 {
		return s
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.WarnContext(ctx, "cart: discarding malformed snapshot", "error", err)
		return s
	}
	s.lines = snap.Items
	return s
}

// Add appends a line, or merges quantities when a line with the same
// identity key already exists.
func (s *Store) Add(ctx context.Context, line Line) error {
	if line.Quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.lines {
		if s.lines[i].sameKey(line.ProductID, line.SizeID, line.DesignID) {
			s.lines[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, line)
	}

	return s.persist(ctx)
}

// Remove drops the line matching the exact identity key. Unknown keys are a
// no-op.
func (s *Store) Remove(ctx context.Context, productID, sizeID, designID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	removed := false
	for _, l := range s.lines {
		if l.sameKey(productID, sizeID, designID) {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	s.lines = kept
	if !removed {
		return nil
	}

	return s.persist(ctx)
}

// SetQuantity replaces the quantity of the matching line. A quantity of zero
// or less removes the line.
func (s *Store) SetQuantity(ctx context.Context, productID, sizeID, designID int64, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, productID, sizeID, designID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].sameKey(productID, sizeID, designID) {
			s.lines[i].Quantity = quantity
			return s.persist(ctx)
		}
	}
	return nil
}

// Clear empties the cart. Called after a successful order submission and by
// the explicit "empty cart" action.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	return s.persist(ctx)
}

// Summary is a consistent point-in-time view of the cart: the total always
// matches the lines it was computed from.
type Summary struct {
	Lines []Line
	Total float64
	Count int
}

// Summary captures lines, total and count under a single lock acquisition,
// so a concurrent mutation can never produce a total that disagrees with
// the lines.
func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)

	var total float64
	for _, l := range s.lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return Summary{Lines: lines, Total: total, Count: len(s.lines)}
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Total is the sum of unit price times quantity over all lines.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for _, l := range s.lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return total
}

// Count is the number of distinct lines, not the summed quantity.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

func (s *Store) IsEmpty() bool { return s.Count() == 0 }

// persist writes the full cart snapshot. Callers must hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	snap := snapshot{Items: s.lines, CapturedAt: s.nowFunc().UTC()}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("cart: marshal snapshot: %w", err)
	}
	if err := s.snapshots.Save(ctx, storage.KeyCart, data); err != nil {
		return fmt.Errorf("cart: persist snapshot: %w", err)
	}
	return nil
}
