package cart

import (
	"fmt"
	"sync"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/notify"

	"github.com/shopspring/decimal"
)

// Item is one line of the sale. Quantity is always > 0 while it sits in a Store.
type Item struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// Snapshot is an immutable copy of the cart at one instant.
type Snapshot struct {
	Items         []Item               `json:"items"`
	Discount      decimal.Decimal      `json:"discount"`
	TaxRate       decimal.Decimal      `json:"taxRate"`
	CustomerName  string               `json:"customerName,omitempty"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod,omitempty"`
	// Epoch increases every time the cart is cleared.
	Epoch uint64 `json:"epoch"`
}

func (s Snapshot) Empty() bool { return len(s.Items) == 0 }

// Find returns the line for productID, if any.
func (s Snapshot) Find(productID int64) (Item, bool) {
	for _, it := range s.Items {
		if it.Product.ID == productID {
			return it, true
		}
	}
	return Item{}, false
}

// Result is returned by every mutation that can be refused.
type Result struct {
	OK      bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func ok() Result { return Result{OK: true} }

func fail(format string, args ...any) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}

// Max is a helper for the optional maxQuantity argument.
func Max(n int) *int { return &n }

// Store holds the in-progress sale of one POS session.
// Every exported method takes the lock for its whole duration, so no caller
// ever sees a half-applied change.
type Store struct {
	mu             sync.Mutex
	items          []Item
	discount       decimal.Decimal
	taxRate        decimal.Decimal
	defaultTaxRate decimal.Decimal
	customerName   string
	paymentMethod  models.PaymentMethod
	epoch          uint64

	changed notify.Signal
}

// NewStore returns an empty cart whose tax rate starts at (and resets to) defaultTaxRate.
func NewStore(defaultTaxRate decimal.Decimal) *Store {
	return &Store{
		taxRate:        defaultTaxRate,
		defaultTaxRate: defaultTaxRate,
		discount:       decimal.Zero,
	}
}

// Subscribe delivers a tick after each mutation that actually changed state.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	return s.changed.Subscribe()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	items := make([]Item, len(s.items))
	copy(items, s.items)
	return Snapshot{
		Items:         items,
		Discount:      s.discount,
		TaxRate:       s.taxRate,
		CustomerName:  s.customerName,
		PaymentMethod: s.paymentMethod,
		Epoch:         s.epoch,
	}
}

func (s *Store) indexOf(productID int64) int {
	for i := range s.items {
		if s.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// AddProduct adds one unit of p. When max is non-nil it is the number of units
// currently in stock and the line may not grow past it.
func (s *Store) AddProduct(p models.Product, max *int) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(p.ID); i >= 0 {
		current := s.items[i].Quantity
		if max != nil && current >= *max {
			return fail("No more stock available for %s", p.Name)
		}
		s.items[i].Quantity = current + 1
		s.changed.Fire()
		return ok()
	}

	if max != nil && *max < 1 {
		return fail("No stock available for %s", p.Name)
	}
	s.items = append(s.items, Item{Product: p, Quantity: 1})
	s.changed.Fire()
	return ok()
}

// UpdateQuantity sets the quantity of a line. quantity <= 0 removes it.
func (s *Store) UpdateQuantity(productID int64, quantity int, max *int) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if quantity <= 0 {
		if i >= 0 {
			s.removeAt(i)
		}
		return ok()
	}
	if max != nil && quantity > *max {
		return fail("Only %d unit(s) in stock", *max)
	}
	if i < 0 {
		return fail("Product %d is not in the cart", productID)
	}
	if s.items[i].Quantity != quantity {
		s.items[i].Quantity = quantity
		s.changed.Fire()
	}
	return ok()
}

func (s *Store) removeAt(i int) {
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.changed.Fire()
}

// RemoveProduct drops the line for productID. Missing lines are ignored.
func (s *Store) RemoveProduct(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(productID); i >= 0 {
		s.removeAt(i)
	}
}

// RemoveLast drops the most recently inserted line and reports what it removed.
func (s *Store) RemoveLast() (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return Item{}, false
	}
	last := s.items[len(s.items)-1]
	s.removeAt(len(s.items) - 1)
	return last, true
}

// SetDiscount stores the global discount as given. It is capped against the
// subtotal only when totals are calculated.
func (s *Store) SetDiscount(amount decimal.Decimal) Result {
	if amount.IsNegative() {
		return fail("Discount cannot be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.discount.Equal(amount) {
		s.discount = amount
		s.changed.Fire()
	}
	return ok()
}

// SetTaxRate sets the default rate (a fraction, 0.15 = 15%) used by lines
// whose product carries no tax percentage of its own.
func (s *Store) SetTaxRate(rate decimal.Decimal) Result {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fail("Tax rate must be between 0 and 1")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.taxRate.Equal(rate) {
		s.taxRate = rate
		s.changed.Fire()
	}
	return ok()
}

func (s *Store) SetCustomerName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customerName = name
}

func (s *Store) SetPaymentMethod(m models.PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentMethod = m
}

// Clear resets the cart to its initial state, including the default tax rate.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// ClearEpoch clears the cart only if no other clear happened since epoch was
// read. A checkout that finishes after its session moved on must not wipe the
// next sale.
func (s *Store) ClearEpoch(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	s.resetLocked()
	return true
}

func (s *Store) resetLocked() {
	s.items = nil
	s.discount = decimal.Zero
	s.taxRate = s.defaultTaxRate
	s.customerName = ""
	s.paymentMethod = ""
	s.epoch++
	s.changed.Fire()
}

// ClampTo lowers the line for productID to at most available units, removing
// it when available <= 0. It never raises a quantity. The returned Item is the
// line after the change; changed is false when nothing had to move.
func (s *Store) ClampTo(productID int64, available int) (after Item, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return Item{}, false
	}
	line := s.items[i]
	if line.Quantity <= available {
		return line, false
	}
	if available <= 0 {
		s.removeAt(i)
		line.Quantity = 0
		return line, true
	}
	s.items[i].Quantity = available
	s.changed.Fire()
	return s.items[i], true
}
