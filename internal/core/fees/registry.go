package fees

import (
	"context"

	errorsmod "cosmossdk.io/errors"

	"github.com/LeJamon/goMarketd/internal/core/keylet"
	"github.com/LeJamon/goMarketd/internal/core/state"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// Entry is a collection's fee configuration.
type Entry struct {
	Collection    types.CollectionID `json:"collection_id"`
	FeeRecipient  types.Address      `json:"fee_recipient"`
	BuyingFeeBps  types.Bps          `json:"buying_fee_bps"`
	SellingFeeBps types.Bps          `json:"selling_fee_bps"`
}

func (e *Entry) Validate() error {
	if e.FeeRecipient.IsZero() {
		return errorsmod.Wrapf(types.ErrZeroAddress, "fee recipient of collection %s", e.Collection)
	}
	if err := e.BuyingFeeBps.Validate(); err != nil {
		return err
	}
	return e.SellingFeeBps.Validate()
}

type entryRecord struct {
	Collection    uint64        `codec:"collection"`
	FeeRecipient  types.Address `codec:"recipient"`
	BuyingFeeBps  uint32        `codec:"buy_bps"`
	SellingFeeBps uint32        `codec:"sell_bps"`
}

func (r *entryRecord) entry() *Entry {
	return &Entry{
		Collection:    types.CollectionID(r.Collection),
		FeeRecipient:  r.FeeRecipient,
		BuyingFeeBps:  types.Bps(r.BuyingFeeBps),
		SellingFeeBps: types.Bps(r.SellingFeeBps),
	}
}

func newEntryRecord(e *Entry) *entryRecord {
	return &entryRecord{
		Collection:    uint64(e.Collection),
		FeeRecipient:  e.FeeRecipient,
		BuyingFeeBps:  uint32(e.BuyingFeeBps),
		SellingFeeBps: uint32(e.SellingFeeBps),
	}
}

type ownerRecord struct {
	Owner types.Address `codec:"owner"`
}

// Registry is the per-collection fee registry living at one address.
// Every write is restricted to the registry owner.
type Registry struct {
	view    state.View
	address types.Address
}

func NewRegistry(view state.View, address types.Address) *Registry {
	return &Registry{view: view, address: address}
}

func (r *Registry) Address() types.Address {
	return r.address
}

// Owner returns the registry owner, or the zero address when unset.
func (r *Registry) Owner() (types.Address, error) {
	rec, err := state.Load[ownerRecord](r.view, keylet.RegistryOwner(r.address))
	if err != nil || rec == nil {
		return types.ZeroAddress, err
	}
	return rec.Owner, nil
}

// Init sets the owner of a registry that has none yet.
func (r *Registry) Init(owner types.Address) error {
	if owner.IsZero() {
		return errorsmod.Wrap(types.ErrZeroAddress, "registry owner")
	}
	current, err := r.Owner()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return nil
	}
	return state.Save(r.view, keylet.RegistryOwner(r.address), &ownerRecord{Owner: owner})
}

func (r *Registry) requireOwner(caller types.Address) error {
	owner, err := r.Owner()
	if err != nil {
		return err
	}
	if owner.IsZero() || owner != caller {
		return errorsmod.Wrapf(types.ErrUnauthorized, "only the registry owner may modify fee entries (caller %s)", caller)
	}
	return nil
}

// TransferOwnership hands the registry to newOwner.
func (r *Registry) TransferOwnership(caller, newOwner types.Address) error {
	if err := r.requireOwner(caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return errorsmod.Wrap(types.ErrZeroAddress, "new registry owner")
	}
	return state.Save(r.view, keylet.RegistryOwner(r.address), &ownerRecord{Owner: newOwner})
}

// Lookup returns the entry of collection, or nil when none is registered.
func (r *Registry) Lookup(collection types.CollectionID) (*Entry, error) {
	rec, err := state.Load[entryRecord](r.view, keylet.FeeEntry(r.address, collection))
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.entry(), nil
}

// GetFeeEntry is Lookup failing with ErrCollectionNotFound when absent.
func (r *Registry) GetFeeEntry(collection types.CollectionID) (*Entry, error) {
	entry, err := r.Lookup(collection)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errorsmod.Wrapf(types.ErrCollectionNotFound, "collection %s", collection)
	}
	return entry, nil
}

// CreateEntry registers a new collection.
func (r *Registry) CreateEntry(caller types.Address, entry Entry) error {
	if err := r.requireOwner(caller); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	existing, err := r.Lookup(entry.Collection)
	if err != nil {
		return err
	}
	if existing != nil {
		return errorsmod.Wrapf(types.ErrCollectionExists, "collection %s", entry.Collection)
	}
	return state.Create(r.view, keylet.FeeEntry(r.address, entry.Collection), newEntryRecord(&entry))
}

// UpdateBuyingFee changes a collection's buyer-side rate.
func (r *Registry) UpdateBuyingFee(caller types.Address, collection types.CollectionID, bps types.Bps) error {
	return r.update(caller, collection, func(e *Entry) { e.BuyingFeeBps = bps })
}

// UpdateSellingFee changes a collection's seller-side rate.
func (r *Registry) UpdateSellingFee(caller types.Address, collection types.CollectionID, bps types.Bps) error {
	return r.update(caller, collection, func(e *Entry) { e.SellingFeeBps = bps })
}

// UpdateFeeRecipient changes who receives a collection's fees.
func (r *Registry) UpdateFeeRecipient(caller types.Address, collection types.CollectionID, recipient types.Address) error {
	return r.update(caller, collection, func(e *Entry) { e.FeeRecipient = recipient })
}

func (r *Registry) update(caller types.Address, collection types.CollectionID, mutate func(*Entry)) error {
	if err := r.requireOwner(caller); err != nil {
		return err
	}
	entry, err := r.GetFeeEntry(collection)
	if err != nil {
		return err
	}
	mutate(entry)
	if err := entry.Validate(); err != nil {
		return err
	}
	return state.Save(r.view, keylet.FeeEntry(r.address, collection), newEntryRecord(entry))
}

// ListEntries returns every committed entry of the registry at address in
// collection order.
func ListEntries(ctx context.Context, store *state.Store, address types.Address) ([]*Entry, error) {
	var entries []*Entry
	err := store.Scan(ctx, keylet.FeeEntryPrefix(address), func(key, data []byte) (bool, error) {
		var rec entryRecord
		if err := state.Unmarshal(data, &rec); err != nil {
			return false, err
		}
		entries = append(entries, rec.entry())
		return true, nil
	})
	return entries, err
}
