package rpc_types

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/LeJamon/goMarketd/internal/core/settlement"
	"github.com/LeJamon/goMarketd/internal/core/types"
)

// API version constants
const (
	ApiVersion1       = 1
	ApiVersion2       = 2
	DefaultApiVersion = ApiVersion1
)

// AllApiVersions is accepted by every method of this server.
var AllApiVersions = []int{ApiVersion1, ApiVersion2}

// Role-based access control
type Role int

const (
	// RoleGuest may call read-only methods.
	RoleGuest Role = iota
	// RoleUser is a request acting as an account; mutating methods need it.
	RoleUser
)

// ReceiptJournal is the queryable receipt history.
type ReceiptJournal interface {
	Recent(ctx context.Context, limit int) ([]*settlement.Receipt, error)
	ByAsset(ctx context.Context, asset types.AssetID, limit int) ([]*settlement.Receipt, error)
}

// ServiceContainer holds what method handlers operate on.
type ServiceContainer struct {
	Market  *settlement.Engine
	Journal ReceiptJournal // nil when the journal is disabled

	Version   string
	StartedAt time.Time
}

// RPC Context contains request-specific information
type RpcContext struct {
	Context    context.Context
	Role       Role
	ApiVersion int
	ClientIP   string

	// Account is the acting account of a RoleUser request.
	Account types.Address
	// Sequence is the signed call sequence of a RoleUser request, if any.
	Sequence *uint32

	Services *ServiceContainer
}

// Method handler interface - all RPC methods implement this
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)
	RequiredRole() Role
	SupportedApiVersions() []int
}

// Method registry for dynamic method registration
type MethodRegistry struct {
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

// List returns the registered method names in sorted order.
func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// Common parameter structures used across multiple methods

// AccountParam names the acting account of a mutating call.
type AccountParam struct {
	Account string `json:"account"`
}

// SignatureParams authenticate a mutating call. See the rpc package for the
// signed message. Sequence is one past the account's last consumed
// sequence; it is part of the signed params, so a replayed call fails.
type SignatureParams struct {
	PublicKey string  `json:"public_key,omitempty"`
	Signature string  `json:"signature,omitempty"`
	Sequence  *uint32 `json:"sequence,omitempty"`
}

type AssetParam struct {
	AssetID *uint64 `json:"asset_id"`
}

type OfferParam struct {
	AssetParam
	OfferIndex *uint32 `json:"offer_index"`
}

// PaginationParams bounds list results.
type PaginationParams struct {
	Limit int `json:"limit,omitempty"`
}
