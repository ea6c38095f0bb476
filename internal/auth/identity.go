package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

type Kind string

const (
	KindAnonymous Kind = "anonymous"
	KindCustomer  Kind = "customer"
	KindSupplier  Kind = "supplier"
	KindAdmin     Kind = "admin"
)

// Session keys. At most one is set at a time; login clears the others.
const (
	SessionAdminKey    = "adminId"
	SessionSupplierKey = "supplierId"
	SessionCustomerKey = "customerId"
)

// sessionKeys is ordered by precedence when more than one key is present.
var sessionKeys = []struct {
	key  string
	kind Kind
}{
	{SessionAdminKey, KindAdmin},
	{SessionSupplierKey, KindSupplier},
	{SessionCustomerKey, KindCustomer},
}

// Identity is the caller of a request as derived from its session.
type Identity struct {
	Kind Kind `json:"role"`
	ID   uint `json:"id"`
}

func Anonymous() Identity { return Identity{Kind: KindAnonymous} }

func (i Identity) IsAnonymous() bool { return i.Kind == KindAnonymous || i.Kind == "" }
func (i Identity) IsAdmin() bool     { return i.Kind == KindAdmin }
func (i Identity) IsSupplier() bool  { return i.Kind == KindSupplier }
func (i Identity) IsCustomer() bool  { return i.Kind == KindCustomer }

func sessionKeyFor(kind Kind) string {
	for _, sk := range sessionKeys {
		if sk.kind == kind {
			return sk.key
		}
	}
	return ""
}

// identityFromValues resolves an identity from session values. Non-numeric or
// zero ids are ignored.
func identityFromValues(get func(key string) interface{}) Identity {
	for _, sk := range sessionKeys {
		v := get(sk.key)
		if v == nil {
			continue
		}
		if id := cast.ToUint(v); id > 0 {
			return Identity{Kind: sk.kind, ID: id}
		}
	}
	return Anonymous()
}

type ctxKey struct{}

func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok {
		return id
	}
	return Anonymous()
}

func IdentityFrom(c *fiber.Ctx) Identity {
	return FromContext(c.UserContext())
}

func setIdentity(c *fiber.Ctx, id Identity) {
	c.SetUserContext(NewContext(c.UserContext(), id))
}
