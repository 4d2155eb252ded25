package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Run lifecycle.
	ErrNotInitialized = "E_NOT_INITIALIZED"
	ErrBadState       = "E_BAD_STATE"
	ErrBadSpeed       = "E_BAD_SPEED"
	ErrBadCatalog     = "E_BAD_CATALOG"
	ErrBadParameter   = "E_BAD_PARAMETER"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrNotInitialized:  {},
	ErrBadState:        {},
	ErrBadSpeed:        {},
	ErrBadCatalog:      {},
	ErrBadParameter:    {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
