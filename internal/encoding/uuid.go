package encoding

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// UUIDSize is the number of bytes used by a UUID on the wire.
const UUIDSize = 16

// ParseUUID accepts the canonical xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx form,
// a uuid.UUID or its raw 16 bytes.
func ParseUUID(v any) (uuid.UUID, error) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, nil
	case [16]byte:
		return uuid.UUID(x), nil
	case string:
		if len(x) != 36 {
			return uuid.Nil, errors.Newf("invalid uuid length %d", len(x))
		}
		id, err := uuid.Parse(x)
		if err != nil {
			return uuid.Nil, errors.Wrapf(err, "invalid uuid %q", x)
		}
		return id, nil
	case []byte:
		if len(x) != UUIDSize {
			return uuid.Nil, errors.Newf("invalid uuid length %d", len(x))
		}
		return uuid.FromBytes(x)
	}

	return uuid.Nil, errors.Newf("cannot convert %T to uuid", v)
}

// FormatUUID returns the canonical, lowercase, hyphenated form of b.
func FormatUUID(b []byte) string {
	var id uuid.UUID
	copy(id[:], b)
	return id.String()
}
