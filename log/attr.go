package log

import "log/slog"

// Attribute keys shared by the l20n packages, so that messages about the same
// entity or module can be filtered by a single key.
const (
	KeyEntity = "entity"
	KeyModule = "module"
	KeyQuery  = "query"
	KeyError  = "error"
)

// Entity names the entity, macro, or attribute a message is about.
func Entity(name string) slog.Attr { return slog.String(KeyEntity, name) }

// Module names the resource path a message is about.
func Module(path string) slog.Attr { return slog.String(KeyModule, path) }

// Query records the query expression a message is about.
func Query(q string) slog.Attr { return slog.String(KeyQuery, q) }

// Err records err, which is rendered through its LogValue method when it has
// one. A nil err yields an empty attribute, which handlers omit.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}

	return slog.Any(KeyError, err)
}
