package tablecache

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/mitchellh/hashstructure"
)

// KeyFunc builds the cache key of one lazy table read. kind names the read
// operation and args holds its arguments. generation changes whenever the
// table is written, which orphans every key built before the write.
type KeyFunc func(table string, generation uint64, kind string, args interface{}) (string, error)

func defaultKeyFunc(table string, generation uint64, kind string, args interface{}) (string, error) {
	u64, err := hashstructure.Hash(struct {
		Table string
		Kind  string
		Args  interface{}
	}{
		Table: table,
		Kind:  kind,
		Args:  args,
	}, nil)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s:g%d:%sh%s", table, generation, kind, strconv.FormatUint(u64, 10))
	return key, nil
}

// NoopKey returns a readable representation of the read instead of a hash.
// Whitespaces are stripped off. Useful when inspecting a shared backend such
// as redis by hand.
func NoopKey(table string, generation uint64, kind string, args interface{}) (string, error) {
	raw := fmt.Sprintf("%+v", args)
	var b strings.Builder
	b.Grow(len(table) + len(kind) + len(raw) + 24) // arbitrary
	b.WriteString(table)
	b.WriteString(":g")
	b.WriteString(strconv.FormatUint(generation, 10))
	b.WriteRune(':')
	b.WriteString(kind)
	b.WriteRune(':')
	for _, ch := range raw {
		if !unicode.IsSpace(ch) {
			b.WriteRune(ch)
		}
	}

	return b.String(), nil
}
