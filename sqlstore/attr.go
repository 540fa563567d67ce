package sqlstore

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	attrRegexp = regexp.MustCompile(`-- (@table|@op) (\S+)`)
)

type attributes struct {
	table string
	op    string
}

// getAttrs returns the attributes of a statement compiled by this package,
// or nil for statements without a table attribute.
func getAttrs(query string) *attributes {
	matches := attrRegexp.FindAllStringSubmatch(query, 2)
	if len(matches) == 0 {
		return nil
	}

	var attrs attributes
	for _, match := range matches {
		if len(match) != 3 {
			return nil
		}
		switch match[1] {
		case "@table":
			attrs.table = match[2]
		case "@op":
			attrs.op = match[2]
		}
	}
	if attrs.table == "" {
		return nil
	}

	return &attrs
}

func writeAttrs(b *strings.Builder, table, op string) {
	fmt.Fprintf(b, "-- @table %s\n-- @op %s\n", table, op)
}
