package sqlstore

import (
	"database/sql/driver"
	"io"
	"sync/atomic"
)

func newRowsRecorder(s *Stats, rows driver.Rows) *rowsRecorder {
	return &rowsRecorder{
		stats: s,
		dr:    rows,
	}
}

// rowsRecorder counts the rows read through it and adds them to the table's
// stats when closed.
type rowsRecorder struct {
	stats  *Stats
	n      uint64
	gotErr bool
	closed bool
	dr     driver.Rows
}

func (r *rowsRecorder) Columns() []string {
	return r.dr.Columns()
}

func (r *rowsRecorder) Close() error {
	if r.closed {
		return r.dr.Close()
	}
	r.closed = true
	atomic.AddUint64(&r.stats.Rows, r.n)
	if r.gotErr {
		atomic.AddUint64(&r.stats.Errors, 1)
	}
	return r.dr.Close()
}

func (r *rowsRecorder) Next(dest []driver.Value) error {
	err := r.dr.Next(dest)
	switch {
	case err == nil:
		r.n++
	case err != io.EOF:
		r.gotErr = true
	}
	return err
}
