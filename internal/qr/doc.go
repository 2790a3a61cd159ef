// Package qr drives query/retrieve against a remote archive: it walks a
// date range day by day, finds matching studies, and requests each one be
// sent to the local receiver.
package qr
