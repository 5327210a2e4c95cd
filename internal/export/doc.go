// Package export renders stored cards as XLSX workbooks, CSV, vCard 3.0
// text, and vCard QR code images.
package export
